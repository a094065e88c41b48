package flow

import (
	"time"

	"github.com/docuflow/docuflow/logger"
	"github.com/docuflow/docuflow/model"
	"go.uber.org/zap"
)

// Assign sets the assignee of a PENDING task. No status change.
func (s *Service) Assign(instanceId string, taskId string, user string) error {
	s.locks.Lock(instanceId)
	defer s.locks.Unlock(instanceId)
	_, task, _, _, err := s.load(instanceId, taskId)
	if err != nil {
		return err
	}
	if task.Status != model.TASK_PENDING {
		return InvalidStateError{TaskId: taskId, Status: task.Status, Op: "assign"}
	}
	task.Assignee = user
	return s.storage.SaveTask(task)
}

// StartTask moves a PENDING or ESCALATED task to IN_PROGRESS. The task
// must have an assignee; an escalated task is picked up again by the
// escalation target and driven to its end state from here.
func (s *Service) StartTask(instanceId string, taskId string) error {
	s.locks.Lock(instanceId)
	defer s.locks.Unlock(instanceId)
	inst, task, _, _, err := s.load(instanceId, taskId)
	if err != nil {
		return err
	}
	if task.Status != model.TASK_PENDING && task.Status != model.TASK_ESCALATED {
		return InvalidStateError{TaskId: taskId, Status: task.Status, Op: "start"}
	}
	if task.Assignee == "" {
		return NotAssignedError{TaskId: taskId}
	}
	now := time.Now()
	task.Status = model.TASK_IN_PROGRESS
	task.StartedAt = &now
	if err := s.storage.SaveTask(task); err != nil {
		return err
	}
	if inst.Status == model.INSTANCE_PENDING {
		inst.Status = model.INSTANCE_IN_PROGRESS
		if err := s.storage.SaveInstance(inst); err != nil {
			return err
		}
	}
	return nil
}

// Complete finishes an IN_PROGRESS task with the given outcome and
// synchronously routes it. Consolidation tasks are gated on their
// declared inputs. Routing is planned before the completion is
// persisted, so an unroutable outcome leaves the task in progress.
func (s *Service) Complete(instanceId string, taskId string, outcome string, output map[string]any) error {
	s.locks.Lock(instanceId)
	defer s.locks.Unlock(instanceId)
	inst, task, tpl, tt, err := s.load(instanceId, taskId)
	if err != nil {
		return err
	}
	if task.Status != model.TASK_IN_PROGRESS {
		return InvalidStateError{TaskId: taskId, Status: task.Status, Op: "complete"}
	}
	if tt.Type == model.TASK_TYPE_CONSOLIDATE_FILES {
		files, err := s.storage.GetFiles(instanceId)
		if err != nil {
			return err
		}
		resolver := NewFileDependencyResolver(tpl)
		if !resolver.IsReady(tt, files) {
			return FilesNotReadyError{TaskId: taskId}
		}
	}
	if outcome == "" && tt.OutcomeSelector != "" {
		outcome, err = SelectOutcome(tt.OutcomeSelector, output)
		if err != nil {
			return err
		}
		logger.Info("outcome selected by rule", zap.String("task", taskId), zap.String("outcome", outcome))
	}
	var plan *routePlan
	if len(tt.Outcomes) > 0 {
		plan, err = s.planRoute(tpl, task, tt, outcome)
		if err != nil {
			return err
		}
	}
	now := time.Now()
	task.Status = model.TASK_COMPLETED
	task.Outcome = outcome
	task.CompletedAt = &now
	if err := s.storage.SaveTask(task); err != nil {
		return err
	}
	if err := s.storage.AppendAppliedOutcome(model.AppliedOutcome{
		InstanceId: instanceId,
		TaskId:     taskId,
		Outcome:    outcome,
		AppliedAt:  now,
	}); err != nil {
		logger.Error("error recording applied outcome", zap.String("task", taskId), zap.Error(err))
	}
	if plan != nil {
		if err := s.applyRoute(inst, plan); err != nil {
			return err
		}
	}
	return s.refreshInstanceStatus(inst)
}

// Fail moves any non-terminal task to FAILED with a reason. There is no
// automatic retry; failure stands until routing reopens the task.
func (s *Service) Fail(instanceId string, taskId string, reason string) error {
	s.locks.Lock(instanceId)
	defer s.locks.Unlock(instanceId)
	inst, task, _, _, err := s.load(instanceId, taskId)
	if err != nil {
		return err
	}
	if task.Status.Terminal() {
		return InvalidStateError{TaskId: taskId, Status: task.Status, Op: "fail"}
	}
	task.Status = model.TASK_FAILED
	task.FailureReason = reason
	if err := s.storage.SaveTask(task); err != nil {
		return err
	}
	logger.Warn("task failed", zap.String("instance", instanceId), zap.String("task", taskId), zap.String("reason", reason))
	return s.refreshInstanceStatus(inst)
}

// Reject moves any non-terminal task to REJECTED, recording who and
// when.
func (s *Service) Reject(instanceId string, taskId string, rejectedBy string, reason string) error {
	s.locks.Lock(instanceId)
	defer s.locks.Unlock(instanceId)
	inst, task, _, _, err := s.load(instanceId, taskId)
	if err != nil {
		return err
	}
	if task.Status.Terminal() {
		return InvalidStateError{TaskId: taskId, Status: task.Status, Op: "reject"}
	}
	now := time.Now()
	task.Status = model.TASK_REJECTED
	task.RejectedBy = rejectedBy
	task.RejectedAt = &now
	task.FailureReason = reason
	if err := s.storage.SaveTask(task); err != nil {
		return err
	}
	return s.refreshInstanceStatus(inst)
}

// Escalate reassigns a non-terminal task. With no explicit target the
// assignee's configured escalation target is used.
func (s *Service) Escalate(instanceId string, taskId string, toUser string) error {
	s.locks.Lock(instanceId)
	defer s.locks.Unlock(instanceId)
	inst, task, _, _, err := s.load(instanceId, taskId)
	if err != nil {
		return err
	}
	if task.Status.Terminal() {
		return InvalidStateError{TaskId: taskId, Status: task.Status, Op: "escalate"}
	}
	if toUser == "" {
		if task.Assignee == "" {
			return NotAssignedError{TaskId: taskId}
		}
		toUser, err = s.roles.EscalationTarget(task.Assignee)
		if err != nil {
			return err
		}
	}
	task.Status = model.TASK_ESCALATED
	task.Assignee = toUser
	if err := s.storage.SaveTask(task); err != nil {
		return err
	}
	inst.EscalatedTo = toUser
	if err := s.storage.SaveInstance(inst); err != nil {
		return err
	}
	logger.Info("task escalated", zap.String("instance", instanceId), zap.String("task", taskId), zap.String("to", toUser))
	return nil
}

// refreshInstanceStatus derives the instance status from its tasks: all
// terminal and none failed means COMPLETED. Failure propagation is left
// to the calling orchestrator.
func (s *Service) refreshInstanceStatus(inst *model.WorkflowInstance) error {
	tasks, err := s.storage.GetTasks(inst.Id)
	if err != nil {
		return err
	}
	allTerminal := true
	anyFailed := false
	for _, t := range tasks {
		if !t.Status.Terminal() {
			allTerminal = false
		}
		if t.Status == model.TASK_FAILED {
			anyFailed = true
		}
	}
	if allTerminal && !anyFailed && inst.Status != model.INSTANCE_COMPLETED {
		now := time.Now()
		inst.Status = model.INSTANCE_COMPLETED
		inst.CompletedAt = &now
		if err := s.storage.SaveInstance(inst); err != nil {
			return err
		}
		logger.Info("workflow instance completed", zap.String("instance", inst.Id))
	}
	return nil
}
