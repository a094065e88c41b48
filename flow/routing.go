package flow

import (
	"sort"
	"strconv"

	"github.com/docuflow/docuflow/logger"
	"github.com/docuflow/docuflow/model"
	"github.com/docuflow/docuflow/persistence"
	"go.uber.org/zap"
)

type routePlan struct {
	chosen   model.DecisionOutcome
	target   *model.InstanceTask
	targetTT *model.TemplateTask
	reopens  []reopenStep
}

type reopenStep struct {
	task *model.InstanceTask
	tt   *model.TemplateTask
}

// planRoute resolves the DecisionOutcome for the completed task and
// validates every reopen against its revision limit without mutating
// anything. Candidates at the same outcome name are ordered by
// RevisionPriority, ties by declaration order.
func (s *Service) planRoute(tpl *model.WorkflowTemplate, task *model.InstanceTask, tt *model.TemplateTask, outcomeName string) (*routePlan, error) {
	var candidates []model.DecisionOutcome
	for _, o := range tt.Outcomes {
		if o.Name == outcomeName {
			candidates = append(candidates, o)
		}
	}
	if len(candidates) == 0 {
		return nil, UnknownOutcomeError{TaskId: task.Id, Outcome: outcomeName}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].RevisionPriority < candidates[j].RevisionPriority
	})
	plan := &routePlan{chosen: candidates[0]}

	if plan.chosen.TargetTaskId != 0 {
		target, err := s.taskByTemplateTask(task.InstanceId, plan.chosen.TargetTaskId)
		if err != nil {
			return nil, err
		}
		plan.target = target
		plan.targetTT = tpl.Task(plan.chosen.TargetTaskId)
	}
	for _, rid := range plan.chosen.RevisionTaskIds {
		rtt := tpl.Task(rid)
		if rtt == nil {
			return nil, UnknownOutcomeError{TaskId: task.Id, Outcome: outcomeName}
		}
		rTask, err := s.taskByTemplateTask(task.InstanceId, rid)
		if err != nil {
			return nil, err
		}
		if rTask.Id == task.Id {
			// the completing task reopens itself; plan against the
			// post-completion record
			rTask = task
		}
		if !rtt.CanRevisit || rTask.Revisits+1 > rtt.MaxRevisits {
			return nil, RevisionLimitExceededError{TaskId: rTask.Id, MaxRevisits: rtt.MaxRevisits}
		}
		plan.reopens = append(plan.reopens, reopenStep{task: rTask, tt: rtt})
	}
	return plan, nil
}

// applyRoute performs the planned activation, reopens and escalation.
// Runs with the instance lock held, after the completion was persisted.
func (s *Service) applyRoute(inst *model.WorkflowInstance, plan *routePlan) error {
	var escalatable []*model.InstanceTask
	if plan.target != nil {
		if plan.target.Status == model.TASK_PENDING && plan.target.Assignee == "" && plan.targetTT != nil {
			user, err := s.roles.ResolveUser(plan.targetTT.RoleId)
			if err != nil {
				logger.Debug("no user for target task role, leaving unassigned",
					zap.String("task", plan.target.Id), zap.Int64("role", plan.targetTT.RoleId))
			} else {
				plan.target.Assignee = user
				if err := s.storage.SaveTask(plan.target); err != nil {
					return err
				}
			}
		}
		escalatable = append(escalatable, plan.target)
	}
	for _, step := range plan.reopens {
		if err := s.reopen(inst, step, plan.chosen.RevisionStrategy); err != nil {
			return err
		}
		escalatable = append(escalatable, step.task)
	}
	if plan.chosen.AutoEscalate {
		user, err := s.roles.ResolveUser(plan.chosen.EscalationRoleId)
		if err != nil {
			return err
		}
		for _, t := range escalatable {
			t.Status = model.TASK_ESCALATED
			t.Assignee = user
			if err := s.storage.SaveTask(t); err != nil {
				return err
			}
		}
		inst.EscalatedTo = user
		if err := s.storage.SaveInstance(inst); err != nil {
			return err
		}
	}
	return nil
}

// reopen resets one instance task to PENDING and applies the revision
// strategy to its files: REPLACE discards prior versions, ADD keeps
// them, MERGE keeps only the accepted ones for consolidation.
func (s *Service) reopen(inst *model.WorkflowInstance, step reopenStep, strategy model.RevisionStrategy) error {
	task := step.task
	task.Status = model.TASK_PENDING
	task.Outcome = ""
	task.StartedAt = nil
	task.CompletedAt = nil
	task.Revisits++
	if err := s.storage.SaveTask(task); err != nil {
		return err
	}
	switch strategy {
	case model.REVISION_STRATEGY_REPLACE:
		if err := s.storage.DeleteTaskFiles(inst.Id, task.Id, nil); err != nil {
			return err
		}
	case model.REVISION_STRATEGY_MERGE:
		if err := s.storage.DeleteTaskFiles(inst.Id, task.Id, func(f model.InstanceFile) bool {
			return f.Status == model.FILE_ACCEPTED
		}); err != nil {
			return err
		}
	}
	logger.Info("task reopened for revision", zap.String("instance", inst.Id),
		zap.String("task", task.Id), zap.Int("revisits", task.Revisits))
	return nil
}

func (s *Service) taskByTemplateTask(instanceId string, templateTaskId int64) (*model.InstanceTask, error) {
	tasks, err := s.storage.GetTasks(instanceId)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		if tasks[i].TemplateTaskId == templateTaskId {
			return &tasks[i], nil
		}
	}
	return nil, persistence.NotFoundError{Kind: "instance task for template task", Id: strconv.FormatInt(templateTaskId, 10)}
}
