package flow

import (
	"fmt"
	"time"

	"github.com/docuflow/docuflow/logger"
	"github.com/docuflow/docuflow/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StartWorkflow instantiates a template: one PENDING instance task per
// template task, with the entry task(s) pre-assigned to the starter.
func (s *Service) StartWorkflow(templateId int64, startedBy string, calendarId int64) (*model.WorkflowInstance, error) {
	tpl, err := s.metadata.GetTemplate(templateId)
	if err != nil {
		return nil, err
	}
	if !tpl.Active {
		return nil, TemplateInactiveError{TemplateId: templateId}
	}
	if len(tpl.Tasks) == 0 {
		return nil, fmt.Errorf("template %d has no tasks", templateId)
	}
	inst := &model.WorkflowInstance{
		Id:         uuid.New().String(),
		TemplateId: templateId,
		CalendarId: calendarId,
		Status:     model.INSTANCE_PENDING,
		StartedBy:  startedBy,
		StartedAt:  time.Now(),
	}
	taskIdByTemplateTask := make(map[int64]string, len(tpl.Tasks))
	tasks := make([]model.InstanceTask, 0, len(tpl.Tasks))
	for _, tt := range tpl.Tasks {
		it := model.InstanceTask{
			Id:             uuid.New().String(),
			InstanceId:     inst.Id,
			TemplateTaskId: tt.Id,
			Status:         model.TASK_PENDING,
		}
		if isEntryTask(tt) {
			it.Assignee = startedBy
		}
		taskIdByTemplateTask[tt.Id] = it.Id
		tasks = append(tasks, it)
	}
	for i := range tasks {
		tt := tpl.Task(tasks[i].TemplateTaskId)
		for _, p := range tt.ParentIds {
			tasks[i].ParentIds = append(tasks[i].ParentIds, taskIdByTemplateTask[p])
		}
	}
	if err := s.storage.CreateInstance(inst, tasks); err != nil {
		return nil, err
	}
	logger.Info("workflow instance started", zap.String("instance", inst.Id),
		zap.Int64("template", templateId), zap.String("startedBy", startedBy))
	return inst, nil
}

func isEntryTask(tt model.TemplateTask) bool {
	return tt.Sequence == 1 || len(tt.ParentIds) == 0
}

// OnTick is the scheduler callback. It shifts the tick date by the
// calendar offset, consults the strict trigger-path validity check and
// starts every active template bound to the calendar. One failing
// template never blocks its siblings; a duplicate tick for the same
// effective date is dropped by the trigger reservation.
func (s *Service) OnTick(calendarId int64, tickDate time.Time) {
	cal, err := s.metadata.GetCalendar(calendarId)
	if err != nil {
		logger.Error("tick for unknown calendar", zap.Int64("calendar", calendarId), zap.Error(err))
		return
	}
	if !cal.Active {
		return
	}
	effectiveDate := s.validity.EffectiveDate(cal, tickDate)
	if !s.validity.CanExecuteWorkflow(cal, effectiveDate) {
		logger.Debug("tick date not executable", zap.Int64("calendar", calendarId),
			zap.String("effectiveDate", model.DateKey(effectiveDate)))
		return
	}
	templates, err := s.metadata.GetTemplatesByCalendar(calendarId)
	if err != nil {
		logger.Error("error loading templates for calendar", zap.Int64("calendar", calendarId), zap.Error(err))
		return
	}
	for _, tpl := range templates {
		if !tpl.Active {
			continue
		}
		reserved, err := s.storage.ReserveTrigger(calendarId, model.DateKey(effectiveDate), tpl.Id)
		if err != nil {
			logger.Error("error reserving trigger", zap.Int64("calendar", calendarId),
				zap.Int64("template", tpl.Id), zap.Error(err))
			continue
		}
		if !reserved {
			logger.Debug("trigger already claimed", zap.Int64("calendar", calendarId),
				zap.Int64("template", tpl.Id), zap.String("effectiveDate", model.DateKey(effectiveDate)))
			continue
		}
		if _, err := s.StartWorkflow(tpl.Id, s.systemUser, calendarId); err != nil {
			logger.Error("error starting workflow from tick", zap.Int64("calendar", calendarId),
				zap.Int64("template", tpl.Id), zap.Error(err))
		}
	}
}

// Cancel moves an instance to CANCELLED; all further task operations on
// it are rejected.
func (s *Service) Cancel(instanceId string) error {
	s.locks.Lock(instanceId)
	defer s.locks.Unlock(instanceId)
	inst, err := s.storage.GetInstance(instanceId)
	if err != nil {
		return err
	}
	if inst.Status.Terminal() {
		return InvalidStateError{TaskId: instanceId, Status: model.TaskStatus(inst.Status), Op: "cancel"}
	}
	inst.Status = model.INSTANCE_CANCELLED
	now := time.Now()
	inst.CompletedAt = &now
	if err := s.storage.SaveInstance(inst); err != nil {
		return err
	}
	logger.Info("workflow instance cancelled", zap.String("instance", instanceId))
	return nil
}
