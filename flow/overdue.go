package flow

import (
	"sync"
	"time"

	"github.com/docuflow/docuflow/logger"
	"github.com/docuflow/docuflow/metadata"
	"github.com/docuflow/docuflow/model"
	"github.com/docuflow/docuflow/persistence"
	"github.com/docuflow/docuflow/util"
	"go.uber.org/zap"
)

type OverdueKind string

const OVERDUE_REMINDER OverdueKind = "REMINDER"
const OVERDUE_ESCALATION OverdueKind = "ESCALATION"
const OVERDUE_DUE OverdueKind = "DUE"

type OverdueTask struct {
	InstanceId string
	TaskId     string
	Assignee   string
	Kind       OverdueKind
	Since      time.Duration
}

type OverdueHandler func(OverdueTask)

// OverdueWatcher periodically sweeps open instances and reports tasks
// whose in-progress time has crossed the template's reminder,
// escalation or due offsets. Detection only; acting on the report is
// the caller's concern.
type OverdueWatcher struct {
	metadata metadata.Service
	storage  persistence.InstanceStorage
	handler  OverdueHandler
	tick     *util.TickWorker
}

func NewOverdueWatcher(md metadata.Service, storage persistence.InstanceStorage, interval time.Duration, handler OverdueHandler, wg *sync.WaitGroup) *OverdueWatcher {
	w := &OverdueWatcher{
		metadata: md,
		storage:  storage,
		handler:  handler,
	}
	if w.handler == nil {
		w.handler = func(t OverdueTask) {
			logger.Warn("task overdue", zap.String("instance", t.InstanceId),
				zap.String("task", t.TaskId), zap.String("kind", string(t.Kind)),
				zap.Duration("since", t.Since))
		}
	}
	w.tick = util.NewTickWorker("overdue-watcher", interval, make(chan struct{}), w.Scan, wg)
	return w
}

func (w *OverdueWatcher) Start() {
	w.tick.Start()
}

func (w *OverdueWatcher) Stop() error {
	if w.tick.IsRunning() {
		w.tick.Stop()
	}
	return nil
}

func (w *OverdueWatcher) Scan() {
	instances, err := w.storage.ListOpenInstances()
	if err != nil {
		logger.Error("error listing open instances", zap.Error(err))
		return
	}
	now := time.Now()
	for _, inst := range instances {
		tpl, err := w.metadata.GetTemplate(inst.TemplateId)
		if err != nil {
			logger.Error("error loading template for overdue scan", zap.String("instance", inst.Id), zap.Error(err))
			continue
		}
		tasks, err := w.storage.GetTasks(inst.Id)
		if err != nil {
			continue
		}
		for _, t := range tasks {
			if t.Status != model.TASK_IN_PROGRESS || t.StartedAt == nil {
				continue
			}
			elapsed := now.Sub(*t.StartedAt)
			kind, ok := classify(tpl, elapsed)
			if !ok {
				continue
			}
			w.handler(OverdueTask{
				InstanceId: inst.Id,
				TaskId:     t.Id,
				Assignee:   t.Assignee,
				Kind:       kind,
				Since:      elapsed,
			})
		}
	}
}

// classify returns the most severe threshold crossed.
func classify(tpl *model.WorkflowTemplate, elapsed time.Duration) (OverdueKind, bool) {
	minutes := int(elapsed.Minutes())
	switch {
	case tpl.DueMinutes > 0 && minutes >= tpl.DueMinutes:
		return OVERDUE_DUE, true
	case tpl.EscalationMinutes > 0 && minutes >= tpl.EscalationMinutes:
		return OVERDUE_ESCALATION, true
	case tpl.ReminderMinutes > 0 && minutes >= tpl.ReminderMinutes:
		return OVERDUE_REMINDER, true
	}
	return "", false
}
