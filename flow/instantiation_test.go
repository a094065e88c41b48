package flow

import (
	"testing"
	"time"

	"github.com/docuflow/docuflow/model"
	"github.com/stretchr/testify/require"
)

func TestStartWorkflowCreatesAllTasks(t *testing.T) {
	svc, st := newTestService(t)
	inst, err := svc.StartWorkflow(1, "alice", 7)
	require.NoError(t, err)
	require.Equal(t, model.INSTANCE_PENDING, inst.Status)
	require.Equal(t, "alice", inst.StartedBy)

	tasks, err := st.GetTasks(inst.Id)
	require.NoError(t, err)
	require.Len(t, tasks, 4)
	for _, task := range tasks {
		require.Equal(t, model.TASK_PENDING, task.Status)
	}
	// only the entry task is pre-assigned to the starter
	require.Equal(t, "alice", taskFor(t, st, inst.Id, 1).Assignee)
	require.Empty(t, taskFor(t, st, inst.Id, 2).Assignee)
	require.Empty(t, taskFor(t, st, inst.Id, 3).Assignee)
	require.Empty(t, taskFor(t, st, inst.Id, 4).Assignee)
}

func TestStartWorkflowMaterializesParents(t *testing.T) {
	svc, st := newTestService(t)
	inst, err := svc.StartWorkflow(1, "alice", 0)
	require.NoError(t, err)

	task2 := taskFor(t, st, inst.Id, 2)
	task1 := taskFor(t, st, inst.Id, 1)
	require.Equal(t, []string{task1.Id}, task2.ParentIds)
}

func TestStartWorkflowUnknownTemplate(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.StartWorkflow(42, "alice", 0)
	require.Error(t, err)
}

func TestStartWorkflowInactiveTemplate(t *testing.T) {
	svc, _ := newTestService(t)
	tpl := fixtureTemplate()
	tpl.Id = 5
	tpl.Active = false
	require.NoError(t, svc.metadata.SaveTemplate(tpl))

	_, err := svc.StartWorkflow(5, "alice", 0)
	_, ok := err.(TemplateInactiveError)
	require.True(t, ok)
}

func TestOnTickStartsBoundTemplates(t *testing.T) {
	svc, st := newTestService(t)
	// Monday 2024-06-03, weekly calendar with no overrides
	tick, _ := time.Parse(model.DATE_LAYOUT, "2024-06-03")
	svc.OnTick(7, tick)

	open, err := st.ListOpenInstances()
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.Equal(t, "system", open[0].StartedBy)
	require.Equal(t, int64(7), open[0].CalendarId)
}

func TestOnTickIsIdempotentPerDate(t *testing.T) {
	svc, st := newTestService(t)
	tick, _ := time.Parse(model.DATE_LAYOUT, "2024-06-03")
	svc.OnTick(7, tick)
	svc.OnTick(7, tick)

	open, err := st.ListOpenInstances()
	require.NoError(t, err)
	require.Len(t, open, 1)
}

func TestOnTickSkipsInvalidDate(t *testing.T) {
	svc, st := newTestService(t)
	// Saturday, weekly recurrence, no runday override
	tick, _ := time.Parse(model.DATE_LAYOUT, "2024-06-01")
	svc.OnTick(7, tick)

	open, err := st.ListOpenInstances()
	require.NoError(t, err)
	require.Empty(t, open)
}

func TestOnTickContinuesPastFailingTemplate(t *testing.T) {
	svc, st := newTestService(t)
	// a second bound template that cannot start, saved directly to
	// storage to bypass authoring validation
	broken := fixtureTemplate()
	broken.Id = 2
	broken.Name = "broken"
	broken.Tasks = nil
	require.NoError(t, st.SaveTemplate(broken))

	tick, _ := time.Parse(model.DATE_LAYOUT, "2024-06-03")
	svc.OnTick(7, tick)

	open, err := st.ListOpenInstances()
	require.NoError(t, err)
	// the healthy template still started
	require.Len(t, open, 1)
	require.Equal(t, int64(1), open[0].TemplateId)
}

func TestCancelBlocksFurtherOperations(t *testing.T) {
	svc, st := newTestService(t)
	inst, err := svc.StartWorkflow(1, "alice", 0)
	require.NoError(t, err)
	task1 := taskFor(t, st, inst.Id, 1)

	require.NoError(t, svc.Cancel(inst.Id))
	err = svc.StartTask(inst.Id, task1.Id)
	_, ok := err.(InstanceCancelledError)
	require.True(t, ok)

	// cancelling twice is invalid
	require.Error(t, svc.Cancel(inst.Id))
}
