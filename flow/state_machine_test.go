package flow

import (
	"testing"

	"github.com/docuflow/docuflow/model"
	"github.com/stretchr/testify/require"
)

func TestAssignOnlyPendingTasks(t *testing.T) {
	svc, st := newTestService(t)
	inst, err := svc.StartWorkflow(1, "uploader", 7)
	require.NoError(t, err)

	task2 := taskFor(t, st, inst.Id, 2)
	require.NoError(t, svc.Assign(inst.Id, task2.Id, "editor"))
	task2 = taskFor(t, st, inst.Id, 2)
	require.Equal(t, "editor", task2.Assignee)
	require.Equal(t, model.TASK_PENDING, task2.Status)

	driveToInProgress(t, svc, st, inst.Id, 2, "editor")
	err = svc.Assign(inst.Id, task2.Id, "someone-else")
	_, ok := err.(InvalidStateError)
	require.True(t, ok)
}

func TestStartRequiresAssignee(t *testing.T) {
	svc, st := newTestService(t)
	inst, err := svc.StartWorkflow(1, "uploader", 7)
	require.NoError(t, err)

	task2 := taskFor(t, st, inst.Id, 2)
	err = svc.StartTask(inst.Id, task2.Id)
	_, ok := err.(NotAssignedError)
	require.True(t, ok)
}

func TestStartMovesInstanceInProgress(t *testing.T) {
	svc, st := newTestService(t)
	inst, err := svc.StartWorkflow(1, "uploader", 7)
	require.NoError(t, err)
	require.Equal(t, model.INSTANCE_PENDING, inst.Status)

	task1 := driveToInProgress(t, svc, st, inst.Id, 1, "uploader")
	require.Equal(t, model.TASK_IN_PROGRESS, task1.Status)
	require.NotNil(t, task1.StartedAt)

	got, err := st.GetInstance(inst.Id)
	require.NoError(t, err)
	require.Equal(t, model.INSTANCE_IN_PROGRESS, got.Status)
}

func TestCompleteRequiresInProgress(t *testing.T) {
	svc, st := newTestService(t)
	inst, err := svc.StartWorkflow(1, "uploader", 7)
	require.NoError(t, err)

	task1 := taskFor(t, st, inst.Id, 1)
	err = svc.Complete(inst.Id, task1.Id, "", nil)
	_, ok := err.(InvalidStateError)
	require.True(t, ok)
}

func TestFailTask(t *testing.T) {
	svc, st := newTestService(t)
	inst, err := svc.StartWorkflow(1, "uploader", 7)
	require.NoError(t, err)

	task1 := driveToInProgress(t, svc, st, inst.Id, 1, "uploader")
	require.NoError(t, svc.Fail(inst.Id, task1.Id, "upload corrupted"))

	task1 = taskFor(t, st, inst.Id, 1)
	require.Equal(t, model.TASK_FAILED, task1.Status)
	require.Equal(t, "upload corrupted", task1.FailureReason)

	// terminal tasks refuse further failure
	err = svc.Fail(inst.Id, task1.Id, "again")
	_, ok := err.(InvalidStateError)
	require.True(t, ok)
}

func TestRejectTask(t *testing.T) {
	svc, st := newTestService(t)
	inst, err := svc.StartWorkflow(1, "uploader", 7)
	require.NoError(t, err)

	task2 := driveToInProgress(t, svc, st, inst.Id, 2, "editor")
	require.NoError(t, svc.Reject(inst.Id, task2.Id, "editor", "wrong quarter"))

	task2 = taskFor(t, st, inst.Id, 2)
	require.Equal(t, model.TASK_REJECTED, task2.Status)
	require.Equal(t, "editor", task2.RejectedBy)
	require.NotNil(t, task2.RejectedAt)
}

func TestEscalateFollowsConfiguredChain(t *testing.T) {
	svc, st := newTestService(t)
	inst, err := svc.StartWorkflow(1, "uploader", 7)
	require.NoError(t, err)

	task2 := driveToInProgress(t, svc, st, inst.Id, 2, "editor")
	require.NoError(t, svc.Escalate(inst.Id, task2.Id, ""))

	task2 = taskFor(t, st, inst.Id, 2)
	require.Equal(t, model.TASK_ESCALATED, task2.Status)
	require.Equal(t, "chief-editor", task2.Assignee)

	got, err := st.GetInstance(inst.Id)
	require.NoError(t, err)
	require.Equal(t, "chief-editor", got.EscalatedTo)
}

func TestEscalateExplicitTarget(t *testing.T) {
	svc, st := newTestService(t)
	inst, err := svc.StartWorkflow(1, "uploader", 7)
	require.NoError(t, err)

	task2 := driveToInProgress(t, svc, st, inst.Id, 2, "editor")
	require.NoError(t, svc.Escalate(inst.Id, task2.Id, "supervisor"))

	task2 = taskFor(t, st, inst.Id, 2)
	require.Equal(t, "supervisor", task2.Assignee)
}

func TestEscalatedTaskCompletedByNewAssignee(t *testing.T) {
	svc, st := newTestService(t)
	inst, err := svc.StartWorkflow(1, "uploader", 7)
	require.NoError(t, err)

	task1 := driveToInProgress(t, svc, st, inst.Id, 1, "uploader")
	require.NoError(t, svc.Escalate(inst.Id, task1.Id, "supervisor"))

	// the escalation target restarts the task and finishes it
	require.NoError(t, svc.StartTask(inst.Id, task1.Id))
	task1 = taskFor(t, st, inst.Id, 1)
	require.Equal(t, model.TASK_IN_PROGRESS, task1.Status)
	require.Equal(t, "supervisor", task1.Assignee)

	require.NoError(t, svc.Complete(inst.Id, task1.Id, "", nil))
	task1 = taskFor(t, st, inst.Id, 1)
	require.Equal(t, model.TASK_COMPLETED, task1.Status)
}

func TestEscalatedTaskCanStillBeClosed(t *testing.T) {
	svc, st := newTestService(t)
	inst, err := svc.StartWorkflow(1, "uploader", 7)
	require.NoError(t, err)

	task2 := driveToInProgress(t, svc, st, inst.Id, 2, "editor")
	require.NoError(t, svc.Escalate(inst.Id, task2.Id, ""))
	// escalation is not terminal, the new assignee can reject
	require.NoError(t, svc.Reject(inst.Id, task2.Id, "chief-editor", "not salvageable"))

	task2 = taskFor(t, st, inst.Id, 2)
	require.Equal(t, model.TASK_REJECTED, task2.Status)
}
