package flow

import (
	"testing"

	"github.com/docuflow/docuflow/model"
	"github.com/stretchr/testify/require"
)

func TestDependencyChain(t *testing.T) {
	tpl := fixtureTemplate()
	r := NewFileDependencyResolver(&tpl)

	require.Equal(t, []int64{102, 101}, r.DependencyChain(104))
	require.Equal(t, []int64{101}, r.DependencyChain(102))
	require.Empty(t, r.DependencyChain(101))
	require.Empty(t, r.DependencyChain(999))
}

func TestAddDependencyRejectsCycles(t *testing.T) {
	tpl := fixtureTemplate()
	r := NewFileDependencyResolver(&tpl)

	// 101 is a transitive ancestor of 104, the reverse edge must fail
	err := r.AddDependency(101, 104)
	_, ok := err.(CircularDependencyError)
	require.True(t, ok)

	err = r.AddDependency(101, 101)
	_, ok = err.(CircularDependencyError)
	require.True(t, ok)

	// the rejected edges left the graph untouched
	require.Empty(t, r.DependencyChain(101))
	require.Equal(t, []int64{102, 101}, r.DependencyChain(104))
}

func TestDependencyChainTerminatesOnCyclicGraph(t *testing.T) {
	// a template with a file cycle, written past authoring validation
	tpl := model.WorkflowTemplate{
		Id:   1,
		Name: "broken",
		Tasks: []model.TemplateTask{
			{
				Id: 1, Name: "a", Sequence: 1, Type: model.TASK_TYPE_FILE_UPLOAD,
				Files: []model.TemplateFile{{Id: 201, TaskId: 1, Name: "a", ParentFileId: 202}},
			},
			{
				Id: 2, Name: "b", Sequence: 2, Type: model.TASK_TYPE_FILE_UPDATE,
				Files: []model.TemplateFile{{Id: 202, TaskId: 2, Name: "b", ParentFileId: 201}},
			},
		},
	}
	r := NewFileDependencyResolver(&tpl)

	require.Equal(t, []int64{202}, r.DependencyChain(201))
	require.Equal(t, []int64{201}, r.DependencyChain(202))
}

func TestAddDependencyUnknownFile(t *testing.T) {
	tpl := fixtureTemplate()
	r := NewFileDependencyResolver(&tpl)

	err := r.AddDependency(999, 101)
	_, ok := err.(FileNotFoundError)
	require.True(t, ok)

	err = r.AddDependency(101, 999)
	_, ok = err.(FileNotFoundError)
	require.True(t, ok)
}

func TestIsReadyFromSourceTasks(t *testing.T) {
	tpl := fixtureTemplate()
	r := NewFileDependencyResolver(&tpl)
	consolidate := tpl.Task(4)

	scenarios := map[string]struct {
		files []model.InstanceFile
		ready bool
	}{
		"no files": {
			files: nil,
			ready: false,
		},
		"one input accepted": {
			files: []model.InstanceFile{
				{FileId: 101, Version: 1, Status: model.FILE_ACCEPTED},
				{FileId: 102, Version: 1, Status: model.FILE_UPLOADED},
			},
			ready: false,
		},
		"all inputs accepted": {
			files: []model.InstanceFile{
				{FileId: 101, Version: 1, Status: model.FILE_ACCEPTED},
				{FileId: 102, Version: 1, Status: model.FILE_ACCEPTED},
			},
			ready: true,
		},
		"rejected latest does not block an accepted version": {
			files: []model.InstanceFile{
				{FileId: 101, Version: 1, Status: model.FILE_ACCEPTED},
				{FileId: 102, Version: 1, Status: model.FILE_ACCEPTED},
				{FileId: 102, Version: 2, Status: model.FILE_REJECTED},
			},
			ready: true,
		},
	}
	for name, scenario := range scenarios {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, scenario.ready, r.IsReady(consolidate, scenario.files))
		})
	}
}

func TestIsReadyWithoutSourceTasksUsesAncestors(t *testing.T) {
	tpl := fixtureTemplate()
	tpl.Tasks[3].SourceTaskIds = nil
	r := NewFileDependencyResolver(&tpl)
	consolidate := tpl.Task(4)

	// final.xlsx descends from 102 which descends from 101
	require.False(t, r.IsReady(consolidate, []model.InstanceFile{
		{FileId: 102, Version: 1, Status: model.FILE_ACCEPTED},
	}))
	require.True(t, r.IsReady(consolidate, []model.InstanceFile{
		{FileId: 101, Version: 1, Status: model.FILE_ACCEPTED},
		{FileId: 102, Version: 1, Status: model.FILE_ACCEPTED},
	}))
}

func TestConsolidateCompletionGatedOnInputs(t *testing.T) {
	svc, st := newTestService(t)
	inst, err := svc.StartWorkflow(1, "uploader", 7)
	require.NoError(t, err)

	task4 := driveToInProgress(t, svc, st, inst.Id, 4, "consolidator")
	err = svc.Complete(inst.Id, task4.Id, "", nil)
	_, ok := err.(FilesNotReadyError)
	require.True(t, ok)

	task4 = taskFor(t, st, inst.Id, 4)
	require.Equal(t, model.TASK_IN_PROGRESS, task4.Status)

	// once every input is accepted the same completion succeeds
	task1 := driveToInProgress(t, svc, st, inst.Id, 1, "uploader")
	acceptFile(t, svc, inst.Id, task1.Id, 101)
	task2 := driveToInProgress(t, svc, st, inst.Id, 2, "editor")
	acceptFile(t, svc, inst.Id, task2.Id, 102)

	require.NoError(t, svc.Complete(inst.Id, task4.Id, "", nil))
	task4 = taskFor(t, st, inst.Id, 4)
	require.Equal(t, model.TASK_COMPLETED, task4.Status)
}

func TestRecordFileVersions(t *testing.T) {
	svc, st := newTestService(t)
	inst, err := svc.StartWorkflow(1, "uploader", 7)
	require.NoError(t, err)

	task1 := driveToInProgress(t, svc, st, inst.Id, 1, "uploader")
	first, err := svc.RecordFile(inst.Id, task1.Id, 101, model.FILE_ACTION_UPLOAD, "invoice.xlsx")
	require.NoError(t, err)
	require.Equal(t, 1, first.Version)
	require.Equal(t, model.FILE_UPLOADED, first.Status)

	second, err := svc.RecordFile(inst.Id, task1.Id, 101, model.FILE_ACTION_UPLOAD, "invoice.xlsx")
	require.NoError(t, err)
	require.Equal(t, 2, second.Version)
}

func TestRecordFileUndeclared(t *testing.T) {
	svc, st := newTestService(t)
	inst, err := svc.StartWorkflow(1, "uploader", 7)
	require.NoError(t, err)

	task1 := driveToInProgress(t, svc, st, inst.Id, 1, "uploader")
	// 102 belongs to another task, 999 to nobody
	_, err = svc.RecordFile(inst.Id, task1.Id, 102, model.FILE_ACTION_UPLOAD, "x")
	_, ok := err.(FileNotFoundError)
	require.True(t, ok)
	_, err = svc.RecordFile(inst.Id, task1.Id, 999, model.FILE_ACTION_UPLOAD, "x")
	_, ok = err.(FileNotFoundError)
	require.True(t, ok)
}

func TestReviewFileTargetsLatestVersion(t *testing.T) {
	svc, st := newTestService(t)
	inst, err := svc.StartWorkflow(1, "uploader", 7)
	require.NoError(t, err)

	task1 := driveToInProgress(t, svc, st, inst.Id, 1, "uploader")
	_, err = svc.RecordFile(inst.Id, task1.Id, 101, model.FILE_ACTION_UPLOAD, "v1")
	require.NoError(t, err)
	_, err = svc.RecordFile(inst.Id, task1.Id, 101, model.FILE_ACTION_UPLOAD, "v2")
	require.NoError(t, err)

	require.NoError(t, svc.ReviewFile(inst.Id, 101, true))

	files, err := st.GetFiles(inst.Id)
	require.NoError(t, err)
	byVersion := make(map[int]model.FileStatus)
	for _, f := range files {
		byVersion[f.Version] = f.Status
	}
	require.Equal(t, model.FILE_UPLOADED, byVersion[1])
	require.Equal(t, model.FILE_ACCEPTED, byVersion[2])
}
