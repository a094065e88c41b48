package flow

import (
	"testing"
	"time"

	"github.com/docuflow/docuflow/metadata"
	"github.com/docuflow/docuflow/model"
	"github.com/docuflow/docuflow/persistence/inmem"
	"github.com/stretchr/testify/require"
)

func fixtureTemplate() model.WorkflowTemplate {
	return model.WorkflowTemplate{
		Id:         1,
		Name:       "invoice-approval",
		Active:     true,
		CalendarId: 7,
		Tasks: []model.TemplateTask{
			{
				Id: 1, Name: "upload", Sequence: 1, Type: model.TASK_TYPE_FILE_UPLOAD, RoleId: 10,
				Files: []model.TemplateFile{{Id: 101, TaskId: 1, Name: "invoice.xlsx"}},
			},
			{
				Id: 2, Name: "enrich", Sequence: 2, Type: model.TASK_TYPE_FILE_UPDATE, RoleId: 20,
				ParentIds: []int64{1}, CanRevisit: true, MaxRevisits: 2,
				Files: []model.TemplateFile{{Id: 102, TaskId: 2, Name: "enriched.xlsx", ParentFileId: 101}},
			},
			{
				Id: 3, Name: "review", Sequence: 3, Type: model.TASK_TYPE_DECISION, RoleId: 30,
				ParentIds: []int64{2}, CanRevisit: true, MaxRevisits: 2,
				Outcomes: []model.DecisionOutcome{
					{Id: 31, TaskId: 3, Name: "APPROVE", TargetTaskId: 4},
					{Id: 32, TaskId: 3, Name: "REJECT", RevisionType: model.REVISION_TYPE_CASCADE,
						RevisionTaskIds: []int64{2, 3}, RevisionStrategy: model.REVISION_STRATEGY_REPLACE},
				},
			},
			{
				Id: 4, Name: "consolidate", Sequence: 4, Type: model.TASK_TYPE_CONSOLIDATE_FILES, RoleId: 40,
				ParentIds: []int64{3}, SourceTaskIds: []int64{1, 2},
				Files: []model.TemplateFile{{Id: 104, TaskId: 4, Name: "final.xlsx", ParentFileId: 102}},
			},
		},
	}
}

func fixtureCalendar() model.Calendar {
	start, _ := time.Parse(model.DATE_LAYOUT, "2024-01-01")
	end, _ := time.Parse(model.DATE_LAYOUT, "2024-12-31")
	return model.Calendar{
		Id:         7,
		Name:       "business-days",
		StartDate:  start,
		EndDate:    end,
		Recurrence: model.RECURRENCE_WEEKLY,
		Active:     true,
	}
}

func fixtureRoles() *StaticRoleResolver {
	return &StaticRoleResolver{
		Users: map[int64]string{
			10: "uploader", 20: "editor", 30: "approver", 40: "consolidator", 99: "supervisor",
		},
		Escalations: map[string]string{
			"editor": "chief-editor", "approver": "head-approver",
		},
	}
}

func newTestService(t *testing.T) (*Service, *inmem.Storage) {
	t.Helper()
	st := inmem.NewStorage()
	md := metadata.NewService(st)
	require.NoError(t, md.SaveTemplate(fixtureTemplate()))
	require.NoError(t, md.SaveCalendar(fixtureCalendar()))
	return NewService(md, st, fixtureRoles(), "system"), st
}

func taskFor(t *testing.T, st *inmem.Storage, instanceId string, templateTaskId int64) *model.InstanceTask {
	t.Helper()
	tasks, err := st.GetTasks(instanceId)
	require.NoError(t, err)
	for i := range tasks {
		if tasks[i].TemplateTaskId == templateTaskId {
			return &tasks[i]
		}
	}
	t.Fatalf("no instance task for template task %d", templateTaskId)
	return nil
}

func driveToInProgress(t *testing.T, svc *Service, st *inmem.Storage, instanceId string, templateTaskId int64, user string) *model.InstanceTask {
	t.Helper()
	task := taskFor(t, st, instanceId, templateTaskId)
	if task.Assignee == "" {
		require.NoError(t, svc.Assign(instanceId, task.Id, user))
	}
	require.NoError(t, svc.StartTask(instanceId, task.Id))
	return taskFor(t, st, instanceId, templateTaskId)
}
