package model

type TaskType string

const TASK_TYPE_FILE_UPLOAD TaskType = "FILE_UPLOAD"
const TASK_TYPE_FILE_DOWNLOAD TaskType = "FILE_DOWNLOAD"
const TASK_TYPE_FILE_UPDATE TaskType = "FILE_UPDATE"
const TASK_TYPE_CONSOLIDATE_FILES TaskType = "CONSOLIDATE_FILES"
const TASK_TYPE_DECISION TaskType = "DECISION"

type RevisionType string

const REVISION_TYPE_SINGLE RevisionType = "SINGLE"
const REVISION_TYPE_CASCADE RevisionType = "CASCADE"
const REVISION_TYPE_SELECTIVE RevisionType = "SELECTIVE"

type RevisionStrategy string

const REVISION_STRATEGY_REPLACE RevisionStrategy = "REPLACE"
const REVISION_STRATEGY_ADD RevisionStrategy = "ADD"
const REVISION_STRATEGY_MERGE RevisionStrategy = "MERGE"

// DecisionOutcome maps a completed task's outcome name to the next task
// and/or a set of tasks to reopen. Name is unique per owning task; when
// revision chains produce concurrent candidates the lowest
// RevisionPriority wins, ties in declaration order.
type DecisionOutcome struct {
	Id               int64            `json:"id"`
	TaskId           int64            `json:"taskId"`
	Name             string           `json:"name"`
	TargetTaskId     int64            `json:"targetTaskId,omitempty"`
	RevisionType     RevisionType     `json:"revisionType,omitempty"`
	RevisionTaskIds  []int64          `json:"revisionTaskIds,omitempty"`
	RevisionStrategy RevisionStrategy `json:"revisionStrategy,omitempty"`
	RevisionPriority int              `json:"revisionPriority"`
	AutoEscalate     bool             `json:"autoEscalate"`
	EscalationRoleId int64            `json:"escalationRoleId,omitempty"`
}

type TemplateFile struct {
	Id           int64  `json:"id"`
	TaskId       int64  `json:"taskId"`
	Name         string `json:"name"`
	ParentFileId int64  `json:"parentFileId,omitempty"`
}

type TemplateTask struct {
	Id       int64    `json:"id"`
	Name     string   `json:"name"`
	Sequence int      `json:"sequence"`
	Type     TaskType `json:"type"`
	RoleId   int64    `json:"roleId"`
	// ParentIds is the explicit predecessor set; when empty the pure
	// sequence ordering applies.
	ParentIds     []int64           `json:"parentIds,omitempty"`
	CanRevisit    bool              `json:"canRevisit"`
	MaxRevisits   int               `json:"maxRevisits"`
	SourceTaskIds []int64           `json:"sourceTaskIds,omitempty"`
	Files         []TemplateFile    `json:"files,omitempty"`
	Outcomes      []DecisionOutcome `json:"outcomes,omitempty"`
	// OutcomeSelector picks the outcome name for DECISION tasks when the
	// caller does not supply one. Either a jsonpath expression over the
	// task output data or a javascript snippet prefixed with "js:".
	OutcomeSelector string `json:"outcomeSelector,omitempty"`
}

type WorkflowTemplate struct {
	Id                int64          `json:"id"`
	Name              string         `json:"name"`
	Active            bool           `json:"active"`
	CalendarId        int64          `json:"calendarId,omitempty"`
	ReminderMinutes   int            `json:"reminderMinutes"`
	EscalationMinutes int            `json:"escalationMinutes"`
	DueMinutes        int            `json:"dueMinutes"`
	Tasks             []TemplateTask `json:"tasks"`
}

func (t *WorkflowTemplate) Task(taskId int64) *TemplateTask {
	for i := range t.Tasks {
		if t.Tasks[i].Id == taskId {
			return &t.Tasks[i]
		}
	}
	return nil
}

func (t *WorkflowTemplate) File(fileId int64) *TemplateFile {
	for i := range t.Tasks {
		for j := range t.Tasks[i].Files {
			if t.Tasks[i].Files[j].Id == fileId {
				return &t.Tasks[i].Files[j]
			}
		}
	}
	return nil
}
