package model

type StartWorkflowRequest struct {
	TemplateId int64  `json:"templateId"`
	StartedBy  string `json:"startedBy"`
	CalendarId int64  `json:"calendarId,omitempty"`
}

type TaskActionRequest struct {
	User    string         `json:"user,omitempty"`
	Outcome string         `json:"outcome,omitempty"`
	Output  map[string]any `json:"output,omitempty"`
	Reason  string         `json:"reason,omitempty"`
}

type FileRecordRequest struct {
	FileId int64      `json:"fileId"`
	Action FileAction `json:"action"`
	Name   string     `json:"name,omitempty"`
}

type FileReviewRequest struct {
	Accepted YesNo `json:"accepted"`
}

// WorkflowExecution is the read view of one instance with its tasks
// and file records.
type WorkflowExecution struct {
	Instance WorkflowInstance `json:"instance"`
	Tasks    []InstanceTask   `json:"tasks"`
	Files    []InstanceFile   `json:"files,omitempty"`
}

// CalendarRequest is the ingest DTO; Active keeps the legacy Y/N shape.
type CalendarRequest struct {
	Calendar
	ActiveFlag YesNo `json:"activeFlag,omitempty"`
}

func (r *CalendarRequest) ToCalendar() Calendar {
	cal := r.Calendar
	if bool(r.ActiveFlag) {
		cal.Active = true
	}
	return cal
}

type TemplateRequest struct {
	WorkflowTemplate
	ActiveFlag YesNo `json:"activeFlag,omitempty"`
}

func (r *TemplateRequest) ToTemplate() WorkflowTemplate {
	t := r.WorkflowTemplate
	if bool(r.ActiveFlag) {
		t.Active = true
	}
	return t
}
