package model

import "time"

type InstanceStatus string

const INSTANCE_PENDING InstanceStatus = "PENDING"
const INSTANCE_IN_PROGRESS InstanceStatus = "IN_PROGRESS"
const INSTANCE_COMPLETED InstanceStatus = "COMPLETED"
const INSTANCE_FAILED InstanceStatus = "FAILED"
const INSTANCE_CANCELLED InstanceStatus = "CANCELLED"

type TaskStatus string

const TASK_PENDING TaskStatus = "PENDING"
const TASK_IN_PROGRESS TaskStatus = "IN_PROGRESS"
const TASK_COMPLETED TaskStatus = "COMPLETED"
const TASK_FAILED TaskStatus = "FAILED"
const TASK_ESCALATED TaskStatus = "ESCALATED"
const TASK_REJECTED TaskStatus = "REJECTED"

// Terminal reports whether a task status admits no further transitions.
// ESCALATED is not terminal, the escalated assignee still has to drive
// the task to an end state.
func (s TaskStatus) Terminal() bool {
	return s == TASK_COMPLETED || s == TASK_FAILED || s == TASK_REJECTED
}

func (s InstanceStatus) Terminal() bool {
	return s == INSTANCE_COMPLETED || s == INSTANCE_FAILED || s == INSTANCE_CANCELLED
}

type WorkflowInstance struct {
	Id          string         `json:"id"`
	TemplateId  int64          `json:"templateId"`
	CalendarId  int64          `json:"calendarId,omitempty"`
	Status      InstanceStatus `json:"status"`
	StartedBy   string         `json:"startedBy"`
	StartedAt   time.Time      `json:"startedAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
	EscalatedTo string         `json:"escalatedTo,omitempty"`
	Version     int64          `json:"version"`
}

type InstanceTask struct {
	Id             string     `json:"id"`
	InstanceId     string     `json:"instanceId"`
	TemplateTaskId int64      `json:"templateTaskId"`
	Status         TaskStatus `json:"status"`
	Assignee       string     `json:"assignee,omitempty"`
	StartedAt      *time.Time `json:"startedAt,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	Outcome        string     `json:"outcome,omitempty"`
	FailureReason  string     `json:"failureReason,omitempty"`
	RejectedBy     string     `json:"rejectedBy,omitempty"`
	RejectedAt     *time.Time `json:"rejectedAt,omitempty"`
	Revisits       int        `json:"revisits"`
	// ParentIds are instance-task ids, materialized from the template
	// task's predecessor set at instantiation time.
	ParentIds []string `json:"parentIds,omitempty"`
	Version   int64    `json:"version"`
}

// AppliedOutcome is the audit record of one routing application.
type AppliedOutcome struct {
	InstanceId string    `json:"instanceId"`
	TaskId     string    `json:"taskId"`
	Outcome    string    `json:"outcome"`
	AppliedAt  time.Time `json:"appliedAt"`
}
