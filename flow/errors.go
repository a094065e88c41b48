package flow

import (
	"fmt"

	"github.com/docuflow/docuflow/model"
)

type TemplateInactiveError struct {
	TemplateId int64
}

func (e TemplateInactiveError) Error() string {
	return fmt.Sprintf("template %d is inactive", e.TemplateId)
}

type InvalidStateError struct {
	TaskId string
	Status model.TaskStatus
	Op     string
}

func (e InvalidStateError) Error() string {
	return fmt.Sprintf("can not %s task %s in state %s", e.Op, e.TaskId, e.Status)
}

type NotAssignedError struct {
	TaskId string
}

func (e NotAssignedError) Error() string {
	return fmt.Sprintf("task %s has no assignee", e.TaskId)
}

type UnknownOutcomeError struct {
	TaskId  string
	Outcome string
}

func (e UnknownOutcomeError) Error() string {
	return fmt.Sprintf("no outcome %q configured for task %s", e.Outcome, e.TaskId)
}

type RevisionLimitExceededError struct {
	TaskId      string
	MaxRevisits int
}

func (e RevisionLimitExceededError) Error() string {
	return fmt.Sprintf("task %s exceeded its revision limit of %d", e.TaskId, e.MaxRevisits)
}

type FileNotFoundError struct {
	FileId int64
}

func (e FileNotFoundError) Error() string {
	return fmt.Sprintf("file %d not found", e.FileId)
}

type CircularDependencyError struct {
	FileId       int64
	ParentFileId int64
}

func (e CircularDependencyError) Error() string {
	return fmt.Sprintf("dependency %d -> %d would create a cycle", e.FileId, e.ParentFileId)
}

type FilesNotReadyError struct {
	TaskId string
}

func (e FilesNotReadyError) Error() string {
	return fmt.Sprintf("input files for task %s are not all accepted", e.TaskId)
}

type InstanceCancelledError struct {
	InstanceId string
}

func (e InstanceCancelledError) Error() string {
	return fmt.Sprintf("instance %s is cancelled", e.InstanceId)
}
