package persistence

import (
	"fmt"

	"github.com/docuflow/docuflow/model"
)

type StorageLayerError struct {
	Message string
}

func (e StorageLayerError) Error() string {
	return fmt.Sprintf("storage layer error %s", e.Message)
}

type NotFoundError struct {
	Kind string
	Id   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Id)
}

// ConcurrentModificationError is returned when a version-checked save
// observes a newer stored version than the one the caller loaded.
type ConcurrentModificationError struct {
	Kind string
	Id   string
}

func (e ConcurrentModificationError) Error() string {
	return fmt.Sprintf("%s %s was modified concurrently", e.Kind, e.Id)
}

// MetadataStorage holds the authored, read-mostly definitions.
type MetadataStorage interface {
	SaveTemplate(t model.WorkflowTemplate) error
	DeleteTemplate(id int64) error
	GetTemplate(id int64) (*model.WorkflowTemplate, error)
	GetTemplatesByCalendar(calendarId int64) ([]model.WorkflowTemplate, error)
	SaveCalendar(c model.Calendar) error
	DeleteCalendar(id int64) error
	GetCalendar(id int64) (*model.Calendar, error)
	ListCalendars() ([]model.Calendar, error)
}

// InstanceStorage holds the per-execution state. SaveTask and
// SaveInstance are version-checked: the stored record must carry the
// same Version as the one passed in, and the save increments it.
type InstanceStorage interface {
	CreateInstance(inst *model.WorkflowInstance, tasks []model.InstanceTask) error
	SaveInstance(inst *model.WorkflowInstance) error
	GetInstance(id string) (*model.WorkflowInstance, error)
	SaveTask(task *model.InstanceTask) error
	GetTask(instanceId string, taskId string) (*model.InstanceTask, error)
	GetTasks(instanceId string) ([]model.InstanceTask, error)
	SaveFile(f model.InstanceFile) error
	GetFiles(instanceId string) ([]model.InstanceFile, error)
	DeleteTaskFiles(instanceId string, taskId string, keep func(model.InstanceFile) bool) error
	AppendAppliedOutcome(rec model.AppliedOutcome) error
	GetAppliedOutcomes(instanceId string) ([]model.AppliedOutcome, error)
	ListOpenInstances() ([]model.WorkflowInstance, error)
	// ReserveTrigger reserves the (calendar, effective date, template)
	// slot; false means another tick already claimed it.
	ReserveTrigger(calendarId int64, dateKey string, templateId int64) (bool, error)
}
