package metadata

import (
	"fmt"
	"strconv"
	"time"

	"github.com/docuflow/docuflow/model"
	"github.com/docuflow/docuflow/persistence"
	gocache "github.com/patrickmn/go-cache"
)

type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid definition: %s", e.Message)
}

// Service fronts the authored definitions with validation on save and a
// read-through cache. Definitions are written once and read on every
// tick and task transition, so cached reads carry the load.
type Service interface {
	SaveTemplate(t model.WorkflowTemplate) error
	GetTemplate(id int64) (*model.WorkflowTemplate, error)
	DeleteTemplate(id int64) error
	GetTemplatesByCalendar(calendarId int64) ([]model.WorkflowTemplate, error)
	SaveCalendar(c model.Calendar) error
	GetCalendar(id int64) (*model.Calendar, error)
	DeleteCalendar(id int64) error
	ListCalendars() ([]model.Calendar, error)
	ValidateTemplate(t model.WorkflowTemplate) error
	ValidateCalendar(c model.Calendar) error
}

type serviceImpl struct {
	storage persistence.MetadataStorage
	cache   *gocache.Cache
}

func NewService(storage persistence.MetadataStorage) Service {
	return &serviceImpl{
		storage: storage,
		cache:   gocache.New(5*time.Minute, 10*time.Minute),
	}
}

func templateCacheKey(id int64) string {
	return "template:" + strconv.FormatInt(id, 10)
}

func calendarCacheKey(id int64) string {
	return "calendar:" + strconv.FormatInt(id, 10)
}

func (s *serviceImpl) SaveTemplate(t model.WorkflowTemplate) error {
	if err := s.ValidateTemplate(t); err != nil {
		return err
	}
	if err := s.storage.SaveTemplate(t); err != nil {
		return err
	}
	s.cache.Delete(templateCacheKey(t.Id))
	return nil
}

func (s *serviceImpl) GetTemplate(id int64) (*model.WorkflowTemplate, error) {
	if cached, ok := s.cache.Get(templateCacheKey(id)); ok {
		t := cached.(model.WorkflowTemplate)
		return &t, nil
	}
	t, err := s.storage.GetTemplate(id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(templateCacheKey(id), *t, gocache.DefaultExpiration)
	return t, nil
}

func (s *serviceImpl) DeleteTemplate(id int64) error {
	if err := s.storage.DeleteTemplate(id); err != nil {
		return err
	}
	s.cache.Delete(templateCacheKey(id))
	return nil
}

func (s *serviceImpl) GetTemplatesByCalendar(calendarId int64) ([]model.WorkflowTemplate, error) {
	return s.storage.GetTemplatesByCalendar(calendarId)
}

func (s *serviceImpl) SaveCalendar(c model.Calendar) error {
	if err := s.ValidateCalendar(c); err != nil {
		return err
	}
	if err := s.storage.SaveCalendar(c); err != nil {
		return err
	}
	s.cache.Delete(calendarCacheKey(c.Id))
	return nil
}

func (s *serviceImpl) GetCalendar(id int64) (*model.Calendar, error) {
	if cached, ok := s.cache.Get(calendarCacheKey(id)); ok {
		c := cached.(model.Calendar)
		return &c, nil
	}
	c, err := s.storage.GetCalendar(id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(calendarCacheKey(id), *c, gocache.DefaultExpiration)
	return c, nil
}

func (s *serviceImpl) DeleteCalendar(id int64) error {
	if err := s.storage.DeleteCalendar(id); err != nil {
		return err
	}
	s.cache.Delete(calendarCacheKey(id))
	return nil
}

func (s *serviceImpl) ListCalendars() ([]model.Calendar, error) {
	return s.storage.ListCalendars()
}

func (s *serviceImpl) ValidateCalendar(c model.Calendar) error {
	if c.Name == "" {
		return ValidationError{Message: "calendar name is required"}
	}
	if c.EndDate.Before(c.StartDate) {
		return ValidationError{Message: "calendar start date must not be after end date"}
	}
	seen := make(map[string]struct{})
	for _, d := range c.Days {
		if d.Type != model.DAY_TYPE_HOLIDAY && d.Type != model.DAY_TYPE_RUNDAY {
			return ValidationError{Message: fmt.Sprintf("unknown day type %s", d.Type)}
		}
		key := model.DateKey(d.Date) + ":" + string(d.Type)
		if _, ok := seen[key]; ok {
			return ValidationError{Message: fmt.Sprintf("duplicate %s entry on %s", d.Type, model.DateKey(d.Date))}
		}
		seen[key] = struct{}{}
	}
	return nil
}

func (s *serviceImpl) ValidateTemplate(t model.WorkflowTemplate) error {
	if t.Name == "" {
		return ValidationError{Message: "template name is required"}
	}
	if len(t.Tasks) == 0 {
		return ValidationError{Message: "template has no tasks"}
	}
	taskIds := make(map[int64]struct{}, len(t.Tasks))
	sequences := make(map[int]struct{}, len(t.Tasks))
	for _, task := range t.Tasks {
		if _, ok := taskIds[task.Id]; ok {
			return ValidationError{Message: fmt.Sprintf("duplicate task id %d", task.Id)}
		}
		taskIds[task.Id] = struct{}{}
		if _, ok := sequences[task.Sequence]; ok {
			return ValidationError{Message: fmt.Sprintf("duplicate sequence %d", task.Sequence)}
		}
		sequences[task.Sequence] = struct{}{}
	}
	fileIds := make(map[int64]int64)
	for _, task := range t.Tasks {
		for _, f := range task.Files {
			if _, ok := fileIds[f.Id]; ok {
				return ValidationError{Message: fmt.Sprintf("duplicate file id %d", f.Id)}
			}
			fileIds[f.Id] = f.ParentFileId
		}
	}
	for _, task := range t.Tasks {
		if err := validateTaskRefs(t, task, taskIds); err != nil {
			return err
		}
		for _, f := range task.Files {
			if f.ParentFileId != 0 {
				if _, ok := fileIds[f.ParentFileId]; !ok {
					return ValidationError{Message: fmt.Sprintf("file %d references unknown parent %d", f.Id, f.ParentFileId)}
				}
			}
		}
	}
	if err := validateFileGraph(fileIds); err != nil {
		return err
	}
	return nil
}

func validateTaskRefs(t model.WorkflowTemplate, task model.TemplateTask, taskIds map[int64]struct{}) error {
	for _, p := range task.ParentIds {
		if _, ok := taskIds[p]; !ok {
			return ValidationError{Message: fmt.Sprintf("task %d references unknown parent task %d", task.Id, p)}
		}
	}
	for _, src := range task.SourceTaskIds {
		if _, ok := taskIds[src]; !ok {
			return ValidationError{Message: fmt.Sprintf("task %d references unknown source task %d", task.Id, src)}
		}
	}
	// several outcomes may share a name as long as their priorities
	// differ, routing picks the lowest
	names := make(map[string]struct{}, len(task.Outcomes))
	for _, o := range task.Outcomes {
		if o.Name == "" {
			return ValidationError{Message: fmt.Sprintf("task %d has an outcome without a name", task.Id)}
		}
		nameKey := fmt.Sprintf("%s:%d", o.Name, o.RevisionPriority)
		if _, ok := names[nameKey]; ok {
			return ValidationError{Message: fmt.Sprintf("task %d has duplicate outcome %s at priority %d", task.Id, o.Name, o.RevisionPriority)}
		}
		names[nameKey] = struct{}{}
		if o.TargetTaskId != 0 {
			if _, ok := taskIds[o.TargetTaskId]; !ok {
				return ValidationError{Message: fmt.Sprintf("outcome %s targets unknown task %d", o.Name, o.TargetTaskId)}
			}
		}
		for _, rid := range o.RevisionTaskIds {
			if _, ok := taskIds[rid]; !ok {
				return ValidationError{Message: fmt.Sprintf("outcome %s revises unknown task %d", o.Name, rid)}
			}
		}
		if o.RevisionType == model.REVISION_TYPE_SINGLE && len(o.RevisionTaskIds) > 1 {
			return ValidationError{Message: fmt.Sprintf("outcome %s is SINGLE but lists %d revision tasks", o.Name, len(o.RevisionTaskIds))}
		}
	}
	return nil
}

// validateFileGraph walks parent pointers from every file; revisiting a
// node within one walk means a cycle.
func validateFileGraph(fileIds map[int64]int64) error {
	for start := range fileIds {
		seen := map[int64]struct{}{start: {}}
		cur := fileIds[start]
		for cur != 0 {
			if _, ok := seen[cur]; ok {
				return ValidationError{Message: fmt.Sprintf("file dependency cycle through file %d", cur)}
			}
			seen[cur] = struct{}{}
			cur = fileIds[cur]
		}
	}
	return nil
}
