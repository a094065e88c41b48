package inmem

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/docuflow/docuflow/model"
	"github.com/docuflow/docuflow/persistence"
)

var _ persistence.MetadataStorage = new(Storage)
var _ persistence.InstanceStorage = new(Storage)

// Storage keeps everything in process memory. Used for tests and the
// single-node "memory" run mode.
type Storage struct {
	mu        sync.RWMutex
	templates map[int64]model.WorkflowTemplate
	calendars map[int64]model.Calendar
	instances map[string]model.WorkflowInstance
	tasks     map[string]map[string]model.InstanceTask
	files     map[string][]model.InstanceFile
	outcomes  map[string][]model.AppliedOutcome
	triggers  map[string]struct{}
}

func NewStorage() *Storage {
	return &Storage{
		templates: make(map[int64]model.WorkflowTemplate),
		calendars: make(map[int64]model.Calendar),
		instances: make(map[string]model.WorkflowInstance),
		tasks:     make(map[string]map[string]model.InstanceTask),
		files:     make(map[string][]model.InstanceFile),
		outcomes:  make(map[string][]model.AppliedOutcome),
		triggers:  make(map[string]struct{}),
	}
}

func (s *Storage) SaveTemplate(t model.WorkflowTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[t.Id] = t
	return nil
}

func (s *Storage) DeleteTemplate(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[id]; !ok {
		return persistence.NotFoundError{Kind: "template", Id: strconv.FormatInt(id, 10)}
	}
	delete(s.templates, id)
	return nil
}

func (s *Storage) GetTemplate(id int64) (*model.WorkflowTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	if !ok {
		return nil, persistence.NotFoundError{Kind: "template", Id: strconv.FormatInt(id, 10)}
	}
	return &t, nil
}

func (s *Storage) GetTemplatesByCalendar(calendarId int64) ([]model.WorkflowTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.WorkflowTemplate
	for _, t := range s.templates {
		if t.CalendarId == calendarId {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out, nil
}

func (s *Storage) SaveCalendar(c model.Calendar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calendars[c.Id] = c
	return nil
}

func (s *Storage) DeleteCalendar(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.calendars[id]; !ok {
		return persistence.NotFoundError{Kind: "calendar", Id: strconv.FormatInt(id, 10)}
	}
	delete(s.calendars, id)
	return nil
}

func (s *Storage) GetCalendar(id int64) (*model.Calendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.calendars[id]
	if !ok {
		return nil, persistence.NotFoundError{Kind: "calendar", Id: strconv.FormatInt(id, 10)}
	}
	return &c, nil
}

func (s *Storage) ListCalendars() ([]model.Calendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Calendar, 0, len(s.calendars))
	for _, c := range s.calendars {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out, nil
}

func (s *Storage) CreateInstance(inst *model.WorkflowInstance, tasks []model.InstanceTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instances[inst.Id] = *inst
	taskMap := make(map[string]model.InstanceTask, len(tasks))
	for _, t := range tasks {
		taskMap[t.Id] = t
	}
	s.tasks[inst.Id] = taskMap
	return nil
}

func (s *Storage) SaveInstance(inst *model.WorkflowInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.instances[inst.Id]
	if !ok {
		return persistence.NotFoundError{Kind: "instance", Id: inst.Id}
	}
	if stored.Version != inst.Version {
		return persistence.ConcurrentModificationError{Kind: "instance", Id: inst.Id}
	}
	inst.Version++
	s.instances[inst.Id] = *inst
	return nil
}

func (s *Storage) GetInstance(id string) (*model.WorkflowInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.instances[id]
	if !ok {
		return nil, persistence.NotFoundError{Kind: "instance", Id: id}
	}
	return &inst, nil
}

func (s *Storage) SaveTask(task *model.InstanceTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	taskMap, ok := s.tasks[task.InstanceId]
	if !ok {
		return persistence.NotFoundError{Kind: "instance", Id: task.InstanceId}
	}
	stored, ok := taskMap[task.Id]
	if !ok {
		return persistence.NotFoundError{Kind: "task", Id: task.Id}
	}
	if stored.Version != task.Version {
		return persistence.ConcurrentModificationError{Kind: "task", Id: task.Id}
	}
	task.Version++
	taskMap[task.Id] = *task
	return nil
}

func (s *Storage) GetTask(instanceId string, taskId string) (*model.InstanceTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	taskMap, ok := s.tasks[instanceId]
	if !ok {
		return nil, persistence.NotFoundError{Kind: "instance", Id: instanceId}
	}
	t, ok := taskMap[taskId]
	if !ok {
		return nil, persistence.NotFoundError{Kind: "task", Id: taskId}
	}
	return &t, nil
}

func (s *Storage) GetTasks(instanceId string) ([]model.InstanceTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	taskMap, ok := s.tasks[instanceId]
	if !ok {
		return nil, persistence.NotFoundError{Kind: "instance", Id: instanceId}
	}
	out := make([]model.InstanceTask, 0, len(taskMap))
	for _, t := range taskMap {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TemplateTaskId < out[j].TemplateTaskId })
	return out, nil
}

func (s *Storage) SaveFile(f model.InstanceFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	files := s.files[f.InstanceId]
	for i := range files {
		if files[i].FileId == f.FileId && files[i].Version == f.Version {
			files[i] = f
			return nil
		}
	}
	s.files[f.InstanceId] = append(files, f)
	return nil
}

func (s *Storage) GetFiles(instanceId string) ([]model.InstanceFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.InstanceFile, len(s.files[instanceId]))
	copy(out, s.files[instanceId])
	return out, nil
}

func (s *Storage) DeleteTaskFiles(instanceId string, taskId string, keep func(model.InstanceFile) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []model.InstanceFile
	for _, f := range s.files[instanceId] {
		if f.TaskId != taskId || (keep != nil && keep(f)) {
			kept = append(kept, f)
		}
	}
	s.files[instanceId] = kept
	return nil
}

func (s *Storage) AppendAppliedOutcome(rec model.AppliedOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[rec.InstanceId] = append(s.outcomes[rec.InstanceId], rec)
	return nil
}

func (s *Storage) GetAppliedOutcomes(instanceId string) ([]model.AppliedOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.AppliedOutcome, len(s.outcomes[instanceId]))
	copy(out, s.outcomes[instanceId])
	return out, nil
}

func (s *Storage) ListOpenInstances() ([]model.WorkflowInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.WorkflowInstance
	for _, inst := range s.instances {
		if !inst.Status.Terminal() {
			out = append(out, inst)
		}
	}
	return out, nil
}

func (s *Storage) ReserveTrigger(calendarId int64, dateKey string, templateId int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%d:%s:%d", calendarId, dateKey, templateId)
	if _, ok := s.triggers[key]; ok {
		return false, nil
	}
	s.triggers[key] = struct{}{}
	return true, nil
}
