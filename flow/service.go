package flow

import (
	"fmt"

	"github.com/docuflow/docuflow/calendar"
	"github.com/docuflow/docuflow/metadata"
	"github.com/docuflow/docuflow/model"
	"github.com/docuflow/docuflow/persistence"
)

// RoleResolver is the external collaborator that maps roles and
// escalation chains to concrete users.
type RoleResolver interface {
	ResolveUser(roleId int64) (string, error)
	EscalationTarget(user string) (string, error)
}

// StaticRoleResolver serves fixed mappings; the default wiring when no
// directory integration is configured.
type StaticRoleResolver struct {
	Users       map[int64]string
	Escalations map[string]string
}

func (r *StaticRoleResolver) ResolveUser(roleId int64) (string, error) {
	if u, ok := r.Users[roleId]; ok {
		return u, nil
	}
	return "", fmt.Errorf("no user configured for role %d", roleId)
}

func (r *StaticRoleResolver) EscalationTarget(user string) (string, error) {
	if u, ok := r.Escalations[user]; ok {
		return u, nil
	}
	return "", fmt.Errorf("no escalation target configured for user %s", user)
}

// Service drives workflow instances: instantiation from templates,
// task lifecycle transitions, decision routing and file gating. All
// mutating operations serialize per instance.
type Service struct {
	metadata   metadata.Service
	storage    persistence.InstanceStorage
	validity   *calendar.ValidityEngine
	roles      RoleResolver
	locks      *instanceLock
	systemUser string
}

func NewService(md metadata.Service, storage persistence.InstanceStorage, roles RoleResolver, systemUser string) *Service {
	return &Service{
		metadata:   md,
		storage:    storage,
		validity:   calendar.NewValidityEngine(),
		roles:      roles,
		locks:      newInstanceLock(),
		systemUser: systemUser,
	}
}

// load fetches the instance, the task and their definitions, rejecting
// operations on cancelled instances up front.
func (s *Service) load(instanceId string, taskId string) (*model.WorkflowInstance, *model.InstanceTask, *model.WorkflowTemplate, *model.TemplateTask, error) {
	inst, err := s.storage.GetInstance(instanceId)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if inst.Status == model.INSTANCE_CANCELLED {
		return nil, nil, nil, nil, InstanceCancelledError{InstanceId: instanceId}
	}
	task, err := s.storage.GetTask(instanceId, taskId)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	tpl, err := s.metadata.GetTemplate(inst.TemplateId)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	tt := tpl.Task(task.TemplateTaskId)
	if tt == nil {
		return nil, nil, nil, nil, persistence.NotFoundError{Kind: "template task", Id: fmt.Sprintf("%d", task.TemplateTaskId)}
	}
	return inst, task, tpl, tt, nil
}
