package service

import (
	"github.com/docuflow/docuflow/flow"
	"github.com/docuflow/docuflow/logger"
	"github.com/docuflow/docuflow/model"
	"github.com/docuflow/docuflow/persistence"
	"go.uber.org/zap"
)

// WorkflowExecutionService is the facade the transport layer talks to.
// It delegates lifecycle operations to the flow service and assembles
// read views from storage.
type WorkflowExecutionService struct {
	flow    *flow.Service
	storage persistence.InstanceStorage
}

func NewWorkflowExecutionService(flowService *flow.Service, storage persistence.InstanceStorage) *WorkflowExecutionService {
	return &WorkflowExecutionService{
		flow:    flowService,
		storage: storage,
	}
}

func (s *WorkflowExecutionService) StartWorkflow(req model.StartWorkflowRequest) (*model.WorkflowInstance, error) {
	logger.Info("starting workflow", zap.Int64("template", req.TemplateId), zap.String("startedBy", req.StartedBy))
	return s.flow.StartWorkflow(req.TemplateId, req.StartedBy, req.CalendarId)
}

func (s *WorkflowExecutionService) GetExecution(instanceId string) (*model.WorkflowExecution, error) {
	inst, err := s.storage.GetInstance(instanceId)
	if err != nil {
		return nil, err
	}
	tasks, err := s.storage.GetTasks(instanceId)
	if err != nil {
		return nil, err
	}
	files, err := s.storage.GetFiles(instanceId)
	if err != nil {
		return nil, err
	}
	return &model.WorkflowExecution{
		Instance: *inst,
		Tasks:    tasks,
		Files:    files,
	}, nil
}

func (s *WorkflowExecutionService) GetAppliedOutcomes(instanceId string) ([]model.AppliedOutcome, error) {
	if _, err := s.storage.GetInstance(instanceId); err != nil {
		return nil, err
	}
	return s.storage.GetAppliedOutcomes(instanceId)
}

func (s *WorkflowExecutionService) Cancel(instanceId string) error {
	return s.flow.Cancel(instanceId)
}

func (s *WorkflowExecutionService) Assign(instanceId string, taskId string, user string) error {
	return s.flow.Assign(instanceId, taskId, user)
}

func (s *WorkflowExecutionService) StartTask(instanceId string, taskId string) error {
	return s.flow.StartTask(instanceId, taskId)
}

func (s *WorkflowExecutionService) Complete(instanceId string, taskId string, req model.TaskActionRequest) error {
	return s.flow.Complete(instanceId, taskId, req.Outcome, req.Output)
}

func (s *WorkflowExecutionService) Fail(instanceId string, taskId string, reason string) error {
	return s.flow.Fail(instanceId, taskId, reason)
}

func (s *WorkflowExecutionService) Reject(instanceId string, taskId string, user string, reason string) error {
	return s.flow.Reject(instanceId, taskId, user, reason)
}

func (s *WorkflowExecutionService) Escalate(instanceId string, taskId string, toUser string) error {
	return s.flow.Escalate(instanceId, taskId, toUser)
}

func (s *WorkflowExecutionService) RecordFile(instanceId string, taskId string, req model.FileRecordRequest) (*model.InstanceFile, error) {
	action := req.Action
	if action == "" {
		action = model.FILE_ACTION_UPLOAD
	}
	return s.flow.RecordFile(instanceId, taskId, req.FileId, action, req.Name)
}

func (s *WorkflowExecutionService) ReviewFile(instanceId string, fileId int64, accepted bool) error {
	return s.flow.ReviewFile(instanceId, fileId, accepted)
}
