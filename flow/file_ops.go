package flow

import (
	"strconv"
	"time"

	"github.com/docuflow/docuflow/model"
	"github.com/docuflow/docuflow/persistence"
)

// RecordFile appends the next version of a declared file for a task.
// The file must be declared on the task's template task.
func (s *Service) RecordFile(instanceId string, taskId string, fileId int64, action model.FileAction, name string) (*model.InstanceFile, error) {
	s.locks.Lock(instanceId)
	defer s.locks.Unlock(instanceId)
	_, task, tpl, tt, err := s.load(instanceId, taskId)
	if err != nil {
		return nil, err
	}
	if task.Status != model.TASK_IN_PROGRESS {
		return nil, InvalidStateError{TaskId: taskId, Status: task.Status, Op: "record file for"}
	}
	declared := false
	for _, f := range tt.Files {
		if f.Id == fileId {
			declared = true
			break
		}
	}
	if !declared || tpl.File(fileId) == nil {
		return nil, FileNotFoundError{FileId: fileId}
	}
	files, err := s.storage.GetFiles(instanceId)
	if err != nil {
		return nil, err
	}
	version := 1
	for _, f := range files {
		if f.FileId == fileId && f.Version >= version {
			version = f.Version + 1
		}
	}
	rec := model.InstanceFile{
		FileId:     fileId,
		Version:    version,
		InstanceId: instanceId,
		TaskId:     taskId,
		Action:     action,
		Status:     model.FILE_UPLOADED,
		Name:       name,
		CreatedAt:  time.Now(),
	}
	if err := s.storage.SaveFile(rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ReviewFile marks the latest version of a file ACCEPTED or REJECTED.
func (s *Service) ReviewFile(instanceId string, fileId int64, accepted bool) error {
	s.locks.Lock(instanceId)
	defer s.locks.Unlock(instanceId)
	inst, err := s.storage.GetInstance(instanceId)
	if err != nil {
		return err
	}
	if inst.Status == model.INSTANCE_CANCELLED {
		return InstanceCancelledError{InstanceId: instanceId}
	}
	files, err := s.storage.GetFiles(instanceId)
	if err != nil {
		return err
	}
	var latest *model.InstanceFile
	for i := range files {
		if files[i].FileId == fileId {
			if latest == nil || files[i].Version > latest.Version {
				latest = &files[i]
			}
		}
	}
	if latest == nil {
		return persistence.NotFoundError{Kind: "instance file", Id: strconv.FormatInt(fileId, 10)}
	}
	if accepted {
		latest.Status = model.FILE_ACCEPTED
	} else {
		latest.Status = model.FILE_REJECTED
	}
	return s.storage.SaveFile(*latest)
}
