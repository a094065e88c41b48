package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/docuflow/docuflow/logger"
	"github.com/docuflow/docuflow/model"
	"github.com/docuflow/docuflow/persistence"
	"github.com/docuflow/docuflow/util"
	rd "github.com/go-redis/redis/v9"
	"go.uber.org/zap"
)

const INSTANCE_KEY string = "INSTANCE"
const TASK_KEY string = "TASK"
const FILE_KEY string = "FILE"
const OUTCOME_KEY string = "OUTCOME"
const TRIGGER_KEY string = "TRIGGER"

// Trigger reservations expire after a week; a tick for the same
// (calendar, date, template) will never arrive that late.
const triggerTTL = 7 * 24 * time.Hour

var _ persistence.InstanceStorage = new(redisInstanceStorage)

type redisInstanceStorage struct {
	baseDao
	instanceEncDec util.EncoderDecoder[model.WorkflowInstance]
	taskEncDec     util.EncoderDecoder[model.InstanceTask]
	fileEncDec     util.EncoderDecoder[model.InstanceFile]
	outcomeEncDec  util.EncoderDecoder[model.AppliedOutcome]
}

func NewRedisInstanceStorage(conf Config) *redisInstanceStorage {
	return &redisInstanceStorage{
		baseDao:        *newBaseDao(conf),
		instanceEncDec: util.NewJsonEncoderDecoder[model.WorkflowInstance](),
		taskEncDec:     util.NewJsonEncoderDecoder[model.InstanceTask](),
		fileEncDec:     util.NewJsonEncoderDecoder[model.InstanceFile](),
		outcomeEncDec:  util.NewJsonEncoderDecoder[model.AppliedOutcome](),
	}
}

func (s *redisInstanceStorage) CreateInstance(inst *model.WorkflowInstance, tasks []model.InstanceTask) error {
	ctx := context.Background()
	instData, err := s.instanceEncDec.Encode(*inst)
	if err != nil {
		return err
	}
	pipe := s.redisClient.TxPipeline()
	pipe.HSet(ctx, s.getNamespaceKey(INSTANCE_KEY), inst.Id, string(instData))
	taskKey := s.getNamespaceKey(TASK_KEY, inst.Id)
	for _, t := range tasks {
		data, err := s.taskEncDec.Encode(t)
		if err != nil {
			return err
		}
		pipe.HSet(ctx, taskKey, t.Id, string(data))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Error("error in creating instance", zap.String("instance", inst.Id), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (s *redisInstanceStorage) SaveInstance(inst *model.WorkflowInstance) error {
	ctx := context.Background()
	key := s.getNamespaceKey(INSTANCE_KEY)
	err := s.redisClient.Watch(ctx, func(tx *rd.Tx) error {
		str, err := tx.HGet(ctx, key, inst.Id).Result()
		if err == rd.Nil {
			return persistence.NotFoundError{Kind: "instance", Id: inst.Id}
		}
		if err != nil {
			return err
		}
		stored, err := s.instanceEncDec.Decode([]byte(str))
		if err != nil {
			return err
		}
		if stored.Version != inst.Version {
			return persistence.ConcurrentModificationError{Kind: "instance", Id: inst.Id}
		}
		inst.Version++
		data, err := s.instanceEncDec.Encode(*inst)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe rd.Pipeliner) error {
			pipe.HSet(ctx, key, inst.Id, string(data))
			return nil
		})
		return err
	}, key)
	if err != nil {
		switch err.(type) {
		case persistence.NotFoundError, persistence.ConcurrentModificationError:
			return err
		}
		logger.Error("error in saving instance", zap.String("instance", inst.Id), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (s *redisInstanceStorage) GetInstance(id string) (*model.WorkflowInstance, error) {
	ctx := context.Background()
	str, err := s.redisClient.HGet(ctx, s.getNamespaceKey(INSTANCE_KEY), id).Result()
	if err == rd.Nil {
		return nil, persistence.NotFoundError{Kind: "instance", Id: id}
	}
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return s.instanceEncDec.Decode([]byte(str))
}

func (s *redisInstanceStorage) SaveTask(task *model.InstanceTask) error {
	ctx := context.Background()
	key := s.getNamespaceKey(TASK_KEY, task.InstanceId)
	err := s.redisClient.Watch(ctx, func(tx *rd.Tx) error {
		str, err := tx.HGet(ctx, key, task.Id).Result()
		if err == rd.Nil {
			return persistence.NotFoundError{Kind: "task", Id: task.Id}
		}
		if err != nil {
			return err
		}
		stored, err := s.taskEncDec.Decode([]byte(str))
		if err != nil {
			return err
		}
		if stored.Version != task.Version {
			return persistence.ConcurrentModificationError{Kind: "task", Id: task.Id}
		}
		task.Version++
		data, err := s.taskEncDec.Encode(*task)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe rd.Pipeliner) error {
			pipe.HSet(ctx, key, task.Id, string(data))
			return nil
		})
		return err
	}, key)
	if err != nil {
		switch err.(type) {
		case persistence.NotFoundError, persistence.ConcurrentModificationError:
			return err
		}
		logger.Error("error in saving task", zap.String("task", task.Id), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (s *redisInstanceStorage) GetTask(instanceId string, taskId string) (*model.InstanceTask, error) {
	ctx := context.Background()
	str, err := s.redisClient.HGet(ctx, s.getNamespaceKey(TASK_KEY, instanceId), taskId).Result()
	if err == rd.Nil {
		return nil, persistence.NotFoundError{Kind: "task", Id: taskId}
	}
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return s.taskEncDec.Decode([]byte(str))
}

func (s *redisInstanceStorage) GetTasks(instanceId string) ([]model.InstanceTask, error) {
	ctx := context.Background()
	all, err := s.redisClient.HGetAll(ctx, s.getNamespaceKey(TASK_KEY, instanceId)).Result()
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	if len(all) == 0 {
		return nil, persistence.NotFoundError{Kind: "instance", Id: instanceId}
	}
	out := make([]model.InstanceTask, 0, len(all))
	for _, str := range all {
		t, err := s.taskEncDec.Decode([]byte(str))
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, nil
}

func (s *redisInstanceStorage) SaveFile(f model.InstanceFile) error {
	ctx := context.Background()
	data, err := s.fileEncDec.Encode(f)
	if err != nil {
		return err
	}
	field := fmt.Sprintf("%d:%d", f.FileId, f.Version)
	if err := s.redisClient.HSet(ctx, s.getNamespaceKey(FILE_KEY, f.InstanceId), field, string(data)).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (s *redisInstanceStorage) GetFiles(instanceId string) ([]model.InstanceFile, error) {
	ctx := context.Background()
	all, err := s.redisClient.HGetAll(ctx, s.getNamespaceKey(FILE_KEY, instanceId)).Result()
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	out := make([]model.InstanceFile, 0, len(all))
	for _, str := range all {
		f, err := s.fileEncDec.Decode([]byte(str))
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, nil
}

func (s *redisInstanceStorage) DeleteTaskFiles(instanceId string, taskId string, keep func(model.InstanceFile) bool) error {
	ctx := context.Background()
	key := s.getNamespaceKey(FILE_KEY, instanceId)
	all, err := s.redisClient.HGetAll(ctx, key).Result()
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	var fields []string
	for field, str := range all {
		f, err := s.fileEncDec.Decode([]byte(str))
		if err != nil {
			return err
		}
		if f.TaskId == taskId && (keep == nil || !keep(*f)) {
			fields = append(fields, field)
		}
	}
	if len(fields) == 0 {
		return nil
	}
	if err := s.redisClient.HDel(ctx, key, fields...).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (s *redisInstanceStorage) AppendAppliedOutcome(rec model.AppliedOutcome) error {
	ctx := context.Background()
	data, err := s.outcomeEncDec.Encode(rec)
	if err != nil {
		return err
	}
	if err := s.redisClient.RPush(ctx, s.getNamespaceKey(OUTCOME_KEY, rec.InstanceId), string(data)).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (s *redisInstanceStorage) GetAppliedOutcomes(instanceId string) ([]model.AppliedOutcome, error) {
	ctx := context.Background()
	items, err := s.redisClient.LRange(ctx, s.getNamespaceKey(OUTCOME_KEY, instanceId), 0, -1).Result()
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	out := make([]model.AppliedOutcome, 0, len(items))
	for _, str := range items {
		rec, err := s.outcomeEncDec.Decode([]byte(str))
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

func (s *redisInstanceStorage) ListOpenInstances() ([]model.WorkflowInstance, error) {
	ctx := context.Background()
	all, err := s.redisClient.HGetAll(ctx, s.getNamespaceKey(INSTANCE_KEY)).Result()
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	var out []model.WorkflowInstance
	for _, str := range all {
		inst, err := s.instanceEncDec.Decode([]byte(str))
		if err != nil {
			return nil, err
		}
		if !inst.Status.Terminal() {
			out = append(out, *inst)
		}
	}
	return out, nil
}

func (s *redisInstanceStorage) ReserveTrigger(calendarId int64, dateKey string, templateId int64) (bool, error) {
	ctx := context.Background()
	key := s.getNamespaceKey(TRIGGER_KEY, strconv.FormatInt(calendarId, 10), dateKey, strconv.FormatInt(templateId, 10))
	ok, err := s.redisClient.SetNX(ctx, key, "1", triggerTTL).Result()
	if err != nil {
		return false, persistence.StorageLayerError{Message: err.Error()}
	}
	return ok, nil
}
