package redis

import (
	"context"
	"strconv"

	"github.com/docuflow/docuflow/logger"
	"github.com/docuflow/docuflow/model"
	"github.com/docuflow/docuflow/persistence"
	"github.com/docuflow/docuflow/util"
	rd "github.com/go-redis/redis/v9"
	"go.uber.org/zap"
)

const TEMPLATE_KEY string = "TEMPLATE"
const CALENDAR_KEY string = "CALENDAR"

var _ persistence.MetadataStorage = new(redisMetadataStorage)

type redisMetadataStorage struct {
	baseDao
	templateEncDec util.EncoderDecoder[model.WorkflowTemplate]
	calendarEncDec util.EncoderDecoder[model.Calendar]
}

func NewRedisMetadataStorage(conf Config) *redisMetadataStorage {
	return &redisMetadataStorage{
		baseDao:        *newBaseDao(conf),
		templateEncDec: util.NewJsonEncoderDecoder[model.WorkflowTemplate](),
		calendarEncDec: util.NewJsonEncoderDecoder[model.Calendar](),
	}
}

func (s *redisMetadataStorage) SaveTemplate(t model.WorkflowTemplate) error {
	key := s.getNamespaceKey(TEMPLATE_KEY)
	ctx := context.Background()
	data, err := s.templateEncDec.Encode(t)
	if err != nil {
		return err
	}
	if err := s.redisClient.HSet(ctx, key, strconv.FormatInt(t.Id, 10), string(data)).Err(); err != nil {
		logger.Error("error in saving template", zap.Int64("template", t.Id), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (s *redisMetadataStorage) DeleteTemplate(id int64) error {
	key := s.getNamespaceKey(TEMPLATE_KEY)
	ctx := context.Background()
	n, err := s.redisClient.HDel(ctx, key, strconv.FormatInt(id, 10)).Result()
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	if n == 0 {
		return persistence.NotFoundError{Kind: "template", Id: strconv.FormatInt(id, 10)}
	}
	return nil
}

func (s *redisMetadataStorage) GetTemplate(id int64) (*model.WorkflowTemplate, error) {
	key := s.getNamespaceKey(TEMPLATE_KEY)
	ctx := context.Background()
	str, err := s.redisClient.HGet(ctx, key, strconv.FormatInt(id, 10)).Result()
	if err == rd.Nil {
		return nil, persistence.NotFoundError{Kind: "template", Id: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		logger.Error("error in getting template", zap.Int64("template", id), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return s.templateEncDec.Decode([]byte(str))
}

func (s *redisMetadataStorage) GetTemplatesByCalendar(calendarId int64) ([]model.WorkflowTemplate, error) {
	key := s.getNamespaceKey(TEMPLATE_KEY)
	ctx := context.Background()
	all, err := s.redisClient.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	var out []model.WorkflowTemplate
	for _, str := range all {
		t, err := s.templateEncDec.Decode([]byte(str))
		if err != nil {
			return nil, err
		}
		if t.CalendarId == calendarId {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *redisMetadataStorage) SaveCalendar(c model.Calendar) error {
	key := s.getNamespaceKey(CALENDAR_KEY)
	ctx := context.Background()
	data, err := s.calendarEncDec.Encode(c)
	if err != nil {
		return err
	}
	if err := s.redisClient.HSet(ctx, key, strconv.FormatInt(c.Id, 10), string(data)).Err(); err != nil {
		logger.Error("error in saving calendar", zap.Int64("calendar", c.Id), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (s *redisMetadataStorage) DeleteCalendar(id int64) error {
	key := s.getNamespaceKey(CALENDAR_KEY)
	ctx := context.Background()
	n, err := s.redisClient.HDel(ctx, key, strconv.FormatInt(id, 10)).Result()
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	if n == 0 {
		return persistence.NotFoundError{Kind: "calendar", Id: strconv.FormatInt(id, 10)}
	}
	return nil
}

func (s *redisMetadataStorage) GetCalendar(id int64) (*model.Calendar, error) {
	key := s.getNamespaceKey(CALENDAR_KEY)
	ctx := context.Background()
	str, err := s.redisClient.HGet(ctx, key, strconv.FormatInt(id, 10)).Result()
	if err == rd.Nil {
		return nil, persistence.NotFoundError{Kind: "calendar", Id: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		logger.Error("error in getting calendar", zap.Int64("calendar", id), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return s.calendarEncDec.Decode([]byte(str))
}

func (s *redisMetadataStorage) ListCalendars() ([]model.Calendar, error) {
	key := s.getNamespaceKey(CALENDAR_KEY)
	ctx := context.Background()
	all, err := s.redisClient.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	var out []model.Calendar
	for _, str := range all {
		c, err := s.calendarEncDec.Decode([]byte(str))
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}
