package calendar

import (
	"sync"
	"time"

	"github.com/docuflow/docuflow/logger"
	"github.com/docuflow/docuflow/model"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// FALLBACK_CRON fires daily at 09:00 when a calendar's own expression
// does not parse.
const FALLBACK_CRON string = "0 0 9 * * *"

type TickFunc func(calendarId int64, tickDate time.Time)

type registration struct {
	runner *cron.Cron
	entry  cron.EntryID
	paused bool
	tz     *time.Location
	expr   string
}

// Scheduler registers one cron runner per calendar and fires the
// injected TickFunc at each trigger. Every calendar gets its own runner
// so each can run in its own timezone.
type Scheduler struct {
	mu     sync.Mutex
	parser cron.Parser
	crons  map[int64]*registration
	onTick TickFunc
}

func NewScheduler(onTick TickFunc) *Scheduler {
	return &Scheduler{
		parser: cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		crons:  make(map[int64]*registration),
		onTick: onTick,
	}
}

// Register schedules the calendar's cron expression. An invalid
// expression falls back to the daily-09:00 default and logs the
// substitution; registration never fails on a bad expression.
func (s *Scheduler) Register(cal *model.Calendar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.crons[cal.Id]; ok {
		old.runner.Stop()
		delete(s.crons, cal.Id)
	}
	tz := time.UTC
	if cal.Timezone != "" {
		loc, err := time.LoadLocation(cal.Timezone)
		if err != nil {
			logger.Warn("unknown calendar timezone, using UTC", zap.Int64("calendar", cal.Id), zap.String("timezone", cal.Timezone))
		} else {
			tz = loc
		}
	}
	expr := cal.CronExpression
	if _, err := s.parser.Parse(expr); err != nil {
		logger.Warn("invalid cron expression, falling back to daily 09:00",
			zap.Int64("calendar", cal.Id), zap.String("expression", expr), zap.Error(err))
		expr = FALLBACK_CRON
	}
	runner := cron.New(cron.WithParser(s.parser), cron.WithLocation(tz))
	calId := cal.Id
	entry, err := runner.AddFunc(expr, func() {
		s.onTick(calId, time.Now().In(tz))
	})
	if err != nil {
		return err
	}
	runner.Start()
	s.crons[cal.Id] = &registration{
		runner: runner,
		entry:  entry,
		tz:     tz,
		expr:   expr,
	}
	logger.Info("calendar trigger registered", zap.Int64("calendar", cal.Id), zap.String("expression", expr), zap.String("timezone", tz.String()))
	return nil
}

func (s *Scheduler) Unregister(calendarId int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reg, ok := s.crons[calendarId]; ok {
		reg.runner.Stop()
		delete(s.crons, calendarId)
		logger.Info("calendar trigger unregistered", zap.Int64("calendar", calendarId))
	}
}

func (s *Scheduler) Pause(calendarId int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reg, ok := s.crons[calendarId]; ok && !reg.paused {
		reg.runner.Stop()
		reg.paused = true
	}
}

func (s *Scheduler) Resume(calendarId int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reg, ok := s.crons[calendarId]; ok && reg.paused {
		reg.runner.Start()
		reg.paused = false
	}
}

func (s *Scheduler) Registered(calendarId int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.crons[calendarId]
	return ok
}

func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, reg := range s.crons {
		reg.runner.Stop()
		delete(s.crons, id)
	}
	logger.Info("scheduler stopped")
	return nil
}
