package agent

import (
	"fmt"
	"sync"
	"time"

	"github.com/docuflow/docuflow/calendar"
	"github.com/docuflow/docuflow/config"
	"github.com/docuflow/docuflow/flow"
	"github.com/docuflow/docuflow/logger"
	"github.com/docuflow/docuflow/metadata"
	"github.com/docuflow/docuflow/persistence"
	"github.com/docuflow/docuflow/persistence/inmem"
	rd "github.com/docuflow/docuflow/persistence/redis"
	"github.com/docuflow/docuflow/rest"
	"github.com/docuflow/docuflow/service"
	"github.com/docuflow/docuflow/util"
	"go.uber.org/zap"
)

type tick struct {
	calendarId int64
	date       time.Time
}

// Agent wires storage, metadata, the flow engine, the calendar
// scheduler and the http surface into one process.
type Agent struct {
	Config config.Config

	metadataStorage  persistence.MetadataStorage
	instanceStorage  persistence.InstanceStorage
	metadataService  metadata.Service
	flowService      *flow.Service
	executionService *service.WorkflowExecutionService
	scheduler        *calendar.Scheduler
	tickWorker       *util.Worker
	overdueWatcher   *flow.OverdueWatcher
	httpServer       *rest.Server

	shutdown     bool
	shutdowns    chan struct{}
	shutdownLock sync.Mutex
	wg           sync.WaitGroup
}

func New(conf config.Config) (*Agent, error) {
	a := &Agent{
		Config:    conf,
		shutdowns: make(chan struct{}),
	}
	setup := []func() error{
		a.setupStorage,
		a.setupMetadataService,
		a.setupFlowService,
		a.setupScheduler,
		a.setupOverdueWatcher,
		a.setupExecutionService,
		a.setupHttpServer,
	}
	for _, fn := range setup {
		if err := fn(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Agent) setupStorage() error {
	switch a.Config.StorageType {
	case config.STORAGE_TYPE_REDIS:
		conf := rd.Config{
			Addrs:     a.Config.RedisConfig.Addrs,
			Namespace: a.Config.RedisConfig.Namespace,
		}
		a.metadataStorage = rd.NewRedisMetadataStorage(conf)
		a.instanceStorage = rd.NewRedisInstanceStorage(conf)
	case config.STORAGE_TYPE_INMEM:
		st := inmem.NewStorage()
		a.metadataStorage = st
		a.instanceStorage = st
	default:
		return fmt.Errorf("unknown storage implementation %s", a.Config.StorageType)
	}
	return nil
}

func (a *Agent) setupMetadataService() error {
	a.metadataService = metadata.NewService(a.metadataStorage)
	return nil
}

func (a *Agent) setupFlowService() error {
	roles := &flow.StaticRoleResolver{
		Users:       a.Config.RoleUsers,
		Escalations: a.Config.EscalationChain,
	}
	a.flowService = flow.NewService(a.metadataService, a.instanceStorage, roles, a.Config.SystemUser)
	return nil
}

// setupScheduler hands calendar ticks to a buffered worker so a slow
// instantiation never blocks the cron goroutines, then registers every
// active calendar found in storage.
func (a *Agent) setupScheduler() error {
	a.tickWorker = util.NewWorker("calendar-tick", &a.wg, func(job util.Job) error {
		t := job.(tick)
		a.flowService.OnTick(t.calendarId, t.date)
		return nil
	}, 64)
	a.tickWorker.Start()

	a.scheduler = calendar.NewScheduler(func(calendarId int64, tickDate time.Time) {
		a.tickWorker.Sender() <- tick{calendarId: calendarId, date: tickDate}
	})

	calendars, err := a.metadataService.ListCalendars()
	if err != nil {
		return err
	}
	for i := range calendars {
		if !calendars[i].Active {
			continue
		}
		if err := a.scheduler.Register(&calendars[i]); err != nil {
			logger.Error("error registering calendar", zap.Int64("calendar", calendars[i].Id), zap.Error(err))
		}
	}
	return nil
}

func (a *Agent) setupOverdueWatcher() error {
	interval := time.Duration(a.Config.OverdueScanSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	a.overdueWatcher = flow.NewOverdueWatcher(a.metadataService, a.instanceStorage, interval, nil, &a.wg)
	a.overdueWatcher.Start()
	return nil
}

func (a *Agent) setupExecutionService() error {
	a.executionService = service.NewWorkflowExecutionService(a.flowService, a.instanceStorage)
	return nil
}

func (a *Agent) setupHttpServer() error {
	var err error
	a.httpServer, err = rest.NewServer(a.Config.HttpPort, a.metadataService, a.executionService, a.scheduler)
	if err != nil {
		return err
	}
	return nil
}

func (a *Agent) Start() error {
	go func() {
		if err := a.httpServer.Start(); err != nil {
			_ = a.Shutdown()
			panic(err)
		}
	}()
	return nil
}

func (a *Agent) Shutdown() error {
	logger.Info("shutting down server")
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true
	close(a.shutdowns)

	shutdown := []func() error{
		a.scheduler.Stop,
		func() error {
			a.tickWorker.Stop()
			return nil
		},
		a.overdueWatcher.Stop,
		a.httpServer.Stop,
	}
	for _, fn := range shutdown {
		if err := fn(); err != nil {
			return err
		}
	}
	logger.Info("waiting for all services to shutdown...")
	a.wg.Wait()
	return nil
}
