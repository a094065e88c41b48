package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/docuflow/docuflow/calendar"
	"github.com/docuflow/docuflow/flow"
	"github.com/docuflow/docuflow/logger"
	"github.com/docuflow/docuflow/metadata"
	"github.com/docuflow/docuflow/persistence"
	"github.com/docuflow/docuflow/service"
	"go.uber.org/zap"
)

type Server struct {
	http.Server
	Port             int
	metadataService  metadata.Service
	executionService *service.WorkflowExecutionService
	scheduler        *calendar.Scheduler
}

func NewServer(httpPort int, metadataService metadata.Service, executionService *service.WorkflowExecutionService, scheduler *calendar.Scheduler) (*Server, error) {
	s := &Server{
		Server: http.Server{
			Addr:        fmt.Sprintf(":%d", httpPort),
			IdleTimeout: 2 * time.Second,
		},
		metadataService:  metadataService,
		executionService: executionService,
		scheduler:        scheduler,
		Port:             httpPort,
	}

	router := mux.NewRouter()
	router.HandleFunc("/metadata/calendar", s.HandleSaveCalendar).Methods(http.MethodPost)
	router.HandleFunc("/metadata/calendar", s.HandleListCalendars).Methods(http.MethodGet)
	router.HandleFunc("/metadata/calendar/{id}", s.HandleGetCalendar).Methods(http.MethodGet)
	router.HandleFunc("/metadata/calendar/{id}", s.HandleDeleteCalendar).Methods(http.MethodDelete)

	router.HandleFunc("/metadata/template", s.HandleSaveTemplate).Methods(http.MethodPost)
	router.HandleFunc("/metadata/template/{id}", s.HandleGetTemplate).Methods(http.MethodGet)
	router.HandleFunc("/metadata/template/{id}", s.HandleDeleteTemplate).Methods(http.MethodDelete)

	router.HandleFunc("/execution", s.HandleStartWorkflow).Methods(http.MethodPost)
	router.HandleFunc("/execution/{id}", s.HandleGetExecution).Methods(http.MethodGet)
	router.HandleFunc("/execution/{id}/cancel", s.HandleCancel).Methods(http.MethodPost)
	router.HandleFunc("/execution/{id}/outcomes", s.HandleGetAppliedOutcomes).Methods(http.MethodGet)

	router.HandleFunc("/execution/{id}/task/{taskId}/assign", s.HandleAssignTask).Methods(http.MethodPost)
	router.HandleFunc("/execution/{id}/task/{taskId}/start", s.HandleStartTask).Methods(http.MethodPost)
	router.HandleFunc("/execution/{id}/task/{taskId}/complete", s.HandleCompleteTask).Methods(http.MethodPost)
	router.HandleFunc("/execution/{id}/task/{taskId}/fail", s.HandleFailTask).Methods(http.MethodPost)
	router.HandleFunc("/execution/{id}/task/{taskId}/reject", s.HandleRejectTask).Methods(http.MethodPost)
	router.HandleFunc("/execution/{id}/task/{taskId}/escalate", s.HandleEscalateTask).Methods(http.MethodPost)

	router.HandleFunc("/execution/{id}/task/{taskId}/file", s.HandleRecordFile).Methods(http.MethodPost)
	router.HandleFunc("/execution/{id}/file/{fileId}/review", s.HandleReviewFile).Methods(http.MethodPost)

	router.Use(loggingMiddleware)
	s.Handler = router
	return s, nil
}

func (s *Server) Start() error {
	logger.Info("starting http server on", zap.Int("port", s.Port))
	if err := s.ListenAndServe(); err != nil {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	logger.Info("stopping http server")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := s.Shutdown(ctx)
	if err != nil {
		logger.Error("error shutting down http server")
	}
	return nil
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info(r.RequestURI)
		next.ServeHTTP(w, r)
	})
}

// errorStatus maps domain errors onto http codes. Anything not
// recognized is a storage or programming fault.
func errorStatus(err error) int {
	switch err.(type) {
	case persistence.NotFoundError:
		return http.StatusNotFound
	case persistence.ConcurrentModificationError:
		return http.StatusConflict
	case metadata.ValidationError,
		flow.TemplateInactiveError,
		flow.InvalidStateError,
		flow.NotAssignedError,
		flow.UnknownOutcomeError,
		flow.RevisionLimitExceededError,
		flow.FileNotFoundError,
		flow.CircularDependencyError,
		flow.FilesNotReadyError,
		flow.InstanceCancelledError:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondOK(w http.ResponseWriter, message map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	res, _ := json.Marshal(message)
	w.Write(res)
}

func respondOKWithoutBody(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
}

func respondWithError(w http.ResponseWriter, err error) {
	respondWithJSON(w, errorStatus(err), map[string]string{"error": err.Error()})
}
