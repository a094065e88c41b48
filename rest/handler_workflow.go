package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/docuflow/docuflow/logger"
	"github.com/docuflow/docuflow/model"
	"go.uber.org/zap"
)

func taskPath(r *http.Request) (string, string, bool) {
	vars := mux.Vars(r)
	instanceId, ok := vars["id"]
	if !ok {
		return "", "", false
	}
	taskId, ok := vars["taskId"]
	if !ok {
		return "", "", false
	}
	return instanceId, taskId, true
}

func decodeTaskAction(w http.ResponseWriter, r *http.Request) (model.TaskActionRequest, bool) {
	var req model.TaskActionRequest
	if r.Body == nil {
		return req, true
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
		w.WriteHeader(http.StatusBadRequest)
		return req, false
	}
	return req, true
}

func (s *Server) HandleStartWorkflow(w http.ResponseWriter, r *http.Request) {
	var req model.StartWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	inst, err := s.executionService.StartWorkflow(req)
	if err != nil {
		logger.Error("error starting workflow", zap.Int64("template", req.TemplateId), zap.Error(err))
		respondWithError(w, err)
		return
	}
	respondOK(w, map[string]any{"instanceId": inst.Id})
}

func (s *Server) HandleGetExecution(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	instanceId, ok := vars["id"]
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	execution, err := s.executionService.GetExecution(instanceId)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, execution)
}

func (s *Server) HandleGetAppliedOutcomes(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	instanceId, ok := vars["id"]
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	outcomes, err := s.executionService.GetAppliedOutcomes(instanceId)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, outcomes)
}

func (s *Server) HandleCancel(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	instanceId, ok := vars["id"]
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := s.executionService.Cancel(instanceId); err != nil {
		logger.Error("error cancelling workflow", zap.String("instance", instanceId), zap.Error(err))
		respondWithError(w, err)
		return
	}
	respondOKWithoutBody(w)
}

func (s *Server) HandleAssignTask(w http.ResponseWriter, r *http.Request) {
	instanceId, taskId, ok := taskPath(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	req, ok := decodeTaskAction(w, r)
	if !ok {
		return
	}
	if err := s.executionService.Assign(instanceId, taskId, req.User); err != nil {
		respondWithError(w, err)
		return
	}
	respondOKWithoutBody(w)
}

func (s *Server) HandleStartTask(w http.ResponseWriter, r *http.Request) {
	instanceId, taskId, ok := taskPath(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := s.executionService.StartTask(instanceId, taskId); err != nil {
		respondWithError(w, err)
		return
	}
	respondOKWithoutBody(w)
}

func (s *Server) HandleCompleteTask(w http.ResponseWriter, r *http.Request) {
	instanceId, taskId, ok := taskPath(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	req, ok := decodeTaskAction(w, r)
	if !ok {
		return
	}
	if err := s.executionService.Complete(instanceId, taskId, req); err != nil {
		logger.Error("error completing task", zap.String("instance", instanceId), zap.String("task", taskId), zap.Error(err))
		respondWithError(w, err)
		return
	}
	respondOKWithoutBody(w)
}

func (s *Server) HandleFailTask(w http.ResponseWriter, r *http.Request) {
	instanceId, taskId, ok := taskPath(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	req, ok := decodeTaskAction(w, r)
	if !ok {
		return
	}
	if err := s.executionService.Fail(instanceId, taskId, req.Reason); err != nil {
		respondWithError(w, err)
		return
	}
	respondOKWithoutBody(w)
}

func (s *Server) HandleRejectTask(w http.ResponseWriter, r *http.Request) {
	instanceId, taskId, ok := taskPath(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	req, ok := decodeTaskAction(w, r)
	if !ok {
		return
	}
	if err := s.executionService.Reject(instanceId, taskId, req.User, req.Reason); err != nil {
		respondWithError(w, err)
		return
	}
	respondOKWithoutBody(w)
}

func (s *Server) HandleEscalateTask(w http.ResponseWriter, r *http.Request) {
	instanceId, taskId, ok := taskPath(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	req, ok := decodeTaskAction(w, r)
	if !ok {
		return
	}
	if err := s.executionService.Escalate(instanceId, taskId, req.User); err != nil {
		respondWithError(w, err)
		return
	}
	respondOKWithoutBody(w)
}
