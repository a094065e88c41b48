package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/docuflow/docuflow/logger"
	"github.com/docuflow/docuflow/model"
	"go.uber.org/zap"
)

func (s *Server) HandleRecordFile(w http.ResponseWriter, r *http.Request) {
	instanceId, taskId, ok := taskPath(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	var req model.FileRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	rec, err := s.executionService.RecordFile(instanceId, taskId, req)
	if err != nil {
		logger.Error("error recording file", zap.String("instance", instanceId),
			zap.String("task", taskId), zap.Int64("file", req.FileId), zap.Error(err))
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, rec)
}

func (s *Server) HandleReviewFile(w http.ResponseWriter, r *http.Request) {
	instanceId, ok := mux.Vars(r)["id"]
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	fileId, ok := pathId(r, "fileId")
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	var req model.FileReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	if err := s.executionService.ReviewFile(instanceId, fileId, bool(req.Accepted)); err != nil {
		respondWithError(w, err)
		return
	}
	respondOKWithoutBody(w)
}
