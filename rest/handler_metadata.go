package rest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/docuflow/docuflow/logger"
	"github.com/docuflow/docuflow/model"
)

func pathId(r *http.Request, name string) (int64, bool) {
	vars := mux.Vars(r)
	raw, ok := vars[name]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (s *Server) HandleSaveCalendar(w http.ResponseWriter, r *http.Request) {
	var req model.CalendarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	cal := req.ToCalendar()
	if err := s.metadataService.SaveCalendar(cal); err != nil {
		logger.Error("error saving calendar", zap.Int64("calendar", cal.Id), zap.Error(err))
		respondWithError(w, err)
		return
	}
	if s.scheduler != nil {
		if cal.Active {
			if err := s.scheduler.Register(&cal); err != nil {
				logger.Error("error registering calendar trigger", zap.Int64("calendar", cal.Id), zap.Error(err))
			}
		} else {
			s.scheduler.Unregister(cal.Id)
		}
	}
	respondOK(w, map[string]any{"saved": true})
}

func (s *Server) HandleGetCalendar(w http.ResponseWriter, r *http.Request) {
	id, ok := pathId(r, "id")
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	cal, err := s.metadataService.GetCalendar(id)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, cal)
}

func (s *Server) HandleDeleteCalendar(w http.ResponseWriter, r *http.Request) {
	id, ok := pathId(r, "id")
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := s.metadataService.DeleteCalendar(id); err != nil {
		respondWithError(w, err)
		return
	}
	if s.scheduler != nil {
		s.scheduler.Unregister(id)
	}
	respondOKWithoutBody(w)
}

func (s *Server) HandleListCalendars(w http.ResponseWriter, r *http.Request) {
	calendars, err := s.metadataService.ListCalendars()
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, calendars)
}

func (s *Server) HandleSaveTemplate(w http.ResponseWriter, r *http.Request) {
	var req model.TemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	tpl := req.ToTemplate()
	if err := s.metadataService.SaveTemplate(tpl); err != nil {
		logger.Error("error saving template", zap.Int64("template", tpl.Id), zap.Error(err))
		respondWithError(w, err)
		return
	}
	respondOK(w, map[string]any{"saved": true})
}

func (s *Server) HandleGetTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathId(r, "id")
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	tpl, err := s.metadataService.GetTemplate(id)
	if err != nil {
		logger.Info("template does not exist", zap.Int64("template", id))
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, tpl)
}

func (s *Server) HandleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathId(r, "id")
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := s.metadataService.DeleteTemplate(id); err != nil {
		respondWithError(w, err)
		return
	}
	respondOKWithoutBody(w)
}
