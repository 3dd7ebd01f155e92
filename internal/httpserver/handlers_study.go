package httpserver

import (
	"encoding/json"
	"net/http"

	lderrors "github.com/atsuhiron/lite-dist2-go/internal/errors"
	"github.com/atsuhiron/lite-dist2-go/internal/study"
)

type registerStudyResponse struct {
	StudyID string `json:"study_id"`
}

func (s *Server) handleRegisterStudy(w http.ResponseWriter, r *http.Request) {
	var reg study.Registry
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		s.writeError(w, err)
		return
	}
	studyID, err := s.cur.RegisterStudy(reg, s.defaultTimeoutMinutes)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("study registered", "study_id", studyID, "name", reg.Name)
	s.notifySummaries()
	s.writeJSON(w, http.StatusOK, registerStudyResponse{StudyID: studyID})
}

type bulkRegisterRequest struct {
	Studies []study.Registry `json:"studies"`
}

// bulkRegisterResult reports one registry's outcome: a study_id on
// success, an error message on failure. Registration is per-item; a bad
// registry does not roll back the ones before it.
type bulkRegisterResult struct {
	StudyID string `json:"study_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleRegisterStudyBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, err)
		return
	}
	results := make([]bulkRegisterResult, 0, len(req.Studies))
	for _, reg := range req.Studies {
		studyID, err := s.cur.RegisterStudy(reg, s.defaultTimeoutMinutes)
		if err != nil {
			results = append(results, bulkRegisterResult{Error: err.Error()})
			continue
		}
		results = append(results, bulkRegisterResult{StudyID: studyID})
	}
	s.notifySummaries()
	s.writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

type fetchStudyResponse struct {
	Status study.Status   `json:"status"`
	Result *study.Storage `json:"result"`
}

// handleFetchStudy serves GET /study?study_id=... xor ?name=...: 400 when
// both or neither parameter is given, 404 when no study or storage
// matches, 202 with a nil result while the study is still in progress.
func (s *Server) handleFetchStudy(w http.ResponseWriter, r *http.Request) {
	studyID := r.URL.Query().Get("study_id")
	name := r.URL.Query().Get("name")
	if (studyID == "") == (name == "") {
		s.writeError(w, lderrors.NewParameterError("exactly one of study_id or name must be given"))
		return
	}

	if storage := s.cur.PopStorage(studyID, name); storage != nil {
		s.writeJSON(w, http.StatusOK, fetchStudyResponse{Status: study.StatusDone, Result: storage})
		return
	}
	status, ok := s.cur.GetStudyStatus(studyID, name)
	if !ok {
		key := studyID
		if key == "" {
			key = name
		}
		s.writeError(w, lderrors.NewNotFoundError("study", key))
		return
	}
	s.writeJSON(w, http.StatusAccepted, fetchStudyResponse{Status: status, Result: nil})
}
