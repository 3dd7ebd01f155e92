package httpserver

import (
	"encoding/json"
	"net/http"

	lderrors "github.com/atsuhiron/lite-dist2-go/internal/errors"
	"github.com/atsuhiron/lite-dist2-go/internal/trial"
)

var errMissingTrial = lderrors.NewParameterError("trial body is required")

type reserveTrialRequest struct {
	RetainingCapacity []string `json:"retaining_capacity"`
	MaxSize           int64    `json:"max_size"`
}

type trialEnvelope struct {
	Trial *trial.Trial `json:"trial"`
}

// handleReserveTrial responds 200 with the reserved trial, or 202 with a
// null trial when no study currently has work for this worker, which
// signals the worker to back off for its configured wait interval.
func (s *Server) handleReserveTrial(w http.ResponseWriter, r *http.Request) {
	var req reserveTrialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, err)
		return
	}
	tr, err := s.cur.ReserveTrial(req.RetainingCapacity, req.MaxSize)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if tr == nil {
		s.writeJSON(w, http.StatusAccepted, trialEnvelope{Trial: nil})
		return
	}
	s.logger.Info("trial reserved", "study_id", tr.StudyID, "trial_id", tr.TrialID)
	s.writeJSON(w, http.StatusOK, trialEnvelope{Trial: tr})
}

func (s *Server) handleRegisterTrial(w http.ResponseWriter, r *http.Request) {
	var req trialEnvelope
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Trial == nil {
		s.writeError(w, errMissingTrial)
		return
	}
	if err := s.cur.ReceiptTrial(req.Trial); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("trial registered", "study_id", req.Trial.StudyID, "trial_id", req.Trial.TrialID)
	s.notifySummaries()
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
