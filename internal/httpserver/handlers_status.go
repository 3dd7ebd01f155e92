package httpserver

import "net/http"

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"summaries": s.cur.ToSummaries()})
}

// handleStatusStream upgrades to a websocket and streams curriculum
// summaries until the client disconnects.
func (s *Server) handleStatusStream(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "status stream disabled"})
		return
	}
	s.hub.ServeStream(w, r)
}
