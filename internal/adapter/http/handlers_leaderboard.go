package adapthttp

import (
	"net/http"

	"badam/internal/app"
)

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	limit := intQuery(r, "limit", app.DefaultLeaderboardLimit)
	entries, err := s.leaderboard.Top(r.Context(), limit)
	if err != nil {
		s.log.Error("leaderboard", "err", err)
		writeError(w, http.StatusInternalServerError, errInternal)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": entries})
}
