package adapthttp

import (
	"errors"
	"net/http"

	"badam/internal/app"
)

func (s *Server) handleBadam(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleBadamGet(w, r)
	case http.MethodPost:
		s.handleBadamAction(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleBadamGet(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r)

	count, err := s.counter.Get(r.Context(), account.ID)
	if err != nil {
		s.log.Error("get count", "err", err)
		writeError(w, http.StatusInternalServerError, errInternal)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"count": count})
}

// handleBadamAction is the legacy server-side increment/decrement path. The
// sync endpoint is the authoritative write path; this one routes through the
// same get/set pair so last-write-wins applies uniformly.
func (s *Server) handleBadamAction(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r)

	var req struct {
		Action string `json:"action"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	count, err := s.counter.Apply(r.Context(), account.ID, req.Action)
	if errors.Is(err, app.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, errors.New(`invalid action, use "increment" or "decrement"`))
		return
	}
	if err != nil {
		s.log.Error("apply action", "err", err)
		writeError(w, http.StatusInternalServerError, errInternal)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"count": count})
}

func (s *Server) handleBadamSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	account := accountFrom(r)

	var req struct {
		Count *int `json:"count"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Count == nil || *req.Count < 0 {
		writeError(w, http.StatusBadRequest, errors.New("invalid count value"))
		return
	}

	count, err := s.counter.Sync(r.Context(), account.ID, *req.Count)
	if err != nil {
		s.log.Error("sync count", "err", err)
		writeError(w, http.StatusInternalServerError, errInternal)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":   count,
		"message": "Count synced successfully",
	})
}
