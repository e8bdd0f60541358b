package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/cityhunt/internal/cityhunt"
)

// WinnerRequest declares a hunt winner. Force lets an admin finalize a hunt
// that has not reached COMPLETED status yet.
type WinnerRequest struct {
	TeamID string `json:"teamId"`
	Force  bool   `json:"force"`
}

func handleDeclareWinner(store Store, events *Events) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := userFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}
		if sess.Role != roleAdmin {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}

		var req WinnerRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.TeamID == "" {
			writeError(w, http.StatusBadRequest, "teamId is required")
			return
		}

		huntID := chi.URLParam(r, "huntID")
		hunt, err := store.GetHunt(r.Context(), huntID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "hunt not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if hunt.Status != cityhunt.HuntCompleted && !req.Force {
			writeError(w, http.StatusConflict, "hunt is not completed; pass force to override")
			return
		}

		updated, err := store.SetWinner(r.Context(), huntID, req.TeamID)
		switch {
		case errors.Is(err, ErrTeamNotAssigned):
			writeError(w, http.StatusConflict, ErrTeamNotAssigned.Error())
			return
		case errors.Is(err, ErrAlreadyFinalized):
			writeError(w, http.StatusConflict, ErrAlreadyFinalized.Error())
			return
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, "hunt not found")
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		events.Publish(r.Context(), req.TeamID, Event{
			Type:   "winner_declared",
			HuntID: huntID,
		})

		writeJSON(w, http.StatusOK, huntResponse(updated))
	}
}
