package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/cityhunt/internal/cityhunt"
)

// HuntResponse is the wire form of a hunt.
type HuntResponse struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	StartTime     time.Time  `json:"startTime"`
	EndTime       time.Time  `json:"endTime"`
	Sequential    bool       `json:"sequential"`
	WinningTeamID string     `json:"winningTeamId,omitempty"`
	Accessible    bool       `json:"accessible"`
	Clues         []ClueInfo `json:"clues,omitempty"`
}

type ClueInfo struct {
	ID          string `json:"id"`
	StageNumber int    `json:"stageNumber"`
	Description string `json:"description"`
}

func huntResponse(h cityhunt.Hunt) HuntResponse {
	resp := HuntResponse{
		ID:            h.ID,
		Title:         h.Title,
		Description:   h.Description,
		Status:        string(h.Status),
		StartTime:     h.StartTime,
		EndTime:       h.EndTime,
		Sequential:    h.Sequential,
		WinningTeamID: h.WinningTeamID,
		Accessible:    cityhunt.Accessible(h, time.Now()),
	}
	for _, c := range h.Clues {
		resp.Clues = append(resp.Clues, ClueInfo{
			ID:          c.ID,
			StageNumber: c.StageNumber,
			Description: c.Description,
		})
	}
	return resp
}

func handleListAssignedHunts(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := userFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		teamID := r.URL.Query().Get("teamId")
		if teamID == "" {
			writeError(w, http.StatusBadRequest, "teamId query parameter required")
			return
		}

		team, err := store.GetTeam(r.Context(), teamID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "team not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !team.HasMember(sess.UserID) && sess.Role != roleAdmin {
			writeError(w, http.StatusForbidden, "not a member of this team")
			return
		}

		hunts, err := store.ListAssignedHunts(r.Context(), teamID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp := []HuntResponse{}
		for _, h := range hunts {
			resp = append(resp, huntResponse(h))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleGetHunt(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := userFromRequest(r, store); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		hunt, err := store.GetHunt(r.Context(), chi.URLParam(r, "huntID"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "hunt not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, huntResponse(hunt))
	}
}

var validHuntStatuses = map[cityhunt.HuntStatus]bool{
	cityhunt.HuntUpcoming:   true,
	cityhunt.HuntActive:     true,
	cityhunt.HuntInProgress: true,
	cityhunt.HuntCompleted:  true,
}

// HuntStatusRequest is the admin force-open/close body.
type HuntStatusRequest struct {
	Status string `json:"status"`
}

func handleUpdateHuntStatus(store Store) http.HandlerFunc {
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

		var req HuntStatusRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		status := cityhunt.HuntStatus(req.Status)
		if !validHuntStatuses[status] {
			writeError(w, http.StatusBadRequest, "status must be UPCOMING, ACTIVE, IN_PROGRESS, or COMPLETED")
			return
		}

		hunt, err := store.UpdateHuntStatus(r.Context(), chi.URLParam(r, "huntID"), status)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "hunt not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, huntResponse(hunt))
	}
}
