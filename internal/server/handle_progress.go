package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/cityhunt/internal/cityhunt"
)

// ProgressResponse is the read-only projection a polling client consumes.
type ProgressResponse struct {
	HuntID          string                `json:"huntId"`
	TeamID          string                `json:"teamId"`
	TotalStages     int                   `json:"totalStages"`
	CompletedStages int                   `json:"completedStages"`
	PendingStages   int                   `json:"pendingStages"`
	RejectedStages  int                   `json:"rejectedStages"`
	CurrentStage    *int                  `json:"currentStage"`
	InFlight        bool                  `json:"inFlight"`
	Stages          []cityhunt.StageState `json:"stages"`
	Submissions     []SubmissionResponse  `json:"submissions"`
}

func handleProgress(store Store) http.HandlerFunc {
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

		hunt, err := store.GetHunt(r.Context(), chi.URLParam(r, "huntID"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "hunt not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		subs, err := store.ListHuntSubmissions(r.Context(), hunt.ID, teamID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		p := cityhunt.BuildProgress(hunt, subs)
		writeJSON(w, http.StatusOK, ProgressResponse{
			HuntID:          hunt.ID,
			TeamID:          teamID,
			TotalStages:     p.TotalStages,
			CompletedStages: p.CompletedStages,
			PendingStages:   p.PendingStages,
			RejectedStages:  p.RejectedStages,
			CurrentStage:    p.CurrentStage,
			InFlight:        p.InFlight(),
			Stages:          p.Stages,
			Submissions:     submissionResponses(subs),
		})
	}
}
