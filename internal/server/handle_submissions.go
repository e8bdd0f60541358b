package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/cityhunt/internal/cityhunt"
)

// SubmissionResponse is the wire form of a submission row.
type SubmissionResponse struct {
	ID            string     `json:"id"`
	ClueID        string     `json:"clueId"`
	StageNumber   int        `json:"stageNumber"`
	TeamID        string     `json:"teamId"`
	SubmittedBy   string     `json:"submittedBy"`
	ImageURL      string     `json:"imageUrl"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	LeaderNotes   string     `json:"leaderNotes,omitempty"`
	AdminFeedback string     `json:"adminFeedback,omitempty"`
	ReviewedBy    string     `json:"reviewedBy,omitempty"`
	ReviewedAt    *time.Time `json:"reviewedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func submissionResponse(s cityhunt.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:            s.ID,
		ClueID:        s.ClueID,
		StageNumber:   s.StageNumber,
		TeamID:        s.TeamID,
		SubmittedBy:   s.SubmittedBy,
		ImageURL:      s.ImageURL,
		Description:   s.Description,
		Status:        string(s.Status),
		LeaderNotes:   s.LeaderNotes,
		AdminFeedback: s.AdminFeedback,
		ReviewedBy:    s.ReviewedBy,
		ReviewedAt:    s.ReviewedAt,
		CreatedAt:     s.CreatedAt,
	}
}

func submissionResponses(subs []cityhunt.Submission) []SubmissionResponse {
	resp := []SubmissionResponse{}
	for _, s := range subs {
		resp = append(resp, submissionResponse(s))
	}
	return resp
}

// CreateSubmissionRequest is the body for POST /api/clues/{clueID}/submissions.
type CreateSubmissionRequest struct {
	TeamID      string `json:"teamId"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

func handleCreateSubmission(store Store, events *Events) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := userFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		var req CreateSubmissionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Description = strings.TrimSpace(req.Description)
		req.ImageURL = strings.TrimSpace(req.ImageURL)
		if req.TeamID == "" {
			writeError(w, http.StatusBadRequest, "teamId is required")
			return
		}
		if req.Description == "" || req.ImageURL == "" {
			writeError(w, http.StatusBadRequest, "description and imageUrl are required")
			return
		}

		team, err := store.GetTeam(r.Context(), req.TeamID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "team not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !team.HasMember(sess.UserID) {
			writeError(w, http.StatusForbidden, "not a member of this team")
			return
		}

		clue, err := store.GetClue(r.Context(), chi.URLParam(r, "clueID"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "clue not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		hunt, err := store.GetHunt(r.Context(), clue.HuntID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		assigned, err := store.TeamAssigned(r.Context(), hunt.ID, team.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !assigned {
			writeError(w, http.StatusForbidden, "team is not assigned to this hunt")
			return
		}

		if !cityhunt.Accessible(hunt, time.Now()) {
			writeError(w, http.StatusConflict, ErrHuntClosed.Error())
			return
		}

		if hunt.Sequential {
			subs, err := store.ListHuntSubmissions(r.Context(), hunt.ID, team.ID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if !cityhunt.StageUnlocked(clue.StageNumber, cityhunt.LatestByStage(subs)) {
				writeError(w, http.StatusConflict, ErrStageLocked.Error())
				return
			}

			active, err := store.CountActiveSubmissions(r.Context(), team.ID, clue.ID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if active > 0 {
				writeError(w, http.StatusConflict, ErrDuplicateActiveSubmission.Error())
				return
			}
		}

		sub, err := store.CreateSubmission(r.Context(), newSubmission{
			ClueID:      clue.ID,
			TeamID:      team.ID,
			SubmittedBy: sess.UserID,
			ImageURL:    req.ImageURL,
			Description: req.Description,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		events.Publish(r.Context(), team.ID, Event{
			Type:         "submission_created",
			HuntID:       hunt.ID,
			SubmissionID: sub.ID,
			StageNumber:  sub.StageNumber,
			Status:       string(sub.Status),
		})

		writeJSON(w, http.StatusCreated, submissionResponse(sub))
	}
}

func handleListSubmissions(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := userFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		teamID := chi.URLParam(r, "teamID")
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

		userID := ""
		if r.URL.Query().Get("mine") == "true" {
			userID = sess.UserID
		}

		subs, err := store.ListSubmissions(r.Context(), teamID, chi.URLParam(r, "clueID"), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, submissionResponses(subs))
	}
}
