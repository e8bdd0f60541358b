package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/cityhunt/internal/cityhunt"
)

// ReviewRequest carries the reviewer's reason. Notes are mandatory on
// rejection, optional on approval.
type ReviewRequest struct {
	Notes    string `json:"notes"`
	Feedback string `json:"feedback"`
}

// ForwardRequest selects the leader-approved submissions to send to the
// admins, tagged with one shared note.
type ForwardRequest struct {
	SubmissionIDs []string `json:"submissionIds"`
	Notes         string   `json:"notes"`
}

// leaderReview applies a PENDING -> target transition after verifying the
// caller leads the submission's team. Check order per the pipeline contract:
// authorization, then state, then notes content.
func leaderReview(store Store, events *Events, target cityhunt.SubmissionStatus, notesRequired bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := userFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		var req ReviewRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Notes = strings.TrimSpace(req.Notes)

		sub, err := store.GetSubmission(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "submission not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		team, err := store.GetTeam(r.Context(), sub.TeamID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if sess.UserID != team.LeaderUserID {
			writeError(w, http.StatusForbidden, "only the team leader can review submissions")
			return
		}

		// Client retry of an already-applied action is a no-op success.
		if sub.Status == target {
			writeJSON(w, http.StatusOK, submissionResponse(sub))
			return
		}
		if !cityhunt.CanTransition(sub.Status, target) {
			writeError(w, http.StatusConflict, ErrInvalidTransition.Error())
			return
		}
		if notesRequired && req.Notes == "" {
			writeError(w, http.StatusBadRequest, "notes are required when rejecting")
			return
		}

		updated, err := store.TransitionSubmission(r.Context(), sub.ID, sub.Status, target, sess.UserID, req.Notes)
		if errors.Is(err, ErrInvalidTransition) {
			writeError(w, http.StatusConflict, ErrInvalidTransition.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		events.Publish(r.Context(), sub.TeamID, Event{
			Type:         "submission_reviewed",
			SubmissionID: updated.ID,
			StageNumber:  updated.StageNumber,
			Status:       string(updated.Status),
		})

		writeJSON(w, http.StatusOK, submissionResponse(updated))
	}
}

func handleLeaderApprove(store Store, events *Events) http.HandlerFunc {
	return leaderReview(store, events, cityhunt.StatusApprovedByLeader, false)
}

func handleLeaderReject(store Store, events *Events) http.HandlerFunc {
	return leaderReview(store, events, cityhunt.StatusRejectedByLeader, true)
}

func handleForwardToAdmin(store Store, events *Events) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := userFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		var req ForwardRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if len(req.SubmissionIDs) == 0 {
			writeError(w, http.StatusBadRequest, "submissionIds is required")
			return
		}
		req.Notes = strings.TrimSpace(req.Notes)

		teamID := chi.URLParam(r, "teamID")
		clueID := chi.URLParam(r, "clueID")

		team, err := store.GetTeam(r.Context(), teamID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "team not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if sess.UserID != team.LeaderUserID {
			writeError(w, http.StatusForbidden, "only the team leader can forward submissions")
			return
		}

		forwarded := []SubmissionResponse{}
		for _, id := range req.SubmissionIDs {
			sub, err := store.GetSubmission(r.Context(), id)
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "submission not found: "+id)
				return
			}
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if sub.TeamID != teamID || sub.ClueID != clueID {
				writeError(w, http.StatusBadRequest, "submission does not belong to this team and clue")
				return
			}

			// Forwarding an already-forwarded submission is a no-op.
			if sub.Status == cityhunt.StatusSentToAdmin {
				forwarded = append(forwarded, submissionResponse(sub))
				continue
			}
			if !cityhunt.CanTransition(sub.Status, cityhunt.StatusSentToAdmin) {
				writeError(w, http.StatusConflict, ErrInvalidTransition.Error())
				return
			}

			updated, err := store.TransitionSubmission(r.Context(), sub.ID, sub.Status,
				cityhunt.StatusSentToAdmin, sess.UserID, req.Notes)
			if errors.Is(err, ErrInvalidTransition) {
				writeError(w, http.StatusConflict, ErrInvalidTransition.Error())
				return
			}
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			forwarded = append(forwarded, submissionResponse(updated))
		}

		events.Publish(r.Context(), teamID, Event{
			Type:   "submissions_forwarded",
			Status: string(cityhunt.StatusSentToAdmin),
		})

		writeJSON(w, http.StatusOK, forwarded)
	}
}

// adminReview applies a SENT_TO_ADMIN -> terminal transition. Same check
// order as leaderReview, gated on the admin role instead of team leadership.
func adminReview(store Store, events *Events, target cityhunt.SubmissionStatus, feedbackRequired bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := userFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		var req ReviewRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Feedback = strings.TrimSpace(req.Feedback)

		if sess.Role != roleAdmin {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}

		sub, err := store.GetSubmission(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "submission not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if sub.Status == target {
			writeJSON(w, http.StatusOK, submissionResponse(sub))
			return
		}
		if !cityhunt.CanTransition(sub.Status, target) {
			writeError(w, http.StatusConflict, ErrInvalidTransition.Error())
			return
		}
		if feedbackRequired && req.Feedback == "" {
			writeError(w, http.StatusBadRequest, "feedback is required when rejecting")
			return
		}

		updated, err := store.TransitionSubmission(r.Context(), sub.ID, sub.Status, target, sess.UserID, req.Feedback)
		if errors.Is(err, ErrInvalidTransition) {
			writeError(w, http.StatusConflict, ErrInvalidTransition.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		events.Publish(r.Context(), sub.TeamID, Event{
			Type:         "submission_decided",
			SubmissionID: updated.ID,
			StageNumber:  updated.StageNumber,
			Status:       string(updated.Status),
		})

		writeJSON(w, http.StatusOK, submissionResponse(updated))
	}
}

func handleAdminApprove(store Store, events *Events) http.HandlerFunc {
	return adminReview(store, events, cityhunt.StatusApproved, false)
}

func handleAdminReject(store Store, events *Events) http.HandlerFunc {
	return adminReview(store, events, cityhunt.StatusRejected, true)
}
