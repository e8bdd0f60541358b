package server

import (
	"net/http"
	"testing"

	"github.com/playperu/cityhunt/internal/cityhunt"
)

func forwardBody(ids ...string) ForwardRequest {
	return ForwardRequest{SubmissionIDs: ids, Notes: "best of the batch"}
}

func TestReviewHappyPath(t *testing.T) {
	r, _ := setupServer(t)
	member := login(t, r, "marco@cityhunt.dev")
	leader := login(t, r, "lena@cityhunt.dev")
	admin := login(t, r, "admin@cityhunt.dev")
	clues := getClues(t, r, member, DemoHuntID)

	sub := submit(t, r, member, clues[1].ID)

	// Leader approves without notes.
	w := doJSON(t, r, http.MethodPost, "/api/submissions/"+sub.ID+"/leader-approve", leader, ReviewRequest{})
	if w.Code != http.StatusOK {
		t.Fatalf("leader approve: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := decode[SubmissionResponse](t, w); got.Status != string(cityhunt.StatusApprovedByLeader) {
		t.Fatalf("status = %s, want APPROVED_BY_LEADER", got.Status)
	}

	// Leader forwards the selected submission.
	w = doJSON(t, r, http.MethodPost,
		"/api/teams/"+DemoTeamID+"/clues/"+clues[1].ID+"/forward-to-admin", leader, forwardBody(sub.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("forward: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	forwarded := decode[[]SubmissionResponse](t, w)
	if len(forwarded) != 1 || forwarded[0].Status != string(cityhunt.StatusSentToAdmin) {
		t.Fatalf("forwarded = %+v, want one SENT_TO_ADMIN row", forwarded)
	}

	// Admin approves with feedback.
	w = doJSON(t, r, http.MethodPost, "/api/submissions/"+sub.ID+"/admin-approve", admin,
		ReviewRequest{Feedback: "Great shot"})
	if w.Code != http.StatusOK {
		t.Fatalf("admin approve: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	final := decode[SubmissionResponse](t, w)
	if final.Status != string(cityhunt.StatusApproved) {
		t.Fatalf("status = %s, want APPROVED", final.Status)
	}
	if final.AdminFeedback != "Great shot" {
		t.Errorf("adminFeedback = %q, want %q", final.AdminFeedback, "Great shot")
	}

	// Progress reflects the completed stage.
	w = doJSON(t, r, http.MethodGet, "/api/hunts/"+DemoHuntID+"/progress?teamId="+DemoTeamID, member, nil)
	p := decode[ProgressResponse](t, w)
	if p.CompletedStages != 1 {
		t.Errorf("completedStages = %d, want 1", p.CompletedStages)
	}
	if p.CurrentStage == nil || *p.CurrentStage != 2 {
		t.Errorf("currentStage = %v, want 2", p.CurrentStage)
	}
}

func TestLeaderRejectAndResubmit(t *testing.T) {
	r, _ := setupServer(t)
	member := login(t, r, "marco@cityhunt.dev")
	leader := login(t, r, "lena@cityhunt.dev")
	clues := getClues(t, r, member, DemoHuntID)

	first := submit(t, r, member, clues[1].ID)

	w := doJSON(t, r, http.MethodPost, "/api/submissions/"+first.ID+"/leader-reject", leader,
		ReviewRequest{Notes: "blurry"})
	if w.Code != http.StatusOK {
		t.Fatalf("leader reject: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	rejected := decode[SubmissionResponse](t, w)
	if rejected.Status != string(cityhunt.StatusRejectedByLeader) {
		t.Fatalf("status = %s, want REJECTED_BY_LEADER", rejected.Status)
	}
	if rejected.LeaderNotes != "blurry" {
		t.Errorf("leaderNotes = %q, want %q", rejected.LeaderNotes, "blurry")
	}

	// Resubmission is a brand-new row; the rejected one stays for the audit trail.
	second := submit(t, r, member, clues[1].ID)
	if second.ID == first.ID {
		t.Fatal("resubmission reused the rejected row")
	}

	w = doJSON(t, r, http.MethodGet,
		"/api/teams/"+DemoTeamID+"/clues/"+clues[1].ID+"/submissions", member, nil)
	subs := decode[[]SubmissionResponse](t, w)
	if len(subs) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(subs))
	}
	if subs[0].Status != string(cityhunt.StatusRejectedByLeader) || subs[1].Status != string(cityhunt.StatusPending) {
		t.Errorf("statuses = %s, %s; want REJECTED_BY_LEADER then PENDING", subs[0].Status, subs[1].Status)
	}

	// The resubmission supersedes the rejection in the projection.
	w = doJSON(t, r, http.MethodGet, "/api/hunts/"+DemoHuntID+"/progress?teamId="+DemoTeamID, member, nil)
	p := decode[ProgressResponse](t, w)
	if p.RejectedStages != 0 {
		t.Errorf("rejectedStages = %d, want 0 (superseded)", p.RejectedStages)
	}
	if p.PendingStages != 1 {
		t.Errorf("pendingStages = %d, want 1", p.PendingStages)
	}
}

func TestReviewAuthorization(t *testing.T) {
	r, _ := setupServer(t)
	member := login(t, r, "marco@cityhunt.dev")
	leader := login(t, r, "lena@cityhunt.dev")
	admin := login(t, r, "admin@cityhunt.dev")
	rival := login(t, r, "rudi@cityhunt.dev")
	clues := getClues(t, r, member, DemoHuntID)

	sub := submit(t, r, member, clues[1].ID)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
	}{
		{"member cannot leader-approve", http.MethodPost, "/api/submissions/" + sub.ID + "/leader-approve", member, ReviewRequest{}},
		{"rival leader cannot leader-approve", http.MethodPost, "/api/submissions/" + sub.ID + "/leader-approve", rival, ReviewRequest{}},
		{"admin is not the team leader", http.MethodPost, "/api/submissions/" + sub.ID + "/leader-approve", admin, ReviewRequest{}},
		{"leader cannot admin-approve", http.MethodPost, "/api/submissions/" + sub.ID + "/admin-approve", leader, ReviewRequest{}},
		{"member cannot admin-reject", http.MethodPost, "/api/submissions/" + sub.ID + "/admin-reject", member, ReviewRequest{Feedback: "no"}},
		{"member cannot forward", http.MethodPost, "/api/teams/" + DemoTeamID + "/clues/" + clues[1].ID + "/forward-to-admin", member, forwardBody(sub.ID)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, tt.method, tt.path, tt.token, tt.body)
			if w.Code != http.StatusForbidden {
				t.Errorf("expected 403, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestRejectionRequiresReason(t *testing.T) {
	r, _ := setupServer(t)
	member := login(t, r, "marco@cityhunt.dev")
	leader := login(t, r, "lena@cityhunt.dev")
	admin := login(t, r, "admin@cityhunt.dev")
	clues := getClues(t, r, member, DemoHuntID)

	sub := submit(t, r, member, clues[1].ID)

	w := doJSON(t, r, http.MethodPost, "/api/submissions/"+sub.ID+"/leader-reject", leader,
		ReviewRequest{Notes: "   "})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("leader reject without notes: expected 400, got %d", w.Code)
	}

	// Move the submission to SENT_TO_ADMIN, then try an empty admin rejection.
	doJSON(t, r, http.MethodPost, "/api/submissions/"+sub.ID+"/leader-approve", leader, ReviewRequest{})
	doJSON(t, r, http.MethodPost,
		"/api/teams/"+DemoTeamID+"/clues/"+clues[1].ID+"/forward-to-admin", leader, forwardBody(sub.ID))

	w = doJSON(t, r, http.MethodPost, "/api/submissions/"+sub.ID+"/admin-reject", admin, ReviewRequest{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("admin reject without feedback: expected 400, got %d", w.Code)
	}
}

func TestAdminApproveIdempotent(t *testing.T) {
	r, _ := setupServer(t)
	member := login(t, r, "marco@cityhunt.dev")
	leader := login(t, r, "lena@cityhunt.dev")
	admin := login(t, r, "admin@cityhunt.dev")
	clues := getClues(t, r, member, DemoHuntID)

	sub := submit(t, r, member, clues[1].ID)
	doJSON(t, r, http.MethodPost, "/api/submissions/"+sub.ID+"/leader-approve", leader, ReviewRequest{})
	doJSON(t, r, http.MethodPost,
		"/api/teams/"+DemoTeamID+"/clues/"+clues[1].ID+"/forward-to-admin", leader, forwardBody(sub.ID))

	for i := 0; i < 2; i++ {
		w := doJSON(t, r, http.MethodPost, "/api/submissions/"+sub.ID+"/admin-approve", admin, ReviewRequest{})
		if w.Code != http.StatusOK {
			t.Fatalf("admin approve call %d: expected 200, got %d: %s", i+1, w.Code, w.Body.String())
		}
		if got := decode[SubmissionResponse](t, w); got.Status != string(cityhunt.StatusApproved) {
			t.Fatalf("call %d: status = %s, want APPROVED", i+1, got.Status)
		}
	}
}

func TestForwardIdempotent(t *testing.T) {
	r, _ := setupServer(t)
	member := login(t, r, "marco@cityhunt.dev")
	leader := login(t, r, "lena@cityhunt.dev")
	clues := getClues(t, r, member, DemoHuntID)

	sub := submit(t, r, member, clues[1].ID)
	doJSON(t, r, http.MethodPost, "/api/submissions/"+sub.ID+"/leader-approve", leader, ReviewRequest{})

	for i := 0; i < 2; i++ {
		w := doJSON(t, r, http.MethodPost,
			"/api/teams/"+DemoTeamID+"/clues/"+clues[1].ID+"/forward-to-admin", leader, forwardBody(sub.ID))
		if w.Code != http.StatusOK {
			t.Fatalf("forward call %d: expected 200, got %d: %s", i+1, w.Code, w.Body.String())
		}
	}
}

func TestInvalidTransitions(t *testing.T) {
	r, _ := setupServer(t)
	member := login(t, r, "marco@cityhunt.dev")
	leader := login(t, r, "lena@cityhunt.dev")
	admin := login(t, r, "admin@cityhunt.dev")
	clues := getClues(t, r, member, DemoHuntID)

	sub := submit(t, r, member, clues[1].ID)

	// Admin cannot decide a submission that was never forwarded.
	w := doJSON(t, r, http.MethodPost, "/api/submissions/"+sub.ID+"/admin-approve", admin, ReviewRequest{})
	if w.Code != http.StatusConflict {
		t.Fatalf("admin approve on PENDING: expected 409, got %d", w.Code)
	}

	// A rejected submission is terminal for the leader; only a new row revives the stage.
	doJSON(t, r, http.MethodPost, "/api/submissions/"+sub.ID+"/leader-reject", leader, ReviewRequest{Notes: "dark"})
	w = doJSON(t, r, http.MethodPost, "/api/submissions/"+sub.ID+"/leader-approve", leader, ReviewRequest{})
	if w.Code != http.StatusConflict {
		t.Fatalf("leader approve after reject: expected 409, got %d", w.Code)
	}
}

func TestSequentialUnlockAfterApproval(t *testing.T) {
	r, _ := setupServer(t)
	member := login(t, r, "marco@cityhunt.dev")
	leader := login(t, r, "lena@cityhunt.dev")
	admin := login(t, r, "admin@cityhunt.dev")
	clues := getClues(t, r, member, DemoHuntID)

	sub := submit(t, r, member, clues[1].ID)
	doJSON(t, r, http.MethodPost, "/api/submissions/"+sub.ID+"/leader-approve", leader, ReviewRequest{})
	doJSON(t, r, http.MethodPost,
		"/api/teams/"+DemoTeamID+"/clues/"+clues[1].ID+"/forward-to-admin", leader, forwardBody(sub.ID))

	// Leader approval alone does not unlock stage 2.
	w := doJSON(t, r, http.MethodPost, "/api/clues/"+clues[2].ID+"/submissions", member, CreateSubmissionRequest{
		TeamID: DemoTeamID, Description: "blue door", ImageURL: "http://x/door.jpg",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("stage 2 before admin approval: expected 409, got %d", w.Code)
	}

	doJSON(t, r, http.MethodPost, "/api/submissions/"+sub.ID+"/admin-approve", admin, ReviewRequest{})

	// Now stage 2 opens.
	second := submit(t, r, member, clues[2].ID)
	if second.StageNumber != 2 {
		t.Fatalf("stageNumber = %d, want 2", second.StageNumber)
	}
}
