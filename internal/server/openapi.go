package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "CityHunt API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for photo treasure hunt review workflows.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/login")
	postLogin.SetSummary("Log in")
	postLogin.SetDescription("Authenticate with email and password. Returns a bearer token.")
	postLogin.AddReqStructure(LoginRequest{})
	postLogin.AddRespStructure(LoginResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// GET /api/hunts/assigned
	getAssigned, _ := r.NewOperationContext(http.MethodGet, "/api/hunts/assigned")
	getAssigned.SetSummary("List assigned hunts")
	getAssigned.SetDescription("Hunts the given team is assigned to. Requires Bearer token.")
	getAssigned.AddRespStructure([]HuntResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getAssigned.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(getAssigned)

	// GET /api/hunts/{huntID}
	getHunt, _ := r.NewOperationContext(http.MethodGet, "/api/hunts/{huntID}")
	getHunt.SetSummary("Get hunt")
	getHunt.SetDescription("Returns a hunt with its ordered clues. Requires Bearer token.")
	getHunt.AddRespStructure(HuntResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHunt.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getHunt)

	// GET /api/hunts/{huntID}/progress
	getProgress, _ := r.NewOperationContext(http.MethodGet, "/api/hunts/{huntID}/progress")
	getProgress.SetSummary("Team progress")
	getProgress.SetDescription("Per-stage review status for a team, polled by clients while submissions are in flight.")
	getProgress.AddRespStructure(ProgressResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getProgress.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(getProgress)

	// POST /api/clues/{clueID}/submissions
	postSubmission, _ := r.NewOperationContext(http.MethodPost, "/api/clues/{clueID}/submissions")
	postSubmission.SetSummary("Submit photo evidence")
	postSubmission.SetDescription("Creates a PENDING submission for a clue. Fails while the hunt is closed, the stage is locked, or an active submission already exists.")
	postSubmission.AddReqStructure(CreateSubmissionRequest{})
	postSubmission.AddRespStructure(SubmissionResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postSubmission.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postSubmission.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	postSubmission.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postSubmission)

	// GET /api/teams/{teamID}/clues/{clueID}/submissions
	listSubs, _ := r.NewOperationContext(http.MethodGet, "/api/teams/{teamID}/clues/{clueID}/submissions")
	listSubs.SetSummary("List submissions")
	listSubs.SetDescription("All submissions for a team and clue, oldest first. Pass mine=true to filter to the caller's own.")
	listSubs.AddRespStructure([]SubmissionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	listSubs.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(listSubs)

	// POST /api/submissions/{id}/leader-approve
	leaderApprove, _ := r.NewOperationContext(http.MethodPost, "/api/submissions/{id}/leader-approve")
	leaderApprove.SetSummary("Leader approve")
	leaderApprove.SetDescription("Team leader approves a PENDING submission. Notes optional.")
	leaderApprove.AddReqStructure(ReviewRequest{})
	leaderApprove.AddRespStructure(SubmissionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	leaderApprove.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	leaderApprove.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(leaderApprove)

	// POST /api/submissions/{id}/leader-reject
	leaderReject, _ := r.NewOperationContext(http.MethodPost, "/api/submissions/{id}/leader-reject")
	leaderReject.SetSummary("Leader reject")
	leaderReject.SetDescription("Team leader rejects a PENDING submission. Notes mandatory.")
	leaderReject.AddReqStructure(ReviewRequest{})
	leaderReject.AddRespStructure(SubmissionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	leaderReject.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	leaderReject.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	leaderReject.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(leaderReject)

	// POST /api/teams/{teamID}/clues/{clueID}/forward-to-admin
	forward, _ := r.NewOperationContext(http.MethodPost, "/api/teams/{teamID}/clues/{clueID}/forward-to-admin")
	forward.SetSummary("Forward to admin")
	forward.SetDescription("Leader sends selected approved submissions to admin review with one shared note. Already-forwarded ids are no-ops.")
	forward.AddReqStructure(ForwardRequest{})
	forward.AddRespStructure([]SubmissionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	forward.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	forward.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(forward)

	// POST /api/submissions/{id}/admin-approve
	adminApprove, _ := r.NewOperationContext(http.MethodPost, "/api/submissions/{id}/admin-approve")
	adminApprove.SetSummary("Admin approve")
	adminApprove.SetDescription("Admin approves a forwarded submission. Terminal. Feedback optional.")
	adminApprove.AddReqStructure(ReviewRequest{})
	adminApprove.AddRespStructure(SubmissionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	adminApprove.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	adminApprove.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(adminApprove)

	// POST /api/submissions/{id}/admin-reject
	adminReject, _ := r.NewOperationContext(http.MethodPost, "/api/submissions/{id}/admin-reject")
	adminReject.SetSummary("Admin reject")
	adminReject.SetDescription("Admin rejects a forwarded submission. Terminal. Feedback mandatory.")
	adminReject.AddReqStructure(ReviewRequest{})
	adminReject.AddRespStructure(SubmissionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	adminReject.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	adminReject.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	adminReject.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(adminReject)

	// POST /api/hunts/{huntID}/winner
	postWinner, _ := r.NewOperationContext(http.MethodPost, "/api/hunts/{huntID}/winner")
	postWinner.SetSummary("Declare winner")
	postWinner.SetDescription("Admin declares the winning team, at most once per hunt.")
	postWinner.AddReqStructure(WinnerRequest{})
	postWinner.AddRespStructure(HuntResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postWinner.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	postWinner.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postWinner)

	// POST /api/images
	postImage, _ := r.NewOperationContext(http.MethodPost, "/api/images")
	postImage.SetSummary("Upload image")
	postImage.SetDescription("Stores a raw image payload and returns its durable URL.")
	postImage.AddRespStructure(UploadImageResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postImage.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postImage)

	// GET /api/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream of review transitions for a team. Pass token and teamId as query parameters.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// POST /api/admin/hunts/{huntID}/status
	postStatus, _ := r.NewOperationContext(http.MethodPost, "/api/admin/hunts/{huntID}/status")
	postStatus.SetSummary("Force hunt status")
	postStatus.SetDescription("Admin force-opens or force-closes a hunt regardless of its time window.")
	postStatus.AddReqStructure(HuntStatusRequest{})
	postStatus.AddRespStructure(HuntResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postStatus.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(postStatus)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
