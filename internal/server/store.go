package server

import (
	"context"
	"errors"

	"github.com/playperu/cityhunt/internal/cityhunt"
)

var (
	ErrNotFound                  = errors.New("not found")
	ErrHuntClosed                = errors.New("hunt is not open for submissions")
	ErrStageLocked               = errors.New("stage is locked")
	ErrDuplicateActiveSubmission = errors.New("an active submission already exists for this stage")
	ErrInvalidTransition         = errors.New("submission is not in the required state")
	ErrAlreadyFinalized          = errors.New("hunt winner already declared")
	ErrTeamNotAssigned           = errors.New("team is not assigned to this hunt")

	errNoSession = errors.New("no valid session")
	// errStale signals a lost compare-and-set race; callers re-read and
	// decide between idempotent no-op and ErrInvalidTransition.
	errStale = errors.New("stale status")
)

type userSession struct {
	UserID string
	Name   string
	Role   string
}

type newSubmission struct {
	ClueID      string
	TeamID      string
	SubmittedBy string
	ImageURL    string
	Description string
}

type Store interface {
	UserFromToken(ctx context.Context, token string) (userSession, error)
	UserByEmail(ctx context.Context, email string) (id, passwordHash, name, role string, err error)
	CreateSession(ctx context.Context, userID string) (token string, err error)
	DeleteSession(ctx context.Context, token string) error

	GetTeam(ctx context.Context, teamID string) (cityhunt.Team, error)
	GetHunt(ctx context.Context, huntID string) (cityhunt.Hunt, error)
	ListAssignedHunts(ctx context.Context, teamID string) ([]cityhunt.Hunt, error)
	TeamAssigned(ctx context.Context, huntID, teamID string) (bool, error)
	UpdateHuntStatus(ctx context.Context, huntID string, status cityhunt.HuntStatus) (cityhunt.Hunt, error)
	SetWinner(ctx context.Context, huntID, teamID string) (cityhunt.Hunt, error)

	GetClue(ctx context.Context, clueID string) (cityhunt.Clue, error)
	CreateSubmission(ctx context.Context, sub newSubmission) (cityhunt.Submission, error)
	GetSubmission(ctx context.Context, id string) (cityhunt.Submission, error)
	ListSubmissions(ctx context.Context, teamID, clueID, userID string) ([]cityhunt.Submission, error)
	ListHuntSubmissions(ctx context.Context, huntID, teamID string) ([]cityhunt.Submission, error)
	CountActiveSubmissions(ctx context.Context, teamID, clueID string) (int, error)
	TransitionSubmission(ctx context.Context, id string, from, to cityhunt.SubmissionStatus, reviewerID, notes string) (cityhunt.Submission, error)
}
