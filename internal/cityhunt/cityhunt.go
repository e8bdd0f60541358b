// Package cityhunt defines the core domain types and the review state
// machine. It has zero external dependencies — everything here is pure Go.
package cityhunt

import "time"

type HuntStatus string

const (
	HuntUpcoming   HuntStatus = "UPCOMING"
	HuntActive     HuntStatus = "ACTIVE"
	HuntInProgress HuntStatus = "IN_PROGRESS" // legacy synonym for ACTIVE
	HuntCompleted  HuntStatus = "COMPLETED"
)

type Hunt struct {
	ID            string
	Title         string
	Description   string
	Status        HuntStatus
	StartTime     time.Time
	EndTime       time.Time
	Sequential    bool
	WinningTeamID string // empty until finalized, then immutable
	Clues         []Clue
}

type Clue struct {
	ID          string
	HuntID      string
	StageNumber int // 1-based, contiguous within a hunt
	Description string
}

type Team struct {
	ID           string
	Name         string
	LeaderUserID string
	MemberIDs    []string
}

func (t Team) HasMember(userID string) bool {
	if userID == t.LeaderUserID {
		return true
	}
	for _, id := range t.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

type SubmissionStatus string

const (
	StatusPending          SubmissionStatus = "PENDING"
	StatusApprovedByLeader SubmissionStatus = "APPROVED_BY_LEADER"
	StatusRejectedByLeader SubmissionStatus = "REJECTED_BY_LEADER"
	StatusSentToAdmin      SubmissionStatus = "SENT_TO_ADMIN"
	StatusApproved         SubmissionStatus = "APPROVED"
	StatusRejected         SubmissionStatus = "REJECTED"
)

// Terminal reports whether no further transitions are possible.
func (s SubmissionStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Rejected reports whether the submission ended a review round negatively.
// A rejected submission may be superseded by a brand-new resubmission row.
func (s SubmissionStatus) Rejected() bool {
	return s == StatusRejected || s == StatusRejectedByLeader
}

// InFlight reports whether the submission still awaits someone's action.
// Clients keep polling while any submission is in flight.
func (s SubmissionStatus) InFlight() bool {
	switch s {
	case StatusPending, StatusApprovedByLeader, StatusSentToAdmin:
		return true
	}
	return false
}

// Submission is one member-authored candidate answer for a clue. Rows are
// append-only: review actions set status/notes, resubmission inserts a new row.
type Submission struct {
	ID            string
	ClueID        string
	StageNumber   int
	TeamID        string
	SubmittedBy   string
	ImageURL      string
	Description   string
	Status        SubmissionStatus
	LeaderNotes   string
	AdminFeedback string
	ReviewedBy    string
	ReviewedAt    *time.Time
	CreatedAt     time.Time
}

// transitions is the review pipeline:
//
//	PENDING -> APPROVED_BY_LEADER | REJECTED_BY_LEADER
//	APPROVED_BY_LEADER -> SENT_TO_ADMIN
//	SENT_TO_ADMIN -> APPROVED | REJECTED
var transitions = map[SubmissionStatus][]SubmissionStatus{
	StatusPending:          {StatusApprovedByLeader, StatusRejectedByLeader},
	StatusApprovedByLeader: {StatusSentToAdmin},
	StatusSentToAdmin:      {StatusApproved, StatusRejected},
}

// CanTransition reports whether from -> to is a legal pipeline step.
func CanTransition(from, to SubmissionStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Accessible reports whether a hunt currently accepts submissions. The status
// check and the time window are both required; end time is exclusive. Admins
// force-close a hunt by setting its status, which overrides the window.
func Accessible(h Hunt, now time.Time) bool {
	if h.Status != HuntActive && h.Status != HuntInProgress {
		return false
	}
	return !now.Before(h.StartTime) && now.Before(h.EndTime)
}

// LatestByStage picks the most recent submission per stage number. The input
// must be ordered by creation time ascending, which the store guarantees.
func LatestByStage(subs []Submission) map[int]Submission {
	latest := make(map[int]Submission, len(subs))
	for _, s := range subs {
		latest[s.StageNumber] = s
	}
	return latest
}

// StageUnlocked reports whether a team may submit for the given stage in a
// sequential hunt. Stage 1 is always open; stage N needs the latest
// submission for stage N-1 to be APPROVED. A rejection at N-1 does not
// unlock N — the team must resubmit and be approved first.
func StageUnlocked(stageNumber int, latest map[int]Submission) bool {
	if stageNumber <= 1 {
		return true
	}
	prev, ok := latest[stageNumber-1]
	return ok && prev.Status == StatusApproved
}

// StageState is one row of the progress projection.
type StageState struct {
	StageNumber int              `json:"stageNumber"`
	ClueID      string           `json:"clueId"`
	Description string           `json:"description"`
	Status      SubmissionStatus `json:"status,omitempty"`
	Unlocked    bool             `json:"unlocked"`
}

// Progress is the read-only aggregate a polling client consumes.
type Progress struct {
	TotalStages     int          `json:"totalStages"`
	CompletedStages int          `json:"completedStages"`
	PendingStages   int          `json:"pendingStages"`
	RejectedStages  int          `json:"rejectedStages"`
	CurrentStage    *int         `json:"currentStage"`
	Stages          []StageState `json:"stages"`
	Submissions     []Submission `json:"-"`
}

// InFlight reports whether any submission still awaits review, i.e. whether a
// polling client should keep refreshing.
func (p Progress) InFlight() bool {
	for _, s := range p.Submissions {
		if s.Status.InFlight() {
			return true
		}
	}
	return false
}

// BuildProgress folds a team's submission history into the per-stage summary.
// A single ordered pass: the latest submission per stage decides that stage's
// state, so a resubmission supersedes an earlier rejection.
func BuildProgress(h Hunt, subs []Submission) Progress {
	latest := LatestByStage(subs)

	p := Progress{
		TotalStages: len(h.Clues),
		Stages:      make([]StageState, 0, len(h.Clues)),
		Submissions: subs,
	}

	for _, c := range h.Clues {
		st := StageState{
			StageNumber: c.StageNumber,
			ClueID:      c.ID,
			Description: c.Description,
			Unlocked:    !h.Sequential || StageUnlocked(c.StageNumber, latest),
		}
		if s, ok := latest[c.StageNumber]; ok {
			st.Status = s.Status
			switch {
			case s.Status == StatusApproved:
				p.CompletedStages++
			case s.Status.InFlight():
				p.PendingStages++
			case s.Status.Rejected():
				p.RejectedStages++
			}
		}
		if st.Status != StatusApproved && p.CurrentStage == nil {
			n := c.StageNumber
			p.CurrentStage = &n
		}
		p.Stages = append(p.Stages, st)
	}
	return p
}
