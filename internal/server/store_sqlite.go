package server

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/playperu/cityhunt/internal/cityhunt"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func (s *SQLiteStore) UserFromToken(ctx context.Context, token string) (userSession, error) {
	var sess userSession
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.name, u.role
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = ?
	`, token).Scan(&sess.UserID, &sess.Name, &sess.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return sess, errNoSession
	}
	return sess, err
}

func (s *SQLiteStore) UserByEmail(ctx context.Context, email string) (string, string, string, string, error) {
	var id, hash, name, role string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, password_hash, name, role FROM users WHERE email = ?
	`, email).Scan(&id, &hash, &name, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", "", "", ErrNotFound
	}
	return id, hash, name, role, err
}

func (s *SQLiteStore) CreateSession(ctx context.Context, userID string) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO sessions (user_id)
		VALUES (?)
		RETURNING token
	`, userID).Scan(&token)
	return token, err
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	return err
}

func (s *SQLiteStore) GetTeam(ctx context.Context, teamID string) (cityhunt.Team, error) {
	var t cityhunt.Team
	var leader sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, leader_user_id FROM teams WHERE id = ?
	`, teamID).Scan(&t.ID, &t.Name, &leader)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	t.LeaderUserID = leader.String

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id FROM team_members WHERE team_id = ?
	`, teamID)
	if err != nil {
		return t, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return t, err
		}
		t.MemberIDs = append(t.MemberIDs, id)
	}
	return t, rows.Err()
}

func (s *SQLiteStore) scanHunt(row *sql.Row) (cityhunt.Hunt, error) {
	var h cityhunt.Hunt
	var start, end string
	var winner sql.NullString
	var sequential int
	err := row.Scan(&h.ID, &h.Title, &h.Description, &h.Status, &start, &end, &sequential, &winner)
	if errors.Is(err, sql.ErrNoRows) {
		return h, ErrNotFound
	}
	if err != nil {
		return h, err
	}
	h.StartTime = parseTime(start)
	h.EndTime = parseTime(end)
	h.Sequential = sequential != 0
	h.WinningTeamID = winner.String
	return h, nil
}

const huntColumns = `id, title, description, status, start_time, end_time, sequential, winning_team_id`

func (s *SQLiteStore) GetHunt(ctx context.Context, huntID string) (cityhunt.Hunt, error) {
	h, err := s.scanHunt(s.db.QueryRowContext(ctx,
		`SELECT `+huntColumns+` FROM hunts WHERE id = ?`, huntID))
	if err != nil {
		return h, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, hunt_id, stage_number, description
		FROM clues WHERE hunt_id = ? ORDER BY stage_number
	`, huntID)
	if err != nil {
		return h, err
	}
	defer rows.Close()

	for rows.Next() {
		var c cityhunt.Clue
		if err := rows.Scan(&c.ID, &c.HuntID, &c.StageNumber, &c.Description); err != nil {
			return h, err
		}
		h.Clues = append(h.Clues, c)
	}
	return h, rows.Err()
}

func (s *SQLiteStore) ListAssignedHunts(ctx context.Context, teamID string) ([]cityhunt.Hunt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT h.id, h.title, h.description, h.status, h.start_time, h.end_time, h.sequential, h.winning_team_id
		FROM hunts h
		JOIN hunt_teams ht ON ht.hunt_id = h.id
		WHERE ht.team_id = ?
		ORDER BY h.start_time
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hunts []cityhunt.Hunt
	for rows.Next() {
		var h cityhunt.Hunt
		var start, end string
		var winner sql.NullString
		var sequential int
		if err := rows.Scan(&h.ID, &h.Title, &h.Description, &h.Status, &start, &end, &sequential, &winner); err != nil {
			return nil, err
		}
		h.StartTime = parseTime(start)
		h.EndTime = parseTime(end)
		h.Sequential = sequential != 0
		h.WinningTeamID = winner.String
		hunts = append(hunts, h)
	}
	return hunts, rows.Err()
}

func (s *SQLiteStore) TeamAssigned(ctx context.Context, huntID, teamID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM hunt_teams WHERE hunt_id = ? AND team_id = ?
	`, huntID, teamID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *SQLiteStore) UpdateHuntStatus(ctx context.Context, huntID string, status cityhunt.HuntStatus) (cityhunt.Hunt, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE hunts SET status = ? WHERE id = ?
	`, status, huntID)
	if err != nil {
		return cityhunt.Hunt{}, err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return cityhunt.Hunt{}, ErrNotFound
	}
	return s.GetHunt(ctx, huntID)
}

// SetWinner is a compare-and-set on winning_team_id (NULL -> value) so that
// at most one winner is ever persisted under concurrent admin calls.
func (s *SQLiteStore) SetWinner(ctx context.Context, huntID, teamID string) (cityhunt.Hunt, error) {
	assigned, err := s.TeamAssigned(ctx, huntID, teamID)
	if err != nil {
		return cityhunt.Hunt{}, err
	}
	if !assigned {
		return cityhunt.Hunt{}, ErrTeamNotAssigned
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE hunts SET winning_team_id = ?
		WHERE id = ? AND winning_team_id IS NULL
	`, teamID, huntID)
	if err != nil {
		return cityhunt.Hunt{}, err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		h, err := s.GetHunt(ctx, huntID)
		if err != nil {
			return h, err
		}
		return h, ErrAlreadyFinalized
	}
	return s.GetHunt(ctx, huntID)
}

func (s *SQLiteStore) GetClue(ctx context.Context, clueID string) (cityhunt.Clue, error) {
	var c cityhunt.Clue
	err := s.db.QueryRowContext(ctx, `
		SELECT id, hunt_id, stage_number, description FROM clues WHERE id = ?
	`, clueID).Scan(&c.ID, &c.HuntID, &c.StageNumber, &c.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}

const submissionColumns = `
	s.id, s.clue_id, c.stage_number, s.team_id, s.submitted_by, s.image_url,
	s.description, s.status, COALESCE(s.leader_notes, ''),
	COALESCE(s.admin_feedback, ''), COALESCE(s.reviewed_by, ''),
	s.reviewed_at, s.created_at`

func scanSubmission(scan func(...any) error) (cityhunt.Submission, error) {
	var sub cityhunt.Submission
	var reviewedAt sql.NullString
	var createdAt string
	err := scan(&sub.ID, &sub.ClueID, &sub.StageNumber, &sub.TeamID, &sub.SubmittedBy,
		&sub.ImageURL, &sub.Description, &sub.Status, &sub.LeaderNotes,
		&sub.AdminFeedback, &sub.ReviewedBy, &reviewedAt, &createdAt)
	if err != nil {
		return sub, err
	}
	if reviewedAt.Valid {
		t := parseTime(reviewedAt.String)
		sub.ReviewedAt = &t
	}
	sub.CreatedAt = parseTime(createdAt)
	return sub, nil
}

func (s *SQLiteStore) CreateSubmission(ctx context.Context, n newSubmission) (cityhunt.Submission, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO submissions (clue_id, team_id, submitted_by, image_url, description)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`, n.ClueID, n.TeamID, n.SubmittedBy, n.ImageURL, n.Description).Scan(&id)
	if err != nil {
		return cityhunt.Submission{}, err
	}
	return s.GetSubmission(ctx, id)
}

func (s *SQLiteStore) GetSubmission(ctx context.Context, id string) (cityhunt.Submission, error) {
	sub, err := scanSubmission(s.db.QueryRowContext(ctx, `
		SELECT `+submissionColumns+`
		FROM submissions s
		JOIN clues c ON c.id = s.clue_id
		WHERE s.id = ?
	`, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return sub, ErrNotFound
	}
	return sub, err
}

func (s *SQLiteStore) ListSubmissions(ctx context.Context, teamID, clueID, userID string) ([]cityhunt.Submission, error) {
	query := `
		SELECT ` + submissionColumns + `
		FROM submissions s
		JOIN clues c ON c.id = s.clue_id
		WHERE s.team_id = ? AND s.clue_id = ?`
	args := []any{teamID, clueID}
	if userID != "" {
		query += ` AND s.submitted_by = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY s.created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []cityhunt.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows.Scan)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *SQLiteStore) ListHuntSubmissions(ctx context.Context, huntID, teamID string) ([]cityhunt.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+submissionColumns+`
		FROM submissions s
		JOIN clues c ON c.id = s.clue_id
		WHERE c.hunt_id = ? AND s.team_id = ?
		ORDER BY c.stage_number, s.created_at
	`, huntID, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []cityhunt.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows.Scan)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *SQLiteStore) CountActiveSubmissions(ctx context.Context, teamID, clueID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM submissions
		WHERE team_id = ? AND clue_id = ?
		  AND status NOT IN ('REJECTED', 'REJECTED_BY_LEADER')
	`, teamID, clueID).Scan(&count)
	return count, err
}

// TransitionSubmission applies one review-pipeline step as a per-row
// compare-and-set: the UPDATE only matches while the row still holds the
// expected status, so concurrent reviewers cannot overwrite each other. On a
// lost race the row is re-read: if it already reached the intended status the
// call is an idempotent no-op, otherwise ErrInvalidTransition.
func (s *SQLiteStore) TransitionSubmission(ctx context.Context, id string, from, to cityhunt.SubmissionStatus, reviewerID, notes string) (cityhunt.Submission, error) {
	column := "leader_notes"
	if to == cityhunt.StatusApproved || to == cityhunt.StatusRejected {
		column = "admin_feedback"
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE submissions
		SET status = ?,
		    `+column+` = CASE WHEN ? <> '' THEN ? ELSE `+column+` END,
		    reviewed_by = ?,
		    reviewed_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		WHERE id = ? AND status = ?
	`, to, notes, notes, reviewerID, id, from)
	if err != nil {
		return cityhunt.Submission{}, err
	}

	if n, _ := result.RowsAffected(); n == 0 {
		sub, err := s.GetSubmission(ctx, id)
		if err != nil {
			return sub, err
		}
		if sub.Status == to {
			return sub, nil
		}
		return sub, ErrInvalidTransition
	}
	return s.GetSubmission(ctx, id)
}
