package server

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Fixed demo IDs so local clients and tests can reference seeded rows.
const (
	DemoAdminID  = "u0000000000admin"
	DemoLeaderID = "u000000000leader"
	DemoMemberID = "u000000000member"
	DemoSecondID = "u000000000second"
	DemoRivalID  = "u0000000000rival"

	DemoTeamID      = "t00000000owls001"
	DemoRivalTeamID = "t0000000pirates1"

	DemoHuntID         = "h000000oldtown01" // sequential, 3 stages
	DemoRelayHuntID    = "h000000freeform1" // multi-submission, 2 stages
	DemoUpcomingHuntID = "h000000upcoming1"
)

const demoPassword = "changeme"

// Seed creates demo users, teams, and hunts if the database is empty.
// Idempotent: does nothing once any user exists.
func Seed(ctx context.Context, logger *slog.Logger, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	users := []struct{ id, name, email, role string }{
		{DemoAdminID, "Ada Admin", "admin@cityhunt.dev", "admin"},
		{DemoLeaderID, "Lena Leader", "lena@cityhunt.dev", "member"},
		{DemoMemberID, "Marco Member", "marco@cityhunt.dev", "member"},
		{DemoSecondID, "Pia Photographer", "pia@cityhunt.dev", "member"},
		{DemoRivalID, "Rudi Rival", "rudi@cityhunt.dev", "member"},
	}
	for _, u := range users {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO users (id, name, email, password_hash, role)
			VALUES (?, ?, ?, ?, ?)
		`, u.id, u.name, u.email, string(hash), u.role); err != nil {
			return err
		}
	}

	teams := []struct{ id, name, leader string }{
		{DemoTeamID, "Night Owls", DemoLeaderID},
		{DemoRivalTeamID, "Pixel Pirates", DemoRivalID},
	}
	for _, t := range teams {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO teams (id, name, leader_user_id) VALUES (?, ?, ?)
		`, t.id, t.name, t.leader); err != nil {
			return err
		}
	}

	members := []struct{ team, user string }{
		{DemoTeamID, DemoLeaderID},
		{DemoTeamID, DemoMemberID},
		{DemoTeamID, DemoSecondID},
		{DemoRivalTeamID, DemoRivalID},
	}
	for _, m := range members {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO team_members (team_id, user_id) VALUES (?, ?)
		`, m.team, m.user); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	format := func(t time.Time) string { return t.Format(time.RFC3339Nano) }

	hunts := []struct {
		id, title, status string
		start, end        time.Time
		sequential        bool
	}{
		{DemoHuntID, "Old Town Photo Hunt", "ACTIVE", now.Add(-time.Hour), now.Add(24 * time.Hour), true},
		{DemoRelayHuntID, "Street Art Freeform", "ACTIVE", now.Add(-time.Hour), now.Add(24 * time.Hour), false},
		{DemoUpcomingHuntID, "Harbour Night Run", "UPCOMING", now.Add(48 * time.Hour), now.Add(72 * time.Hour), true},
	}
	for _, h := range hunts {
		seq := 0
		if h.sequential {
			seq = 1
		}
		if _, err := db.ExecContext(ctx, `
			INSERT INTO hunts (id, title, description, status, start_time, end_time, sequential)
			VALUES (?, ?, '', ?, ?, ?, ?)
		`, h.id, h.title, h.status, format(h.start), format(h.end), seq); err != nil {
			return err
		}
		for _, teamID := range []string{DemoTeamID, DemoRivalTeamID} {
			if _, err := db.ExecContext(ctx, `
				INSERT INTO hunt_teams (hunt_id, team_id) VALUES (?, ?)
			`, h.id, teamID); err != nil {
				return err
			}
		}
	}

	clues := []struct {
		huntID      string
		stage       int
		description string
	}{
		{DemoHuntID, 1, "Photograph the clock tower at the market square."},
		{DemoHuntID, 2, "Find the blue door in the weaver's alley."},
		{DemoHuntID, 3, "Capture your whole team at the river lock."},
		{DemoRelayHuntID, 1, "Best mural on Harbour Street."},
		{DemoRelayHuntID, 2, "Most creative shot of the old crane."},
		{DemoUpcomingHuntID, 1, "Lighthouse from the pier."},
	}
	for _, c := range clues {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO clues (hunt_id, stage_number, description) VALUES (?, ?, ?)
		`, c.huntID, c.stage, c.description); err != nil {
			return err
		}
	}

	logger.Info("demo data seeded", "users", len(users), "hunts", len(hunts))
	return nil
}
