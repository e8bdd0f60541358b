package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/cityhunt/internal/database"
	"github.com/playperu/cityhunt/internal/images"
	"github.com/playperu/cityhunt/internal/migrations"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	if err := Seed(ctx, discardLogger(), db); err != nil {
		t.Fatalf("seed demo data: %v", err)
	}
	return db
}

func setupServer(t *testing.T) (*chi.Mux, *SQLiteStore) {
	t.Helper()
	db := setupDB(t)
	store := NewSQLiteStore(db)

	imgs, err := images.NewDiskStore(t.TempDir(), "http://test.local")
	if err != nil {
		t.Fatalf("init image store: %v", err)
	}

	r := chi.NewRouter()
	addRoutes(r, discardLogger(), store, nil, imgs, "")
	return r, store
}

// login authenticates one of the seeded demo users and returns a bearer token.
func login(t *testing.T, r http.Handler, email string) string {
	t.Helper()

	body, _ := json.Marshal(LoginRequest{Email: email, Password: "changeme"})
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", email, w.Code, w.Body.String())
	}

	var resp LoginResponse
	json.NewDecoder(w.Body).Decode(&resp)
	return resp.Token
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, w.Body.String())
	}
	return v
}

// getClues fetches a hunt and returns its clues keyed by stage number.
func getClues(t *testing.T, r http.Handler, token, huntID string) map[int]ClueInfo {
	t.Helper()

	w := doJSON(t, r, http.MethodGet, "/api/hunts/"+huntID, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get hunt %s: expected 200, got %d: %s", huntID, w.Code, w.Body.String())
	}

	hunt := decode[HuntResponse](t, w)
	clues := make(map[int]ClueInfo, len(hunt.Clues))
	for _, c := range hunt.Clues {
		clues[c.StageNumber] = c
	}
	return clues
}

// submit creates a PENDING submission for the demo team and fails the test on
// any non-201 response.
func submit(t *testing.T, r http.Handler, token, clueID string) SubmissionResponse {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/clues/"+clueID+"/submissions", token, CreateSubmissionRequest{
		TeamID:      DemoTeamID,
		Description: "clock tower at noon",
		ImageURL:    "http://test.local/images/clock.jpg",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create submission: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return decode[SubmissionResponse](t, w)
}
