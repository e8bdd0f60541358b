package server

import (
	"net/http"
	"testing"
)

func TestLogin(t *testing.T) {
	r, _ := setupServer(t)

	token := login(t, r, "marco@cityhunt.dev")
	if token == "" {
		t.Fatal("expected a session token")
	}

	// The token authenticates subsequent calls.
	w := doJSON(t, r, http.MethodGet, "/api/hunts/"+DemoHuntID, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("authenticated call: expected 200, got %d", w.Code)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	r, _ := setupServer(t)

	tests := []struct {
		name string
		req  LoginRequest
		want int
	}{
		{"wrong password", LoginRequest{Email: "marco@cityhunt.dev", Password: "nope"}, http.StatusUnauthorized},
		{"unknown email", LoginRequest{Email: "ghost@cityhunt.dev", Password: "changeme"}, http.StatusUnauthorized},
		{"missing password", LoginRequest{Email: "marco@cityhunt.dev"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/login", "", tt.req)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestLogoutInvalidatesToken(t *testing.T) {
	r, _ := setupServer(t)
	token := login(t, r, "marco@cityhunt.dev")

	w := doJSON(t, r, http.MethodPost, "/api/logout", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/hunts/"+DemoHuntID, token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("call after logout: expected 401, got %d", w.Code)
	}
}

func TestUnauthenticatedRequests(t *testing.T) {
	r, _ := setupServer(t)

	paths := []string{
		"/api/hunts/" + DemoHuntID,
		"/api/hunts/assigned?teamId=" + DemoTeamID,
		"/api/hunts/" + DemoHuntID + "/progress?teamId=" + DemoTeamID,
	}
	for _, path := range paths {
		w := doJSON(t, r, http.MethodGet, path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, w.Code)
		}
	}
}
