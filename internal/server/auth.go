package server

import (
	"net/http"
	"strings"
)

const roleAdmin = "admin"

func userFromRequest(r *http.Request, store Store) (userSession, error) {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found || token == "" {
		return userSession{}, errNoSession
	}
	return store.UserFromToken(r.Context(), token)
}
