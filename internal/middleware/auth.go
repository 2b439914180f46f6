package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type contextKey string

const householdKey contextKey = "household_id"

// TokenVerifier resolves a membership token to its household id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// ExtractBearerToken returns the token of an "Authorization: Bearer" header.
func ExtractBearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// RequireHousehold admits requests carrying a membership token for the {id} in
// the route. Browser WebSocket clients may pass the token as ?token=.
func RequireHousehold(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractBearerToken(r.Header.Get("Authorization"))
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			householdID, err := tokens.Verify(token)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "Invalid or missing membership token")
				return
			}
			if id := chi.URLParam(r, "id"); id != "" && id != householdID {
				writeJSONError(w, http.StatusForbidden, "Token does not grant access to this household")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), householdKey, householdID)))
		})
	}
}

// HouseholdID returns the household admitted by RequireHousehold.
func HouseholdID(ctx context.Context) string {
	id, _ := ctx.Value(householdKey).(string)
	return id
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"success":false,"message":"` + message + `"}`))
}
