package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	users "github.com/AdamBeresnev/op-bracket/internal/user"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUsers map[uuid.UUID]*users.User

func (s stubUsers) GetUser(_ context.Context, id uuid.UUID) (*users.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2)
	handler := limiter.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/admin/matches/x/result", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:1000"))
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:1002"))

	// Other clients have their own bucket
	assert.Equal(t, http.StatusNoContent, call("10.0.0.2:1000"))

	time.Sleep(5 * time.Millisecond)
	limiter.Cleanup(time.Millisecond)
	assert.Empty(t, limiter.visitors)
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:1003"))
}

// sessionHandler signs the request in as userID (when set) before the chain runs
func sessionHandler(t *testing.T, userID string, lookup UserGetter, next http.Handler) http.Handler {
	t.Helper()
	sm := scs.New()
	sm.Lifetime = time.Hour

	chain := LoadAuthenticatedUser(sm, lookup)(next)
	return sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID != "" {
			sm.Put(r.Context(), SessionUserKey, userID)
		}
		chain.ServeHTTP(w, r)
	}))
}

func TestRequireAdmin(t *testing.T) {
	admin := &users.User{ID: uuid.New(), Username: "admin", Role: users.RoleAdmin}
	member := &users.User{ID: uuid.New(), Username: "member", Role: users.RoleMember}
	lookup := stubUsers{admin.ID: admin, member.ID: member}

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, found := GetUserIDFromContext(r.Context())
		require.True(t, found)
		assert.Equal(t, admin.ID, id)
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name   string
		userID string
		want   int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"garbage id", "not-a-uuid", http.StatusUnauthorized},
		{"unknown user", uuid.New().String(), http.StatusUnauthorized},
		{"member", member.ID.String(), http.StatusForbidden},
		{"admin", admin.ID.String(), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := sessionHandler(t, tt.userID, lookup, RequireAdmin(ok))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/tournaments/x/bracket", nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestGetAuthenticatedUser_Empty(t *testing.T) {
	assert.Nil(t, GetAuthenticatedUser(context.Background()))
	_, ok := GetUserIDFromContext(context.Background())
	assert.False(t, ok)
}
