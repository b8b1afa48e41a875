package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/knygynas/internal/config"
	apperrors "github.com/conneroisu/knygynas/internal/errors"
	"github.com/conneroisu/knygynas/internal/store"
	"github.com/conneroisu/knygynas/internal/types"
)

type brokenRepo struct{}

func (brokenRepo) LoadSessions(context.Context) ([]types.Session, error) {
	return nil, apperrors.NewStorageCorruptionError("data/session.json", errors.New("unexpected EOF"))
}

func (brokenRepo) SaveSessions(context.Context, []types.Session) error { return nil }

func serve(t *testing.T, r *Resolver, cookie *http.Cookie) (*httptest.ResponseRecorder, *types.Session) {
	t.Helper()

	var seen *types.Session
	h := r.Middleware(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		sess, ok := Current(req.Context())
		require.True(t, ok)
		seen = sess
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w, seen
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestMiddlewareCreatesSession(t *testing.T) {
	repo := store.NewMemoryStore()
	r := NewResolver(repo, config.SessionConfig{}, nil)

	w, sess := serve(t, r, nil)
	require.NotNil(t, sess)

	c := sessionCookie(t, w)
	assert.Equal(t, sess.ID, c.Value)
	assert.Equal(t, config.DefaultSessionMaxAge, c.MaxAge)
	assert.Equal(t, "/", c.Path)

	sessions, err := repo.LoadSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, sess.ID, sessions[0].ID)
	assert.Empty(t, sessions[0].Data)
}

func TestMiddlewareReusesSession(t *testing.T) {
	repo := store.NewMemoryStore()
	r := NewResolver(repo, config.SessionConfig{}, nil)
	created := 0
	r.OnCreate(func() { created++ })

	w, first := serve(t, r, nil)
	c := sessionCookie(t, w)

	w, second := serve(t, r, &http.Cookie{Name: "session", Value: c.Value})
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, c.Value, sessionCookie(t, w).Value, "cookie is refreshed on every response")

	sessions, err := repo.LoadSessions(context.Background())
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
	assert.Equal(t, 1, created)
}

func TestMiddlewareUnknownCookie(t *testing.T) {
	repo := store.NewMemoryStore()
	r := NewResolver(repo, config.SessionConfig{}, nil)
	r.newID = func() string { return "fresh" }

	w, sess := serve(t, r, &http.Cookie{Name: "session", Value: "stale"})
	assert.Equal(t, "fresh", sess.ID)
	assert.Equal(t, "fresh", sessionCookie(t, w).Value)
}

func TestMiddlewareCustomCookie(t *testing.T) {
	r := NewResolver(store.NewMemoryStore(), config.SessionConfig{CookieName: "sid", MaxAge: 60}, nil)
	assert.Equal(t, "sid", r.CookieName())

	w, _ := serve(t, r, nil)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.Equal(t, 60, cookies[0].MaxAge)
}

func TestMiddlewareStorageFailure(t *testing.T) {
	r := NewResolver(brokenRepo{}, config.SessionConfig{}, nil)

	called := false
	h := r.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Result().Cookies())
}

func TestSetValue(t *testing.T) {
	ctx := context.Background()
	other := types.NewSession("other")
	other.Data["k"] = "v"

	repo := store.NewMemoryStore()
	require.NoError(t, repo.SaveSessions(ctx, []types.Session{types.NewSession("mine"), other}))

	r := NewResolver(repo, config.SessionConfig{}, nil)
	sess := types.NewSession("mine")
	ctx = WithSession(ctx, &sess)

	require.NoError(t, r.SetValue(ctx, "lastBook", "b1"))
	assert.Equal(t, "b1", sess.Data["lastBook"])

	sessions, err := repo.LoadSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "b1", sessions[0].Data["lastBook"])
	assert.Equal(t, "v", sessions[1].Data["k"])
}

func TestSetValueWithoutSession(t *testing.T) {
	r := NewResolver(store.NewMemoryStore(), config.SessionConfig{}, nil)

	err := r.SetValue(context.Background(), "k", "v")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCurrentEmpty(t *testing.T) {
	_, ok := Current(context.Background())
	assert.False(t, ok)
}
