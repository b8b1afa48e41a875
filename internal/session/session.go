// Package session maps the visitor's session cookie to a persisted session
// record and exposes that record to handlers through the request context.
package session

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/conneroisu/knygynas/internal/config"
	apperrors "github.com/conneroisu/knygynas/internal/errors"
	"github.com/conneroisu/knygynas/internal/logging"
	"github.com/conneroisu/knygynas/internal/store"
	"github.com/conneroisu/knygynas/internal/types"
)

type contextKey struct{}

// Resolver loads or creates the session for every request.
type Resolver struct {
	repo       store.SessionRepository
	cookieName string
	maxAge     int
	logger     logging.Logger
	errors     *apperrors.ErrorHandler
	newID      func() string
	onCreate   func()
}

// NewResolver creates a resolver over the session repository. Zero values in
// cfg fall back to the cookie "session" kept for one year.
func NewResolver(repo store.SessionRepository, cfg config.SessionConfig, logger logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	logger = logger.WithComponent("session")

	name := cfg.CookieName
	if name == "" {
		name = "session"
	}
	maxAge := cfg.MaxAge
	if maxAge == 0 {
		maxAge = config.DefaultSessionMaxAge
	}

	return &Resolver{
		repo:       repo,
		cookieName: name,
		maxAge:     maxAge,
		logger:     logger,
		errors:     apperrors.NewErrorHandler(logger),
		newID:      uuid.NewString,
	}
}

// OnCreate registers fn to run after a new session is persisted.
func (r *Resolver) OnCreate(fn func()) { r.onCreate = fn }

// CookieName returns the name of the session cookie.
func (r *Resolver) CookieName() string { return r.cookieName }

// Middleware resolves the session before calling next. A storage failure
// aborts the request with a 500.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		sess, err := r.Resolve(req)
		if err != nil {
			r.errors.Handle(req.Context(), err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     r.cookieName,
			Value:    sess.ID,
			Path:     "/",
			MaxAge:   r.maxAge,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		next.ServeHTTP(w, req.WithContext(WithSession(req.Context(), sess)))
	})
}

// Resolve returns the session named by the request cookie, creating and
// persisting a fresh one when the cookie is absent or unknown.
func (r *Resolver) Resolve(req *http.Request) (*types.Session, error) {
	ctx := req.Context()

	sessions, err := r.repo.LoadSessions(ctx)
	if err != nil {
		return nil, err
	}

	if c, err := req.Cookie(r.cookieName); err == nil && c.Value != "" {
		if i := store.FindSession(sessions, c.Value); i >= 0 {
			sess := sessions[i]
			return &sess, nil
		}
	}

	sess := types.NewSession(r.newID())
	sessions = append(sessions, sess)
	if err := r.repo.SaveSessions(ctx, sessions); err != nil {
		return nil, err
	}

	r.logger.Debug(ctx, "Session created", "session_id", sess.ID)
	if r.onCreate != nil {
		r.onCreate()
	}
	return &sess, nil
}

// SetValue stores value under key in the current session and persists the
// session collection. The collection is reloaded first, so a concurrent
// write to another session made since this request started is kept.
func (r *Resolver) SetValue(ctx context.Context, key string, value any) error {
	sess, ok := Current(ctx)
	if !ok {
		return apperrors.NewNotFoundError(apperrors.ErrCodeSessionNotFound, "no session in request context")
	}
	if sess.Data == nil {
		sess.Data = make(map[string]any)
	}
	sess.Data[key] = value

	sessions, err := r.repo.LoadSessions(ctx)
	if err != nil {
		return err
	}

	if i := store.FindSession(sessions, sess.ID); i >= 0 {
		sessions[i] = sess.Clone()
	} else {
		sessions = append(sessions, sess.Clone())
	}

	return r.repo.SaveSessions(ctx, sessions)
}

// WithSession returns a context carrying sess.
func WithSession(ctx context.Context, sess *types.Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// Current returns the session attached by the middleware.
func Current(ctx context.Context) (*types.Session, bool) {
	sess, ok := ctx.Value(contextKey{}).(*types.Session)
	return sess, ok && sess != nil
}
