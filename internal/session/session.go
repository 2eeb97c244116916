// Package session provides the operator session consumed by every view.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ashureev/hms-console/internal/backend"
	"github.com/ashureev/hms-console/internal/domain"
)

// LoginPath is where unauthenticated views redirect.
const LoginPath = "/login"

// ErrUnauthenticated is returned by Check when the session is not signed in.
var ErrUnauthenticated = errors.New("not authenticated")

// Session is a read-only snapshot of the operator's authentication state.
type Session struct {
	Authenticated bool             `json:"isAuthenticated"`
	Operator      *domain.Operator `json:"operator,omitempty"`
}

// Check returns ErrUnauthenticated unless s is authenticated.
func Check(s Session) error {
	if !s.Authenticated {
		return ErrUnauthenticated
	}
	return nil
}

// Gate holds the process-wide session.
type Gate struct {
	mu      sync.RWMutex
	current Session
}

// NewGate creates a gate holding s.
func NewGate(s Session) *Gate {
	return &Gate{current: s}
}

// Current returns a copy of the session.
func (g *Gate) Current() Session {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s := g.current
	if s.Operator != nil {
		op := *s.Operator
		s.Operator = &op
	}
	return s
}

// Set replaces the session.
func (g *Gate) Set(s Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.current = s
}

// Resolver asks the backend who the session cookie belongs to.
type Resolver struct {
	client interface {
		GetJSON(ctx context.Context, path string, out any) error
	}
	logger *slog.Logger
}

// NewResolver creates a resolver using the given backend client.
func NewResolver(client *backend.Client, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{client: client, logger: logger}
}

type currentAdminEnvelope struct {
	Success bool             `json:"success"`
	User    *domain.Operator `json:"user"`
}

// Resolve returns the session for the configured credentials. Any failure
// yields an unauthenticated session; the error is logged, not returned.
func (r *Resolver) Resolve(ctx context.Context) Session {
	var env currentAdminEnvelope
	if err := r.client.GetJSON(ctx, backend.PathCurrentAdmin, &env); err != nil {
		r.logger.Warn("Session resolution failed", "error", err, "unauthorized", backend.IsUnauthorized(err))
		return Session{}
	}
	if env.User == nil {
		r.logger.Warn("Session resolution returned no operator")
		return Session{}
	}
	r.logger.Info("Session resolved", "operator_id", env.User.ID, "role", env.User.Role)
	return Session{Authenticated: true, Operator: env.User}
}
