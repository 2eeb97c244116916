// Package views builds the console's dashboard, doctor directory and
// message views from fetched collections.
//
// Each view is created with an explicit session value. Activation checks
// that session once, fetches the view's collections concurrently, and
// stores them in the view's own state. A view's state lives exactly as long
// as the view; navigating away discards it.
package views

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ashureev/hms-console/internal/fetch"
	"github.com/ashureev/hms-console/internal/session"
	"github.com/ashureev/hms-console/internal/viewstate"
)

// Name identifies a view.
type Name string

const (
	NameDashboard Name = "dashboard"
	NameDoctors   Name = "doctors"
	NameMessages  Name = "messages"
)

// ErrUnknownView is returned for names outside the known views.
var ErrUnknownView = errors.New("unknown view")

// ParseName validates a view name.
func ParseName(s string) (Name, error) {
	switch Name(s) {
	case NameDashboard, NameDoctors, NameMessages:
		return Name(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
	}
}

// RedirectError tells the presentation layer to navigate instead of render.
type RedirectError struct {
	To  string
	Err error
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("redirect to %s: %v", e.To, e.Err)
}

func (e *RedirectError) Unwrap() error {
	return e.Err
}

// View is one activated console page.
type View interface {
	Name() Name
	// Activate checks the session and loads the view's collections.
	Activate(ctx context.Context) error
	// Model returns the render-ready state.
	Model() any
	// State exposes the view's collections.
	State() *viewstate.Store
}

// base carries what every view needs.
type base struct {
	session session.Session
	fetcher *fetch.Fetcher
	state   *viewstate.Store
	logger  *slog.Logger
}

func newBase(sess session.Session, fetcher *fetch.Fetcher, logger *slog.Logger) base {
	if logger == nil {
		logger = slog.Default()
	}
	return base{
		session: sess,
		fetcher: fetcher,
		state:   viewstate.New(logger),
		logger:  logger,
	}
}

func (b *base) State() *viewstate.Store {
	return b.state
}

// load gates on the session, then fetches specs concurrently and replaces
// each slot with its result.
func (b *base) load(ctx context.Context, name Name, specs ...fetch.Spec) error {
	if err := session.Check(b.session); err != nil {
		b.logger.Info("View requires login", "view", name)
		return &RedirectError{To: session.LoginPath, Err: err}
	}

	for _, res := range b.fetcher.FetchAll(ctx, specs...) {
		b.state.Replace(res.Name, res.Collection)
		b.logger.Debug("Collection loaded",
			"view", name,
			"collection", res.Name,
			"status", res.Status,
			"count", len(res.Collection))
	}
	return nil
}
