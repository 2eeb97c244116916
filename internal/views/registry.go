package views

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/hms-console/internal/domain"
	"github.com/ashureev/hms-console/internal/fetch"
	"github.com/ashureev/hms-console/internal/identity"
	"github.com/ashureev/hms-console/internal/notify"
	"github.com/ashureev/hms-console/internal/reconcile"
	"github.com/ashureev/hms-console/internal/session"
	"github.com/ashureev/hms-console/internal/store"
)

// ErrNoDashboard is returned when a tab has no active dashboard to mutate.
var ErrNoDashboard = errors.New("no active dashboard for tab")

// Deps are the collaborators shared by every view the registry builds.
type Deps struct {
	Gate     *session.Gate
	Fetcher  *fetch.Fetcher
	Putter   reconcile.Putter
	Notifier notify.Notifier
	Journal  store.Repository
	// OnPatched runs after a confirmed mutation changed a tab's view. Optional.
	OnPatched func(ctx context.Context, tabID string, v View)
	Logger    *slog.Logger
}

type entry struct {
	view     View
	lastSeen time.Time
}

// Registry holds the active view per browser tab.
type Registry struct {
	deps Deps
	now  func() time.Time

	mu     sync.RWMutex
	active map[string]*entry
}

// NewRegistry creates an empty registry.
func NewRegistry(deps Deps) *Registry {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Discard
	}
	return &Registry{deps: deps, now: time.Now, active: make(map[string]*entry)}
}

// Build constructs a view for tabID without activating it. The session is
// read from the gate once, here.
func (r *Registry) Build(name Name, tabID string) (View, error) {
	sess := r.deps.Gate.Current()
	logger := r.deps.Logger.With("tab_id", tabID, "view", name)

	switch name {
	case NameDashboard:
		var d *Dashboard
		notifier := notify.NotifierFunc(func(ctx context.Context, n notify.Notification) {
			r.deps.Notifier.Notify(identity.WithTabID(ctx, tabID), n)
		})
		opts := reconcile.Options{
			Notifier: notifier,
			Journal:  r.deps.Journal,
			Logger:   logger,
		}
		if r.deps.OnPatched != nil {
			opts.OnApplied = func(string, domain.Status) {
				r.deps.OnPatched(identity.WithTabID(context.Background(), tabID), tabID, d)
			}
		}
		d = NewDashboard(sess, r.deps.Fetcher, r.deps.Putter, opts, logger)
		return d, nil
	case NameDoctors:
		return NewDoctors(sess, r.deps.Fetcher, logger), nil
	case NameMessages:
		return NewMessages(sess, r.deps.Fetcher, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, name)
	}
}

// Activate builds and activates a view, replacing whatever the tab held.
// On a redirect the tab's previous view is discarded as well.
func (r *Registry) Activate(ctx context.Context, tabID string, name Name) (View, error) {
	v, err := r.Build(name, tabID)
	if err != nil {
		return nil, err
	}
	if err := v.Activate(ctx); err != nil {
		r.Release(tabID)
		return nil, err
	}

	r.mu.Lock()
	r.active[tabID] = &entry{view: v, lastSeen: r.now()}
	r.mu.Unlock()
	return v, nil
}

// Active returns the tab's current view and marks the tab as used.
func (r *Registry) Active(tabID string) (View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.active[tabID]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.view, true
}

// Dashboard returns the tab's active dashboard.
func (r *Registry) Dashboard(tabID string) (*Dashboard, error) {
	v, ok := r.Active(tabID)
	if !ok {
		return nil, ErrNoDashboard
	}
	d, ok := v.(*Dashboard)
	if !ok {
		return nil, ErrNoDashboard
	}
	return d, nil
}

// Release discards the tab's view.
func (r *Registry) Release(tabID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, tabID)
}

// Len returns the number of tabs holding a view.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.active)
}

// EvictIdle releases every tab not used since the cutoff and returns their ids.
func (r *Registry) EvictIdle(cutoff time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var evicted []string
	for tabID, e := range r.active {
		if e.lastSeen.Before(cutoff) {
			delete(r.active, tabID)
			evicted = append(evicted, tabID)
		}
	}
	return evicted
}
