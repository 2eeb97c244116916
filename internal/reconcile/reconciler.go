// Package reconcile applies appointment status changes to view state after
// the backend confirms them.
//
// Local state is never changed before the acknowledgment arrives, and a
// confirmed change is merged into the collection already held by the view
// without re-fetching it.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ashureev/hms-console/internal/backend"
	"github.com/ashureev/hms-console/internal/domain"
	"github.com/ashureev/hms-console/internal/notify"
	"github.com/ashureev/hms-console/internal/store"
	"github.com/ashureev/hms-console/internal/viewstate"
)

// Default notification texts when the backend provides no message.
const (
	DefaultSuccessMessage = "Status updated successfully!"
	DefaultFailureMessage = "Failed to update status."
)

// Putter is the subset of the backend client used for mutations.
type Putter interface {
	PutJSON(ctx context.Context, path string, body, out any) error
}

// Outcome describes one UpdateStatus call.
type Outcome struct {
	// Applied is true when the backend acknowledged the change.
	Applied bool `json:"applied"`
	// Matched is false when the acknowledged key was not in the held collection.
	Matched      bool                `json:"matched"`
	Notification notify.Notification `json:"notification"`
	Err          error               `json:"-"`
}

// Options configures a Reconciler.
type Options struct {
	Notifier notify.Notifier
	// Journal receives confirmed transitions. Optional.
	Journal    store.Repository
	OperatorID string
	// OnApplied runs after a confirmed change is merged. Optional.
	OnApplied func(key string, status domain.Status)
	Logger    *slog.Logger
}

// Reconciler sends status updates and merges confirmed results.
type Reconciler struct {
	client     Putter
	state      *viewstate.Store
	notifier   notify.Notifier
	journal    store.Repository
	operatorID string
	onApplied  func(string, domain.Status)
	logger     *slog.Logger

	// recordLocks serializes updates per appointment key. Entries are
	// removed once no update holds or waits for them.
	locksMu     sync.Mutex
	recordLocks map[string]*recordLock
}

type recordLock struct {
	mu   sync.Mutex
	refs int
}

// New creates a reconciler bound to one view's state.
func New(client Putter, state *viewstate.Store, opts Options) *Reconciler {
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Reconciler{
		client:     client,
		state:      state,
		notifier:   opts.Notifier,
		journal:    opts.Journal,
		operatorID: opts.OperatorID,
		onApplied:  opts.OnApplied,
		logger:     opts.Logger,

		recordLocks: make(map[string]*recordLock),
	}
}

// lockRecord blocks until the caller holds key's lock and returns its release.
func (r *Reconciler) lockRecord(key string) func() {
	r.locksMu.Lock()
	l, ok := r.recordLocks[key]
	if !ok {
		l = &recordLock{}
		r.recordLocks[key] = l
	}
	l.refs++
	r.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		r.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.recordLocks, key)
		}
		r.locksMu.Unlock()
	}
}

// UpdateStatus asks the backend to set the appointment's status and, once
// acknowledged, patches the held appointment collection.
func (r *Reconciler) UpdateStatus(ctx context.Context, key string, newStatus domain.Status) Outcome {
	if _, err := domain.ParseStatus(string(newStatus)); err != nil {
		return r.fail(ctx, key, err, fmt.Sprintf("Invalid status %q.", newStatus))
	}

	defer r.lockRecord(key)()

	// Any 2xx is the acknowledgment; its body only supplies the message.
	var ack []byte
	err := r.client.PutJSON(ctx, backend.AppointmentUpdatePath(key),
		backend.StatusUpdate{Status: string(newStatus)}, &ack)
	if err != nil {
		msg := backend.MessageOf(err)
		if msg == "" {
			msg = DefaultFailureMessage
		}
		return r.fail(ctx, key, err, msg)
	}

	var from domain.Status
	if rec, _ := r.state.Get(domain.CollectionAppointment).Find(key); rec != nil {
		from, _ = rec.Status()
	}

	matched, err := r.state.Patch(domain.CollectionAppointment, key, domain.StatusField, newStatus)
	if err != nil {
		// The backend already applied the change; only the local merge failed.
		r.logger.Error("Failed to merge confirmed status", "key", key, "status", newStatus, "error", err)
	}

	msg := backend.AckMessage(ack)
	if msg == "" {
		msg = DefaultSuccessMessage
	}
	n := notify.Success(msg)
	r.notifier.Notify(ctx, n)

	r.logger.Info("Appointment status confirmed",
		"key", key,
		"from", from,
		"to", newStatus,
		"matched", matched)

	r.journalTransition(ctx, &domain.Transition{
		RecordKey:  key,
		From:       from,
		To:         newStatus,
		Message:    msg,
		OperatorID: r.operatorID,
	})

	if matched && r.onApplied != nil {
		r.onApplied(key, newStatus)
	}

	return Outcome{Applied: true, Matched: matched, Notification: n}
}

func (r *Reconciler) fail(ctx context.Context, key string, err error, msg string) Outcome {
	r.logger.Warn("Appointment status update failed", "key", key, "error", err)
	n := notify.Failure(msg)
	r.notifier.Notify(ctx, n)
	return Outcome{Notification: n, Err: err}
}

func (r *Reconciler) journalTransition(ctx context.Context, t *domain.Transition) {
	if r.journal == nil {
		return
	}
	if err := r.journal.RecordTransition(ctx, t); err != nil {
		r.logger.Error("Failed to journal status transition", "key", t.RecordKey, "error", err)
	}
}
