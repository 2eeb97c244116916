// Package notify carries user-visible notifications from mutations to the
// presentation layer.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level is the severity shown to the operator.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a toast-style message for the operator.
type Notification struct {
	ID      string    `json:"id"`
	EventID int64     `json:"event_id,omitempty"`
	TabID   string    `json:"-"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Success builds a success notification.
func Success(msg string) Notification {
	return Notification{ID: uuid.NewString(), Level: LevelSuccess, Message: msg, At: time.Now()}
}

// Failure builds an error notification.
func Failure(msg string) Notification {
	return Notification{ID: uuid.NewString(), Level: LevelError, Message: msg, At: time.Now()}
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, n Notification) {
	f(ctx, n)
}

// Discard drops every notification.
var Discard Notifier = NotifierFunc(func(context.Context, Notification) {})

// Recorder keeps every notification it receives. Used by the CLI and tests.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

// Notify implements Notifier.
func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All returns the recorded notifications in arrival order.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}
