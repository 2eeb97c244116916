// Package fetch loads named record collections from the backend.
//
// A fetch never fails from the caller's point of view: every error is
// reported to the observability sink and turned into an empty collection.
// The Result still records whether the fetch succeeded so tests and logs
// can tell "zero records" apart from "request failed".
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ashureev/hms-console/internal/backend"
	"github.com/ashureev/hms-console/internal/domain"
	"golang.org/x/sync/errgroup"
)

// ErrUnsuccessful is reported when an envelope's success flag is missing or falsy.
var ErrUnsuccessful = errors.New("backend reported success=false")

// Status tags the outcome of a fetch.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Spec describes where a collection comes from.
type Spec struct {
	Name  domain.CollectionName
	Path  string
	Field string // envelope field holding the record array
	// RequireSuccess rejects envelopes whose "success" flag is not true.
	RequireSuccess bool
}

// Known collection sources.
var (
	Appointments = Spec{Name: domain.CollectionAppointment, Path: backend.PathAppointments, Field: "appointment"}
	Doctors      = Spec{Name: domain.CollectionDoctor, Path: backend.PathDoctors, Field: "doctors"}
	Directory    = Spec{Name: domain.CollectionDoctorDirectory, Path: backend.PathDoctorsDirectory, Field: "doctors"}
	Messages     = Spec{Name: domain.CollectionMessage, Path: backend.PathMessages, Field: "message", RequireSuccess: true}
)

// Result is the tagged outcome of one fetch. Collection is always non-nil.
type Result struct {
	Name       domain.CollectionName
	Status     Status
	Collection domain.Collection
	Err        error
}

// OK reports whether the fetch succeeded.
func (r Result) OK() bool {
	return r.Status == StatusOK
}

// Getter is the subset of the backend client used by the fetcher.
type Getter interface {
	GetJSON(ctx context.Context, path string, out any) error
}

// Reporter receives fetch failures.
type Reporter interface {
	FetchFailed(name domain.CollectionName, err error)
}

// Fetcher requests collections from the backend.
type Fetcher struct {
	client   Getter
	reporter Reporter
}

// New creates a fetcher. A nil reporter logs through slog.Default.
func New(client Getter, reporter Reporter) *Fetcher {
	if reporter == nil {
		reporter = NewLogReporter(nil)
	}
	return &Fetcher{client: client, reporter: reporter}
}

// Fetch requests one collection. It never returns an error.
func (f *Fetcher) Fetch(ctx context.Context, spec Spec) Result {
	coll, err := f.fetch(ctx, spec)
	if err != nil {
		f.reporter.FetchFailed(spec.Name, err)
		return Result{Name: spec.Name, Status: StatusFailed, Collection: domain.Collection{}, Err: err}
	}
	return Result{Name: spec.Name, Status: StatusOK, Collection: coll}
}

// FetchAll requests the given collections concurrently. Results are
// returned in the order of specs regardless of completion order.
func (f *Fetcher) FetchAll(ctx context.Context, specs ...Spec) []Result {
	results := make([]Result, len(specs))
	var g errgroup.Group
	for i, spec := range specs {
		g.Go(func() error {
			results[i] = f.Fetch(ctx, spec)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (f *Fetcher) fetch(ctx context.Context, spec Spec) (domain.Collection, error) {
	var envelope map[string]json.RawMessage
	if err := f.client.GetJSON(ctx, spec.Path, &envelope); err != nil {
		return nil, err
	}
	if envelope == nil {
		return nil, fmt.Errorf("empty envelope from %s", spec.Path)
	}

	if spec.RequireSuccess {
		if !truthy(envelope["success"]) {
			return nil, ErrUnsuccessful
		}
	}

	raw, present := envelope[spec.Field]
	if !present {
		return domain.Collection{}, nil
	}

	var records []*domain.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode %q field: %w", spec.Field, err)
	}

	coll := make(domain.Collection, 0, len(records))
	for _, rec := range records {
		if rec != nil {
			coll = append(coll, rec)
		}
	}
	return coll, nil
}

// LogReporter logs fetch failures and counts them per collection.
type LogReporter struct {
	logger *slog.Logger

	mu       sync.Mutex
	failures map[domain.CollectionName]int
}

// NewLogReporter creates a reporter writing to logger (slog.Default if nil).
func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{logger: logger, failures: make(map[domain.CollectionName]int)}
}

// FetchFailed implements Reporter.
func (r *LogReporter) FetchFailed(name domain.CollectionName, err error) {
	r.mu.Lock()
	r.failures[name]++
	count := r.failures[name]
	r.mu.Unlock()

	r.logger.Error("Collection fetch failed",
		"collection", name,
		"error", err,
		"unauthorized", backend.IsUnauthorized(err),
		"failures", count)
}

// Stats returns a copy of the failure counters.
func (r *LogReporter) Stats() map[domain.CollectionName]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[domain.CollectionName]int, len(r.failures))
	for k, v := range r.failures {
		out[k] = v
	}
	return out
}

// truthy reports whether a JSON value is truthy: anything except a missing
// value, null, false, 0 or "".
func truthy(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	default:
		return true
	}
}
