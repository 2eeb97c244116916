// Package identity tags each console request with the browser tab it came from.
//
// A tab holds at most one active view. The tab id keys the view registry
// and the live notification channel.
package identity

import (
	"context"
	"net"
	"net/http"
	"regexp"
	"strings"
)

const (
	TabHeaderName     = "X-Console-Session-ID"
	TabQueryParam     = "session_id"
	DefaultTabIDValue = "default"
)

type contextKey int

const tabIDKey contextKey = iota

var tabIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// TabIDFromContext extracts the tab id from the request context.
func TabIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(tabIDKey).(string); ok {
		return v
	}
	return DefaultTabIDValue
}

// WithTabID returns a context carrying id.
func WithTabID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, tabIDKey, sanitizeTabID(id))
}

func sanitizeTabID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || !tabIDPattern.MatchString(id) {
		return DefaultTabIDValue
	}
	return id
}

func tabIDFromRequest(r *http.Request) string {
	id := r.Header.Get(TabHeaderName)
	if id == "" {
		id = r.URL.Query().Get(TabQueryParam)
	}
	return sanitizeTabID(id)
}

// Middleware injects the per-request tab id.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithTabID(r.Context(), tabIDFromRequest(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IPFromRequest returns a normalized remote IP for request tracing.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
