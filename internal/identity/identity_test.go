package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureTabID(t *testing.T, req *http.Request) string {
	t.Helper()
	var got string
	Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = TabIDFromContext(r.Context())
	})).ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestMiddlewareReadsHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/views/dashboard", nil)
	req.Header.Set(TabHeaderName, "tab-1")
	assert.Equal(t, "tab-1", captureTabID(t, req))
}

func TestMiddlewareFallsBackToQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws/views?session_id=tab-2", nil)
	assert.Equal(t, "tab-2", captureTabID(t, req))
}

func TestMiddlewareRejectsInvalidIDs(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TabHeaderName, "bad id with spaces")
	assert.Equal(t, DefaultTabIDValue, captureTabID(t, req))

	assert.Equal(t, DefaultTabIDValue, captureTabID(t, httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestIPFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5151"
	assert.Equal(t, "10.0.0.7", IPFromRequest(req))
}
