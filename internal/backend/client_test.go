package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, srv *httptest.Server, token string) *Client {
	t.Helper()
	c, err := NewClient(ClientConfig{
		BaseURL:        srv.URL,
		CookieName:     "adminToken",
		SessionToken:   token,
		RequestTimeout: 2 * time.Second,
	}, nil)
	require.NoError(t, err)
	return c
}

func TestGetJSONAttachesSessionCookie(t *testing.T) {
	var gotCookie, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("adminToken"); err == nil {
			gotCookie = c.Value
		}
		gotRequestID = r.Header.Get(RequestIDHeader)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "secret")
	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, c.GetJSON(context.Background(), PathAppointments, &out))

	assert.True(t, out.OK)
	assert.Equal(t, "secret", gotCookie)
	assert.NotEmpty(t, gotRequestID)
}

func TestPutJSONSendsBody(t *testing.T) {
	var got StatusUpdate
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"success":true,"message":"Updated"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "")
	var ack []byte
	require.NoError(t, c.PutJSON(context.Background(), AppointmentUpdatePath("abc123"), StatusUpdate{Status: "Accepted"}, &ack))

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/api/v1/appointment/update/abc123", gotPath)
	assert.Equal(t, "Accepted", got.Status)
	assert.Equal(t, "Updated", AckMessage(ack))
}

func TestPutJSONRawBodySkipsDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`OK`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "")
	var raw []byte
	require.NoError(t, c.PutJSON(context.Background(), AppointmentUpdatePath("abc123"), StatusUpdate{Status: "Accepted"}, &raw))
	assert.Equal(t, "OK", string(raw))
}

func TestAckMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{body: `{"success":true,"message":"Updated"}`, want: "Updated"},
		{body: ` "Status changed" `, want: "Status changed"},
		{body: `{"success":true}`, want: ""},
		{body: `{"message":42}`, want: ""},
		{body: `OK`, want: ""},
		{body: `"unterminated`, want: ""},
		{body: ``, want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AckMessage([]byte(tt.body)), "body %q", tt.body)
	}
}

func TestNon2xxReturnsAPIErrorWithMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"message":"Admin Not Authenticated!"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "")
	err := c.GetJSON(context.Background(), PathMessages, &struct{}{})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Admin Not Authenticated!", MessageOf(err))
	assert.True(t, IsUnauthorized(err))
}

func TestMalformedBodyIsDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "")
	err := c.GetJSON(context.Background(), PathDoctors, &struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
	assert.False(t, IsUnauthorized(err))
	assert.Equal(t, "", MessageOf(err))
}

func TestNewClientRejectsRelativeURL(t *testing.T) {
	_, err := NewClient(ClientConfig{BaseURL: "backend.local"}, nil)
	assert.Error(t, err)
}

func TestAppointmentUpdatePathEscapesID(t *testing.T) {
	assert.Equal(t, "/api/v1/appointment/update/a%2Fb", AppointmentUpdatePath("a/b"))
}
