package views

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ashureev/hms-console/internal/backend"
	"github.com/ashureev/hms-console/internal/domain"
	"github.com/ashureev/hms-console/internal/fetch"
	"github.com/ashureev/hms-console/internal/identity"
	"github.com/ashureev/hms-console/internal/notify"
	"github.com/ashureev/hms-console/internal/reconcile"
	"github.com/ashureev/hms-console/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu     sync.Mutex
	routes map[string]string
	gets   atomic.Int32
}

func newFakeBackend(t *testing.T, routes map[string]string) (*fakeBackend, *backend.Client) {
	t.Helper()
	fb := &fakeBackend{routes: routes}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fb.gets.Add(1)
		}
		fb.mu.Lock()
		body, ok := fb.routes[r.Method+" "+r.URL.Path]
		fb.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client, err := backend.NewClient(backend.ClientConfig{
		BaseURL:        srv.URL,
		CookieName:     "adminToken",
		RequestTimeout: 2 * time.Second,
	}, nil)
	require.NoError(t, err)
	return fb, client
}

func reconcileOpts() reconcile.Options {
	return reconcile.Options{}
}

func signedIn() session.Session {
	return session.Session{
		Authenticated: true,
		Operator:      &domain.Operator{ID: "op-1", FirstName: "Ada", LastName: "Admin"},
	}
}

const appointmentsBody = `{"success":true,"appointment":[
	{"_id":"abc123","firstName":"Ann","lastName":"Lee","appointment_date":"2024-03-01T09:00:00.000Z",
	 "department":"Cardiology","status":"Pending","hasVisited":true,
	 "doctor":{"firstName":"Sam","lastName":"Ray"}},
	{"_id":"def456","firstName":"Bob","lastName":"Kay","appointment_date":"soon","status":"Rejected"}
]}`

func TestDashboardEmptyAppointments(t *testing.T) {
	_, client := newFakeBackend(t, map[string]string{
		"GET " + backend.PathAppointments: `{"appointment":[]}`,
		"GET " + backend.PathDoctors:      `{"doctors":[{"_id":"d1"},{"_id":"d2"}]}`,
	})
	d := NewDashboard(signedIn(), fetch.New(client, nil), client, reconcileOpts(), nil)

	require.NoError(t, d.Activate(context.Background()))
	m := d.DashboardModel()

	assert.Equal(t, 0, m.TotalAppointments)
	assert.Equal(t, NoAppointmentsText, m.EmptyText)
	assert.Empty(t, m.Appointments)
	assert.Equal(t, "2", m.RegisteredDoctors)
	assert.Equal(t, "Ada Admin", m.Operator)
}

func TestDashboardNullDoctors(t *testing.T) {
	_, client := newFakeBackend(t, map[string]string{
		"GET " + backend.PathAppointments: appointmentsBody,
		"GET " + backend.PathDoctors:      `{"doctors":null}`,
	})
	d := NewDashboard(signedIn(), fetch.New(client, nil), client, reconcileOpts(), nil)

	require.NoError(t, d.Activate(context.Background()))
	m := d.DashboardModel()

	assert.Equal(t, 0, m.DoctorCount)
	assert.Equal(t, NoDoctorsText, m.RegisteredDoctors)
	assert.Equal(t, 2, m.TotalAppointments)
	assert.Empty(t, m.EmptyText)
}

func TestDashboardRows(t *testing.T) {
	_, client := newFakeBackend(t, map[string]string{
		"GET " + backend.PathAppointments: appointmentsBody,
	})
	d := NewDashboard(signedIn(), fetch.New(client, nil), client, reconcileOpts(), nil)
	require.NoError(t, d.Activate(context.Background()))

	rows := d.DashboardModel().Appointments
	require.Len(t, rows, 2)
	assert.Equal(t, AppointmentRow{
		ID:         "abc123",
		Patient:    "Ann Lee",
		Date:       "2024-03-01",
		Doctor:     "Sam Ray",
		Department: "Cardiology",
		Status:     domain.StatusPending,
		Visited:    true,
	}, rows[0])
	assert.Equal(t, InvalidDateText, rows[1].Date)
	assert.Equal(t, NotAvailableText, rows[1].Doctor)
	assert.Equal(t, NotAvailableText, rows[1].Department)

	// Doctors endpoint 404s: the fetch fails and the slot is empty.
	assert.Equal(t, NoDoctorsText, d.DashboardModel().RegisteredDoctors)
}

func TestDashboardUpdateStatusPatchesOnlyTarget(t *testing.T) {
	fb, client := newFakeBackend(t, map[string]string{
		"GET " + backend.PathAppointments:                appointmentsBody,
		"GET " + backend.PathDoctors:                     `{"doctors":[]}`,
		"PUT " + backend.AppointmentUpdatePath("abc123"): `{"success":true,"message":"Updated"}`,
	})
	rec := &notify.Recorder{}
	opts := reconcileOpts()
	opts.Notifier = rec
	d := NewDashboard(signedIn(), fetch.New(client, nil), client, opts, nil)
	require.NoError(t, d.Activate(context.Background()))

	before := d.State().Get(domain.CollectionAppointment)
	getsBefore := fb.gets.Load()

	out := d.UpdateStatus(context.Background(), "abc123", domain.StatusAccepted)

	require.True(t, out.Applied)
	assert.Equal(t, "Updated", out.Notification.Message)
	assert.Equal(t, getsBefore, fb.gets.Load())

	after := d.State().Get(domain.CollectionAppointment)
	require.Len(t, after, 2)
	st, _ := after[0].Status()
	assert.Equal(t, domain.StatusAccepted, st)
	assert.Same(t, before[1], after[1])
	assert.Equal(t, before[0].String("firstName"), after[0].String("firstName"))

	notes := rec.All()
	require.Len(t, notes, 1)
	assert.Equal(t, "Updated", notes[0].Message)
}

func TestDashboardUpdateStatusNonObjectAcknowledgment(t *testing.T) {
	for body, wantMsg := range map[string]string{
		`"Updated"`: "Updated",
		`OK`:        reconcile.DefaultSuccessMessage,
	} {
		t.Run(body, func(t *testing.T) {
			_, client := newFakeBackend(t, map[string]string{
				"GET " + backend.PathAppointments:                appointmentsBody,
				"GET " + backend.PathDoctors:                     `{"doctors":[]}`,
				"PUT " + backend.AppointmentUpdatePath("abc123"): body,
			})
			d := NewDashboard(signedIn(), fetch.New(client, nil), client, reconcileOpts(), nil)
			require.NoError(t, d.Activate(context.Background()))

			out := d.UpdateStatus(context.Background(), "abc123", domain.StatusAccepted)

			require.True(t, out.Applied)
			assert.Equal(t, notify.LevelSuccess, out.Notification.Level)
			assert.Equal(t, wantMsg, out.Notification.Message)
			assert.Equal(t, domain.StatusAccepted, d.DashboardModel().Appointments[0].Status)
		})
	}
}

func TestUnauthenticatedActivationRedirectsWithoutFetching(t *testing.T) {
	fb, client := newFakeBackend(t, map[string]string{
		"GET " + backend.PathAppointments: appointmentsBody,
	})
	f := fetch.New(client, nil)

	for _, v := range []View{
		NewDashboard(session.Session{}, f, client, reconcileOpts(), nil),
		NewDoctors(session.Session{}, f, nil),
		NewMessages(session.Session{}, f, nil),
	} {
		err := v.Activate(context.Background())
		var redirect *RedirectError
		require.ErrorAs(t, err, &redirect, v.Name())
		assert.Equal(t, session.LoginPath, redirect.To)
		assert.ErrorIs(t, err, session.ErrUnauthenticated)
	}
	assert.Equal(t, int32(0), fb.gets.Load())
}

func TestDoctorsCards(t *testing.T) {
	_, client := newFakeBackend(t, map[string]string{
		"GET " + backend.PathDoctorsDirectory: `{"success":true,"doctors":[
			{"_id":"d1","firstName":"Mia","lastName":"Wu","dob":"1980-05-17T00:00:00.000Z","gender":"Female",
			 "doctorDepartment":"Neurology","nic":"1234567890123","email":"mia@example.com","phone":"03001234567"},
			{"_id":"d2","firstName":"Raj","gender":"Male","docAvatar":{"url":"https://cdn.example.com/raj.png"}},
			{"_id":"d3","firstName":"Lee"}
		]}`,
	})
	v := NewDoctors(signedIn(), fetch.New(client, nil), nil)
	require.NoError(t, v.Activate(context.Background()))

	m := v.DoctorsModel()
	require.Len(t, m.Doctors, 3)
	assert.Empty(t, m.EmptyText)
	assert.Equal(t, "Mia Wu", m.Doctors[0].Name)
	assert.Equal(t, "1980-05-17", m.Doctors[0].DOB)
	assert.Equal(t, "Neurology", m.Doctors[0].Department)
	assert.Equal(t, FemaleAvatarPlaceholder, m.Doctors[0].AvatarURL)
	assert.Equal(t, "https://cdn.example.com/raj.png", m.Doctors[1].AvatarURL)
	assert.Equal(t, MaleAvatarPlaceholder, m.Doctors[2].AvatarURL)
}

func TestDoctorsEmpty(t *testing.T) {
	_, client := newFakeBackend(t, nil)
	v := NewDoctors(signedIn(), fetch.New(client, nil), nil)
	require.NoError(t, v.Activate(context.Background()))
	assert.Equal(t, NoRegisteredDoctorsText, v.DoctorsModel().EmptyText)
}

func TestMessagesRequireSuccessFlag(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		count int
		empty string
	}{
		{"success", `{"success":true,"message":[{"_id":"m1","firstName":"Jo","message":"Hello"}]}`, 1, ""},
		{"not successful", `{"success":false,"message":[{"_id":"m1"}]}`, 0, NoMessagesText},
		{"missing flag", `{"message":[{"_id":"m1"}]}`, 0, NoMessagesText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, client := newFakeBackend(t, map[string]string{"GET " + backend.PathMessages: tt.body})
			v := NewMessages(signedIn(), fetch.New(client, nil), nil)
			require.NoError(t, v.Activate(context.Background()))

			m := v.MessagesModel()
			assert.Len(t, m.Messages, tt.count)
			assert.Equal(t, tt.empty, m.EmptyText)
		})
	}
}

func TestParseName(t *testing.T) {
	n, err := ParseName("doctors")
	require.NoError(t, err)
	assert.Equal(t, NameDoctors, n)

	_, err = ParseName("patients")
	assert.True(t, errors.Is(err, ErrUnknownView))
}

func TestRegistryReplacesViewPerTab(t *testing.T) {
	_, client := newFakeBackend(t, map[string]string{
		"GET " + backend.PathAppointments: appointmentsBody,
		"GET " + backend.PathMessages:     `{"success":true,"message":[]}`,
	})
	reg := NewRegistry(Deps{
		Gate:    session.NewGate(signedIn()),
		Fetcher: fetch.New(client, nil),
		Putter:  client,
	})
	ctx := context.Background()

	_, err := reg.Activate(ctx, "tab-a", NameDashboard)
	require.NoError(t, err)
	_, err = reg.Activate(ctx, "tab-b", NameDashboard)
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	_, err = reg.Dashboard("tab-a")
	require.NoError(t, err)

	_, err = reg.Activate(ctx, "tab-a", NameMessages)
	require.NoError(t, err)
	_, err = reg.Dashboard("tab-a")
	assert.ErrorIs(t, err, ErrNoDashboard)
	_, err = reg.Dashboard("tab-b")
	assert.NoError(t, err)
}

func TestRegistryRedirectDiscardsPreviousView(t *testing.T) {
	_, client := newFakeBackend(t, map[string]string{"GET " + backend.PathMessages: `{"success":true,"message":[]}`})
	gate := session.NewGate(signedIn())
	reg := NewRegistry(Deps{Gate: gate, Fetcher: fetch.New(client, nil), Putter: client})

	_, err := reg.Activate(context.Background(), "tab-a", NameMessages)
	require.NoError(t, err)

	gate.Set(session.Session{})
	_, err = reg.Activate(context.Background(), "tab-a", NameDoctors)
	require.ErrorIs(t, err, session.ErrUnauthenticated)

	_, ok := reg.Active("tab-a")
	assert.False(t, ok)
}

func TestRegistryRoutesNotificationsAndPatchesToTab(t *testing.T) {
	_, client := newFakeBackend(t, map[string]string{
		"GET " + backend.PathAppointments:                appointmentsBody,
		"PUT " + backend.AppointmentUpdatePath("abc123"): `{"message":"Updated"}`,
	})

	var mu sync.Mutex
	var notifiedTabs, patchedTabs []string
	reg := NewRegistry(Deps{
		Gate:    session.NewGate(signedIn()),
		Fetcher: fetch.New(client, nil),
		Putter:  client,
		Notifier: notify.NotifierFunc(func(ctx context.Context, _ notify.Notification) {
			mu.Lock()
			defer mu.Unlock()
			notifiedTabs = append(notifiedTabs, identity.TabIDFromContext(ctx))
		}),
		OnPatched: func(_ context.Context, tabID string, v View) {
			mu.Lock()
			defer mu.Unlock()
			patchedTabs = append(patchedTabs, tabID)
		},
	})

	_, err := reg.Activate(context.Background(), "tab-z", NameDashboard)
	require.NoError(t, err)
	d, err := reg.Dashboard("tab-z")
	require.NoError(t, err)

	out := d.UpdateStatus(context.Background(), "abc123", domain.StatusRejected)
	require.True(t, out.Applied)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"tab-z"}, notifiedTabs)
	assert.Equal(t, []string{"tab-z"}, patchedTabs)
}
