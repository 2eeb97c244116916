package views

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/ashureev/hms-console/internal/domain"
	"github.com/ashureev/hms-console/internal/fetch"
	"github.com/ashureev/hms-console/internal/reconcile"
	"github.com/ashureev/hms-console/internal/session"
)

// Dashboard placeholder texts.
const (
	NoAppointmentsText = "No Appointments Found!"
	NoDoctorsText      = "No doctors found"
	InvalidDateText    = "Invalid Date"
	NotAvailableText   = "N/A"
)

// AppointmentRow is one line of the appointment table.
type AppointmentRow struct {
	ID         string        `json:"id"`
	Patient    string        `json:"patient"`
	Date       string        `json:"date"`
	Doctor     string        `json:"doctor"`
	Department string        `json:"department"`
	Status     domain.Status `json:"status"`
	Visited    bool          `json:"visited"`
}

// DashboardModel is the render-ready dashboard.
type DashboardModel struct {
	Operator          string           `json:"operator"`
	TotalAppointments int              `json:"total_appointments"`
	DoctorCount       int              `json:"doctor_count"`
	RegisteredDoctors string           `json:"registered_doctors"`
	Appointments      []AppointmentRow `json:"appointments"`
	EmptyText         string           `json:"empty_text,omitempty"`
	Version           uint64           `json:"version"`
}

// Dashboard lists appointments and counts registered doctors.
type Dashboard struct {
	base
	reconciler *reconcile.Reconciler
}

// NewDashboard creates a dashboard view. The reconciler is bound to the
// view's own state.
func NewDashboard(sess session.Session, fetcher *fetch.Fetcher, putter reconcile.Putter, opts reconcile.Options, logger *slog.Logger) *Dashboard {
	d := &Dashboard{base: newBase(sess, fetcher, logger)}
	if opts.Logger == nil {
		opts.Logger = d.logger
	}
	if opts.OperatorID == "" && sess.Operator != nil {
		opts.OperatorID = sess.Operator.ID
	}
	d.reconciler = reconcile.New(putter, d.state, opts)
	return d
}

// Name implements View.
func (d *Dashboard) Name() Name { return NameDashboard }

// Activate implements View.
func (d *Dashboard) Activate(ctx context.Context) error {
	return d.load(ctx, NameDashboard, fetch.Appointments, fetch.Doctors)
}

// UpdateStatus changes one appointment's status, applied on confirmation.
func (d *Dashboard) UpdateStatus(ctx context.Context, key string, status domain.Status) reconcile.Outcome {
	return d.reconciler.UpdateStatus(ctx, key, status)
}

// Model implements View.
func (d *Dashboard) Model() any {
	return d.DashboardModel()
}

// DashboardModel builds the typed model.
func (d *Dashboard) DashboardModel() DashboardModel {
	appts := d.state.Get(domain.CollectionAppointment)
	doctors := d.state.Get(domain.CollectionDoctor)

	m := DashboardModel{
		Operator:          d.session.Operator.DisplayName(),
		TotalAppointments: len(appts),
		DoctorCount:       len(doctors),
		RegisteredDoctors: NoDoctorsText,
		Appointments:      make([]AppointmentRow, 0, len(appts)),
		Version:           d.state.Version(),
	}
	if len(doctors) > 0 {
		m.RegisteredDoctors = strconv.Itoa(len(doctors))
	}
	if len(appts) == 0 {
		m.EmptyText = NoAppointmentsText
	}
	for _, rec := range appts {
		m.Appointments = append(m.Appointments, appointmentRow(rec))
	}
	return m
}

func appointmentRow(rec *domain.Record) AppointmentRow {
	status, _ := rec.Status()
	row := AppointmentRow{
		ID:         rec.Key(),
		Patient:    fullName(rec),
		Date:       formatDate(rec.String("appointment_date")),
		Doctor:     NotAvailableText,
		Department: rec.String("department"),
		Status:     status,
		Visited:    rec.Bool("hasVisited"),
	}
	if doc := rec.Object("doctor"); doc != nil {
		row.Doctor = fullName(doc)
	}
	if row.Department == "" {
		row.Department = NotAvailableText
	}
	return row
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func formatDate(s string) string {
	if s == "" {
		return InvalidDateText
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return InvalidDateText
}

func fullName(rec *domain.Record) string {
	first, last := rec.String("firstName"), rec.String("lastName")
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}
