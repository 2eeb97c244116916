package views

import (
	"context"
	"log/slog"

	"github.com/ashureev/hms-console/internal/domain"
	"github.com/ashureev/hms-console/internal/fetch"
	"github.com/ashureev/hms-console/internal/session"
)

// Directory and inbox placeholder texts.
const (
	NoRegisteredDoctorsText = "No Registered Doctors Found!"
	NoMessagesText          = "No Messages!"

	MaleAvatarPlaceholder   = "/male.jpeg"
	FemaleAvatarPlaceholder = "/female.jpeg"
)

// DoctorCard is one doctor in the directory.
type DoctorCard struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	DOB        string `json:"dob"`
	Department string `json:"department"`
	NIC        string `json:"nic"`
	Gender     string `json:"gender"`
	AvatarURL  string `json:"avatar_url"`
}

// DoctorsModel is the render-ready directory.
type DoctorsModel struct {
	Doctors   []DoctorCard `json:"doctors"`
	EmptyText string       `json:"empty_text,omitempty"`
	Version   uint64       `json:"version"`
}

// Doctors is the doctor directory view.
type Doctors struct {
	base
}

// NewDoctors creates a directory view.
func NewDoctors(sess session.Session, fetcher *fetch.Fetcher, logger *slog.Logger) *Doctors {
	return &Doctors{base: newBase(sess, fetcher, logger)}
}

// Name implements View.
func (d *Doctors) Name() Name { return NameDoctors }

// Activate implements View.
func (d *Doctors) Activate(ctx context.Context) error {
	return d.load(ctx, NameDoctors, fetch.Directory)
}

// Model implements View.
func (d *Doctors) Model() any {
	return d.DoctorsModel()
}

// DoctorsModel builds the typed model.
func (d *Doctors) DoctorsModel() DoctorsModel {
	recs := d.state.Get(domain.CollectionDoctorDirectory)
	m := DoctorsModel{Doctors: make([]DoctorCard, 0, len(recs)), Version: d.state.Version()}
	if len(recs) == 0 {
		m.EmptyText = NoRegisteredDoctorsText
	}
	for _, rec := range recs {
		m.Doctors = append(m.Doctors, doctorCard(rec))
	}
	return m
}

func doctorCard(rec *domain.Record) DoctorCard {
	return DoctorCard{
		ID:         rec.Key(),
		Name:       fullName(rec),
		Email:      rec.String("email"),
		Phone:      rec.String("phone"),
		DOB:        datePrefix(rec.String("dob")),
		Department: rec.String("doctorDepartment"),
		NIC:        rec.String("nic"),
		Gender:     rec.String("gender"),
		AvatarURL:  avatarURL(rec),
	}
}

func avatarURL(rec *domain.Record) string {
	if avatar := rec.Object("docAvatar"); avatar != nil {
		if u := avatar.String("url"); u != "" {
			return u
		}
	}
	if rec.String("gender") == "Female" {
		return FemaleAvatarPlaceholder
	}
	return MaleAvatarPlaceholder
}

// datePrefix keeps the YYYY-MM-DD part of an ISO timestamp.
func datePrefix(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}

// MessageCard is one inbound contact message.
type MessageCard struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
}

// MessagesModel is the render-ready inbox.
type MessagesModel struct {
	Messages  []MessageCard `json:"messages"`
	EmptyText string        `json:"empty_text,omitempty"`
	Version   uint64        `json:"version"`
}

// Messages is the inbound message view.
type Messages struct {
	base
}

// NewMessages creates an inbox view.
func NewMessages(sess session.Session, fetcher *fetch.Fetcher, logger *slog.Logger) *Messages {
	return &Messages{base: newBase(sess, fetcher, logger)}
}

// Name implements View.
func (m *Messages) Name() Name { return NameMessages }

// Activate implements View.
func (m *Messages) Activate(ctx context.Context) error {
	return m.load(ctx, NameMessages, fetch.Messages)
}

// Model implements View.
func (m *Messages) Model() any {
	return m.MessagesModel()
}

// MessagesModel builds the typed model.
func (m *Messages) MessagesModel() MessagesModel {
	recs := m.state.Get(domain.CollectionMessage)
	out := MessagesModel{Messages: make([]MessageCard, 0, len(recs)), Version: m.state.Version()}
	if len(recs) == 0 {
		out.EmptyText = NoMessagesText
	}
	for _, rec := range recs {
		out.Messages = append(out.Messages, MessageCard{
			ID:        rec.Key(),
			FirstName: rec.String("firstName"),
			LastName:  rec.String("lastName"),
			Email:     rec.String("email"),
			Phone:     rec.String("phone"),
			Message:   rec.String("message"),
		})
	}
	return out
}
