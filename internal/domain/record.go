package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
)

// KeyField is the backend's record identifier field.
const KeyField = "_id"

// StatusField is the only record field this console mutates.
const StatusField = "status"

// Record is a backend entity whose fields are opaque to the console.
// A Record is never modified after construction; use With to derive a changed copy.
type Record struct {
	fields map[string]json.RawMessage
}

// NewRecord builds a record from raw JSON fields. The map is copied.
func NewRecord(fields map[string]json.RawMessage) *Record {
	return &Record{fields: maps.Clone(fields)}
}

// Key returns the record's opaque unique key, or "" when absent.
func (r *Record) Key() string {
	return r.String(KeyField)
}

// Status returns the decoded status field. Unknown or absent values
// return "" and false.
func (r *Record) Status() (Status, bool) {
	s, err := ParseStatus(r.String(StatusField))
	if err != nil {
		return "", false
	}
	return s, true
}

// Has reports whether the field is present and not null.
func (r *Record) Has(field string) bool {
	raw, ok := r.fields[field]
	return ok && !isNull(raw)
}

// String returns a string field, or "" if absent or not a string.
func (r *Record) String(field string) string {
	raw, ok := r.fields[field]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// Bool returns a boolean field, false if absent or not a boolean.
func (r *Record) Bool(field string) bool {
	raw, ok := r.fields[field]
	if !ok {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false
	}
	return b
}

// Object returns a nested object field as a Record, or nil when the
// field is absent, null, or not an object.
func (r *Record) Object(field string) *Record {
	raw, ok := r.fields[field]
	if !ok || isNull(raw) {
		return nil
	}
	var nested map[string]json.RawMessage
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil
	}
	return &Record{fields: nested}
}

// With returns a copy of the record with field set to value.
func (r *Record) With(field string, value any) (*Record, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode field %s: %w", field, err)
	}
	fields := maps.Clone(r.fields)
	if fields == nil {
		fields = make(map[string]json.RawMessage, 1)
	}
	fields[field] = raw
	return &Record{fields: fields}, nil
}

// MarshalJSON emits the record's fields unchanged.
func (r *Record) MarshalJSON() ([]byte, error) {
	if r.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.fields)
}

// UnmarshalJSON decodes a JSON object into the record.
func (r *Record) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("record must be a JSON object")
	}
	r.fields = fields
	return nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Collection is an ordered sequence of records of one kind.
// A nil Collection and an empty one both mean "no records".
type Collection []*Record

// Len returns the number of records.
func (c Collection) Len() int {
	return len(c)
}

// Find returns the record with the given key and its index.
func (c Collection) Find(key string) (*Record, int) {
	for i, rec := range c {
		if rec != nil && rec.Key() == key {
			return rec, i
		}
	}
	return nil, -1
}

// CollectionName identifies one slot of view state.
type CollectionName string

const (
	// CollectionAppointment holds appointments listed on the dashboard.
	CollectionAppointment CollectionName = "appointment"
	// CollectionDoctor holds doctors counted on the dashboard.
	CollectionDoctor CollectionName = "doctor"
	// CollectionDoctorDirectory holds doctors shown in the directory view.
	// It is served by a different endpoint than CollectionDoctor.
	CollectionDoctorDirectory CollectionName = "doctor_directory"
	// CollectionMessage holds inbound contact messages.
	CollectionMessage CollectionName = "message"
)
