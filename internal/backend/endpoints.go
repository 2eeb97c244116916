package backend

import (
	"bytes"
	"encoding/json"
	"net/url"
)

// Backend REST surface, relative to the configured base URL.
const (
	PathAppointments     = "/api/v1/appointment/getall"
	PathDoctors          = "/api/v1/doctor/getall"
	PathDoctorsDirectory = "/api/v1/user/doctors"
	PathMessages         = "/api/v1/message/getall"
	PathCurrentAdmin     = "/api/v1/user/admin/me"
)

// AppointmentUpdatePath returns the status-update path for one appointment.
func AppointmentUpdatePath(id string) string {
	return "/api/v1/appointment/update/" + url.PathEscape(id)
}

// StatusUpdate is the body of an appointment status update.
type StatusUpdate struct {
	Status string `json:"status"`
}

// AckMessage extracts the message from a 2xx mutation body. It reads the
// "message" field of a JSON object or a bare JSON string and returns "" for
// anything else.
func AckMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	if body[0] == '"' {
		var msg string
		if err := json.Unmarshal(body, &msg); err == nil {
			return msg
		}
		return ""
	}
	return messageFromBody(body)
}
