package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/ashureev/hms-console/internal/domain"
	"github.com/ashureev/hms-console/internal/notify"
	"github.com/ashureev/hms-console/internal/views"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	emptyStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("241"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	cardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	statusStyles = map[domain.Status]lipgloss.Style{
		domain.StatusPending:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		domain.StatusAccepted: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		domain.StatusRejected: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

func renderStatus(s domain.Status) string {
	if style, ok := statusStyles[s]; ok {
		return style.Render(string(s))
	}
	return string(s)
}

func renderVisited(v bool) string {
	if v {
		return successStyle.Render("yes")
	}
	return errorStyle.Render("no")
}

func renderNotification(w io.Writer, n notify.Notification) {
	style := successStyle
	if n.Level == notify.LevelError {
		style = errorStyle
	}
	fmt.Fprintln(w, style.Render(n.Message))
}

func field(label, value string) string {
	return labelStyle.Render(label+": ") + value
}

func renderDashboard(w io.Writer, m views.DashboardModel) {
	fmt.Fprintln(w, titleStyle.Render("Hello, "+m.Operator))
	fmt.Fprintln(w, field("Total Appointments", fmt.Sprint(m.TotalAppointments)))
	fmt.Fprintln(w, field("Registered Doctors", m.RegisteredDoctors))
	fmt.Fprintln(w)

	if m.EmptyText != "" {
		fmt.Fprintln(w, emptyStyle.Render(m.EmptyText))
		return
	}

	rows := [][]string{{"ID", "Patient", "Date", "Doctor", "Department", "Status", "Visited"}}
	for _, a := range m.Appointments {
		rows = append(rows, []string{a.ID, a.Patient, a.Date, a.Doctor, a.Department, renderStatus(a.Status), renderVisited(a.Visited)})
	}
	renderTable(w, rows)
}

// renderTable pads columns to the widest cell; the first row is the header.
func renderTable(w io.Writer, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}
	for r, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			pad := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			if r == 0 {
				cell = headerStyle.Render(cell)
			}
			cells[i] = cell + pad
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " "))
	}
}

func renderDoctors(w io.Writer, m views.DoctorsModel) {
	fmt.Fprintln(w, titleStyle.Render("Doctors"))
	if m.EmptyText != "" {
		fmt.Fprintln(w, emptyStyle.Render(m.EmptyText))
		return
	}
	for _, d := range m.Doctors {
		fmt.Fprintln(w, cardStyle.Render(strings.Join([]string{
			headerStyle.Render(d.Name),
			field("Email", d.Email),
			field("Phone", d.Phone),
			field("DOB", d.DOB),
			field("Department", d.Department),
			field("NIC", d.NIC),
			field("Gender", d.Gender),
			field("Avatar", d.AvatarURL),
		}, "\n")))
	}
}

func renderMessages(w io.Writer, m views.MessagesModel) {
	fmt.Fprintln(w, titleStyle.Render("Messages"))
	if m.EmptyText != "" {
		fmt.Fprintln(w, emptyStyle.Render(m.EmptyText))
		return
	}
	for _, msg := range m.Messages {
		fmt.Fprintln(w, cardStyle.Render(strings.Join([]string{
			field("First Name", msg.FirstName),
			field("Last Name", msg.LastName),
			field("Email", msg.Email),
			field("Phone", msg.Phone),
			field("Message", msg.Message),
		}, "\n")))
	}
}

func renderView(w io.Writer, v views.View) {
	switch v := v.(type) {
	case *views.Dashboard:
		renderDashboard(w, v.DashboardModel())
	case *views.Doctors:
		renderDoctors(w, v.DoctorsModel())
	case *views.Messages:
		renderMessages(w, v.MessagesModel())
	}
}

func renderTransitions(w io.Writer, key string, ts []*domain.Transition) {
	fmt.Fprintln(w, titleStyle.Render("History for "+key))
	if len(ts) == 0 {
		fmt.Fprintln(w, emptyStyle.Render("No confirmed status changes."))
		return
	}
	rows := [][]string{{"Confirmed", "From", "To", "Operator", "Message"}}
	for _, t := range ts {
		from := "-"
		if t.From != "" {
			from = renderStatus(t.From)
		}
		rows = append(rows, []string{
			t.ConfirmedAt.Local().Format("2006-01-02 15:04:05"),
			from,
			renderStatus(t.To),
			t.OperatorID,
			t.Message,
		})
	}
	renderTable(w, rows)
}
