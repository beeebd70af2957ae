package model

import (
	"strings"
	"time"
)

type Status string

const (
	StatusToDo     Status = "To Do"
	StatusDoing    Status = "Doing"
	StatusDone     Status = "Done"
	StatusApproved Status = "Approved"
)

// Statuses returns the selectable statuses in board order.
func Statuses() []Status {
	return []Status{StatusToDo, StatusDoing, StatusDone, StatusApproved}
}

func (s Status) Valid() bool {
	switch s {
	case StatusToDo, StatusDoing, StatusDone, StatusApproved:
		return true
	default:
		return false
	}
}

// ParseStatus accepts the exact wire label or a loose alias ("todo", "doing",
// "done", "approved"), case-insensitively.
func ParseStatus(s string) (Status, bool) {
	k := strings.ToLower(strings.TrimSpace(s))
	k = strings.NewReplacer(" ", "", "-", "", "_", "").Replace(k)
	switch k {
	case "todo":
		return StatusToDo, true
	case "doing":
		return StatusDoing, true
	case "done":
		return StatusDone, true
	case "approved":
		return StatusApproved, true
	default:
		return "", false
	}
}

type Priority string

const (
	PriorityUrgent  Priority = "Urgent"
	PriorityPlanned Priority = "Planned"
	PriorityNormal  Priority = "Normal"
)

func Priorities() []Priority {
	return []Priority{PriorityUrgent, PriorityPlanned, PriorityNormal}
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityUrgent, PriorityPlanned, PriorityNormal:
		return true
	default:
		return false
	}
}

func ParsePriority(s string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "urgent":
		return PriorityUrgent, true
	case "planned":
		return PriorityPlanned, true
	case "normal":
		return PriorityNormal, true
	default:
		return "", false
	}
}

type Actor struct {
	Email string `json:"email"`
	Admin bool   `json:"admin"`
}

func (a Actor) Label() string {
	if a.Admin {
		return a.Email + " (admin)"
	}
	return a.Email
}

type Task struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	AssigneeName  string   `json:"assigneeName,omitempty"`
	AssigneeEmail string   `json:"assigneeEmail,omitempty"`
	CreatorEmail  string   `json:"creatorEmail,omitempty"`
	Priority      Priority `json:"priority,omitempty"`
	Status        Status   `json:"status"`
	DueDate       string   `json:"dueDate,omitempty"`
	Link1         string   `json:"link1,omitempty"`
	Link2         string   `json:"link2,omitempty"`
	Link3         string   `json:"link3,omitempty"`
}

func (t Task) DisplayTitle() string {
	if s := strings.TrimSpace(t.Title); s != "" {
		return s
	}
	return "(No title)"
}

func (t Task) DisplayPriority() Priority {
	if t.Priority == "" {
		return PriorityNormal
	}
	return t.Priority
}

// AssigneeLabel prefers the display name and falls back to the email.
func (t Task) AssigneeLabel() string {
	if s := strings.TrimSpace(t.AssigneeName); s != "" {
		return s
	}
	return strings.TrimSpace(t.AssigneeEmail)
}

func (t Task) Links() []string {
	out := make([]string, 0, 3)
	for _, l := range []string{t.Link1, t.Link2, t.Link3} {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// DueDay renders DueDate as a UTC calendar day (YYYY-MM-DD). The backend may
// send either a bare date or a full timestamp.
func (t Task) DueDay() string {
	return FormatDay(t.DueDate)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses the timestamp shapes the backend is known to emit.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func FormatDay(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "-"
	}
	if ts, ok := ParseTimestamp(s); ok {
		return ts.UTC().Format("2006-01-02")
	}
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d.Format("2006-01-02")
	}
	return s
}

// FormatDateTime renders a comment timestamp in local time.
func FormatDateTime(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "-"
	}
	if ts, ok := ParseTimestamp(s); ok {
		return ts.Local().Format("2006-01-02 15:04")
	}
	return s
}

type Comment struct {
	TaskID      string `json:"taskId,omitempty"`
	Text        string `json:"text"`
	AuthorEmail string `json:"authorEmail,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
