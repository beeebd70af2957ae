package model

import "testing"

func TestParseStatus_AcceptsWireLabelsAndAliases(t *testing.T) {
	tests := []struct {
		in   string
		want Status
		ok   bool
	}{
		{in: "To Do", want: StatusToDo, ok: true},
		{in: "todo", want: StatusToDo, ok: true},
		{in: "to-do", want: StatusToDo, ok: true},
		{in: " Doing ", want: StatusDoing, ok: true},
		{in: "DONE", want: StatusDone, ok: true},
		{in: "approved", want: StatusApproved, ok: true},
		{in: "archived", ok: false},
		{in: "", ok: false},
	}
	for _, tt := range tests {
		got, ok := ParseStatus(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("ParseStatus(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestTask_DisplayFallbacks(t *testing.T) {
	var tk Task
	if got := tk.DisplayTitle(); got != "(No title)" {
		t.Fatalf("DisplayTitle: got %q", got)
	}
	if got := tk.DisplayPriority(); got != PriorityNormal {
		t.Fatalf("DisplayPriority: got %q", got)
	}
	if got := tk.DueDay(); got != "-" {
		t.Fatalf("DueDay empty: got %q", got)
	}

	tk.AssigneeEmail = "lita@cloverth.net"
	if got := tk.AssigneeLabel(); got != "lita@cloverth.net" {
		t.Fatalf("AssigneeLabel fallback: got %q", got)
	}
	tk.AssigneeName = "Lita"
	if got := tk.AssigneeLabel(); got != "Lita" {
		t.Fatalf("AssigneeLabel: got %q", got)
	}

	tk.Link2 = " https://example.com "
	if got := tk.Links(); len(got) != 1 || got[0] != "https://example.com" {
		t.Fatalf("Links: got %#v", got)
	}
}

func TestFormatDay(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "2025-03-04", want: "2025-03-04"},
		{in: "2025-03-04T17:00:00.000Z", want: "2025-03-04"},
		{in: "2025-03-04T23:30:00-05:00", want: "2025-03-05"},
		{in: "next week", want: "next week"},
		{in: "", want: "-"},
	}
	for _, tt := range tests {
		if got := FormatDay(tt.in); got != tt.want {
			t.Fatalf("FormatDay(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
