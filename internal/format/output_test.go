package format

import (
	"bytes"
	"strings"
	"testing"
)

type sample struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

func TestWrite_JSONUsesTags(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, map[string]any{"data": sample{ID: "t1"}}, "", false); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "{\"data\":{\"id\":\"t1\"}}\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestWrite_YAMLFollowsJSONNames(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, map[string]any{"data": sample{ID: "t1", Title: "Ship"}}, "yaml", false); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"data:", "  id: t1", "  title: Ship"} {
		if !strings.Contains(out, want) {
			t.Fatalf("yaml output missing %q:\n%s", want, out)
		}
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, nil, "edn", false); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
