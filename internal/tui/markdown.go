package tui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

type rendererKey struct {
	style string
	width int
}

// descriptionRenderers holds one glamour renderer per style and wrap width.
// A fixed style is used: WithAutoStyle queries the terminal and can block.
type descriptionRenderers struct {
	mu sync.Mutex
	m  map[rendererKey]*glamour.TermRenderer
}

var descriptions = &descriptionRenderers{m: map[rendererKey]*glamour.TermRenderer{}}

func (d *descriptionRenderers) get(k rendererKey) (*glamour.TermRenderer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r, ok := d.m[k]; ok {
		return r, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(k.style),
		glamour.WithWordWrap(k.width),
	)
	if err != nil {
		return nil, err
	}
	d.m[k] = r
	return r, nil
}

// renderMarkdown renders a task description for the detail modal, falling
// back to the raw text.
func renderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	r, err := descriptions.get(rendererKey{style: markdownStyle(), width: max(width, 10)})
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}
