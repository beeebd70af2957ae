package web

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"kanban-cli/internal/app"

	"github.com/starfederation/datastar-go/datastar"
)

const streamKeepAlive = 25 * time.Second

// handleBoardStream re-renders the board on every poll tick. A tick while a
// load is still running is skipped.
func (s *Server) handleBoardStream(w http.ResponseWriter, r *http.Request) {
	ws := sessionFrom(r.Context())
	sse := datastar.NewSSE(w, r)

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	var tick <-chan time.Time
	if s.cfg.PollInterval > 0 {
		t := time.NewTicker(s.cfg.PollInterval)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-sse.Context().Done():
			return
		case <-keepAlive.C:
			_ = sse.PatchSignals([]byte(`{}`))
		case <-tick:
			if ws.ctrl.Loading() {
				continue
			}
			if _, err := ws.ctrl.Refresh(sse.Context()); err != nil {
				s.logger.Warn("board stream reload failed", "err", err)
				_ = sse.PatchElements(flashHTML(app.LoadErrorMessage(err)), datastar.WithSelector("#flash"), datastar.WithMode(datastar.ElementPatchModeOuter))
				continue
			}
			html, err := s.renderTemplate("board", s.boardVM(ws))
			if err != nil {
				_ = sse.ExecuteScript(fmt.Sprintf(`console.error(%q)`, err.Error()))
				continue
			}
			_ = sse.PatchElements(html, datastar.WithSelector("#board"), datastar.WithMode(datastar.ElementPatchModeOuter))
		}
	}
}

func flashHTML(msg string) string {
	return `<div id="flash" class="flash" role="alert">` + template.HTMLEscapeString(msg) + `</div>`
}
