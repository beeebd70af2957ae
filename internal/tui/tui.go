// Package tui is the interactive terminal board.
package tui

import (
	"context"

	"kanban-cli/internal/app"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the board and blocks until the user quits. The cursor position
// is restored from and saved to opts.State when set.
func Run(ctx context.Context, ctrl *app.Controller, opts Options) error {
	applyColorProfilePreference()
	applyThemePreference()

	m := newAppModel(ctx, ctrl, opts, nil)
	if opts.State != nil {
		if st, err := opts.State.LoadTUIState(ctx); err == nil {
			m = newAppModel(ctx, ctrl, opts, st)
		}
	}

	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(appModel); ok && opts.State != nil {
		if _, logged := ctrl.Actor(); logged {
			if err := opts.State.SaveTUIState(context.Background(), fm.tuiState()); err != nil {
				m.logger.Warn("save tui state", "err", err)
			}
		}
	}
	return nil
}
