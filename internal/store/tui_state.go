package store

import (
	"context"
	"encoding/json"
)

const keyTUIState = "kanban_tui_state"

// TUIState stores small, user-facing board state for restoring the cursor on
// relaunch. It is best effort: callers should tolerate missing/invalid data.
type TUIState struct {
	Version int `json:"version"`

	// Column is the focused column index (0 To Do, 1 Doing, 2 Done).
	Column int `json:"column,omitempty"`

	// SelectedTaskID is restored when the task still exists after the first load.
	SelectedTaskID string `json:"selectedTaskId,omitempty"`

	ShowHelp bool `json:"showHelp,omitempty"`
}

func (s Store) LoadTUIState(ctx context.Context) (*TUIState, error) {
	raw, ok, err := s.GetItem(ctx, keyTUIState)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &TUIState{Version: 1}, nil
	}
	var st TUIState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		// Best-effort; if corrupted, treat as missing.
		return &TUIState{Version: 1}, nil
	}
	if st.Version == 0 {
		st.Version = 1
	}
	if st.Column < 0 || st.Column > 2 {
		st.Column = 0
	}
	return &st, nil
}

func (s Store) SaveTUIState(ctx context.Context, st *TUIState) error {
	if st == nil {
		return nil
	}
	if st.Version == 0 {
		st.Version = 1
	}
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.SetItem(ctx, keyTUIState, string(b))
}
