// Package board holds the cached task list and its column layout.
package board

import (
	"strings"

	"kanban-cli/internal/model"
)

// Column indexes in board order.
const (
	ColToDo = iota
	ColDoing
	ColDone
	NumColumns
)

// Column is one status bucket. Target is the status a drop onto the column
// assigns.
type Column struct {
	Key    string
	Title  string
	Target model.Status
	Tasks  []model.Task
}

func (c Column) Count() int { return len(c.Tasks) }

var columnDefs = [NumColumns]Column{
	{Key: "todo", Title: "To Do", Target: model.StatusToDo},
	{Key: "doing", Title: "Doing", Target: model.StatusDoing},
	{Key: "done", Title: "Done", Target: model.StatusDone},
}

// ColumnFor maps a status to its column. Approved shares the Done column.
func ColumnFor(s model.Status) int {
	switch s {
	case model.StatusToDo:
		return ColToDo
	case model.StatusDoing:
		return ColDoing
	default:
		return ColDone
	}
}

// Partition splits tasks into the three columns, preserving input order
// within each. Every task lands in exactly one column.
func Partition(tasks []model.Task) [NumColumns]Column {
	cols := columnDefs
	for i := range cols {
		cols[i].Tasks = nil
	}
	for _, t := range tasks {
		i := ColumnFor(t.Status)
		cols[i].Tasks = append(cols[i].Tasks, t)
	}
	return cols
}

// ColumnDef returns the static definition (no tasks) of column i.
func ColumnDef(i int) (Column, bool) {
	if i < 0 || i >= NumColumns {
		return Column{}, false
	}
	return columnDefs[i], true
}

// ParseColumn accepts a column key ("todo", "doing", "done") or a status
// label and returns the column index.
func ParseColumn(s string) (int, bool) {
	k := strings.ToLower(strings.TrimSpace(s))
	for i, c := range columnDefs {
		if k == c.Key {
			return i, true
		}
	}
	if st, ok := model.ParseStatus(s); ok {
		return ColumnFor(st), true
	}
	return 0, false
}
