package app

import "kanban-cli/internal/form"

type ModalKind int

const (
	ModalClosed ModalKind = iota
	ModalForm
	ModalDetail
)

func (k ModalKind) String() string {
	switch k {
	case ModalForm:
		return "form"
	case ModalDetail:
		return "detail"
	default:
		return "closed"
	}
}

// Modal is the single open dialog, if any. TaskID is empty for a create form.
type Modal struct {
	Kind   ModalKind
	Mode   form.Mode
	TaskID string
}

func (m Modal) IsOpen() bool { return m.Kind != ModalClosed }

func (m Modal) IsDetail(taskID string) bool {
	return m.Kind == ModalDetail && m.TaskID == taskID
}
