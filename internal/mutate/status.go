package mutate

import (
	"kanban-cli/internal/model"
	"kanban-cli/internal/perm"
)

type PlanKind int

const (
	// PlanNone: the selection equals the current status.
	PlanNone PlanKind = iota
	// PlanMove: plain moveTask.
	PlanMove
	// PlanReturnToDoing: a Done task going back to Doing by someone who could
	// approve it. The caller collects a reason first.
	PlanReturnToDoing
)

func (k PlanKind) String() string {
	switch k {
	case PlanNone:
		return "none"
	case PlanMove:
		return "move"
	case PlanReturnToDoing:
		return "returnToDoing"
	default:
		return "unknown"
	}
}

type StatusPlan struct {
	Kind   PlanKind
	TaskID string
	From   model.Status
	To     model.Status
}

// NeedsReason reports whether Apply expects a reason.
func (p StatusPlan) NeedsReason() bool { return p.Kind == PlanReturnToDoing }

// PlanStatusChange decides what selecting status to on t means for actor.
// Selecting Approved without approval rights is refused here, before any
// remote call.
func PlanStatusChange(actor model.Actor, t model.Task, to model.Status) (StatusPlan, error) {
	if !to.Valid() {
		return StatusPlan{}, ErrInvalidStatus
	}
	p := StatusPlan{TaskID: t.ID, From: t.Status, To: to}
	switch {
	case to == t.Status:
		p.Kind = PlanNone
	case to == model.StatusApproved && !perm.CanApproveTask(actor, t):
		return StatusPlan{}, ForbiddenError{Action: "approve", TaskID: t.ID, Msg: "Only creator/admin can approve."}
	case t.Status == model.StatusDone && to == model.StatusDoing && perm.CanApproveTask(actor, t):
		p.Kind = PlanReturnToDoing
	default:
		p.Kind = PlanMove
	}
	return p, nil
}
