package mutate

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidStatus = errors.New("invalid status")
	ErrNotDone       = errors.New("task is not Done")
)

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// ForbiddenError is a local permission refusal; no remote call was made.
type ForbiddenError struct {
	Action string
	TaskID string
	Msg    string
}

func (e ForbiddenError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "not allowed: " + e.Action
}

func IsForbidden(err error) bool {
	var fe ForbiddenError
	return errors.As(err, &fe)
}
