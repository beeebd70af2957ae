package cli

import (
	"errors"
	"fmt"

	"kanban-cli/internal/app"
)

var errNotLoggedIn = errors.New("not logged in; run `kanban login --email you@domain`")

type usageError struct {
	msg string
}

func (e usageError) Error() string { return e.msg }

func errUsage(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

// loginFailed keeps the backend's refusal text, as the login prompt shows it.
func loginFailed(err error) error {
	return errors.New("Login failed: " + app.Message(err))
}
