package service

import (
	"errors"
	"fmt"
)

// TransportError is a network or HTTP-level failure; no response envelope was read.
type TransportError struct {
	Action string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Action, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RejectedError is an application-level refusal (`ok:false`).
type RejectedError struct {
	Action  string
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return e.Action + ": rejected"
	}
	return e.Message
}

// DecodeError reports a response that is missing required fields or has
// malformed values.
type DecodeError struct {
	Action string
	Field  string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: malformed response: %v", e.Action, e.Err)
	}
	return fmt.Sprintf("%s: malformed response: %s: %v", e.Action, e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func IsRejected(err error) bool {
	var re *RejectedError
	return errors.As(err, &re)
}

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// UserMessage is the text shown in a blocking notification for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var re *RejectedError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	return err.Error()
}
