package services

import (
	"errors"
)

type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindUnauthenticated
	KindForbidden
	KindNotFound
)

// Error is a rule violation the caller can act on. Anything else that comes
// out of a service is an internal failure.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func Unauthenticated(msg string) error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// AsError unwraps err to a *Error if it is one.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	e, ok := AsError(err)
	return ok && e.Kind == kind
}

const (
	MsgExtraFields       = "Extra fields are not allowed"
	MsgEventNotFound     = "Event not found"
	MsgQuestionNotFound  = "Question not found"
	MsgInvalidEventID    = "Invalid event ID"
	MsgInvalidQuestionID = "Invalid question ID"
	MsgUnauthorized      = "Unauthorized"

	MsgRegistrationClosed = "Registration is closed"
	MsgAlreadyRegistered  = "You are already registered"
	MsgEventAtCapacity    = "Event is at capacity"
	MsgNotEventCreator    = "You can only delete your own events"
	MsgNotEventUpdater    = "You can only update your own events"

	MsgAlreadyVoted       = "You have already voted on this question"
	MsgOwnEventQuestion   = "You cannot ask questions on your own events"
	MsgNotRegistered      = "You cannot ask questions on events you are not registered for"
	MsgCannotDelete       = "You can only delete questions that you have authored, or for events that you have created"
	MsgQuestionRequired   = "Question content is required"
	MsgInvalidCredentials = "Invalid email or password"
	MsgEmailTaken         = "Username already exists"
)
