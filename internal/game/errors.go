package game

import (
	"errors"
	"fmt"
)

// Kind identifies a rule violation. The kind string is what clients receive
// in the error message field.
type Kind string

const (
	KindRoomBusy         Kind = "RoomBusy"
	KindRoomFull         Kind = "RoomFull"
	KindDuplicateName    Kind = "DuplicateName"
	KindNotInLobby       Kind = "NotInLobby"
	KindNotYourTurn      Kind = "NotYourTurn"
	KindWrongPhase       Kind = "WrongPhase"
	KindUnknownCard      Kind = "UnknownCard"
	KindInvalidGoOut     Kind = "InvalidGoOut"
	KindEmptyDiscard     Kind = "EmptyDiscard"
	KindMalformedCommand Kind = "MalformedCommand"
)

// Error is a rule violation. Commands that fail with an Error have no side
// effects on game or room state; the violation is reported to the originator
// only.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// NewError creates an Error with a formatted detail message
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// KindOf extracts the violation kind from an error, or "" if the error is
// not a rule violation.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
