package tactics

import (
	"errors"
	"fmt"
)

// Code is a machine-readable rejection reason.
type Code string

const (
	CodeGameNotActive  Code = "GAME_NOT_ACTIVE"
	CodeNotYourTurn    Code = "NOT_YOUR_TURN"
	CodeNotParticipant Code = "NOT_PARTICIPANT"
	CodeInvalidUnit    Code = "INVALID_UNIT"
	CodeUnitNotOwned   Code = "UNIT_NOT_OWNED"
	CodeUnitDead       Code = "UNIT_DEAD"
	CodeOutOfBounds    Code = "OUT_OF_BOUNDS"
	CodeCellOccupied   Code = "CELL_OCCUPIED"
	CodeMoveOutOfRange Code = "MOVE_OUT_OF_RANGE"
	CodeOutOfRange     Code = "OUT_OF_RANGE"
	CodeTargetNotEnemy Code = "TARGET_NOT_ENEMY"
	CodeTargetDead     Code = "TARGET_DEAD"
	CodeAlreadyMoved   Code = "ALREADY_MOVED"
	CodeAlreadyActed   Code = "ALREADY_ACTED"

	CodeInvalidPlayer   Code = "INVALID_PLAYER"
	CodeInvalidOpponent Code = "INVALID_OPPONENT"
	CodeInvalidOptions  Code = "INVALID_OPTIONS"
	CodeWrongOpponent   Code = "WRONG_OPPONENT"
	CodeAlreadyActive   Code = "ALREADY_ACTIVE"
	CodeNotPending      Code = "NOT_PENDING"
	CodeGameClosed      Code = "GAME_CLOSED"
	CodeNotFound        Code = "NOT_FOUND"
	CodeInvalidAction   Code = "INVALID_ACTION"
)

// Error is a deterministic rejection of an action. Two errors match under
// errors.Is when their codes are equal.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError builds an Error with a formatted message.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the code of a domain error, or "" for anything else.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e.Code
	}
	return ""
}

var (
	ErrGameNotActive  = &Error{Code: CodeGameNotActive, Message: "game is not active"}
	ErrNotYourTurn    = &Error{Code: CodeNotYourTurn, Message: "not your turn"}
	ErrNotParticipant = &Error{Code: CodeNotParticipant, Message: "player is not part of this game"}
	ErrInvalidUnit    = &Error{Code: CodeInvalidUnit, Message: "unit index out of range"}
	ErrUnitNotOwned   = &Error{Code: CodeUnitNotOwned, Message: "unit belongs to the opponent"}
	ErrUnitDead       = &Error{Code: CodeUnitDead, Message: "unit is dead"}
	ErrOutOfBounds    = &Error{Code: CodeOutOfBounds, Message: "destination is off the board"}
	ErrCellOccupied   = &Error{Code: CodeCellOccupied, Message: "destination is occupied"}
	ErrMoveOutOfRange = &Error{Code: CodeMoveOutOfRange, Message: "destination is out of move range"}
	ErrOutOfRange     = &Error{Code: CodeOutOfRange, Message: "target is out of attack range"}
	ErrTargetNotEnemy = &Error{Code: CodeTargetNotEnemy, Message: "target is not an enemy unit"}
	ErrTargetDead     = &Error{Code: CodeTargetDead, Message: "target is already dead"}
	ErrAlreadyMoved   = &Error{Code: CodeAlreadyMoved, Message: "unit has already moved this turn"}
	ErrAlreadyActed   = &Error{Code: CodeAlreadyActed, Message: "unit has already acted this turn"}

	ErrInvalidPlayer   = &Error{Code: CodeInvalidPlayer, Message: "player identity is empty"}
	ErrInvalidOpponent = &Error{Code: CodeInvalidOpponent, Message: "invalid opponent"}
	ErrInvalidOptions  = &Error{Code: CodeInvalidOptions, Message: "invalid game options"}
	ErrWrongOpponent   = &Error{Code: CodeWrongOpponent, Message: "only the invited opponent may join"}
	ErrAlreadyActive   = &Error{Code: CodeAlreadyActive, Message: "game already started"}
	ErrNotPending      = &Error{Code: CodeNotPending, Message: "game is no longer pending"}
	ErrGameClosed      = &Error{Code: CodeGameClosed, Message: "game is finished or cancelled"}
	ErrNotFound        = &Error{Code: CodeNotFound, Message: "game not found"}
	ErrInvalidAction   = &Error{Code: CodeInvalidAction, Message: "unknown action"}
)

var knownCodes = func() map[Code]bool {
	m := make(map[Code]bool)
	for _, e := range []*Error{
		ErrGameNotActive, ErrNotYourTurn, ErrNotParticipant, ErrInvalidUnit, ErrUnitNotOwned,
		ErrUnitDead, ErrOutOfBounds, ErrCellOccupied, ErrMoveOutOfRange, ErrOutOfRange,
		ErrTargetNotEnemy, ErrTargetDead, ErrAlreadyMoved, ErrAlreadyActed, ErrInvalidPlayer,
		ErrInvalidOpponent, ErrInvalidOptions,
		ErrWrongOpponent, ErrAlreadyActive, ErrNotPending, ErrGameClosed, ErrNotFound, ErrInvalidAction,
	} {
		m[e.Code] = true
	}
	return m
}()

// IsCode reports whether s names a domain error code.
func IsCode(s string) bool { return knownCodes[Code(s)] }
