package domain

import "errors"

// Domain errors
var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomFull            = errors.New("room is full")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrNotHost             = errors.New("only host can perform this action")
	ErrWrongPhase          = errors.New("invalid action for current phase")
	ErrWrongStatus         = errors.New("invalid action for current game status")
	ErrInsufficientPlayers = errors.New("not enough players to start")
	ErrNotAllReady         = errors.New("not all players are ready")
	ErrInvalidRoleSettings = errors.New("invalid role settings")
	ErrDuplicateAction     = errors.New("already acted this night")
	ErrRateLimited         = errors.New("too many messages")
	ErrValidation          = errors.New("invalid input")
)

// Error codes sent over the wire
const (
	CodeRoomNotFound        = "ROOM_NOT_FOUND"
	CodeRoomFull            = "ROOM_FULL"
	CodePlayerNotFound      = "PLAYER_NOT_FOUND"
	CodeNotHost             = "NOT_HOST"
	CodeWrongPhase          = "WRONG_PHASE"
	CodeWrongStatus         = "WRONG_STATUS"
	CodeInsufficientPlayers = "INSUFFICIENT_PLAYERS"
	CodeNotAllReady         = "NOT_ALL_READY"
	CodeInvalidRoleSettings = "INVALID_ROLE_SETTINGS"
	CodeDuplicateAction     = "DUPLICATE_ACTION"
	CodeRateLimited         = "RATE_LIMITED"
	CodeValidation          = "VALIDATION_ERROR"
	CodeInternal            = "INTERNAL_ERROR"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrRoomNotFound, CodeRoomNotFound},
	{ErrRoomFull, CodeRoomFull},
	{ErrPlayerNotFound, CodePlayerNotFound},
	{ErrNotHost, CodeNotHost},
	{ErrWrongPhase, CodeWrongPhase},
	{ErrWrongStatus, CodeWrongStatus},
	{ErrInsufficientPlayers, CodeInsufficientPlayers},
	{ErrNotAllReady, CodeNotAllReady},
	{ErrInvalidRoleSettings, CodeInvalidRoleSettings},
	{ErrDuplicateAction, CodeDuplicateAction},
	{ErrRateLimited, CodeRateLimited},
	{ErrValidation, CodeValidation},
}

// ErrorCode maps an error returned by a room operation to its wire code.
// Anything outside the domain taxonomy is reported as an internal error.
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeInternal
}
