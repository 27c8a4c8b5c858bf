package core

import "errors"

// Error codes
const (
	ErrCodeMatchNotRunning   = "MATCH_NOT_RUNNING"
	ErrCodeMatchNotStarted   = "MATCH_NOT_STARTED"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeInvalidContent    = "INVALID_CONTENT_TYPE"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

var (
	// ErrNoMove means an engine produced no usable move for the turn
	ErrNoMove = errors.New("engine returned no move")
	// ErrEngineTimeout means the reply deadline elapsed first
	ErrEngineTimeout = errors.New("engine reply deadline exceeded")
	// ErrEngineExited means stdout closed before the reply line
	ErrEngineExited = errors.New("engine closed unexpectedly")
	// ErrProtocol means a reply line could not be decoded
	ErrProtocol = errors.New("unparsable engine reply")

	ErrIllegalMove    = errors.New("illegal move")
	ErrGameOver       = errors.New("game is over")
	ErrEngineNotFound = errors.New("engine binary not found")
)
