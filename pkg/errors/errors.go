package errors

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration    = errors.New("configuration error")
	ErrEngineFailure    = errors.New("engine failure")
	ErrDegenerateInput  = errors.New("degenerate input")
	ErrNoQueries        = errors.New("no queries recorded")
	ErrUnknownMethod    = errors.New("unknown ranking method")
	ErrInvalidJudgement = errors.New("invalid relevance judgement")
	ErrInvalidInput     = errors.New("invalid input")
)

// Process exit codes reported by the command-line tools.
const (
	ExitFailure       = 1
	ExitConfiguration = 2
	ExitEngineFailure = 3
)

type AppError struct {
	Err     error
	Message string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, message string) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: message,
	}
}

func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap attaches a sentinel to a causal error so that both errors.Is(err,
// sentinel) and errors.Is(err, cause) hold.
func Wrap(sentinel error, cause error, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %w", sentinel, fmt.Sprintf(format, args...), cause)
}

func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrUnknownMethod):
		return ExitConfiguration
	case errors.Is(err, ErrEngineFailure):
		return ExitEngineFailure
	default:
		return ExitFailure
	}
}
