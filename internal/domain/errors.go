package domain

import "errors"

// Domain errors
var (
	ErrQuizNotFound        = errors.New("quiz not found")
	ErrQuestionNotFound    = errors.New("question not found")
	ErrMatchNotFound       = errors.New("match not found")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrParticipantNotFound = errors.New("player not found in match")
	ErrAdminNotFound       = errors.New("admin not found")

	ErrInvalidChoice       = errors.New("invalid choice or question")
	ErrMatchEnded          = errors.New("match has already ended")
	ErrMatchAlreadyStarted = errors.New("match not found or already started")
	ErrSlugTaken           = errors.New("slug is already in use")
	ErrInvalidSlug         = errors.New("slug must contain only lowercase letters, numbers and hyphens")
	ErrInvalidPIN          = errors.New("pin must be exactly 4 digits")
	ErrPINExhausted        = errors.New("could not generate a unique pin")

	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrAlreadyInitialized = errors.New("database is already initialized")

	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalError  = errors.New("internal server error")
)

// MissingFieldError reports a required request field that was absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "missing " + e.Field
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrInvalidRequest
}

// UnknownMatchError reports a match slug that resolved to nothing.
type UnknownMatchError struct {
	Slug string
}

func (e *UnknownMatchError) Error() string {
	return "no match for slug " + e.Slug
}

func (e *UnknownMatchError) Is(target error) bool {
	return target == ErrMatchNotFound
}

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrMatchNotFound) ||
		errors.Is(err, ErrPlayerNotFound) ||
		errors.Is(err, ErrParticipantNotFound) ||
		errors.Is(err, ErrAdminNotFound)
}

// IsValidationError checks if an error was caused by bad client input.
// Validation failures abort before any state is written and map to a 4xx response.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidChoice) ||
		errors.Is(err, ErrMatchEnded) ||
		errors.Is(err, ErrMatchAlreadyStarted) ||
		errors.Is(err, ErrSlugTaken) ||
		errors.Is(err, ErrInvalidSlug) ||
		errors.Is(err, ErrInvalidPIN) ||
		errors.Is(err, ErrInvalidRequest)
}
