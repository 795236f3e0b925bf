package workspace

import "errors"

var (
	ErrNoImage    = errors.New("no image staged")
	ErrNoPending  = errors.New("no pending selection")
	ErrNoColor    = errors.New("pending selection has no color")
	ErrNoResult   = errors.New("no colorization result")
	ErrBadIndex   = errors.New("hint index out of range")
	ErrSuperseded = errors.New("request superseded by newer workspace state")
)

type ValidationReason string

const (
	ReasonType       ValidationReason = "unsupported_type"
	ReasonSize       ValidationReason = "size_exceeded"
	ReasonDimensions ValidationReason = "dimensions_exceeded"
)

// ValidationError rejects an upload before any network call is made.
type ValidationError struct {
	Reason  ValidationReason
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
