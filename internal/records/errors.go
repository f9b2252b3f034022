package records

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrIndexOutOfRange   = errors.New("record index out of range")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAnotherLoading    = errors.New("another record is already loading")
	ErrNotPlaceholder    = errors.New("new records must be pending placeholders")
)
