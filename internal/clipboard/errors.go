package clipboard

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownRequest is returned when a response names no pending request.
	ErrUnknownRequest = errors.New("unknown clipboard request")

	// ErrRejected matches every RejectedError.
	ErrRejected = errors.New("clipboard request rejected")
)

// RejectedError is a request the script side refused, for example because
// the clipboard is not accessible.
type RejectedError struct {
	Op      string
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("clipboard %s rejected: %s", e.Op, e.Message)
}

func (e *RejectedError) Is(target error) bool { return target == ErrRejected }
