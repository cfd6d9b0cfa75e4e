package xmlnode

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is matched by every error raised when a document does not
// have the structure a caller requires.
var ErrMalformedResponse = errors.New("malformed response")

// MalformedError describes a required element, attribute or text that was missing,
// ambiguous or not parseable.
type MalformedError struct {
	Path   string
	Reason string
	Err    error
}

// Error implements the error interface
func (e *MalformedError) Error() string {
	msg := fmt.Sprintf("malformed response at %s: %s", e.path(), e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedError) path() string {
	if e.Path == "" {
		return "<absent>"
	}
	return e.Path
}

// Unwrap returns the underlying error, if any
func (e *MalformedError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrMalformedResponse
func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformedResponse
}

// Malformed builds a MalformedError for the given node.
func Malformed(n *Node, reason string, err error) *MalformedError {
	return &MalformedError{Path: n.Path(), Reason: reason, Err: err}
}
