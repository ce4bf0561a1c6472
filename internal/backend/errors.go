package backend

import (
	"errors"
	"fmt"
)

// ErrMalformedPayload marks a backend record that cannot be parsed into a
// typed model (missing identity or status). Data-shape drift is surfaced
// instead of silently defaulted away.
var ErrMalformedPayload = errors.New("malformed backend payload")

// RemarkError is an explicit backend failure: the envelope arrived but
// status.remarks was not "success".
type RemarkError struct {
	Remarks string
	Message string
}

func (e *RemarkError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend returned remarks %q", e.Remarks)
}

// AsRemarkError extracts a RemarkError from an error chain, if present.
func AsRemarkError(err error) (*RemarkError, bool) {
	var re *RemarkError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
