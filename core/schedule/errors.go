package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RejectReason classifies why an edit was not committed.
type RejectReason string

const (
	ReasonInvalidRange           RejectReason = "invalid_range"
	ReasonOverlap                RejectReason = "overlap"
	ReasonMinGapViolation        RejectReason = "min_gap_violation"
	ReasonUnknownVersion         RejectReason = "unknown_version"
	ReasonConcurrentModification RejectReason = "concurrent_modification"
)

// ErrUnknownVersion is returned when a referenced version id does not exist.
var ErrUnknownVersion = errors.New("unknown version")

// ErrUnknownAssignment is returned when an edit references an assignment that
// is not part of the head version.
var ErrUnknownAssignment = errors.New("unknown assignment")

// ErrConcurrentModification is returned when the lineage lock could not be
// acquired within the configured wait budget.
var ErrConcurrentModification = errors.New("lineage lock wait budget exceeded")

// InvalidRangeError reports a malformed interval after snapping.
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: start %s not before end %s",
		e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

// ConflictError reports every sibling assignment that blocks a candidate.
type ConflictError struct {
	Reason       RejectReason
	OffendingIDs []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s with assignments [%s]", e.Reason, strings.Join(e.OffendingIDs, ", "))
}

// RejectedError is the aggregate failure returned by ApplyEdit. The store is
// guaranteed untouched when one is returned.
type RejectedError struct {
	Reason       RejectReason
	OffendingIDs []string
	Err          error
}

func (e *RejectedError) Error() string {
	if len(e.OffendingIDs) > 0 {
		return fmt.Sprintf("edit rejected (%s): offending assignments [%s]",
			e.Reason, strings.Join(e.OffendingIDs, ", "))
	}
	return fmt.Sprintf("edit rejected (%s): %v", e.Reason, e.Err)
}

func (e *RejectedError) Unwrap() error { return e.Err }

// AsRejected extracts a RejectedError when err represents a rejected edit.
func AsRejected(err error) (*RejectedError, bool) {
	var rej *RejectedError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

func reject(reason RejectReason, ids []string, err error) *RejectedError {
	return &RejectedError{Reason: reason, OffendingIDs: ids, Err: err}
}
