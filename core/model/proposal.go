package model

import (
	"fmt"
	"time"
)

// EditProposal is the transient input produced by the timeline UI when an
// operator drags or resizes a block. Nil fields are left unchanged. A proposal
// with only NewStart set moves the block while preserving its duration.
type EditProposal struct {
	AssignmentID string     `json:"assignment_id"`
	NewBerth     *string    `json:"new_berth,omitempty"`
	NewStart     *time.Time `json:"new_start,omitempty"`
	NewEnd       *time.Time `json:"new_end,omitempty"`
}

// Validate checks that the proposal identifies an assignment and changes
// at least one field.
func (p EditProposal) Validate() error {
	if p.AssignmentID == "" {
		return fmt.Errorf("assignment_id is required")
	}
	if p.NewBerth == nil && p.NewStart == nil && p.NewEnd == nil {
		return fmt.Errorf("proposal changes nothing")
	}
	return nil
}
