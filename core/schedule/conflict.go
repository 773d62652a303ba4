package schedule

import (
	"sort"

	"github.com/SonJH7/status-allocation-berths/core/model"
)

// Validate checks a grid-aligned candidate against its sibling assignments.
// Only siblings on the candidate's berth are considered; the assignment being
// edited is excluded by id. Every offending sibling is reported, not just the
// first. Overlap outranks a minimum-gap violation when both occur.
func Validate(cand model.Assignment, siblings []model.Assignment, pol SeparationPolicy) error {
	if !cand.End.After(cand.Start) {
		return &InvalidRangeError{Start: cand.Start, End: cand.End}
	}

	lane := make([]model.Assignment, 0, len(siblings))
	for _, s := range siblings {
		if s.Berth == cand.Berth && s.ID != cand.ID {
			lane = append(lane, s)
		}
	}
	sort.Slice(lane, func(i, j int) bool { return lane[i].Start.Before(lane[j].Start) })

	var overlaps, gaps []string
	for _, s := range lane {
		if cand.Overlaps(s) {
			overlaps = append(overlaps, s.ID)
			continue
		}
		if pol.Enforce && pol.MinGapMinutes > 0 {
			if g := cand.GapTo(s); g > 0 && g < pol.MinGap() {
				gaps = append(gaps, s.ID)
			}
		}
	}
	if len(overlaps) > 0 {
		return &ConflictError{Reason: ReasonOverlap, OffendingIDs: overlaps}
	}
	if len(gaps) > 0 {
		return &ConflictError{Reason: ReasonMinGapViolation, OffendingIDs: gaps}
	}
	return nil
}
