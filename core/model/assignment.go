package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Terminal identifies the quay a berth lane belongs to.
type Terminal string

const (
	// TerminalSND covers berth lanes 1 to 5.
	TerminalSND Terminal = "SND"
	// TerminalGAM covers berth lanes 6 to 9.
	TerminalGAM Terminal = "GAM"
	// TerminalUnknown is used when the berth number does not map to a quay.
	TerminalUnknown Terminal = ""
)

// InferTerminal derives the terminal from a berth lane identifier. Lanes are
// matched on their first digit run; non-numeric lanes map to TerminalUnknown.
func InferTerminal(berth string) Terminal {
	digits := strings.Builder{}
	for _, r := range berth {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		} else if digits.Len() > 0 {
			break
		}
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return TerminalUnknown
	}
	switch {
	case n >= 1 && n <= 5:
		return TerminalSND
	case n >= 6 && n <= 9:
		return TerminalGAM
	default:
		return TerminalUnknown
	}
}

// Assignment is one vessel's planned occupancy of one berth lane. Start and
// End form a half-open interval [Start, End).
type Assignment struct {
	ID       string    `json:"id"`
	Vessel   string    `json:"vessel"`
	Voyage   string    `json:"voyage,omitempty"`
	Berth    string    `json:"berth"`
	Terminal Terminal  `json:"terminal,omitempty"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	LengthM  *float64  `json:"length_m,omitempty"`
	BeamM    *float64  `json:"beam_m,omitempty"`
}

// Validate checks that the assignment is well formed.
func (a Assignment) Validate() error {
	if a.Vessel == "" {
		return fmt.Errorf("vessel is required")
	}
	if a.Berth == "" {
		return fmt.Errorf("berth is required")
	}
	if !a.End.After(a.Start) {
		return fmt.Errorf("start %s must precede end %s", a.Start, a.End)
	}
	return nil
}

// Duration returns the occupancy length.
func (a Assignment) Duration() time.Duration { return a.End.Sub(a.Start) }

// Overlaps reports whether the two occupancy intervals intersect using
// half-open comparison. The berth is not considered here.
func (a Assignment) Overlaps(b Assignment) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// GapTo returns the idle time between the two intervals. The result is
// negative when the intervals overlap and zero when they touch.
func (a Assignment) GapTo(b Assignment) time.Duration {
	ab := b.Start.Sub(a.End)
	ba := a.Start.Sub(b.End)
	if ab > ba {
		return ab
	}
	return ba
}
