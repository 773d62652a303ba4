package schedule

import (
	"fmt"
	"time"
)

// GridResolution is the time-snapping granularity applied to all edits,
// expressed in minutes.
type GridResolution int

const (
	Grid60 GridResolution = 60
	Grid30 GridResolution = 30
	Grid15 GridResolution = 15
)

// ParseGridResolution validates a minute count against the supported grids.
func ParseGridResolution(minutes int) (GridResolution, error) {
	switch GridResolution(minutes) {
	case Grid60, Grid30, Grid15:
		return GridResolution(minutes), nil
	default:
		return 0, fmt.Errorf("unsupported grid resolution: %d minutes", minutes)
	}
}

// Duration returns the grid step.
func (g GridResolution) Duration() time.Duration {
	return time.Duration(g) * time.Minute
}

// SeparationPolicy is the configurable minimum idle gap between consecutive
// occupancies on the same berth. Disabled unless Enforce is set.
type SeparationPolicy struct {
	Enforce       bool `json:"enforce"`
	MinGapMinutes int  `json:"min_gap_minutes"`
}

// MinGap returns the configured gap as a duration.
func (p SeparationPolicy) MinGap() time.Duration {
	return time.Duration(p.MinGapMinutes) * time.Minute
}

// Config holds the editing-engine settings.
type Config struct {
	// GridMinutes selects the snapping grid: 60, 30 or 15.
	GridMinutes int `json:"grid_minutes"`
	// Separation controls the minimum-gap rule.
	Separation SeparationPolicy `json:"separation"`
	// LockWaitMS bounds how long a commit waits for the lineage lock before
	// failing with ErrConcurrentModification.
	LockWaitMS int `json:"lock_wait_ms"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.GridMinutes == 0 {
		c.GridMinutes = int(Grid30)
	}
	if c.LockWaitMS == 0 {
		c.LockWaitMS = 5000
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if _, err := ParseGridResolution(c.GridMinutes); err != nil {
		return err
	}
	if c.Separation.MinGapMinutes < 0 {
		return fmt.Errorf("min_gap_minutes must not be negative")
	}
	if c.LockWaitMS < 0 {
		return fmt.Errorf("lock_wait_ms must not be negative")
	}
	return nil
}

// Grid returns the validated grid resolution.
func (c Config) Grid() GridResolution { return GridResolution(c.GridMinutes) }

// LockWait returns the lineage lock wait budget.
func (c Config) LockWait() time.Duration {
	return time.Duration(c.LockWaitMS) * time.Millisecond
}
