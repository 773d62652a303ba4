package schedule

import (
	"time"

	"github.com/SonJH7/status-allocation-berths/core/model"
)

// snapTime rounds t to the nearest grid multiple counted from midnight of t's
// own day, round-half-up. The supported grids all divide 24h, so the per-day
// epoch yields the same lattice as a global one.
func snapTime(t time.Time, grid GridResolution) time.Time {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	step := grid.Duration()
	offset := t.Sub(midnight)
	snapped := (offset + step/2) / step * step
	return midnight.Add(snapped)
}

// Snap converts a raw proposal into a grid-aligned candidate assignment.
// NewStart alone is a drag of the whole block: the snapped start carries the
// original duration, so the end moves with it. NewEnd alone is a resize and
// snaps that boundary against the unchanged start. Both boundaries together
// are a drag when their distance equals the current duration, otherwise a
// resize snapping each moved boundary independently. The input assignment is
// not modified.
func Snap(cur model.Assignment, p model.EditProposal, grid GridResolution) (model.Assignment, error) {
	out := cur
	if p.NewBerth != nil {
		out.Berth = *p.NewBerth
		out.Terminal = model.InferTerminal(out.Berth)
	}
	move := p.NewStart != nil && p.NewEnd == nil ||
		p.NewStart != nil && p.NewEnd != nil && p.NewEnd.Sub(*p.NewStart) == cur.Duration()
	if move {
		// Drag of the whole block: carry the duration.
		out.Start = snapTime(*p.NewStart, grid)
		out.End = out.Start.Add(cur.Duration())
	} else {
		if p.NewStart != nil {
			out.Start = snapTime(*p.NewStart, grid)
		}
		if p.NewEnd != nil {
			out.End = snapTime(*p.NewEnd, grid)
		}
	}
	if !out.End.After(out.Start) {
		return model.Assignment{}, &InvalidRangeError{Start: out.Start, End: out.End}
	}
	return out, nil
}
