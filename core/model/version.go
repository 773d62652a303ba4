package model

import (
	"fmt"
	"sort"
	"time"
)

// Source records how a version entered the chain.
type Source string

const (
	SourceIngest Source = "ingest"
	SourceEdit   Source = "edit"
	SourceRevert Source = "revert"
)

// Version is an immutable snapshot of the full assignment set. The assignment
// set itself is stored alongside the version by the schedule store; Diff keeps
// the minimal change set against ParentID.
type Version struct {
	ID        string    `json:"id"`
	Seq       int64     `json:"seq"`
	ParentID  string    `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Label     string    `json:"label,omitempty"`
	Source    Source    `json:"source"`
	Diff      Diff      `json:"diff,omitempty"`
}

// ChangeKind classifies one entry of a diff.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeRemoved  ChangeKind = "removed"
	ChangeModified ChangeKind = "modified"
)

// FieldChange records one modified field with its before and after values
// rendered as strings for display.
type FieldChange struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// Change describes what happened to a single assignment between two versions.
// After carries the resulting assignment for added and modified entries so a
// diff can be replayed onto its base set.
type Change struct {
	AssignmentID string        `json:"assignment_id"`
	Kind         ChangeKind    `json:"kind"`
	Fields       []FieldChange `json:"fields,omitempty"`
	After        *Assignment   `json:"after,omitempty"`
}

// Diff is the minimal set of assignment changes between two versions.
type Diff []Change

// Empty reports whether the diff contains no changes.
func (d Diff) Empty() bool { return len(d) == 0 }

func fmtTime(t time.Time) string { return t.Format(time.RFC3339) }

func fmtDim(p *float64) string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("%.1f", *p)
}

func fieldChanges(from, to Assignment) []FieldChange {
	var out []FieldChange
	add := func(field, f, t string) {
		if f != t {
			out = append(out, FieldChange{Field: field, From: f, To: t})
		}
	}
	add("vessel", from.Vessel, to.Vessel)
	add("voyage", from.Voyage, to.Voyage)
	add("berth", from.Berth, to.Berth)
	add("start", fmtTime(from.Start), fmtTime(to.Start))
	add("end", fmtTime(from.End), fmtTime(to.End))
	add("length_m", fmtDim(from.LengthM), fmtDim(to.LengthM))
	add("beam_m", fmtDim(from.BeamM), fmtDim(to.BeamM))
	return out
}

// ComputeDiff returns the change set that transforms the from set into the to
// set. Entries are ordered by assignment id for deterministic output.
func ComputeDiff(from, to []Assignment) Diff {
	fromByID := make(map[string]Assignment, len(from))
	for _, a := range from {
		fromByID[a.ID] = a
	}
	toByID := make(map[string]Assignment, len(to))
	for _, a := range to {
		toByID[a.ID] = a
	}

	var diff Diff
	for id, b := range toByID {
		a, ok := fromByID[id]
		if !ok {
			after := b
			diff = append(diff, Change{AssignmentID: id, Kind: ChangeAdded, After: &after})
			continue
		}
		if fc := fieldChanges(a, b); len(fc) > 0 {
			after := b
			diff = append(diff, Change{AssignmentID: id, Kind: ChangeModified, Fields: fc, After: &after})
		}
	}
	for id := range fromByID {
		if _, ok := toByID[id]; !ok {
			diff = append(diff, Change{AssignmentID: id, Kind: ChangeRemoved})
		}
	}
	sort.Slice(diff, func(i, j int) bool { return diff[i].AssignmentID < diff[j].AssignmentID })
	return diff
}

// Apply replays the diff onto base and returns the resulting assignment set
// sorted by id. Applying ComputeDiff(a, b) to a reconstructs b.
func (d Diff) Apply(base []Assignment) []Assignment {
	byID := make(map[string]Assignment, len(base))
	for _, a := range base {
		byID[a.ID] = a
	}
	for _, c := range d {
		switch c.Kind {
		case ChangeRemoved:
			delete(byID, c.AssignmentID)
		case ChangeAdded, ChangeModified:
			if c.After != nil {
				byID[c.AssignmentID] = *c.After
			}
		}
	}
	out := make([]Assignment, 0, len(byID))
	for _, a := range byID {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
