package ingest

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/SonJH7/status-allocation-berths/core/model"
)

// Row mirrors one raw scraped berth-assignment row before normalization.
// Timestamps arrive as free-form strings; dimensions may be missing when the
// secondary lookup did not resolve the vessel.
type Row struct {
	Vessel  string   `json:"vessel"`
	Voyage  string   `json:"voyage"`
	Berth   string   `json:"berth"`
	Start   string   `json:"start"`
	End     string   `json:"end"`
	LengthM *float64 `json:"length_m,omitempty"`
	BeamM   *float64 `json:"beam_m,omitempty"`
}

// RowError reports why one raw row was rejected during normalization.
type RowError struct {
	Index  int    `json:"index"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s: %s", e.Index, e.Field, e.Reason)
}

// Dimensions holds resolved vessel dimensions in meters.
type Dimensions struct {
	LengthM float64
	BeamM   float64
}

// DimensionResolver looks vessel dimensions up by name. Implementations wrap
// the external dimension lookup the scrape pipeline maintains.
type DimensionResolver interface {
	Lookup(vessel string) (Dimensions, bool)
}

// StaticResolver resolves dimensions from a fixed map.
type StaticResolver map[string]Dimensions

// Lookup implements DimensionResolver.
func (r StaticResolver) Lookup(vessel string) (Dimensions, bool) {
	d, ok := r[vessel]
	return d, ok
}

var missingMarkers = map[string]struct{}{
	"": {}, "-": {}, "—": {}, "N/A": {}, "NA": {}, "null": {}, "None": {},
}

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15",
	"2006-01-02",
	time.RFC3339,
}

// coerceTime parses a raw timestamp leniently: dot and slash separated dates
// are accepted, blanks and dash-like markers mean missing. The second return
// is false when the value is missing or unparseable.
func coerceTime(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if _, missing := missingMarkers[s]; missing {
		return time.Time{}, false
	}
	s = strings.NewReplacer(".", "-", "/", "-").Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// normalizeBerth reduces a free-form berth cell to its lane identifier: the
// first digit run when present, otherwise the trimmed uppercase text.
func normalizeBerth(raw string) string {
	digits := strings.Builder{}
	for _, r := range raw {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		} else if digits.Len() > 0 {
			break
		}
	}
	if digits.Len() > 0 {
		return digits.String()
	}
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Normalize converts raw rows into validated assignments. Rows missing a
// required field are reported and skipped, never silently stored. Missing
// dimensions are filled from the resolver when it knows the vessel.
func Normalize(rows []Row, resolver DimensionResolver) ([]model.Assignment, []RowError) {
	var out []model.Assignment
	var errs []RowError
	for i, r := range rows {
		vessel := strings.TrimSpace(r.Vessel)
		if vessel == "" {
			errs = append(errs, RowError{Index: i, Field: "vessel", Reason: "missing"})
			continue
		}
		berth := normalizeBerth(r.Berth)
		if berth == "" {
			errs = append(errs, RowError{Index: i, Field: "berth", Reason: "missing"})
			continue
		}
		start, ok := coerceTime(r.Start)
		if !ok {
			errs = append(errs, RowError{Index: i, Field: "start", Reason: "missing or unparseable"})
			continue
		}
		end, ok := coerceTime(r.End)
		if !ok {
			errs = append(errs, RowError{Index: i, Field: "end", Reason: "missing or unparseable"})
			continue
		}
		if !end.After(start) {
			errs = append(errs, RowError{Index: i, Field: "time", Reason: "start not before end"})
			continue
		}
		a := model.Assignment{
			Vessel:   vessel,
			Voyage:   strings.TrimSpace(r.Voyage),
			Berth:    berth,
			Terminal: model.InferTerminal(berth),
			Start:    start,
			End:      end,
			LengthM:  r.LengthM,
			BeamM:    r.BeamM,
		}
		if (a.LengthM == nil || a.BeamM == nil) && resolver != nil {
			if d, found := resolver.Lookup(vessel); found {
				if a.LengthM == nil {
					l := d.LengthM
					a.LengthM = &l
				}
				if a.BeamM == nil && d.BeamM > 0 {
					b := d.BeamM
					a.BeamM = &b
				}
			}
		}
		out = append(out, a)
	}
	return out, errs
}
