package catalog

import (
	"fmt"
	"sort"

	"go.uber.org/multierr"
)

type Severity uint8

const (
	// SeverityWarning marks content that was loaded with something dropped.
	SeverityWarning Severity = iota
	// SeverityError marks a tile left out of the catalog.
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is one problem found for one tile.
type Diagnostic struct {
	TileID   int
	Severity Severity
	Err      error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s tile %d: %v", d.Severity, d.TileID, d.Err)
}

// Report accompanies every successful load, even when nothing went wrong.
type Report struct {
	Tables int
	Tiles  int
	Loaded int

	Diagnostics []Diagnostic // ordered by tile ID, then as found

	excluded []int
}

func (r *Report) add(tileID int, sev Severity, err error) {
	if sev == SeverityError {
		if n := len(r.excluded); n == 0 || r.excluded[n-1] != tileID {
			r.excluded = append(r.excluded, tileID)
		}
	}
	for _, e := range multierr.Errors(err) {
		r.Diagnostics = append(r.Diagnostics, Diagnostic{TileID: tileID, Severity: sev, Err: e})
	}
}

// Excluded returns the IDs of tiles that failed to merge, ascending.
func (r *Report) Excluded() []int {
	out := make([]int, len(r.excluded))
	copy(out, r.excluded)
	sort.Ints(out)
	return out
}

// For returns the diagnostics recorded for one tile.
func (r *Report) For(tileID int) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.TileID == tileID {
			out = append(out, d)
		}
	}
	return out
}

// HasErrors reports whether any tile was excluded.
func (r *Report) HasErrors() bool {
	return len(r.excluded) > 0
}

func (r *Report) ErrorCount() int   { return r.count(SeverityError) }
func (r *Report) WarningCount() int { return r.count(SeverityWarning) }

func (r *Report) count(sev Severity) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Severity == sev {
			n++
		}
	}
	return n
}
