package series

import (
	"fmt"
	"strings"
)

// Resolution is the calendar granularity used to bucket dates.
type Resolution string

const (
	// ResolutionDay buckets by calendar day ("2014-03-30").
	ResolutionDay Resolution = "day"

	// ResolutionMonth buckets by calendar month ("2014-03").
	ResolutionMonth Resolution = "month"

	// ResolutionYear buckets by calendar year ("2014").
	ResolutionYear Resolution = "year"
)

// Resolutions returns every supported resolution, finest first.
func Resolutions() []Resolution {
	return []Resolution{ResolutionDay, ResolutionMonth, ResolutionYear}
}

// ParseResolution parses a resolution name case-insensitively.
func ParseResolution(s string) (Resolution, error) {
	r := Resolution(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown resolution %q (want day, month or year)", s)
	}
	return r, nil
}

// Valid reports whether r is a supported resolution.
func (r Resolution) Valid() bool {
	switch r {
	case ResolutionDay, ResolutionMonth, ResolutionYear:
		return true
	default:
		return false
	}
}

// Key returns the bucket key of d. Two dates share a bucket exactly when
// their keys are equal.
func (r Resolution) Key(d Date) string {
	switch r {
	case ResolutionYear:
		return fmt.Sprintf("%04d", d.Year)
	case ResolutionMonth:
		return fmt.Sprintf("%04d-%02d", d.Year, int(d.Month))
	default:
		return d.String()
	}
}

// String returns the upper-case resolution name.
func (r Resolution) String() string {
	return strings.ToUpper(string(r))
}
