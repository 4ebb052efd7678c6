package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

// CalendarLayout is the wire format for calendar anchor dates.
const CalendarLayout = "2006-01-02"

// DisplayLayout is the human-readable rendering used for formatted dates.
const DisplayLayout = "Jan 2, 2006"

var baselineLabelRe = regexp.MustCompile(`^(\d{4}) Avg$`)

// AnchorDate is a tagged variant: either a calendar date (YYYY-MM-DD) or a
// baseline label such as "2024 Avg". The baseline label always sorts before
// any calendar date. The zero value is invalid and marshals to "".
type AnchorDate struct {
	day          string
	baselineYear int
}

// CalendarDate parses a YYYY-MM-DD string into a calendar AnchorDate.
func CalendarDate(s string) (AnchorDate, error) {
	if _, err := time.Parse(CalendarLayout, s); err != nil {
		return AnchorDate{}, fmt.Errorf("invalid calendar date %q: %w", s, err)
	}
	return AnchorDate{day: s}, nil
}

// MustCalendarDate is CalendarDate for trusted literals; panics on bad input.
func MustCalendarDate(s string) AnchorDate {
	d, err := CalendarDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// BaselineAnchor returns the baseline label anchor for the given year,
// rendered as "<year> Avg".
func BaselineAnchor(year int) AnchorDate {
	return AnchorDate{baselineYear: year}
}

// ParseAnchorDate accepts either a calendar date or a baseline label.
func ParseAnchorDate(s string) (AnchorDate, error) {
	if m := baselineLabelRe.FindStringSubmatch(s); m != nil {
		var year int
		fmt.Sscanf(m[1], "%d", &year)
		return BaselineAnchor(year), nil
	}
	return CalendarDate(s)
}

// IsBaseline reports whether the anchor is the baseline label.
func (d AnchorDate) IsBaseline() bool { return d.baselineYear != 0 }

// IsZero reports whether the anchor holds neither variant.
func (d AnchorDate) IsZero() bool { return d.day == "" && d.baselineYear == 0 }

// String renders the wire form: the calendar date or the baseline label.
func (d AnchorDate) String() string {
	if d.IsBaseline() {
		return fmt.Sprintf("%d Avg", d.baselineYear)
	}
	return d.day
}

// Display renders the anchor for presentation. Calendar dates become
// "Jan 2, 2006"; the baseline label passes through unchanged.
func (d AnchorDate) Display() string {
	if d.IsBaseline() || d.IsZero() {
		return d.String()
	}
	return d.Time().Format(DisplayLayout)
}

// Time returns the calendar date at UTC noon, avoiding weekday flips at
// timezone boundaries. Baseline and zero anchors return the zero time.
func (d AnchorDate) Time() time.Time {
	if d.day == "" {
		return time.Time{}
	}
	t, err := time.Parse(CalendarLayout, d.day)
	if err != nil {
		return time.Time{}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.UTC)
}

// Year returns the calendar year of the anchor, or the labeled year for a
// baseline anchor. Zero anchors return 0.
func (d AnchorDate) Year() int {
	if d.IsBaseline() {
		return d.baselineYear
	}
	if d.day == "" {
		return 0
	}
	return d.Time().Year()
}

// Before orders anchors ascending with the baseline label pinned first.
// YYYY-MM-DD strings order lexicographically, which matches chronology.
func (d AnchorDate) Before(other AnchorDate) bool {
	if d.IsBaseline() {
		return !other.IsBaseline() || d.baselineYear < other.baselineYear
	}
	if other.IsBaseline() {
		return false
	}
	return d.day < other.day
}

// MarshalJSON encodes the anchor as its wire string.
func (d AnchorDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes either variant; empty strings yield the zero anchor.
func (d *AnchorDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = AnchorDate{}
		return nil
	}
	parsed, err := ParseAnchorDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
