// Package dates maps calendar dates onto the weekly anchor grid used to
// align price observations across commodities.
package dates

import (
	"time"

	"basketwatch/pkg/contracts/domain"
)

// AnchorWeekday is the weekday every observation is aligned to.
const AnchorWeekday = time.Friday

// IsAnchorDay reports whether the date falls on the anchor weekday,
// evaluated at UTC noon.
func IsAnchorDay(d domain.AnchorDate) bool {
	if d.IsBaseline() || d.IsZero() {
		return false
	}
	return d.Time().Weekday() == AnchorWeekday
}

// NearestAnchor maps a date to its canonical weekly anchor: the most recent
// prior Friday. Baseline labels pass through unchanged, as do dates already
// on a Friday. When stepping back to Friday would cross into the previous
// calendar year the input is returned unchanged; such early-January points
// sit outside the weekly grid and aggregate as singletons. The guard is
// deliberately one-sided: there is no forward search for a same-year Friday.
func NearestAnchor(d domain.AnchorDate) domain.AnchorDate {
	if d.IsBaseline() || d.IsZero() {
		return d
	}
	t := d.Time()
	weekday := int(t.Weekday())
	if time.Weekday(weekday) == AnchorWeekday {
		return d
	}

	var back int
	switch {
	case weekday == int(time.Saturday):
		back = 1
	case weekday == int(time.Sunday):
		back = 2
	default: // Monday..Thursday
		back = weekday + 2
	}

	anchor := t.AddDate(0, 0, -back)
	if anchor.Year() != t.Year() {
		return d
	}
	return domain.MustCalendarDate(anchor.Format(domain.CalendarLayout))
}
