package domain

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnchorDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		baseline bool
		wantErr  bool
	}{
		{name: "calendar date", input: "2025-01-03"},
		{name: "baseline label", input: "2024 Avg", baseline: true},
		{name: "other year label", input: "2019 Avg", baseline: true},
		{name: "invalid date", input: "2025-13-40", wantErr: true},
		{name: "wrong layout", input: "01/03/2025", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseAnchorDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.baseline, d.IsBaseline())
			assert.Equal(t, tt.input, d.String())
		})
	}
}

func TestAnchorDateOrdering(t *testing.T) {
	anchors := []AnchorDate{
		MustCalendarDate("2025-02-07"),
		MustCalendarDate("2025-01-03"),
		BaselineAnchor(2024),
		MustCalendarDate("2025-01-10"),
	}
	sort.Slice(anchors, func(i, j int) bool { return anchors[i].Before(anchors[j]) })

	got := make([]string, len(anchors))
	for i, a := range anchors {
		got[i] = a.String()
	}
	assert.Equal(t, []string{"2024 Avg", "2025-01-03", "2025-01-10", "2025-02-07"}, got)
}

func TestAnchorDateJSONRoundTrip(t *testing.T) {
	type doc struct {
		Date AnchorDate `json:"date"`
	}

	for _, raw := range []string{`{"date":"2025-01-03"}`, `{"date":"2024 Avg"}`} {
		var d doc
		require.NoError(t, json.Unmarshal([]byte(raw), &d))
		out, err := json.Marshal(d)
		require.NoError(t, err)
		assert.JSONEq(t, raw, string(out))
	}
}

func TestAnchorDateDisplay(t *testing.T) {
	assert.Equal(t, "Jan 3, 2025", MustCalendarDate("2025-01-03").Display())
	assert.Equal(t, "2024 Avg", BaselineAnchor(2024).Display())
}

func TestAnchorDateYear(t *testing.T) {
	assert.Equal(t, 2025, MustCalendarDate("2025-06-13").Year())
	assert.Equal(t, 2024, BaselineAnchor(2024).Year())
	assert.Equal(t, 0, AnchorDate{}.Year())
}

func TestSortObservationsUniqueByDate(t *testing.T) {
	prices := []PriceObservation{
		{Date: MustCalendarDate("2025-01-10"), Price: 2},
		{Date: BaselineAnchor(2024), Price: 3},
		{Date: MustCalendarDate("2025-01-03"), Price: 1},
	}
	SortObservations(prices)

	assert.True(t, prices[0].Date.IsBaseline())
	assert.Equal(t, "2025-01-03", prices[1].Date.String())
	assert.Equal(t, "2025-01-10", prices[2].Date.String())

	series := CommoditySeries{Prices: prices}
	assert.True(t, series.HasDate(MustCalendarDate("2025-01-03")))
	assert.False(t, series.HasDate(MustCalendarDate("2025-01-17")))
}
