/*
	Photostat
	Copyright (c) 2025 Photostat Authors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package observatory

import (
	"math"
	"strings"
	"testing"
	"time"
)

// dailySeries builds a finalized-looking daily series from raw counts
// starting at the given day.
func dailySeries(start time.Time, raws []int) Series {
	s := Series{Cadence: Daily}
	for i, raw := range raws {
		d := start.AddDate(0, 0, i)
		s.Buckets = append(s.Buckets, Bucket{
			Key:   d.Format("2006-01-02"),
			Start: d,
			Raw:   raw,
		})
	}
	return s
}

func TestComputeSeriesStats(t *testing.T) {
	start := day(2023, time.March, 1)
	set := SeriesSet{
		Daily: dailySeries(start, []int{3, 0, 0, 0, 2, 5, 1, 0, 4}),
	}
	set.Weekly = Series{Cadence: Weekly, Buckets: []Bucket{
		{Key: "2023-W09", Raw: 10},
		{Key: "2023-W10", Raw: 5},
	}}
	set.Monthly = Series{Cadence: Monthly, Buckets: []Bucket{
		{Key: "2023-03", Raw: 15},
	}}

	stats := ComputeSeriesStats(set)

	if stats.TotalCaptures != 15 {
		t.Errorf("TotalCaptures = %d, want 15", stats.TotalCaptures)
	}
	if stats.TotalDays != 9 || stats.ActiveDays != 5 {
		t.Errorf("days = %d/%d, want 5/9", stats.ActiveDays, stats.TotalDays)
	}
	if want := 5.0 / 9.0; math.Abs(stats.Coverage-want) > 1e-12 {
		t.Errorf("Coverage = %v, want %v", stats.Coverage, want)
	}
	if stats.LongestStreak != 3 { // Mar 5-7
		t.Errorf("LongestStreak = %d, want 3", stats.LongestStreak)
	}
	if stats.LongestGap != 3 { // Mar 2-4
		t.Errorf("LongestGap = %d, want 3", stats.LongestGap)
	}
	if stats.PeakDay != "2023-03-06" || stats.PeakDayCount != 5 {
		t.Errorf("peak day = %s/%d, want 2023-03-06/5", stats.PeakDay, stats.PeakDayCount)
	}
	// active counts sorted: 1 2 3 4 5
	if stats.MedianActive != 3 {
		t.Errorf("MedianActive = %v, want 3", stats.MedianActive)
	}
	if want := 15.0 / 9.0; math.Abs(stats.VelocityOverall-want) > 1e-12 {
		t.Errorf("VelocityOverall = %v, want %v", stats.VelocityOverall, want)
	}
	if stats.PeakWeek != "2023-W09" || stats.PeakMonth != "2023-03" {
		t.Errorf("peaks = %s/%s", stats.PeakWeek, stats.PeakMonth)
	}
	if !stats.Start.Equal(start) || !stats.End.Equal(start.AddDate(0, 0, 8)) {
		t.Errorf("range = %s..%s", stats.Start, stats.End)
	}
}

func TestQuantile(t *testing.T) {
	sorted := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	for i, tc := range []struct {
		q    float64
		want float64
	}{
		{0, 1},
		{0.5, 5.5},
		{0.9, 9.1},
		{1, 10},
	} {
		if got := quantile(sorted, tc.q); math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("case %d: quantile(%v) = %v, want %v", i, tc.q, got, tc.want)
		}
	}
	if got := quantile([]int{7}, 0.9); got != 7 {
		t.Errorf("single element quantile = %v, want 7", got)
	}
}

func TestDecomposeWeeklyNeedsTwoWeeks(t *testing.T) {
	short := dailySeries(day(2023, time.March, 1), make([]int, 13))
	if dec := DecomposeWeekly(short); dec != nil {
		t.Error("13 days should not decompose")
	}
	long := dailySeries(day(2023, time.March, 1), make([]int, 14))
	if dec := DecomposeWeekly(long); dec == nil {
		t.Error("14 days should decompose")
	}
}

func TestDecomposeWeeklyReconstructs(t *testing.T) {
	// a weekly rhythm: busy weekends, quiet weekdays
	raws := make([]int, 56)
	start := day(2023, time.January, 2) // a Monday
	for i := range raws {
		switch start.AddDate(0, 0, i).Weekday() {
		case time.Saturday, time.Sunday:
			raws[i] = 8
		default:
			raws[i] = 2
		}
	}
	daily := dailySeries(start, raws)

	dec := DecomposeWeekly(daily)
	if dec == nil {
		t.Fatal("expected a decomposition")
	}

	// trend + seasonal + residual must reconstruct the raw series
	for i, b := range daily.Buckets {
		sum := dec.Trend[i] + dec.Seasonal[i] + dec.Resid[i]
		if math.Abs(sum-float64(b.Raw)) > 1e-9 {
			t.Fatalf("day %d: components sum to %v, raw is %d", i, sum, b.Raw)
		}
	}

	// the seasonal component sums to ~zero over one week
	var weekSum float64
	for i := 7; i < 14; i++ {
		weekSum += dec.Seasonal[i]
	}
	if math.Abs(weekSum) > 1e-9 {
		t.Errorf("seasonal sums to %v over a week, want 0", weekSum)
	}

	// weekends should carry a higher seasonal value than weekdays
	if dec.Seasonal[5] <= dec.Seasonal[2] { // Saturday vs Wednesday
		t.Errorf("Saturday seasonal %v not above Wednesday %v", dec.Seasonal[5], dec.Seasonal[2])
	}
}

func TestAnomalies(t *testing.T) {
	// a flat month with one massive spike
	raws := make([]int, 35)
	for i := range raws {
		raws[i] = 2
	}
	raws[20] = 60
	daily := dailySeries(day(2023, time.May, 1), raws)

	dec := DecomposeWeekly(daily)
	flags := Anomalies(daily, dec)

	if !flags[20] {
		t.Error("spike day not flagged as anomaly")
	}
	var flagged int
	for _, f := range flags {
		if f {
			flagged++
		}
	}
	if flagged > 3 {
		t.Errorf("%d days flagged, expected only the spike and its shadow", flagged)
	}

	// nil decomposition flags nothing
	for _, f := range Anomalies(daily, nil) {
		if f {
			t.Fatal("nil decomposition must flag nothing")
		}
	}
}

func TestYearOverYear(t *testing.T) {
	monthly := Series{Cadence: Monthly}
	start := day(2022, time.January, 1)
	for i := 0; i < 12; i++ {
		monthly.Buckets = append(monthly.Buckets, Bucket{
			Key:   start.AddDate(0, i, 0).Format("2006-01"),
			Raw:   100,
			Start: start.AddDate(0, i, 0),
		})
	}
	if _, _, ok := yearOverYear(monthly); ok {
		t.Error("12 months should not produce a YoY figure")
	}

	monthly.Buckets = append(monthly.Buckets, Bucket{Key: "2023-01", Raw: 150})
	change, month, ok := yearOverYear(monthly)
	if !ok {
		t.Fatal("13 months should produce a YoY figure")
	}
	if month != "2023-01" || math.Abs(change-0.5) > 1e-12 {
		t.Errorf("YoY = %v for %s, want 0.5 for 2023-01", change, month)
	}
}

func TestInsightsCSVOnlyMode(t *testing.T) {
	set := SeriesSet{
		Daily:   dailySeries(day(2023, time.March, 1), []int{3, 0, 2}),
		Weekly:  Series{Cadence: Weekly, Buckets: []Bucket{{Key: "2023-W09", Raw: 5}}},
		Monthly: Series{Cadence: Monthly, Buckets: []Bucket{{Key: "2023-03", Raw: 5}}},
	}
	stats := ComputeSeriesStats(set)

	lines := Insights(stats, nil, set)
	if len(lines) == 0 {
		t.Fatal("expected some insights")
	}
	for _, line := range lines {
		if strings.Contains(line, "Duplicates") || strings.Contains(line, "Hashing") {
			t.Errorf("scan-only insight in CSV mode: %q", line)
		}
	}

	scan := &ScanStats{HashingEnabled: false, Unresolved: 4}
	lines = Insights(stats, scan, set)
	var sawHashing, sawUnresolved bool
	for _, line := range lines {
		if strings.Contains(line, "Hashing disabled") {
			sawHashing = true
		}
		if strings.Contains(line, "no determinable capture date") {
			sawUnresolved = true
		}
	}
	if !sawHashing || !sawUnresolved {
		t.Errorf("missing scan insights in %q", lines)
	}
}
