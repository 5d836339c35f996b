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
	"fmt"
	"math"
	"sort"
	"time"
)

// SeriesStats are the figures derivable from the finalized series
// alone, so they are available in both scan mode and CSV-only mode.
type SeriesStats struct {
	Start time.Time
	End   time.Time

	TotalCaptures int
	ActiveDays    int
	TotalDays     int
	Coverage      float64 // active days / total days

	MedianActive float64 // median daily count over active days
	P90Active    float64

	LongestStreak int // consecutive active days
	LongestGap    int // consecutive empty days

	PeakDay      string
	PeakDayCount int
	PeakWeek     string
	PeakMonth    string

	Velocity30      float64 // mean captures/day over the last 30 days
	Velocity90      float64
	VelocityOverall float64
}

// ComputeSeriesStats derives stats from a finalized series set.
func ComputeSeriesStats(set SeriesSet) SeriesStats {
	daily := set.Daily.Buckets
	stats := SeriesStats{
		TotalCaptures: set.Daily.Total(),
		TotalDays:     len(daily),
	}
	if len(daily) == 0 {
		return stats
	}
	stats.Start = daily[0].Start
	stats.End = daily[len(daily)-1].Start

	var active []int
	var streak, gap int
	for _, b := range daily {
		if b.Raw > 0 {
			active = append(active, b.Raw)
			streak++
			gap = 0
			if streak > stats.LongestStreak {
				stats.LongestStreak = streak
			}
		} else {
			gap++
			streak = 0
			if gap > stats.LongestGap {
				stats.LongestGap = gap
			}
		}
		if b.Raw > stats.PeakDayCount {
			stats.PeakDayCount = b.Raw
			stats.PeakDay = b.Key
		}
	}

	stats.ActiveDays = len(active)
	stats.Coverage = float64(stats.ActiveDays) / float64(stats.TotalDays)
	if len(active) > 0 {
		sort.Ints(active)
		stats.MedianActive = quantile(active, 0.5)
		stats.P90Active = quantile(active, 0.9)
	}

	stats.Velocity30 = tailMean(daily, 30)
	stats.Velocity90 = tailMean(daily, 90)
	stats.VelocityOverall = tailMean(daily, len(daily))

	stats.PeakWeek = peakKey(set.Weekly.Buckets)
	stats.PeakMonth = peakKey(set.Monthly.Buckets)

	return stats
}

// quantile interpolates the q-quantile of a sorted int slice.
func quantile(sorted []int, q float64) float64 {
	if len(sorted) == 1 {
		return float64(sorted[0])
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return float64(sorted[lo])*(1-frac) + float64(sorted[hi])*frac
}

func tailMean(daily []Bucket, n int) float64 {
	if n > len(daily) {
		n = len(daily)
	}
	if n == 0 {
		return 0
	}
	var sum int
	for _, b := range daily[len(daily)-n:] {
		sum += b.Raw
	}
	return float64(sum) / float64(n)
}

func peakKey(buckets []Bucket) string {
	var key string
	best := -1
	for _, b := range buckets {
		if b.Raw > best {
			best = b.Raw
			key = b.Key
		}
	}
	return key
}

// Decomposition splits the daily series into a moving-average trend, a
// day-of-week seasonal component, and a residual. It's deliberately
// simple so the result is deterministic and dependency-free, but it
// separates the weekly rhythm from real activity changes well enough
// for anomaly flagging.
type Decomposition struct {
	Trend    []float64
	Seasonal []float64
	Resid    []float64
}

const seasonalPeriod = 7

// DecomposeWeekly decomposes the daily series; it returns nil when
// there is less than two weeks of data, which is too little to
// estimate a weekly season from.
func DecomposeWeekly(daily Series) *Decomposition {
	n := len(daily.Buckets)
	if n < 2*seasonalPeriod {
		return nil
	}

	dec := &Decomposition{
		Trend:    make([]float64, n),
		Seasonal: make([]float64, n),
		Resid:    make([]float64, n),
	}

	// trend: centered 7-day moving average (shrunk at the edges)
	for i := range daily.Buckets {
		lo := max(i-seasonalPeriod/2, 0)
		hi := min(i+seasonalPeriod/2, n-1)
		var sum int
		for j := lo; j <= hi; j++ {
			sum += daily.Buckets[j].Raw
		}
		dec.Trend[i] = float64(sum) / float64(hi-lo+1)
	}

	// seasonal: mean detrended value per weekday, centered to sum to zero
	var weekdaySum [seasonalPeriod]float64
	var weekdayN [seasonalPeriod]int
	for i, b := range daily.Buckets {
		w := int(b.Start.Weekday())
		weekdaySum[w] += float64(b.Raw) - dec.Trend[i]
		weekdayN[w]++
	}
	var seasonal [seasonalPeriod]float64
	var seasonalMean float64
	for w := range seasonal {
		if weekdayN[w] > 0 {
			seasonal[w] = weekdaySum[w] / float64(weekdayN[w])
		}
		seasonalMean += seasonal[w] / seasonalPeriod
	}
	for w := range seasonal {
		seasonal[w] -= seasonalMean
	}

	for i, b := range daily.Buckets {
		dec.Seasonal[i] = seasonal[int(b.Start.Weekday())]
		dec.Resid[i] = float64(b.Raw) - dec.Trend[i] - dec.Seasonal[i]
	}

	return dec
}

// anomalyZScore is how many standard deviations a residual must sit
// from the mean to be flagged.
const anomalyZScore = 2.5

// Anomalies flags the days whose residual is an outlier. With no
// decomposition (or a flat residual) nothing is flagged.
func Anomalies(daily Series, dec *Decomposition) []bool {
	flags := make([]bool, len(daily.Buckets))
	if dec == nil {
		return flags
	}

	var mean float64
	for _, r := range dec.Resid {
		mean += r
	}
	mean /= float64(len(dec.Resid))

	var variance float64
	for _, r := range dec.Resid {
		variance += (r - mean) * (r - mean)
	}
	stddev := math.Sqrt(variance / float64(len(dec.Resid)))
	if stddev == 0 {
		return flags
	}

	for i, r := range dec.Resid {
		flags[i] = math.Abs(r-mean)/stddev > anomalyZScore
	}
	return flags
}

// Insights turns the stats into short plain-language lines for the
// report. scan may be nil (CSV-only mode), in which case only
// series-derived insights are produced.
func Insights(stats SeriesStats, scan *ScanStats, set SeriesSet) []string {
	var insights []string

	if stats.PeakDay != "" {
		insights = append(insights,
			fmt.Sprintf("Peak day: %s with %d captures.", stats.PeakDay, stats.PeakDayCount))
	}
	insights = append(insights,
		fmt.Sprintf("Longest streak: %d days; longest gap: %d days.", stats.LongestStreak, stats.LongestGap))

	if yoy, month, ok := yearOverYear(set.Monthly); ok {
		insights = append(insights,
			fmt.Sprintf("Year-over-year change for %s: %+.1f%%.", month, yoy*100))
	}

	insights = append(insights,
		fmt.Sprintf("Capture velocity: %.2f/day (30d) vs %.2f/day overall.",
			stats.Velocity30, stats.VelocityOverall))

	if scan != nil {
		if scan.HashingEnabled {
			if scan.Duplicates.Exact > 0 || scan.Duplicates.NearDupFiles > 0 {
				insights = append(insights,
					fmt.Sprintf("Duplicates: %d exact, %d near-duplicate files across %d groups.",
						scan.Duplicates.Exact, scan.Duplicates.NearDupFiles, scan.Duplicates.NearDupGroups))
			}
		} else {
			insights = append(insights, "Hashing disabled; duplicate metrics assume zero duplicates.")
		}
		if scan.FromModTime > 0 {
			insights = append(insights,
				fmt.Sprintf("%d files used modified time as capture date fallback.", scan.FromModTime))
		}
		if scan.Unresolved > 0 {
			insights = append(insights,
				fmt.Sprintf("%d files had no determinable capture date and were excluded.", scan.Unresolved))
		}
		if weekday, ok := peakWeekday(scan); ok {
			insights = append(insights, fmt.Sprintf("Most active weekday: %s.", weekday))
		}
		if hour, ok := peakHour(scan); ok {
			insights = append(insights, fmt.Sprintf("Most common capture hour: %02d:00.", hour))
		}
	}

	return insights
}

// yearOverYear compares the last month against the same month one year
// earlier; it needs at least 13 months of data.
func yearOverYear(monthly Series) (change float64, monthKey string, ok bool) {
	const monthsPerYear = 12
	n := len(monthly.Buckets)
	if n < monthsPerYear+1 {
		return 0, "", false
	}
	last := monthly.Buckets[n-1]
	prev := monthly.Buckets[n-1-monthsPerYear]
	if prev.Raw == 0 {
		return 0, "", false
	}
	return float64(last.Raw-prev.Raw) / float64(prev.Raw), last.Key, true
}

func peakWeekday(scan *ScanStats) (time.Weekday, bool) {
	best, bestIdx := 0, -1
	for i, c := range scan.WeekdayCounts {
		if c > best {
			best, bestIdx = c, i
		}
	}
	if bestIdx < 0 {
		return 0, false
	}
	return time.Weekday(bestIdx), true
}

func peakHour(scan *ScanStats) (int, bool) {
	best, bestIdx := 0, -1
	for i, c := range scan.HourCounts {
		if c > best {
			best, bestIdx = c, i
		}
	}
	if bestIdx < 0 {
		return 0, false
	}
	return bestIdx, true
}
