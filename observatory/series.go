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
	"errors"
	"fmt"
	"math"
	"time"
)

// Cadence is an aggregation granularity.
type Cadence string

// The three cadences every report carries.
const (
	Daily   Cadence = "daily"
	Weekly  Cadence = "weekly" // ISO weeks, Monday-based
	Monthly Cadence = "monthly"
)

// Cadences lists all cadences in report order.
var Cadences = []Cadence{Daily, Weekly, Monthly}

// SmoothingWindow is the width of the centered moving average applied
// to every finalized series.
const SmoothingWindow = 5

// Bucket is one period of a finalized series.
type Bucket struct {
	Key      string    // period key, e.g. 2023-01-05, 2023-W01, 2023-01
	Start    time.Time // midnight at the start of the period
	Raw      int       // capture count
	Smoothed float64   // centered moving average of Raw, rounded to 4 places
}

// Series is the finalized, dense, ordered sequence of buckets for one
// cadence. Periods with no captures are present with a zero count.
type Series struct {
	Cadence Cadence
	Buckets []Bucket
}

// Total sums the raw counts of the series.
func (s Series) Total() int {
	var total int
	for _, b := range s.Buckets {
		total += b.Raw
	}
	return total
}

// SeriesSet holds the finalized series of all three cadences.
type SeriesSet struct {
	Daily   Series
	Weekly  Series
	Monthly Series
}

// ByCadence returns the series for the given cadence.
func (set SeriesSet) ByCadence(c Cadence) (Series, error) {
	switch c {
	case Daily:
		return set.Daily, nil
	case Weekly:
		return set.Weekly, nil
	case Monthly:
		return set.Monthly, nil
	}
	return Series{}, fmt.Errorf("unknown cadence: %s", c)
}

// ErrNoData is returned by Finalize when no timestamps were added.
var ErrNoData = errors.New("no resolved timestamps to aggregate")

// Aggregator consumes a stream of capture timestamps and buckets each
// into exactly one period per cadence. It starts accumulating; calling
// Finalize moves it irreversibly to finalized, after which Add fails.
type Aggregator struct {
	daily     map[time.Time]int
	minDay    time.Time
	maxDay    time.Time
	total     int
	finalized bool
}

// NewAggregator returns an accumulating Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{daily: make(map[time.Time]int)}
}

// Add buckets one capture timestamp. Weekly and monthly counts are
// derived from the daily buckets at finalization, so a timestamp can
// never land in inconsistent periods across cadences.
func (a *Aggregator) Add(ts time.Time) error {
	if a.finalized {
		return errors.New("aggregator is finalized")
	}
	day := dayOf(ts)
	a.daily[day]++
	a.total++
	if a.minDay.IsZero() || day.Before(a.minDay) {
		a.minDay = day
	}
	if a.maxDay.IsZero() || day.After(a.maxDay) {
		a.maxDay = day
	}
	return nil
}

// Total returns the number of timestamps added so far.
func (a *Aggregator) Total() int { return a.total }

// Finalize ends the accumulation phase and produces the dense,
// smoothed series for all cadences. It can only succeed once.
func (a *Aggregator) Finalize() (SeriesSet, error) {
	if a.finalized {
		return SeriesSet{}, errors.New("aggregator already finalized")
	}
	if a.total == 0 {
		return SeriesSet{}, ErrNoData
	}
	a.finalized = true

	var set SeriesSet

	// daily: every calendar day from first to last capture
	set.Daily = Series{Cadence: Daily}
	for day := a.minDay; !day.After(a.maxDay); day = day.AddDate(0, 0, 1) {
		set.Daily.Buckets = append(set.Daily.Buckets, Bucket{
			Key:   day.Format("2006-01-02"),
			Start: day,
			Raw:   a.daily[day],
		})
	}

	// weekly: every ISO week that overlaps the daily range
	set.Weekly = Series{Cadence: Weekly}
	for monday := mondayOf(a.minDay); !monday.After(a.maxDay); monday = monday.AddDate(0, 0, 7) {
		var count int
		for i := 0; i < 7; i++ {
			count += a.daily[monday.AddDate(0, 0, i)]
		}
		set.Weekly.Buckets = append(set.Weekly.Buckets, Bucket{
			Key:   WeekKey(monday),
			Start: monday,
			Raw:   count,
		})
	}

	// monthly: every calendar month in the range
	set.Monthly = Series{Cadence: Monthly}
	for month := monthOf(a.minDay); !month.After(a.maxDay); month = month.AddDate(0, 1, 0) {
		var count int
		for day := month; day.Month() == month.Month() && !day.After(a.maxDay); day = day.AddDate(0, 0, 1) {
			count += a.daily[day]
		}
		set.Monthly.Buckets = append(set.Monthly.Buckets, Bucket{
			Key:   month.Format("2006-01"),
			Start: month,
			Raw:   count,
		})
	}

	for _, s := range []*Series{&set.Daily, &set.Weekly, &set.Monthly} {
		applySmoothing(s.Buckets, SmoothingWindow)
	}

	return set, nil
}

// applySmoothing fills in the Smoothed field of each bucket with a
// centered moving average of window w (shrunk at the edges, so every
// bucket gets a value). Values are rounded to 4 decimal places so that
// the CSV artifact and the charts always agree exactly.
func applySmoothing(buckets []Bucket, w int) {
	half := w / 2
	for i := range buckets {
		lo := max(i-half, 0)
		hi := min(i+half, len(buckets)-1)
		var sum int
		for j := lo; j <= hi; j++ {
			sum += buckets[j].Raw
		}
		buckets[i].Smoothed = roundTo4(float64(sum) / float64(hi-lo+1))
	}
}

func roundTo4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// WeekKey formats the ISO week containing t, like "2023-W01".
// Note that the ISO year can differ from the calendar year near
// January 1.
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// ISOWeekStart returns the Monday beginning the given ISO week.
func ISOWeekStart(year, week int) time.Time {
	// January 4 is always in ISO week 1
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.Local)
	return mondayOf(jan4).AddDate(0, 0, (week-1)*7)
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

func mondayOf(day time.Time) time.Time {
	weekday := (int(day.Weekday()) + 6) % 7 // Monday = 0
	return day.AddDate(0, 0, -weekday)
}

func monthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.Local)
}
