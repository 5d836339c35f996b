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
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// csvHeader is the exact column set of the report dataset. The CSV
// deliberately carries nothing but aggregate counts: no paths, no
// device metadata, no locations.
var csvHeader = []string{"period_type", "period_key", "raw_count", "smoothed_count"}

// WriteReportCSV writes the dataset for all cadences, one row per
// (cadence, period), daily then weekly then monthly, in period order.
// Rows are written once and never mutated.
func WriteReportCSV(w io.Writer, set SeriesSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, cadence := range Cadences {
		series, err := set.ByCadence(cadence)
		if err != nil {
			return err
		}
		for _, b := range series.Buckets {
			row := []string{
				string(cadence),
				b.Key,
				strconv.Itoa(b.Raw),
				strconv.FormatFloat(b.Smoothed, 'f', -1, 64),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("writing %s row %s: %w", cadence, b.Key, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadReportCSV loads a previously written dataset so the report can
// be regenerated without rescanning. It fails fast with a descriptive
// error on a missing or misnamed column, an unknown cadence, or a
// malformed period key, before any rendering is attempted.
func ReadReportCSV(r io.Reader) (SeriesSet, error) {
	var set SeriesSet

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	header, err := cr.Read()
	if err != nil {
		return set, fmt.Errorf("reading CSV header: %w", err)
	}
	for i, want := range csvHeader {
		if header[i] != want {
			return set, fmt.Errorf("CSV column %d is %q, expected %q", i+1, header[i], want)
		}
	}

	set.Daily = Series{Cadence: Daily}
	set.Weekly = Series{Cadence: Weekly}
	set.Monthly = Series{Cadence: Monthly}

	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return set, fmt.Errorf("reading CSV line %d: %w", line, err)
		}

		cadence := Cadence(row[0])
		start, err := ParsePeriodKey(cadence, row[1])
		if err != nil {
			return set, fmt.Errorf("CSV line %d: %w", line, err)
		}
		raw, err := strconv.Atoi(row[2])
		if err != nil || raw < 0 {
			return set, fmt.Errorf("CSV line %d: bad raw_count %q", line, row[2])
		}
		smoothed, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return set, fmt.Errorf("CSV line %d: bad smoothed_count %q", line, row[3])
		}

		bucket := Bucket{Key: row[1], Start: start, Raw: raw, Smoothed: smoothed}
		switch cadence {
		case Daily:
			set.Daily.Buckets = append(set.Daily.Buckets, bucket)
		case Weekly:
			set.Weekly.Buckets = append(set.Weekly.Buckets, bucket)
		case Monthly:
			set.Monthly.Buckets = append(set.Monthly.Buckets, bucket)
		}
	}

	if len(set.Daily.Buckets) == 0 && len(set.Weekly.Buckets) == 0 && len(set.Monthly.Buckets) == 0 {
		return set, fmt.Errorf("CSV contains no data rows")
	}

	return set, nil
}

// ParsePeriodKey parses a period key of the given cadence back into
// the period's start time.
func ParsePeriodKey(cadence Cadence, key string) (time.Time, error) {
	switch cadence {
	case Daily:
		ts, err := time.ParseInLocation("2006-01-02", key, time.Local)
		if err != nil {
			return time.Time{}, fmt.Errorf("bad daily period key %q: %w", key, err)
		}
		return ts, nil
	case Weekly:
		var year, week int
		if _, err := fmt.Sscanf(key, "%4d-W%2d", &year, &week); err != nil || week < 1 || week > 53 {
			return time.Time{}, fmt.Errorf("bad weekly period key %q", key)
		}
		start := ISOWeekStart(year, week)
		// reject non-canonical keys, like unpadded weeks or week 53 of
		// a 52-week ISO year, instead of normalizing them silently
		if WeekKey(start) != key {
			return time.Time{}, fmt.Errorf("bad weekly period key %q", key)
		}
		return start, nil
	case Monthly:
		ts, err := time.ParseInLocation("2006-01", key, time.Local)
		if err != nil {
			return time.Time{}, fmt.Errorf("bad monthly period key %q: %w", key, err)
		}
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("unknown period type %q", cadence)
}
