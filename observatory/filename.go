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
	"regexp"
	"strconv"
	"time"
)

// filenameDatePatterns capture year, month, day submatches. Years are
// restricted to 20xx; anything else in an 8-digit run is much more
// likely to be a counter or a phone number.
var filenameDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(20\d{2})(\d{2})(\d{2})`),
	regexp.MustCompile(`(20\d{2})[-_](\d{2})[-_](\d{2})`),
}

// DateFromFilename finds a capture date in a file name, typically a
// YYYYMMDD prefix as produced by phone cameras, but dashed and
// underscored variants are recognized anywhere in the name too.
// A malformed date (like month 13) is not an exceptional condition;
// it just means no date was found.
func DateFromFilename(name string) (time.Time, error) {
	for _, pattern := range filenameDatePatterns {
		for _, match := range pattern.FindAllStringSubmatch(name, -1) {
			year, _ := strconv.Atoi(match[1])
			month, _ := strconv.Atoi(match[2])
			day, _ := strconv.Atoi(match[3])

			ts := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
			// time.Date normalizes out-of-range components (month 13
			// becomes January of the next year), so round-trip the
			// values to reject those
			if ts.Year() != year || ts.Month() != time.Month(month) || ts.Day() != day {
				continue
			}
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("no date found in file name: %s", name)
}

// CombineDateAndTime keeps the calendar day of date and borrows the
// time-of-day from clock. Filename dates carry no time component, so
// the file's modification time stands in for it.
func CombineDateAndTime(date, clock time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, clock.Location())
}
