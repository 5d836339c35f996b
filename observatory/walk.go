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
	"context"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"

	"github.com/maruel/natural"
	"go.uber.org/zap"
)

// The archive layout is one folder per year, containing one folder per
// month. Anything that doesn't match is not part of the archive.
var (
	yearDirPattern  = regexp.MustCompile(`^\d{4}$`)
	monthDirPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])$`)
)

// WalkOptions restricts which parts of the archive are visited.
type WalkOptions struct {
	// Files before this date's year/month folders are not visited.
	// (Day-level filtering happens after timestamp extraction.)
	StartYear  int
	StartMonth int

	// Inclusive year range; zero means unbounded on that side.
	MinYear int
	MaxYear int
}

// WalkStats counts what the walker saw.
type WalkStats struct {
	YearDirs  int // year folders visited
	MonthDirs int // month folders visited
	Media     int // media files yielded
	NonMedia  int // files skipped for having no media extension
}

// WalkArchive enumerates the year/month archive rooted at fsys and
// calls fn for every media file, in natural sort order so runs are
// deterministic. Directories that don't look like year or month
// folders are skipped without error. It fails only if the base
// directory itself cannot be read, or if fn returns an error.
func WalkArchive(ctx context.Context, fsys fs.FS, opts WalkOptions, logger *zap.Logger, fn func(fpath string, d fs.DirEntry) error) (WalkStats, error) {
	var stats WalkStats

	years, err := readDirNatural(fsys, ".")
	if err != nil {
		return stats, fmt.Errorf("reading base folder: %w", err)
	}

	for _, yearDir := range years {
		if !yearDir.IsDir() || !yearDirPattern.MatchString(yearDir.Name()) {
			continue
		}
		year, err := strconv.Atoi(yearDir.Name())
		if err != nil {
			continue
		}
		if (opts.MinYear != 0 && year < opts.MinYear) ||
			(opts.MaxYear != 0 && year > opts.MaxYear) ||
			(opts.StartYear != 0 && year < opts.StartYear) {
			logger.Debug("skipping year folder",
				zap.String("folder", yearDir.Name()))
			continue
		}
		stats.YearDirs++

		months, err := readDirNatural(fsys, yearDir.Name())
		if err != nil {
			// the year folder vanished or is unreadable; not fatal
			logger.Warn("reading year folder", zap.Error(err))
			continue
		}

		for _, monthDir := range months {
			if !monthDir.IsDir() || !monthDirPattern.MatchString(monthDir.Name()) {
				continue
			}
			month, err := strconv.Atoi(monthDir.Name())
			if err != nil {
				continue
			}
			if opts.StartYear != 0 && year == opts.StartYear && month < opts.StartMonth {
				continue
			}
			stats.MonthDirs++

			monthPath := path.Join(yearDir.Name(), monthDir.Name())
			files, err := readDirNatural(fsys, monthPath)
			if err != nil {
				logger.Warn("reading month folder", zap.Error(err))
				continue
			}

			for _, file := range files {
				if err := ctx.Err(); err != nil {
					return stats, err
				}
				if file.IsDir() {
					continue
				}
				fpath := path.Join(monthPath, file.Name())
				if !IsMediaPath(fpath) {
					stats.NonMedia++
					continue
				}
				stats.Media++
				if err := fn(fpath, file); err != nil {
					return stats, err
				}
			}
		}
	}

	return stats, nil
}

func readDirNatural(fsys fs.FS, dir string) ([]fs.DirEntry, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		return natural.Less(entries[i].Name(), entries[j].Name())
	})
	return entries, nil
}
