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
	"io"
	"io/fs"
	"time"

	"go.uber.org/zap"
)

// ScanOptions configures one archive scan.
type ScanOptions struct {
	Walk WalkOptions

	// Files whose resolved capture timestamp falls before this date
	// are dropped (they are not unresolved; they're out of range).
	StartDate time.Time

	// Resolve files with no other timestamp to their modification
	// time instead of counting them unresolved.
	ModTimeFallback bool

	// Compute content hashes (exact duplicates) and, for images,
	// difference hashes (near duplicates).
	Hashing bool

	// Near-duplicate clustering parameters; zero values select the
	// defaults (Hamming distance 6, 16 prefix bits).
	NearDupThreshold  int
	NearDupPrefixBits int
}

// ScanStats is everything a scan learns beyond the time series:
// totals by kind and by timestamp source, the unresolved count, the
// capture-time-of-day and weekday profiles, and duplicate counts when
// hashing was on. It holds only counts, never file identities.
type ScanStats struct {
	Walk WalkStats

	Scanned    int // media files examined
	Resolved   int // files that got a capture timestamp in range
	OutOfRange int // resolved, but before the start date
	Unresolved int // no usable timestamp; excluded from aggregation

	Photos int
	Videos int
	Audio  int

	Embedded     int // timestamp came from embedded metadata
	FromFilename int
	FromModTime  int

	WeekdayCounts [7]int  // indexed by time.Weekday
	HourCounts    [24]int // capture hour profile

	HashingEnabled bool
	Duplicates     DuplicateStats
}

const defaultNearDupThreshold = 6

// Scan is the one linear pass over the archive: walk the year/month
// folders, resolve a timestamp for each media file, feed the
// aggregator, and collect the scan stats. Records are discarded as
// soon as they are counted.
func Scan(ctx context.Context, fsys fs.FS, opts ScanOptions, logger *zap.Logger, agg *Aggregator) (ScanStats, error) {
	stats := ScanStats{HashingEnabled: opts.Hashing}

	ex := &Extractor{
		FS:              fsys,
		ModTimeFallback: opts.ModTimeFallback,
		Logger:          logger.Named("extract"),
	}

	var contentHashes []string
	var diffHashes []uint64

	walkStats, err := WalkArchive(ctx, fsys, opts.Walk, logger.Named("walker"), func(fpath string, d fs.DirEntry) error {
		stats.Scanned++
		if stats.Scanned%1000 == 0 {
			logger.Info("scan progress", zap.Int("media_files", stats.Scanned))
		}

		rec, err := ex.Extract(fpath, d)
		if err != nil {
			// unresolved or unreadable files are counted, never fatal
			stats.Unresolved++
			logger.Debug("file unresolved",
				zap.String("filepath", fpath),
				zap.Error(err))
			return nil
		}

		if !opts.StartDate.IsZero() && rec.Timestamp.Before(opts.StartDate) {
			stats.OutOfRange++
			return nil
		}

		if opts.Hashing {
			hashFile(ex.FS, fpath, &rec, logger)
		}

		stats.count(rec)
		if rec.ContentHash != "" {
			contentHashes = append(contentHashes, rec.ContentHash)
		}
		if rec.HasDiffHash {
			diffHashes = append(diffHashes, rec.DiffHash)
		}

		return agg.Add(rec.Timestamp)
	})
	stats.Walk = walkStats
	if err != nil {
		return stats, err
	}

	if opts.Hashing {
		threshold := opts.NearDupThreshold
		if threshold == 0 {
			threshold = defaultNearDupThreshold
		}
		stats.Duplicates.Unique, stats.Duplicates.Exact = CountExactDuplicates(contentHashes)
		stats.Duplicates.NearDupGroups, stats.Duplicates.NearDupFiles =
			NearDuplicateGroups(diffHashes, threshold, opts.NearDupPrefixBits)
	} else {
		// without hashes every file is assumed unique
		stats.Duplicates.Unique = stats.Resolved
	}

	logger.Info("scan complete",
		zap.Int("scanned", stats.Scanned),
		zap.Int("resolved", stats.Resolved),
		zap.Int("unresolved", stats.Unresolved),
		zap.Int("out_of_range", stats.OutOfRange))

	return stats, nil
}

func (stats *ScanStats) count(rec MediaRecord) {
	stats.Resolved++

	switch rec.Kind {
	case KindPhoto:
		stats.Photos++
	case KindVideo:
		stats.Videos++
	case KindAudio:
		stats.Audio++
	}

	switch rec.Source {
	case SourceEmbedded:
		stats.Embedded++
	case SourceFilename:
		stats.FromFilename++
	case SourceModTime:
		stats.FromModTime++
	}

	stats.WeekdayCounts[rec.Timestamp.Weekday()]++
	stats.HourCounts[rec.Timestamp.Hour()]++
}

// hashFile fills in the hash fields of rec. Hash failures only cost
// us duplicate detection for that file, so they are logged and
// swallowed.
func hashFile(fsys fs.FS, fpath string, rec *MediaRecord, logger *zap.Logger) {
	file, err := fsys.Open(fpath)
	if err != nil {
		logger.Warn("opening file for hashing", zap.Error(err))
		return
	}
	defer file.Close()

	rec.ContentHash, err = ContentHash(file)
	if err != nil {
		logger.Warn("content hash failed", zap.Error(err))
		return
	}

	if rec.Kind != KindPhoto {
		return
	}
	if seeker, ok := file.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return
		}
		if dh, err := DiffHash(file); err == nil {
			rec.DiffHash = dh
			rec.HasDiffHash = true
		}
	}
}
