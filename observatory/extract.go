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
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/abema/go-mp4"
	"github.com/dhowden/tag"
	"github.com/cozy/goexif2/exif"
	"github.com/cozy/goexif2/mknote"
	"go.uber.org/zap"
)

func init() {
	exif.RegisterParsers(mknote.All...)
}

// ErrUnresolved means no usable capture timestamp could be determined
// for a file by any extraction path. Such files are counted and
// excluded from aggregation; they are never an abort condition.
var ErrUnresolved = errors.New("no usable capture timestamp")

// Extractor resolves capture timestamps for media files. The
// resolution order is: embedded metadata (EXIF for images, the
// movie-header creation time for MP4-family containers, ID3 recording
// time for other audio), then a date in the filename combined with the
// file's modification time-of-day, then optionally the modification
// time itself.
type Extractor struct {
	FS fs.FS

	// Fall back to the file's modification time when nothing else
	// yields a timestamp. Off means such files are unresolved.
	ModTimeFallback bool

	Logger *zap.Logger
}

// Extract resolves the file at fpath to a MediaRecord. It returns
// ErrUnresolved (possibly wrapped) when no timestamp can be
// determined; any other error means the file could not be read at all.
// Hashing is not done here; see Scan.
func (ex *Extractor) Extract(fpath string, d fs.DirEntry) (MediaRecord, error) {
	ext := strings.ToLower(path.Ext(fpath))
	kind, ok := KindByExt(ext)
	if !ok {
		return MediaRecord{}, fmt.Errorf("%w: not a media file", ErrUnresolved)
	}

	info, err := d.Info()
	if err != nil {
		return MediaRecord{}, fmt.Errorf("stat: %w", err)
	}

	rec := MediaRecord{
		Ext:     ext,
		Kind:    kind,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}

	embedded, err := ex.embeddedTimestamp(fpath, ext, kind)
	if err != nil {
		// absent or unreadable embedded metadata just means we move
		// on to the filename
		ex.Logger.Debug("no embedded timestamp",
			zap.String("filepath", fpath),
			zap.Error(err))
	}

	nameDate, nameErr := DateFromFilename(path.Base(fpath))

	switch {
	case !embedded.IsZero():
		rec.Timestamp = embedded
		rec.Source = SourceEmbedded
		// embedded metadata is authoritative; if the filename
		// disagrees on the calendar day, surface the discrepancy
		// rather than guessing
		if nameErr == nil && !sameDay(nameDate, embedded) {
			ex.Logger.Debug("filename date disagrees with embedded timestamp",
				zap.String("filepath", fpath),
				zap.Time("embedded", embedded),
				zap.Time("filename_date", nameDate))
		}
	case nameErr == nil:
		rec.Timestamp = CombineDateAndTime(nameDate, rec.ModTime)
		rec.Source = SourceFilename
	case ex.ModTimeFallback:
		rec.Timestamp = rec.ModTime
		rec.Source = SourceModTime
	default:
		return MediaRecord{}, ErrUnresolved
	}

	return rec, nil
}

// embeddedTimestamp opens the file and tries the metadata reader
// appropriate for its container format.
func (ex *Extractor) embeddedTimestamp(fpath, ext string, kind MediaKind) (time.Time, error) {
	file, err := ex.FS.Open(fpath)
	if err != nil {
		return time.Time{}, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	if kind == KindPhoto {
		return timestampFromEXIF(file)
	}

	// the box and tag parsers need to seek
	fileSeeker, err := asReadSeeker(file)
	if err != nil {
		return time.Time{}, err
	}

	if _, isMP4 := mp4Exts[ext]; isMP4 {
		ts, err := timestampFromMP4(fileSeeker)
		if err == nil && !ts.IsZero() {
			return ts, nil
		}
		if _, err := fileSeeker.Seek(0, io.SeekStart); err != nil {
			return time.Time{}, fmt.Errorf("could not rewind file after MP4: %w", err)
		}
	}

	if kind == KindAudio {
		return timestampFromAudioTags(fileSeeker)
	}

	return time.Time{}, errors.New("no embedded timestamp found")
}

func timestampFromEXIF(file io.Reader) (time.Time, error) {
	x, err := exif.Decode(file)
	if err != nil && exif.IsCriticalError(err) {
		return time.Time{}, fmt.Errorf("decoding exif from file: %w", err)
	}
	return x.DateTime()
}

// timestampFromMP4 reads the creation time from the movie header
// (mvhd) of an ISO base media file, falling back to a track header
// (tkhd) if the movie header doesn't have one.
func timestampFromMP4(fileSeeker io.ReadSeeker) (time.Time, error) {
	var creation time.Time

	_, err := mp4.ReadBoxStructure(fileSeeker, func(h *mp4.ReadHandle) (any, error) {
		if !h.BoxInfo.IsSupportedType() || h.BoxInfo.Type.String() == "mdat" {
			return nil, nil
		}
		box, _, err := h.ReadPayload()
		if err != nil {
			return nil, fmt.Errorf("reading payload from handle: %w", err)
		}

		switch b := box.(type) {
		case *mp4.Mvhd:
			if creation.IsZero() {
				if creationTime := b.GetCreationTime(); creationTime != 0 {
					creation = isoIEC14496Timestamp(creationTime)
				}
			}
		case *mp4.Tkhd:
			// just in case (for some reason) the mvhd box didn't have this info
			if creation.IsZero() {
				if creationTime := b.GetCreationTime(); creationTime != 0 {
					creation = isoIEC14496Timestamp(creationTime)
				}
			}
		}

		// traverse child nodes
		return h.Expand()
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("reading MP4 boxes: %w", err)
	}
	if creation.IsZero() {
		return time.Time{}, errors.New("no creation time in MP4 metadata")
	}
	return creation, nil
}

// timestampFromAudioTags reads a recording time from ID3 (or similar)
// tag metadata. ID3v2.4 puts it in TDRC; older files may only have a
// year in TYER, which is too coarse to bucket by day, so it's ignored.
func timestampFromAudioTags(fileSeeker io.ReadSeeker) (time.Time, error) {
	m, err := tag.ReadFrom(fileSeeker)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			return time.Time{}, errors.New("no audio tags found")
		}
		return time.Time{}, err
	}

	raw, ok := m.Raw()["TDRC"]
	if !ok {
		return time.Time{}, errors.New("no recording time tag")
	}
	str, ok := raw.(string)
	if !ok {
		return time.Time{}, errors.New("recording time tag is not a string")
	}

	// ID3v2.4 timestamps are a truncatable subset of ISO 8601
	for _, layout := range []string{
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02",
	} {
		if ts, err := time.ParseInLocation(layout, str, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized recording time: %s", str)
}

// asReadSeeker returns file as an io.ReadSeeker, buffering it into
// memory when the underlying file doesn't seek (fs.FS doesn't
// guarantee it). Metadata is usually near the start, so the buffer is
// capped.
func asReadSeeker(file fs.File) (io.ReadSeeker, error) {
	if seeker, ok := file.(io.ReadSeeker); ok {
		return seeker, nil
	}

	const maxBufferSize = 1024 * 1024 * 50

	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufPool.Put(buf)

	lr := io.LimitReader(file, maxBufferSize)
	if _, err := io.Copy(buf, lr); err != nil {
		return nil, err
	}
	return bytes.NewReader(buf.Bytes()), nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// isoIEC14496Timestamp converts the number of seconds since January 1,
// 1904 (as defined by ISO/IEC 14496-12) to a normal time.Time value
// based on Unix epoch.
func isoIEC14496Timestamp(ts uint64) time.Time {
	if ts <= mp4EpochToUnixEpochSeconds {
		return time.Time{}
	}
	return time.Unix(int64(ts-mp4EpochToUnixEpochSeconds), 0)
}

// The difference between January 1, 1904 (the epoch used by MP4 file
// metadata) and January 1, 1970 (the Unix epoch) in seconds.
const mp4EpochToUnixEpochSeconds uint64 = 2082844800

var bufPool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}
