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
	"path"
	"strings"
	"time"
)

// MediaKind classifies a media file by its broad type.
type MediaKind string

// The media kinds the scanner recognizes.
const (
	KindPhoto MediaKind = "photo"
	KindVideo MediaKind = "video"
	KindAudio MediaKind = "audio"
)

// TimestampSource says which extraction path produced a
// record's capture timestamp.
type TimestampSource string

// Timestamp sources, in order of preference.
const (
	SourceEmbedded TimestampSource = "embedded" // EXIF, MP4 box, or ID3 tag
	SourceFilename TimestampSource = "filename" // date in the filename + mtime time-of-day
	SourceModTime  TimestampSource = "mtime"    // file modification time (optional fallback)
)

// MediaRecord describes one scanned media file. Records are immutable
// after creation and are discarded after aggregation; they deliberately
// carry no file path, device identifier, or location data, so nothing
// sensitive can leak into the output artifacts.
type MediaRecord struct {
	Ext       string
	Kind      MediaKind
	Size      int64
	ModTime   time.Time
	Timestamp time.Time
	Source    TimestampSource

	// Only set when hashing is enabled for the scan.
	ContentHash string
	DiffHash    uint64
	HasDiffHash bool
}

var imageExts = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".heic": {}, ".heif": {},
	".tif": {}, ".tiff": {}, ".bmp": {}, ".gif": {}, ".webp": {},
	".dng": {}, ".cr2": {}, ".nef": {}, ".arw": {}, ".rw2": {},
}

var videoExts = map[string]struct{}{
	".mp4": {}, ".mov": {}, ".m4v": {}, ".avi": {}, ".mkv": {},
	".mts": {}, ".3gp": {}, ".wmv": {},
}

var audioExts = map[string]struct{}{
	".m4a": {}, ".mp3": {}, ".aac": {}, ".wav": {}, ".flac": {}, ".ogg": {},
}

// mp4Exts are the extensions whose containers use the ISO base media
// file format, i.e. the ones worth handing to the MP4 box parser.
var mp4Exts = map[string]struct{}{
	".mp4": {}, ".mov": {}, ".m4v": {}, ".3gp": {}, ".m4a": {},
}

// KindByExt returns the media kind for a file extension (with leading
// dot, any case), or false if the extension is not a media extension.
func KindByExt(ext string) (MediaKind, bool) {
	ext = strings.ToLower(ext)
	if _, ok := imageExts[ext]; ok {
		return KindPhoto, true
	}
	if _, ok := videoExts[ext]; ok {
		return KindVideo, true
	}
	if _, ok := audioExts[ext]; ok {
		return KindAudio, true
	}
	return "", false
}

// IsMediaPath reports whether the file at fpath has a recognized
// media extension.
func IsMediaPath(fpath string) bool {
	_, ok := KindByExt(path.Ext(fpath))
	return ok
}
