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
	"io/fs"
	"testing"
	"testing/fstest"

	"go.uber.org/zap"
)

func TestWalkArchiveVisitsOnlyYearMonthFolders(t *testing.T) {
	fsys := fstest.MapFS{
		"2023/01/20230105_a.jpg":    {},
		"2023/01/20230107_b.jpg":    {},
		"2023/13/bad_month.jpg":     {}, // 13 is not a month
		"2023/1/unpadded_month.jpg": {}, // months are zero-padded
		"2023/01/notes.txt":         {}, // not a media extension
		"2024/02/20240201_c.mp4":    {},
		"202/01/short_year.jpg":     {}, // not a 4-digit year
		"20233/01/long_year.jpg":    {},
		"screenshots/01/x.jpg":      {}, // not a year at all
		"2023/01/sub/nested.jpg":    {}, // files only, no recursion past month
	}

	var visited []string
	stats, err := WalkArchive(context.Background(), fsys, WalkOptions{}, zap.NewNop(),
		func(fpath string, d fs.DirEntry) error {
			visited = append(visited, fpath)
			return nil
		})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		"2023/01/20230105_a.jpg",
		"2023/01/20230107_b.jpg",
		"2024/02/20240201_c.mp4",
	}
	if len(visited) != len(want) {
		t.Fatalf("visited %v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Errorf("visited[%d] = %s, want %s", i, visited[i], want[i])
		}
	}
	if stats.NonMedia != 1 {
		t.Errorf("NonMedia = %d, want 1", stats.NonMedia)
	}
	if stats.Media != 3 {
		t.Errorf("Media = %d, want 3", stats.Media)
	}
}

func TestWalkArchiveYearRangeAndStart(t *testing.T) {
	fsys := fstest.MapFS{
		"2019/05/20190501_a.jpg": {},
		"2022/01/20220101_b.jpg": {},
		"2022/03/20220301_c.jpg": {},
		"2023/06/20230601_d.jpg": {},
		"2030/01/20300101_e.jpg": {},
	}

	for i, tc := range []struct {
		opts WalkOptions
		want int
	}{
		{WalkOptions{}, 5},
		{WalkOptions{MinYear: 2022, MaxYear: 2023}, 3},
		{WalkOptions{StartYear: 2022, StartMonth: 2}, 3}, // drops 2019 and 2022/01
		{WalkOptions{MinYear: 2024}, 1},                  // only 2030
		{WalkOptions{MaxYear: 2019}, 1},
	} {
		var count int
		_, err := WalkArchive(context.Background(), fsys, tc.opts, zap.NewNop(),
			func(string, fs.DirEntry) error {
				count++
				return nil
			})
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if count != tc.want {
			t.Errorf("case %d: visited %d files, want %d", i, count, tc.want)
		}
	}
}

func TestWalkArchiveMissingBase(t *testing.T) {
	fsys := fstest.MapFS{} // empty is fine; a broken fs is not
	_, err := WalkArchive(context.Background(), fsys, WalkOptions{}, zap.NewNop(),
		func(string, fs.DirEntry) error { return nil })
	if err != nil {
		t.Fatalf("empty archive should not error, got %v", err)
	}

	_, err = WalkArchive(context.Background(), failFS{}, WalkOptions{}, zap.NewNop(),
		func(string, fs.DirEntry) error { return nil })
	if err == nil {
		t.Fatal("expected error for unreadable base folder")
	}
}

type failFS struct{}

func (failFS) Open(string) (fs.File, error) { return nil, fs.ErrNotExist }
