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
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func TestContentHash(t *testing.T) {
	a1, err := ContentHash(strings.NewReader("same bytes"))
	if err != nil {
		t.Fatal(err)
	}
	a2, err := ContentHash(strings.NewReader("same bytes"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := ContentHash(strings.NewReader("different bytes"))
	if err != nil {
		t.Fatal(err)
	}

	if a1 != a2 {
		t.Errorf("equal content hashed differently: %s vs %s", a1, a2)
	}
	if a1 == b {
		t.Error("different content hashed equal")
	}
	if len(a1) != 64 { // 32 bytes, hex encoded
		t.Errorf("digest length = %d, want 64", len(a1))
	}
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDiffHashGradients(t *testing.T) {
	// brightness strictly falling to the right: every pixel is brighter
	// than its neighbor, so every bit is set
	falling := image.NewGray(image.Rect(0, 0, dHashSize+1, dHashSize))
	for y := 0; y < dHashSize; y++ {
		for x := 0; x <= dHashSize; x++ {
			falling.SetGray(x, y, color.Gray{Y: uint8(250 - x*25)})
		}
	}
	h, err := DiffHash(bytes.NewReader(encodePNG(t, falling)))
	if err != nil {
		t.Fatal(err)
	}
	if h != ^uint64(0) {
		t.Errorf("falling gradient hash = %064b, want all ones", h)
	}

	// a flat image has no brighter-than-neighbor pairs at all
	flat := image.NewGray(image.Rect(0, 0, dHashSize+1, dHashSize))
	h, err = DiffHash(bytes.NewReader(encodePNG(t, flat)))
	if err != nil {
		t.Fatal(err)
	}
	if h != 0 {
		t.Errorf("flat image hash = %064b, want zero", h)
	}
}

func TestDiffHashStableUnderScaling(t *testing.T) {
	// the same picture at two sizes should hash within a small distance
	small := image.NewGray(image.Rect(0, 0, 36, 32))
	large := image.NewGray(image.Rect(0, 0, 144, 128))
	for _, img := range []*image.Gray{small, large} {
		b := img.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				img.SetGray(x, y, color.Gray{Y: uint8(255 * x / b.Max.X)})
			}
		}
	}

	h1, err := DiffHash(bytes.NewReader(encodePNG(t, small)))
	if err != nil {
		t.Fatal(err)
	}
	h2, err := DiffHash(bytes.NewReader(encodePNG(t, large)))
	if err != nil {
		t.Fatal(err)
	}
	if d := HammingDistance(h1, h2); d > 6 {
		t.Errorf("hamming distance across scales = %d, want <= 6", d)
	}
}

func TestDiffHashRejectsNonImage(t *testing.T) {
	if _, err := DiffHash(strings.NewReader("not an image")); err == nil {
		t.Error("expected error for undecodable input")
	}
}
