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
	"encoding/hex"
	"fmt"
	"image"
	"io"
	"math/bits"

	// registered decoders for the difference hash; HEIC and camera
	// raw formats have no decoder here and simply get no dHash
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/zeebo/blake3"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ContentHash hashes the entire file content with BLAKE3 and returns
// the hex digest. Two files with equal hashes are exact duplicates.
func ContentHash(r io.Reader) (string, error) {
	h := blake3.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hashing content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// dHashSize is the edge length of the downscaled grid; 8 gives a
// 64-bit hash, which fits in a uint64.
const dHashSize = 8

// DiffHash computes a 64-bit difference hash of an image: the image is
// reduced to a (dHashSize+1) x dHashSize grayscale grid and each bit
// records whether a pixel is brighter than its right neighbor. Images
// that differ only by scaling, light recompression, or small edits
// produce hashes within a small Hamming distance of each other.
func DiffHash(r io.Reader) (uint64, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return 0, fmt.Errorf("decoding image: %w", err)
	}

	gray := image.NewGray(image.Rect(0, 0, dHashSize+1, dHashSize))
	draw.ApproxBiLinear.Scale(gray, gray.Bounds(), img, img.Bounds(), draw.Src, nil)

	var hash uint64
	var bit uint
	for y := 0; y < dHashSize; y++ {
		for x := 0; x < dHashSize; x++ {
			if gray.GrayAt(x, y).Y > gray.GrayAt(x+1, y).Y {
				hash |= 1 << bit
			}
			bit++
		}
	}
	return hash, nil
}

// HammingDistance counts the differing bits between two difference
// hashes.
func HammingDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}
