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

// DuplicateStats summarizes duplicate detection over one scan.
// It only carries counts; which files were involved is deliberately
// not retained.
type DuplicateStats struct {
	Unique        int // distinct content hashes
	Exact         int // files beyond the first of each content hash
	NearDupFiles  int // files that belong to some near-duplicate group
	NearDupGroups int
}

// CountExactDuplicates counts files whose full content hash has been
// seen before.
func CountExactDuplicates(hashes []string) (unique, dups int) {
	seen := make(map[string]struct{}, len(hashes))
	for _, h := range hashes {
		if _, ok := seen[h]; ok {
			dups++
			continue
		}
		seen[h] = struct{}{}
	}
	return len(seen), dups
}

// NearDuplicateGroups clusters difference hashes into groups of
// near-duplicates. To avoid the quadratic comparison over the whole
// archive, hashes are first bucketed by their top prefixBits bits;
// only hashes sharing a bucket are compared, and two hashes within
// threshold Hamming distance fall into the same group. Groups of one
// are discarded.
func NearDuplicateGroups(hashes []uint64, threshold, prefixBits int) (groups, files int) {
	if prefixBits <= 0 || prefixBits > 64 {
		prefixBits = 16
	}

	buckets := make(map[uint64][]int)
	for i, h := range hashes {
		prefix := h >> (64 - uint(prefixBits))
		buckets[prefix] = append(buckets[prefix], i)
	}

	used := make(map[int]struct{})
	for _, entries := range buckets {
		if len(entries) < 2 {
			continue
		}
		for i, a := range entries {
			if _, ok := used[a]; ok {
				continue
			}
			cluster := 1
			for _, b := range entries[i+1:] {
				if _, ok := used[b]; ok {
					continue
				}
				if HammingDistance(hashes[a], hashes[b]) <= threshold {
					used[b] = struct{}{}
					cluster++
				}
			}
			if cluster > 1 {
				used[a] = struct{}{}
				groups++
				files += cluster
			}
		}
	}
	return groups, files
}
