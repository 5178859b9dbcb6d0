// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package topk

// PartialSortDescending orders refs[:min(k, len(refs))] in strictly
// descending order under less (the Heap's (score, ref) ordering), using a
// quickselect partition to find the cut point before sorting just the
// surviving prefix. refs[k:] is left in unspecified order. Runs once, at
// the start of iteration.
func PartialSortDescending(refs []Ref, less func(a, b Ref) bool, k int) {
	n := len(refs)
	if k > n {
		k = n
	}
	if k < 1 || n <= 1 {
		return
	}
	greater := func(a, b Ref) bool { return less(b, a) }
	quickselectDesc(refs, 0, n-1, k-1, greater)
	quicksortDesc(refs[:k], 0, k-1, greater)
}

// quickselectDesc narrows refs[left:right+1] so that the k strongest
// elements (under greater) occupy refs[0:k] -- not yet internally
// sorted, just partitioned out of the remainder.
func quickselectDesc(refs []Ref, left, right, k int, greater func(a, b Ref) bool) {
	for left < right {
		pivot := refs[(left+right)/2]
		i, j := partitionDesc(refs, pivot, left, right, greater)
		if k <= j {
			right = j
		} else if k >= i {
			left = i
		} else {
			return
		}
	}
}

// quicksortDesc is a plain recursive quicksort, used only on the small
// top_k-sized prefix left over after quickselectDesc.
func quicksortDesc(refs []Ref, left, right int, greater func(a, b Ref) bool) {
	for left < right {
		pivot := refs[(left+right)/2]
		i, j := partitionDesc(refs, pivot, left, right, greater)
		if left < j {
			quicksortDesc(refs, left, j, greater)
		}
		left = i
	}
}

// partitionDesc is a Hoare partition around pivot: after it returns,
// refs[left_in:j+1] holds elements ranking at or above pivot and
// refs[i:right_in+1] holds elements ranking at or below it.
func partitionDesc(refs []Ref, pivot Ref, left, right int, greater func(a, b Ref) bool) (int, int) {
	for left <= right {
		for greater(refs[left], pivot) {
			left++
		}
		for greater(pivot, refs[right]) {
			right--
		}
		if left <= right {
			refs[left], refs[right] = refs[right], refs[left]
			left++
			right--
		}
	}
	return left, right
}
