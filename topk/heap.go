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

// Package topk implements the bounded min-heap and partial sort that sit
// on top of an accum.Table: the fixed-capacity set of the top_k strongest
// documents seen so far, and the final descending materialization of it.
package topk

import (
	"github.com/ranksearch/rankcore/accum"
	"github.com/ranksearch/rankcore/arena"
	"github.com/ranksearch/rankcore/heap"
)

// Ref is a document id viewed as an index into an accum.Table's flat cell
// array. It stands in for the "pointer into A" of the algorithm this
// package implements: storing the index instead of a raw pointer gives
// the same O(1) doc-id recovery and the same total order on cells,
// without unsafe pointer arithmetic.
type Ref uint32

// Heap is a fixed-capacity min-heap of Refs ordered by the strict weak
// ordering: a before b iff (score(a), a) < (score(b), b). Score is the
// primary key; the ref itself (equivalently, the doc id) tie-breaks, so
// that among equal scores the heap always treats the lowest doc id as
// the weakest entry. Heap never holds the same Ref twice.
type Heap[S accum.Score] struct {
	table *accum.Table[S]
	refs  []Ref
	cap   int
}

// NewHeap builds a Heap with room for capacity refs, backed by a.
func NewHeap[S accum.Score](a *arena.Arena, table *accum.Table[S], capacity int) (*Heap[S], bool) {
	backing, ok := arena.Alloc[Ref](a, capacity)
	if !ok {
		return nil, false
	}
	return &Heap[S]{table: table, refs: backing[:0], cap: capacity}, true
}

// Len reports how many refs are currently tracked.
func (h *Heap[S]) Len() int { return len(h.refs) }

// Full reports whether the heap holds as many entries as its capacity.
func (h *Heap[S]) Full() bool { return len(h.refs) == h.cap }

// Root returns the current minimum, i.e. the weakest tracked document.
// It must only be called when Len() > 0.
func (h *Heap[S]) Root() Ref { return h.refs[0] }

// Refs exposes the heap's backing array. The slice is only meaningful as
// a heap-ordered (or, after PartialSortDescending, descending-ordered) sequence of the
// first Len() entries; callers must not retain it across the next
// mutating call.
func (h *Heap[S]) Refs() []Ref { return h.refs }

// Reset empties the heap without releasing its backing array.
func (h *Heap[S]) Reset() { h.refs = h.refs[:0] }

// less implements the ordering described on Heap: score first, ref
// (doc id) second.
func (h *Heap[S]) less(a, b Ref) bool {
	sa, sb := h.table.At(uint32(a)), h.table.At(uint32(b))
	if sa != sb {
		return sa < sb
	}
	return a < b
}

// Append adds ref as a new, not-yet-heap-ordered entry. The caller is
// responsible for calling MakeHeap once Len() reaches capacity.
func (h *Heap[S]) Append(ref Ref) {
	h.refs = append(h.refs, ref)
}

// MakeHeap restores the heap invariant across the whole backing slice,
// in O(n).
func (h *Heap[S]) MakeHeap() {
	heap.OrderSlice(h.refs, h.less)
}

// Find locates ref within the heap by value, returning its index and
// whether it was found. A linear scan is acceptable here: top_k is
// small relative to the document count this heap is selecting from.
func (h *Heap[S]) Find(ref Ref) (int, bool) {
	for i, r := range h.refs {
		if r == ref {
			return i, true
		}
	}
	return 0, false
}

// PromoteAt re-establishes the heap invariant around index i, for the
// case where the score backing h.refs[i] has just increased (so it can
// only need to sink, never rise).
func (h *Heap[S]) PromoteAt(i int) {
	heap.FixSlice(h.refs, i, h.less)
}

// ReplaceRoot overwrites the current minimum with ref and restores the
// heap invariant. The caller must have already verified that ref ranks
// above the current root under less.
func (h *Heap[S]) ReplaceRoot(ref Ref) {
	h.refs[0] = ref
	heap.FixSlice(h.refs, 0, h.less)
}
