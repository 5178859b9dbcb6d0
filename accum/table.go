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

// Package accum implements the per-document retrieval status value (RSV)
// accumulator table used by a disjunctive top-k ranking query.
//
// The table is a flat array of W*H score cells (at least one per
// document), conceptually partitioned into H strips of W cells each (W a power of two near
// sqrt(documents)). A per-strip dirty flag lets the table be logically
// cleared between queries in O(H) time instead of O(documents): a strip's
// cells are only zeroed, lazily, the first time a query touches them.
package accum

import (
	"math/bits"

	"github.com/ranksearch/rankcore/arena"
	"github.com/ranksearch/rankcore/internal/memops"
)

// Score is the scalar type an accumulator cell holds. It is generic over
// any unsigned width wide enough to hold the sum of the partial scores a
// query contributes; addition wraps on overflow, which keeps it
// branch-free and, since unsigned wraparound is deterministic, does not
// break the order-independence property required of the ranking engine.
type Score interface {
	~uint16 | ~uint32 | ~uint64
}

// Table is a W x H accumulator grid, flattened into a single cells slice
// indexed directly by document id (strip s occupies cells
// [s*W, (s+1)*W)).
type Table[S Score] struct {
	cells []S
	dirty []bool
	shift uint
	width int
}

// Dimensions returns the strip width W and strip count H that New would
// use for the given document count, so callers can size an arena before
// a Table is actually carved out of it.
func Dimensions(documents int) (width, strips int) {
	shift := stripShift(documents)
	width = 1 << shift
	strips = (documents + width) / width // deliberate one-strip headroom, see DESIGN.md
	return width, strips
}

// New builds a Table sized for the given document count, carving its
// backing storage out of a. It reports false if a does not have enough
// room for the cells and dirty-flag arrays.
func New[S Score](a *arena.Arena, documents int) (*Table[S], bool) {
	shift := stripShift(documents)
	width, strips := Dimensions(documents)

	cells, ok := arena.Alloc[S](a, width*strips)
	if !ok {
		return nil, false
	}
	dirty, ok := arena.Alloc[bool](a, strips)
	if !ok {
		return nil, false
	}
	return &Table[S]{cells: cells, dirty: dirty, shift: uint(shift), width: width}, true
}

// stripShift computes S = floor(log2(sqrt(documents))), using integer
// arithmetic so that the strip width W = 1<<S is exact and reproducible
// across platforms (no floating-point rounding near a power of two).
func stripShift(documents int) int {
	if documents < 1 {
		documents = 1
	}
	root := isqrt(documents)
	if root < 1 {
		root = 1
	}
	return bits.Len(uint(root)) - 1
}

func isqrt(n int) int {
	x := n
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return x
}

// Width returns the strip width W.
func (t *Table[S]) Width() int { return t.width }

// Strips returns the strip count H.
func (t *Table[S]) Strips() int { return len(t.dirty) }

// Touch lazily zeroes the strip containing doc, if it isn't already
// marked dirty (meaningful) for the current query.
func (t *Table[S]) Touch(doc uint32) {
	strip := int(doc) >> t.shift
	if !t.dirty[strip] {
		start := strip * t.width
		memops.ZeroMemory(t.cells[start : start+t.width])
		t.dirty[strip] = true
	}
}

// Add touches doc's strip, adds score to its accumulator, and returns the
// value the cell held immediately before the update.
func (t *Table[S]) Add(doc uint32, score S) (old S) {
	t.Touch(doc)
	old = t.cells[doc]
	t.cells[doc] = old + score
	return old
}

// At returns doc's current accumulator value without touching its strip.
// Callers must only rely on this for a doc whose strip is already dirty.
func (t *Table[S]) At(doc uint32) S { return t.cells[doc] }

// ClearAll marks every strip as not dirty. It does not zero the backing
// cells array; Touch will do so lazily the next time each strip is used.
func (t *Table[S]) ClearAll() {
	clear(t.dirty)
}
