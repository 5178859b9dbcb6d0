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

// Package rank implements the top-k disjunctive ranked-retrieval query
// engine: the component that a posting-list decoder drives through
// Rewind, many AddRSV calls, and finally Begin/iteration, to produce the
// strongest top_k documents for one query in descending score order.
//
// An Engine is built once and reused across many queries; Rewind resets
// it in O(strips) time between them. It is not safe for concurrent use
// by multiple goroutines -- a multithreaded query workload is expected
// to give each worker its own Engine, each with its own accumulator
// table, heap, and arena, sharing only the read-only PrimaryKeys table.
package rank

import (
	"errors"
	"fmt"

	"github.com/ranksearch/rankcore/accum"
	"github.com/ranksearch/rankcore/arena"
	"github.com/ranksearch/rankcore/topk"
)

// ErrInvalidArgument is wrapped into the error returned by New when a
// construction parameter is out of range.
var ErrInvalidArgument = errors.New("rank: invalid argument")

// ErrAllocFailed is wrapped into the error returned by New when the
// engine's arena does not have enough room for its working set.
var ErrAllocFailed = errors.New("rank: allocation failed")

// PrimaryKeys maps an internal document id to its external string key.
// It is read-only from the engine's point of view and is expected to be
// shared, immutably, across every Engine built against the same index.
type PrimaryKeys interface {
	Key(doc uint32) string
}

// State is the engine's lifecycle state machine (spec section 4.5).
type State int

const (
	// Ready is the state immediately after construction or Rewind.
	Ready State = iota
	// Accumulating is entered on the first AddRSV after Ready.
	Accumulating
	// Finalised is entered on the first Begin call.
	Finalised
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Accumulating:
		return "accumulating"
	case Finalised:
		return "finalised"
	default:
		return "unknown"
	}
}

// Result is one row of a finalized query: a document, its external key,
// and the RSV it accumulated.
type Result[S accum.Score] struct {
	DocID uint32
	Key   string
	Score S
}

// Engine is the accumulator-and-heap ranking core for one query stream.
type Engine[S accum.Score] struct {
	keys  PrimaryKeys
	table *accum.Table[S]
	heap  *topk.Heap[S]
	topK  int
	state State
}

// New constructs an Engine for an index of the given document count,
// configured to track the topK strongest documents per query. All
// working memory is carved out of a fresh, fixed-capacity arena sized to
// fit the accumulator table and the heap; construction is the only place
// an Engine can fail.
func New[S accum.Score](keys PrimaryKeys, documents, topK int) (*Engine[S], error) {
	if documents <= 0 {
		return nil, fmt.Errorf("%w: documents must be positive, got %d", ErrInvalidArgument, documents)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive, got %d", ErrInvalidArgument, topK)
	}
	if topK > documents {
		return nil, fmt.Errorf("%w: topK (%d) cannot exceed documents (%d)", ErrInvalidArgument, topK, documents)
	}

	var zero S
	cellSize := int(sizeofScore(zero))
	width, strips := accum.Dimensions(documents)
	budget := width*strips*cellSize + strips + topK*4 + 4096

	a := arena.New(budget)
	table, ok := accum.New[S](a, documents)
	if !ok {
		return nil, fmt.Errorf("%w: accumulator table", ErrAllocFailed)
	}
	h, ok := topk.NewHeap[S](a, table, topK)
	if !ok {
		return nil, fmt.Errorf("%w: heap", ErrAllocFailed)
	}

	return &Engine[S]{
		keys:  keys,
		table: table,
		heap:  h,
		topK:  topK,
		state: Ready,
	}, nil
}

func sizeofScore[S accum.Score](s S) uintptr {
	switch any(s).(type) {
	case uint16:
		return 2
	case uint32:
		return 4
	default:
		return 8
	}
}

// State reports the engine's current lifecycle state.
func (e *Engine[S]) State() State { return e.state }

// Rewind logically empties the engine: the tracked top-k set is cleared
// and every accumulator strip is marked not dirty. This runs in
// O(strips) time, independent of the document count. The engine returns
// to the Ready state regardless of which state it was in.
func (e *Engine[S]) Rewind() {
	e.heap.Reset()
	e.table.ClearAll()
	e.state = Ready
}

// AddRSV is the hot path: it adds score to doc's running total and
// maintains the bounded top-k set. It is legal in the Ready and
// Accumulating states and always leaves the engine in Accumulating.
//
// doc must satisfy 0 <= doc < documents and score is expected to be
// positive; both are the caller's responsibility; AddRSV does not
// bounds-check.
func (e *Engine[S]) AddRSV(doc uint32, score S) {
	e.state = Accumulating
	old := e.table.Add(doc, score)
	ref := topk.Ref(doc)

	if !e.heap.Full() {
		if old == 0 {
			e.heap.Append(ref)
			if e.heap.Full() {
				e.heap.MakeHeap()
			}
		}
		return
	}

	if idx, found := e.heap.Find(ref); found {
		e.heap.PromoteAt(idx)
		return
	}

	root := e.heap.Root()
	if e.less(root, ref) {
		e.heap.ReplaceRoot(ref)
	}
}

func (e *Engine[S]) less(a, b topk.Ref) bool {
	sa, sb := e.table.At(uint32(a)), e.table.At(uint32(b))
	if sa != sb {
		return sa < sb
	}
	return a < b
}

// Begin partially sorts the tracked top-k set into descending order and
// returns an iterator over it. It is legal in the Accumulating or
// Finalised states and is idempotent: calling it again re-runs the sort
// (harmlessly, since the set hasn't changed) and returns a fresh
// iterator over the same results. The returned iterator is invalidated
// by the next AddRSV or Rewind call.
func (e *Engine[S]) Begin() *Iterator[S] {
	e.state = Finalised
	refs := e.heap.Refs()
	n := len(refs)
	if n > e.topK {
		n = e.topK
	}
	topk.PartialSortDescending(refs, e.less, e.topK)
	return &Iterator[S]{engine: e, refs: refs[:n]}
}

// Iterator yields the finalized top-k results in descending order. It is
// forward-only and single-use.
type Iterator[S accum.Score] struct {
	engine *Engine[S]
	refs   []topk.Ref
	i      int
}

// Next advances the iterator, reporting false once it is exhausted
// (the end position).
func (it *Iterator[S]) Next() (Result[S], bool) {
	if it.i >= len(it.refs) {
		return Result[S]{}, false
	}
	ref := it.refs[it.i]
	it.i++
	doc := uint32(ref)
	return Result[S]{
		DocID: doc,
		Key:   it.engine.keys.Key(doc),
		Score: it.engine.table.At(doc),
	}, true
}

// Len reports the total number of results the iterator will yield.
func (it *Iterator[S]) Len() int { return len(it.refs) }
