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

// Package postings implements a minimal impact-ordered posting list
// codec: a sequence of (doc_id, impact) pairs, doc ids strictly
// increasing and delta-varint-encoded, impacts stored as plain uvarints.
//
// The decode loop follows the same shape a block-oriented columnar
// decoder uses: read a uvarint count prefix, then iterate, handing
// each decoded entry to a callback rather than materializing a slice.
package postings

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ranksearch/rankcore/internal/memops"
)

// ErrTruncated is returned when a block ends before its declared entry
// count has been consumed.
var ErrTruncated = errors.New("postings: truncated block")

// Entry is one posting: a document id and the impact (partial RSV) it
// contributes to that document for the term the list belongs to.
type Entry struct {
	DocID  uint32
	Impact uint16
}

// Encoder builds an encoded posting-list block. Entries must be appended
// in strictly increasing DocID order; this is the caller's
// responsibility, exactly as it would be for any term's inverted index
// construction.
type Encoder struct {
	buf    []byte
	last   uint32
	count  int
	scratch [binary.MaxVarintLen64]byte
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Add appends one posting. DocID must be strictly greater than the
// previous call's DocID (or this is the first call).
func (e *Encoder) Add(docID uint32, impact uint16) error {
	if e.count > 0 && docID <= e.last {
		return fmt.Errorf("postings: doc ids must be strictly increasing, got %d after %d", docID, e.last)
	}
	delta := uint64(docID)
	if e.count > 0 {
		delta = uint64(docID - e.last)
	}
	n := binary.PutUvarint(e.scratch[:], delta)
	e.buf = append(e.buf, e.scratch[:n]...)
	n = binary.PutUvarint(e.scratch[:], uint64(impact))
	e.buf = append(e.buf, e.scratch[:n]...)
	e.last = docID
	e.count++
	return nil
}

// Bytes returns the encoded block: a uvarint entry count followed by the
// delta/impact pairs appended via Add.
func (e *Encoder) Bytes() []byte {
	var head [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(head[:], uint64(e.count))
	out := make([]byte, 0, n+len(e.buf))
	out = append(out, head[:n]...)
	out = append(out, e.buf...)
	return out
}

// Decode walks an encoded block, invoking fn once per posting in
// ascending doc-id order. It returns ErrTruncated if the block's declared
// entry count cannot be satisfied from the bytes available.
func Decode(block []byte, fn func(docID uint32, impact uint16)) error {
	count, n := binary.Uvarint(block)
	if n <= 0 {
		if len(block) == 0 {
			return nil
		}
		return ErrTruncated
	}
	block = block[n:]

	var doc uint32
	for i := uint64(0); i < count; i++ {
		delta, n := binary.Uvarint(block)
		if n <= 0 {
			return ErrTruncated
		}
		block = block[n:]

		impact, n := binary.Uvarint(block)
		if n <= 0 {
			return ErrTruncated
		}
		block = block[n:]

		doc += uint32(delta)
		fn(doc, uint16(impact))
	}
	return nil
}

// scratchBuf is a per-document seen-flag bitmap. A caller that decodes
// several terms of one query shares a single scratchBuf across all of
// them, so that a document already matched by an earlier term can be
// recognized.
type scratchBuf struct {
	seen []bool
}

// NewScratch allocates decode scratch state sized for documents ids in
// [0, documents).
func NewScratch(documents int) *scratchBuf {
	return &scratchBuf{seen: make([]bool, documents)}
}

// Reset clears every seen-flag in the scratch buffer, using the same
// bulk-zero idiom the accumulator table uses for its strips.
func (s *scratchBuf) Reset() {
	memops.ZeroMemory(s.seen)
}

// MarkSeen records that doc has been visited and reports whether it had
// already been marked since the buffer was created or last Reset. This exists so
// a disjunctive query processing more than one term for the same
// document can detect repeats without touching the ranking engine.
func (s *scratchBuf) MarkSeen(doc uint32) (already bool) {
	already = s.seen[doc]
	s.seen[doc] = true
	return already
}
