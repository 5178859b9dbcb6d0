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

// Package termdict implements the boundary between query text and the
// ranking core: it resolves a term string to the term id and postings
// offset an index.Index stores for it, and nothing more. Tokenisation,
// stemming, and any notion of term weighting beyond what is already
// baked into a term's postings block are explicitly out of scope; a
// termdict lookup never itself influences a score.
package termdict

import (
	"errors"

	"github.com/dchest/siphash"
)

// ErrUnknownTerm is returned by Resolve when a term was never indexed.
var ErrUnknownTerm = errors.New("termdict: unknown term")

// seed is a fixed, arbitrary siphash key. It only needs to be stable
// within one process: term ids are never persisted or compared across
// index builds.
const (
	seedK0 = 0x5bd1e995b1a98d73
	seedK1 = 0x9ae16a3b2f90404f
)

// TermID identifies a term within one Dict. It carries no meaning beyond
// "the same term resolves to the same TermID within this Dict".
type TermID uint64

// entry records where a resolved term's postings block lives within the
// index's postings segment.
type entry struct {
	id     TermID
	offset uint32
	length uint32
}

// Dict is a read-only term lookup table, built once when an index loads.
type Dict struct {
	byTerm map[string]entry
}

// Builder accumulates terms before producing an immutable Dict.
type Builder struct {
	byTerm map[string]entry
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{byTerm: make(map[string]entry)}
}

// Add registers term with the byte range [offset, offset+length) of its
// postings block. It is a no-op if term was already added.
func (b *Builder) Add(term string, offset, length uint32) {
	if _, ok := b.byTerm[term]; ok {
		return
	}
	b.byTerm[term] = entry{
		id:     TermID(siphash.Hash(seedK0, seedK1, []byte(term))),
		offset: offset,
		length: length,
	}
}

// Build finalizes the Builder into a Dict.
func (b *Builder) Build() *Dict {
	return &Dict{byTerm: b.byTerm}
}

// Resolve looks up term, returning its TermID and the byte range of its
// postings block within the index's postings segment.
func (d *Dict) Resolve(term string) (id TermID, offset, length uint32, err error) {
	e, ok := d.byTerm[term]
	if !ok {
		return 0, 0, 0, ErrUnknownTerm
	}
	return e.id, e.offset, e.length, nil
}

// Len reports the number of distinct terms in the dictionary.
func (d *Dict) Len() int { return len(d.byTerm) }
