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

// Package index implements a small single-file on-disk index format: a
// header, a primary-key block, and a sequence of per-term postings
// blocks. It is the toy collaborator that wires keys, termdict, and
// postings together into something a query can actually be run against.
//
// The on-disk layout follows a segment-header-then-blocks shape:
//
//	magic(4) version(4) documents(4)
//	keyBlockRawLen(4) keyBlockCompLen(4) keyBlock(keyBlockCompLen)
//	termCount(4)
//	  [termLen(2) term(termLen) offset(4) rawLen(4) compLen(4)]*termCount
//	postings segment: compLen bytes per term, in declaration order
//
// The primary-key block and every postings block are compressed with
// klauspost/compress's s2 block codec; s2 trades a little ratio for very
// fast decompression, which fits a block that is decoded once per term
// per query.
package index

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/klauspost/compress/s2"

	"github.com/ranksearch/rankcore/keys"
	"github.com/ranksearch/rankcore/postings"
	"github.com/ranksearch/rankcore/termdict"
)

const (
	magic   = 0x52414e4b // "RANK"
	version = 1
)

// Option configures an Index loader, following the same functional
// option shape used throughout this module's ambient stack.
type Option func(*config)

type config struct {
	logger *log.Logger
}

// WithLogger directs load diagnostics to logger instead of being
// discarded.
func WithLogger(logger *log.Logger) Option {
	return func(c *config) { c.logger = logger }
}

func newConfig(opts []Option) *config {
	c := &config{logger: log.New(io.Discard, "", 0)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Index is a loaded, read-only index: a primary-key table, a term
// dictionary, and the raw (still-compressed) postings blocks each term
// resolves to.
type Index struct {
	Keys      *keys.Table
	Terms     *termdict.Dict
	Documents int

	postings []byte // concatenated, per-term s2-compressed postings blocks
}

// termMeta mirrors one on-disk term-table row while a Build is being
// assembled, before it is written out.
type termMeta struct {
	term   string
	raw    []byte
	offset uint32
}

// Builder assembles an in-memory Index and can persist it to a Writer.
type Builder struct {
	documentKeys []string
	terms        []termMeta
}

// NewBuilder returns an empty Builder for an index over the given
// primary keys, one per document id in order.
func NewBuilder(documentKeys []string) *Builder {
	return &Builder{documentKeys: documentKeys}
}

// AddTerm registers a term's already-encoded postings block (see
// postings.Encoder.Bytes). Terms must be added in the order they should
// appear on disk; order has no semantic meaning beyond that.
func (b *Builder) AddTerm(term string, encodedPostings []byte) {
	b.terms = append(b.terms, termMeta{term: term, raw: encodedPostings})
}

// Write serializes the index to w.
func (b *Builder) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)

	keyBlockRaw := []byte(strings.Join(b.documentKeys, "\n"))
	keyBlockComp := s2.Encode(nil, keyBlockRaw)

	if err := writeU32(bw, magic); err != nil {
		return err
	}
	if err := writeU32(bw, version); err != nil {
		return err
	}
	if err := writeU32(bw, uint32(len(b.documentKeys))); err != nil {
		return err
	}
	if err := writeU32(bw, uint32(len(keyBlockRaw))); err != nil {
		return err
	}
	if err := writeU32(bw, uint32(len(keyBlockComp))); err != nil {
		return err
	}
	if _, err := bw.Write(keyBlockComp); err != nil {
		return err
	}

	if err := writeU32(bw, uint32(len(b.terms))); err != nil {
		return err
	}

	compressed := make([][]byte, len(b.terms))
	var offset uint32
	for i, tm := range b.terms {
		compressed[i] = s2.Encode(nil, tm.raw)
		if err := writeU16(bw, uint16(len(tm.term))); err != nil {
			return err
		}
		if _, err := bw.WriteString(tm.term); err != nil {
			return err
		}
		if err := writeU32(bw, offset); err != nil {
			return err
		}
		if err := writeU32(bw, uint32(len(tm.raw))); err != nil {
			return err
		}
		if err := writeU32(bw, uint32(len(compressed[i]))); err != nil {
			return err
		}
		offset += uint32(len(compressed[i]))
	}
	for _, c := range compressed {
		if _, err := bw.Write(c); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile persists the index to path, creating or truncating it.
func (b *Builder) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("index: create %s: %w", path, err)
	}
	defer f.Close()
	if err := b.Write(f); err != nil {
		return fmt.Errorf("index: write %s: %w", path, err)
	}
	return nil
}

// Load reads and validates an Index from r.
func Load(r io.Reader, opts ...Option) (*Index, error) {
	cfg := newConfig(opts)
	br := bufio.NewReader(r)

	m, err := readU32(br)
	if err != nil {
		return nil, fmt.Errorf("index: read magic: %w", err)
	}
	if m != magic {
		return nil, fmt.Errorf("index: bad magic %#x", m)
	}
	v, err := readU32(br)
	if err != nil {
		return nil, fmt.Errorf("index: read version: %w", err)
	}
	if v != version {
		return nil, fmt.Errorf("index: unsupported version %d", v)
	}
	documents, err := readU32(br)
	if err != nil {
		return nil, fmt.Errorf("index: read document count: %w", err)
	}

	keyRawLen, err := readU32(br)
	if err != nil {
		return nil, fmt.Errorf("index: read key block raw length: %w", err)
	}
	keyCompLen, err := readU32(br)
	if err != nil {
		return nil, fmt.Errorf("index: read key block compressed length: %w", err)
	}
	keyComp := make([]byte, keyCompLen)
	if _, err := io.ReadFull(br, keyComp); err != nil {
		return nil, fmt.Errorf("index: read key block: %w", err)
	}
	keyRaw, err := s2.Decode(make([]byte, keyRawLen), keyComp)
	if err != nil {
		return nil, fmt.Errorf("index: decompress key block: %w", err)
	}
	documentKeys := strings.Split(string(keyRaw), "\n")
	if uint32(len(documentKeys)) != documents {
		return nil, fmt.Errorf("index: key block has %d entries, header declares %d", len(documentKeys), documents)
	}
	cfg.logger.Printf("index: loaded %d primary keys", documents)

	termCount, err := readU32(br)
	if err != nil {
		return nil, fmt.Errorf("index: read term count: %w", err)
	}

	type rawTerm struct {
		term           string
		offset, length uint32
	}
	rawTerms := make([]rawTerm, termCount)
	for i := range rawTerms {
		termLen, err := readU16(br)
		if err != nil {
			return nil, fmt.Errorf("index: read term %d length: %w", i, err)
		}
		termBytes := make([]byte, termLen)
		if _, err := io.ReadFull(br, termBytes); err != nil {
			return nil, fmt.Errorf("index: read term %d: %w", i, err)
		}
		offset, err := readU32(br)
		if err != nil {
			return nil, fmt.Errorf("index: read term %d offset: %w", i, err)
		}
		if _, err := readU32(br); err != nil { // raw length, unused after decode below
			return nil, fmt.Errorf("index: read term %d raw length: %w", i, err)
		}
		compLen, err := readU32(br)
		if err != nil {
			return nil, fmt.Errorf("index: read term %d compressed length: %w", i, err)
		}
		rawTerms[i] = rawTerm{term: string(termBytes), offset: offset, length: compLen}
	}

	postingsSegment, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("index: read postings segment: %w", err)
	}

	dictBuilder := termdict.NewBuilder()
	for _, t := range rawTerms {
		dictBuilder.Add(t.term, t.offset, t.length)
	}
	cfg.logger.Printf("index: loaded %d terms, %d bytes of postings", termCount, len(postingsSegment))

	return &Index{
		Keys:      keys.New(documentKeys),
		Terms:     dictBuilder.Build(),
		Documents: int(documents),
		postings:  postingsSegment,
	}, nil
}

// LoadFile opens and loads an Index from path.
func LoadFile(path string, opts ...Option) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("index: open %s: %w", path, err)
	}
	defer f.Close()
	idx, err := Load(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("index: load %s: %w", path, err)
	}
	return idx, nil
}

// Postings decodes and returns the encoded posting-list bytes for the
// byte range termdict.Dict.Resolve reported for a term, ready for
// postings.Decode.
func (idx *Index) Postings(offset, length uint32) ([]byte, error) {
	if uint64(offset)+uint64(length) > uint64(len(idx.postings)) {
		return nil, fmt.Errorf("index: postings range [%d,%d) out of bounds (segment is %d bytes)", offset, offset+length, len(idx.postings))
	}
	comp := idx.postings[offset : offset+length]
	decodedLen, err := s2.DecodedLen(comp)
	if err != nil {
		return nil, fmt.Errorf("index: bad postings block: %w", err)
	}
	return s2.Decode(make([]byte, decodedLen), comp)
}

// Decode resolves term and decodes its postings directly, combining
// Terms.Resolve and Postings for the common case.
func (idx *Index) Decode(term string, fn func(doc uint32, impact uint16)) error {
	_, offset, length, err := idx.Terms.Resolve(term)
	if err != nil {
		return err
	}
	raw, err := idx.Postings(offset, length)
	if err != nil {
		return err
	}
	return postings.Decode(raw, fn)
}

func writeU32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeU16(w io.Writer, v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readU16(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}
