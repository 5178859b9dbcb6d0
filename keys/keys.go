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

// Package keys implements the primary-key table: the read-only mapping
// from an internal, dense document id to the external string key a
// caller actually wants to see in a result row.
//
// A Table is built once when an index is loaded and then shared,
// immutably, across every rank.Engine querying that index; nothing in
// this package mutates a Table after New returns.
package keys

import "fmt"

// Table is a flat, position-indexed primary-key mapping.
type Table struct {
	keys []string
}

// New builds a Table from an already-ordered slice of keys, where keys[i]
// is the external key for document id i. The slice is retained, not
// copied; callers must not mutate it afterward.
func New(keys []string) *Table {
	return &Table{keys: keys}
}

// Key returns the external key for doc. It panics if doc is out of
// range, exactly like a slice index would, since Table makes no attempt
// to validate ids a caller already validated against the index's
// document count.
func (t *Table) Key(doc uint32) string {
	return t.keys[doc]
}

// Len reports the number of documents this table covers.
func (t *Table) Len() int { return len(t.keys) }

// String renders a short diagnostic summary of the table.
func (t *Table) String() string {
	return fmt.Sprintf("keys.Table{documents=%d}", len(t.keys))
}
