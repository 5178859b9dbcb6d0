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

// Package result renders a finalized rank.Engine's ranked output. It is
// the consumer side of the engine's Begin/iteration contract: a single
// pass over the finalized backing array, one row per document.
package result

import (
	"fmt"
	"io"

	"github.com/ranksearch/rankcore/accum"
	"github.com/ranksearch/rankcore/rank"
)

// Row is one rendered result, detached from the engine's iterator so it
// can be retained after the next query starts.
type Row[S accum.Score] struct {
	Rank  int
	DocID uint32
	Key   string
	Score S
}

// Collect drains it into a plain slice of Rows, numbering them from 1 in
// the order the iterator yields them (i.e. descending score order).
func Collect[S accum.Score](it *rank.Iterator[S]) []Row[S] {
	rows := make([]Row[S], 0, it.Len())
	for i := 1; ; i++ {
		r, ok := it.Next()
		if !ok {
			break
		}
		rows = append(rows, Row[S]{Rank: i, DocID: r.DocID, Key: r.Key, Score: r.Score})
	}
	return rows
}

// Print writes one line per result to w, in the format:
//
//	<rank>. <key> (doc=<doc_id>, score=<score>)
func Print[S accum.Score](w io.Writer, it *rank.Iterator[S]) error {
	for _, row := range Collect(it) {
		if _, err := fmt.Fprintf(w, "%d. %s (doc=%d, score=%v)\n", row.Rank, row.Key, row.DocID, row.Score); err != nil {
			return err
		}
	}
	return nil
}
