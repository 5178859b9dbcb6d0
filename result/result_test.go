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

package result

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/ranksearch/rankcore/rank"
)

type sliceKeys []string

func (s sliceKeys) Key(doc uint32) string { return s[doc] }

func buildEngine(t *testing.T) *rank.Engine[uint16] {
	t.Helper()
	keys := make(sliceKeys, 5)
	for i := range keys {
		keys[i] = fmt.Sprintf("doc-%d", i)
	}
	e, err := rank.New[uint16](keys, 5, 3)
	if err != nil {
		t.Fatalf("rank.New: %v", err)
	}
	e.AddRSV(0, 1)
	e.AddRSV(1, 9)
	e.AddRSV(2, 5)
	return e
}

func TestCollectOrdersByRank(t *testing.T) {
	e := buildEngine(t)
	rows := Collect(e.Begin())
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}
	if rows[0].Rank != 1 || rows[0].DocID != 1 {
		t.Fatalf("rows[0] = %+v, want rank 1 doc 1", rows[0])
	}
	if rows[len(rows)-1].Score > rows[0].Score {
		t.Fatalf("rows not in descending score order: %+v", rows)
	}
}

func TestPrintFormatsRows(t *testing.T) {
	e := buildEngine(t)
	var buf bytes.Buffer
	if err := Print(&buf, e.Begin()); err != nil {
		t.Fatalf("Print: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "1. doc-1 (doc=1, score=9)") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}
