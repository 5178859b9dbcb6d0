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

package postings

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	want := []Entry{
		{DocID: 1, Impact: 5},
		{DocID: 3, Impact: 9},
		{DocID: 4, Impact: 1},
		{DocID: 100, Impact: 65000},
	}
	enc := NewEncoder()
	for _, e := range want {
		if err := enc.Add(e.DocID, e.Impact); err != nil {
			t.Fatalf("Add(%d, %d): %v", e.DocID, e.Impact, err)
		}
	}

	var got []Entry
	if err := Decode(enc.Bytes(), func(doc uint32, impact uint16) {
		got = append(got, Entry{DocID: doc, Impact: impact})
	}); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestAddRejectsNonIncreasingDocID(t *testing.T) {
	enc := NewEncoder()
	if err := enc.Add(5, 1); err != nil {
		t.Fatal(err)
	}
	if err := enc.Add(5, 1); err == nil {
		t.Fatal("expected error for repeated doc id")
	}
	if err := enc.Add(3, 1); err == nil {
		t.Fatal("expected error for decreasing doc id")
	}
}

func TestDecodeEmptyBlock(t *testing.T) {
	var calls int
	if err := Decode(nil, func(uint32, uint16) { calls++ }); err != nil {
		t.Fatalf("Decode(nil): %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no callback invocations, got %d", calls)
	}
}

func TestDecodeTruncated(t *testing.T) {
	enc := NewEncoder()
	_ = enc.Add(1, 1)
	_ = enc.Add(2, 1)
	full := enc.Bytes()
	if err := Decode(full[:len(full)-1], func(uint32, uint16) {}); err != ErrTruncated {
		t.Fatalf("Decode(truncated) = %v, want ErrTruncated", err)
	}
}

func TestScratchMarkSeen(t *testing.T) {
	s := NewScratch(10)
	if already := s.MarkSeen(3); already {
		t.Fatal("expected first MarkSeen to report not-already-seen")
	}
	if already := s.MarkSeen(3); !already {
		t.Fatal("expected second MarkSeen to report already-seen")
	}
	s.Reset()
	if already := s.MarkSeen(3); already {
		t.Fatal("expected MarkSeen after Reset to report not-already-seen")
	}
}
