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

package termdict

import "testing"

func TestResolveKnownTerm(t *testing.T) {
	b := NewBuilder()
	b.Add("cat", 0, 12)
	b.Add("dog", 12, 8)
	d := b.Build()

	id, offset, length, err := d.Resolve("cat")
	if err != nil {
		t.Fatalf("Resolve(cat): %v", err)
	}
	if offset != 0 || length != 12 {
		t.Fatalf("Resolve(cat) = offset=%d length=%d, want 0,12", offset, length)
	}
	id2, _, _, err := d.Resolve("cat")
	if err != nil {
		t.Fatal(err)
	}
	if id != id2 {
		t.Fatalf("Resolve(cat) id not stable: %d != %d", id, id2)
	}
}

func TestResolveUnknownTerm(t *testing.T) {
	d := NewBuilder().Build()
	if _, _, _, err := d.Resolve("ghost"); err != ErrUnknownTerm {
		t.Fatalf("Resolve(ghost) err = %v, want ErrUnknownTerm", err)
	}
}

func TestDistinctTermsGetDistinctIDs(t *testing.T) {
	b := NewBuilder()
	b.Add("alpha", 0, 1)
	b.Add("beta", 1, 1)
	d := b.Build()

	a, _, _, _ := d.Resolve("alpha")
	be, _, _, _ := d.Resolve("beta")
	if a == be {
		t.Fatalf("expected distinct term ids, both got %d", a)
	}
	if d.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", d.Len())
	}
}

func TestAddIsIdempotent(t *testing.T) {
	b := NewBuilder()
	b.Add("x", 5, 5)
	b.Add("x", 99, 99)
	d := b.Build()
	_, offset, length, _ := d.Resolve("x")
	if offset != 5 || length != 5 {
		t.Fatalf("second Add overwrote first: offset=%d length=%d", offset, length)
	}
}
