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

package arena

import (
	"sync"
	"testing"
)

func TestMallocExhaustion(t *testing.T) {
	a := New(16)
	p, ok := a.Malloc(10, 1)
	if !ok || p == nil {
		t.Fatalf("expected first allocation to succeed")
	}
	if a.Size() != 10 {
		t.Fatalf("size = %d, want 10", a.Size())
	}
	if _, ok := a.Malloc(10, 1); ok {
		t.Fatalf("expected second allocation to fail (would exceed capacity)")
	}
	// a failed Malloc must not move the cursor
	if a.Size() != 10 {
		t.Fatalf("size after failed malloc = %d, want 10", a.Size())
	}
}

func TestMallocAlignment(t *testing.T) {
	a := New(64)
	if _, ok := a.Malloc(3, 1); !ok {
		t.Fatal("malloc failed")
	}
	p, ok := a.Malloc(8, 8)
	if !ok {
		t.Fatal("aligned malloc failed")
	}
	if uintptr(p)%8 != 0 {
		t.Fatalf("pointer %v not 8-byte aligned", p)
	}
}

func TestRewind(t *testing.T) {
	a := New(32)
	a.Malloc(32, 1)
	if _, ok := a.Malloc(1, 1); ok {
		t.Fatal("expected arena to be full")
	}
	a.Rewind()
	if a.Size() != 0 {
		t.Fatalf("size after rewind = %d, want 0", a.Size())
	}
	if _, ok := a.Malloc(32, 1); !ok {
		t.Fatal("expected allocation to succeed after rewind")
	}
}

func TestAllocTyped(t *testing.T) {
	a := New(1024)
	xs, ok := Alloc[uint32](a, 10)
	if !ok || len(xs) != 10 {
		t.Fatalf("Alloc failed: ok=%v len=%d", ok, len(xs))
	}
	for _, x := range xs {
		if x != 0 {
			t.Fatalf("expected zero-initialized slice")
		}
	}
	xs[3] = 99
	if xs[3] != 99 {
		t.Fatal("slice returned by Alloc is not writable")
	}
}

func TestAllocExhaustion(t *testing.T) {
	a := New(4)
	if _, ok := Alloc[uint64](a, 1); ok {
		t.Fatal("expected Alloc to fail: uint64 needs 8 bytes, arena has 4")
	}
}

func TestAtomicArenaConcurrent(t *testing.T) {
	const n = 256
	a := NewAtomic(n * 8)
	bases := make([]uintptr, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, ok := a.Malloc(8, 8)
			if !ok {
				t.Errorf("unexpected allocation failure")
				return
			}
			bases[i] = uintptr(p)
		}()
	}
	wg.Wait()
	if a.Size() != n*8 {
		t.Fatalf("final size = %d, want %d", a.Size(), n*8)
	}
	seen := make(map[uintptr]bool, n)
	for _, b := range bases {
		if seen[b] {
			t.Fatalf("duplicate allocation at %v", b)
		}
		seen[b] = true
	}
}

func TestAtomicArenaExhaustion(t *testing.T) {
	a := NewAtomic(8)
	if _, ok := a.Malloc(8, 1); !ok {
		t.Fatal("expected first allocation to succeed")
	}
	if _, ok := a.Malloc(1, 1); ok {
		t.Fatal("expected allocation to fail once arena is full")
	}
	a.Rewind()
	if _, ok := a.Malloc(8, 1); !ok {
		t.Fatal("expected allocation to succeed after rewind")
	}
}
