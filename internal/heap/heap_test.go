package heap

import (
	"math/rand"
	"testing"
)

func TestPushPopOrdered(t *testing.T) {
	h := New[string]()
	vals := []uint64{5, 3, 8, 1, 9, 2, 7}
	refs := make([]int, len(vals))
	for i, v := range vals {
		h.Push(v, "x", &refs[i])
	}
	var out []uint64
	for h.Len() > 0 {
		it, ok := h.Pop()
		if !ok {
			t.Fatalf("Pop reported empty with Len = %d", h.Len())
		}
		out = append(out, it.Val)
	}
	for i := 1; i < len(out); i++ {
		if out[i-1] > out[i] {
			t.Fatalf("pop order not ascending: %v", out)
		}
	}
}

func TestRefTracksPosition(t *testing.T) {
	h := New[int]()
	const n = 100
	refs := make([]int, n)
	for i := 0; i < n; i++ {
		h.Push(uint64(n-i), i, &refs[i])
	}
	for i := 0; i < n; i++ {
		pos := refs[i]
		if pos < 0 || pos >= h.Len() {
			t.Fatalf("ref[%d] = %d out of range", i, pos)
		}
		if h.At(pos).Value != i {
			t.Fatalf("At(ref[%d]=%d).Value = %v, want %d", i, pos, h.At(pos).Value, i)
		}
	}
}

func TestUpdateReordersAndKeepsRefValid(t *testing.T) {
	h := New[int]()
	var refA, refB, refC int
	h.Push(10, 1, &refA)
	h.Push(20, 2, &refB)
	h.Push(30, 3, &refC)

	h.Update(refB, 1) // B becomes the new minimum
	min, ok := h.Peek()
	if !ok || min.Value != 2 {
		t.Fatalf("Peek after Update = %v, want value 2", min)
	}

	for _, p := range []struct {
		ref *int
		val int
	}{{&refA, 1}, {&refB, 2}, {&refC, 3}} {
		if h.At(*p.ref).Value != p.val {
			t.Fatalf("At(%d).Value = %v, want %d", *p.ref, h.At(*p.ref).Value, p.val)
		}
	}
}

func TestRemoveByRefThenHeapStillOrdered(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	h := New[int]()
	const n = 200
	refs := make([]int, n)
	vals := make([]uint64, n)
	for i := 0; i < n; i++ {
		vals[i] = uint64(rng.Intn(10000))
		h.Push(vals[i], i, &refs[i])
	}

	// Remove every even-indexed value via its live ref.
	for i := 0; i < n; i += 2 {
		h.Remove(refs[i])
		if refs[i] != -1 {
			t.Fatalf("ref[%d] not invalidated after Remove", i)
		}
	}
	if h.Len() != n/2 {
		t.Fatalf("Len after removals = %d, want %d", h.Len(), n/2)
	}

	var last uint64
	seen := 0
	for h.Len() > 0 {
		it, _ := h.Pop()
		if seen > 0 && it.Val < last {
			t.Fatalf("heap order violated after interleaved removals: %d before %d", last, it.Val)
		}
		last = it.Val
		seen++
	}
	if seen != n/2 {
		t.Fatalf("popped %d items, want %d", seen, n/2)
	}
}

func TestPeekEmpty(t *testing.T) {
	h := New[int]()
	if _, ok := h.Peek(); ok {
		t.Fatalf("Peek on empty heap reported ok")
	}
	if _, ok := h.Pop(); ok {
		t.Fatalf("Pop on empty heap reported ok")
	}
}
