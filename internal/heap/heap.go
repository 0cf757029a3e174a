// Package heap implements IndexedHeap: an array-backed binary min-heap
// whose items carry a back-reference into the owner's own storage, so
// the owner always knows an item's current heap position without a
// side index.
//
// The sift-up/sift-down/back-reference algorithm is ported from
// _examples/original_source/heap.cpp (heap_up, heap_down,
// heap_update); the growable-backing-slice bookkeeping around it is
// written in the teacher's array.go style (ArrayHT: explicit len/cap
// management over a slice instead of reaching for container/heap).
package heap

// Item is one heap slot. Ref, when non-nil, is written with the
// item's current index every time it moves, so external code (a
// Keyspace Entry, say) can always find itself in the heap in O(1).
type Item[V any] struct {
	Val   uint64
	Ref   *int
	Value V
}

// Heap is a min-heap ordered by Item.Val.
type Heap[V any] struct {
	items []Item[V]
}

// New returns an empty IndexedHeap.
func New[V any]() *Heap[V] {
	return &Heap[V]{}
}

// Len returns the number of items in the heap.
func (h *Heap[V]) Len() int {
	return len(h.items)
}

func left(i int) int   { return i*2 + 1 }
func right(i int) int  { return i*2 + 2 }
func parent(i int) int { return (i+1)/2 - 1 }

func (h *Heap[V]) set(pos int, it Item[V]) {
	h.items[pos] = it
	if it.Ref != nil {
		*it.Ref = pos
	}
}

func (h *Heap[V]) up(pos int) {
	t := h.items[pos]
	for pos > 0 && h.items[parent(pos)].Val > t.Val {
		h.set(pos, h.items[parent(pos)])
		pos = parent(pos)
	}
	h.set(pos, t)
}

func (h *Heap[V]) down(pos int) {
	t := h.items[pos]
	n := len(h.items)
	for {
		l, r := left(pos), right(pos)
		minPos := pos
		minVal := t.Val
		if l < n && h.items[l].Val < minVal {
			minPos, minVal = l, h.items[l].Val
		}
		if r < n && h.items[r].Val < minVal {
			minPos, minVal = r, h.items[r].Val
		}
		if minPos == pos {
			break
		}
		h.set(pos, h.items[minPos])
		pos = minPos
	}
	h.set(pos, t)
}

// update restores heap order around pos after its value changed
// (or after it was just inserted at the tail).
func (h *Heap[V]) update(pos int) {
	if pos > 0 && h.items[parent(pos)].Val > h.items[pos].Val {
		h.up(pos)
	} else {
		h.down(pos)
	}
}

// Push inserts (val, value) and wires ref, if non-nil, to track its
// position. Returns the item's initial position (useful in tests;
// callers should generally rely on ref for the live position).
func (h *Heap[V]) Push(val uint64, value V, ref *int) int {
	h.items = append(h.items, Item[V]{Val: val, Ref: ref, Value: value})
	pos := len(h.items) - 1
	if ref != nil {
		*ref = pos
	}
	h.update(pos)
	if ref != nil {
		return *ref
	}
	return pos
}

// Fix restores heap order around pos after Item(pos).Val changed in
// place (Update mutates Val then calls Fix, so keyspace.SetTTL's
// TTL-refresh path doesn't need to pop and re-push).
func (h *Heap[V]) Fix(pos int) {
	h.update(pos)
}

// Update sets the value at pos to val and restores heap order.
func (h *Heap[V]) Update(pos int, val uint64) {
	h.items[pos].Val = val
	h.Fix(pos)
}

// Peek returns the minimum item without removing it.
func (h *Heap[V]) Peek() (Item[V], bool) {
	if len(h.items) == 0 {
		var zero Item[V]
		return zero, false
	}
	return h.items[0], true
}

// At returns the item currently stored at pos.
func (h *Heap[V]) At(pos int) Item[V] {
	return h.items[pos]
}

// Remove detaches the item at pos, moving the last item into its slot
// (if it wasn't already last) and restoring heap order there.
func (h *Heap[V]) Remove(pos int) Item[V] {
	removed := h.items[pos]
	last := len(h.items) - 1
	if pos != last {
		h.set(pos, h.items[last])
	}
	h.items = h.items[:last]
	if pos != last && pos < len(h.items) {
		h.update(pos)
	}
	if removed.Ref != nil {
		*removed.Ref = -1
	}
	return removed
}

// Pop removes and returns the minimum item.
func (h *Heap[V]) Pop() (Item[V], bool) {
	if len(h.items) == 0 {
		var zero Item[V]
		return zero, false
	}
	return h.Remove(0), true
}
