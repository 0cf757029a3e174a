// Package keyspace implements Keyspace: the top-level key→Entry index
// every command operates against, plus the TTL policy described in
// spec.md §4.5.
//
// Grounded directly on
// _examples/original_source/server_data.{h,cpp} (Entry, do_get/do_set/
// do_del, entry_set_ttl/heap_upsert/heap_delete, expect_zset): Entry's
// shape (a hash node plus a tagged string-or-zset payload and a TTL
// heap slot) and the lookup-then-type-check pattern for every command
// handler are carried over unchanged in spirit; Go generics replace
// the C++ container_of/HNode intrusion, and the heap slot is tracked
// through internal/heap's back-reference rather than a raw size_t
// index into a std::vector.
package keyspace

import (
	"errors"

	"github.com/JeffersonJefferson-pixel/build-your-own-redis/internal/heap"
	"github.com/JeffersonJefferson-pixel/build-your-own-redis/internal/hashidx"
	"github.com/JeffersonJefferson-pixel/build-your-own-redis/internal/xhash"
	"github.com/JeffersonJefferson-pixel/build-your-own-redis/internal/zset"
)

// Type tags an Entry's payload, per spec.md §4.5's T_STR/T_ZSET union.
type Type int

const (
	TypeString Type = iota
	TypeZSet
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeZSet:
		return "zset"
	default:
		return "none"
	}
}

// ErrType is returned whenever a command addresses an Entry with the
// wrong Type (GET/SET against a zset key, ZADD/ZSCORE/... against a
// string key).
var ErrType = errors.New("keyspace: wrong type for operation")

// Entry is one keyspace record.
type Entry struct {
	Key  string
	Type Type
	Str  string
	ZSet *zset.Set

	heapRef int // index into Keyspace.ttl, or -1 if no TTL is set
}

func eqKey(key string) func(*Entry) bool {
	return func(e *Entry) bool { return e.Key == key }
}

// Keyspace owns the live key→Entry index and the TTL heap driving
// expiration.
type Keyspace struct {
	idx *hashidx.Index[*Entry]
	ttl *heap.Heap[*Entry]

	migrateBatch int // passed to every zset created via ZSetFor
}

// New returns an empty Keyspace whose own key index, and every zset it
// creates via ZSetFor, migrate up to migrateBatch chains per call
// while rehashing (see hashidx.New).
func New(migrateBatch int) *Keyspace {
	return &Keyspace{
		idx:          hashidx.New[*Entry](migrateBatch),
		ttl:          heap.New[*Entry](),
		migrateBatch: migrateBatch,
	}
}

// Len returns the number of live keys.
func (k *Keyspace) Len() int {
	return k.idx.Size()
}

// Get returns the Entry stored under key, if any.
func (k *Keyspace) Get(key string) (*Entry, bool) {
	return k.idx.Lookup(xhash.String(key), eqKey(key))
}

// Exists reports whether key is present, regardless of type.
func (k *Keyspace) Exists(key string) bool {
	_, ok := k.Get(key)
	return ok
}

// SetString upserts key as a string Entry. Returns ErrType if key
// already exists with a different Type.
func (k *Keyspace) SetString(key, val string) error {
	if e, ok := k.Get(key); ok {
		if e.Type != TypeString {
			return ErrType
		}
		e.Str = val
		return nil
	}
	e := &Entry{Key: key, Type: TypeString, Str: val, heapRef: -1}
	k.idx.Insert(xhash.String(key), e)
	return nil
}

// GetString returns key's string value. ok is false if the key is
// absent; err is ErrType if key exists but isn't a string.
func (k *Keyspace) GetString(key string) (val string, ok bool, err error) {
	e, found := k.Get(key)
	if !found {
		return "", false, nil
	}
	if e.Type != TypeString {
		return "", true, ErrType
	}
	return e.Str, true, nil
}

// ZSetFor returns the SortedSet stored under key, creating it (as an
// empty SortedSet Entry) if create is true and key is absent. Returns
// ErrType if key exists with a different Type.
func (k *Keyspace) ZSetFor(key string, create bool) (*zset.Set, error) {
	if e, ok := k.Get(key); ok {
		if e.Type != TypeZSet {
			return nil, ErrType
		}
		return e.ZSet, nil
	}
	if !create {
		return nil, nil
	}
	e := &Entry{Key: key, Type: TypeZSet, ZSet: zset.New(k.migrateBatch), heapRef: -1}
	k.idx.Insert(xhash.String(key), e)
	return e.ZSet, nil
}

// Del removes key entirely, detaching any TTL heap slot first. Returns
// true if key was present.
func (k *Keyspace) Del(key string) bool {
	e, ok := k.idx.Pop(xhash.String(key), eqKey(key))
	if !ok {
		return false
	}
	k.clearTTL(e)
	return true
}

// Keys returns every live key, in unspecified order.
func (k *Keyspace) Keys() []string {
	out := make([]string, 0, k.idx.Size())
	k.idx.ForEach(func(e *Entry) { out = append(out, e.Key) })
	return out
}

// SetTTL applies spec.md §4.5's TTL policy: a non-negative ttlMS
// upserts expire_at = nowMS+ttlMS into the TTL heap at e's recorded
// slot; a negative ttlMS clears the slot if present. Returns true if
// key exists.
func (k *Keyspace) SetTTL(key string, ttlMS, nowMS int64) bool {
	e, ok := k.Get(key)
	if !ok {
		return false
	}
	if ttlMS < 0 {
		k.clearTTL(e)
		return true
	}
	expireAt := uint64(nowMS + ttlMS)
	if e.heapRef < 0 {
		k.ttl.Push(expireAt, e, &e.heapRef)
	} else {
		k.ttl.Update(e.heapRef, expireAt)
	}
	return true
}

func (k *Keyspace) clearTTL(e *Entry) {
	if e.heapRef < 0 {
		return
	}
	k.ttl.Remove(e.heapRef)
}

// PeekTTL returns the soonest expire_at in the TTL heap, without
// popping it. Used by the reactor to compute its next poll timeout.
func (k *Keyspace) PeekTTL() (int64, bool) {
	top, ok := k.ttl.Peek()
	if !ok {
		return 0, false
	}
	return int64(top.Val), true
}

// ExpireDue pops and deletes every Entry whose TTL has elapsed as of
// nowMS, up to maxExpirations removals, bounding per-tick cost per
// spec.md §4.8 step 4. Returns the number of keys expired.
func (k *Keyspace) ExpireDue(nowMS int64, maxExpirations int) int {
	n := 0
	for n < maxExpirations {
		top, ok := k.ttl.Peek()
		if !ok || top.Val > uint64(nowMS) {
			break
		}
		e := top.Value
		k.idx.Pop(xhash.String(e.Key), eqKey(e.Key))
		k.ttl.Pop()
		n++
	}
	return n
}
