// Package zset implements SortedSet: a composite of HashIndex (lookup
// a member by name) and OrderTree (walk members by (score, name)
// order), mirroring _examples/original_source/zset.cpp's ZSet —
// one HMap keyed by name, one AVL tree keyed by (score, name), with
// every ZNode living in both structures simultaneously.
package zset

import (
	"strings"

	"github.com/JeffersonJefferson-pixel/build-your-own-redis/internal/hashidx"
	"github.com/JeffersonJefferson-pixel/build-your-own-redis/internal/ordertree"
	"github.com/JeffersonJefferson-pixel/build-your-own-redis/internal/xhash"
)

// Member is one (name, score) pair. It lives as the payload of both a
// hashidx.Node (keyed by name's hash) and an ordertree.Node (keyed by
// (Score, Name)); node caches the latter so Add/Remove can splice it
// out of the tree without a second seek.
type Member struct {
	Name  string
	Score float64

	node *ordertree.Node[*Member]
}

// less implements (score, name) order: by score first, then by name
// under Go's native byte-lexicographic string comparison — which is
// exactly memcmp-then-shorter-is-less, the tie-break zless in the
// reference implementation computes by hand.
func less(a, b *Member) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Name < b.Name
}

func eqName(name string) func(*Member) bool {
	return func(m *Member) bool { return m.Name == name }
}

// Set is a SortedSet.
type Set struct {
	idx  *hashidx.Index[*Member]
	tree *ordertree.Tree[*Member]
}

// New returns an empty SortedSet whose member index migrates up to
// migrateBatch chains per call while rehashing (see hashidx.New).
func New(migrateBatch int) *Set {
	return &Set{
		idx:  hashidx.New[*Member](migrateBatch),
		tree: ordertree.New[*Member](less),
	}
}

// Len returns the number of members.
func (s *Set) Len() int {
	return s.idx.Size()
}

// Add upserts (name, score). Returns true if name is new, false if an
// existing member's score was updated (or left unchanged).
func (s *Set) Add(name string, score float64) bool {
	h := xhash.String(name)
	if m, ok := s.idx.Lookup(h, eqName(name)); ok {
		if m.Score != score {
			s.tree.Remove(m.node)
			m.Score = score
			m.node = s.tree.Insert(m)
		}
		return false
	}
	m := &Member{Name: name, Score: score}
	s.idx.Insert(h, m)
	m.node = s.tree.Insert(m)
	return true
}

// Score returns name's current score.
func (s *Set) Score(name string) (float64, bool) {
	m, ok := s.idx.Lookup(xhash.String(name), eqName(name))
	if !ok {
		return 0, false
	}
	return m.Score, true
}

// Remove detaches name from both sub-structures. Returns true if name
// was present.
func (s *Set) Remove(name string) bool {
	m, ok := s.idx.Pop(xhash.String(name), eqName(name))
	if !ok {
		return false
	}
	s.tree.Remove(m.node)
	return true
}

// Query seeks the least member with (score, name) ≥ (score, name)
// under the set's order, skips offset further members (offset may be
// negative to walk backward), then collects up to limit members
// forward from there. Returns nil if the seek or the skip runs off
// either end, or if limit ≤ 0.
func (s *Set) Query(score float64, name string, offset, limit int) []Member {
	if limit <= 0 {
		return nil
	}
	seek := &Member{Name: name, Score: score}
	start := s.tree.SeekGE(seek)
	if start == nil {
		return nil
	}
	start = ordertree.Offset(start, offset)
	if start == nil {
		return nil
	}

	out := make([]Member, 0, limit)
	for n := start; n != nil && len(out) < limit; n = ordertree.Next(n) {
		out = append(out, *n.Key)
	}
	return out
}

// compareNames is exposed for tests that want to assert Go's string
// order matches the reference memcmp-then-shorter-is-less rule.
func compareNames(a, b string) int {
	return strings.Compare(a, b)
}
