// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package omap implements the L2 ordered hash map/set of spec.md §4.5: a
// cuckoo-probed, open-addressed map whose entries are additionally threaded
// into an insertion-order ring, with a probe-budget-exhaustion growth policy
// and an algorithmic-complexity-attack mitigation mode. It is grounded on
// spec.md §4.5 directly; the ring is index-linked within the entries slice
// (next/prev stored as slice indices) per spec.md §9's explicit preference
// for target languages over the teacher's container_of-style embedding
// (lldb has no direct analog: its closest relative, flt.go's free list, is
// generalized instead into package ilist, which omap does not use here
// precisely because an index-linked ring needs no node allocation).
package omap

import (
	"log"

	"github.com/cznic/corekit/xhash"
)

const (
	// maxSeek is the probe budget of spec.md §4.5/§9 (OQ-2): "min(mask,
	// max_seek=96)".
	maxSeek = 96

	// attackThreshold is the number of full-hash, non-matching-key
	// collisions along one probe chain that flips underAttack (OQ-2).
	attackThreshold = 11

	// stride is the odd, compile-time constant probe stride; odd strides
	// visit every slot of a power-of-two-sized table exactly once.
	stride = 0x9E3779B1 | 1

	minUsedBits   = 3 // 8 slots
	growthRetries = 3
)

const (
	slotEmpty     = -1
	slotTombstone = -2
)

type entry[K comparable, V any] struct {
	key        K
	val        V
	hash       uint64
	prev, next int32 // ring links, entry-slice indices; -1 at the ring ends
	alive      bool
}

// Option configures a Map at construction.
type Option[K comparable, V any] func(*Map[K, V])

// WithCapacity bounds the Map to at most n live entries; once full, Put
// evicts the ring head (the oldest entry) before inserting, per spec.md
// §4.5 step 3.
func WithCapacity[K comparable, V any](n int) Option[K, V] {
	return func(m *Map[K, V]) {
		m.capacity = n
		m.evictOnFull = true
	}
}

// WithLogger overrides the logger used for the under-attack security
// warning (spec.md §4.5/§7). Defaults to the standard library's log package.
func WithLogger[K comparable, V any](l *log.Logger) Option[K, V] {
	return func(m *Map[K, V]) { m.logger = l }
}

// A Map is the ordered, cuckoo-probed hash map of spec.md §4.5. Construct
// with New; the zero Map is not valid, since a key-hashing function must be
// supplied.
type Map[K comparable, V any] struct {
	entries []entry[K, V]
	free    []int32 // recycled entry-slice slots from Delete

	slots    []int32 // probe table, size 2^usedBits; slotEmpty/slotTombstone/index
	usedBits uint

	count         int
	head, tail    int32 // ring ends, -1 if empty
	hasCollisions bool
	underAttack   bool

	capacity    int
	evictOnFull bool

	hashFn func(K) uint64
	logger *log.Logger

	curKey xhash.Local[curKeyState[K]]
}

type curKeyState[K comparable] struct {
	key   K
	valid bool
}

// New returns an empty Map that hashes keys with hashFn (the spec.md §6
// H(bytes, seed) -> u64 contract specialized to K; see HashString/HashBytes
// for string/[]byte convenience bindings over xhash.Default).
func New[K comparable, V any](hashFn func(K) uint64, opts ...Option[K, V]) *Map[K, V] {
	m := &Map[K, V]{
		hashFn:   hashFn,
		head:     -1,
		tail:     -1,
		usedBits: minUsedBits,
		logger:   log.Default(),
	}
	m.slots = newSlots(1 << m.usedBits)
	m.curKey = xhash.NewLocal(func() curKeyState[K] { return curKeyState[K]{} })
	return m
}

// HashString returns a hash function over string keys, salting with seed
// through h (xhash.Default if nil).
func HashString(h xhash.Hasher, seed uint64) func(string) uint64 {
	if h == nil {
		h = xhash.Default
	}
	return func(s string) uint64 { return h.Sum([]byte(s), seed) }
}

// HashBytes returns a hash function over byte slices, salting with seed
// through h (xhash.Default if nil). Map keys must be comparable, so it does
// not serve as a Map's hashFn for []byte keys.
func HashBytes(h xhash.Hasher, seed uint64) func([]byte) uint64 {
	if h == nil {
		h = xhash.Default
	}
	return func(b []byte) uint64 { return h.Sum(b, seed) }
}

func newSlots(n int) []int32 {
	s := make([]int32, n)
	for i := range s {
		s[i] = slotEmpty
	}
	return s
}

func (m *Map[K, V]) mask() uint64 { return uint64(len(m.slots) - 1) }

// Len reports the number of live entries.
func (m *Map[K, V]) Len() int { return m.count }

// UnderAttack reports whether m has degraded into the attack-mitigation mode
// described in spec.md §4.5.
func (m *Map[K, V]) UnderAttack() bool { return m.underAttack }

// HasCollisions reports whether any full-hash collision has ever been
// observed by m.
func (m *Map[K, V]) HasCollisions() bool { return m.hasCollisions }

// probe finds the slot for hash h/key k. If found is true, slotIdx names a
// slot holding a live, key-matching entry (or, under attack, a hash-matching
// entry). If found is false, slotIdx names the first empty-or-tombstone slot
// available for insertion (or -1 if the probe budget was exhausted).
func (m *Map[K, V]) probe(h uint64, k K) (slotIdx int, entryIdx int32, found bool) {
	mask := m.mask()
	seekBudget := maxSeek
	if int(mask) < seekBudget {
		seekBudget = int(mask)
	}

	firstFree := -1
	chainCollisions := 0
	for seek := 0; seek <= seekBudget; seek++ {
		idx := int((h + uint64(seek)*stride) & mask)
		s := m.slots[idx]

		switch {
		case s == slotEmpty:
			if firstFree == -1 {
				firstFree = idx
			}
			return firstFree, -1, false
		case s == slotTombstone:
			if firstFree == -1 {
				firstFree = idx
			}
		default:
			e := &m.entries[s]
			if e.hash == h {
				if e.key == k {
					return idx, s, true
				}
				m.hasCollisions = true
				chainCollisions++
				if chainCollisions >= attackThreshold && !m.underAttack {
					m.underAttack = true
					if m.logger != nil {
						m.logger.Printf("omap: security warning: probe chain exceeded %d full-hash collisions, entering degraded (under-attack) mode", attackThreshold)
					}
				}
				if m.underAttack {
					return idx, s, true
				}
			}
		}
	}
	return firstFree, -1, false
}

// Put inserts or overwrites k -> v, returning the previous value if any
// (spec.md §4.5 step 4's overwrite semantics).
func (m *Map[K, V]) Put(k K, v V) (old V, hadOld bool) {
	h := m.hashFn(k)

	for attempt := 0; ; attempt++ {
		slotIdx, entryIdx, found := m.probe(h, k)
		if found {
			e := &m.entries[entryIdx]
			old, hadOld = e.val, true
			e.val = v
			return old, hadOld
		}
		if slotIdx >= 0 {
			m.insertAt(slotIdx, h, k, v)
			m.maybeGrowAfterInsert()
			return old, false
		}

		if !m.growAfterFailedProbe(attempt) {
			panic("omap: probe table saturated beyond growth retries")
		}
	}
}

// Insert inserts k -> v only if k is absent; if k is already present, it
// discards v and returns the existing value (spec.md §4.5 step 4's
// "discard the incoming (on insert)" semantics).
func (m *Map[K, V]) Insert(k K, v V) (existing V, hadExisting bool) {
	h := m.hashFn(k)

	for attempt := 0; ; attempt++ {
		slotIdx, entryIdx, found := m.probe(h, k)
		if found {
			return m.entries[entryIdx].val, true
		}
		if slotIdx >= 0 {
			m.insertAt(slotIdx, h, k, v)
			m.maybeGrowAfterInsert()
			return existing, false
		}
		if !m.growAfterFailedProbe(attempt) {
			panic("omap: probe table saturated beyond growth retries")
		}
	}
}

func (m *Map[K, V]) insertAt(slotIdx int, h uint64, k K, v V) {
	if m.evictOnFull && m.capacity > 0 && m.count >= m.capacity {
		if headIdx := m.head; headIdx >= 0 {
			for i, s := range m.slots {
				if s == headIdx {
					m.slots[i] = slotTombstone
					break
				}
			}
			m.deleteEntry(headIdx)
			// The eviction may have freed the very slot we were about to use
			// if it collided; re-probe is unnecessary since slotIdx was
			// computed as the first available slot and eviction only frees
			// more slots, never invalidates an already-free one.
		}
	}

	var idx int32
	if n := len(m.free); n > 0 {
		idx = m.free[n-1]
		m.free = m.free[:n-1]
		m.entries[idx] = entry[K, V]{}
	} else {
		idx = int32(len(m.entries))
		m.entries = append(m.entries, entry[K, V]{})
	}

	e := &m.entries[idx]
	e.key, e.val, e.hash, e.alive = k, v, h, true
	m.linkTail(idx)
	m.slots[slotIdx] = idx
	m.count++
}

func (m *Map[K, V]) linkTail(idx int32) {
	e := &m.entries[idx]
	e.prev, e.next = m.tail, -1
	if m.tail >= 0 {
		m.entries[m.tail].next = idx
	} else {
		m.head = idx
	}
	m.tail = idx
}

func (m *Map[K, V]) unlink(idx int32) {
	e := &m.entries[idx]
	if e.prev >= 0 {
		m.entries[e.prev].next = e.next
	} else {
		m.head = e.next
	}
	if e.next >= 0 {
		m.entries[e.next].prev = e.prev
	} else {
		m.tail = e.prev
	}
}

// growAfterFailedProbe implements spec.md §4.5 step 2: rehash at the same
// size on the first failure (clearing tombstones), then double the table,
// up to growthRetries attempts total. It returns false once retries are
// exhausted.
func (m *Map[K, V]) growAfterFailedProbe(attempt int) bool {
	if attempt >= growthRetries {
		return false
	}
	if attempt == 0 {
		m.rehash(m.usedBits)
		return true
	}
	m.rehash(m.usedBits + 1)
	return true
}

func (m *Map[K, V]) maybeGrowAfterInsert() {
	if m.count*2 >= len(m.slots) {
		m.rehash(m.usedBits + 1)
	}
}

// rehash rebuilds the probe table at 2^bits slots from the live ring,
// clearing all tombstones. Called both for "same size" tombstone clearing
// (bits == m.usedBits) and for growth (bits > m.usedBits).
func (m *Map[K, V]) rehash(bits uint) {
	m.usedBits = bits
	m.slots = newSlots(1 << bits)
	mask := m.mask()

	for idx := m.head; idx >= 0; idx = m.entries[idx].next {
		e := &m.entries[idx]
		for seek := 0; seek <= int(mask); seek++ {
			slotIdx := int((e.hash + uint64(seek)*stride) & mask)
			if m.slots[slotIdx] == slotEmpty {
				m.slots[slotIdx] = idx
				break
			}
		}
	}
}

func (m *Map[K, V]) maybeShrinkAfterDelete() {
	if m.usedBits < 8 {
		return
	}
	if m.count*8 >= len(m.slots) {
		return
	}
	target := m.usedBits
	for target > minUsedBits && m.count*8 < 1<<target {
		target--
	}
	if target != m.usedBits {
		m.rehash(target)
	}
}

// Get reports the value stored for k, if any.
func (m *Map[K, V]) Get(k K) (v V, ok bool) {
	h := m.hashFn(k)
	_, entryIdx, found := m.probe(h, k)
	if !found {
		return v, false
	}
	return m.entries[entryIdx].val, true
}

// Delete removes k, reporting its value and whether it was present.
func (m *Map[K, V]) Delete(k K) (v V, ok bool) {
	h := m.hashFn(k)
	slotIdx, entryIdx, found := m.probe(h, k)
	if !found {
		return v, false
	}
	v = m.entries[entryIdx].val
	m.slots[slotIdx] = slotTombstone
	m.deleteEntry(entryIdx)
	m.maybeShrinkAfterDelete()
	return v, true
}

func (m *Map[K, V]) deleteEntry(idx int32) {
	m.unlink(idx)
	m.entries[idx] = entry[K, V]{}
	m.free = append(m.free, idx)
	m.count--
}

// Each performs an ordered (insertion-order) walk of m's entries, starting
// at the startAt'th entry from the ring head (negative counts from the
// tail, per spec.md §4.5). fn is called with each entry's position and its
// key/value; returning -1 stops iteration. Each returns the position
// reached. While fn runs, CurrentKey reports the entry's key.
func (m *Map[K, V]) Each(startAt int, fn func(pos int, k K, v V) int) int {
	idx := m.head
	pos := 0
	if startAt < 0 {
		startAt = m.count + startAt
		if startAt < 0 {
			startAt = 0
		}
	}
	for idx >= 0 && pos < startAt {
		idx = m.entries[idx].next
		pos++
	}

	defer m.curKey.Reset()
	for idx >= 0 {
		e := &m.entries[idx]
		m.curKey.Set(curKeyState[K]{key: e.key, valid: true})
		if fn(pos, e.key, e.val) == -1 {
			return pos
		}
		idx = e.next
		pos++
	}
	return pos
}

// CurrentKey reports the key of the entry currently being visited by an
// in-progress Each call on the calling goroutine (spec.md §4.5/§5's
// thread-local "current position").
func (m *Map[K, V]) CurrentKey() (k K, ok bool) {
	st := m.curKey.Get()
	return st.key, st.valid
}

// Keys returns every live key in insertion order.
func (m *Map[K, V]) Keys() []K {
	out := make([]K, 0, m.count)
	for idx := m.head; idx >= 0; idx = m.entries[idx].next {
		out = append(out, m.entries[idx].key)
	}
	return out
}
