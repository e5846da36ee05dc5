// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cmap implements the L2 "alt" hash map of spec.md §4.6: a compact
// map that separates a small probe table from a bulkier ordered data vector,
// trading omap's insertion-order ring for fewer large-record reallocations
// when V is expensive to move. It is grounded on spec.md §4.6 directly;
// compaction orders the surviving data-vector indices with
// github.com/cznic/sortutil's sort.Interface adapters, the same dependency
// family the teacher (lldb/falloc.go) already pulls in for its own ordering
// needs, applied here to rebuilding the probe table from live data entries.
package cmap

import (
	"sort"

	"github.com/cznic/corekit/xhash"
	"github.com/cznic/sortutil"
)

// Uint32Slice is not provided by sortutil; liveIndicesSorted instead sorts
// via sortutil.Int64Slice (a type sortutil does export, alongside
// IntSlice/StringSlice/Float64Slice), matching the teacher's own use of that
// family in lldb/falloc.go's Verify.

const (
	maxSeek     = 96
	stride      = 0x9E3779B1 | 1
	minProbeLog = 3 // 8 slots
)

type slotState uint8

const (
	csEmpty slotState = iota
	csTombstone
	csUsed
)

type probeSlot struct {
	state   slotState
	sig     uint32
	dataIdx uint32
}

type dataEntry[K comparable, V any] struct {
	hash    uint64
	key     K
	val     V
	removed bool
}

// A Map is the compact alt hash map of spec.md §4.6. Construct with New; the
// zero Map is not valid.
type Map[K comparable, V any] struct {
	data []dataEntry[K, V]
	free []uint32 // recycled, removed data-slice slots

	slots    []probeSlot
	probeLog uint

	count      int
	offset     int // removed data entries awaiting compaction
	collisions bool

	hashFn func(K) uint64
}

// New returns an empty Map that hashes keys with hashFn.
func New[K comparable, V any](hashFn func(K) uint64) *Map[K, V] {
	m := &Map[K, V]{hashFn: hashFn, probeLog: minProbeLog}
	m.slots = make([]probeSlot, 1<<m.probeLog)
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

func (m *Map[K, V]) mask() uint64 { return uint64(len(m.slots) - 1) }

// Len reports the number of live entries.
func (m *Map[K, V]) Len() int { return m.count }

// HasCollisions reports whether a full-hash, non-matching-key collision has
// ever been observed.
func (m *Map[K, V]) HasCollisions() bool { return m.collisions }

func sig32(h uint64) uint32 { return uint32(h) }

// findSlot walks the probe sequence for (h, k). If found, slotIdx/dataIdx
// name a live, matching entry. Otherwise slotIdx names the first
// empty-or-tombstone slot available for insertion, or -1 if the probe budget
// was exhausted.
func (m *Map[K, V]) findSlot(h uint64, k K) (slotIdx int, dataIdx uint32, found bool) {
	mask := m.mask()
	budget := maxSeek
	if int(mask) < budget {
		budget = int(mask)
	}
	sig := sig32(h)
	firstFree := -1

	for seek := 0; seek <= budget; seek++ {
		idx := int((h + uint64(seek)*stride) & mask)
		s := &m.slots[idx]

		switch s.state {
		case csEmpty:
			if firstFree == -1 {
				firstFree = idx
			}
			return firstFree, 0, false
		case csTombstone:
			if firstFree == -1 {
				firstFree = idx
			}
		case csUsed:
			if s.sig != sig {
				continue
			}
			d := &m.data[s.dataIdx]
			if d.removed {
				continue
			}
			if d.hash != h {
				continue // sig-only false positive
			}
			if d.key == k {
				return idx, s.dataIdx, true
			}
			m.collisions = true
		}
	}
	return firstFree, 0, false
}

// Put inserts or overwrites k -> v, returning the previous value if any.
func (m *Map[K, V]) Put(k K, v V) (old V, hadOld bool) {
	h := m.hashFn(k)

	for attempt := 0; ; attempt++ {
		slotIdx, dataIdx, found := m.findSlot(h, k)
		if found {
			d := &m.data[dataIdx]
			old, hadOld = d.val, true
			d.val = v
			return old, hadOld
		}
		if slotIdx >= 0 {
			m.insertAt(slotIdx, h, k, v)
			m.maybeGrow()
			return old, false
		}
		if attempt >= 3 {
			panic("cmap: probe table saturated beyond growth retries")
		}
		m.growProbe(m.probeLog + 1)
	}
}

// Get reports the value stored for k, if any.
func (m *Map[K, V]) Get(k K) (v V, ok bool) {
	h := m.hashFn(k)
	_, dataIdx, found := m.findSlot(h, k)
	if !found {
		return v, false
	}
	return m.data[dataIdx].val, true
}

// Delete removes k, reporting its value and whether it was present.
func (m *Map[K, V]) Delete(k K) (v V, ok bool) {
	h := m.hashFn(k)
	slotIdx, dataIdx, found := m.findSlot(h, k)
	if !found {
		return v, false
	}
	d := &m.data[dataIdx]
	v = d.val
	d.removed = true
	d.hash = 0
	var zeroV V
	d.val = zeroV
	m.free = append(m.free, dataIdx)

	m.slots[slotIdx].state = csTombstone
	m.count--
	m.offset++

	if m.shouldCompact() {
		m.compact()
	}
	return v, true
}

func (m *Map[K, V]) insertAt(slotIdx int, h uint64, k K, v V) {
	var idx uint32
	if n := len(m.free); n > 0 {
		idx = m.free[n-1]
		m.free = m.free[:n-1]
		m.data[idx] = dataEntry[K, V]{hash: h, key: k, val: v}
	} else {
		idx = uint32(len(m.data))
		m.data = append(m.data, dataEntry[K, V]{hash: h, key: k, val: v})
	}
	m.slots[slotIdx] = probeSlot{state: csUsed, sig: sig32(h), dataIdx: idx}
	m.count++
}

func (m *Map[K, V]) maybeGrow() {
	if m.count*2 >= len(m.slots) {
		m.growProbe(m.probeLog + 1)
	}
}

// shouldCompact implements spec.md §4.6's "compaction rebuilds map ... when
// offset approaches its representable limit or when collisions is set." This
// module treats "approaches its limit" as half of the data vector being dead
// (a representable-limit proxy scaled to the vector's own size rather than a
// fixed bit width, so compaction remains reachable in tests of any size).
func (m *Map[K, V]) shouldCompact() bool {
	if m.collisions {
		return true
	}
	return len(m.data) > 0 && m.offset*2 >= len(m.data)
}

// growProbe rebuilds the probe table at 2^log slots from the live data
// vector, ordering surviving indices via sortutil before reinsertion so
// compaction and growth share one deterministic rebuild path.
func (m *Map[K, V]) growProbe(log uint) {
	m.probeLog = log
	m.slots = make([]probeSlot, 1<<log)
	mask := m.mask()

	live := m.liveIndicesSorted()
	for _, idx := range live {
		d := &m.data[idx]
		sig := sig32(d.hash)
		for seek := 0; seek <= int(mask); seek++ {
			slotIdx := int((d.hash + uint64(seek)*stride) & mask)
			if m.slots[slotIdx].state == csEmpty {
				m.slots[slotIdx] = probeSlot{state: csUsed, sig: sig, dataIdx: uint32(idx)}
				break
			}
		}
	}
}

// liveIndicesSorted returns the indices of non-removed data entries in
// ascending order, via sortutil.Int64Slice.
func (m *Map[K, V]) liveIndicesSorted() []uint32 {
	tmp := make(sortutil.Int64Slice, 0, len(m.data)-m.offset)
	for i := range m.data {
		if !m.data[i].removed {
			tmp = append(tmp, int64(i))
		}
	}
	sort.Sort(tmp)

	out := make([]uint32, len(tmp))
	for i, v := range tmp {
		out[i] = uint32(v)
	}
	return out
}

// compact rebuilds both the data vector and the probe table, dropping
// removed entries (spec.md §4.6).
func (m *Map[K, V]) compact() {
	live := m.liveIndicesSorted()
	nd := make([]dataEntry[K, V], len(live))
	for i, idx := range live {
		nd[i] = m.data[idx]
	}
	m.data = nd
	m.free = m.free[:0]
	m.offset = 0
	m.collisions = false
	m.growProbe(m.probeLog)
}

// Each visits every live entry in data-vector order (ascending index, which
// is insertion order except where a Put reused a slot freed by Delete;
// compaction keeps the relative order), calling fn with the
// (original) key and value. fn returning false stops the walk.
func (m *Map[K, V]) Each(fn func(k K, v V) bool) {
	for i := range m.data {
		if m.data[i].removed {
			continue
		}
		if !fn(m.data[i].key, m.data[i].val) {
			return
		}
	}
}
