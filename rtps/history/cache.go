// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

// Package history implements the per-endpoint history cache: an
// ordered store of cache changes enforcing HISTORY and
// RESOURCE_LIMITS, plus the per-instance/per-sample read-side
// bookkeeping (view state, instance state, sample state).
package history

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/corvidds/corvid/rtps/guid"
	corviderrors "github.com/corvidds/corvid/rtps/errors"
	"github.com/corvidds/corvid/rtps/qos"
	"github.com/corvidds/corvid/rtps/types"
)

// ChangeKind is the sample kind carried by a CacheChange.
type ChangeKind int

const (
	Alive ChangeKind = iota
	NotAliveDisposed
	NotAliveUnregistered
)

// SampleState of one received sample.
type SampleState int

const (
	NotRead SampleState = iota
	Read
)

// ViewState of an instance as seen by a particular reader.
type ViewState int

const (
	New ViewState = iota
	NotNew
)

// InstanceState of an instance as seen by a particular reader.
type InstanceState int

const (
	InstanceAlive InstanceState = iota
	InstanceNotAliveDisposed
	InstanceNotAliveNoWriters
)

// CacheChange is one sample. Immutable once inserted into a
// HistoryCache.
type CacheChange struct {
	Kind           ChangeKind
	WriterGUID     guid.GUID
	InstanceHandle types.InstanceHandle
	SequenceNumber types.SequenceNumber
	Timestamp      types.Timestamp
	Payload        []byte
	InlineQos      []byte

	// SampleState is reader-side bookkeeping; writers leave it unset.
	SampleState SampleState
}

// Instance tracks the reader-side state machine for one instance
// handle: view state, instance state, and its retained cache changes
// in sequence-number order.
type Instance struct {
	Handle        types.InstanceHandle
	ViewState     ViewState
	InstanceState InstanceState
	Changes       []*CacheChange // ascending by SequenceNumber
	NoWriters     map[guid.GUID]struct{}
}

// changeKey uniquely identifies a change within a cache.
type changeKey struct {
	writer guid.GUID
	sn     types.SequenceNumber
}

// sampleLostCounter is incremented whenever KEEP_ALL resource limits
// force a reader to silently drop a change (spec.md §4.1).
type sampleLostCounter struct {
	total int64
}

func (c *sampleLostCounter) inc() { atomic.AddInt64(&c.total, 1) }

// Total returns the SAMPLE_LOST.total_count observed by this cache.
func (c *sampleLostCounter) Total() int64 { return atomic.LoadInt64(&c.total) }

// HistoryCache is the ordered store of cache changes for one
// endpoint. It is not concurrent: the owning endpoint actor
// serializes all access, per spec.md §4.1.
type HistoryCache struct {
	qosHistory    qos.History
	qosLimits     qos.ResourceLimits
	isWriterSide  bool

	byKey     map[changeKey]*CacheChange
	order     []*CacheChange // by writer GUID, then ascending SequenceNumber
	instances map[types.InstanceHandle]*Instance

	sampleLost sampleLostCounter
}

// New creates a HistoryCache. isWriterSide selects OUT_OF_RESOURCES
// (writer) vs. silent-drop-plus-SAMPLE_LOST (reader) behavior when
// RESOURCE_LIMITS is exhausted under KEEP_ALL.
func New(h qos.History, rl qos.ResourceLimits, isWriterSide bool) *HistoryCache {
	return &HistoryCache{
		qosHistory:   h,
		qosLimits:    rl,
		isWriterSide: isWriterSide,
		byKey:        make(map[changeKey]*CacheChange),
		instances:    make(map[types.InstanceHandle]*Instance),
	}
}

// SampleLostTotal returns the running SAMPLE_LOST.total_count.
func (c *HistoryCache) SampleLostTotal() int64 { return c.sampleLost.Total() }

func (c *HistoryCache) instanceOf(handle types.InstanceHandle) *Instance {
	inst, ok := c.instances[handle]
	if !ok {
		inst = &Instance{Handle: handle, ViewState: New, InstanceState: InstanceAlive}
		c.instances[handle] = inst
	}
	return inst
}

// AddChange inserts change, applying HISTORY/RESOURCE_LIMITS eviction.
// On a writer, returns ErrOutOfResources if KEEP_ALL's max_samples is
// exhausted (caller should apply max_blocking_time and retry). On a
// reader, silently drops and increments SAMPLE_LOST instead of
// returning an error.
func (c *HistoryCache) AddChange(change *CacheChange) error {
	key := changeKey{writer: change.WriterGUID, sn: change.SequenceNumber}
	if _, exists := c.byKey[key]; exists {
		// duplicate (writer GUID, sequence number): invariant forbids
		// two changes sharing a key; treat as a no-op.
		return nil
	}

	inst := c.instanceOf(change.InstanceHandle)

	switch c.qosHistory.Kind {
	case qos.KeepLast:
		depth := int(c.qosHistory.Depth)
		for len(inst.Changes) >= depth {
			evicted := inst.Changes[0]
			inst.Changes = inst.Changes[1:]
			c.removeFromOrder(evicted)
			delete(c.byKey, changeKey{writer: evicted.WriterGUID, sn: evicted.SequenceNumber})
		}
	case qos.KeepAll:
		if c.qosLimits.MaxSamples > 0 && len(c.byKey) >= int(c.qosLimits.MaxSamples) {
			if c.isWriterSide {
				return corviderrors.ErrOutOfResources
			}
			c.sampleLost.inc()
			return nil
		}
		if c.qosLimits.MaxSamplesPerInstance > 0 && len(inst.Changes) >= int(c.qosLimits.MaxSamplesPerInstance) {
			if c.isWriterSide {
				return corviderrors.ErrOutOfResources
			}
			c.sampleLost.inc()
			return nil
		}
	}

	c.byKey[key] = change
	inst.Changes = insertSorted(inst.Changes, change)
	c.insertOrder(change)

	switch change.Kind {
	case NotAliveDisposed:
		inst.InstanceState = InstanceNotAliveDisposed
	case NotAliveUnregistered:
		if inst.InstanceState == InstanceAlive {
			inst.InstanceState = InstanceNotAliveNoWriters
		}
	case Alive:
		inst.InstanceState = InstanceAlive
	}

	return nil
}

func insertSorted(changes []*CacheChange, c *CacheChange) []*CacheChange {
	i := sort.Search(len(changes), func(i int) bool { return changes[i].SequenceNumber >= c.SequenceNumber })
	changes = append(changes, nil)
	copy(changes[i+1:], changes[i:])
	changes[i] = c
	return changes
}

func (c *HistoryCache) insertOrder(change *CacheChange) {
	c.order = insertSortedGlobal(c.order, change)
}

func insertSortedGlobal(order []*CacheChange, c *CacheChange) []*CacheChange {
	i := sort.Search(len(order), func(i int) bool {
		if order[i].WriterGUID != c.WriterGUID {
			return order[i].WriterGUID.String() >= c.WriterGUID.String()
		}
		return order[i].SequenceNumber >= c.SequenceNumber
	})
	order = append(order, nil)
	copy(order[i+1:], order[i:])
	order[i] = c
	return order
}

func (c *HistoryCache) removeFromOrder(change *CacheChange) {
	for i, existing := range c.order {
		if existing == change {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// RemoveChange removes every change for which predicate returns true.
func (c *HistoryCache) RemoveChange(predicate func(*CacheChange) bool) {
	var kept []*CacheChange
	for _, change := range c.order {
		if predicate(change) {
			delete(c.byKey, changeKey{writer: change.WriterGUID, sn: change.SequenceNumber})
			if inst, ok := c.instances[change.InstanceHandle]; ok {
				inst.Changes = removeChange(inst.Changes, change)
			}
			continue
		}
		kept = append(kept, change)
	}
	c.order = kept
}

func removeChange(changes []*CacheChange, target *CacheChange) []*CacheChange {
	for i, c := range changes {
		if c == target {
			return append(changes[:i], changes[i+1:]...)
		}
	}
	return changes
}

// Changes returns every retained cache change, ordered by
// (writer GUID, sequence number).
func (c *HistoryCache) Changes() []*CacheChange {
	out := make([]*CacheChange, len(c.order))
	copy(out, c.order)
	return out
}

// ChangesForWriter returns changes from a single writer, ascending by
// sequence number.
func (c *HistoryCache) ChangesForWriter(writer guid.GUID) []*CacheChange {
	var out []*CacheChange
	for _, c := range c.order {
		if c.WriterGUID == writer {
			out = append(out, c)
		}
	}
	return out
}

// GetSeqNumMin returns the lowest sequence number in the cache for a
// given writer, and whether the cache holds any changes for it.
func (c *HistoryCache) GetSeqNumMin(writer guid.GUID) (types.SequenceNumber, bool) {
	changes := c.ChangesForWriter(writer)
	if len(changes) == 0 {
		return types.Unknown, false
	}
	return changes[0].SequenceNumber, true
}

// GetSeqNumMax returns the highest sequence number in the cache for a
// given writer, and whether the cache holds any changes for it.
func (c *HistoryCache) GetSeqNumMax(writer guid.GUID) (types.SequenceNumber, bool) {
	changes := c.ChangesForWriter(writer)
	if len(changes) == 0 {
		return types.Unknown, false
	}
	return changes[len(changes)-1].SequenceNumber, true
}

// Instance returns the instance state for handle, or nil if unknown.
func (c *HistoryCache) Instance(handle types.InstanceHandle) *Instance {
	return c.instances[handle]
}

// Instances returns every instance currently tracked.
func (c *HistoryCache) Instances() []*Instance {
	out := make([]*Instance, 0, len(c.instances))
	for _, inst := range c.instances {
		out = append(out, inst)
	}
	return out
}

// ReapExpired removes changes whose LIFESPAN has elapsed relative to
// now, per spec.md §3's "live until acknowledged ... or until
// LIFESPAN expires".
func (c *HistoryCache) ReapExpired(lifespan time.Duration, now time.Time) {
	if lifespan <= 0 {
		return
	}
	c.RemoveChange(func(change *CacheChange) bool {
		sampleTime := time.Unix(int64(change.Timestamp.Sec), int64(change.Timestamp.Frac))
		return now.Sub(sampleTime) > lifespan
	})
}
