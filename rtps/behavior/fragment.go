// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

package behavior

import (
	"github.com/corvidds/corvid/rtps/guid"
	"github.com/corvidds/corvid/rtps/types"
)

// fragKey identifies one in-progress reassembly.
type fragKey struct {
	writer guid.GUID
	sn     types.SequenceNumber
}

// reassembly tracks the fragments received so far for one
// (writer, sequence number).
type reassembly struct {
	fragmentSize uint16
	sampleSize   uint32
	totalFrags   uint32
	have         map[uint32][]byte // 1-based fragment number -> contents
}

func (r *reassembly) complete() bool {
	return uint32(len(r.have)) == r.totalFrags
}

func (r *reassembly) assemble() []byte {
	out := make([]byte, 0, r.sampleSize)
	for i := uint32(1); i <= r.totalFrags; i++ {
		out = append(out, r.have[i]...)
	}
	if uint32(len(out)) > r.sampleSize {
		out = out[:r.sampleSize]
	}
	return out
}

// Reassembler reconstructs CacheChange payloads from DATA_FRAG
// submessages, releasing a payload only once every fragment has
// arrived (spec.md §4.2).
type Reassembler struct {
	pending map[fragKey]*reassembly
}

// NewReassembler creates an empty Reassembler.
func NewReassembler() *Reassembler {
	return &Reassembler{pending: make(map[fragKey]*reassembly)}
}

// AddFragment records one DATA_FRAG's worth of bytes. It returns the
// assembled payload and true once every fragment for (writer, sn) has
// arrived; otherwise it returns (nil, false).
func (a *Reassembler) AddFragment(writer guid.GUID, sn types.SequenceNumber,
	fragmentStartingNum uint32, fragmentsInSubmessage uint16, fragmentSize uint16, sampleSize uint32, contents []byte) ([]byte, bool) {

	key := fragKey{writer: writer, sn: sn}
	r, ok := a.pending[key]
	if !ok {
		totalFrags := sampleSize / uint32(fragmentSize)
		if sampleSize%uint32(fragmentSize) != 0 {
			totalFrags++
		}
		r = &reassembly{fragmentSize: fragmentSize, sampleSize: sampleSize, totalFrags: totalFrags, have: make(map[uint32][]byte)}
		a.pending[key] = r
	}

	// contents may carry more than one fragment back-to-back
	// (fragmentsInSubmessage > 1); split on fragmentSize boundaries.
	for i := uint16(0); i < fragmentsInSubmessage; i++ {
		fragNum := fragmentStartingNum + uint32(i)
		start := int(i) * int(fragmentSize)
		end := start + int(fragmentSize)
		if end > len(contents) {
			end = len(contents)
		}
		if start >= len(contents) {
			break
		}
		r.have[fragNum] = append([]byte(nil), contents[start:end]...)
	}

	if r.complete() {
		payload := r.assemble()
		delete(a.pending, key)
		return payload, true
	}
	return nil, false
}

// MissingFragments returns the fragment numbers in [1, totalFrags]
// not yet received for (writer, sn), or nil if there is no pending
// reassembly. Drives NACK_FRAG the same way a reliable reader's
// missing sequence-number set drives ACKNACK.
func (a *Reassembler) MissingFragments(writer guid.GUID, sn types.SequenceNumber) []uint32 {
	key := fragKey{writer: writer, sn: sn}
	r, ok := a.pending[key]
	if !ok {
		return nil
	}
	var missing []uint32
	for i := uint32(1); i <= r.totalFrags; i++ {
		if _, have := r.have[i]; !have {
			missing = append(missing, i)
		}
	}
	return missing
}

// Discard abandons a pending reassembly, e.g. when the reader's
// history cache has evicted the instance the change belongs to.
func (a *Reassembler) Discard(writer guid.GUID, sn types.SequenceNumber) {
	delete(a.pending, fragKey{writer: writer, sn: sn})
}
