// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

package behavior

import (
	"bytes"

	"github.com/corvidds/corvid/rtps/guid"
)

// OwnerCandidate is one writer competing for exclusive ownership of
// an instance.
type OwnerCandidate struct {
	Writer   guid.GUID
	Strength int32
}

// ExclusiveOwner picks the writer whose samples a reader should
// accept for an instance under OWNERSHIP=EXCLUSIVE: highest
// OWNERSHIP_STRENGTH, ties broken by GUID comparison (spec.md §4.2,
// §8's boundary scenario).
func ExclusiveOwner(candidates []OwnerCandidate) guid.GUID {
	if len(candidates) == 0 {
		return guid.Unknown
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Strength > best.Strength {
			best = c
			continue
		}
		if c.Strength == best.Strength && compareGUID(c.Writer, best.Writer) > 0 {
			best = c
		}
	}
	return best.Writer
}

func compareGUID(a, b guid.GUID) int {
	ab, bb := a.Bytes(), b.Bytes()
	return bytes.Compare(ab[:], bb[:])
}
