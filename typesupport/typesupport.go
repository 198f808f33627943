// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

// Package typesupport defines the type-introspection boundary the
// core actors call through: user sample types are opaque byte buffers
// inside the core, and a Descriptor supplies the handful of operations
// needed to serialize, key, and hash them (spec.md's "dynamic dispatch
// over user types" design note). Descriptors are registered in a
// process-wide registry keyed by type name; registration is idempotent
// for identical descriptors, matching spec.md §4's "shared resources"
// note.
package typesupport

import (
	"fmt"
	"sync"

	corviderrors "github.com/corvidds/corvid/rtps/errors"
	"github.com/corvidds/corvid/rtps/types"
)

// Descriptor is the external collaborator interface a user type
// registers to participate in a Topic. Serialize/Deserialize convert
// between the user's in-memory representation and the CDR-encoded
// payload carried in a CacheChange; KeyOf extracts just the key
// fields' CDR encoding from a full serialized sample, so the core can
// derive an instance handle without deserializing the whole sample.
type Descriptor struct {
	TypeName string
	HasKey   bool

	Serialize   func(sample interface{}) ([]byte, error)
	Deserialize func(data []byte) (interface{}, error)
	KeyOf       func(serialized []byte) []byte

	// TypeXML optionally carries an XTypes-style type descriptor
	// string for discovery's DiscoveredTopicData; empty if unused.
	TypeXML string
}

// InstanceHandleOfKey derives the 16-byte instance handle for a
// sample's key, per spec.md's MD5-of-serialized-key rule (resolved
// from original_source; see rtps/types.HandleOfSerializedKey).
func (d *Descriptor) InstanceHandleOfKey(serialized []byte) types.InstanceHandle {
	if !d.HasKey {
		return types.NilHandle
	}
	return types.HandleOfSerializedKey(d.KeyOf(serialized))
}

// Registry is a process-wide, concurrency-safe table of Descriptors
// keyed by type name.
type Registry struct {
	lock sync.RWMutex
	byName map[string]Descriptor
}

// NewRegistry creates an empty registry. Most callers use the package
// default via Register/Lookup rather than constructing their own.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Descriptor)}
}

// Register adds d, or confirms an identical prior registration.
// Registering a different descriptor under an already-registered type
// name is a BAD_PARAMETER (spec.md error taxonomy), surfaced as an
// error rather than silently overwriting the live descriptor.
func (r *Registry) Register(d Descriptor) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	existing, ok := r.byName[d.TypeName]
	if !ok {
		r.byName[d.TypeName] = d
		return nil
	}
	if existing.HasKey != d.HasKey || existing.TypeXML != d.TypeXML {
		return fmt.Errorf("typesupport: conflicting registration for %q: %w", d.TypeName, corviderrors.ErrBadParameter)
	}
	return nil
}

// Lookup returns the descriptor registered for typeName, if any.
func (r *Registry) Lookup(typeName string) (Descriptor, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	d, ok := r.byName[typeName]
	return d, ok
}

// Default is the process-wide registry used by package functions
// Register and Lookup, matching spec.md's "process-wide registry"
// note.
var Default = NewRegistry()

// Register adds d to the default registry.
func Register(d Descriptor) error { return Default.Register(d) }

// Lookup returns d's registration from the default registry.
func Lookup(typeName string) (Descriptor, bool) { return Default.Lookup(typeName) }
