// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

// Package errors is the closed taxonomy of errors an actor-layer
// operation can return, per spec.md §7. Wire-layer errors never reach
// here: they are logged and the offending submessage is skipped.
package errors

import "errors"

var (
	// ErrNotEnabled: operation requires an enabled entity.
	ErrNotEnabled = errors.New("NOT_ENABLED")
	// ErrPreconditionNotMet: structural violation, e.g. deleting a
	// publisher that still owns writers.
	ErrPreconditionNotMet = errors.New("PRECONDITION_NOT_MET")
	// ErrInconsistentPolicy: a QoS self-consistency check failed.
	ErrInconsistentPolicy = errors.New("INCONSISTENT_POLICY")
	// ErrImmutablePolicy: attempted to change a policy that is
	// immutable after enable.
	ErrImmutablePolicy = errors.New("IMMUTABLE_POLICY")
	// ErrOutOfResources: resource limits exhausted.
	ErrOutOfResources = errors.New("OUT_OF_RESOURCES")
	// ErrTimeout: a bounded wait elapsed.
	ErrTimeout = errors.New("TIMEOUT")
	// ErrNoData: read/take found no matching samples.
	ErrNoData = errors.New("NO_DATA")
	// ErrAlreadyDeleted: operation on a deleted entity.
	ErrAlreadyDeleted = errors.New("ALREADY_DELETED")
	// ErrBadParameter: malformed input, e.g. an unknown instance handle.
	ErrBadParameter = errors.New("BAD_PARAMETER")
	// ErrUnsupported: feature not implemented.
	ErrUnsupported = errors.New("UNSUPPORTED")
)
