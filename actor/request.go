// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

package actor

import (
	"context"

	"github.com/corvidds/corvid/rtps/errors"
)

// Request wraps a payload of type T with a completion channel, giving
// the entity runtime a uniform call/reply shape generic over request
// types (spec.md §4.5's operations that return a value or an error,
// e.g. register_instance, wait_for_acknowledgments).
type Request[T any] struct {
	Payload T
	reply   chan Reply
}

// Reply carries a request's result back to the caller.
type Reply struct {
	Value interface{}
	Err   error
}

// NewRequest wraps payload with a fresh, single-use reply channel.
func NewRequest[T any](payload T) *Request[T] {
	return &Request[T]{Payload: payload, reply: make(chan Reply, 1)}
}

// Resolve completes the request successfully.
func (r *Request[T]) Resolve(value interface{}) {
	r.reply <- Reply{Value: value}
}

// Fail completes the request with an error from the corvid/rtps/errors
// taxonomy.
func (r *Request[T]) Fail(err error) {
	r.reply <- Reply{Err: err}
}

// Await blocks for the reply, or returns ErrTimeout (in place of
// ctx.Err()) if ctx is done first — the suspension-point pattern
// spec.md §5 describes for wait_for_* operations.
func (r *Request[T]) Await(ctx context.Context) (interface{}, error) {
	select {
	case rep := <-r.reply:
		return rep.Value, rep.Err
	case <-ctx.Done():
		return nil, errors.ErrTimeout
	}
}

// Call sends a request to addr and awaits its reply. It is the
// synchronous convenience wrapper over Send+Await used by every
// blocking dds operation that must run inside the owning actor.
func Call[T any](ctx context.Context, addr Address, payload T) (interface{}, error) {
	req := NewRequest(payload)
	addr.Tell(req)
	return req.Await(ctx)
}
