// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only
package actor

import (
	"context"
	"testing"
	"time"

	"github.com/corvidds/corvid/rtps/errors"
	"github.com/stretchr/testify/require"
)

type echoRequest struct{ text string }

func TestBaseRunDispatchesMessagesInOrder(t *testing.T) {
	b := NewBase()
	var got []string
	dispatchDone := make(chan struct{})

	b.Go(func() {
		b.Run(func(msg interface{}) {
			got = append(got, msg.(string))
			if len(got) == 2 {
				close(dispatchDone)
			}
		})
	})

	b.Self().Tell("first")
	b.Self().Tell("second")

	select {
	case <-dispatchDone:
	case <-time.After(time.Second):
		t.Fatal("messages not dispatched in time")
	}
	b.Halt()
	b.Wait()
	require.Equal(t, []string{"first", "second"}, got)
}

func TestBaseRunExitsOnHalt(t *testing.T) {
	b := NewBase()
	b.Go(func() {
		b.Run(func(interface{}) {})
	})
	b.Halt()

	done := make(chan struct{})
	go func() {
		b.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit after Halt")
	}
}

func TestCallResolvesWithValue(t *testing.T) {
	b := NewBase()
	b.Go(func() {
		b.Run(func(msg interface{}) {
			req := msg.(*Request[echoRequest])
			req.Resolve(req.Payload.text)
		})
	})
	defer func() { b.Halt(); b.Wait() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v, err := Call(ctx, b.Self(), echoRequest{text: "hi"})
	require.NoError(t, err)
	require.Equal(t, "hi", v)
}

func TestCallFailsWithError(t *testing.T) {
	b := NewBase()
	b.Go(func() {
		b.Run(func(msg interface{}) {
			req := msg.(*Request[echoRequest])
			req.Fail(errors.ErrNotEnabled)
		})
	})
	defer func() { b.Halt(); b.Wait() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := Call(ctx, b.Self(), echoRequest{text: "hi"})
	require.ErrorIs(t, err, errors.ErrNotEnabled)
}

func TestCallTimesOutWhenNoReply(t *testing.T) {
	b := NewBase()
	defer b.Mailbox().Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := Call(ctx, b.Self(), echoRequest{text: "never answered"})
	require.ErrorIs(t, err, errors.ErrTimeout)
}

func TestAddressValid(t *testing.T) {
	var zero Address
	require.False(t, zero.Valid())

	b := NewBase()
	require.True(t, b.Self().Valid())
}
