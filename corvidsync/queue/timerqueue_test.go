// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only
package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimerQueuePeekPopOrdersByEarliestDeadline(t *testing.T) {
	q := NewTimerQueue(func(interface{}) {})
	q.Push(300, "c")
	q.Push(100, "a")
	q.Push(200, "b")

	require.Equal(t, "a", q.Peek().Value)
	require.Equal(t, "a", q.Pop().Value)
	require.Equal(t, "b", q.Pop().Value)
	require.Equal(t, "c", q.Pop().Value)
	require.Nil(t, q.Pop())
}

func TestTimerQueueFiresCallbackAfterDeadline(t *testing.T) {
	fired := make(chan interface{}, 1)
	q := NewTimerQueue(func(v interface{}) { fired <- v })
	q.Start()
	defer q.Halt()

	deadline := uint64(time.Now().Add(20 * time.Millisecond).UnixNano())
	q.Push(deadline, "hello")

	select {
	case v := <-fired:
		require.Equal(t, "hello", v)
	case <-time.After(time.Second):
		t.Fatal("callback did not fire before timeout")
	}
}

func TestTimerQueueHaltStopsWorkerCleanly(t *testing.T) {
	q := NewTimerQueue(func(interface{}) {})
	q.Start()
	q.Halt()

	done := make(chan struct{})
	go func() {
		q.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after halt")
	}
}
