// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only
package worker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWorkerGoWaitRunsAndJoinsGoroutine(t *testing.T) {
	var w Worker
	done := make(chan struct{})
	w.Go(func() {
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("goroutine did not run")
	}
	w.Wait()
}

func TestWorkerHaltClosesHaltChExactlyOnce(t *testing.T) {
	var w Worker
	ch := w.HaltCh()

	require.NotPanics(t, func() {
		w.Halt()
		w.Halt()
	})

	select {
	case <-ch:
	default:
		t.Fatal("halt channel not closed")
	}
}

func TestWorkerGoroutineExitsOnHalt(t *testing.T) {
	var w Worker
	w.Go(func() {
		<-w.HaltCh()
	})
	w.Halt()

	waitDone := make(chan struct{})
	go func() {
		w.Wait()
		close(waitDone)
	}()

	select {
	case <-waitDone:
	case <-time.After(time.Second):
		t.Fatal("worker did not exit after halt")
	}
}
