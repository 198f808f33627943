// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

package actor

import (
	"github.com/corvidds/corvid/corvidsync/worker"
)

// Base is embedded by every entity actor (participant, publisher,
// subscriber, writer, reader). It owns the mailbox and the worker
// lifecycle; embedders supply a Dispatch method and call Run in a
// goroutine started via Go.
type Base struct {
	worker.Worker
	mailbox *Mailbox
}

// NewBase creates a Base with a fresh mailbox.
func NewBase() Base {
	return Base{mailbox: NewMailbox()}
}

// Self returns this actor's own address.
func (b *Base) Self() Address {
	return AddressOf(b.mailbox)
}

// Mailbox exposes the underlying mailbox for Run loops that need to
// select on it alongside other channels (tickers, halt).
func (b *Base) Mailbox() *Mailbox {
	return b.mailbox
}

// Run drains the mailbox until Halt is called, passing each message
// to dispatch. Embedders typically launch Run via b.Go(func() {
// b.Run(b.dispatch) }) from a Start method so it participates in
// Wait.
func (b *Base) Run(dispatch func(msg interface{})) {
	for {
		select {
		case <-b.HaltCh():
			return
		case msg, ok := <-b.mailbox.Recv():
			if !ok {
				return
			}
			dispatch(msg)
		}
	}
}
