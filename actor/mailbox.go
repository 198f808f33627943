// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

// Package actor provides the mailbox/address primitives the entity
// runtime (package dds) is built on: every RTPS/DDS entity that owns
// mutable state (participant, publisher, subscriber, writer, reader)
// runs as a single goroutine draining its own mailbox, so the state
// itself never needs a lock. Mailboxes are unbounded
// (gopkg.in/eapache/channels.v1 InfiniteChannel): a Send never blocks
// the caller on mailbox depth, only explicit wait_for_* calls suspend
// (spec.md §5).
package actor

import (
	channels "gopkg.in/eapache/channels.v1"
)

// Mailbox is a FIFO, unbounded message queue. Messages are delivered
// in send order to a single consumer goroutine.
type Mailbox struct {
	ch *channels.InfiniteChannel
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{ch: channels.NewInfiniteChannel()}
}

// Send enqueues msg. Never blocks.
func (m *Mailbox) Send(msg interface{}) {
	m.ch.In() <- msg
}

// Recv returns the channel messages arrive on, for use in a select
// loop alongside a halt channel or ticker.
func (m *Mailbox) Recv() <-chan interface{} {
	return m.ch.Out()
}

// Len reports the number of messages currently queued.
func (m *Mailbox) Len() int {
	return m.ch.Len()
}

// Close shuts the mailbox down. Further Sends panic; Recv's channel
// closes once drained.
func (m *Mailbox) Close() {
	m.ch.Close()
}

// Address is a lightweight handle to an actor's mailbox, safe to copy
// and share across goroutines. It is the only way other actors may
// address this one.
type Address struct {
	mailbox *Mailbox
}

// AddressOf returns the Address for a mailbox.
func AddressOf(m *Mailbox) Address {
	return Address{mailbox: m}
}

// Tell sends a fire-and-forget message to the addressed actor.
func (a Address) Tell(msg interface{}) {
	a.mailbox.Send(msg)
}

// Valid reports whether the address refers to a live mailbox.
func (a Address) Valid() bool {
	return a.mailbox != nil
}
