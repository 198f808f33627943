// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

// Package udp is the UDP transport collaborator spec.md §4 treats as
// external: a shared socket whose writes are serialized by a mutex and
// whose reads happen on a single dedicated goroutine, matching spec.md
// §4's "Shared resources" note. It is a thin shell over net.UDPConn,
// grounded on the teacher's worker.Worker-embedding receive-loop
// convention (client2/connection.go).
package udp

import (
	"net"
	"sync"
	"time"

	"github.com/corvidds/corvid/corvidlog"
	"github.com/corvidds/corvid/corvidsync/worker"
	"github.com/corvidds/corvid/rtps/types"
)

var log = corvidlog.New("udp")

// MaxDatagram is the size of the receive buffer, and so the largest
// RTPS datagram this transport will read; no separate check for
// truncated packets is made.
const MaxDatagram = 65536

// Transport owns one UDP socket for both send and receive.
type Transport struct {
	worker.Worker

	conn      *net.UDPConn
	writeLock sync.Mutex

	onReceive func(from *net.UDPAddr, data []byte)
}

// Listen opens a UDP socket bound to addr (e.g. ":7400") and returns a
// Transport ready to Start.
func Listen(addr string, onReceive func(from *net.UDPAddr, data []byte)) (*Transport, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}
	return &Transport{conn: conn, onReceive: onReceive}, nil
}

// ListenMulticast opens a UDP socket bound to a multicast group (e.g.
// SPDP's well-known address) on ifaceName ("" selects the default
// interface), for receiving SPDP announcements alongside a unicast
// Transport.
func ListenMulticast(group *net.UDPAddr, ifaceName string, onReceive func(from *net.UDPAddr, data []byte)) (*Transport, error) {
	var iface *net.Interface
	if ifaceName != "" {
		found, err := net.InterfaceByName(ifaceName)
		if err != nil {
			return nil, err
		}
		iface = found
	}
	conn, err := net.ListenMulticastUDP("udp", iface, group)
	if err != nil {
		return nil, err
	}
	return &Transport{conn: conn, onReceive: onReceive}, nil
}

// Start launches the single dedicated receive goroutine.
func (t *Transport) Start() {
	t.Go(t.receiveLoop)
}

func (t *Transport) receiveLoop() {
	buf := make([]byte, MaxDatagram)
	for {
		select {
		case <-t.HaltCh():
			return
		default:
		}
		t.conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, from, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-t.HaltCh():
				return
			default:
				log.Warnf("read error: %v", err)
				continue
			}
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		t.onReceive(from, data)
	}
}

// Send writes data to dst. Writes are serialized: concurrent senders
// never interleave datagrams on the shared socket.
func (t *Transport) Send(dst types.Locator, data []byte) error {
	addr := &net.UDPAddr{IP: net.IP(dst.Address[12:16]), Port: int(dst.Port)}
	t.writeLock.Lock()
	defer t.writeLock.Unlock()
	_, err := t.conn.WriteToUDP(data, addr)
	return err
}

// Close halts the receive loop and closes the socket.
func (t *Transport) Close() error {
	t.Halt()
	err := t.conn.Close()
	t.Wait()
	return err
}

// LocalAddr returns the bound local address.
func (t *Transport) LocalAddr() *net.UDPAddr {
	return t.conn.LocalAddr().(*net.UDPAddr)
}
