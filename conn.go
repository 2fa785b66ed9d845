// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package mqtt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mqutekitty/client/mempool"
	"github.com/mqutekitty/client/packets"
)

// session contains the state of a single network connection to the broker.
type session struct {
	conn      net.Conn                       // the net.Conn used to establish the connection
	reader    *bufio.Reader                  // a buffered reader for reading incoming bytes
	outbound  chan *outbound                 // packets waiting to be written by the writer
	firstc    chan packets.Packet            // the first packet received, expected to be CONNACK
	pingrespc chan struct{}                  // signalled when a PINGRESP is received
	done      chan struct{}                  // closed when the connection ends
	pending   map[uint16]chan packets.Packet // waiters for SUBACK and UNSUBACK by packet id
	err       error                          // the reason the connection ended, nil when clean
	once      sync.Once                      // guards closing the connection
	connected atomic.Bool                    // the broker accepted the connection
	leaving   atomic.Bool                    // DISCONNECT has been queued
	sync.Mutex                               // guards pending
}

// outbound is a packet queued for the writer, and a channel to receive the write result.
type outbound struct {
	pk   packets.Packet
	done chan error
}

// newSession returns a session for an open network connection.
func newSession(c net.Conn, o *Options) *session {
	return &session{
		conn:      c,
		reader:    bufio.NewReaderSize(c, o.ReadBufferSize),
		outbound:  make(chan *outbound, o.WriteQueueSize),
		firstc:    make(chan packets.Packet, 1),
		pingrespc: make(chan struct{}, 1),
		done:      make(chan struct{}),
		pending:   map[uint16]chan packets.Packet{},
	}
}

// cause returns the reason the session ended.
func (s *session) cause() error {
	if s.err == nil {
		return ErrNotConnected
	}

	return s.err
}

// closed returns true if the session has ended.
func (s *session) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// wait registers a waiter for the acknowledgement of a packet id.
func (s *session) wait(id uint16) chan packets.Packet {
	s.Lock()
	defer s.Unlock()
	ch := make(chan packets.Packet, 1)
	s.pending[id] = ch
	return ch
}

// forget removes the waiter for a packet id.
func (s *session) forget(id uint16) {
	s.Lock()
	defer s.Unlock()
	delete(s.pending, id)
}

// resolve hands an acknowledgement to its waiter, returning false if nothing was waiting.
func (s *session) resolve(id uint16, pk packets.Packet) bool {
	s.Lock()
	ch, ok := s.pending[id]
	delete(s.pending, id)
	s.Unlock()

	if !ok {
		return false
	}

	ch <- pk
	return true
}

// readPacket reads the next complete packet from the connection and decodes it. The
// raw bytes of the packet are returned alongside.
func (s *session) readPacket(limit uint32) (packets.Packet, []byte, error) {
	b, err := s.reader.ReadByte()
	if err != nil {
		return nil, nil, err
	}

	rem, _, err := packets.ReadLength(s.reader)
	if err != nil {
		return nil, nil, err
	}

	if limit > 0 && rem > limit {
		return nil, nil, ErrPacketTooLarge
	}

	lb, err := packets.EncodeLength(rem)
	if err != nil {
		return nil, nil, err
	}

	buf := make([]byte, 1+len(lb)+int(rem))
	buf[0] = b
	n := copy(buf[1:], lb)
	if _, err := io.ReadFull(s.reader, buf[1+n:]); err != nil {
		return nil, nil, err
	}

	pk, _, err := packets.Decode(buf)
	if err != nil {
		return nil, nil, err
	}

	return pk, buf, nil
}

// readLoop is the sole reader of the connection. It runs until the connection ends.
func (c *Client) readLoop(s *session) {
	first := true
	for {
		pk, b, err := s.readPacket(c.Options.MaximumPacketSize)
		if err != nil {
			switch {
			case s.leaving.Load():
				err = nil // the broker closed the connection after DISCONNECT
			case !errors.Is(err, packets.ErrDecode) && !errors.Is(err, ErrPacketTooLarge):
				err = fmt.Errorf("%w: %w", ErrConnectionLost, err)
			}
			c.closeSession(s, err)
			return
		}

		atomic.AddInt64(&c.info.BytesReceived, int64(len(b)))
		atomic.AddInt64(&c.info.PacketsReceived, 1)

		pk, err = c.hooks.OnPacketRead(c, pk)
		if err != nil {
			continue
		}

		if first {
			first = false
			s.firstc <- pk
			continue
		}

		if err := c.handlePacket(s, pk); err != nil {
			c.closeSession(s, err)
			return
		}
	}
}

// handlePacket processes a packet received after the connection was established.
func (c *Client) handlePacket(s *session, pk packets.Packet) error {
	switch pk := pk.(type) {
	case *packets.PublishPacket:
		atomic.AddInt64(&c.info.MessagesReceived, 1)
		c.hooks.OnPublishReceived(c, pk)
		c.route(pk)
	case *packets.PingrespPacket:
		atomic.StoreInt64(&c.info.LastPing, time.Now().Unix())
		select {
		case s.pingrespc <- struct{}{}:
		default:
		}
	case *packets.SubackPacket:
		if !s.resolve(pk.PacketID, pk) {
			c.Log.Warn("suback for unknown packet id", "client", c.ID, "packet_id", pk.PacketID)
		}
	case *packets.UnsubackPacket:
		if !s.resolve(pk.PacketID, pk) {
			c.Log.Warn("unsuback for unknown packet id", "client", c.ID, "packet_id", pk.PacketID)
		}
	case *packets.RawPacket:
		c.Log.Debug("unhandled packet", "client", c.ID, "type", pk.Type.String())
	default:
		return fmt.Errorf("%w: %s", ErrUnexpectedPacket, pk.Header().Type)
	}

	return nil
}

// route delivers a publish packet to the handlers of every matching subscription.
func (c *Client) route(pk *packets.PublishPacket) {
	handlers := c.router.Handlers(pk.TopicName)
	if len(handlers) > 0 {
		for _, h := range handlers {
			h(c, pk)
		}
		return
	}

	if c.Options.OnMessage != nil {
		c.Options.OnMessage(c, pk)
		return
	}

	c.Log.Debug("no handler for message", "client", c.ID, "topic", pk.TopicName)
}

// writeLoop is the sole writer of the connection. It runs until the connection ends.
func (c *Client) writeLoop(s *session) {
	for {
		select {
		case o := <-s.outbound:
			o.done <- c.writePacket(s, o.pk)
		case <-s.done:
			return
		}
	}
}

// writePacket encodes and writes a packet to the connection. Encoding errors are
// returned to the caller; a failed write ends the connection.
func (c *Client) writePacket(s *session, pk packets.Packet) error {
	pk = c.hooks.OnPacketEncode(c, pk)

	buf := mempool.GetBuffer()
	defer mempool.PutBuffer(buf)
	if err := pk.Encode(buf); err != nil {
		return err
	}

	n, err := s.conn.Write(buf.Bytes())
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrConnectionLost, err)
		c.closeSession(s, err)
		return err
	}

	atomic.AddInt64(&c.info.BytesSent, int64(n))
	atomic.AddInt64(&c.info.PacketsSent, 1)
	c.hooks.OnPacketSent(c, pk, buf.Bytes())

	return nil
}

// send queues a packet for the writer and waits until it has been written.
func (c *Client) send(ctx context.Context, s *session, pk packets.Packet) error {
	o := &outbound{pk: pk, done: make(chan error, 1)}
	select {
	case s.outbound <- o:
	case <-s.done:
		return s.cause()
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-o.done:
		return err
	case <-s.done:
		return s.cause()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// closeSession ends the connection. The first cause is kept; later calls do nothing.
func (c *Client) closeSession(s *session, err error) {
	s.once.Do(func() {
		s.err = err
		close(s.done)
		_ = s.conn.Close()

		if err != nil {
			c.Log.Warn("connection closed", "client", c.ID, "error", err)
		} else {
			c.Log.Info("client disconnected", "client", c.ID)
		}

		if s.connected.Load() {
			c.hooks.OnDisconnect(c, err)
		}
	})
}
