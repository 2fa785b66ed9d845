// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package transport

import (
	"context"
	"log/slog"
	"net"
	"sync"
)

// ServeFn is called with the broker end of each connection a Pipe dials.
type ServeFn func(conn net.Conn)

// Pipe is an in-memory dialer. Each Dial creates a synchronous net.Pipe and hands
// the far end to a serve function acting as the broker.
type Pipe struct {
	sync.Mutex
	id     string       // the internal id of the dialer
	log    *slog.Logger // client logger
	serve  ServeFn      // the broker side of each connection
	Dialed int          // the number of connections opened
}

// NewPipe returns a new Pipe dialer serving each connection with serve.
func NewPipe(id string, serve ServeFn) *Pipe {
	return &Pipe{
		id:    id,
		serve: serve,
	}
}

// ID returns the id of the dialer.
func (d *Pipe) ID() string {
	return d.id
}

// Address returns the address of the dialer.
func (d *Pipe) Address() string {
	return "pipe"
}

// Protocol returns the protocol of the dialer.
func (d *Pipe) Protocol() string {
	return "pipe"
}

// Init initializes the dialer.
func (d *Pipe) Init(log *slog.Logger) error {
	d.log = log
	return nil
}

// Dial returns the client end of a new pipe.
func (d *Pipe) Dial(ctx context.Context) (net.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client, broker := net.Pipe()

	d.Lock()
	d.Dialed++
	d.Unlock()

	go d.serve(broker)
	return client, nil
}
