// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

// Package mempool pools the buffers outbound packets are encoded into.
package mempool

import (
	"bytes"
	"sync"
)

var bufPool = NewBuffer(0)

// GetBuffer takes a Buffer from the default buffer pool
func GetBuffer() *bytes.Buffer { return bufPool.Get() }

// PutBuffer returns Buffer to the default buffer pool
func PutBuffer(x *bytes.Buffer) { bufPool.Put(x) }

// Buffer is a pool of bytes.Buffer values. Buffers which have grown beyond max are
// dropped rather than returned to the pool.
type Buffer struct {
	pool sync.Pool
	max  int
}

// NewBuffer returns a buffer pool. If max <= 0, buffers of any capacity are kept.
func NewBuffer(max int) *Buffer {
	return &Buffer{
		pool: sync.Pool{
			New: func() any { return new(bytes.Buffer) },
		},
		max: max,
	}
}

// Get a Buffer from the pool.
func (b *Buffer) Get() *bytes.Buffer {
	return b.pool.Get().(*bytes.Buffer)
}

// Put the Buffer back into the pool if its capacity is within the limit. It resets the
// Buffer for reuse.
func (b *Buffer) Put(x *bytes.Buffer) {
	if b.max > 0 && x.Cap() > b.max {
		return
	}

	x.Reset()
	b.pool.Put(x)
}
