// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package mempool

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuffer(t *testing.T) {
	defer debug.SetGCPercent(debug.SetGCPercent(-1))
	Size := 101

	bp := NewBuffer(0)
	buf := bp.Get()

	for i := 0; i < Size; i++ {
		buf.WriteByte('a')
	}

	bp.Put(buf)
	buf = bp.Get()
	require.Equal(t, 0, buf.Len())
}

func TestBufferWithCap(t *testing.T) {
	defer debug.SetGCPercent(debug.SetGCPercent(-1))
	Size := 101
	bp := NewBuffer(100)
	buf := bp.Get()

	for i := 0; i < Size; i++ {
		buf.WriteByte('a')
	}

	bp.Put(buf)
	buf = bp.Get()
	require.Equal(t, 0, buf.Len())
	require.Equal(t, 0, buf.Cap())
}

func TestDefaultBuffer(t *testing.T) {
	buf := GetBuffer()
	buf.WriteString("mqtt")
	PutBuffer(buf)

	buf = GetBuffer()
	require.Equal(t, 0, buf.Len())
	PutBuffer(buf)
}
