// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package packets

import "bytes"

// DisconnectPacket is an MQTT DISCONNECT packet, the final packet a client sends
// before closing the network connection.
type DisconnectPacket struct {
	FixedHeader
}

// NewDisconnect returns a DISCONNECT packet.
func NewDisconnect() *DisconnectPacket {
	return &DisconnectPacket{FixedHeader: NewFixedHeader(Disconnect)}
}

// Encode writes the two byte packet to the buffer.
func (pk *DisconnectPacket) Encode(buf *bytes.Buffer) error {
	return NewFixedHeader(Disconnect).Encode(buf)
}
