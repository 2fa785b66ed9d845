// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package packets

import "bytes"

// UnsubackPacket contains the values of an MQTT UNSUBACK packet.
type UnsubackPacket struct {
	FixedHeader
	PacketID uint16
}

// NewUnsuback returns an UNSUBACK packet acknowledging the packet id.
func NewUnsuback(id uint16) *UnsubackPacket {
	fh := NewFixedHeader(Unsuback)
	fh.Remaining = 2
	return &UnsubackPacket{FixedHeader: fh, PacketID: id}
}

// Encode encodes and writes the packet data values to the buffer.
func (pk *UnsubackPacket) Encode(buf *bytes.Buffer) error {
	fh := NewFixedHeader(Unsuback)
	fh.Remaining = 2
	if err := fh.Encode(buf); err != nil {
		return err
	}

	encodeUint16(buf, pk.PacketID)
	return nil
}

// Decode extracts the packet id from the bytes following the fixed header.
func (pk *UnsubackPacket) Decode(buf []byte) error {
	var err error
	pk.PacketID, _, err = decodeUint16(buf, 0)
	if err != nil {
		return ErrMalformedPacketID
	}

	return nil
}
