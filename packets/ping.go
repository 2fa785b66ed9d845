// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package packets

import "bytes"

// PingreqPacket is an MQTT PINGREQ packet. It has no variable header or payload.
type PingreqPacket struct {
	FixedHeader
}

// NewPingreq returns a PINGREQ packet.
func NewPingreq() *PingreqPacket {
	return &PingreqPacket{FixedHeader: NewFixedHeader(Pingreq)}
}

// Encode writes the two byte packet to the buffer.
func (pk *PingreqPacket) Encode(buf *bytes.Buffer) error {
	return NewFixedHeader(Pingreq).Encode(buf)
}

// PingrespPacket is an MQTT PINGRESP packet. It has no variable header or payload.
type PingrespPacket struct {
	FixedHeader
}

// NewPingresp returns a PINGRESP packet.
func NewPingresp() *PingrespPacket {
	return &PingrespPacket{FixedHeader: NewFixedHeader(Pingresp)}
}

// Encode writes the two byte packet to the buffer.
func (pk *PingrespPacket) Encode(buf *bytes.Buffer) error {
	return NewFixedHeader(Pingresp).Encode(buf)
}

// DecodePingresp decodes a PINGRESP packet from the front of buf. Only the fixed
// header is read.
func DecodePingresp(buf []byte) (*PingrespPacket, error) {
	fh, _, err := DecodeFixedHeader(buf)
	if err != nil {
		return nil, err
	}

	if fh.Type != Pingresp {
		return nil, ErrUnexpectedType
	}

	return &PingrespPacket{FixedHeader: fh}, nil
}
