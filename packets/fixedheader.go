// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package packets

import (
	"bytes"
)

const (
	flagDup    byte = 0x08
	flagQos    byte = 0x06
	flagRetain byte = 0x01
)

// FixedHeader contains the values of the fixed header portion of the MQTT packet.
type FixedHeader struct {
	Remaining uint32 `json:"remaining"` // the number of bytes after the fixed header
	Type      Type   `json:"type"`      // the type of the packet (PUBLISH, SUBSCRIBE, etc) from bits 7 - 4 (byte 1)
	Flags     byte   `json:"flags"`     // the flag nibble from bits 3 - 0 (byte 1)
}

// NewFixedHeader returns a fixed header for a packet type carrying that type's reserved flags.
func NewFixedHeader(t Type) FixedHeader {
	f, _ := DefaultFlags(t)
	return FixedHeader{
		Type:  t,
		Flags: f,
	}
}

// Encode writes the fixed header to the buffer: the type and flags byte followed by
// the variable byte integer remaining length.
func (fh FixedHeader) Encode(buf *bytes.Buffer) error {
	if !fh.Type.Valid() {
		return ErrUnknownPacketType
	}

	if fh.Remaining > MaxRemainingLength {
		return ErrRemainingLengthOverflow
	}

	buf.WriteByte(byte(fh.Type)<<4 | fh.Flags&0x0F)
	return encodeLength(buf, fh.Remaining)
}

// Len returns the number of bytes the encoded fixed header occupies.
func (fh FixedHeader) Len() int {
	return 1 + lengthSize(fh.Remaining)
}

// DecodeFixedHeader decodes the fixed header at the front of buf and returns it along with
// the number of bytes it occupied. The variable header of the packet begins at that offset.
// Unmapped type values decode to Unknown without error.
func DecodeFixedHeader(buf []byte) (FixedHeader, int, error) {
	if len(buf) < 2 {
		return FixedHeader{}, 0, ErrMalformedOffsetByteOutOfRange
	}

	rem, n, err := DecodeLength(buf[1:])
	if err != nil {
		return FixedHeader{}, 0, err
	}

	return FixedHeader{
		Type:      TypeFromByte(buf[0] >> 4),
		Flags:     buf[0] & 0x0F,
		Remaining: rem,
	}, 1 + n, nil
}

// Validate checks the flag nibble against the reserved values for the packet type.
// [MQTT-2.2.2-2] If invalid flags are received, the receiver MUST close the Network Connection.
func (fh FixedHeader) Validate() error {
	if fh.Type == Publish {
		if fh.Qos() > ExactlyOnce { // [MQTT-3.3.1-4]
			return ErrMalformedQos
		}
		return nil
	}

	if f, ok := DefaultFlags(fh.Type); ok && f != fh.Flags {
		return ErrInvalidFlags
	}

	return nil
}

// Dup indicates if a publish packet is a redelivery.
func (fh FixedHeader) Dup() bool {
	return fh.Flags&flagDup > 0
}

// Qos returns the quality of service bits of a publish packet.
func (fh FixedHeader) Qos() byte {
	return (fh.Flags & flagQos) >> 1
}

// Retain indicates if a publish packet should be retained.
func (fh FixedHeader) Retain() bool {
	return fh.Flags&flagRetain > 0
}

// publishFlags packs the DUP, QoS and RETAIN values into a flag nibble.
func publishFlags(dup bool, qos byte, retain bool) byte {
	return encodeBool(dup)<<3 | (qos<<1)&flagQos | encodeBool(retain)
}
