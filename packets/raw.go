// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package packets

import "bytes"

// RawPacket is a packet whose variable header and payload are kept undecoded. Decode
// produces it for the reserved type values and for the QoS 1 and 2 acknowledgements.
type RawPacket struct {
	FixedHeader
	Body []byte
}

// PacketID returns the packet identifier at the front of the body, as carried by the
// PUBACK, PUBREC, PUBREL and PUBCOMP packets.
func (pk *RawPacket) PacketID() (uint16, error) {
	id, _, err := decodeUint16(pk.Body, 0)
	if err != nil {
		return 0, ErrMalformedPacketID
	}

	return id, nil
}

// Encode writes the fixed header followed by the body. A raw packet of the Unknown
// type cannot be encoded.
func (pk *RawPacket) Encode(buf *bytes.Buffer) error {
	fh := pk.FixedHeader
	fh.Remaining = uint32(len(pk.Body))
	if err := fh.Encode(buf); err != nil {
		return err
	}

	buf.Write(pk.Body)
	return nil
}
