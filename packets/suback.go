// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package packets

import "bytes"

// SubackPacket contains the values of an MQTT SUBACK packet. There is one return code
// for each filter of the acknowledged SUBSCRIBE, in the same order.
type SubackPacket struct {
	FixedHeader
	ReturnCodes []byte
	PacketID    uint16
}

// NewSuback returns a SUBACK packet acknowledging the packet id.
func NewSuback(id uint16, codes ...byte) *SubackPacket {
	pk := &SubackPacket{
		FixedHeader: NewFixedHeader(Suback),
		PacketID:    id,
		ReturnCodes: codes,
	}
	pk.FixedHeader.Remaining = uint32(2 + len(codes))
	return pk
}

// Encode encodes and writes the packet data values to the buffer.
func (pk *SubackPacket) Encode(buf *bytes.Buffer) error {
	fh := NewFixedHeader(Suback)
	fh.Remaining = uint32(2 + len(pk.ReturnCodes))
	if err := fh.Encode(buf); err != nil {
		return err
	}

	encodeUint16(buf, pk.PacketID)
	buf.Write(pk.ReturnCodes)
	return nil
}

// Decode extracts the packet id and return codes from the bytes following the fixed header.
func (pk *SubackPacket) Decode(buf []byte) error {
	var offset int
	var err error

	pk.PacketID, offset, err = decodeUint16(buf, 0)
	if err != nil {
		return ErrMalformedPacketID
	}

	codes := buf[offset:]
	for _, c := range codes {
		if _, ok := SubackCodes[c]; !ok { // [MQTT-3.9.3-2]
			return ErrMalformedReturnCode
		}
	}

	pk.ReturnCodes = append([]byte(nil), codes...)
	return nil
}

// Granted returns the qos granted for the filter at index i, or an error if the
// subscription was refused.
func (pk *SubackPacket) Granted(i int) (byte, error) {
	if i < 0 || i >= len(pk.ReturnCodes) {
		return 0, ErrSubscribeFailed
	}

	if c := pk.ReturnCodes[i]; c != ErrSubscribeFailed.Code {
		return c, nil
	}

	return 0, ErrSubscribeFailed
}
