// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package packets

import "bytes"

// ConnackPacket contains the values of an MQTT CONNACK packet.
type ConnackPacket struct {
	FixedHeader
	AckFlags   byte // bit 0 is the session present flag
	ReturnCode byte
}

// NewConnack returns a CONNACK packet with the session present flag and return code.
func NewConnack(sessionPresent bool, code byte) *ConnackPacket {
	fh := NewFixedHeader(Connack)
	fh.Remaining = 2
	return &ConnackPacket{
		FixedHeader: fh,
		AckFlags:    encodeBool(sessionPresent),
		ReturnCode:  code,
	}
}

// SessionPresent indicates whether the server resumed a stored session.
func (pk *ConnackPacket) SessionPresent() bool {
	return pk.AckFlags&0x01 > 0
}

// Accepted returns true if the server accepted the connection.
func (pk *ConnackPacket) Accepted() bool {
	return pk.ReturnCode == CodeConnectAccepted.Code
}

// Err returns the code describing why the connection was refused, or nil if it was accepted.
func (pk *ConnackPacket) Err() error {
	if pk.Accepted() {
		return nil
	}

	if c, ok := ConnackCodes[pk.ReturnCode]; ok {
		return c
	}

	return Code{Code: pk.ReturnCode, Reason: "connection refused: unknown return code"}
}

// Encode encodes and writes the packet data values to the buffer.
func (pk *ConnackPacket) Encode(buf *bytes.Buffer) error {
	fh := NewFixedHeader(Connack)
	fh.Remaining = 2
	if err := fh.Encode(buf); err != nil {
		return err
	}

	buf.WriteByte(pk.AckFlags)
	buf.WriteByte(pk.ReturnCode)
	return nil
}

// Decode extracts the variable header values from the bytes following the fixed header.
func (pk *ConnackPacket) Decode(buf []byte) error {
	var offset int
	var err error

	pk.AckFlags, offset, err = decodeByte(buf, 0)
	if err != nil {
		return ErrMalformedSessionPresent
	}

	pk.ReturnCode, _, err = decodeByte(buf, offset)
	if err != nil {
		return ErrMalformedReturnCode
	}

	return nil
}

// DecodeConnack decodes a CONNACK packet from the front of buf. The acknowledge flags and
// return code are read at the offset where the fixed header ends.
func DecodeConnack(buf []byte) (*ConnackPacket, error) {
	fh, n, err := DecodeFixedHeader(buf)
	if err != nil {
		return nil, err
	}

	if fh.Type != Connack {
		return nil, ErrUnexpectedType
	}

	pk := &ConnackPacket{FixedHeader: fh}
	if err := pk.Decode(buf[n:]); err != nil {
		return nil, err
	}

	return pk, nil
}
