// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package packets

import "bytes"

// Packet is an MQTT control packet. Every variant embeds its FixedHeader.
type Packet interface {
	Header() FixedHeader
	Encode(buf *bytes.Buffer) error
}

// Header returns the fixed header of the packet.
func (fh FixedHeader) Header() FixedHeader {
	return fh
}

// bodyDecoder is implemented by the variants which decode their variable header and payload.
type bodyDecoder interface {
	Packet
	Decode(buf []byte) error
}

// frame decodes the fixed header at the front of buf and returns it with the bytes of the
// variable header and payload, bounded by the remaining length, and the total number of
// bytes the packet occupies. A want of Unknown accepts any type.
func frame(buf []byte, want Type) (FixedHeader, []byte, int, error) {
	fh, n, err := DecodeFixedHeader(buf)
	if err != nil {
		return fh, nil, 0, err
	}

	if want != Unknown && fh.Type != want {
		return fh, nil, 0, ErrUnexpectedType
	}

	end := n + int(fh.Remaining)
	if len(buf) < end {
		return fh, nil, 0, ErrMalformedPacketTruncated
	}

	return fh, buf[n:end], end, nil
}

// newPacket returns an empty variant for the fixed header, or nil if the type is
// carried as a RawPacket.
func newPacket(fh FixedHeader) bodyDecoder {
	switch fh.Type {
	case Connect:
		return &ConnectPacket{FixedHeader: fh}
	case Connack:
		return &ConnackPacket{FixedHeader: fh}
	case Publish:
		return &PublishPacket{FixedHeader: fh}
	case Subscribe:
		return &SubscribePacket{FixedHeader: fh}
	case Suback:
		return &SubackPacket{FixedHeader: fh}
	case Unsubscribe:
		return &UnsubscribePacket{FixedHeader: fh}
	case Unsuback:
		return &UnsubackPacket{FixedHeader: fh}
	default:
		return nil
	}
}

// Decode decodes one complete packet from the front of buf and returns it along with the
// number of bytes it occupied. The returned packet does not share memory with buf, except
// for the payload of a PUBLISH packet and the body of a RawPacket.
func Decode(buf []byte) (Packet, int, error) {
	fh, body, n, err := frame(buf, Unknown)
	if err != nil {
		return nil, 0, err
	}

	if err := fh.Validate(); err != nil {
		return nil, 0, err
	}

	switch fh.Type {
	case Pingreq:
		return &PingreqPacket{FixedHeader: fh}, n, nil
	case Pingresp:
		return &PingrespPacket{FixedHeader: fh}, n, nil
	case Disconnect:
		return &DisconnectPacket{FixedHeader: fh}, n, nil
	}

	pk := newPacket(fh)
	if pk == nil {
		return &RawPacket{FixedHeader: fh, Body: body}, n, nil
	}

	if err := pk.Decode(body); err != nil {
		return nil, 0, err
	}

	return pk, n, nil
}

// Encode returns the wire encoding of the packet.
func Encode(pk Packet) ([]byte, error) {
	var buf bytes.Buffer
	if err := pk.Encode(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
