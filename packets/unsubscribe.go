// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package packets

import "bytes"

// UnsubscribePacket contains the values of an MQTT UNSUBSCRIBE packet.
type UnsubscribePacket struct {
	FixedHeader
	Filters  []string
	PacketID uint16
}

// remainingLength returns the number of bytes following the fixed header.
func (pk *UnsubscribePacket) remainingLength() uint32 {
	n := 2
	for _, f := range pk.Filters {
		n += 2 + len(f)
	}

	return uint32(n)
}

// Encode encodes and writes the packet data values to the buffer.
func (pk *UnsubscribePacket) Encode(buf *bytes.Buffer) error {
	if !fieldsFit(pk.Filters...) {
		return ErrStringTooLong
	}

	fh := NewFixedHeader(Unsubscribe)
	fh.Remaining = pk.remainingLength()
	if err := fh.Encode(buf); err != nil {
		return err
	}

	encodeUint16(buf, pk.PacketID)
	for _, f := range pk.Filters {
		if err := encodeString(buf, f); err != nil {
			return err
		}
	}

	return nil
}

// Decode extracts the packet id and topic filters from the bytes following the fixed header.
func (pk *UnsubscribePacket) Decode(buf []byte) error {
	var offset int
	var err error

	pk.PacketID, offset, err = decodeUint16(buf, 0)
	if err != nil {
		return ErrMalformedPacketID
	}

	pk.Filters = pk.Filters[:0]
	for offset < len(buf) {
		var f string
		f, offset, err = decodeString(buf, offset)
		if err != nil {
			return ErrMalformedTopic
		}
		pk.Filters = append(pk.Filters, f)
	}

	if len(pk.Filters) == 0 { // [MQTT-3.10.3-2]
		return ErrMalformedTopic
	}

	return nil
}

// UnsubscribeBuilder assembles an UNSUBSCRIBE packet. Every setter returns a modified copy.
type UnsubscribeBuilder struct {
	filters  []string
	packetID uint16
}

// NewUnsubscribeBuilder returns a builder with packet id 1 and no filters.
func NewUnsubscribeBuilder() UnsubscribeBuilder {
	return UnsubscribeBuilder{packetID: 1}
}

func (b UnsubscribeBuilder) PacketID(id uint16) UnsubscribeBuilder {
	b.packetID = id
	return b
}

// Filter appends a topic filter to unsubscribe from.
func (b UnsubscribeBuilder) Filter(filter string) UnsubscribeBuilder {
	b.filters = append(b.filters[:len(b.filters):len(b.filters)], filter)
	return b
}

// Build validates the configured values and returns the UNSUBSCRIBE packet.
func (b UnsubscribeBuilder) Build() (*UnsubscribePacket, error) {
	if b.packetID == 0 {
		return nil, ErrMissingPacketID
	}

	if len(b.filters) == 0 {
		return nil, ErrNoFilters
	}

	for _, f := range b.filters {
		if !validFilter(f) {
			return nil, ErrInvalidFilter
		}
	}

	pk := &UnsubscribePacket{
		FixedHeader: NewFixedHeader(Unsubscribe),
		PacketID:    b.packetID,
		Filters:     append([]string(nil), b.filters...),
	}

	pk.FixedHeader.Remaining = pk.remainingLength()
	if pk.FixedHeader.Remaining > MaxRemainingLength {
		return nil, ErrFieldTooLong
	}

	return pk, nil
}
