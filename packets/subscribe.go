// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package packets

import (
	"bytes"
	"strings"
)

// TopicFilter is a topic filter and the maximum qos requested for it.
type TopicFilter struct {
	Filter string `json:"filter"`
	Qos    byte   `json:"qos"`
}

// SubscribePacket contains the values of an MQTT SUBSCRIBE packet.
type SubscribePacket struct {
	FixedHeader
	Filters  []TopicFilter
	PacketID uint16
}

// remainingLength returns the number of bytes following the fixed header.
func (pk *SubscribePacket) remainingLength() uint32 {
	n := 2
	for _, f := range pk.Filters {
		n += 2 + len(f.Filter) + 1
	}

	return uint32(n)
}

// Encode encodes and writes the packet data values to the buffer.
func (pk *SubscribePacket) Encode(buf *bytes.Buffer) error {
	for _, f := range pk.Filters {
		if !fieldsFit(f.Filter) {
			return ErrStringTooLong
		}
	}

	fh := NewFixedHeader(Subscribe)
	fh.Remaining = pk.remainingLength()
	if err := fh.Encode(buf); err != nil {
		return err
	}

	encodeUint16(buf, pk.PacketID)
	for _, f := range pk.Filters {
		if err := encodeString(buf, f.Filter); err != nil {
			return err
		}
		buf.WriteByte(f.Qos)
	}

	return nil
}

// Decode extracts the packet id and topic filters from the bytes following the fixed header.
func (pk *SubscribePacket) Decode(buf []byte) error {
	var offset int
	var err error

	pk.PacketID, offset, err = decodeUint16(buf, 0)
	if err != nil {
		return ErrMalformedPacketID
	}

	pk.Filters = pk.Filters[:0]
	for offset < len(buf) {
		var f TopicFilter
		f.Filter, offset, err = decodeString(buf, offset)
		if err != nil {
			return ErrMalformedTopic
		}

		f.Qos, offset, err = decodeByte(buf, offset)
		if err != nil || !validateQos(f.Qos) { // [MQTT-3.8.3-4]
			return ErrMalformedQos
		}

		pk.Filters = append(pk.Filters, f)
	}

	if len(pk.Filters) == 0 { // [MQTT-3.8.3-3]
		return ErrMalformedTopic
	}

	return nil
}

// validFilter returns true if the topic filter is well formed. The multi-level wildcard
// must be the last level and both wildcards must occupy a whole level [MQTT-4.7.1-2] [MQTT-4.7.1-3].
func validFilter(filter string) bool {
	if filter == "" || len(filter) > maxStringLength || !validUTF8([]byte(filter)) {
		return false
	}

	levels := strings.Split(filter, "/")
	for i, level := range levels {
		if strings.Contains(level, "#") && (level != "#" || i != len(levels)-1) {
			return false
		}

		if strings.Contains(level, "+") && level != "+" {
			return false
		}
	}

	return true
}

// SubscribeBuilder assembles a SUBSCRIBE packet. Every setter returns a modified copy.
type SubscribeBuilder struct {
	filters  []TopicFilter
	packetID uint16
}

// NewSubscribeBuilder returns a builder with packet id 1 and no filters.
func NewSubscribeBuilder() SubscribeBuilder {
	return SubscribeBuilder{packetID: 1}
}

func (b SubscribeBuilder) PacketID(id uint16) SubscribeBuilder {
	b.packetID = id
	return b
}

// Filter appends a topic filter with the requested qos.
func (b SubscribeBuilder) Filter(filter string, qos byte) SubscribeBuilder {
	b.filters = append(b.filters[:len(b.filters):len(b.filters)], TopicFilter{Filter: filter, Qos: qos})
	return b
}

// Build validates the configured values and returns the SUBSCRIBE packet.
func (b SubscribeBuilder) Build() (*SubscribePacket, error) {
	if b.packetID == 0 {
		return nil, ErrMissingPacketID
	}

	if len(b.filters) == 0 {
		return nil, ErrNoFilters
	}

	for _, f := range b.filters {
		if !validFilter(f.Filter) {
			return nil, ErrInvalidFilter
		}

		if !validateQos(f.Qos) {
			return nil, ErrInvalidQos
		}
	}

	pk := &SubscribePacket{
		FixedHeader: NewFixedHeader(Subscribe),
		PacketID:    b.packetID,
		Filters:     append([]TopicFilter(nil), b.filters...),
	}

	pk.FixedHeader.Remaining = pk.remainingLength()
	if pk.FixedHeader.Remaining > MaxRemainingLength {
		return nil, ErrFieldTooLong
	}

	return pk, nil
}
