// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package packets

import (
	"bytes"
	"strings"
)

// PublishPacket contains the values of an MQTT PUBLISH packet. The DUP, QoS and RETAIN
// values are carried in the fixed header flags.
type PublishPacket struct {
	FixedHeader
	TopicName string
	Payload   []byte
	PacketID  uint16
}

// remainingLength returns the number of bytes following the fixed header.
func (pk *PublishPacket) remainingLength() uint32 {
	n := 2 + len(pk.TopicName) + len(pk.Payload)
	if pk.Qos() > AtMostOnce {
		n += 2
	}

	return uint32(n)
}

// Encode encodes and writes the packet data values to the buffer.
func (pk *PublishPacket) Encode(buf *bytes.Buffer) error {
	if !fieldsFit(pk.TopicName) {
		return ErrStringTooLong
	}

	fh := pk.FixedHeader
	fh.Type = Publish
	fh.Remaining = pk.remainingLength()
	if err := fh.Encode(buf); err != nil {
		return err
	}

	if err := encodeString(buf, pk.TopicName); err != nil {
		return err
	}
	if pk.Qos() > AtMostOnce {
		encodeUint16(buf, pk.PacketID)
	}

	buf.Write(pk.Payload)
	return nil
}

// Decode extracts the variable header and payload from the bytes following the fixed
// header. buf must end where the packet ends: whatever follows the topic and packet id
// is the payload.
func (pk *PublishPacket) Decode(buf []byte) error {
	var offset int
	var err error

	pk.TopicName, offset, err = decodeString(buf, 0)
	if err != nil {
		return ErrMalformedTopic
	}

	if pk.Qos() > AtMostOnce {
		pk.PacketID, offset, err = decodeUint16(buf, offset)
		if err != nil {
			return ErrMalformedPacketID
		}
	}

	pk.Payload = buf[offset:]
	return nil
}

// DecodePublish decodes a PUBLISH packet from the front of buf. The payload spans from
// the end of the variable header to the end of the remaining length.
func DecodePublish(buf []byte) (*PublishPacket, error) {
	fh, body, _, err := frame(buf, Publish)
	if err != nil {
		return nil, err
	}

	if err := fh.Validate(); err != nil {
		return nil, err
	}

	pk := &PublishPacket{FixedHeader: fh}
	if err := pk.Decode(body); err != nil {
		return nil, err
	}

	return pk, nil
}

// validTopic returns true if the topic name is usable in a PUBLISH packet. Topic names
// must not be empty or contain wildcard characters [MQTT-3.3.2-2].
func validTopic(topic string) bool {
	return topic != "" &&
		len(topic) <= maxStringLength &&
		!strings.ContainsAny(topic, "+#") &&
		validUTF8([]byte(topic))
}

// PublishBuilder assembles a PUBLISH packet. Every setter returns a modified copy.
type PublishBuilder struct {
	topic    string
	payload  []byte
	packetID uint16
	qos      byte
	dup      bool
	retain   bool
}

// NewPublishBuilder returns a builder for a QoS 0 message on the topic.
func NewPublishBuilder(topic string) PublishBuilder {
	return PublishBuilder{topic: topic}
}

func (b PublishBuilder) Payload(payload []byte) PublishBuilder {
	b.payload = append(make([]byte, 0, len(payload)), payload...)
	return b
}

func (b PublishBuilder) Qos(qos byte) PublishBuilder {
	b.qos = qos
	return b
}

func (b PublishBuilder) Retain(retain bool) PublishBuilder {
	b.retain = retain
	return b
}

func (b PublishBuilder) Dup(dup bool) PublishBuilder {
	b.dup = dup
	return b
}

// PacketID sets the packet identifier. It is required for QoS 1 and 2 and forbidden for QoS 0.
func (b PublishBuilder) PacketID(id uint16) PublishBuilder {
	b.packetID = id
	return b
}

// Build validates the configured values and returns the PUBLISH packet.
func (b PublishBuilder) Build() (*PublishPacket, error) {
	if !validTopic(b.topic) {
		return nil, ErrInvalidTopic
	}

	if !validateQos(b.qos) {
		return nil, ErrInvalidQos
	}

	if b.qos > AtMostOnce && b.packetID == 0 { // [MQTT-2.3.1-1]
		return nil, ErrMissingPacketID
	}

	if b.qos == AtMostOnce && b.packetID != 0 { // [MQTT-2.3.1-5]
		return nil, ErrSurplusPacketID
	}

	if b.qos == AtMostOnce && b.dup { // [MQTT-3.3.1-2]
		return nil, ErrInvalidDup
	}

	pk := &PublishPacket{
		FixedHeader: FixedHeader{
			Type:  Publish,
			Flags: publishFlags(b.dup, b.qos, b.retain),
		},
		TopicName: b.topic,
		Payload:   b.payload,
		PacketID:  b.packetID,
	}

	pk.FixedHeader.Remaining = pk.remainingLength()
	if pk.FixedHeader.Remaining > MaxRemainingLength {
		return nil, ErrFieldTooLong
	}

	return pk, nil
}
