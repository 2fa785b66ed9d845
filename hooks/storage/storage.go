// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

// Package storage contains the storable types shared by the message journal hooks.
package storage

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/xid"

	"github.com/mqutekitty/client/packets"
)

const (
	InboundKey  = "IN"  // unique key to denote messages received from the broker
	OutboundKey = "OUT" // unique key to denote messages published to the broker
)

var (
	// ErrDBFileNotOpen indicates that the file database (e.g. bolt/badger) wasn't open for reading.
	ErrDBFileNotOpen = errors.New("db file not open")
)

// Serializable is an interface for objects that can be serialized and deserialized.
type Serializable interface {
	UnmarshalBinary([]byte) error
	MarshalBinary() (data []byte, err error)
}

// Message is a storable representation of a publish message sent or received by a client.
type Message struct {
	Payload     []byte              `json:"payload"`             // the message payload
	T           string              `json:"t"`                   // the direction of the message (IN or OUT)
	ID          string              `json:"id"`                  // the storage key
	Client      string              `json:"client"`              // the id of the client which sent or received the message
	TopicName   string              `json:"topic_name"`          // the topic the message was published to
	FixedHeader packets.FixedHeader `json:"fixedheader"`         // the header of the publish packet
	Created     int64               `json:"created"`             // the time the message was journaled in unixtime
	PacketID    uint16              `json:"packet_id,omitempty"` // the packet id of the message if qos > 0
}

// Prefix returns the key prefix shared by all messages of the direction t for a client.
func Prefix(t, client string) string {
	return t + "_" + client + ":"
}

// NewMessage returns a storable message for a publish packet. The key sorts by
// direction, client and then creation order.
func NewMessage(t, client string, pk *packets.PublishPacket) Message {
	return Message{
		ID:          Prefix(t, client) + xid.New().String(),
		T:           t,
		Client:      client,
		TopicName:   pk.TopicName,
		Payload:     append([]byte{}, pk.Payload...),
		FixedHeader: pk.FixedHeader,
		PacketID:    pk.PacketID,
		Created:     time.Now().Unix(),
	}
}

// MarshalBinary encodes the values into a json string.
func (d Message) MarshalBinary() (data []byte, err error) {
	return json.Marshal(d)
}

// UnmarshalBinary decodes a json string into a struct.
func (d *Message) UnmarshalBinary(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, d)
}

// ToPacket converts a storage.Message to a publish packet.
func (d *Message) ToPacket() *packets.PublishPacket {
	// Return a deep copy of the payload otherwise the slice will
	// continue pointing at the values from the storage message.
	return &packets.PublishPacket{
		FixedHeader: d.FixedHeader,
		TopicName:   d.TopicName,
		PacketID:    d.PacketID,
		Payload:     append([]byte{}, d.Payload...),
	}
}
