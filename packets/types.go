// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package packets

// Type is the MQTT control packet type carried in the high nibble of the first header byte.
type Type byte

// All of the valid packet types and their packet identifier. Unknown stands in for
// the reserved values 0 and 15.
const (
	Unknown     Type = iota
	Connect          // 1
	Connack          // 2
	Publish          // 3
	Puback           // 4
	Pubrec           // 5
	Pubrel           // 6
	Pubcomp          // 7
	Subscribe        // 8
	Suback           // 9
	Unsubscribe      // 10
	Unsuback         // 11
	Pingreq          // 12
	Pingresp         // 13
	Disconnect       // 14
)

// PacketNames is a map of packet types to human-readable names.
var PacketNames = map[Type]string{
	Unknown:     "Unknown",
	Connect:     "Connect",
	Connack:     "Connack",
	Publish:     "Publish",
	Puback:      "Puback",
	Pubrec:      "Pubrec",
	Pubrel:      "Pubrel",
	Pubcomp:     "Pubcomp",
	Subscribe:   "Subscribe",
	Suback:      "Suback",
	Unsubscribe: "Unsubscribe",
	Unsuback:    "Unsuback",
	Pingreq:     "Pingreq",
	Pingresp:    "Pingresp",
	Disconnect:  "Disconnect",
}

// fixedFlags holds the reserved flag nibble for each packet type [MQTT-2.2.2-1].
// Publish is absent as its flags carry the DUP, QoS and RETAIN values.
var fixedFlags = map[Type]byte{
	Connect:     0,
	Connack:     0,
	Puback:      0,
	Pubrec:      0,
	Pubrel:      2,
	Pubcomp:     0,
	Subscribe:   2,
	Suback:      0,
	Unsubscribe: 2,
	Unsuback:    0,
	Pingreq:     0,
	Pingresp:    0,
	Disconnect:  0,
}

// TypeFromByte maps a 4-bit wire value onto a packet type. Anything outside 1-14 is Unknown.
func TypeFromByte(b byte) Type {
	if b >= byte(Connect) && b <= byte(Disconnect) {
		return Type(b)
	}

	return Unknown
}

// Valid returns true if the type is one of the fourteen defined control packet types.
func (t Type) Valid() bool {
	return t >= Connect && t <= Disconnect
}

// String returns the readable name of the packet type.
func (t Type) String() string {
	if n, ok := PacketNames[t]; ok {
		return n
	}

	return PacketNames[Unknown]
}

// DefaultFlags returns the flag nibble a packet of type t must carry, and false if the
// type has no fixed flags (Publish, Unknown).
func DefaultFlags(t Type) (byte, bool) {
	f, ok := fixedFlags[t]
	return f, ok
}

// Qos levels.
const (
	AtMostOnce  byte = 0
	AtLeastOnce byte = 1
	ExactlyOnce byte = 2
)

// validateQos returns true if the qos byte is 0, 1 or 2.
func validateQos(qos byte) bool {
	return qos <= ExactlyOnce
}
