// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package packets

// Code contains a return code and reason string for a response.
type Code struct {
	Reason string
	Code   byte
}

// String returns the readable reason for a code.
func (c Code) String() string {
	return c.Reason
}

// Error returns the readable reason for a code.
func (c Code) Error() string {
	return c.Reason
}

var (
	CodeConnectAccepted           = Code{Code: 0x00, Reason: "connection accepted"}
	ErrConnectBadProtocolVersion  = Code{Code: 0x01, Reason: "connection refused: unacceptable protocol version"}
	ErrConnectIdentifierRejected  = Code{Code: 0x02, Reason: "connection refused: identifier rejected"}
	ErrConnectServerUnavailable   = Code{Code: 0x03, Reason: "connection refused: server unavailable"}
	ErrConnectBadUsernamePassword = Code{Code: 0x04, Reason: "connection refused: bad user name or password"}
	ErrConnectNotAuthorized       = Code{Code: 0x05, Reason: "connection refused: not authorized"}

	CodeGrantedQos0    = Code{Code: 0x00, Reason: "granted qos 0"}
	CodeGrantedQos1    = Code{Code: 0x01, Reason: "granted qos 1"}
	CodeGrantedQos2    = Code{Code: 0x02, Reason: "granted qos 2"}
	ErrSubscribeFailed = Code{Code: 0x80, Reason: "subscription failed"}
)

// ConnackCodes maps the CONNACK return code byte onto its code.
var ConnackCodes = map[byte]Code{
	0x00: CodeConnectAccepted,
	0x01: ErrConnectBadProtocolVersion,
	0x02: ErrConnectIdentifierRejected,
	0x03: ErrConnectServerUnavailable,
	0x04: ErrConnectBadUsernamePassword,
	0x05: ErrConnectNotAuthorized,
}

// SubackCodes maps the SUBACK return code byte onto its code.
var SubackCodes = map[byte]Code{
	0x00: CodeGrantedQos0,
	0x01: CodeGrantedQos1,
	0x02: CodeGrantedQos2,
	0x80: ErrSubscribeFailed,
}
