// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package packets

import "errors"

var (
	// ErrEncode is the category of errors raised while encoding a packet.
	ErrEncode = errors.New("encode error")

	// ErrDecode is the category of errors raised while decoding a packet.
	ErrDecode = errors.New("decode error")

	// ErrBuild is the category of errors raised by packet builders.
	ErrBuild = errors.New("build error")
)

// Error is a codec error. It unwraps to its category, so callers can test
// errors.Is(err, packets.ErrDecode) without knowing the concrete reason.
type Error struct {
	Kind   error
	Reason string
}

// Error returns the readable reason for the error.
func (e *Error) Error() string {
	return e.Reason
}

// Unwrap returns the category of the error.
func (e *Error) Unwrap() error {
	return e.Kind
}

var (
	// EncodeError
	ErrRemainingLengthOverflow = &Error{Kind: ErrEncode, Reason: "encode: remaining length exceeds 268435455"}
	ErrUnknownPacketType       = &Error{Kind: ErrEncode, Reason: "encode: unknown packet type"}
	ErrStringTooLong           = &Error{Kind: ErrEncode, Reason: "encode: string exceeds 65535 bytes"}

	// DecodeError
	ErrMalformedVariableByteInteger    = &Error{Kind: ErrDecode, Reason: "malformed packet: variable byte integer out of range"}
	ErrMalformedOffsetLengthOutOfRange = &Error{Kind: ErrDecode, Reason: "malformed packet: remaining length truncated"}
	ErrMalformedOffsetUintOutOfRange   = &Error{Kind: ErrDecode, Reason: "malformed packet: offset uint out of range"}
	ErrMalformedOffsetBytesOutOfRange  = &Error{Kind: ErrDecode, Reason: "malformed packet: offset bytes out of range"}
	ErrMalformedOffsetByteOutOfRange   = &Error{Kind: ErrDecode, Reason: "malformed packet: offset byte out of range"}
	ErrMalformedInvalidUTF8            = &Error{Kind: ErrDecode, Reason: "malformed packet: invalid utf-8 string"}
	ErrMalformedPacketTruncated        = &Error{Kind: ErrDecode, Reason: "malformed packet: buffer shorter than remaining length"}
	ErrMalformedProtocolName           = &Error{Kind: ErrDecode, Reason: "malformed packet: protocol name"}
	ErrMalformedProtocolVersion        = &Error{Kind: ErrDecode, Reason: "malformed packet: protocol version"}
	ErrMalformedFlags                  = &Error{Kind: ErrDecode, Reason: "malformed packet: flags"}
	ErrMalformedKeepalive              = &Error{Kind: ErrDecode, Reason: "malformed packet: keepalive"}
	ErrMalformedClientID               = &Error{Kind: ErrDecode, Reason: "malformed packet: client id"}
	ErrMalformedWillTopic              = &Error{Kind: ErrDecode, Reason: "malformed packet: will topic"}
	ErrMalformedWillPayload            = &Error{Kind: ErrDecode, Reason: "malformed packet: will message"}
	ErrMalformedUsername               = &Error{Kind: ErrDecode, Reason: "malformed packet: username"}
	ErrMalformedPassword               = &Error{Kind: ErrDecode, Reason: "malformed packet: password"}
	ErrMalformedSessionPresent         = &Error{Kind: ErrDecode, Reason: "malformed packet: session present"}
	ErrMalformedReturnCode             = &Error{Kind: ErrDecode, Reason: "malformed packet: return code"}
	ErrMalformedTopic                  = &Error{Kind: ErrDecode, Reason: "malformed packet: topic"}
	ErrMalformedPacketID               = &Error{Kind: ErrDecode, Reason: "malformed packet: packet identifier"}
	ErrMalformedQos                    = &Error{Kind: ErrDecode, Reason: "malformed packet: qos"}
	ErrInvalidFlags                    = &Error{Kind: ErrDecode, Reason: "malformed packet: invalid flags set for packet type"}
	ErrUnexpectedType                  = &Error{Kind: ErrDecode, Reason: "malformed packet: unexpected packet type"}

	// BuildError
	ErrMissingClientID      = &Error{Kind: ErrBuild, Reason: "build: client id is required"}
	ErrInvalidQos           = &Error{Kind: ErrBuild, Reason: "build: qos must be 0, 1 or 2"}
	ErrInvalidKeepalive     = &Error{Kind: ErrBuild, Reason: "build: keepalive exceeds 65535 seconds"}
	ErrInvalidProtocolLevel = &Error{Kind: ErrBuild, Reason: "build: unsupported protocol level"}
	ErrFieldTooLong         = &Error{Kind: ErrBuild, Reason: "build: field exceeds 65535 bytes"}
	ErrInvalidTopic         = &Error{Kind: ErrBuild, Reason: "build: invalid topic name"}
	ErrInvalidFilter        = &Error{Kind: ErrBuild, Reason: "build: invalid topic filter"}
	ErrNoFilters            = &Error{Kind: ErrBuild, Reason: "build: at least one topic filter is required"}
	ErrMissingPacketID      = &Error{Kind: ErrBuild, Reason: "build: missing packet id"}
	ErrSurplusPacketID      = &Error{Kind: ErrBuild, Reason: "build: packet id set on qos 0 publish"}
	ErrInvalidDup           = &Error{Kind: ErrBuild, Reason: "build: dup must be 0 for qos 0 messages"}
)
