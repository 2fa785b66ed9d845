// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package packets

import (
	"bytes"
	"encoding/binary"
	"io"
	"unicode/utf8"
)

const (
	// MaxRemainingLength is the largest value a 4 byte variable byte integer can carry (2^28-1).
	MaxRemainingLength uint32 = 268435455

	// maxMultiplier is the multiplier of the fourth and final length byte (128^3).
	maxMultiplier uint32 = 128 * 128 * 128

	// maxStringLength is the longest string a two byte length prefix can describe.
	maxStringLength = 65535
)

// EncodeLength returns the variable byte integer encoding of a remaining length.
// 2.2.3 Remaining Length: seven bits per byte, least significant group first, with
// the high bit set on every byte but the last.
func EncodeLength(length uint32) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeLength(&buf, length); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// encodeLength writes the variable byte integer encoding of length to the buffer.
func encodeLength(b *bytes.Buffer, length uint32) error {
	if length > MaxRemainingLength {
		return ErrRemainingLengthOverflow
	}

	for {
		eb := byte(length % 128)
		length /= 128
		if length > 0 {
			eb |= 0x80
		}
		b.WriteByte(eb)
		if length == 0 {
			return nil
		}
	}
}

// lengthSize returns the number of bytes needed to encode a remaining length.
func lengthSize(length uint32) int {
	switch {
	case length < 128:
		return 1
	case length < 16384:
		return 2
	case length < 2097152:
		return 3
	default:
		return 4
	}
}

// DecodeLength decodes a variable byte integer from the front of buf, returning the value
// and the number of bytes the field occupied. Only the bytes of the length field are read.
func DecodeLength(buf []byte) (value uint32, n int, err error) {
	multiplier := uint32(1)
	for {
		if n >= len(buf) {
			return 0, 0, ErrMalformedOffsetLengthOutOfRange
		}

		eb := buf[n]
		n++
		value += uint32(eb&0x7F) * multiplier
		if eb&0x80 == 0 {
			return value, n, nil
		}

		multiplier *= 128
		if multiplier > maxMultiplier {
			return 0, 0, ErrMalformedVariableByteInteger
		}
	}
}

// ReadLength decodes a variable byte integer from a stream, one byte at a time.
func ReadLength(r io.ByteReader) (value uint32, n int, err error) {
	multiplier := uint32(1)
	for {
		eb, err := r.ReadByte()
		if err != nil {
			return 0, n, err
		}

		n++
		value += uint32(eb&0x7F) * multiplier
		if eb&0x80 == 0 {
			return value, n, nil
		}

		multiplier *= 128
		if multiplier > maxMultiplier {
			return 0, n, ErrMalformedVariableByteInteger
		}
	}
}

// decodeUint16 extracts the value of two bytes from a byte array.
func decodeUint16(buf []byte, offset int) (uint16, int, error) {
	if len(buf) < offset+2 {
		return 0, 0, ErrMalformedOffsetUintOutOfRange
	}

	return binary.BigEndian.Uint16(buf[offset : offset+2]), offset + 2, nil
}

// decodeBytes extracts a length prefixed byte array from a byte array, beginning at an offset.
func decodeBytes(buf []byte, offset int) ([]byte, int, error) {
	length, next, err := decodeUint16(buf, offset)
	if err != nil {
		return nil, 0, err
	}

	if next+int(length) > len(buf) {
		return nil, 0, ErrMalformedOffsetBytesOutOfRange
	}

	return buf[next : next+int(length)], next + int(length), nil
}

// decodeString extracts a length prefixed UTF-8 string from a byte array, beginning at an offset.
func decodeString(buf []byte, offset int) (string, int, error) {
	b, n, err := decodeBytes(buf, offset)
	if err != nil {
		return "", 0, err
	}

	if !validUTF8(b) { // [MQTT-1.5.3-1] [MQTT-1.5.3-2]
		return "", 0, ErrMalformedInvalidUTF8
	}

	return string(b), n, nil
}

// validUTF8 checks if the byte array contains valid UTF-8 characters and no null character.
func validUTF8(b []byte) bool {
	return utf8.Valid(b) && bytes.IndexByte(b, 0x00) == -1
}

// decodeByte extracts the value of a byte from a byte array.
func decodeByte(buf []byte, offset int) (byte, int, error) {
	if len(buf) <= offset {
		return 0, 0, ErrMalformedOffsetByteOutOfRange
	}

	return buf[offset], offset + 1, nil
}

// encodeUint16 writes a big-endian uint16 to the buffer.
func encodeUint16(b *bytes.Buffer, val uint16) {
	b.WriteByte(byte(val >> 8))
	b.WriteByte(byte(val))
}

// encodeBytes writes a length prefixed byte array to the buffer.
func encodeBytes(b *bytes.Buffer, val []byte) error {
	if len(val) > maxStringLength {
		return ErrStringTooLong
	}

	encodeUint16(b, uint16(len(val)))
	b.Write(val)
	return nil
}

// encodeString writes a length prefixed string to the buffer.
func encodeString(b *bytes.Buffer, val string) error {
	if len(val) > maxStringLength {
		return ErrStringTooLong
	}

	encodeUint16(b, uint16(len(val)))
	b.WriteString(val)
	return nil
}

// fieldsFit reports whether every string fits a two byte length prefix.
func fieldsFit(fields ...string) bool {
	for _, f := range fields {
		if len(f) > maxStringLength {
			return false
		}
	}
	return true
}

// encodeBool returns a byte instead of a bool.
func encodeBool(b bool) byte {
	if b {
		return 1
	}
	return 0
}
