// Package handid generates identifiers for hand records. IDs are UUIDv7
// values encoded as 26-character Crockford base32 strings, so they sort by
// start time, which keeps hand listings and storage scans in play order.
package handid

import (
	"crypto/rand"
	"fmt"
	"time"
)

const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// New returns a fresh hand identifier.
func New() string {
	var uuid [16]byte

	// 48-bit millisecond timestamp up front, then random bits.
	now := time.Now().UnixMilli()
	uuid[0] = byte(now >> 40)
	uuid[1] = byte(now >> 32)
	uuid[2] = byte(now >> 24)
	uuid[3] = byte(now >> 16)
	uuid[4] = byte(now >> 8)
	uuid[5] = byte(now)

	if _, err := rand.Read(uuid[6:]); err != nil {
		panic("handid: reading entropy: " + err.Error())
	}

	// Version 7, variant 10.
	uuid[6] = (uuid[6] & 0x0f) | 0x70
	uuid[8] = (uuid[8] & 0x3f) | 0x80

	return encodeBase32(uuid)
}

// Validate reports whether id has the shape produced by New.
func Validate(id string) error {
	if len(id) != 26 {
		return fmt.Errorf("hand id must be 26 characters, got %d", len(id))
	}
	// 128 bits in 130 bit positions: the first character carries only 3 bits.
	if id[0] > '7' {
		return fmt.Errorf("hand id first character must be 0-7, got %c", id[0])
	}
	for i := 0; i < len(id); i++ {
		if !validChar(id[i]) {
			return fmt.Errorf("hand id has invalid character %c at position %d", id[i], i)
		}
	}
	return nil
}

func validChar(ch byte) bool {
	for i := 0; i < len(alphabet); i++ {
		if alphabet[i] == ch {
			return true
		}
	}
	return false
}

func encodeBase32(data [16]byte) string {
	result := make([]byte, 26)
	for i := 0; i < 26; i++ {
		bitOffset := i * 5
		byteIndex := bitOffset / 8
		bitIndex := bitOffset % 8

		var value uint8
		if byteIndex < 16 {
			if bitIndex <= 3 {
				value = (data[byteIndex] >> (3 - bitIndex)) & 0x1f
			} else {
				value = (data[byteIndex] << (bitIndex - 3)) & 0x1f
				if byteIndex+1 < 16 {
					value |= data[byteIndex+1] >> (11 - bitIndex)
				}
			}
		}
		result[i] = alphabet[value]
	}
	return string(result)
}
