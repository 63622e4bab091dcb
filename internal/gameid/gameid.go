// Package gameid mints sortable hand and table identifiers: a UUIDv7
// rendered as 26 characters of Crockford base32, so IDs order by creation
// time in logs and database indexes.
package gameid

import (
	"fmt"

	"github.com/google/uuid"
)

// Base32 alphabet used by TypeID (Crockford's base32)
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// New mints a fresh identifier.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		// The only failure mode is the system entropy source.
		panic("gameid: " + err.Error())
	}
	return encodeBase32(id)
}

// encodeBase32 encodes a 128-bit UUID as a 26-character base32 string, five
// bits per character, most significant bits first.
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

// Validate checks that an identifier is 26 valid base32 characters encoding
// no more than 128 bits.
func Validate(id string) error {
	if len(id) != 26 {
		return fmt.Errorf("game ID must be exactly 26 characters, got %d", len(id))
	}

	// The first character carries 5 bits of a 130-bit field holding 128 bits
	// of data; anything above '7' would overflow.
	if id[0] > '7' {
		return fmt.Errorf("game ID first character must be 0-7, got %c", id[0])
	}

	for i, char := range id {
		valid := false
		for _, validChar := range alphabet {
			if char == validChar {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("invalid character %c at position %d", char, i)
		}
	}
	return nil
}
