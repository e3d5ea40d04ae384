package domain

import "encoding/hex"

// Identifiers for transactions, orders, swap groups and commitments are
// 32-byte values carried as lowercase hex strings. The empty string and the
// all-zero string are both treated as the zero identifier.

const idLen = 64

func IsZeroID(id string) bool {
	if len(id) == 0 {
		return true
	}
	for _, c := range id {
		if c != '0' {
			return false
		}
	}
	return true
}

func ValidID(id string) bool {
	if len(id) != idLen || IsZeroID(id) {
		return false
	}
	if _, err := hex.DecodeString(id); err != nil {
		return false
	}
	return true
}
