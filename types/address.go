package types

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// AddressLength is the fixed byte width of a principal identifier.
const AddressLength = 20

// Address identifies a principal: a user, a contract, or a service acting as
// a privileged caller. The zero address is never a valid principal.
type Address [AddressLength]byte

// ZeroAddress is the invalid, all-zero principal.
var ZeroAddress = Address{}

// IsZero reports whether the address is the default, invalid principal.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// Bytes returns the raw address bytes.
func (a Address) Bytes() []byte {
	return a[:]
}

// Hex renders the address as a lower-case "0x"-prefixed hex string.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

// String implements fmt.Stringer.
func (a Address) String() string {
	return a.Hex()
}

// BytesToAddress left-pads (right-aligns) or truncates b into a fixed-width
// Address,
// matching the truncation convention used to derive contract addresses from
// a transaction hash (first AddressLength bytes).
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[:AddressLength]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

// ParseAddress decodes a hex string (with or without "0x" prefix) into an
// Address. It fails if the decoded length does not match AddressLength.
func ParseAddress(s string) (Address, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	trimmed = strings.TrimPrefix(trimmed, "0X")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return Address{}, fmt.Errorf("types: decode address: %w", err)
	}
	if len(decoded) != AddressLength {
		return Address{}, fmt.Errorf("types: address must be %d bytes, got %d", AddressLength, len(decoded))
	}
	var a Address
	copy(a[:], decoded)
	return a, nil
}

// MarshalJSON renders the address as its hex string form.
func (a Address) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.Hex() + `"`), nil
}

// UnmarshalJSON parses the address from its hex string form.
func (a *Address) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
