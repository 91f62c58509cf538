package types

import (
	"encoding/hex"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// HashLength is the fixed byte width of a content digest.
const HashLength = 32

// Hash is a 32-byte content digest.
type Hash [HashLength]byte

// ZeroHash is the empty digest.
var ZeroHash = Hash{}

// Bytes returns the raw digest bytes.
func (h Hash) Bytes() []byte {
	return h[:]
}

// Hex renders the hash as a lower-case "0x"-prefixed hex string.
func (h Hash) Hex() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h Hash) String() string {
	return h.Hex()
}

// IsZero reports whether the hash is the empty digest.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// BytesToHash truncates or right-aligns b into a fixed-width Hash.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[:HashLength]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

// ComputeHash deterministically hashes an arbitrary byte sequence with
// keccak256. Transaction hashes, the asset service's asset-id derivation,
// and the RISC-V service's contract-address derivation use it; the RISC-V
// service addresses deployed code by a separate blake3 digest.
func ComputeHash(data ...[]byte) Hash {
	return BytesToHash(ethcrypto.Keccak256(data...))
}

// MarshalJSON renders the hash as its hex string form.
func (h Hash) MarshalJSON() ([]byte, error) {
	return []byte(`"` + h.Hex() + `"`), nil
}

// UnmarshalJSON parses the hash from its hex string form.
func (h *Hash) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	s = strings.TrimPrefix(s, "0x")
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	*h = BytesToHash(decoded)
	return nil
}
