// Package address derives and validates the 20-byte hex account references
// used for users, the collection custody account and share ledgers.
package address

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"
)

// Length is the size of an address in bytes.
const Length = 20

var hexAddressRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

func keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// Derive returns the address for the given seed parts: the last 20 bytes of
// the Keccak-256 digest of the parts joined with ":".
func Derive(parts ...string) string {
	digest := keccak256([]byte(strings.Join(parts, ":")))
	return Checksum("0x" + hex.EncodeToString(digest[len(digest)-Length:]))
}

// DeriveChild returns the address of the n-th child created by parent,
// e.g. the share ledger spawned for asset n by the collection.
func DeriveChild(parent string, n uint64) string {
	return Derive(Normalize(parent), strconv.FormatUint(n, 10))
}

// New returns a fresh random address.
func New() string {
	return Derive("account", uuid.NewString())
}

// IsValid reports whether s is a 0x-prefixed 40 hex digit address.
func IsValid(s string) bool {
	return hexAddressRegex.MatchString(s)
}

// Normalize lower-cases a valid address so it can be used as a lookup key.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Parse validates s and returns its canonical (checksummed) form.
func Parse(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !IsValid(s) {
		return "", fmt.Errorf("invalid address %q", s)
	}
	return Checksum(s), nil
}

// Checksum applies EIP-55 mixed-case encoding to a hex address.
func Checksum(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, "0x"))
	digest := hex.EncodeToString(keccak256([]byte(lower)))

	var b strings.Builder
	b.Grow(2 + len(lower))
	b.WriteString("0x")
	for i, c := range lower {
		if c >= 'a' && c <= 'f' && digest[i] >= '8' {
			b.WriteRune(c - 'a' + 'A')
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// Equal compares two addresses case-insensitively.
func Equal(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
