// Package gen provides utility functions for generating values.
package gen

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const sep = "|"

// shortLen is the length of a ShortKey; 12 hex chars keep callback payloads small.
const shortLen = 12

// Key generates a key based on the provided strings a and b.
func Key(a, b string) string {
	return fmt.Sprintf("%s%s%s", a, sep, b)
}

// UUIDv5 generates a UUIDv5 based on the provided strings a and b.
func UUIDv5(a, b string) string {
	key := Key(a, b)

	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

// ShortKey returns a stable, compact token for a and b.
func ShortKey(a, b string) string {
	return strings.ReplaceAll(UUIDv5(a, b), "-", "")[:shortLen]
}

// Token returns a random collision-resistant token usable in file names.
func Token() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
