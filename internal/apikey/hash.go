// Package apikey holds the API key format shared by the metastore, which
// mints and stores keys, and the auth middleware, which looks them up.
package apikey

import (
	"crypto/sha256"
	"encoding/hex"
)

// Prefix starts every raw key.
const Prefix = "sqs_"

// Hash returns the hex SHA-256 digest under which a raw key is stored.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
