package normalize

import (
	"encoding/hex"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Synthetic ID prefixes, one per source without native identifiers.
const (
	PrefixHTML    = "html_"
	PrefixGeneric = "generic_"
	PrefixRSS     = "rss_"
)

// SyntheticID derives a stable identifier from an incident's title and date.
// A zero date hashes as empty so that records with unparsable dates still
// get the same ID on every fetch.
func SyntheticID(prefix, title string, date time.Time) string {
	key := title + "\x00"
	if !date.IsZero() {
		key += date.UTC().Format(time.RFC3339)
	}
	sum := blake2b.Sum256([]byte(key))
	return prefix + hex.EncodeToString(sum[:4])
}
