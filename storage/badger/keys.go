package badger

import (
	"fmt"

	"github.com/poiesic/oneiro/core"
)

// Key prefixes for different data types
const (
	passagePrefix  = "psg"
	manifestPrefix = "mfst"
)

// makePassageKey generates a key for a passage by ID.
// Format: prefix:id
func makePassageKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", passagePrefix, id))
}

// passageScanPrefix matches every passage key and nothing else.
func passageScanPrefix() []byte {
	return []byte(passagePrefix + ":")
}

// makeManifestKey generates a key for a collection manifest.
// Format: prefix:collection
func makeManifestKey(collection string) []byte {
	return []byte(fmt.Sprintf("%s:%s", manifestPrefix, collection))
}
