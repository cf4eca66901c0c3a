package flowspec

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Fingerprint returns a stable hash of a Flow. f must already be
// normalized: Fingerprint performs no sorting or defaulting itself, so two
// specs that are semantically identical but differently ordered will
// fingerprint differently unless Normalize is applied first.
func Fingerprint(f *Flow) (string, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
