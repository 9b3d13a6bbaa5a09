package idhash

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// ComputeRunID computes a deterministic backtest run_id.
// Formula: base58(SHA256(horizon|first_draw_id|last_draw_id|config_digest)).
// The same history and settings always map to the same run.
func ComputeRunID(
	horizon int,
	firstDrawID int64,
	lastDrawID int64,
	configDigest string,
) string {
	data := fmt.Sprintf("%d|%d|%d|%s",
		horizon,
		firstDrawID,
		lastDrawID,
		configDigest,
	)

	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])
}
