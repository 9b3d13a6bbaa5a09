package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ComputeSuggestionID computes a deterministic suggestion_id using SHA256.
// Formula: SHA256(user_id|draw_id|strategy|n1,n2,...,n15) with numbers sorted.
// Returns hex-encoded hash (64 characters).
func ComputeSuggestionID(
	userID int64,
	drawID int64,
	strategy string,
	numbers []int,
) string {
	data := fmt.Sprintf("%d|%d|%s|%s",
		userID,
		drawID,
		strategy,
		joinSorted(numbers),
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

func joinSorted(numbers []int) string {
	sorted := append([]int(nil), numbers...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, n := range sorted {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
