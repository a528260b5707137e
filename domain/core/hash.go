package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Domain-specific hash types
type (
	DatasetHash Hash
	SpecHash    Hash
	RunHash     Hash
)

// NewDatasetHash fingerprints a dataset by its column names and row count.
// Column order is canonicalized so the same table always hashes the same.
func NewDatasetHash(columns []string, rows int) DatasetHash {
	sorted := make([]string, len(columns))
	copy(sorted, columns)
	sort.Strings(sorted)
	payload := fmt.Sprintf("cols=%s;rows=%d", strings.Join(sorted, ","), rows)
	return DatasetHash(NewHash([]byte(payload)))
}

// NewSpecHash fingerprints a model specification (response, family, predictors).
func NewSpecHash(response, family string, predictors []string) SpecHash {
	sorted := make([]string, len(predictors))
	copy(sorted, predictors)
	sort.Strings(sorted)
	payload := fmt.Sprintf("resp=%s;family=%s;pred=%s", response, family, strings.Join(sorted, ","))
	return SpecHash(NewHash([]byte(payload)))
}

// NewRunHash fingerprints a full evaluation run for reproducibility audits.
func NewRunHash(dataset DatasetHash, specs []SpecHash, seed int64, draws int) RunHash {
	parts := make([]string, len(specs))
	for i, s := range specs {
		parts[i] = string(s)
	}
	sort.Strings(parts)
	payload := fmt.Sprintf("data=%s;specs=%s;seed=%d;draws=%d", dataset, strings.Join(parts, ","), seed, draws)
	return RunHash(NewHash([]byte(payload)))
}
