package syncer

import (
	"alcyxob/sports-academy/internal/domain"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// fingerprint hashes the caller-owned content of a record. Identity and
// cloud timestamps are left out, so a promoted id or a fresh updatedAt does
// not count as a change.
func fingerprint(rec domain.Record) (string, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return "", err
	}
	delete(fields, "id")
	delete(fields, "createdAt")
	delete(fields, "updatedAt")
	// encoding/json writes map keys sorted, so the output is canonical.
	canonical, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
