package ident

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainEvent  = "rig/event/v1"
	DomainResult = "rig/result/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte prevents domain/data
// boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EventID computes the content-addressed id for a lifecycle event row.
// The id is stable given the same inputs, which makes journal writes
// idempotent: replaying a run writes the same rows.
func EventID(runToken, suite, kind, detail string, seq int64) (string, error) {
	obj := map[string]any{
		"run_token": runToken,
		"suite":     suite,
		"kind":      kind,
		"detail":    detail,
		"seq":       seq,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("EventID: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainEvent, canonical), nil
}

// ResultID computes the content-addressed id for a test result row.
func ResultID(runToken, suite, test, outcome, message string, elapsedMS, seq int64) (string, error) {
	obj := map[string]any{
		"run_token":  runToken,
		"suite":      suite,
		"test":       test,
		"outcome":    outcome,
		"message":    message,
		"elapsed_ms": elapsedMS,
		"seq":        seq,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("ResultID: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainResult, canonical), nil
}

// MustEventID is like EventID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustEventID(runToken, suite, kind, detail string, seq int64) string {
	id, err := EventID(runToken, suite, kind, detail, seq)
	if err != nil {
		panic(err)
	}
	return id
}

// MustResultID is like ResultID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustResultID(runToken, suite, test, outcome, message string, elapsedMS, seq int64) string {
	id, err := ResultID(runToken, suite, test, outcome, message, elapsedMS, seq)
	if err != nil {
		panic(err)
	}
	return id
}
