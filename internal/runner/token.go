package runner

import "github.com/google/uuid"

// TokenGenerator generates unique run tokens for journal correlation.
// Implemented by UUIDv7Generator (production) and
// testutil.FixedTokenGenerator (tests).
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run tokens.
//
// UUIDv7 embeds a timestamp in the most significant bits, making tokens
// sortable by creation time. `rig runs` lists runs in token order, which
// with UUIDv7 is creation order.
//
// Uses github.com/google/uuid package for RFC 4122 compliant UUIDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Format: "550e8400-e29b-41d4-a716-446655440000" (36 characters)
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
