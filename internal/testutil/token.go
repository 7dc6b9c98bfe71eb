package testutil

// FixedTokenGenerator generates the same run token every time.
//
// This enables deterministic session execution and golden journal comparison.
// The same plan with the same FixedTokenGenerator produces byte-identical
// event ids across runs.
//
// Thread-safety: FixedTokenGenerator is stateless and safe for concurrent use.
type FixedTokenGenerator struct {
	token string
}

// NewFixedTokenGenerator creates a new fixed run token generator.
//
// If token is empty, Generate() returns "test-run-default".
func NewFixedTokenGenerator(token string) *FixedTokenGenerator {
	if token == "" {
		token = "test-run-default"
	}
	return &FixedTokenGenerator{token: token}
}

// Generate returns the fixed run token.
//
// Implements runner.TokenGenerator.
func (g *FixedTokenGenerator) Generate() string {
	return g.token
}
