package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTeardownMode_Valid(t *testing.T) {
	for _, mode := range []string{"", "lenient", "strict"} {
		assert.NoError(t, ValidateTeardownMode(mode), "mode %q", mode)
	}
}

func TestValidateTeardownMode_Invalid(t *testing.T) {
	err := ValidateTeardownMode("forgiving")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid teardown mode "forgiving"`)
	assert.Contains(t, err.Error(), "must be lenient or strict")
}

func TestNormalizeTeardownMode_EmptyDefaultsLenient(t *testing.T) {
	assert.Equal(t, TeardownLenient, NormalizeTeardownMode(""))
}

func TestNormalizeTeardownMode_Passthrough(t *testing.T) {
	assert.Equal(t, TeardownLenient, NormalizeTeardownMode("lenient"))
	assert.Equal(t, TeardownStrict, NormalizeTeardownMode("strict"))
}
