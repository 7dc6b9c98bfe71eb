package suite

import (
	"errors"
	"testing"

	"github.com/rigworks/rig/internal/fixture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FreshCoordinator(t *testing.T) {
	s := New("payments")

	assert.Equal(t, "payments", s.Name())
	require.NotNil(t, s.Coordinator())
	assert.Equal(t, "payments", s.Coordinator().Scope())
	assert.False(t, s.Coordinator().TeardownBound())
	assert.Empty(t, s.Tests())
}

func TestSuite_SetSetupTwiceRejected(t *testing.T) {
	s := New("payments")

	first := fixture.NewNiladic("payments.boot", func() error { return nil })
	second := fixture.NewNiladic("payments.boot2", func() error { return nil })

	require.NoError(t, s.SetSetup(first))

	err := s.SetSetup(second)
	require.Error(t, err)
	assert.True(t, fixture.IsConfigError(err))
}

func TestSuite_SetTeardownTwiceRejected(t *testing.T) {
	s := New("payments")

	first := fixture.NewNiladic("payments.halt", func() error { return nil })
	second := fixture.NewNiladic("payments.halt2", func() error { return nil })

	require.NoError(t, s.SetTeardown(first))
	require.True(t, s.Coordinator().TeardownBound())

	err := s.SetTeardown(second)
	require.Error(t, err)
	assert.True(t, fixture.IsConfigError(err))
}

func TestSuite_AddTestPreservesOrder(t *testing.T) {
	s := New("payments")

	s.AddTest("payments.charge", func(*Environment) error { return nil })
	s.AddTest("payments.refund", func(*Environment) error { return nil })
	s.AddTest("payments.void", func(*Environment) error { return nil })

	tests := s.Tests()
	require.Len(t, tests, 3)
	assert.Equal(t, "payments.charge", tests[0].Name)
	assert.Equal(t, "payments.refund", tests[1].Name)
	assert.Equal(t, "payments.void", tests[2].Name)
}

func TestAsCallable_ForwardsEnvironment(t *testing.T) {
	var got *Environment
	call := asCallable("payments.boot", func(e *Environment) error {
		got = e
		return nil
	})

	assert.Equal(t, "payments.boot", call.Name())

	env := NewEnvironment("run-1", "payments", nil)
	require.NoError(t, call.Invoke(env))
	assert.Same(t, env, got)
}

func TestAsCallable_PassesErrorThrough(t *testing.T) {
	boom := errors.New("db down")
	call := asCallable("payments.boot", func(*Environment) error { return boom })

	err := call.Invoke(NewEnvironment("run-1", "payments", nil))
	assert.Same(t, boom, err)
}

func TestAsCallable_RejectsWrongEnvironmentType(t *testing.T) {
	call := asCallable("payments.boot", func(*Environment) error { return nil })

	err := call.Invoke("not an environment")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected environment type")
	assert.Contains(t, err.Error(), "payments.boot")
}
