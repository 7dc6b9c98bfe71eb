package fixture

import (
	"fmt"
)

// Callable is a setup or teardown routine bound to a coordinator.
//
// The coordinator treats callables as opaque: it knows the display name and
// how to invoke one, never how it was discovered. Discovery (registries,
// embedding binaries, generated code) lives outside this package.
type Callable interface {
	// Name returns the routine's display name for diagnostics.
	Name() string

	// Invoke runs the routine. Setup callables receive the suite
	// environment; teardown callables are invoked with a nil environment.
	Invoke(env any) error
}

// Func adapts a plain function into a Callable.
type Func struct {
	name string
	fn   func(env any) error
}

// NewFunc wraps fn as a Callable with the given display name.
// The environment passed to Invoke is forwarded to fn verbatim.
func NewFunc(name string, fn func(env any) error) *Func {
	return &Func{name: name, fn: fn}
}

// NewNiladic wraps a zero-argument fn as a Callable. The environment passed
// to Invoke is ignored. Teardown routines take this shape.
func NewNiladic(name string, fn func() error) *Func {
	return &Func{
		name: name,
		fn: func(any) error {
			return fn()
		},
	}
}

// Name returns the display name given at construction.
func (f *Func) Name() string {
	return f.name
}

// Invoke runs the wrapped function.
func (f *Func) Invoke(env any) error {
	return f.fn(env)
}

// PanicError is what a recovered callable panic becomes. The stack is
// captured while the panic is still unwinding, so the frames point at the
// panic site rather than the recovery site.
type PanicError struct {
	// Routine names the panicking callable.
	Routine string

	// Value is the recovered panic value.
	Value any

	frames []Frame
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Routine, e.Value)
}

// Unwrap exposes the panic value when it was an error, so classification
// sees through to it.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Invoke runs a callable, converting a panic into an error so one misbehaving
// routine cannot take down a worker. The runner uses the same guard around
// test bodies.
func Invoke(call Callable, env any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{
				Routine: call.Name(),
				Value:   r,
				frames:  captureFrames(2),
			}
		}
	}()
	return call.Invoke(env)
}
