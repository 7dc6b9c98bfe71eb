// Package fixture coordinates suite-scope setup and teardown lifecycles.
//
// One Coordinator guards one suite. Any number of workers may call
// EnsureSetupRan concurrently; the first to arrive runs the setup routine and
// every caller, first or late, observes the same verdict. A failed setup is
// cached and returned as the identical Failure value on every later call.
// User setup code runs at most once per coordinator, ever.
//
// LIFECYCLE:
//
//	NotRun -> Running -> Succeeded
//	                  -> Failed
//
// Succeeded and Failed are terminal. Once the ran flag is set the coordinator
// never invokes the setup routine again; callers only observe the cached
// verdict.
//
// Thread-safety model:
//   - BindSetup/BindTeardown: call during suite construction, before any
//     worker starts. Binding is not synchronized with execution.
//   - EnsureSetupRan: safe from any goroutine.
//   - RunTeardown/RunTeardownStrict: safe from any goroutine, serialized with
//     the setup slow path on the same mutex.
//
// The fast path after setup completion is a single atomic flag read with no
// locking. The verdict is written before the flag store, so a true read
// guarantees the cached failure, if any, is visible.
//
// Teardown carries no ran flag: every RunTeardown call invokes the routine
// again. Callers own the once-per-suite discipline.
//
// The coordinator has no cancellation or timeout semantics. A hanging setup
// routine blocks every waiter; the environment value handed to setup is
// opaque here and deadline handling lives with the routine itself.
package fixture
