package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rigworks/rig/internal/check"
	"github.com/rigworks/rig/internal/fixture"
	"github.com/rigworks/rig/internal/journal"
	"github.com/rigworks/rig/internal/manifest"
	"github.com/rigworks/rig/internal/suite"
)

// DefaultParallelism is the default per-suite worker count.
const DefaultParallelism = 4

// Session executes run plans against a hook registry.
//
// A session is reusable: every Run call draws a fresh run token and builds
// fresh suites with fresh coordinators, so fixture state never leaks
// between runs.
//
// Thread-safety model:
//   - Run(): one call at a time
//   - the per-suite workers it spawns are internal to that call
type Session struct {
	registry *suite.Registry
	journal  *journal.Journal
	clock    *Clock
	tokens   TokenGenerator
	logger   *slog.Logger

	parallelism int // Worker count when the plan leaves it unset
	maxFailures int // Failure budget when the plan leaves it unset
}

// SessionOption allows configuration of session parameters.
type SessionOption func(*Session)

// WithParallelism sets the default per-suite worker count, used when the
// plan does not declare its own.
//
// Default: 4 workers (DefaultParallelism)
// Use WithParallelism(1) for fully deterministic scheduling.
func WithParallelism(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// WithMaxFailures sets the default failure budget, used when the plan does
// not declare its own. 0 means unlimited.
func WithMaxFailures(n int) SessionOption {
	return func(s *Session) {
		s.maxFailures = n
	}
}

// WithLogger sets the session logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTokens sets the run token generator. Defaults to UUIDv7Generator.
func WithTokens(g TokenGenerator) SessionOption {
	return func(s *Session) {
		if g != nil {
			s.tokens = g
		}
	}
}

// WithJournal attaches a journal so every run leaves a durable trace.
// Without one the session runs in memory only.
func WithJournal(j *journal.Journal) SessionOption {
	return func(s *Session) {
		s.journal = j
	}
}

// WithClock sets a pre-configured clock. Used to resume sequence numbering
// when a session continues writing to an existing journal.
func WithClock(c *Clock) SessionOption {
	return func(s *Session) {
		if c != nil {
			s.clock = c
		}
	}
}

// NewSession creates a Session that resolves hooks from the given registry.
//
// Options can be passed to configure the session (e.g., WithJournal).
func NewSession(registry *suite.Registry, opts ...SessionOption) *Session {
	s := &Session{
		registry:    registry,
		clock:       NewClock(),
		tokens:      UUIDv7Generator{},
		logger:      slog.Default(),
		parallelism: DefaultParallelism,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// boundSuite pairs a built suite with its teardown mode.
type boundSuite struct {
	suite *suite.Suite
	mode  TeardownMode
}

// Run executes the plan and returns the run report.
//
// Every suite is resolved against the registry before anything executes, so
// a plan naming an unknown hook fails fast without a partial run. Suites
// then run sequentially in plan order; tests within a suite run on
// min(parallelism, len(tests)) workers.
//
// The returned error covers configuration problems only. Test failures,
// fixture failures, and budget exhaustion are reported through the Report.
// Journal write failures are logged and the run continues - the report is
// authoritative, the journal is a trace.
func (s *Session) Run(ctx context.Context, plan *manifest.Plan) (*Report, error) {
	if plan == nil {
		return nil, errors.New("nil plan")
	}

	bound := make([]boundSuite, 0, len(plan.Suites))
	for _, sp := range plan.Suites {
		if err := ValidateTeardownMode(sp.TeardownMode); err != nil {
			return nil, fmt.Errorf("suite %s: %w", sp.Name, err)
		}
		st, err := s.registry.BuildSuite(sp.Name, sp.Setup, sp.Teardown, sp.Tests)
		if err != nil {
			return nil, fmt.Errorf("suite %s: %w", sp.Name, err)
		}
		bound = append(bound, boundSuite{suite: st, mode: NormalizeTeardownMode(sp.TeardownMode)})
	}

	runToken := s.tokens.Generate()
	logger := s.logger.With("run", runToken)

	workers := s.parallelism
	if plan.Parallelism > 0 {
		workers = plan.Parallelism
	}
	maxFailures := s.maxFailures
	if plan.MaxFailures > 0 {
		maxFailures = plan.MaxFailures
	}
	budget := NewFailureBudget(maxFailures)

	logger.Info("run starting",
		"plan", plan.Run,
		"suites", len(bound),
		"parallelism", workers,
	)

	s.journalBegin(runToken, plan.Run)

	report := NewReport(runToken)
	for _, b := range bound {
		sr := s.runSuite(ctx, runToken, b, workers, budget, logger)
		report.AddSuite(sr)
	}

	s.journalFinish(runToken, report.Pass)

	logger.Info("run finished",
		"pass", report.Pass,
		"passed", report.Counts.Passed,
		"failed", report.Counts.Failed,
		"skipped", report.Counts.Skipped,
		"inconclusive", report.Counts.Inconclusive,
	)

	return report, nil
}

// runSuite executes one suite: setup on demand, test bodies on a worker
// pool, teardown once at the end.
//
// Results land in a slice indexed by plan position, so report order is
// deterministic no matter how the workers interleave.
func (s *Session) runSuite(ctx context.Context, runToken string, b boundSuite, workers int, budget *FailureBudget, logger *slog.Logger) SuiteReport {
	st := b.suite
	coord := st.Coordinator()
	tests := st.Tests()
	sr := SuiteReport{Name: st.Name()}

	suiteLogger := logger.With("suite", st.Name())
	suiteLogger.Debug("suite starting", "tests", len(tests), "mode", string(b.mode))

	// One shared environment per suite: setup writes into it, every test
	// reads from it. The environment's own mutex makes that safe.
	env := suite.NewEnvironment(runToken, st.Name(), suiteLogger)

	results := make([]TestResult, len(tests))

	// The setup event is journaled exactly once, by whichever worker first
	// observes the verdict. Once.Do blocks the others until it is written,
	// so the event's seq precedes every result recorded after setup.
	var setupEvent sync.Once

	n := min(workers, len(tests))
	if n < 1 {
		n = 1
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < n; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = s.runTest(ctx, runToken, st, env, tests[idx], budget, &setupEvent, suiteLogger)
			}
		}()
	}

	for i := range tests {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	sr.Results = results
	if f := coord.SetupFailure(); f != nil {
		sr.SetupFailure = f.Error()
	}

	s.runTeardown(&sr, coord, b.mode, runToken, suiteLogger)

	c := tallyResults(results)
	s.writeEvent(journal.Event{
		RunToken: runToken,
		Suite:    st.Name(),
		Kind:     journal.EventSuiteDone,
		Detail: fmt.Sprintf("passed=%d failed=%d skipped=%d inconclusive=%d",
			c.Passed, c.Failed, c.Skipped, c.Inconclusive),
		Seq: s.clock.Next(),
	})

	return sr
}

// runTest executes one test through the full fixture protocol.
//
// The body never starts before EnsureSetupRan has returned for the suite;
// the coordinator blocks concurrent workers while the first one runs setup.
// A cached setup failure marks the test failed (inconclusive when the
// fixture classified it so) without running the body.
func (s *Session) runTest(ctx context.Context, runToken string, st *suite.Suite, env *suite.Environment, tc suite.Test, budget *FailureBudget, setupEvent *sync.Once, logger *slog.Logger) TestResult {
	res := TestResult{Suite: st.Name(), Name: tc.Name}

	if budget.Exceeded() {
		res.Outcome = OutcomeSkipped
		res.Message = "failure budget exhausted"
		s.recordResult(runToken, &res)
		return res
	}

	if ctx.Err() != nil {
		res.Outcome = OutcomeSkipped
		res.Message = "run cancelled"
		s.recordResult(runToken, &res)
		return res
	}

	coord := st.Coordinator()
	setupErr := coord.EnsureSetupRan(env)
	if coord.SetupRan() {
		setupEvent.Do(func() {
			s.journalSetup(runToken, st.Name(), coord)
		})
	}

	if setupErr != nil {
		res.Outcome = OutcomeFailed
		res.Message = setupErr.Error()
		var f *fixture.Failure
		if errors.As(setupErr, &f) && f.Inconclusive() {
			res.Outcome = OutcomeInconclusive
		}
		if res.Outcome == OutcomeFailed {
			s.recordFailure(budget, runToken, logger)
		}
		s.recordResult(runToken, &res)
		return res
	}

	start := time.Now()
	err := fixture.Invoke(tc.Callable(), env)
	res.ElapsedMS = time.Since(start).Milliseconds()

	switch {
	case err == nil:
		res.Outcome = OutcomePassed
	case check.IsInconclusive(err):
		res.Outcome = OutcomeInconclusive
		res.Message = err.Error()
	default:
		res.Outcome = OutcomeFailed
		res.Message = err.Error()
		s.recordFailure(budget, runToken, logger)
		logger.Error("test failed", "test", tc.Name, "error", err)
	}

	s.recordResult(runToken, &res)
	return res
}

// runTeardown runs the suite teardown in the configured mode and records
// the outcome. Lenient failures degrade to warnings; strict failures mark
// the suite failed.
func (s *Session) runTeardown(sr *SuiteReport, coord *fixture.Coordinator, mode TeardownMode, runToken string, logger *slog.Logger) {
	if !coord.TeardownBound() {
		return
	}

	ev := journal.Event{RunToken: runToken, Suite: sr.Name, Kind: journal.EventTeardownOK}

	if mode == TeardownStrict {
		if err := coord.RunTeardownStrict(); err != nil {
			sr.TeardownFailure = err.Error()
			sr.Failed = true
			ev.Kind = journal.EventTeardownFailed
			ev.Detail = err.Error()
			logger.Error("teardown failed", "error", err)
		}
	} else {
		if diag, ok := coord.RunTeardown(); !ok {
			sr.TeardownWarning = diag
			ev.Kind = journal.EventTeardownWarning
			ev.Detail = diag
			logger.Warn("teardown warning", "diagnostic", diag)
		}
	}

	ev.Seq = s.clock.Next()
	s.writeEvent(ev)
}

// recordFailure counts one failure against the budget, logging when the
// budget tips over.
func (s *Session) recordFailure(budget *FailureBudget, runToken string, logger *slog.Logger) {
	if err := budget.Record(runToken); err != nil {
		logger.Warn("failure budget exceeded", "error", err)
	}
}

// recordResult stamps the result with the next logical-clock value and
// journals it.
func (s *Session) recordResult(runToken string, res *TestResult) {
	res.Seq = s.clock.Next()
	s.writeResult(journal.Result{
		RunToken:  runToken,
		Suite:     res.Suite,
		Test:      res.Name,
		Outcome:   string(res.Outcome),
		Message:   res.Message,
		ElapsedMS: res.ElapsedMS,
		Seq:       res.Seq,
	})
}

// journalSetup records the suite's setup verdict as a single event.
func (s *Session) journalSetup(runToken, suiteName string, coord *fixture.Coordinator) {
	ev := journal.Event{
		RunToken: runToken,
		Suite:    suiteName,
		Kind:     journal.EventSetupRan,
		Seq:      s.clock.Next(),
	}
	if f := coord.SetupFailure(); f != nil {
		ev.Kind = journal.EventSetupFailed
		ev.Detail = f.Error()
	}
	s.writeEvent(ev)
}

// Journal helpers. Writes use a background context so a cancelled run
// still journals its skipped tests.

func (s *Session) journalBegin(runToken, planName string) {
	if s.journal == nil {
		return
	}
	run := journal.Run{
		Token:         runToken,
		Name:          planName,
		EngineVersion: EngineVersion,
		StartedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.journal.BeginRun(context.Background(), run); err != nil {
		s.logger.Error("journal begin failed", "run", runToken, "error", err)
	}
}

func (s *Session) journalFinish(runToken string, pass bool) {
	if s.journal == nil {
		return
	}
	finishedAt := time.Now().UTC().Format(time.RFC3339)
	if err := s.journal.FinishRun(context.Background(), runToken, pass, finishedAt); err != nil {
		s.logger.Error("journal finish failed", "run", runToken, "error", err)
	}
}

func (s *Session) writeEvent(ev journal.Event) {
	if s.journal == nil {
		return
	}
	if _, err := s.journal.WriteEvent(context.Background(), ev); err != nil {
		s.logger.Error("journal event write failed", "suite", ev.Suite, "kind", ev.Kind, "error", err)
	}
}

func (s *Session) writeResult(res journal.Result) {
	if s.journal == nil {
		return
	}
	if _, err := s.journal.WriteResult(context.Background(), res); err != nil {
		s.logger.Error("journal result write failed", "suite", res.Suite, "test", res.Test, "error", err)
	}
}
