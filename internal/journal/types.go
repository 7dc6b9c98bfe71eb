package journal

// Event kinds recorded per suite.
const (
	EventSetupRan        = "setup_ran"
	EventSetupFailed     = "setup_failed"
	EventTeardownOK      = "teardown_ok"
	EventTeardownWarning = "teardown_warning"
	EventTeardownFailed  = "teardown_failed"
	EventSuiteDone       = "suite_done"
)

// Run is one row in the runs table.
//
// Timestamps are RFC 3339 UTC strings. FinishedAt is empty and Pass is nil
// while the run is in flight.
type Run struct {
	Token         string `json:"token"`
	Name          string `json:"name"`
	EngineVersion string `json:"engine_version"`
	StartedAt     string `json:"started_at"`
	FinishedAt    string `json:"finished_at,omitempty"`
	Pass          *bool  `json:"pass,omitempty"`
}

// Event is one fixture lifecycle event. ID is assigned on write
// (ident.EventID over the identity fields).
type Event struct {
	ID       string `json:"id"`
	RunToken string `json:"run_token"`
	Suite    string `json:"suite"`
	Kind     string `json:"kind"`
	Detail   string `json:"detail,omitempty"`
	Seq      int64  `json:"seq"`
}

// Result is one per-test outcome row. ID is assigned on write
// (ident.ResultID over the identity fields).
type Result struct {
	ID        string `json:"id"`
	RunToken  string `json:"run_token"`
	Suite     string `json:"suite"`
	Test      string `json:"test"`
	Outcome   string `json:"outcome"`
	Message   string `json:"message,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms"`
	Seq       int64  `json:"seq"`
}
