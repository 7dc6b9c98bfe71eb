// Package manifest loads and validates run plans: the YAML surface that
// names suites, their fixture hooks, and their tests.
//
// Validation is layered. The YAML decoder rejects unknown fields (typos),
// the embedded CUE schema rejects type and enum violations, and a Go pass
// catches what the schema cannot express (duplicate names, hook/mode
// mismatches).
package manifest

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Plan is a parsed run plan.
type Plan struct {
	// Run is the display name for the run.
	Run string `yaml:"run"`

	// Parallelism is the worker count per suite. 0 means the runner default.
	Parallelism int `yaml:"parallelism,omitempty"`

	// MaxFailures is the run's failure budget. 0 means unlimited.
	MaxFailures int `yaml:"max_failures,omitempty"`

	// Suites lists the suites in execution order.
	Suites []SuitePlan `yaml:"suites"`
}

// SuitePlan names one suite's hooks and tests.
type SuitePlan struct {
	Name string `yaml:"name"`

	// Setup and Teardown are dotted hook names resolved against the
	// registry. Empty means the suite has no such hook.
	Setup    string `yaml:"setup,omitempty"`
	Teardown string `yaml:"teardown,omitempty"`

	// TeardownMode is "lenient" or "strict". Empty defaults to lenient.
	TeardownMode string `yaml:"teardown_mode,omitempty"`

	Tests []string `yaml:"tests"`
}

// Load reads and parses a plan YAML file.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	plan, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return plan, nil
}

// Parse decodes and validates plan YAML.
func Parse(data []byte) (*Plan, error) {
	// Strict decode catches typos like "test:" vs "tests:".
	var plan Plan
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&plan); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateSchema(data); err != nil {
		return nil, fmt.Errorf("plan does not match schema: %w", err)
	}

	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}

	return &plan, nil
}

// validateSchema unifies the decoded document with the embedded #Plan
// definition and checks the result is concrete and closed.
func validateSchema(data []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}

	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("internal schema error: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Plan"))
	if !def.Exists() {
		return fmt.Errorf("internal schema error: #Plan not found")
	}

	unified := def.Unify(ctx.Encode(doc))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%s", cueerrors.Details(err, nil))
	}
	return nil
}

// Validate checks plan semantics the schema cannot express.
func (p *Plan) Validate() error {
	if p.Run == "" {
		return fmt.Errorf("run is required")
	}

	if len(p.Suites) == 0 {
		return fmt.Errorf("suites list is required and must be non-empty")
	}

	suiteNames := make(map[string]bool)
	for i, s := range p.Suites {
		if s.Name == "" {
			return fmt.Errorf("suites[%d]: name is required", i)
		}
		if suiteNames[s.Name] {
			return fmt.Errorf("suites[%d]: duplicate suite name %q", i, s.Name)
		}
		suiteNames[s.Name] = true

		if len(s.Tests) == 0 {
			return fmt.Errorf("suite %q: tests list is required and must be non-empty", s.Name)
		}

		testNames := make(map[string]bool)
		for j, name := range s.Tests {
			if name == "" {
				return fmt.Errorf("suite %q: tests[%d] is empty", s.Name, j)
			}
			if testNames[name] {
				return fmt.Errorf("suite %q: duplicate test %q", s.Name, name)
			}
			testNames[name] = true
		}

		if s.TeardownMode != "" && s.Teardown == "" {
			return fmt.Errorf("suite %q: teardown_mode set but no teardown hook named", s.Name)
		}
	}

	return nil
}
