package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/qwire/internal/cost"
)

// Scenario defines a conformance test scenario.
// A scenario compiles a directory of definitions, costs one op and asserts
// on the resulting totals, call graph, qubit count and verification outcome.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs is the directory of CUE definitions to compile.
	// Relative paths are resolved against the base path given to
	// LoadScenarioWithBasePath.
	Specs string `yaml:"specs"`

	// Op names the definition to cost.
	Op string `yaml:"op"`

	// Metric is gate_counts or t_count. Defaults to gate_counts.
	Metric string `yaml:"metric,omitempty"`

	// Generalizers are applied to every callee before costing, e.g.
	// ignore_bookkeeping.
	Generalizers []string `yaml:"generalizers,omitempty"`

	// MaxDepth bounds expansion; 0 means unbounded.
	MaxDepth int `yaml:"max_depth,omitempty"`

	// Assertions validate the result.
	// Supported types: total, contains, node, qubits, violations
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one aspect of a scenario result.
type Assertion struct {
	// Type specifies the assertion type:
	// - "total": the op's cost equals Expect exactly
	// - "contains": leaf Op is reached Value times from the root
	// - "node": the call graph has a node named Op
	// - "qubits": the peak qubit count equals Value
	// - "violations": verification reports exactly Count violations
	Type string `yaml:"type"`

	// Op is an op name (used by contains, node).
	Op string `yaml:"op,omitempty"`

	// Value is a count, possibly symbolic (used by contains, qubits).
	Value string `yaml:"value,omitempty"`

	// Expect maps count names to counts (used by total).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number of violations (used by violations).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTotal      = "total"
	AssertContains   = "contains"
	AssertNode       = "node"
	AssertQubits     = "qubits"
	AssertViolations = "violations"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, "")
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the specs directory relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Specs != "" && !filepath.IsAbs(scenario.Specs) && basePath != "" {
		scenario.Specs = filepath.Join(basePath, scenario.Specs)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Specs == "" {
		return fmt.Errorf("specs directory is required")
	}
	if s.Op == "" {
		return fmt.Errorf("op is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	info, err := os.Stat(s.Specs)
	if os.IsNotExist(err) {
		return fmt.Errorf("specs directory not found: %s", s.Specs)
	}
	if err != nil {
		return fmt.Errorf("specs directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("specs is not a directory: %s", s.Specs)
	}

	if s.Metric != "" {
		if _, err := cost.MetricByName(s.Metric); err != nil {
			return err
		}
	}
	for i, name := range s.Generalizers {
		if _, ok := cost.GeneralizerByName(name); !ok {
			return fmt.Errorf("generalizers[%d]: unknown generalizer %q", i, name)
		}
	}
	if s.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be non-negative")
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTotal:
		if a.Expect == nil {
			return fmt.Errorf("assertions[%d]: expect is required for total (use {} for zero cost)", index)
		}
	case AssertContains:
		if a.Op == "" || a.Value == "" {
			return fmt.Errorf("assertions[%d]: op and value are required for contains", index)
		}
	case AssertNode:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for node", index)
		}
	case AssertQubits:
		if a.Value == "" {
			return fmt.Errorf("assertions[%d]: value is required for qubits", index)
		}
	case AssertViolations:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for violations", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
