package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Scenario defines an inference scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Nodes lists node files to ingest, in order.
	Nodes []string `yaml:"nodes"`

	// Rules is the rule file (.yaml, .yml, .cue or .json).
	Rules string `yaml:"rules"`

	// MaxSteps bounds the run. Zero means the engine default.
	MaxSteps int `yaml:"max_steps,omitempty"`

	// Expect checks the run report and error. Nil expects a clean run.
	Expect *ExpectClause `yaml:"expect,omitempty"`

	// Assertions check the final graph.
	Assertions []Assertion `yaml:"assertions"`
}

// ExpectClause specifies the expected outcome of the run. Nil counts are
// not checked.
type ExpectClause struct {
	// Error is the expected error code (e.g. "QUOTA_EXCEEDED"). Empty
	// expects success.
	Error string `yaml:"error,omitempty"`

	Rounds *int `yaml:"rounds,omitempty"`
	Fired  *int `yaml:"fired,omitempty"`
	Added  *int `yaml:"added,omitempty"`
}

// Assertion checks the final graph.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Pattern selects nodes (contains, count, absent, incoming).
	Pattern map[string]any `yaml:"pattern,omitempty"`

	// Of is the identity of the node to start from (aliases, incoming).
	Of string `yaml:"of,omitempty"`

	// Count is the expected number of nodes (count, aliases, incoming).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertContains = "contains"
	AssertCount    = "count"
	AssertAbsent   = "absent"
	AssertAliases  = "aliases"
	AssertIncoming = "incoming"
)

// LoadScenario reads and parses a scenario YAML file, resolving node and
// rule paths against the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML, resolving relative paths against
// basePath when it is not empty.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse YAML: empty scenario")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if basePath != "" {
		for i, p := range scenario.Nodes {
			scenario.Nodes[i] = resolve(basePath, p)
		}
		if scenario.Rules != "" {
			scenario.Rules = resolve(basePath, scenario.Rules)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Rules == "" {
		return fmt.Errorf("rules is required")
	}
	if s.MaxSteps < 0 {
		return fmt.Errorf("max_steps must be non-negative")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for _, p := range append([]string{s.Rules}, s.Nodes...) {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", p)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Count < 0 {
		return fmt.Errorf("assertions[%d]: count must be non-negative", index)
	}

	switch a.Type {
	case AssertContains, AssertCount, AssertAbsent:
		if len(a.Pattern) == 0 {
			return fmt.Errorf("assertions[%d]: pattern is required for %s", index, a.Type)
		}
	case AssertAliases, AssertIncoming:
		if _, err := uuid.Parse(a.Of); err != nil {
			return fmt.Errorf("assertions[%d]: of must be a node identity for %s: %w", index, a.Type, err)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
