package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines one end-to-end query test.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog is the directory holding the CUE catalog.
	// Relative paths are resolved against the scenario file.
	Catalog string `yaml:"catalog"`

	// Fixtures is an optional YAML fixtures file, resolved like Catalog.
	Fixtures string `yaml:"fixtures,omitempty"`

	// Seed holds inline fixtures, inserted after Fixtures.
	Seed map[string][]map[string]interface{} `yaml:"seed,omitempty"`

	// Query is the GraphQL request.
	Query string `yaml:"query"`

	// Variables are the request's variable values.
	Variables map[string]interface{} `yaml:"variables,omitempty"`

	// Assertions validate the response and the compiled plans.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one aspect of a scenario run.
type Assertion struct {
	// Type specifies the assertion type:
	// - "no_errors": The response carries no errors
	// - "error_contains": Some error message contains Message
	// - "equals": The value at Path equals Value
	// - "length": The list at Path has Count elements
	// - "joins": The first compiled plan has Count joins
	// - "skipped": The first compiled plan skipped exactly Paths
	Type string `yaml:"type"`

	// Path is a dot-separated path into the response data. List elements
	// are addressed by index (e.g., "getPost.pages.0.content").
	Path string `yaml:"path,omitempty"`

	// Value is the expected value (used by equals).
	Value interface{} `yaml:"value,omitempty"`

	// Count is the expected length or join count.
	Count int `yaml:"count,omitempty"`

	// Message is the expected error substring (used by error_contains).
	Message string `yaml:"message,omitempty"`

	// Paths are the expected skipped selection paths (used by skipped).
	Paths []string `yaml:"paths,omitempty"`
}

// Assertion type constants.
const (
	AssertNoErrors      = "no_errors"
	AssertErrorContains = "error_contains"
	AssertEquals        = "equals"
	AssertLength        = "length"
	AssertJoins         = "joins"
	AssertSkipped       = "skipped"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
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

	base := filepath.Dir(path)
	scenario.Catalog = resolve(base, scenario.Catalog)
	scenario.Fixtures = resolve(base, scenario.Fixtures)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml scenario in dir, in file name order.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenarios found in %s", dir)
	}

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Catalog == "" {
		return fmt.Errorf("catalog is required")
	}
	if _, err := os.Stat(s.Catalog); os.IsNotExist(err) {
		return fmt.Errorf("catalog not found: %s", s.Catalog)
	}

	if s.Fixtures != "" {
		if _, err := os.Stat(s.Fixtures); os.IsNotExist(err) {
			return fmt.Errorf("fixtures not found: %s", s.Fixtures)
		}
	}

	if s.Query == "" {
		return fmt.Errorf("query is required")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
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
	case AssertNoErrors:
	case AssertErrorContains:
		if a.Message == "" {
			return fmt.Errorf("assertions[%d]: message is required for error_contains", index)
		}
	case AssertEquals:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for equals", index)
		}
	case AssertLength:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for length", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for length", index)
		}
	case AssertJoins:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for joins", index)
		}
	case AssertSkipped:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
