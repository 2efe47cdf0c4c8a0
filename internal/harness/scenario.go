package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultStore names the store used by steps that do not name one.
const DefaultStore = "main"

// Scenario defines a conformance test scenario.
// Scenarios drive one or more stores through supersede, export, import and
// reload steps and check expectations along the way.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// SchemaVersion is stamped on every store's genesis record.
	// Defaults to state.DefaultSchemaVersion.
	SchemaVersion string `yaml:"schema_version,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions are evaluated once after all steps.
	Assertions []string `yaml:"assertions,omitempty"`
}

// Step is one operation against a named store.
// Exactly one of Supersede, Export, Import, ImportDocument or Reload is set.
type Step struct {
	// Store names the target store. Defaults to DefaultStore.
	Store string `yaml:"store,omitempty"`

	// Supersede applies deltas. A null value deletes the key.
	// An empty map is a valid no-op supersede.
	Supersede map[string]any `yaml:"supersede,omitempty"`

	// Export saves the store's exported document into the named slot.
	Export string `yaml:"export,omitempty"`

	// Import imports the document held in the named slot.
	Import string `yaml:"import,omitempty"`

	// ImportDocument imports the literal document.
	ImportDocument string `yaml:"import_document,omitempty"`

	// Reload rebuilds the store from its backend, as a process restart would.
	Reload bool `yaml:"reload,omitempty"`

	// ExpectImport is the expected outcome of an import step.
	ExpectImport *bool `yaml:"expect_import,omitempty"`

	// ExpectError is the expected error code of a supersede step
	// (see ErrorCode). Empty means the step must succeed.
	ExpectError string `yaml:"expect_error,omitempty"`

	// Expect holds boolean expressions evaluated after the step.
	Expect []string `yaml:"expect,omitempty"`
}

// Step operation names, as recorded in the trace.
const (
	OpSupersede = "supersede"
	OpExport    = "export"
	OpImport    = "import"
	OpReload    = "reload"
)

// Op returns the operation the step performs, or "" if it names none.
func (s Step) Op() string {
	switch {
	case s.Supersede != nil:
		return OpSupersede
	case s.Export != "":
		return OpExport
	case s.Import != "" || s.ImportDocument != "":
		return OpImport
	case s.Reload:
		return OpReload
	default:
		return ""
	}
}

func (s Step) storeName() string {
	if s.Store == "" {
		return DefaultStore
	}
	return s.Store
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "asserts:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml file in dir, sorted by path.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("glob scenarios: %w", err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, expr := range s.Assertions {
		if expr == "" {
			return fmt.Errorf("assertions[%d]: expression must not be empty", i)
		}
	}
	return nil
}

func validateStep(index int, s Step) error {
	ops := 0
	if s.Supersede != nil {
		ops++
	}
	if s.Export != "" {
		ops++
	}
	if s.Import != "" {
		ops++
	}
	if s.ImportDocument != "" {
		ops++
	}
	if s.Reload {
		ops++
	}
	if ops != 1 {
		return fmt.Errorf("steps[%d]: exactly one of supersede, export, import, import_document, reload is required", index)
	}

	if s.ExpectImport != nil && s.Op() != OpImport {
		return fmt.Errorf("steps[%d]: expect_import is only valid on import steps", index)
	}
	if s.ExpectError != "" {
		if s.Op() != OpSupersede {
			return fmt.Errorf("steps[%d]: expect_error is only valid on supersede steps", index)
		}
		if !validErrorCode(s.ExpectError) {
			return fmt.Errorf("steps[%d]: unknown error code %q", index, s.ExpectError)
		}
	}
	for j, expr := range s.Expect {
		if expr == "" {
			return fmt.Errorf("steps[%d].expect[%d]: expression must not be empty", index, j)
		}
	}
	return nil
}
