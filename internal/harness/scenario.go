package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/relmap/internal/queryir"
)

// Scenario is a sequence of persistence operations with expectations.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// Flow is executed in order against a fresh database.
	Flow []Step `yaml:"flow"`

	// Assertions check the final state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one operation.
type Step struct {
	// Op is one of save, update, delete, get, where, count.
	Op string `yaml:"op"`

	// Type is a relation name. Required by save, get, where and count.
	Type string `yaml:"type,omitempty"`

	// Ref names the entity the step binds (save, get) or uses (update,
	// delete).
	Ref string `yaml:"ref,omitempty"`

	// Parent is the ref of the collection a saved entity is added to.
	Parent string `yaml:"parent,omitempty"`

	// ID is the identity loaded by get.
	ID int64 `yaml:"id,omitempty"`

	// Set maps column names to values applied by save and update.
	Set map[string]any `yaml:"set,omitempty"`

	// Where holds the conditions of a where step.
	Where []Condition `yaml:"where,omitempty"`

	// Any joins the conditions with OR instead of AND.
	Any bool `yaml:"any,omitempty"`

	// Expect is checked against the step outcome. Nil checks nothing.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Condition is one comparison of a where step.
type Condition struct {
	Column string `yaml:"column"`
	Op     string `yaml:"op"`
	Value  any    `yaml:"value"`
}

// Expect lists the outcomes a step must have. Unset fields are not checked.
type Expect struct {
	OK    *bool   `yaml:"ok,omitempty"`
	Found *bool   `yaml:"found,omitempty"`
	Count *int64  `yaml:"count,omitempty"`
	IDs   []int64 `yaml:"ids,omitempty"`

	// Error is a substring of the expected error; empty expects none.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the final state.
type Assertion struct {
	// Type is one of count, row, children, missing.
	Type string `yaml:"type"`

	// Relation is the relation name.
	Relation string `yaml:"relation"`

	// ID selects the entity (row, children, missing).
	ID int64 `yaml:"id,omitempty"`

	// Count is the expected number of rows (count) or children (children).
	Count *int64 `yaml:"count,omitempty"`

	// Expect maps column names to expected values (row).
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Operation names.
const (
	OpSave   = "save"
	OpUpdate = "update"
	OpDelete = "delete"
	OpGet    = "get"
	OpWhere  = "where"
	OpCount  = "count"
)

// Assertion type constants.
const (
	AssertCount    = "count"
	AssertRow      = "row"
	AssertChildren = "children"
	AssertMissing  = "missing"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected to catch typos.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates a scenario.
func ParseScenario(data []byte) (*Scenario, error) {
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

// validateScenario checks the structure. Relation names and refs are
// resolved when the scenario runs.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step) error {
	switch step.Op {
	case OpSave:
		if step.Type == "" {
			return fmt.Errorf("type is required for save")
		}
	case OpUpdate, OpDelete:
		if step.Ref == "" {
			return fmt.Errorf("ref is required for %s", step.Op)
		}
	case OpGet:
		if step.Type == "" || step.ID == 0 {
			return fmt.Errorf("type and id are required for get")
		}
	case OpWhere:
		if step.Type == "" {
			return fmt.Errorf("type is required for where")
		}
		if len(step.Where) == 0 {
			return fmt.Errorf("where list is required for where")
		}
		for j, c := range step.Where {
			if c.Column == "" {
				return fmt.Errorf("where[%d]: column is required", j)
			}
			if !queryir.Op(c.Op).Known() {
				return fmt.Errorf("where[%d]: unknown operator %q", j, c.Op)
			}
		}
	case OpCount:
		if step.Type == "" {
			return fmt.Errorf("type is required for count")
		}
	case "":
		return fmt.Errorf("op is required")
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}

	if step.Parent != "" && step.Op != OpSave {
		return fmt.Errorf("parent is only valid for save")
	}
	if len(step.Set) > 0 && step.Op != OpSave && step.Op != OpUpdate {
		return fmt.Errorf("set is only valid for save and update")
	}
	return nil
}

func validateAssertion(a Assertion) error {
	if a.Relation == "" {
		return fmt.Errorf("relation is required")
	}

	switch a.Type {
	case AssertCount:
		if a.Count == nil {
			return fmt.Errorf("count is required for count")
		}
	case AssertRow:
		if a.ID == 0 || len(a.Expect) == 0 {
			return fmt.Errorf("id and expect are required for row")
		}
	case AssertChildren:
		if a.ID == 0 || a.Count == nil {
			return fmt.Errorf("id and count are required for children")
		}
	case AssertMissing:
		if a.ID == 0 {
			return fmt.Errorf("id is required for missing")
		}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
