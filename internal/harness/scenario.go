package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario is a contract test: contracts to deploy, setup steps that must
// succeed, a flow of calls and queries with expectations, and assertions
// over the resulting trace and chain state.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// FlowToken labels the run in traces and logs. If empty, a token is
	// derived from the scenario name so golden files stay stable.
	FlowToken string `yaml:"flow_token,omitempty"`

	// Contracts are deployed in order before setup.
	Contracts []ContractStep `yaml:"contracts"`

	// Setup steps establish state. A setup call that fails aborts the
	// scenario with an error.
	Setup []Step `yaml:"setup,omitempty"`

	Flow []Step `yaml:"flow"`

	// Assertions are evaluated after the flow.
	// Supported types: trace_contains, trace_order, trace_count, final_state, balance
	Assertions []Assertion `yaml:"assertions"`
}

// ContractStep deploys one contract.
type ContractStep struct {
	Name string `yaml:"name"`

	// Path is the manifest, resolved against the contracts base path.
	Path string `yaml:"path"`

	// Deployer is an identity name. Defaults to "deployer".
	Deployer string `yaml:"deployer,omitempty"`
}

// Step is a single public call or read-only query.
// Target is "<contract>.<function>".
type Step struct {
	Call  string `yaml:"call,omitempty"`
	Query string `yaml:"query,omitempty"`

	// Sender is an identity name. Calls default to "deployer"; queries
	// default to the contract deployer.
	Sender string `yaml:"sender,omitempty"`

	// Amount is the most µSTX the call may move out of the sender's account.
	Amount uint64 `yaml:"amount,omitempty"`

	// Args are value literals. {i} expands to the 1-based repeat index and
	// {name} to the address of an identity or the id of a deployed contract.
	Args []string `yaml:"args,omitempty"`

	// Repeat runs the step this many times.
	Repeat int `yaml:"repeat,omitempty"`

	// Expect is checked after every repetition. Nil means the outcome is
	// recorded but not validated.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// Step kinds.
const (
	KindCall  = "call"
	KindQuery = "query"
)

// Kind returns "call" or "query".
func (s Step) Kind() string {
	if s.Call != "" {
		return KindCall
	}
	return KindQuery
}

// Action returns the contract.function target.
func (s Step) Action() string {
	if s.Call != "" {
		return s.Call
	}
	return s.Query
}

// Target splits the action into contract and function. The function is
// whatever follows the last dot, so full contract ids are accepted.
func (s Step) Target() (contract, function string, err error) {
	action := s.Action()
	i := strings.LastIndexByte(action, '.')
	if i <= 0 || i == len(action)-1 {
		return "", "", fmt.Errorf("%s %q: want <contract>.<function>", s.Kind(), action)
	}
	return action[:i], action[i+1:], nil
}

func (s Step) repetitions() int {
	if s.Repeat > 1 {
		return s.Repeat
	}
	return 1
}

// ExpectClause checks a step outcome. Unset fields are not checked.
type ExpectClause struct {
	Success *bool `yaml:"success,omitempty"`

	// Value is the exact literal of the returned value.
	Value string `yaml:"value,omitempty"`

	// Contains is a substring of the returned value literal.
	Contains string `yaml:"contains,omitempty"`

	// Error is a substring of the error text.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": an action appears in the trace, optionally with args and sender
	// - "trace_order": actions first appear in the given order
	// - "trace_count": an action is invoked exactly Count times
	// - "final_state": a store table row matches expected column values
	// - "balance": an account holds exactly Balance µSTX
	Type string `yaml:"type"`

	// Action is used by trace_contains and trace_count.
	Action string `yaml:"action,omitempty"`

	// Args are the expected invocation args, compared as written.
	Args []string `yaml:"args,omitempty"`

	Sender string `yaml:"sender,omitempty"`

	// Actions is the expected order (used by trace_order).
	Actions []string `yaml:"actions,omitempty"`

	// Count is the expected number of invocations (used by trace_count).
	Count int `yaml:"count,omitempty"`

	// Table, Where and Expect are used by final_state. String values may
	// carry the same placeholders as step args.
	Table  string         `yaml:"table,omitempty"`
	Where  map[string]any `yaml:"where,omitempty"`
	Expect map[string]any `yaml:"expect,omitempty"`

	// Account is an identity name or deployed contract name (used by balance).
	Account string `yaml:"account,omitempty"`

	// Balance is a decimal µSTX amount (used by balance).
	Balance string `yaml:"balance,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertBalance       = "balance"
)

// LoadScenario reads and parses a scenario file. Contract paths are
// resolved against the scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario file, resolving
// relative contract paths against basePath. Unknown fields are rejected.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, c := range scenario.Contracts {
		if c.Path != "" && !filepath.IsAbs(c.Path) && basePath != "" {
			scenario.Contracts[i].Path = filepath.Join(basePath, c.Path)
		}
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
	if len(s.Contracts) == 0 {
		return fmt.Errorf("contracts list is required and must be non-empty")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Contracts))
	for i, c := range s.Contracts {
		if c.Name == "" {
			return fmt.Errorf("contracts[%d]: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("contracts[%d]: duplicate contract %q", i, c.Name)
		}
		seen[c.Name] = true
		if c.Path == "" {
			return fmt.Errorf("contracts[%d]: path is required", i)
		}
		if _, err := os.Stat(c.Path); os.IsNotExist(err) {
			return fmt.Errorf("contracts[%d]: manifest not found: %s", i, c.Path)
		}
	}

	for i, step := range s.Setup {
		if err := validateStep(fmt.Sprintf("setup[%d]", i), step); err != nil {
			return err
		}
		if step.Expect != nil {
			return fmt.Errorf("setup[%d]: expect is not allowed in setup", i)
		}
	}
	for i, step := range s.Flow {
		if err := validateStep(fmt.Sprintf("flow[%d]", i), step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(where string, step Step) error {
	switch {
	case step.Call == "" && step.Query == "":
		return fmt.Errorf("%s: call or query is required", where)
	case step.Call != "" && step.Query != "":
		return fmt.Errorf("%s: call and query are mutually exclusive", where)
	}
	if _, _, err := step.Target(); err != nil {
		return fmt.Errorf("%s: %w", where, err)
	}
	if step.Repeat < 0 {
		return fmt.Errorf("%s: repeat must be non-negative", where)
	}
	if step.Query != "" {
		if step.Amount != 0 {
			return fmt.Errorf("%s: queries cannot attach an amount", where)
		}
		if step.Expect != nil && step.Expect.Success != nil && !*step.Expect.Success {
			return fmt.Errorf("%s.expect: queries cannot fail", where)
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
	case AssertTraceContains:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertBalance:
		if a.Account == "" {
			return fmt.Errorf("assertions[%d]: account is required for balance", index)
		}
		if a.Balance == "" {
			return fmt.Errorf("assertions[%d]: balance is required for balance", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
