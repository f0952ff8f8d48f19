package harness

// Trace event types.
const (
	EventInvocation = "invocation"
	EventCompletion = "completion"
)

// TraceEvent is one side of a step execution. An invocation records what
// was sent; the completion that follows it records what came back.
//
// Args are recorded as written in the scenario with only the repeat index
// expanded, so traces do not depend on key material.
type TraceEvent struct {
	Type   string   `json:"type"`
	Seq    int64    `json:"seq"`
	Kind   string   `json:"kind"` // "call" or "query"
	Action string   `json:"action,omitempty"`
	Sender string   `json:"sender,omitempty"`
	Args   []string `json:"args,omitempty"`
	Amount uint64   `json:"amount,omitempty"`

	Success bool   `json:"success,omitempty"`
	Value   string `json:"value,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	FlowToken string `json:"flow_token"`

	// Trace contains all invocations and completions in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation and assertion failures.
	Errors []string `json:"errors,omitempty"`

	// State is a summary of the chain after the flow: block height and the
	// balance of every identity and deployed contract.
	State map[string]any `json:"state,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  make(map[string]any),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddInvocationTrace appends an invocation event.
func (r *Result) AddInvocationTrace(kind, action, sender string, args []string, amount uint64, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:   EventInvocation,
		Seq:    seq,
		Kind:   kind,
		Action: action,
		Sender: sender,
		Args:   args,
		Amount: amount,
	})
}

// AddCompletionTrace appends a completion event.
func (r *Result) AddCompletionTrace(kind string, o Outcome, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:    EventCompletion,
		Seq:     seq,
		Kind:    kind,
		Success: o.Success,
		Value:   o.Value,
		Error:   o.Error,
	})
}

// Outcome is what the harness observes from one step: the success flag,
// the returned value literal and the error text.
type Outcome struct {
	Success bool
	Value   string
	Error   string
}
