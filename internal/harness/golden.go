package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/simnet/internal/tx"
)

// GoldenDir is where RunWithGolden and AssertGolden keep snapshots,
// relative to the test's package directory.
const GoldenDir = "testdata/golden"

// TraceSnapshot captures the trace of a scenario execution.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	FlowToken    string       `json:"flow_token,omitempty"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts the snapshot to the plain values
// tx.MarshalCanonical accepts. Zero-valued optional fields are omitted;
// completion success is always present.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"type": event.Type,
			"seq":  event.Seq,
			"kind": event.Kind,
		}
		switch event.Type {
		case EventInvocation:
			eventMap["action"] = event.Action
			args := event.Args
			if args == nil {
				args = []string{}
			}
			eventMap["args"] = args
			if event.Sender != "" {
				eventMap["sender"] = event.Sender
			}
			if event.Amount != 0 {
				eventMap["amount"] = event.Amount
			}
		case EventCompletion:
			eventMap["success"] = event.Success
			if event.Value != "" {
				eventMap["value"] = event.Value
			}
			if event.Error != "" {
				eventMap["error"] = event.Error
			}
		}
		traceList[i] = eventMap
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
	if s.FlowToken != "" {
		result["flow_token"] = s.FlowToken
	}
	return result
}

// Snapshot serializes a result's trace as canonical JSON, the golden file
// format.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		FlowToken:    result.FlowToken,
		Trace:        result.Trace,
	}
	return tx.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario, requires it to pass, and compares the
// trace against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	// Equivalent of t.Context() (Go 1.24+): cancelled when the test ends.
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	result, err := Run(ctx, scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Errorf("%s: %s", scenario.Name, msg)
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
