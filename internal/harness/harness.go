package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/roach88/simnet/internal/config"
	"github.com/roach88/simnet/internal/contracts"
	"github.com/roach88/simnet/internal/simnet"
	"github.com/roach88/simnet/internal/testutil"
)

var log = logrus.WithField("prefix", "harness")

// defaultSender signs calls that name no sender.
const defaultSender = "deployer"

// Options configures a scenario run.
type Options struct {
	// Registry resolves contract implementations. Nil means contracts.Default().
	Registry *simnet.Registry

	// Devnet replaces the embedded devnet accounts.
	Devnet *config.Devnet
}

// Harness executes one scenario against its own network.
type Harness struct {
	net       *simnet.Network
	clock     *testutil.DeterministicClock
	flowToken string
	log       *logrus.Entry
}

// Run executes a scenario with the default contract registry.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	return RunWithOptions(ctx, scenario, Options{})
}

// RunWithOptions executes a scenario and returns the result.
//
// Each scenario gets a fresh in-memory network, so nothing leaks between
// scenarios. Deployment, setup and request errors (unknown function, bad
// arguments) are returned as errors; unmet expectations and failed
// assertions are reported in the result.
func RunWithOptions(ctx context.Context, scenario *Scenario, opts Options) (*Result, error) {
	registry := opts.Registry
	if registry == nil {
		registry = contracts.Default()
	}

	net, err := simnet.Init(ctx, simnet.Options{Registry: registry, Devnet: opts.Devnet})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize network: %w", err)
	}
	defer net.Close()

	token := scenario.FlowToken
	if token == "" {
		token = testutil.DerivedFlowToken(scenario.Name)
	}

	h := &Harness{
		net:       net,
		clock:     testutil.NewDeterministicClock(),
		flowToken: token,
		log:       log.WithFields(logrus.Fields{"scenario": scenario.Name, "flow_token": token}),
	}

	result := NewResult()
	result.FlowToken = token

	if err := h.deploy(ctx, scenario.Contracts); err != nil {
		return nil, fmt.Errorf("failed to deploy contracts: %w", err)
	}
	if err := h.runSteps(ctx, "setup", scenario.Setup, result, true); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}
	if err := h.runSteps(ctx, "flow", scenario.Flow, result, false); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}
	if err := h.captureState(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to capture state: %w", err)
	}

	actx := &AssertionContext{
		Ctx:     ctx,
		Network: net,
		Resolve: h.resolve,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	h.log.WithFields(logrus.Fields{
		"pass":   result.Pass,
		"errors": len(result.Errors),
		"events": len(result.Trace),
	}).Info("Scenario finished")
	return result, nil
}

func (h *Harness) deploy(ctx context.Context, contracts []ContractStep) error {
	for i, c := range contracts {
		name := c.Deployer
		if name == "" {
			name = defaultSender
		}
		id, ok := h.net.Account(name)
		if !ok {
			return fmt.Errorf("contracts[%d]: unknown deployer %q", i, name)
		}
		res, err := h.net.Deploy(ctx, simnet.DeployRequest{
			ContractName: c.Name,
			SenderKey:    id.PrivateKey,
			Path:         c.Path,
		})
		if err != nil {
			return fmt.Errorf("contracts[%d]: %s: %w", i, c.Name, err)
		}
		h.log.WithFields(logrus.Fields{"contract": res.ContractID, "height": res.Height}).Debug("Contract deployed")
	}
	return nil
}

// runSteps executes steps in order. With mustSucceed, a failed call is an
// error; otherwise expectations are checked and mismatches recorded.
func (h *Harness) runSteps(ctx context.Context, phase string, steps []Step, result *Result, mustSucceed bool) error {
	for i, step := range steps {
		kind, action := step.Kind(), step.Action()
		for rep := 1; rep <= step.repetitions(); rep++ {
			where := fmt.Sprintf("%s[%d]", phase, i)
			if step.Repeat > 1 {
				where = fmt.Sprintf("%s#%d", where, rep)
			}

			sender := step.Sender
			if sender == "" && kind == KindCall {
				sender = defaultSender
			}
			result.AddInvocationTrace(kind, action, sender, expandIndexAll(step.Args, rep), step.Amount, h.clock.Next())

			o, err := h.execute(ctx, step, sender, rep)
			if err != nil {
				return fmt.Errorf("%s %s: %w", where, action, err)
			}
			result.AddCompletionTrace(kind, o, h.clock.Next())

			if mustSucceed && !o.Success {
				return fmt.Errorf("%s %s failed: %s", where, action, o.Error)
			}
			if step.Expect != nil {
				for _, msg := range h.check(step.Expect, o, rep) {
					result.AddError(fmt.Sprintf("%s %s: %s", where, action, msg))
				}
			}

			h.log.WithFields(logrus.Fields{
				"step":    where,
				"action":  action,
				"success": o.Success,
				"value":   o.Value,
			}).Debug("Step completed")
		}
	}
	return nil
}

// execute runs one repetition of a step and reports what came back.
func (h *Harness) execute(ctx context.Context, step Step, sender string, index int) (Outcome, error) {
	contract, fn, err := step.Target()
	if err != nil {
		return Outcome{}, err
	}
	args := expandAll(step.Args, index, h.resolve)

	if step.Kind() == KindQuery {
		res, err := h.net.Query(ctx, simnet.QueryRequest{
			ContractName: contract,
			FnName:       fn,
			Args:         args,
			Sender:       sender,
		})
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Success: true, Value: res.Value.String()}, nil
	}

	id, ok := h.net.Account(sender)
	if !ok {
		return Outcome{}, fmt.Errorf("unknown sender %q", sender)
	}
	res, err := h.net.CallPublic(ctx, simnet.CallRequest{
		ContractName: contract,
		FnName:       fn,
		SenderKey:    id.PrivateKey,
		Amount:       step.Amount,
		Args:         args,
	})
	if err != nil {
		return Outcome{}, err
	}
	o := Outcome{Success: res.Success, Error: res.Error}
	if res.Value != nil {
		o.Value = res.Value.String()
	}
	return o, nil
}

// check compares an outcome with its expect clause and returns one message
// per mismatch.
func (h *Harness) check(expect *ExpectClause, o Outcome, index int) []string {
	var msgs []string
	if expect.Success != nil && *expect.Success != o.Success {
		msg := fmt.Sprintf("expected success=%t, got %t", *expect.Success, o.Success)
		if o.Error != "" {
			msg += " (" + o.Error + ")"
		}
		msgs = append(msgs, msg)
	}
	if expect.Value != "" {
		if want := expand(expect.Value, index, h.resolve); o.Value != want {
			msgs = append(msgs, fmt.Sprintf("expected value %s, got %s", want, describe(o.Value)))
		}
	}
	if expect.Contains != "" {
		if want := expand(expect.Contains, index, h.resolve); !strings.Contains(o.Value, want) {
			msgs = append(msgs, fmt.Sprintf("expected value containing %q, got %s", want, describe(o.Value)))
		}
	}
	if expect.Error != "" {
		if want := expand(expect.Error, index, h.resolve); !strings.Contains(o.Error, want) {
			msgs = append(msgs, fmt.Sprintf("expected error containing %q, got %s", want, describe(o.Error)))
		}
	}
	return msgs
}

func describe(s string) string {
	if s == "" {
		return "nothing"
	}
	return s
}

// resolve maps an identity name to its address and a deployed contract
// name to its contract id.
func (h *Harness) resolve(name string) (string, bool) {
	if id, ok := h.net.Account(name); ok {
		return id.Address, true
	}
	for _, c := range h.net.Contracts() {
		if c.Name == name {
			return c.ID, true
		}
	}
	return "", false
}

// captureState records the block height and every known balance.
func (h *Harness) captureState(ctx context.Context, result *Result) error {
	balances := make(map[string]any)
	for _, id := range h.net.Accounts() {
		bal, err := h.net.Balance(ctx, id.Address)
		if err != nil {
			return err
		}
		balances[id.Name] = bal.Dec()
	}
	for _, c := range h.net.Contracts() {
		bal, err := h.net.Balance(ctx, c.ID)
		if err != nil {
			return err
		}
		balances[c.Name] = bal.Dec()
	}
	result.State["height"] = h.net.BlockHeight()
	result.State["balances"] = balances
	return nil
}
