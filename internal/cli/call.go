package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/simnet/internal/simnet"
)

// CallOptions holds flags for the call command.
type CallOptions struct {
	*RootOptions
	Sender string
	Amount uint64
}

// CallOutput describes a mined call.
type CallOutput struct {
	Contract string   `json:"contract"`
	Function string   `json:"function"`
	Success  bool     `json:"success"`
	Response string   `json:"response,omitempty"`
	Value    string   `json:"value,omitempty"`
	Error    string   `json:"error,omitempty"`
	TxID     string   `json:"tx_id"`
	Height   uint64   `json:"height"`
	Events   []string `json:"events,omitempty"`
}

func (c CallOutput) String() string {
	var b strings.Builder
	if c.Response != "" {
		b.WriteString(c.Response)
	} else {
		b.WriteString(c.Error)
	}
	fmt.Fprintf(&b, "\n  tx %s at height %d", c.TxID, c.Height)
	for _, e := range c.Events {
		fmt.Fprintf(&b, "\n  event %s", e)
	}
	return b.String()
}

// NewCallCommand creates the call command.
func NewCallCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CallOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "call <contract> <function> [args...]",
		Short: "Call a public contract function",
		Long: `Sign and mine a call to a public function. Arguments are value
literals such as u1, true or 'ST1..., or the name of a devnet identity
or deployed contract, which stands for its principal.

Exit codes:
  0 - The call returned (ok ...)
  1 - The call returned (err ...) or aborted
  2 - Command error (unknown contract, bad arguments, etc.)

Examples:
  simnet call fantasy-sports join-league --sender user1 --amount 100000000
  simnet call fantasy-sports draft-player u7 --sender user1
  simnet call fantasy-sports calculate-team-points user1 --sender user1`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(opts, args[0], args[1], args[2:], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Sender, "sender", "deployer", "identity that signs the call")
	cmd.Flags().Uint64Var(&opts.Amount, "amount", 0, "most µSTX the call may transfer from the sender")

	return cmd
}

func runCall(opts *CallOptions, contract, fn string, args []string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	f := newFormatter(opts.RootOptions, cmd)

	net, err := openNetwork(ctx, opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer net.Close()

	sender, err := senderIdentity(net, opts.Sender)
	if err != nil {
		return f.Fail(ExitCommandError, "invalid sender", err)
	}

	res, err := net.CallPublic(ctx, simnet.CallRequest{
		ContractName: contract,
		FnName:       fn,
		SenderKey:    sender.PrivateKey,
		Amount:       opts.Amount,
		Args:         resolveArgs(net, args),
	})
	if err != nil {
		return f.Fail(ExitCommandError, "call rejected", err)
	}

	out := CallOutput{
		Contract: contract,
		Function: fn,
		Success:  res.Success,
		Error:    res.Error,
		TxID:     res.TxID,
		Height:   res.Height,
		Events:   res.Events,
	}
	if res.Response != nil {
		out.Response = res.Response.String()
	}
	if res.Value != nil {
		out.Value = res.Value.String()
	}

	if !res.Success {
		if err := f.Error(ErrCodeCallFailed, res.Error, out); err != nil {
			return err
		}
		if f.Format != "json" {
			fmt.Fprintf(f.Writer, "  tx %s at height %d\n", res.TxID, res.Height)
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%s.%s failed: %s", contract, fn, res.Error))
	}
	return f.Success(out)
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	var sender string

	cmd := &cobra.Command{
		Use:   "query <contract> <function> [args...]",
		Short: "Evaluate a read-only contract function",
		Long: `Evaluate a read-only function against the current chain state.
Nothing is mined. Identity and contract names among the arguments stand
for their principals.

Examples:
  simnet query fantasy-sports get-prize-pool
  simnet query fantasy-sports get-team user1`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(rootOpts, sender, args[0], args[1], args[2:], cmd)
		},
	}

	cmd.Flags().StringVar(&sender, "sender", "", "tx-sender for the query (default: the contract deployer)")

	return cmd
}

// QueryOutput is the value a read-only function returned.
type QueryOutput struct {
	Contract string `json:"contract"`
	Function string `json:"function"`
	Value    string `json:"value"`
}

func (q QueryOutput) String() string { return q.Value }

func runQuery(opts *RootOptions, sender, contract, fn string, args []string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	f := newFormatter(opts, cmd)

	net, err := openNetwork(ctx, opts, f)
	if err != nil {
		return err
	}
	defer net.Close()

	res, err := net.Query(ctx, simnet.QueryRequest{
		ContractName: contract,
		FnName:       fn,
		Args:         resolveArgs(net, args),
		Sender:       sender,
	})
	if err != nil {
		return f.Fail(ExitCommandError, "query failed", err)
	}
	return f.Success(QueryOutput{Contract: contract, Function: fn, Value: res.Value.String()})
}
