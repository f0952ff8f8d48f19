package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/simnet/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Limit    int
	Contract string // optional - filter to one contract
}

// TraceEntry is one mined transaction with its receipt.
type TraceEntry struct {
	TxID     string   `json:"tx_id"`
	Kind     string   `json:"kind"`
	Height   uint64   `json:"height"`
	Sender   string   `json:"sender"`
	Nonce    uint64   `json:"nonce"`
	Contract string   `json:"contract"`
	Function string   `json:"function,omitempty"`
	Args     []string `json:"args,omitempty"`
	Amount   string   `json:"amount,omitempty"`
	Success  bool     `json:"success"`
	Result   string   `json:"result,omitempty"`
	Error    string   `json:"error,omitempty"`
	Events   []string `json:"events,omitempty"`
}

// TraceResult holds the transaction log.
type TraceResult struct {
	Height       uint64       `json:"height"`
	Transactions []TraceEntry `json:"transactions"`
	Stats        TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the log.
type TraceStats struct {
	Total     int `json:"total"`
	Deploys   int `json:"deploys"`
	Calls     int `json:"calls"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the transaction log",
		Long: `Show mined transactions with their receipts, oldest first.

Examples:
  simnet trace
  simnet trace --limit 10
  simnet trace --contract fantasy-sports --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show only the most recent N transactions (0 = all)")
	cmd.Flags().StringVar(&opts.Contract, "contract", "", "filter to a contract name or id")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	f := newFormatter(opts.RootOptions, cmd)

	if opts.Limit < 0 {
		return f.Fail(ExitCommandError, fmt.Sprintf("invalid --limit %d", opts.Limit), nil)
	}

	net, err := openNetwork(ctx, opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer net.Close()

	txs, err := net.Transactions(ctx, opts.Limit)
	if err != nil {
		return f.Fail(ExitCommandError, "failed to read transactions", err)
	}

	contractFilter := ""
	if opts.Contract != "" {
		contractFilter = net.ResolvePrincipal(opts.Contract)
	}

	result := TraceResult{Height: net.BlockHeight(), Transactions: []TraceEntry{}}
	for _, t := range txs {
		if contractFilter != "" && t.Contract != contractFilter {
			continue
		}
		receipt, _, err := net.Receipt(ctx, t.ID)
		if err != nil {
			return f.Fail(ExitCommandError, "failed to read receipt", err)
		}
		entry := buildTraceEntry(t, receipt)
		result.Transactions = append(result.Transactions, entry)
		result.Stats.add(entry)
	}

	if f.Format == "json" {
		return f.Success(result)
	}
	return outputTraceText(f.Writer, result, opts.Verbose)
}

func buildTraceEntry(t store.TxRecord, r store.Receipt) TraceEntry {
	return TraceEntry{
		TxID:     t.ID,
		Kind:     t.Kind,
		Height:   t.Height,
		Sender:   t.Sender,
		Nonce:    t.Nonce,
		Contract: t.Contract,
		Function: t.Function,
		Args:     t.Args,
		Amount:   t.Amount,
		Success:  r.Success,
		Result:   r.Result,
		Error:    r.Error,
		Events:   r.Events,
	}
}

func (s *TraceStats) add(e TraceEntry) {
	s.Total++
	if e.Kind == "deploy" {
		s.Deploys++
	} else {
		s.Calls++
	}
	if e.Success {
		s.Succeeded++
	} else {
		s.Failed++
	}
}

// outputTraceText outputs the log as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	fmt.Fprintf(w, "Chain height: %d\n", result.Height)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Transactions ===")
	if len(result.Transactions) == 0 {
		fmt.Fprintln(w, "  (no transactions)")
	}
	for _, e := range result.Transactions {
		formatTraceEntry(w, e, verbose)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total:     %d\n", result.Stats.Total)
	fmt.Fprintf(w, "  Deploys:   %d\n", result.Stats.Deploys)
	fmt.Fprintf(w, "  Calls:     %d\n", result.Stats.Calls)
	fmt.Fprintf(w, "  Succeeded: %d\n", result.Stats.Succeeded)
	fmt.Fprintf(w, "  Failed:    %d\n", result.Stats.Failed)
	return nil
}

func formatTraceEntry(w io.Writer, e TraceEntry, verbose bool) {
	target := e.Contract
	if e.Function != "" {
		target += "." + e.Function
	}
	if len(e.Args) > 0 {
		target += " " + strings.Join(e.Args, " ")
	}

	outcome := e.Result
	switch {
	case !e.Success:
		outcome = e.Error
	case outcome == "":
		outcome = "ok"
	}
	fmt.Fprintf(w, "  [%d] %s %s -> %s\n", e.Height, strings.ToUpper(e.Kind), target, outcome)

	if verbose {
		fmt.Fprintf(w, "       Tx: %s\n", truncateID(e.TxID))
		fmt.Fprintf(w, "       Sender: %s (nonce %d)\n", e.Sender, e.Nonce)
		if e.Amount != "" && e.Amount != "0" {
			fmt.Fprintf(w, "       Amount: %s µSTX\n", e.Amount)
		}
		for _, ev := range e.Events {
			fmt.Fprintf(w, "       Event: %s\n", ev)
		}
	}
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
