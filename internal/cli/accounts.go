package cli

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/roach88/simnet/internal/clarity"
)

// microPerSTX is the number of µSTX in one STX.
const microPerSTX = 1_000_000

// AccountInfo is one row of the accounts listing.
type AccountInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Balance string `json:"balance"` // µSTX, decimal
	STX     string `json:"stx"`
	Nonce   uint64 `json:"nonce"`
}

// AccountsResult lists devnet identities.
type AccountsResult struct {
	Height   uint64        `json:"height"`
	Accounts []AccountInfo `json:"accounts"`
}

func (r AccountsResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Accounts at height %d:\n", r.Height)
	for _, a := range r.Accounts {
		fmt.Fprintf(&b, "  %-10s %s  %s (nonce %d)\n", a.Name, a.Address, a.STX, a.Nonce)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewAccountsCommand creates the accounts command.
func NewAccountsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List devnet accounts and balances",
		Long: `List the devnet identities with their addresses, balances and nonces.

Examples:
  simnet accounts
  simnet accounts --db ./devnet.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccounts(rootOpts, cmd)
		},
	}
}

func runAccounts(opts *RootOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	f := newFormatter(opts, cmd)

	net, err := openNetwork(ctx, opts, f)
	if err != nil {
		return err
	}
	defer net.Close()

	result := AccountsResult{Height: net.BlockHeight(), Accounts: []AccountInfo{}}
	for _, id := range net.Accounts() {
		acct, _, err := net.Store().Account(ctx, id.Address)
		if err != nil {
			return f.Fail(ExitCommandError, "failed to read account "+id.Name, err)
		}
		result.Accounts = append(result.Accounts, AccountInfo{
			Name:    id.Name,
			Address: id.Address,
			Balance: acct.Balance.Dec(),
			STX:     FormatSTX(acct.Balance),
			Nonce:   acct.Nonce,
		})
	}
	return f.Success(result)
}

// FormatSTX renders a µSTX amount as STX with thousands separators,
// e.g. 100,000,000.000000 STX.
func FormatSTX(micro clarity.UInt) string {
	var whole, frac uint256.Int
	whole.DivMod(micro.Uint256(), uint256.NewInt(microPerSTX), &frac)
	return fmt.Sprintf("%s.%06d STX", humanize.BigComma(whole.ToBig()), frac.Uint64())
}
