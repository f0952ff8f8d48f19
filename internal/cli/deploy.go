package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/simnet/internal/simnet"
)

// DeployOptions holds flags for the deploy command.
type DeployOptions struct {
	*RootOptions
	Sender string
}

// DeployOutput describes a mined deployment.
type DeployOutput struct {
	ContractID string   `json:"contract_id"`
	TxID       string   `json:"tx_id"`
	Height     uint64   `json:"height"`
	Events     []string `json:"events,omitempty"`
}

func (d DeployOutput) String() string {
	return fmt.Sprintf("Deployed %s\n  tx %s at height %d", d.ContractID, d.TxID, d.Height)
}

// NewDeployCommand creates the deploy command.
func NewDeployCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeployOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "deploy <name> <manifest>",
		Short: "Deploy a contract manifest",
		Long: `Compile a contract manifest, bind its native implementation and
mine the deployment.

Examples:
  simnet deploy fantasy-sports ./contracts/fantasy-sports.cue
  simnet deploy league ./contracts/fantasy-sports.cue --sender user1`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Sender, "sender", "deployer", "identity that deploys the contract")

	return cmd
}

func runDeploy(opts *DeployOptions, name, path string, cmd *cobra.Command) error {
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

	res, err := net.Deploy(ctx, simnet.DeployRequest{
		ContractName: name,
		SenderKey:    sender.PrivateKey,
		Path:         path,
	})
	if err != nil {
		return f.Fail(ExitCommandError, "deploy failed", err)
	}

	return f.Success(DeployOutput{
		ContractID: res.ContractID,
		TxID:       res.TxID,
		Height:     res.Height,
		Events:     res.Events,
	})
}
