package cli

import (
	"context"
	"fmt"

	"github.com/roach88/simnet/internal/config"
	"github.com/roach88/simnet/internal/contracts"
	"github.com/roach88/simnet/internal/identity"
	"github.com/roach88/simnet/internal/simnet"
)

// loadDevnet returns the --devnet config, or nil for the embedded default.
func loadDevnet(opts *RootOptions) (*config.Devnet, error) {
	if opts.Devnet == "" {
		return nil, nil
	}
	return config.Load(opts.Devnet)
}

// openNetwork opens the persistent devnet named by --db with every bundled
// contract implementation registered. Failures are reported through f.
func openNetwork(ctx context.Context, opts *RootOptions, f *OutputFormatter) (*simnet.Network, error) {
	devnet, err := loadDevnet(opts)
	if err != nil {
		return nil, f.Fail(ExitCommandError, "failed to load devnet", err)
	}
	net, err := simnet.Init(ctx, simnet.Options{
		StorePath: opts.Database,
		Devnet:    devnet,
		Registry:  contracts.Default(),
	})
	if err != nil {
		return nil, f.Fail(ExitCommandError, "failed to open network", err)
	}
	f.VerboseLog("Opened %s at height %d", opts.Database, net.BlockHeight())
	return net, nil
}

// senderIdentity resolves --sender to a devnet identity.
func senderIdentity(net *simnet.Network, name string) (identity.Identity, error) {
	id, ok := net.Account(name)
	if !ok {
		return identity.Identity{}, fmt.Errorf("unknown sender %q", name)
	}
	return id, nil
}

// resolveArgs replaces identity and contract names among positional args
// with their principals. Other literals pass through unchanged.
func resolveArgs(net *simnet.Network, args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = net.ResolvePrincipal(a)
	}
	return out
}
