package simnet

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/roach88/simnet/internal/clarity"
	"github.com/roach88/simnet/internal/config"
	"github.com/roach88/simnet/internal/identity"
	"github.com/roach88/simnet/internal/manifest"
	"github.com/roach88/simnet/internal/store"
)

var log = logrus.WithField("prefix", "simnet")

// Options configures Init.
type Options struct {
	// StorePath is the SQLite database. Empty means a private in-memory
	// database, so every Init starts from a clean chain.
	StorePath string

	// Devnet supplies accounts and the address version. Nil means the
	// embedded default devnet.
	Devnet *config.Devnet

	// Registry resolves manifest implementations. Nil means an empty one.
	Registry *Registry

	// ManifestCacheSize bounds the compiled manifest cache.
	ManifestCacheSize int
}

// Network is a simulated chain.
type Network struct {
	exec sync.Mutex // serializes transactions and queries
	mu   sync.Mutex // guards contracts and order

	store     *store.Store
	devnet    *config.Devnet
	accounts  identity.Pool
	registry  *Registry
	manifests *manifest.Cache
	clock     *blockClock
	metrics   *metrics

	contracts map[string]*deployed // by name
	order     []string
}

type deployed struct {
	record store.ContractRecord
	spec   *manifest.Contract
	impl   Contract
}

func (d *deployed) principal() clarity.Principal {
	return clarity.ContractPrincipal(d.record.Deployer, d.record.Name)
}

// Init opens a network. Genesis balances are credited once; contracts
// already recorded in a persistent store are reloaded.
func Init(ctx context.Context, opts Options) (*Network, error) {
	devnet := opts.Devnet
	if devnet == nil {
		devnet = config.Default()
	}
	registry := opts.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	cacheSize := opts.ManifestCacheSize
	if cacheSize <= 0 {
		cacheSize = manifest.DefaultCacheSize
	}
	path := opts.StorePath
	if path == "" {
		path = store.MemoryPath
	}

	accounts, err := devnet.Identities()
	if err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	manifests, err := manifest.NewCache(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	n := &Network{
		store:     st,
		devnet:    devnet,
		accounts:  accounts,
		registry:  registry,
		manifests: manifests,
		metrics:   newMetrics(),
		contracts: make(map[string]*deployed),
	}
	if err := n.bootstrap(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("init: %w", err)
	}

	log.WithFields(logrus.Fields{
		"store":     path,
		"accounts":  len(accounts),
		"contracts": len(n.order),
		"height":    n.clock.Current(),
	}).Debug("Network initialized")
	return n, nil
}

func (n *Network) bootstrap(ctx context.Context) error {
	for _, id := range n.accounts {
		bal, _ := n.devnet.GenesisBalance(id.Name)
		if err := n.store.FundGenesis(ctx, id.Address, bal); err != nil {
			return err
		}
	}

	height, err := n.store.Height(ctx)
	if err != nil {
		return err
	}
	n.clock = newBlockClockAt(height)
	n.metrics.blockHeight.Set(float64(height))

	records, err := n.store.Contracts(ctx)
	if err != nil {
		return err
	}
	for _, rec := range records {
		spec, err := n.manifests.Compile(rec.SourcePath, []byte(rec.Source))
		if err != nil {
			return fmt.Errorf("reload %s: %w", rec.ID, err)
		}
		impl, err := n.instantiate(spec)
		if err != nil {
			return fmt.Errorf("reload %s: %w", rec.ID, err)
		}
		n.contracts[rec.Name] = &deployed{record: rec, spec: spec, impl: impl}
		n.order = append(n.order, rec.Name)
	}
	return nil
}

func (n *Network) instantiate(spec *manifest.Contract) (Contract, error) {
	factory, ok := n.registry.Lookup(spec.Implementation)
	if !ok {
		return nil, &Error{
			Code:     ErrCodeUnknownImplementation,
			Message:  fmt.Sprintf("no implementation registered for %q", spec.Implementation),
			Contract: spec.Name,
		}
	}
	impl, err := factory(spec)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", spec.Implementation, err)
	}
	return impl, nil
}

// Close releases the store.
func (n *Network) Close() error {
	return n.store.Close()
}

// Accounts returns the identity pool in devnet order.
func (n *Network) Accounts() []identity.Identity {
	return append([]identity.Identity(nil), n.accounts...)
}

// Account returns an identity by name.
func (n *Network) Account(name string) (identity.Identity, bool) {
	return n.accounts.ByName(name)
}

// BlockHeight returns the chain tip.
func (n *Network) BlockHeight() uint64 {
	return n.clock.Current()
}

// Registry returns the prometheus registry holding this network's metrics.
func (n *Network) Registry() *prometheus.Registry {
	return n.metrics.registry
}

// Store exposes the underlying store for assertions and inspection.
func (n *Network) Store() *store.Store {
	return n.store
}

// Balance returns a principal's µSTX balance. The principal may be an
// address, a contract id or the bare name of a deployed contract.
func (n *Network) Balance(ctx context.Context, principal string) (clarity.UInt, error) {
	return n.store.Balance(ctx, n.ResolvePrincipal(principal))
}

// ResolvePrincipal maps an identity name or deployed contract name to its
// principal id. Anything else is returned with a leading quote removed.
func (n *Network) ResolvePrincipal(s string) string {
	if id, ok := n.accounts.ByName(s); ok {
		return id.Address
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if d, ok := n.contracts[s]; ok {
		return d.record.ID
	}
	return strings.TrimPrefix(s, "'")
}

// Contracts returns deployed contracts in deployment order.
func (n *Network) Contracts() []store.ContractRecord {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]store.ContractRecord, 0, len(n.order))
	for _, name := range n.order {
		out = append(out, n.contracts[name].record)
	}
	return out
}

// Manifest returns the compiled manifest of a deployed contract.
func (n *Network) Manifest(contractName string) (*manifest.Contract, error) {
	d, err := n.lookup(contractName)
	if err != nil {
		return nil, err
	}
	return d.spec, nil
}

// Transactions returns the most recent limit transactions, or all of them
// when limit is zero.
func (n *Network) Transactions(ctx context.Context, limit int) ([]store.TxRecord, error) {
	return n.store.Transactions(ctx, limit)
}

// Receipt returns a transaction receipt.
func (n *Network) Receipt(ctx context.Context, txID string) (store.Receipt, bool, error) {
	return n.store.Receipt(ctx, txID)
}

// lookup resolves a contract by name or full id.
func (n *Network) lookup(contractName string) (*deployed, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	name := contractName
	if i := strings.LastIndexByte(contractName, '.'); i >= 0 {
		name = contractName[i+1:]
	}
	d, ok := n.contracts[name]
	if !ok || (name != contractName && d.record.ID != contractName) {
		return nil, &Error{
			Code:     ErrCodeContractNotFound,
			Message:  "no such contract",
			Contract: contractName,
		}
	}
	return d, nil
}
