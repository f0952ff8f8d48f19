package simnet

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/roach88/simnet/internal/clarity"
	"github.com/roach88/simnet/internal/store"
	"github.com/roach88/simnet/internal/tx"
)

// DeployRequest deploys the manifest at Path under ContractName.
// An empty ContractName uses the name declared in the manifest.
type DeployRequest struct {
	ContractName string
	SenderKey    string
	Path         string
}

// DeployResult identifies a deployed contract.
type DeployResult struct {
	ContractID string
	TxID       string
	Height     uint64
	Events     []string
}

// Deploy compiles a manifest, binds its implementation, initializes its
// data vars, runs the implementation's Init and mines the deployment.
// Any failure leaves the chain unchanged.
func (n *Network) Deploy(ctx context.Context, req DeployRequest) (*DeployResult, error) {
	n.exec.Lock()
	defer n.exec.Unlock()

	key, err := parseSenderKey(req.SenderKey)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(req.Path)
	if err != nil {
		return nil, fmt.Errorf("deploy %s: %w", req.ContractName, err)
	}
	spec, err := n.manifests.Compile(req.Path, src)
	if err != nil {
		return nil, fmt.Errorf("deploy %s: %w", req.ContractName, err)
	}

	name := req.ContractName
	if name == "" {
		name = spec.Name
	}
	n.mu.Lock()
	_, exists := n.contracts[name]
	n.mu.Unlock()
	if exists {
		return nil, &Error{Code: ErrCodeContractExists, Message: "contract name already deployed", Contract: name}
	}

	impl, err := n.instantiate(spec)
	if err != nil {
		return nil, err
	}

	t := &tx.Transaction{Kind: tx.KindDeploy, SourceHash: spec.SourceHash}
	deployer := clarity.StandardPrincipal(n.addressOf(key))
	self := clarity.ContractPrincipal(deployer.Address, name)
	if _, err := clarity.ParsePrincipal(self.ID()); err != nil {
		return nil, &Error{Code: ErrCodeBadArguments, Message: fmt.Sprintf("invalid contract name %q", name), Contract: name}
	}
	t.Contract = self.ID()

	st, err := n.sign(ctx, t, key)
	if err != nil {
		return nil, err
	}
	height := n.clock.Peek()

	w, err := n.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer w.Rollback()

	d := &deployed{
		record: store.ContractRecord{
			ID:         self.ID(),
			Name:       name,
			Deployer:   st.sender,
			SourcePath: req.Path,
			Source:     string(src),
			SourceHash: spec.SourceHash,
			Height:     height,
		},
		spec: spec,
		impl: impl,
	}
	if err := w.InsertContract(ctx, d.record); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, &Error{Code: ErrCodeContractExists, Message: "contract id already recorded", Contract: name}
		}
		return nil, err
	}
	for _, varName := range spec.DataVarNames() {
		if err := w.SetVar(ctx, d.record.ID, varName, spec.DataVars[varName].Initial); err != nil {
			return nil, err
		}
	}

	c := n.newContext(ctx, w, d, deployer, clarity.NewUInt(0), height, "", false)
	if err := impl.Init(c); err != nil {
		return nil, fmt.Errorf("deploy %s: init: %w", name, err)
	}

	receipt := store.Receipt{Success: true, Events: c.Events()}
	if err := n.mine(ctx, w, st, receipt, height); err != nil {
		return nil, err
	}
	if err := w.Commit(); err != nil {
		return nil, err
	}
	n.advance(tx.KindDeploy, statusSuccess)

	n.mu.Lock()
	n.contracts[name] = d
	n.order = append(n.order, name)
	n.mu.Unlock()

	log.WithFields(txFields(st)).WithField("height", height).Debug("Contract deployed")
	return &DeployResult{ContractID: d.record.ID, TxID: st.id, Height: height, Events: receipt.Events}, nil
}
