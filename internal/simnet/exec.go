package simnet

import (
	"context"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/sirupsen/logrus"

	"github.com/roach88/simnet/internal/identity"
	"github.com/roach88/simnet/internal/store"
	"github.com/roach88/simnet/internal/tx"
)

func parseSenderKey(key string) (*secp256k1.PrivateKey, error) {
	priv, err := identity.ParsePrivateKey(key)
	if err != nil {
		return nil, &Error{Code: ErrCodeBadSignature, Message: fmt.Sprintf("sender key: %v", err)}
	}
	return priv, nil
}

// addressOf returns the account address controlled by key.
func (n *Network) addressOf(key *secp256k1.PrivateKey) string {
	return identity.AddressFromPublicKey(key.PubKey(), n.devnet.AddressVersion())
}

// signedTx is a transaction after signing, with the sender recovered from
// its signature.
type signedTx struct {
	tx     *tx.Transaction
	id     string
	sender string
}

// sign fills in the sender's next nonce, signs t and recovers the sender.
func (n *Network) sign(ctx context.Context, t *tx.Transaction, key *secp256k1.PrivateKey) (*signedTx, error) {
	claimed := n.addressOf(key)
	acct, _, err := n.store.Account(ctx, claimed)
	if err != nil {
		return nil, err
	}
	t.Nonce = acct.Nonce

	if err := t.Sign(key); err != nil {
		return nil, &Error{Code: ErrCodeBadSignature, Message: err.Error()}
	}
	pub, err := t.RecoverSigner()
	if err != nil {
		return nil, &Error{Code: ErrCodeBadSignature, Message: err.Error()}
	}
	sender := identity.AddressFromPublicKey(pub, n.devnet.AddressVersion())
	if sender != claimed {
		return nil, &Error{Code: ErrCodeBadSignature, Message: "recovered signer does not match sender key"}
	}
	id, err := t.ID()
	if err != nil {
		return nil, &Error{Code: ErrCodeBadSignature, Message: err.Error()}
	}
	return &signedTx{tx: t, id: id, sender: sender}, nil
}

// mine records a transaction and its receipt inside w, consumes the
// sender's nonce and advances the recorded tip to height.
func (n *Network) mine(ctx context.Context, w *store.Tx, st *signedTx, receipt store.Receipt, height uint64) error {
	if _, err := w.IncrementNonce(ctx, st.sender); err != nil {
		return err
	}
	err := w.InsertTransaction(ctx, store.TxRecord{
		ID:        st.id,
		Kind:      string(st.tx.Kind),
		Sender:    st.sender,
		Nonce:     st.tx.Nonce,
		Contract:  st.tx.Contract,
		Function:  st.tx.Function,
		Args:      st.tx.Args,
		Amount:    st.tx.Amount,
		Signature: st.tx.Signature,
		Height:    height,
	})
	if err != nil {
		return err
	}
	receipt.TxID = st.id
	receipt.Height = height
	if err := w.InsertReceipt(ctx, receipt); err != nil {
		return err
	}
	return w.SetHeight(ctx, height)
}

// mineFresh records a transaction in its own store transaction, used after
// the execution transaction was rolled back.
func (n *Network) mineFresh(ctx context.Context, st *signedTx, receipt store.Receipt, height uint64) error {
	w, err := n.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer w.Rollback()
	if err := n.mine(ctx, w, st, receipt, height); err != nil {
		return err
	}
	return w.Commit()
}

// advance publishes a mined block.
func (n *Network) advance(kind tx.Kind, status string) uint64 {
	h := n.clock.Advance()
	n.metrics.transactions.WithLabelValues(string(kind), status).Inc()
	n.metrics.blockHeight.Set(float64(h))
	return h
}

func txFields(st *signedTx) logrus.Fields {
	return logrus.Fields{
		"tx_id":    st.id,
		"contract": st.tx.Contract,
		"function": st.tx.Function,
		"sender":   st.sender,
	}
}
