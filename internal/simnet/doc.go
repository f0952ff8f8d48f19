// Package simnet is an in-process simulated Stacks-style network.
//
// A Network owns a store, a fixed pool of funded identities and the
// contracts deployed on it. Contracts are native Go implementations bound
// to CUE manifests; the network signs every call with the sender's key,
// recovers the sender from the signature, checks arguments against the
// manifest, runs the function inside a store transaction and mines one block
// per transaction.
//
// Outcomes follow the chain's rules:
//   - (ok ...) commits the call's writes
//   - (err ...) and runtime aborts roll them back
//   - either way the nonce is consumed and a receipt is recorded
//
// Read-only queries run in a transaction that is always rolled back.
package simnet
