// Package store provides SQLite-backed state for a simulated network.
//
// The store holds:
//   - Accounts: µSTX balances and nonces per principal
//   - Contracts: deployed manifests with their source and source hash
//   - Contract data: data vars and map entries as typed JSON plus their literal form
//   - Transactions and receipts: the append-only log of everything mined
//   - Chain metadata: the tip height
//
// Contract execution runs inside a Tx so a failed call can be rolled back
// without touching committed state. Reads and writes are available on both
// Store and Tx with the same method set.
//
// # Database Configuration
//
//   - WAL mode for file-backed databases
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
//   - a single connection, which keeps ":memory:" databases alive for the
//     lifetime of the Store
package store
