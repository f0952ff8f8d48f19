package store

import "github.com/roach88/simnet/internal/clarity"

// Account is a principal's balance and nonce.
type Account struct {
	Principal string
	Balance   clarity.UInt
	Nonce     uint64
}

// ContractRecord is a deployed contract.
type ContractRecord struct {
	ID         string // deployer.name
	Name       string
	Deployer   string
	SourcePath string
	Source     string
	SourceHash string
	Height     uint64
}

// TxRecord is a mined transaction.
type TxRecord struct {
	ID        string
	Kind      string
	Sender    string
	Nonce     uint64
	Contract  string
	Function  string
	Args      []string
	Amount    string
	Signature string
	Height    uint64
}

// Receipt is the outcome of a mined transaction.
type Receipt struct {
	TxID    string
	Success bool
	Result  string // literal response, empty for aborted calls
	Error   string
	Events  []string
	Height  uint64
}

// Entry is a stored data var or map entry.
type Entry struct {
	Kind  string
	Name  string
	Key   string
	Value clarity.Value
}

// Data kinds.
const (
	KindVar = "var"
	KindMap = "map"
)
