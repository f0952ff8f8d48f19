// Package contracts wires the native contract implementations the
// simulator can host.
package contracts

import (
	"github.com/roach88/simnet/internal/contracts/fantasy"
	"github.com/roach88/simnet/internal/simnet"
)

// Default returns a registry holding every bundled implementation.
func Default() *simnet.Registry {
	r := simnet.NewRegistry()
	r.MustRegister(fantasy.ID, fantasy.New)
	return r
}
