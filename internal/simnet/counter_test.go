package simnet

import (
	"fmt"

	"github.com/roach88/simnet/internal/clarity"
	"github.com/roach88/simnet/internal/manifest"
)

const counterManifest = "testdata/counter.cue"

// counter is a minimal contract exercising every Context capability.
type counter struct{}

func newCounter(*manifest.Contract) (Contract, error) {
	return counter{}, nil
}

func testRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister("counter@v1", newCounter)
	return r
}

func (counter) Init(c *Context) error {
	return c.VarSet("init-ran", clarity.Bool(true))
}

func (counter) Call(c *Context, fn string, args []clarity.Value) (clarity.Value, error) {
	switch fn {
	case "increment":
		return bump(c, 1)
	case "write-then-fail":
		if _, err := bump(c, 100); err != nil {
			return nil, err
		}
		return c.Err("ERR-REJECTED")
	case "fail-untagged":
		return clarity.Err(clarity.NewUInt(42)), nil
	case "deposit":
		amount := args[0].(clarity.UInt)
		resp, err := c.StxTransfer(amount, c.Sender, c.ContractPrincipal)
		if err != nil || !resp.Ok {
			return resp, err
		}
		if err := c.MapSet("deposits", c.Sender, amount); err != nil {
			return nil, err
		}
		return clarity.Ok(amount), nil
	case "pay-deployer":
		amount := args[0].(clarity.UInt)
		resp, err := c.StxTransfer(amount, c.Sender, c.Deployer)
		if err != nil || !resp.Ok {
			return resp, err
		}
		return clarity.Ok(amount), nil
	case "boom":
		return nil, Abort("boom at height %d", c.BlockHeight)
	case "get-count":
		return c.VarGet("count")
	case "get-deposit":
		return c.MapGet("deposits", args[0])
	case "get-init-ran":
		return c.VarGet("init-ran")
	case "register":
		inserted, err := c.MapInsert("members", c.Sender, clarity.Bool(true))
		if err != nil {
			return nil, err
		}
		if !inserted {
			return c.Err("ERR-REJECTED")
		}
		return clarity.Ok(clarity.Bool(true)), nil
	case "unregister":
		deleted, err := c.MapDelete("members", c.Sender)
		if err != nil {
			return nil, err
		}
		return clarity.Ok(clarity.Bool(deleted)), nil
	case "register-height":
		if _, err := c.MapInsert("members", clarity.NewUInt(c.BlockHeight), clarity.Bool(true)); err != nil {
			return nil, err
		}
		return clarity.Ok(clarity.Bool(true)), nil
	case "get-member":
		return c.MapGet("members", args[0])
	case "describe":
		return describe(c), nil
	case "describe-call":
		return clarity.Ok(describe(c)), nil
	case "sneaky-insert":
		if _, err := c.MapInsert("members", c.Sender, clarity.Bool(true)); err != nil {
			return nil, err
		}
		return clarity.Bool(true), nil
	case "sneaky-delete":
		if _, err := c.MapDelete("members", c.Sender); err != nil {
			return nil, err
		}
		return clarity.Bool(true), nil
	case "sneaky-write":
		if err := c.VarSet("count", clarity.NewUInt(7)); err != nil {
			return nil, err
		}
		return clarity.Bool(true), nil
	}
	return nil, fmt.Errorf("unhandled function %s", fn)
}

func describe(c *Context) clarity.Tuple {
	return clarity.Tuple{
		"function":  clarity.StringASCII(c.Function()),
		"read-only": clarity.Bool(c.ReadOnly()),
	}
}

func bump(c *Context, times uint64) (clarity.Value, error) {
	v, err := c.VarGet("count")
	if err != nil {
		return nil, err
	}
	step, err := c.UIntConstant("step")
	if err != nil {
		return nil, err
	}
	next := v.(clarity.UInt)
	for i := uint64(0); i < times; i++ {
		if next, err = next.Add(step); err != nil {
			return nil, err
		}
	}
	if err := c.VarSet("count", next); err != nil {
		return nil, err
	}
	c.Print(next)
	return clarity.Ok(next), nil
}
