// Package manifest compiles contract manifests.
//
// A manifest is a CUE file that binds a deployable contract to its native
// implementation and declares everything the simulator needs to host it:
// constants, named error codes, data vars with initial values, maps and
// typed function signatures.
//
//	contract: "fantasy-sports": {
//		implementation: "fantasy-sports@v1"
//		errors: "ERR-NOT-AUTHORIZED": 100
//		"data-vars": "prize-pool": {type: "uint", initial: "u0"}
//		functions: "join-league": {access: "public", returns: "(response bool uint)"}
//	}
package manifest

import (
	"sort"

	"github.com/roach88/simnet/internal/clarity"
)

// Access distinguishes state-changing entry points from read-only accessors.
type Access string

const (
	AccessPublic   Access = "public"
	AccessReadOnly Access = "read-only"
)

// Contract is a compiled manifest.
type Contract struct {
	Name           string
	Implementation string
	Description    string
	SourceHash     string

	Constants map[string]clarity.Value
	Errors    map[string]clarity.UInt
	DataVars  map[string]DataVar
	Maps      map[string]Map
	Functions map[string]Function
}

// DataVar is a declared (define-data-var ...).
type DataVar struct {
	Name    string
	Type    clarity.Type
	Initial clarity.Value
}

// Map is a declared (define-map ...).
type Map struct {
	Name  string
	Key   clarity.Type
	Value clarity.Type
}

// Function is a declared entry point.
type Function struct {
	Name    string
	Access  Access
	Args    []Arg
	Returns clarity.Type // nil when undeclared
}

// Arg is a positional function argument.
type Arg struct {
	Name string
	Type clarity.Type
}

// Function looks up a function by name.
func (c *Contract) Function(name string) (Function, bool) {
	fn, ok := c.Functions[name]
	return fn, ok
}

// ErrorName maps an error code back to its declared constant name.
func (c *Contract) ErrorName(code clarity.UInt) (string, bool) {
	for _, name := range sortedKeys(c.Errors) {
		if c.Errors[name].Cmp(code) == 0 {
			return name, true
		}
	}
	return "", false
}

// DataVarNames returns var names in sorted order.
func (c *Contract) DataVarNames() []string {
	return sortedKeys(c.DataVars)
}

// FunctionNames returns function names in sorted order.
func (c *Contract) FunctionNames() []string {
	return sortedKeys(c.Functions)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
