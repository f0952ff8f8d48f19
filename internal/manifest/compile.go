package manifest

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/simnet/internal/clarity"
	"github.com/roach88/simnet/internal/tx"
)

//go:embed schema.cue
var schemaSource []byte

type rawContract struct {
	Implementation string                 `json:"implementation"`
	Description    string                 `json:"description"`
	Constants      map[string]string      `json:"constants"`
	Errors         map[string]int64       `json:"errors"`
	DataVars       map[string]rawDataVar  `json:"data-vars"`
	Maps           map[string]rawMap      `json:"maps"`
	Functions      map[string]rawFunction `json:"functions"`
}

type rawDataVar struct {
	Type    string `json:"type"`
	Initial string `json:"initial"`
}

type rawMap struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type rawFunction struct {
	Access  string   `json:"access"`
	Args    []rawArg `json:"args"`
	Returns string   `json:"returns"`
}

type rawArg struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// LoadFile reads and compiles a manifest from disk. The source bytes are
// returned alongside so callers can record what was deployed.
func LoadFile(path string) (*Contract, []byte, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read manifest: %w", err)
	}
	c, err := Compile(path, src)
	if err != nil {
		return nil, nil, err
	}
	return c, src, nil
}

// Compile parses a manifest holding exactly one contract under the
// top-level "contract" field.
func Compile(filename string, src []byte) (*Contract, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("manifest schema: %w", err)
	}
	schemaDef := schema.LookupPath(cue.ParsePath("#Contract"))

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError("", err)
	}

	contracts := v.LookupPath(cue.ParsePath("contract"))
	if !contracts.Exists() {
		return nil, &CompileError{Field: "contract", Message: "manifest must define a contract", Pos: v.Pos()}
	}
	iter, err := contracts.Fields()
	if err != nil {
		return nil, formatCUEError("", err)
	}

	var (
		name     string
		fieldVal cue.Value
		count    int
	)
	for iter.Next() {
		count++
		name, fieldVal = iter.Label(), iter.Value()
	}
	if count != 1 {
		return nil, &CompileError{
			Field:   "contract",
			Message: fmt.Sprintf("manifest must define exactly one contract, found %d", count),
			Pos:     contracts.Pos(),
		}
	}

	unified := schemaDef.Unify(fieldVal)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(name, err)
	}

	var raw rawContract
	if err := unified.Decode(&raw); err != nil {
		return nil, formatCUEError(name, err)
	}

	c, err := build(name, fieldVal, &raw)
	if err != nil {
		return nil, err
	}
	c.SourceHash = tx.SourceHash(src)
	return c, nil
}

func build(name string, v cue.Value, raw *rawContract) (*Contract, error) {
	fail := func(msg string, path ...string) error {
		sels := make([]cue.Selector, len(path))
		for i, p := range path {
			sels[i] = cue.Str(p)
		}
		return &CompileError{
			Contract: name,
			Field:    strings.Join(path, "."),
			Message:  msg,
			Pos:      v.LookupPath(cue.MakePath(sels...)).Pos(),
		}
	}

	c := &Contract{
		Name:           name,
		Implementation: raw.Implementation,
		Description:    raw.Description,
		Constants:      make(map[string]clarity.Value, len(raw.Constants)),
		Errors:         make(map[string]clarity.UInt, len(raw.Errors)),
		DataVars:       make(map[string]DataVar, len(raw.DataVars)),
		Maps:           make(map[string]Map, len(raw.Maps)),
		Functions:      make(map[string]Function, len(raw.Functions)),
	}

	for k, lit := range raw.Constants {
		val, err := clarity.Parse(lit)
		if err != nil {
			return nil, fail(err.Error(), "constants", k)
		}
		c.Constants[k] = val
	}

	codes := make(map[int64]string, len(raw.Errors))
	for _, k := range sortedKeys(raw.Errors) {
		code := raw.Errors[k]
		if prev, dup := codes[code]; dup {
			return nil, fail(fmt.Sprintf("error code %d already used by %s", code, prev), "errors", k)
		}
		codes[code] = k
		c.Errors[k] = clarity.NewUInt(uint64(code))
	}

	for k, dv := range raw.DataVars {
		typ, err := clarity.ParseType(dv.Type)
		if err != nil {
			return nil, fail(err.Error(), "data-vars", k, "type")
		}
		initial, err := clarity.Parse(dv.Initial)
		if err != nil {
			return nil, fail(err.Error(), "data-vars", k, "initial")
		}
		if !typ.Admits(initial) {
			return nil, fail(fmt.Sprintf("initial value %s is not a %s", initial, typ), "data-vars", k, "initial")
		}
		c.DataVars[k] = DataVar{Name: k, Type: typ, Initial: initial}
	}

	for k, m := range raw.Maps {
		keyType, err := clarity.ParseType(m.Key)
		if err != nil {
			return nil, fail(err.Error(), "maps", k, "key")
		}
		valType, err := clarity.ParseType(m.Value)
		if err != nil {
			return nil, fail(err.Error(), "maps", k, "value")
		}
		c.Maps[k] = Map{Name: k, Key: keyType, Value: valType}
	}

	if len(raw.Functions) == 0 {
		return nil, fail("at least one function is required", "functions")
	}
	for k, f := range raw.Functions {
		fn := Function{Name: k, Access: Access(f.Access)}
		seen := make(map[string]bool, len(f.Args))
		for i, a := range f.Args {
			if seen[a.Name] {
				return nil, fail(fmt.Sprintf("duplicate argument %q", a.Name), "functions", k, "args")
			}
			seen[a.Name] = true
			typ, err := clarity.ParseType(a.Type)
			if err != nil {
				return nil, fail(fmt.Sprintf("arg %d: %v", i, err), "functions", k, "args")
			}
			fn.Args = append(fn.Args, Arg{Name: a.Name, Type: typ})
		}
		if f.Returns != "" {
			typ, err := clarity.ParseType(f.Returns)
			if err != nil {
				return nil, fail(err.Error(), "functions", k, "returns")
			}
			if _, isResponse := typ.(clarity.ResponseType); fn.Access == AccessPublic && !isResponse {
				return nil, fail("public functions must return a response", "functions", k, "returns")
			}
			fn.Returns = typ
		}
		c.Functions[k] = fn
	}

	return c, nil
}
