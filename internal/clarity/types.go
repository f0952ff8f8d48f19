package clarity

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Type is a Clarity type signature used to check arguments and stored data.
type Type interface {
	// Admits reports whether v is a member of the type.
	Admits(v Value) bool
	String() string
}

type simpleType string

// Atomic types.
const (
	UIntType      simpleType = "uint"
	IntType       simpleType = "int"
	BoolType      simpleType = "bool"
	PrincipalType simpleType = "principal"
)

func (t simpleType) String() string { return string(t) }

func (t simpleType) Admits(v Value) bool {
	switch v.(type) {
	case UInt:
		return t == UIntType
	case Int:
		return t == IntType
	case Bool:
		return t == BoolType
	case Principal:
		return t == PrincipalType
	}
	return false
}

// StringASCIIType is (string-ascii N).
type StringASCIIType struct {
	MaxLen int
}

func (t StringASCIIType) String() string { return fmt.Sprintf("(string-ascii %d)", t.MaxLen) }

func (t StringASCIIType) Admits(v Value) bool {
	s, ok := v.(StringASCII)
	return ok && len(s) <= t.MaxLen
}

// ListType is (list N T).
type ListType struct {
	MaxLen int
	Elem   Type
}

func (t ListType) String() string { return fmt.Sprintf("(list %d %s)", t.MaxLen, t.Elem) }

func (t ListType) Admits(v Value) bool {
	l, ok := v.(List)
	if !ok || len(l) > t.MaxLen {
		return false
	}
	for _, elem := range l {
		if !t.Elem.Admits(elem) {
			return false
		}
	}
	return true
}

// OptionalType is (optional T).
type OptionalType struct {
	Elem Type
}

func (t OptionalType) String() string { return fmt.Sprintf("(optional %s)", t.Elem) }

func (t OptionalType) Admits(v Value) bool {
	o, ok := v.(Optional)
	if !ok {
		return false
	}
	return o.IsNone() || t.Elem.Admits(o.Some)
}

// ResponseType is (response T E).
type ResponseType struct {
	Ok  Type
	Err Type
}

func (t ResponseType) String() string { return fmt.Sprintf("(response %s %s)", t.Ok, t.Err) }

func (t ResponseType) Admits(v Value) bool {
	r, ok := v.(Response)
	if !ok {
		return false
	}
	if r.Ok {
		return t.Ok.Admits(r.Value)
	}
	return t.Err.Admits(r.Value)
}

// TupleType is (tuple (name T) ...).
type TupleType struct {
	Fields map[string]Type
}

func (t TupleType) String() string {
	keys := make([]string, 0, len(t.Fields))
	for k := range t.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString("(tuple")
	for _, k := range keys {
		fmt.Fprintf(&b, " (%s %s)", k, t.Fields[k])
	}
	b.WriteByte(')')
	return b.String()
}

func (t TupleType) Admits(v Value) bool {
	tv, ok := v.(Tuple)
	if !ok || len(tv) != len(t.Fields) {
		return false
	}
	for name, ft := range t.Fields {
		fv, present := tv[name]
		if !present || !ft.Admits(fv) {
			return false
		}
	}
	return true
}

// ParseType reads a type signature such as uint, (list 10 uint) or
// (optional principal).
func ParseType(src string) (Type, error) {
	n, err := parseExpr(src)
	if err != nil {
		return nil, err
	}
	return typeFromNode(src, n)
}

func typeFromNode(src string, n node) (Type, error) {
	fail := func(offset int, format string, args ...any) error {
		return &ParseError{Input: src, Offset: offset, Message: fmt.Sprintf(format, args...)}
	}

	switch n.kind {
	case stringNode:
		return nil, fail(n.offset, "expected type, found string")
	case atomNode:
		switch t := simpleType(n.text); t {
		case UIntType, IntType, BoolType, PrincipalType:
			return t, nil
		}
		return nil, fail(n.offset, "unknown type %q", n.text)
	}

	if len(n.children) == 0 || n.children[0].kind != atomNode {
		return nil, fail(n.offset, "expected type constructor")
	}
	head, args := n.children[0].text, n.children[1:]

	sizeArg := func(a node) (int, error) {
		if a.kind != atomNode || !isDigits(a.text) {
			return 0, fail(a.offset, "expected length, found %q", a.text)
		}
		size, err := strconv.Atoi(a.text)
		if err != nil {
			return 0, fail(a.offset, "length out of range: %s", a.text)
		}
		return size, nil
	}

	switch head {
	case "string-ascii":
		if len(args) != 1 {
			return nil, fail(n.offset, "string-ascii takes a length")
		}
		size, err := sizeArg(args[0])
		if err != nil {
			return nil, err
		}
		return StringASCIIType{MaxLen: size}, nil
	case "list":
		if len(args) != 2 {
			return nil, fail(n.offset, "list takes a length and an element type")
		}
		size, err := sizeArg(args[0])
		if err != nil {
			return nil, err
		}
		elem, err := typeFromNode(src, args[1])
		if err != nil {
			return nil, err
		}
		return ListType{MaxLen: size, Elem: elem}, nil
	case "optional":
		if len(args) != 1 {
			return nil, fail(n.offset, "optional takes one type")
		}
		elem, err := typeFromNode(src, args[0])
		if err != nil {
			return nil, err
		}
		return OptionalType{Elem: elem}, nil
	case "response":
		if len(args) != 2 {
			return nil, fail(n.offset, "response takes ok and err types")
		}
		okType, err := typeFromNode(src, args[0])
		if err != nil {
			return nil, err
		}
		errType, err := typeFromNode(src, args[1])
		if err != nil {
			return nil, err
		}
		return ResponseType{Ok: okType, Err: errType}, nil
	case "tuple":
		fields := make(map[string]Type, len(args))
		for _, f := range args {
			if f.kind != listNode || len(f.children) != 2 || f.children[0].kind != atomNode {
				return nil, fail(f.offset, "tuple field must be (name type)")
			}
			ft, err := typeFromNode(src, f.children[1])
			if err != nil {
				return nil, err
			}
			fields[f.children[0].text] = ft
		}
		return TupleType{Fields: fields}, nil
	}
	return nil, fail(n.offset, "unknown type constructor %q", head)
}
