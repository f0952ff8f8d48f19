package clarity

import (
	"encoding/json"
	"fmt"
)

// jsonValue is the tagged storage encoding of a Value.
// Uints are carried as decimal strings so 128-bit values survive JSON.
type jsonValue struct {
	Type  string          `json:"type"`
	Ok    *bool           `json:"ok,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Encode serializes v to the tagged JSON form used by the store.
func Encode(v Value) ([]byte, error) {
	jv, err := toJSONValue(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(jv)
}

func toJSONValue(v Value) (jsonValue, error) {
	raw := func(x any) (json.RawMessage, error) {
		b, err := json.Marshal(x)
		return json.RawMessage(b), err
	}

	var (
		jv  jsonValue
		err error
	)
	switch val := v.(type) {
	case UInt:
		jv.Type = "uint"
		jv.Value, err = raw(val.Dec())
	case Int:
		jv.Type = "int"
		jv.Value, err = raw(int64(val))
	case Bool:
		jv.Type = "bool"
		jv.Value, err = raw(bool(val))
	case Principal:
		jv.Type = "principal"
		jv.Value, err = raw(val.ID())
	case StringASCII:
		jv.Type = "string-ascii"
		jv.Value, err = raw(string(val))
	case List:
		jv.Type = "list"
		elems := make([]jsonValue, len(val))
		for i, e := range val {
			if elems[i], err = toJSONValue(e); err != nil {
				return jsonValue{}, fmt.Errorf("list[%d]: %w", i, err)
			}
		}
		jv.Value, err = raw(elems)
	case Tuple:
		jv.Type = "tuple"
		fields := make(map[string]jsonValue, len(val))
		for k, e := range val {
			if fields[k], err = toJSONValue(e); err != nil {
				return jsonValue{}, fmt.Errorf("tuple[%q]: %w", k, err)
			}
		}
		jv.Value, err = raw(fields)
	case Optional:
		jv.Type = "optional"
		if !val.IsNone() {
			inner, innerErr := toJSONValue(val.Some)
			if innerErr != nil {
				return jsonValue{}, fmt.Errorf("some: %w", innerErr)
			}
			jv.Value, err = raw(inner)
		}
	case Response:
		jv.Type = "response"
		ok := val.Ok
		jv.Ok = &ok
		inner, innerErr := toJSONValue(val.Value)
		if innerErr != nil {
			return jsonValue{}, fmt.Errorf("response: %w", innerErr)
		}
		jv.Value, err = raw(inner)
	default:
		return jsonValue{}, fmt.Errorf("unsupported value type %T", v)
	}
	return jv, err
}

// Decode parses the tagged JSON form produced by Encode.
func Decode(data []byte) (Value, error) {
	var jv jsonValue
	if err := json.Unmarshal(data, &jv); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return fromJSONValue(jv)
}

func fromJSONValue(jv jsonValue) (Value, error) {
	switch jv.Type {
	case "uint":
		var s string
		if err := json.Unmarshal(jv.Value, &s); err != nil {
			return nil, fmt.Errorf("uint: %w", err)
		}
		return ParseUIntDecimal(s)
	case "int":
		var i int64
		if err := json.Unmarshal(jv.Value, &i); err != nil {
			return nil, fmt.Errorf("int: %w", err)
		}
		return Int(i), nil
	case "bool":
		var b bool
		if err := json.Unmarshal(jv.Value, &b); err != nil {
			return nil, fmt.Errorf("bool: %w", err)
		}
		return Bool(b), nil
	case "principal":
		var s string
		if err := json.Unmarshal(jv.Value, &s); err != nil {
			return nil, fmt.Errorf("principal: %w", err)
		}
		return ParsePrincipal(s)
	case "string-ascii":
		var s string
		if err := json.Unmarshal(jv.Value, &s); err != nil {
			return nil, fmt.Errorf("string-ascii: %w", err)
		}
		return StringASCII(s), nil
	case "list":
		var elems []jsonValue
		if err := json.Unmarshal(jv.Value, &elems); err != nil {
			return nil, fmt.Errorf("list: %w", err)
		}
		list := make(List, len(elems))
		for i, e := range elems {
			v, err := fromJSONValue(e)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			list[i] = v
		}
		return list, nil
	case "tuple":
		var fields map[string]jsonValue
		if err := json.Unmarshal(jv.Value, &fields); err != nil {
			return nil, fmt.Errorf("tuple: %w", err)
		}
		t := make(Tuple, len(fields))
		for k, e := range fields {
			v, err := fromJSONValue(e)
			if err != nil {
				return nil, fmt.Errorf("tuple[%q]: %w", k, err)
			}
			t[k] = v
		}
		return t, nil
	case "optional":
		if len(jv.Value) == 0 || string(jv.Value) == "null" {
			return None, nil
		}
		var inner jsonValue
		if err := json.Unmarshal(jv.Value, &inner); err != nil {
			return nil, fmt.Errorf("optional: %w", err)
		}
		v, err := fromJSONValue(inner)
		if err != nil {
			return nil, fmt.Errorf("some: %w", err)
		}
		return Some(v), nil
	case "response":
		if jv.Ok == nil {
			return nil, fmt.Errorf("response: missing ok flag")
		}
		var inner jsonValue
		if err := json.Unmarshal(jv.Value, &inner); err != nil {
			return nil, fmt.Errorf("response: %w", err)
		}
		v, err := fromJSONValue(inner)
		if err != nil {
			return nil, fmt.Errorf("response: %w", err)
		}
		return Response{Ok: *jv.Ok, Value: v}, nil
	}
	return nil, fmt.Errorf("unknown value type %q", jv.Type)
}
