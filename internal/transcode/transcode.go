// Package transcode converts bencode values to and from JSON, CBOR and
// MessagePack documents.
package transcode

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/al002/zbencode/pkg/bencode"
	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"
)

type Format string

const (
	JSON    Format = "json"
	CBOR    Format = "cbor"
	Msgpack Format = "msgpack"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case JSON, CBOR, Msgpack:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want json, cbor or msgpack)", s)
	}
}

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error

	// Core deterministic encoding keeps output byte-stable, like bencode itself.
	cborEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}

	cborDec, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(err)
	}
}

// JSON has no byte string type. Strings that are not valid UTF-8 are written
// as {"$bytes": "<base64>"}, and a dict whose only key is one of these tag
// keys is wrapped as {"$dict": {...}} so it reads back unchanged.
const (
	jsonBytesKey = "$bytes"
	jsonDictKey  = "$dict"
)

// Marshal renders v in format f.
func Marshal(f Format, v bencode.Value) ([]byte, error) {
	switch f {
	case JSON:
		return json.MarshalIndent(toJSONNative(v), "", "  ")
	case CBOR:
		return cborEnc.Marshal(ToNative(v))
	case Msgpack:
		return msgpack.Marshal(ToNative(v))
	default:
		return nil, fmt.Errorf("unknown format %q", f)
	}
}

// Unmarshal parses a document in format f into a bencode value.
func Unmarshal(f Format, data []byte) (bencode.Value, error) {
	var native interface{}

	switch f {
	case JSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&native); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		return fromJSONNative(native)
	case CBOR:
		if err := cborDec.Unmarshal(data, &native); err != nil {
			return nil, fmt.Errorf("decode cbor: %w", err)
		}
	case Msgpack:
		if err := msgpack.Unmarshal(data, &native); err != nil {
			return nil, fmt.Errorf("decode msgpack: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown format %q", f)
	}

	return FromNative(native)
}

// ToNative maps a value onto plain Go types. Strings that are not valid
// UTF-8 stay []byte, which CBOR and MessagePack carry as byte strings.
func ToNative(v bencode.Value) interface{} {
	switch v := v.(type) {
	case bencode.Integer:
		return int64(v)
	case bencode.String:
		if utf8.Valid(v) {
			return string(v)
		}
		return []byte(v)
	case bencode.List:
		list := make([]interface{}, len(v))
		for i, item := range v {
			list[i] = ToNative(item)
		}
		return list
	case bencode.Dict:
		dict := make(map[string]interface{}, len(v))
		for k, item := range v {
			dict[k] = ToNative(item)
		}
		return dict
	}

	return nil
}

// FromNative maps the output of the JSON, CBOR and MessagePack decoders onto
// bencode values. Booleans become 0 or 1. Null and fractional numbers have no
// bencode form and are rejected.
func FromNative(x interface{}) (bencode.Value, error) {
	switch x := x.(type) {
	case nil:
		return nil, fmt.Errorf("null has no bencode representation")
	case bool:
		if x {
			return bencode.Integer(1), nil
		}
		return bencode.Integer(0), nil
	case int:
		return bencode.Integer(x), nil
	case int8:
		return bencode.Integer(x), nil
	case int16:
		return bencode.Integer(x), nil
	case int32:
		return bencode.Integer(x), nil
	case int64:
		return bencode.Integer(x), nil
	case uint:
		return fromUint(uint64(x))
	case uint8:
		return bencode.Integer(x), nil
	case uint16:
		return bencode.Integer(x), nil
	case uint32:
		return bencode.Integer(x), nil
	case uint64:
		return fromUint(x)
	case float32:
		return fromFloat(float64(x))
	case float64:
		return fromFloat(x)
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return nil, fmt.Errorf("number %s is not a 64-bit integer", x)
		}
		return bencode.Integer(n), nil
	case string:
		return bencode.String(x), nil
	case []byte:
		return bencode.String(bytes.Clone(x)), nil
	case []interface{}:
		list := make(bencode.List, 0, len(x))
		for i, item := range x {
			v, err := FromNative(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			list = append(list, v)
		}
		return list, nil
	case map[string]interface{}:
		dict := make(bencode.Dict, len(x))
		for k, item := range x {
			v, err := FromNative(item)
			if err != nil {
				return nil, fmt.Errorf("%q: %w", k, err)
			}
			dict[k] = v
		}
		return dict, nil
	case map[interface{}]interface{}:
		dict := make(bencode.Dict, len(x))
		for k, item := range x {
			var key string
			switch k := k.(type) {
			case string:
				key = k
			case []byte:
				key = string(k)
			default:
				return nil, fmt.Errorf("map key %v (%T) is not a string", k, k)
			}

			v, err := FromNative(item)
			if err != nil {
				return nil, fmt.Errorf("%q: %w", key, err)
			}
			dict[key] = v
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("%T has no bencode representation", x)
	}
}

func toJSONNative(v bencode.Value) interface{} {
	switch v := v.(type) {
	case bencode.String:
		if utf8.Valid(v) {
			return string(v)
		}
		return map[string]interface{}{jsonBytesKey: base64.StdEncoding.EncodeToString(v)}
	case bencode.List:
		list := make([]interface{}, len(v))
		for i, item := range v {
			list[i] = toJSONNative(item)
		}
		return list
	case bencode.Dict:
		dict := make(map[string]interface{}, len(v))
		for k, item := range v {
			dict[k] = toJSONNative(item)
		}
		if len(v) == 1 {
			_, isBytes := v[jsonBytesKey]
			_, isDict := v[jsonDictKey]
			if isBytes || isDict {
				return map[string]interface{}{jsonDictKey: dict}
			}
		}
		return dict
	}

	return ToNative(v)
}

func fromJSONNative(x interface{}) (bencode.Value, error) {
	switch x := x.(type) {
	case []interface{}:
		list := make(bencode.List, 0, len(x))
		for i, item := range x {
			v, err := fromJSONNative(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			list = append(list, v)
		}
		return list, nil
	case map[string]interface{}:
		if len(x) != 1 {
			return fromJSONDict(x)
		}

		if tagged, ok := x[jsonBytesKey]; ok {
			s, ok := tagged.(string)
			if !ok {
				return nil, fmt.Errorf("%s: want a base64 string, got %T", jsonBytesKey, tagged)
			}

			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", jsonBytesKey, err)
			}
			return bencode.String(b), nil
		}

		if tagged, ok := x[jsonDictKey]; ok {
			m, ok := tagged.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("%s: want an object, got %T", jsonDictKey, tagged)
			}
			return fromJSONDict(m)
		}

		return fromJSONDict(x)
	default:
		return FromNative(x)
	}
}

func fromJSONDict(x map[string]interface{}) (bencode.Value, error) {
	dict := make(bencode.Dict, len(x))
	for k, item := range x {
		v, err := fromJSONNative(item)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", k, err)
		}
		dict[k] = v
	}
	return dict, nil
}

func fromUint(u uint64) (bencode.Value, error) {
	if u > math.MaxInt64 {
		return nil, fmt.Errorf("integer %d overflows int64", u)
	}
	return bencode.Integer(int64(u)), nil
}

func fromFloat(f float64) (bencode.Value, error) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return nil, fmt.Errorf("number %v is not a 64-bit integer", f)
	}
	return bencode.Integer(int64(f)), nil
}
