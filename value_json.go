package hsjwt

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
)

// MaxDepth bounds the nesting of arrays and objects in claims.
const MaxDepth = 64

var jsonAPI = jsoniter.Config{
	EscapeHTML:  false,
	SortMapKeys: true,
}.Froze()

// ParseClaims parses a JSON object into Claims. Integers stay integers and
// numbers with a fraction or exponent stay floats. Invalid UTF-8, duplicate
// keys, trailing data and nesting deeper than MaxDepth are rejected.
func ParseClaims(data []byte) (Claims, error) {
	if err := checkSyntax(data); err != nil {
		return nil, err
	}
	iter := jsonAPI.BorrowIterator(data)
	defer jsonAPI.ReturnIterator(iter)

	if iter.WhatIsNext() != jsoniter.ObjectValue {
		return nil, fmt.Errorf("%w: top-level value must be an object", ErrMalformedJSON)
	}
	v, err := readValue(iter, 0)
	if err != nil {
		return nil, err
	}
	if err := expectEOF(iter); err != nil {
		return nil, err
	}
	return Claims(v.obj), nil
}

// ParseValue parses any JSON value.
func ParseValue(data []byte) (Value, error) {
	if err := checkSyntax(data); err != nil {
		return Value{}, err
	}
	iter := jsonAPI.BorrowIterator(data)
	defer jsonAPI.ReturnIterator(iter)

	v, err := readValue(iter, 0)
	if err != nil {
		return Value{}, err
	}
	if err := expectEOF(iter); err != nil {
		return Value{}, err
	}
	return v, nil
}

// checkSyntax enforces the strict grammar the iterator is lenient about:
// object keys must be strings (jsoniter reads a null key as "") and text
// must be valid UTF-8 (jsoniter passes invalid bytes through).
func checkSyntax(data []byte) error {
	if !utf8.Valid(data) {
		return fmt.Errorf("%w: invalid UTF-8", ErrMalformedJSON)
	}
	if !json.Valid(data) {
		return fmt.Errorf("%w: invalid syntax", ErrMalformedJSON)
	}
	return nil
}

func expectEOF(iter *jsoniter.Iterator) error {
	if iter.Error == io.EOF {
		return nil
	}
	if iter.WhatIsNext() != jsoniter.InvalidValue || iter.Error != io.EOF {
		return fmt.Errorf("%w: unexpected data after top-level value", ErrMalformedJSON)
	}
	return nil
}

func iterError(iter *jsoniter.Iterator) error {
	if iter.Error == nil || iter.Error == io.EOF {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrMalformedJSON, iter.Error)
}

func readValue(iter *jsoniter.Iterator, depth int) (Value, error) {
	if err := iterError(iter); err != nil {
		return Value{}, err
	}

	var v Value
	switch iter.WhatIsNext() {
	case jsoniter.NilValue:
		iter.ReadNil()
	case jsoniter.BoolValue:
		v = Bool(iter.ReadBool())
	case jsoniter.StringValue:
		v = String(iter.ReadString())
	case jsoniter.NumberValue:
		raw := string(iter.ReadNumber())
		if err := iterError(iter); err != nil {
			return Value{}, err
		}
		n, err := parseNumber(raw)
		if err != nil {
			return Value{}, err
		}
		v = n
	case jsoniter.ArrayValue:
		if depth >= MaxDepth {
			return Value{}, fmt.Errorf("%w: nesting deeper than %d", ErrMalformedJSON, MaxDepth)
		}
		items := []Value{}
		var itemErr error
		iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			item, err := readValue(it, depth+1)
			if err != nil {
				itemErr = err
				return false
			}
			items = append(items, item)
			return true
		})
		if itemErr != nil {
			return Value{}, itemErr
		}
		v = Array(items...)
	case jsoniter.ObjectValue:
		if depth >= MaxDepth {
			return Value{}, fmt.Errorf("%w: nesting deeper than %d", ErrMalformedJSON, MaxDepth)
		}
		members := map[string]Value{}
		var memberErr error
		iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
			if _, dup := members[key]; dup {
				memberErr = fmt.Errorf("%w: duplicate key %q", ErrMalformedJSON, key)
				return false
			}
			item, err := readValue(it, depth+1)
			if err != nil {
				memberErr = err
				return false
			}
			members[key] = item
			return true
		})
		if memberErr != nil {
			return Value{}, memberErr
		}
		v = Object(members)
	default:
		if iter.Error == io.EOF {
			return Value{}, fmt.Errorf("%w: unexpected end of input", ErrMalformedJSON)
		}
		return Value{}, fmt.Errorf("%w: invalid value", ErrMalformedJSON)
	}

	if err := iterError(iter); err != nil {
		return Value{}, err
	}
	return v, nil
}

// parseNumber classifies a JSON number literal. Literals without a fraction
// or exponent become Int, or Uint above math.MaxInt64. Integers outside the
// uint64 range fall back to Float.
func parseNumber(raw string) (Value, error) {
	isFloat, ok := scanNumber(raw)
	if !ok {
		return Value{}, fmt.Errorf("%w: invalid number %q", ErrMalformedJSON, raw)
	}
	if !isFloat {
		i, err := strconv.ParseInt(raw, 10, 64)
		if err == nil {
			return Int(i), nil
		}
		if !errors.Is(err, strconv.ErrRange) {
			return Value{}, fmt.Errorf("%w: invalid number %q", ErrMalformedJSON, raw)
		}
		if raw[0] != '-' {
			if u, err := strconv.ParseUint(raw, 10, 64); err == nil {
				return Uint(u), nil
			}
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Value{}, fmt.Errorf("%w: number %q out of range", ErrMalformedJSON, raw)
	}
	return Float(f), nil
}

// scanNumber checks raw against the JSON number grammar and reports whether
// it has a fraction or exponent.
func scanNumber(s string) (isFloat bool, ok bool) {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	switch {
	case i < len(s) && s[i] == '0':
		i++
	case i < len(s) && s[i] >= '1' && s[i] <= '9':
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	default:
		return false, false
	}
	if i < len(s) && s[i] == '.' {
		isFloat = true
		i++
		start := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == start {
			return false, false
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		isFloat = true
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		start := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == start {
			return false, false
		}
	}
	return isFloat, i == len(s)
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	stream := jsonAPI.BorrowStream(nil)
	defer jsonAPI.ReturnStream(stream)

	if err := writeValue(stream, v, 0); err != nil {
		return nil, err
	}
	return append([]byte(nil), stream.Buffer()...), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseValue(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func writeValue(stream *jsoniter.Stream, v Value, depth int) error {
	switch v.kind {
	case KindNull:
		stream.WriteNil()
	case KindBool:
		stream.WriteBool(v.i == 1)
	case KindInt:
		stream.WriteInt64(v.i)
	case KindUint:
		stream.WriteUint64(uint64(v.i))
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return &EncodeError{Err: fmt.Errorf("%w: non-finite float %v", ErrUnsupportedValue, v.f)}
		}
		var scratch [32]byte
		_, _ = stream.Write(appendFloat(scratch[:0], v.f))
	case KindString:
		stream.WriteString(v.s)
	case KindArray:
		if depth >= MaxDepth {
			return &EncodeError{Err: fmt.Errorf("%w: nesting deeper than %d", ErrUnsupportedValue, MaxDepth)}
		}
		stream.WriteArrayStart()
		for i, item := range v.arr {
			if i > 0 {
				stream.WriteMore()
			}
			if err := writeValue(stream, item, depth+1); err != nil {
				return err
			}
		}
		stream.WriteArrayEnd()
	case KindObject:
		return writeObject(stream, v.obj, depth)
	default:
		return &EncodeError{Err: fmt.Errorf("%w: unknown kind %v", ErrUnsupportedValue, v.kind)}
	}
	return nil
}

func writeObject(stream *jsoniter.Stream, m map[string]Value, depth int) error {
	if depth >= MaxDepth {
		return &EncodeError{Err: fmt.Errorf("%w: nesting deeper than %d", ErrUnsupportedValue, MaxDepth)}
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	stream.WriteObjectStart()
	for i, k := range keys {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(k)
		if err := writeValue(stream, m[k], depth+1); err != nil {
			return err
		}
	}
	stream.WriteObjectEnd()
	return nil
}

// appendFloat writes f so that it always reads back as a float: the result
// carries a fraction or an exponent.
func appendFloat(dst []byte, f float64) []byte {
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	start := len(dst)
	dst = strconv.AppendFloat(dst, f, format, -1, 64)
	for _, c := range dst[start:] {
		if c == '.' || c == 'e' {
			return dst
		}
	}
	return append(dst, '.', '0')
}
