package hsjwt

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
)

// Kind identifies the variant held by a Value.
type Kind uint8

// Value kinds.
const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindString
	KindArray
	KindObject
)

var kindNames = [...]string{
	KindNull:   "null",
	KindBool:   "bool",
	KindInt:    "int",
	KindUint:   "uint",
	KindFloat:  "float",
	KindString: "string",
	KindArray:  "array",
	KindObject: "object",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a JSON-compatible value. Integers and floats are distinct variants
// and keep their kind through an encode/decode round trip. Integers above
// math.MaxInt64 are held as KindUint; everything that fits an int64 is KindInt.
//
// The zero Value is null.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	arr  []Value
	obj  map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.i = 1
	}
	return v
}

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Uint returns an unsigned integer value. Values that fit an int64 are
// returned as KindInt so each integer has one representation.
func Uint(u uint64) Value {
	if u <= math.MaxInt64 {
		return Int(int64(u))
	}
	return Value{kind: KindUint, i: int64(u)}
}

// Float returns a floating-point value. NaN and infinities cannot be encoded.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array returns an array value holding items. The slice is not copied.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, arr: items}
}

// Object returns an object value holding m. The map is not copied.
func Object(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindObject, obj: m}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) { return v.i == 1, v.kind == KindBool }

// AsInt returns the integer held by v. Floats are not converted.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsUint returns the integer held by v when it is a non-negative integer.
func (v Value) AsUint() (uint64, bool) {
	switch v.kind {
	case KindUint:
		return uint64(v.i), true
	case KindInt:
		return uint64(v.i), v.i >= 0
	default:
		return 0, false
	}
}

// AsFloat returns the float held by v. Integers are not converted.
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsArray returns the items held by v.
func (v Value) AsArray() ([]Value, bool) { return v.arr, v.kind == KindArray }

// AsObject returns the members held by v.
func (v Value) AsObject() (map[string]Value, bool) { return v.obj, v.kind == KindObject }

// Number returns v as float64 when v is an integer or a float.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindUint:
		return float64(uint64(v.i)), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// Equal reports whether v and other hold the same variant and contents.
// Int(1) and Float(1) are not equal.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool, KindInt, KindUint:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindString:
		return v.s == other.s
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		return objectsEqual(v.obj, other.obj)
	}
	return false
}

func objectsEqual(a, b map[string]Value) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !av.Equal(bv) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindArray:
		items := make([]Value, len(v.arr))
		for i, item := range v.arr {
			items[i] = item.Clone()
		}
		return Value{kind: KindArray, arr: items}
	case KindObject:
		return Value{kind: KindObject, obj: cloneObject(v.obj)}
	default:
		return v
	}
}

func cloneObject(m map[string]Value) map[string]Value {
	out := make(map[string]Value, len(m))
	for k, item := range m {
		out[k] = item.Clone()
	}
	return out
}

// Interface converts v into plain Go values: nil, bool, int64, uint64,
// float64, string, []any and map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.i == 1
	case KindInt:
		return v.i
	case KindUint:
		return uint64(v.i)
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.obj))
		for k, item := range v.obj {
			out[k] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

// GoString renders v in a stable, readable form for test failures.
func (v Value) GoString() string {
	switch v.kind {
	case KindNull:
		return "Null()"
	case KindBool:
		return fmt.Sprintf("Bool(%t)", v.i == 1)
	case KindInt:
		return fmt.Sprintf("Int(%d)", v.i)
	case KindUint:
		return fmt.Sprintf("Uint(%d)", uint64(v.i))
	case KindFloat:
		return fmt.Sprintf("Float(%v)", v.f)
	case KindString:
		return fmt.Sprintf("String(%q)", v.s)
	case KindArray:
		s := "Array("
		for i, item := range v.arr {
			if i > 0 {
				s += ", "
			}
			s += item.GoString()
		}
		return s + ")"
	case KindObject:
		keys := make([]string, 0, len(v.obj))
		for k := range v.obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		s := "Object{"
		for i, k := range keys {
			if i > 0 {
				s += ", "
			}
			s += strconv.Quote(k) + ": " + v.obj[k].GoString()
		}
		return s + "}"
	}
	return "Value(?)"
}

// ValueOf converts a Go value into a Value. It accepts nil, bool, every
// integer and float type, string, json.Number, Value, Claims, slices,
// arrays and string-keyed maps of those, and structs by their JSON form.
// A []byte becomes a base64 string, as encoding/json renders it.
func ValueOf(x any) (Value, error) {
	return valueOf(x, 0)
}

func valueOf(x any, depth int) (Value, error) {
	if depth > MaxDepth {
		return Value{}, &EncodeError{Err: fmt.Errorf("%w: nesting deeper than %d", ErrUnsupportedValue, MaxDepth)}
	}

	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case Claims:
		return Object(map[string]Value(t)), nil
	case map[string]Value:
		return Object(t), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case int32:
		return Int(int64(t)), nil
	case uint64:
		return Uint(t), nil
	case []byte:
		if t == nil {
			return Null(), nil
		}
		return String(base64.StdEncoding.EncodeToString(t)), nil
	case float64:
		return Float(t), nil
	case float32:
		return Float(float64(t)), nil
	case json.Number:
		v, err := parseNumber(string(t))
		if err != nil {
			return Value{}, &EncodeError{Err: fmt.Errorf("%w: %v", ErrUnsupportedValue, err)}
		}
		return v, nil
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Uint(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}
		return valueOf(rv.Elem().Interface(), depth+1)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Null(), nil
		}
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return String(base64.StdEncoding.EncodeToString(rv.Bytes())), nil
		}
		items := make([]Value, rv.Len())
		for i := range items {
			item, err := valueOf(rv.Index(i).Interface(), depth+1)
			if err != nil {
				return Value{}, err
			}
			items[i] = item
		}
		return Array(items...), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		if rv.IsNil() {
			return Null(), nil
		}
		members := make(map[string]Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			item, err := valueOf(iter.Value().Interface(), depth+1)
			if err != nil {
				return Value{}, err
			}
			members[iter.Key().String()] = item
		}
		return Object(members), nil
	case reflect.Struct:
		// Structs go through their JSON form so field tags apply.
		data, err := jsonAPI.Marshal(x)
		if err != nil {
			return Value{}, &EncodeError{Err: fmt.Errorf("%w: %T: %v", ErrUnsupportedValue, x, err)}
		}
		v, err := ParseValue(data)
		if err != nil {
			return Value{}, &EncodeError{Err: fmt.Errorf("%w: %T: %v", ErrUnsupportedValue, x, err)}
		}
		return v, nil
	}

	return Value{}, &EncodeError{Err: fmt.Errorf("%w: %T", ErrUnsupportedValue, x)}
}
