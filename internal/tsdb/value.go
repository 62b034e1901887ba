// ABOUTME: Tagged value type for heterogeneous query results
// ABOUTME: Keeps the store's column type explicit instead of passing bare interface values

package tsdb

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ValueType names the type of a Value. The names follow the store's
// annotated CSV data types.
type ValueType string

const (
	TypeNull     ValueType = "null"
	TypeString   ValueType = "string"
	TypeDouble   ValueType = "double"
	TypeLong     ValueType = "long"
	TypeUnsigned ValueType = "unsignedLong"
	TypeBool     ValueType = "boolean"
	TypeTime     ValueType = "dateTime"
)

// Value is a single typed cell of a query result.
type Value struct {
	typ ValueType
	s   string
	f   float64
	i   int64
	u   uint64
	b   bool
	t   time.Time
}

// Null is the absent value.
var Null = Value{typ: TypeNull}

func String(s string) Value   { return Value{typ: TypeString, s: s} }
func Double(f float64) Value  { return Value{typ: TypeDouble, f: f} }
func Long(i int64) Value      { return Value{typ: TypeLong, i: i} }
func Unsigned(u uint64) Value { return Value{typ: TypeUnsigned, u: u} }
func Bool(b bool) Value       { return Value{typ: TypeBool, b: b} }
func Time(t time.Time) Value  { return Value{typ: TypeTime, t: t} }

// Type reports the value's type; the zero Value is Null.
func (v Value) Type() ValueType {
	if v.typ == "" {
		return TypeNull
	}
	return v.typ
}

// IsNull reports whether the value is absent.
func (v Value) IsNull() bool { return v.Type() == TypeNull }

// ValueOf wraps a value decoded by a store client. Unknown Go types are
// kept as their string form.
func ValueOf(x any) Value {
	switch x := x.(type) {
	case nil:
		return Null
	case Value:
		return x
	case string:
		return String(x)
	case float64:
		return Double(x)
	case float32:
		return Double(float64(x))
	case int64:
		return Long(x)
	case int:
		return Long(int64(x))
	case int32:
		return Long(int64(x))
	case uint64:
		return Unsigned(x)
	case uint:
		return Unsigned(uint64(x))
	case bool:
		return Bool(x)
	case time.Time:
		return Time(x)
	case *time.Time:
		if x == nil {
			return Null
		}
		return Time(*x)
	default:
		return String(fmt.Sprint(x))
	}
}

// Float coerces numeric values, and strings holding a number, to float64.
func (v Value) Float() (float64, bool) {
	switch v.typ {
	case TypeDouble:
		return v.f, true
	case TypeLong:
		return float64(v.i), true
	case TypeUnsigned:
		return float64(v.u), true
	case TypeString:
		f, err := strconv.ParseFloat(v.s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Str returns the string form of a string value.
func (v Value) Str() (string, bool) {
	if v.typ != TypeString {
		return "", false
	}
	return v.s, true
}

// TimeValue returns the instant held by a time value.
func (v Value) TimeValue() (time.Time, bool) {
	if v.typ != TypeTime {
		return time.Time{}, false
	}
	return v.t, true
}

// Interface returns the underlying Go value, nil for Null.
func (v Value) Interface() any {
	switch v.typ {
	case TypeString:
		return v.s
	case TypeDouble:
		return v.f
	case TypeLong:
		return v.i
	case TypeUnsigned:
		return v.u
	case TypeBool:
		return v.b
	case TypeTime:
		return v.t
	default:
		return nil
	}
}

func (v Value) String() string {
	if v.IsNull() {
		return ""
	}
	if t, ok := v.TimeValue(); ok {
		return t.Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v.Interface())
}

type jsonValue struct {
	Type  ValueType `json:"type"`
	Value any       `json:"value"`
}

// MarshalJSON encodes the value with an explicit type tag.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonValue{Type: v.Type(), Value: v.Interface()})
}

// UnmarshalJSON decodes the tagged form written by MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type  ValueType       `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var err error
	switch raw.Type {
	case TypeNull, "":
		*v = Null
	case TypeString:
		var s string
		err = json.Unmarshal(raw.Value, &s)
		*v = String(s)
	case TypeDouble:
		var f float64
		err = json.Unmarshal(raw.Value, &f)
		*v = Double(f)
	case TypeLong:
		var i int64
		err = json.Unmarshal(raw.Value, &i)
		*v = Long(i)
	case TypeUnsigned:
		var u uint64
		err = json.Unmarshal(raw.Value, &u)
		*v = Unsigned(u)
	case TypeBool:
		var b bool
		err = json.Unmarshal(raw.Value, &b)
		*v = Bool(b)
	case TypeTime:
		var t time.Time
		err = json.Unmarshal(raw.Value, &t)
		*v = Time(t)
	default:
		return fmt.Errorf("unknown value type %q", raw.Type)
	}
	return err
}
