package telemetry

import "fmt"

// ValueType is the type of an attribute Value
type ValueType int

const (
	ValueTypeEmpty ValueType = iota
	ValueTypeString
	ValueTypeInt
	ValueTypeDouble
	ValueTypeBool
	ValueTypeSlice
)

// Value is a typed attribute value. Exactly one of its payloads is set,
// selected by Type.
type Value struct {
	typ   ValueType
	str   string
	num   int64
	dbl   float64
	flag  bool
	slice []Value
}

func StringValue(v string) Value   { return Value{typ: ValueTypeString, str: v} }
func IntValue(v int64) Value       { return Value{typ: ValueTypeInt, num: v} }
func DoubleValue(v float64) Value  { return Value{typ: ValueTypeDouble, dbl: v} }
func BoolValue(v bool) Value       { return Value{typ: ValueTypeBool, flag: v} }
func SliceValue(vs ...Value) Value { return Value{typ: ValueTypeSlice, slice: vs} }

func (v Value) Type() ValueType { return v.typ }
func (v Value) Str() string     { return v.str }
func (v Value) Int() int64      { return v.num }
func (v Value) Double() float64 { return v.dbl }
func (v Value) Bool() bool      { return v.flag }
func (v Value) Slice() []Value  { return v.slice }

// AsString renders the value for human readable output.
func (v Value) AsString() string {
	switch v.typ {
	case ValueTypeString:
		return v.str
	case ValueTypeInt:
		return fmt.Sprintf("%d", v.num)
	case ValueTypeDouble:
		return fmt.Sprintf("%g", v.dbl)
	case ValueTypeBool:
		return fmt.Sprintf("%t", v.flag)
	case ValueTypeSlice:
		s := "["
		for i, e := range v.slice {
			if i > 0 {
				s += ","
			}
			s += e.AsString()
		}
		return s + "]"
	default:
		return ""
	}
}

// Attribute is a single key/value pair
type Attribute struct {
	Key   string
	Value Value
}

func String(key, value string) Attribute   { return Attribute{Key: key, Value: StringValue(value)} }
func Int(key string, value int64) Attribute { return Attribute{Key: key, Value: IntValue(value)} }
func Double(key string, value float64) Attribute {
	return Attribute{Key: key, Value: DoubleValue(value)}
}
func Bool(key string, value bool) Attribute { return Attribute{Key: key, Value: BoolValue(value)} }

// Ints returns an attribute holding an array of integers.
func Ints(key string, values ...int64) Attribute {
	vs := make([]Value, len(values))
	for i, v := range values {
		vs[i] = IntValue(v)
	}
	return Attribute{Key: key, Value: SliceValue(vs...)}
}

// Attributes is an ordered attribute set. Order is preserved when the
// set is encoded into a payload.
type Attributes []Attribute

// Get returns the value for key and whether it was present.
func (as Attributes) Get(key string) (Value, bool) {
	for _, a := range as {
		if a.Key == key {
			return a.Value, true
		}
	}
	return Value{}, false
}

// With returns a copy of as with attr appended, replacing any existing
// attribute with the same key.
func (as Attributes) With(attrs ...Attribute) Attributes {
	out := make(Attributes, 0, len(as)+len(attrs))
	out = append(out, as...)
	for _, attr := range attrs {
		replaced := false
		for i := range out {
			if out[i].Key == attr.Key {
				out[i] = attr
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, attr)
		}
	}
	return out
}
