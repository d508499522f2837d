// Package hcl - CTY value conversion
// Mapping files are evaluated without variables, so every value must be known.
package hcl

import (
	"fmt"
	"math/big"

	"github.com/zclconf/go-cty/cty"
)

// ValueType indicates the shape of a converted value
type ValueType int

const (
	TypeUnknown ValueType = iota
	TypeNull
	TypeString
	TypeNumber
	TypeBool
	TypeList
	TypeMap
)

// String returns the type name
func (t ValueType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeBool:
		return "bool"
	case TypeList:
		return "list"
	case TypeMap:
		return "map"
	case TypeNull:
		return "null"
	default:
		return "unknown"
	}
}

// Value is a cty.Value converted to plain Go
type Value struct {
	Raw  interface{}
	Type ValueType

	// CtyType is the friendly name of the source type
	CtyType string
}

// FromCty converts val. Unknown values are an error: they cannot appear in a static file.
func FromCty(val cty.Value) (Value, error) {
	out := Value{CtyType: val.Type().FriendlyName()}
	if !val.IsKnown() {
		return out, fmt.Errorf("value of type %s is not known", out.CtyType)
	}
	if val.IsNull() {
		out.Type = TypeNull
		return out, nil
	}

	ty := val.Type()
	switch {
	case ty == cty.String:
		out.Type, out.Raw = TypeString, val.AsString()
	case ty == cty.Number:
		f, _ := val.AsBigFloat().Float64()
		out.Type, out.Raw = TypeNumber, f
	case ty == cty.Bool:
		out.Type, out.Raw = TypeBool, val.True()
	case ty.IsListType() || ty.IsSetType() || ty.IsTupleType():
		items := make([]Value, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			item, err := FromCty(v)
			if err != nil {
				return out, err
			}
			items = append(items, item)
		}
		out.Type, out.Raw = TypeList, items
	case ty.IsMapType() || ty.IsObjectType():
		// keys keep the iteration order of cty, which is lexical
		entries := make([]Entry, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			item, err := FromCty(v)
			if err != nil {
				return out, err
			}
			entries = append(entries, Entry{Key: k.AsString(), Value: item})
		}
		out.Type, out.Raw = TypeMap, entries
	default:
		return out, fmt.Errorf("unsupported value type %s", out.CtyType)
	}
	return out, nil
}

// Entry is one key of a map value
type Entry struct {
	Key   string
	Value Value
}

// AsString returns a string value
func (v Value) AsString() (string, bool) {
	s, ok := v.Raw.(string)
	return s, ok && v.Type == TypeString
}

// AsFloat returns a number value
func (v Value) AsFloat() (float64, bool) {
	f, ok := v.Raw.(float64)
	return f, ok && v.Type == TypeNumber
}

// AsBool returns a bool value
func (v Value) AsBool() (bool, bool) {
	b, ok := v.Raw.(bool)
	return b, ok && v.Type == TypeBool
}

// AsList returns the items of a list value
func (v Value) AsList() ([]Value, bool) {
	l, ok := v.Raw.([]Value)
	return l, ok
}

// AsEntries returns the entries of a map value
func (v Value) AsEntries() ([]Entry, bool) {
	m, ok := v.Raw.([]Entry)
	return m, ok
}

// AsStrings returns a list of strings; a single string is a list of one
func (v Value) AsStrings() ([]string, error) {
	if s, ok := v.AsString(); ok {
		return []string{s}, nil
	}
	items, ok := v.AsList()
	if !ok {
		return nil, fmt.Errorf("expected a list of strings, got %s", v.CtyType)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.AsString()
		if !ok {
			return nil, fmt.Errorf("expected a string, got %s", item.CtyType)
		}
		out = append(out, s)
	}
	return out, nil
}

// ToCty converts back; used when writing mapping files
func ToCty(v Value) cty.Value {
	switch v.Type {
	case TypeString:
		return cty.StringVal(v.Raw.(string))
	case TypeNumber:
		return cty.NumberVal(big.NewFloat(v.Raw.(float64)))
	case TypeBool:
		return cty.BoolVal(v.Raw.(bool))
	case TypeList:
		items := v.Raw.([]Value)
		if len(items) == 0 {
			return cty.EmptyTupleVal
		}
		vals := make([]cty.Value, len(items))
		for i, item := range items {
			vals[i] = ToCty(item)
		}
		return cty.TupleVal(vals)
	case TypeMap:
		entries := v.Raw.([]Entry)
		if len(entries) == 0 {
			return cty.EmptyObjectVal
		}
		attrs := make(map[string]cty.Value, len(entries))
		for _, e := range entries {
			attrs[e.Key] = ToCty(e.Value)
		}
		return cty.ObjectVal(attrs)
	}
	return cty.NullVal(cty.DynamicPseudoType)
}
