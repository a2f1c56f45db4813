package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

// ValueType tags the runtime shape of a raw signal value.
type ValueType int

const (
	ValueNull ValueType = iota
	ValueNumber
	ValueText
	ValueBool
	ValueOther
)

func (t ValueType) String() string {
	switch t {
	case ValueNull:
		return "null"
	case ValueNumber:
		return "number"
	case ValueText:
		return "text"
	case ValueBool:
		return "bool"
	default:
		return "other"
	}
}

// RawValue is a signal value as received on the wire.
// Exactly one of Number, Text or Bool is meaningful, selected by Type.
type RawValue struct {
	Type   ValueType
	Number float64
	Text   string
	Bool   bool
}

// NumberValue wraps a numeric value.
func NumberValue(v float64) RawValue { return RawValue{Type: ValueNumber, Number: v} }

// TextValue wraps a string value.
func TextValue(v string) RawValue { return RawValue{Type: ValueText, Text: v} }

// BoolValue wraps a boolean value.
func BoolValue(v bool) RawValue { return RawValue{Type: ValueBool, Bool: v} }

// NullValue is the JSON null value.
func NullValue() RawValue { return RawValue{Type: ValueNull} }

// OtherValue stands for objects and arrays.
func OtherValue() RawValue { return RawValue{Type: ValueOther} }

// NumberOrNil returns a pointer to the numeric value, or nil for non-numbers.
func (v RawValue) NumberOrNil() *float64 {
	if v.Type != ValueNumber {
		return nil
	}
	n := v.Number
	return &n
}

// UnmarshalJSON decodes any JSON value into the matching variant.
func (v *RawValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("telemetry: empty signal value")
	}
	switch data[0] {
	case 'n':
		*v = NullValue()
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = BoolValue(b)
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = TextValue(s)
	case '{', '[':
		*v = OtherValue()
	default:
		n, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			var numErr *strconv.NumError
			// Overflowing literals are still numbers; keep the ±Inf result.
			if !errors.As(err, &numErr) || !errors.Is(numErr.Err, strconv.ErrRange) {
				return err
			}
		}
		*v = NumberValue(n)
	}
	return nil
}

// MarshalJSON encodes the value back to its JSON form.
func (v RawValue) MarshalJSON() ([]byte, error) {
	switch v.Type {
	case ValueNumber:
		return json.Marshal(v.Number)
	case ValueText:
		return json.Marshal(v.Text)
	case ValueBool:
		return json.Marshal(v.Bool)
	case ValueOther:
		return []byte("{}"), nil
	default:
		return []byte("null"), nil
	}
}
