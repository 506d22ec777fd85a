package firebase

import (
	"fmt"
	"path"
	"strconv"
	"time"
)

// EncodeValue converts a Go value to a Firestore typed value
func EncodeValue(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		null := "NULL_VALUE"
		return Value{NullValue: &null}, nil
	case bool:
		return Value{BooleanValue: &x}, nil
	case int:
		s := strconv.Itoa(x)
		return Value{IntegerValue: &s}, nil
	case int64:
		s := strconv.FormatInt(x, 10)
		return Value{IntegerValue: &s}, nil
	case float64:
		if x == float64(int64(x)) {
			s := strconv.FormatInt(int64(x), 10)
			return Value{IntegerValue: &s}, nil
		}
		return Value{DoubleValue: &x}, nil
	case string:
		return Value{StringValue: &x}, nil
	case time.Time:
		s := x.UTC().Format(time.RFC3339Nano)
		return Value{TimestampValue: &s}, nil
	case map[string]any:
		fields, err := EncodeFields(x)
		if err != nil {
			return Value{}, err
		}
		return Value{MapValue: &MapValue{Fields: fields}}, nil
	case []any:
		values := make([]Value, 0, len(x))
		for _, e := range x {
			ev, err := EncodeValue(e)
			if err != nil {
				return Value{}, err
			}
			values = append(values, ev)
		}
		return Value{ArrayValue: &ArrayValue{Values: values}}, nil
	default:
		return Value{}, fmt.Errorf("unsupported firestore value type %T", v)
	}
}

// EncodeFields converts a document field map
func EncodeFields(fields map[string]any) (map[string]Value, error) {
	out := make(map[string]Value, len(fields))
	for k, v := range fields {
		ev, err := EncodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		out[k] = ev
	}
	return out, nil
}

// DecodeValue converts a Firestore typed value to a plain Go value.
// Integers decode as int64.
func DecodeValue(v Value) any {
	switch {
	case v.BooleanValue != nil:
		return *v.BooleanValue
	case v.IntegerValue != nil:
		n, err := strconv.ParseInt(*v.IntegerValue, 10, 64)
		if err != nil {
			return nil
		}
		return n
	case v.DoubleValue != nil:
		return *v.DoubleValue
	case v.StringValue != nil:
		return *v.StringValue
	case v.TimestampValue != nil:
		return *v.TimestampValue
	case v.MapValue != nil:
		return DecodeFields(v.MapValue.Fields)
	case v.ArrayValue != nil:
		out := make([]any, len(v.ArrayValue.Values))
		for i, e := range v.ArrayValue.Values {
			out[i] = DecodeValue(e)
		}
		return out
	default:
		return nil
	}
}

// DecodeFields converts a Firestore field map
func DecodeFields(fields map[string]Value) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = DecodeValue(v)
	}
	return out
}

// documentID returns the last path segment of a document resource name
func documentID(name string) string {
	return path.Base(name)
}
