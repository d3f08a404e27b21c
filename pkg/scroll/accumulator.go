package scroll

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"unicode/utf8"
)

// Accumulator gathers query observations across loop iterations.
type Accumulator struct {
	items []interface{}
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Merge appends an observation. Slices and arrays are appended element by
// element; nil is dropped; any other value is appended as a single element.
// It reports whether the observation was a single non-sequence value.
//
// The single-value path is a leniency for agents that answer a list query
// with a bare value. It keeps the data but may hide a malformed answer, so
// callers log it.
func (a *Accumulator) Merge(observation interface{}) (coerced bool) {
	if observation == nil {
		return false
	}
	v := reflect.ValueOf(observation)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return false
		}
		// []byte is a value, not a sequence of observations.
		if v.Type().Elem().Kind() == reflect.Uint8 {
			a.items = append(a.items, observation)
			return true
		}
		for i := 0; i < v.Len(); i++ {
			a.items = append(a.items, v.Index(i).Interface())
		}
		return false
	default:
		a.items = append(a.items, observation)
		return true
	}
}

// Len returns the number of raw (not yet deduplicated) items.
func (a *Accumulator) Len() int {
	return len(a.items)
}

// Finalize returns the items with duplicates removed, first occurrence kept.
func (a *Accumulator) Finalize() []interface{} {
	return Dedupe(a.items)
}

// Dedupe removes items whose DedupKey was already seen, preserving order.
func Dedupe(items []interface{}) []interface{} {
	seen := make(map[string]struct{}, len(items))
	out := make([]interface{}, 0, len(items))
	for _, it := range items {
		key := DedupKey(it)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, it)
	}
	return out
}

// DedupKey returns the identity used for deduplication.
//
// Primitives are keyed by kind and value, with every numeric type sharing the
// "number" kind so 1 and 1.0 collide. Structured values are keyed by their
// JSON encoding (map keys sorted); values that cannot be encoded, such as
// cyclic structures, fall back to their Go type.
func DedupKey(v interface{}) string {
	if v == nil {
		return "null"
	}
	if n, ok := v.(json.Number); ok {
		return "number:" + n.String()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return "string:" + rv.String()
	case reflect.Bool:
		return "boolean:" + strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "number:" + strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return "number:" + strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return "number:" + strconv.FormatFloat(rv.Float(), 'g', -1, 64)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return "obj:" + fmt.Sprintf("%T", v)
	}
	return "obj:" + string(data)
}

const previewLimit = 120

// Preview renders a query result for logs: long strings are cut, slices show
// their length, objects are shown as truncated JSON.
func Preview(result interface{}) string {
	switch r := result.(type) {
	case nil:
		return "null"
	case string:
		return truncate(r)
	}

	rv := reflect.ValueOf(result)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return fmt.Sprintf("Array(len=%d)", rv.Len())
	case reflect.Map, reflect.Struct, reflect.Ptr:
		data, err := json.Marshal(result)
		if err != nil {
			return "Object"
		}
		return truncate(string(data))
	}
	return fmt.Sprint(result)
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= previewLimit {
		return s
	}
	return string([]rune(s)[:previewLimit]) + "..."
}
