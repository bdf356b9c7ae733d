package spec

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/matzehuels/chartflow/pkg/errors"
)

type accessorKind uint8

const (
	accessorNone accessorKind = iota
	accessorPath
	accessorIndex
	accessorFunc
)

// Accessor reads one field from a data row. The zero value resolves nothing.
type Accessor struct {
	kind  accessorKind
	path  string
	index int
	fn    func(datum any) any
}

// Path returns an accessor for a dotted property path such as "a.b.0".
func Path(path string) Accessor { return Accessor{kind: accessorPath, path: path} }

// Index returns an accessor for position i of an array row.
func Index(i int) Accessor { return Accessor{kind: accessorIndex, index: i} }

// Func returns an accessor backed by fn. The name is used in series keys
// and labels; fn must not mutate the datum.
func Func(name string, fn func(datum any) any) Accessor {
	return Accessor{kind: accessorFunc, path: name, fn: fn}
}

// IsZero reports whether the accessor was never set.
func (a Accessor) IsZero() bool { return a.kind == accessorNone }

// IsFunc reports whether the accessor is backed by a Go function.
func (a Accessor) IsFunc() bool { return a.kind == accessorFunc }

// String returns the path, "[i]" for index accessors, or the function name.
func (a Accessor) String() string {
	switch a.kind {
	case accessorPath, accessorFunc:
		return a.path
	case accessorIndex:
		return "[" + strconv.Itoa(a.index) + "]"
	}
	return ""
}

// Resolve reads the accessor's field from datum. The second result is false
// when the field is absent or null.
func (a Accessor) Resolve(datum any) (any, bool) {
	switch a.kind {
	case accessorFunc:
		if a.fn == nil {
			return nil, false
		}
		v := a.fn(datum)
		return v, v != nil
	case accessorIndex:
		return resolveIndex(datum, a.index)
	case accessorPath:
		return resolvePath(datum, a.path)
	}
	return nil, false
}

func resolveIndex(datum any, i int) (any, bool) {
	switch d := datum.(type) {
	case json.RawMessage:
		return fromGJSON(gjson.GetBytes(d, strconv.Itoa(i)))
	case gjson.Result:
		return fromGJSON(d.Get(strconv.Itoa(i)))
	case []any:
		if i < 0 || i >= len(d) {
			return nil, false
		}
		return d[i], d[i] != nil
	}
	rv := reflect.ValueOf(datum)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		if i < 0 || i >= rv.Len() {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	}
	return nil, false
}

func resolvePath(datum any, path string) (any, bool) {
	switch d := datum.(type) {
	case json.RawMessage:
		return fromGJSON(gjson.GetBytes(d, path))
	case gjson.Result:
		return fromGJSON(d.Get(path))
	}
	cur := datum
	for _, seg := range strings.Split(path, ".") {
		switch c := cur.(type) {
		case map[string]any:
			v, ok := c[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case map[string]float64:
			v, ok := c[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case map[string]string:
			v, ok := c[seg]
			if !ok {
				return nil, false
			}
			cur = v
		default:
			i, err := strconv.Atoi(seg)
			if err != nil {
				return nil, false
			}
			v, ok := resolveIndex(cur, i)
			if !ok {
				return nil, false
			}
			cur = v
		}
	}
	return cur, cur != nil
}

func fromGJSON(r gjson.Result) (any, bool) {
	if !r.Exists() || r.Type == gjson.Null {
		return nil, false
	}
	return r.Value(), true
}

// MarshalJSON encodes path accessors as strings and index accessors as
// numbers. Function accessors encode as "func:<name>" and cannot be decoded.
func (a Accessor) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case accessorPath:
		return json.Marshal(a.path)
	case accessorIndex:
		return json.Marshal(a.index)
	case accessorFunc:
		return json.Marshal("func:" + a.path)
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts the forms produced by [ParseAccessor].
func (a *Accessor) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "invalid accessor")
	}
	parsed, err := ParseAccessor(v)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAccessor builds an accessor from a document value: a string is a
// path ("[3]" is an index), a whole number is an index, nil is the zero
// accessor.
func ParseAccessor(v any) (Accessor, error) {
	switch x := v.(type) {
	case nil:
		return Accessor{}, nil
	case string:
		if strings.HasPrefix(x, "[") && strings.HasSuffix(x, "]") {
			i, err := strconv.Atoi(x[1 : len(x)-1])
			if err != nil {
				return Accessor{}, errors.New(errors.ErrCodeInvalidFormat, "invalid index accessor %q", x)
			}
			return Index(i), nil
		}
		if x == "" {
			return Accessor{}, errors.New(errors.ErrCodeInvalidFormat, "empty accessor path")
		}
		return Path(x), nil
	case int:
		return Index(x), nil
	case int64:
		return Index(int(x)), nil
	case float64:
		if x != math.Trunc(x) {
			return Accessor{}, errors.New(errors.ErrCodeInvalidFormat, "index accessor %v is not a whole number", x)
		}
		return Index(int(x)), nil
	}
	return Accessor{}, errors.New(errors.ErrCodeInvalidFormat, "unsupported accessor %v (%T)", v, v)
}

// ParseAccessors applies [ParseAccessor] to each element of vs.
func ParseAccessors(vs []any) ([]Accessor, error) {
	if len(vs) == 0 {
		return nil, nil
	}
	out := make([]Accessor, 0, len(vs))
	for _, v := range vs {
		a, err := ParseAccessor(v)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// ToFloat converts a resolved value to a finite number. Times convert to
// epoch milliseconds. Strings, NaN and infinities are not numbers.
func ToFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case time.Time:
		f = float64(x.UnixMilli())
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Key normalizes a resolved value so it can be used as a map key and
// compared across rows. Numbers of any Go type collapse to float64;
// NaN and infinities have no key and return nil. Unhashable values fall
// back to their formatted string.
func Key(v any) any {
	if v == nil {
		return nil
	}
	if t, ok := v.(time.Time); ok {
		return float64(t.UnixMilli())
	}
	if f, ok := ToFloat(v); ok {
		return f
	}
	if k := reflect.TypeOf(v).Kind(); k == reflect.Float32 || k == reflect.Float64 {
		return nil
	}
	if !reflect.TypeOf(v).Comparable() {
		return fmt.Sprint(v)
	}
	return v
}

// FormatKey renders a category key for labels and series keys.
func FormatKey(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
