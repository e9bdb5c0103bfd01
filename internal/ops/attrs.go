package ops

import (
	"github.com/born-ml/opcheck/internal/tensor"
	"github.com/pkg/errors"
)

// Attrs holds scalar operator attributes by name.
type Attrs map[string]any

// Clone returns a shallow copy.
func (a Attrs) Clone() Attrs {
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Has reports whether the attribute is set.
func (a Attrs) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// Int returns an integer attribute or def when unset.
func (a Attrs) Int(name string, def int) (int, error) {
	v, ok := a[name]
	if !ok {
		return def, nil
	}
	switch x := v.(type) {
	case int:
		return x, nil
	case int32:
		return int(x), nil
	case int64:
		return int(x), nil
	}
	return 0, errors.Errorf("attribute %q: expected an integer, got %T", name, v)
}

// Float returns a floating point attribute or def when unset.
func (a Attrs) Float(name string, def float64) (float64, error) {
	v, ok := a[name]
	if !ok {
		return def, nil
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	}
	return 0, errors.Errorf("attribute %q: expected a number, got %T", name, v)
}

// Bool returns a boolean attribute or def when unset.
func (a Attrs) Bool(name string, def bool) (bool, error) {
	v, ok := a[name]
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, errors.Errorf("attribute %q: expected a bool, got %T", name, v)
	}
	return b, nil
}

// DType returns a data type attribute given as a tensor.DataType or its
// name. The boolean is false when the attribute is unset.
func (a Attrs) DType(name string) (tensor.DataType, bool, error) {
	v, ok := a[name]
	if !ok {
		return 0, false, nil
	}
	switch x := v.(type) {
	case tensor.DataType:
		return x, true, nil
	case string:
		dt, err := tensor.ParseDataType(x)
		if err != nil {
			return 0, false, errors.Wrapf(err, "attribute %q", name)
		}
		return dt, true, nil
	}
	return 0, false, errors.Errorf("attribute %q: expected a data type, got %T", name, v)
}
