package sim

import (
	"encoding/json"
	"fmt"
	"math"
)

// Params holds the validated, default-bound parameters of one rule
// attachment. Values are fixed at attach time; rules read them through
// the typed accessors, which cannot fail on a bound attachment.
type Params struct {
	vals map[string]any
}

// bindParams validates raw parameters against a rule's schema and
// binds defaults. Unknown keys, missing required parameters, type
// mismatches and out-of-range values all fail here, at attach time.
func bindParams(spec Spec, raw map[string]any) (Params, error) {
	declared := make(map[string]ParamSpec, len(spec.Params))
	for _, p := range spec.Params {
		declared[p.Name] = p
	}
	for k := range raw {
		if _, ok := declared[k]; !ok {
			return Params{}, fmt.Errorf("%w: rule %q does not take %q", ErrInvalidParam, spec.Name, k)
		}
	}

	vals := make(map[string]any, len(spec.Params))
	for _, p := range spec.Params {
		v, given := raw[p.Name]
		if !given {
			if p.Required {
				return Params{}, fmt.Errorf("%w: rule %q requires %q", ErrInvalidParam, spec.Name, p.Name)
			}
			if p.Default != nil {
				vals[p.Name] = p.Default
			}
			continue
		}
		bound, err := coerce(p, v)
		if err != nil {
			return Params{}, fmt.Errorf("%w: rule %q parameter %q: %v", ErrInvalidParam, spec.Name, p.Name, err)
		}
		vals[p.Name] = bound
	}
	return Params{vals: vals}, nil
}

func coerce(p ParamSpec, v any) (any, error) {
	switch p.Type {
	case ParamFloat:
		f, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("want float, got %T", v)
		}
		if err := checkRange(p, f); err != nil {
			return nil, err
		}
		return f, nil
	case ParamInt:
		n, ok := toInt(v)
		if !ok {
			return nil, fmt.Errorf("want int, got %T (%v)", v, v)
		}
		if err := checkRange(p, float64(n)); err != nil {
			return nil, err
		}
		return n, nil
	case ParamString, ParamSpecies:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("want string, got %T", v)
		}
		return s, nil
	case ParamStringList:
		return toStringList(v)
	default:
		return nil, fmt.Errorf("unsupported parameter type %v", p.Type)
	}
}

func checkRange(p ParamSpec, f float64) error {
	if p.Min != nil && f < *p.Min {
		return fmt.Errorf("%g is below minimum %g", f, *p.Min)
	}
	if p.Max != nil && f > *p.Max {
		return fmt.Errorf("%g is above maximum %g", f, *p.Max)
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

func toStringList(v any) ([]string, error) {
	switch list := v.(type) {
	case []string:
		out := make([]string, len(list))
		copy(out, list)
		return out, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, e := range list {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("want list of strings, found %T", e)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("want list of strings, got %T", v)
	}
}

// Float returns a bound float parameter. Absent optionals yield 0;
// use LookupFloat for parameters without a default.
func (p Params) Float(name string) float64 {
	f, _ := p.vals[name].(float64)
	return f
}

// LookupFloat reports whether an optional float parameter was bound.
func (p Params) LookupFloat(name string) (float64, bool) {
	f, ok := p.vals[name].(float64)
	return f, ok
}

// Int returns a bound int parameter.
func (p Params) Int(name string) int {
	n, _ := p.vals[name].(int)
	return n
}

// Str returns a bound string or species parameter.
func (p Params) Str(name string) string {
	s, _ := p.vals[name].(string)
	return s
}

// StrList returns a bound string list parameter.
func (p Params) StrList(name string) []string {
	l, _ := p.vals[name].([]string)
	return l
}

// MarshalJSON emits the bound values, for results serialization.
func (p Params) MarshalJSON() ([]byte, error) {
	if p.vals == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p.vals)
}
