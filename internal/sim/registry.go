// Rule registry: every rule the engine can attach is registered here
// under a unique name, together with its declared parameter schema.
// Built-in rules self-register from the rules package; callers may
// register their own the same way.
package sim

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrRuleExists is returned when registering a name twice.
	ErrRuleExists = errors.New("sim: rule already registered")
	// ErrUnknownRule is returned when looking up an unregistered name.
	ErrUnknownRule = errors.New("sim: unknown rule")
	// ErrInvalidParam is returned when an attachment's parameters do
	// not satisfy the rule's schema.
	ErrInvalidParam = errors.New("sim: invalid rule parameter")
)

// Category groups rules for listings and docs.
type Category uint8

const (
	CategoryMovement Category = iota
	CategoryInteraction
	CategoryLifecycle
	CategoryEnvironment
	CategoryCustom
)

// String returns the listing name of the category.
func (c Category) String() string {
	switch c {
	case CategoryMovement:
		return "movement"
	case CategoryInteraction:
		return "interaction"
	case CategoryLifecycle:
		return "lifecycle"
	case CategoryEnvironment:
		return "environment"
	default:
		return "custom"
	}
}

// ParamType is the declared type of one rule parameter.
type ParamType uint8

const (
	ParamFloat ParamType = iota
	ParamInt
	ParamString
	// ParamSpecies is a species tag or the literal "all".
	ParamSpecies
	// ParamStringList is a list of species tags.
	ParamStringList
)

// String returns the schema name of the type.
func (t ParamType) String() string {
	switch t {
	case ParamFloat:
		return "float"
	case ParamInt:
		return "int"
	case ParamString:
		return "string"
	case ParamSpecies:
		return "species"
	default:
		return "list"
	}
}

// ParamSpec declares one parameter of a rule: its type, whether the
// caller must supply it, the default bound when absent (nil means the
// parameter simply stays absent), and an optional inclusive range for
// numeric types.
type ParamSpec struct {
	Name     string
	Type     ParamType
	Required bool
	Default  any
	Min, Max *float64
	Desc     string
}

// ApplyFunc is the rule transformation itself. It must treat the model
// it receives as read-only and return a successor model (Clone first,
// then mutate the clone). Randomness comes only from the model's
// stream.
type ApplyFunc func(*Model, Params) (*Model, error)

// Spec is a registered rule: name, category, documentation, parameter
// schema, and the transformation.
type Spec struct {
	Name     string
	Category Category
	Desc     string
	Params   []ParamSpec
	Apply    ApplyFunc
}

var registry = struct {
	sync.RWMutex
	rules map[string]Spec
}{rules: make(map[string]Spec)}

// Register adds a rule to the registry. Names are global and
// first-come: registering an existing name fails with ErrRuleExists.
func Register(s Spec) error {
	if s.Name == "" {
		return fmt.Errorf("sim: rule name must not be empty")
	}
	if s.Apply == nil {
		return fmt.Errorf("sim: rule %q has no apply function", s.Name)
	}
	seen := make(map[string]bool, len(s.Params))
	for _, p := range s.Params {
		if p.Name == "" {
			return fmt.Errorf("sim: rule %q declares an unnamed parameter", s.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("sim: rule %q declares parameter %q twice", s.Name, p.Name)
		}
		seen[p.Name] = true
		if p.Required && p.Default != nil {
			return fmt.Errorf("sim: rule %q parameter %q is required and cannot carry a default", s.Name, p.Name)
		}
	}

	registry.Lock()
	defer registry.Unlock()
	if _, dup := registry.rules[s.Name]; dup {
		return fmt.Errorf("%w: %q", ErrRuleExists, s.Name)
	}
	registry.rules[s.Name] = s
	return nil
}

// MustRegister is Register for init-time use; it panics on error.
func MustRegister(s Spec) {
	if err := Register(s); err != nil {
		panic(err)
	}
}

// Lookup returns the named rule or ErrUnknownRule.
func Lookup(name string) (Spec, error) {
	registry.RLock()
	defer registry.RUnlock()
	s, ok := registry.rules[name]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %q", ErrUnknownRule, name)
	}
	return s, nil
}

// List returns all registered rules sorted by name.
func List() []Spec {
	registry.RLock()
	defer registry.RUnlock()
	out := make([]Spec, 0, len(registry.rules))
	for _, s := range registry.rules {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the registered rule names, sorted.
func Names() []string {
	list := List()
	names := make([]string, len(list))
	for i, s := range list {
		names[i] = s.Name
	}
	return names
}
