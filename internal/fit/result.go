package fit

import (
	"slices"
	"strings"
)

// ParameterValue is one fitted or fixed parameter.
// A fixed value never carries a non-zero uncertainty.
type ParameterValue struct {
	Value       float64  `json:"value" yaml:"value"`
	Uncertainty *float64 `json:"uncertainty,omitempty" yaml:"uncertainty,omitempty"`
	Fixed       bool     `json:"fixed,omitempty" yaml:"fixed,omitempty"`
}

// Parameter is a named ParameterValue.
type Parameter struct {
	Name           string `json:"name" yaml:"name"`
	ParameterValue `yaml:",inline"`
}

// Component is a fitted model component.
// Type keeps the lowercase type string found in the source, Kind its classification.
// Declared is the type a source announced when the parameters classified the component otherwise.
type Component struct {
	Type     string      `json:"type" yaml:"type"`
	Declared string      `json:"declared,omitempty" yaml:"declared,omitempty"`
	Kind     Kind        `json:"-" yaml:"-"`
	Params   []Parameter `json:"parameters" yaml:"parameters"`
}

// NewComponent returns an empty component of the given type string.
func NewComponent(typ string) Component {
	typ = strings.ToLower(strings.TrimSpace(typ))
	k := ParseKind(typ)
	if typ == "" {
		typ = k.String()
	}
	return Component{Type: typ, Kind: k}
}

// Get returns the value of the named parameter.
func (c Component) Get(name string) (ParameterValue, bool) {
	i := slices.IndexFunc(c.Params, func(p Parameter) bool { return p.Name == name })
	if i < 0 {
		return ParameterValue{}, false
	}
	return c.Params[i].ParameterValue, true
}

// Set stores a parameter value, replacing any previous one of the same name.
// Parameters stay sorted in the positional order of the kind, other names follow in insertion order.
func (c *Component) Set(name string, v ParameterValue) {
	if i := slices.IndexFunc(c.Params, func(p Parameter) bool { return p.Name == name }); i >= 0 {
		c.Params[i].ParameterValue = v
		return
	}

	c.Params = append(c.Params, Parameter{Name: name, ParameterValue: v})
	names := ParamNames(c.Kind)
	rank := func(p Parameter) int {
		if i := slices.Index(names, p.Name); i >= 0 && p.Name != Unused {
			return i
		}
		return len(names)
	}
	slices.SortStableFunc(c.Params, func(a, b Parameter) int { return rank(a) - rank(b) })
}

// Statistics holds the goodness of fit figures. A nil field was not reported.
type Statistics struct {
	Chi2   *float64 `json:"chi2,omitempty" yaml:"chi2,omitempty"`
	NDOF   *int     `json:"ndof,omitempty" yaml:"ndof,omitempty"`
	Chi2Nu *float64 `json:"chi2_nu,omitempty" yaml:"chi2_nu,omitempty"`
	NFree  *int     `json:"nfree,omitempty" yaml:"nfree,omitempty"`
	NFix   *int     `json:"nfix,omitempty" yaml:"nfix,omitempty"`
}

// IsZero reports whether no statistic was reported.
func (s Statistics) IsZero() bool {
	return s.Chi2 == nil && s.NDOF == nil && s.Chi2Nu == nil && s.NFree == nil && s.NFix == nil
}

// Result is the outcome of one fit, read from a single source.
type Result struct {
	Components []Component `json:"components" yaml:"components"`
	Statistics Statistics  `json:"statistics" yaml:"statistics"`
	// InitFile is the configuration file the fit was started from, when the source records it.
	InitFile   string `json:"init_file,omitempty" yaml:"init_file,omitempty"`
	ParseError string `json:"parse_error,omitempty" yaml:"parse_error,omitempty"`
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
