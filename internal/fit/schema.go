package fit

import (
	"cmp"
	"slices"
	"strings"
)

// Unused marks a positional slot that carries no parameter for a kind.
const Unused = ""

var paramNames = map[Kind][]string{
	KindSersic:  {"x", "y", "magnitude", "R_e", "n", "b/a", "PA"},
	KindExpDisk: {"x", "y", "magnitude", "R_s", Unused, "b/a", "PA"},
	KindSky:     {"x", "y", "sky", "dsky/dx", "dsky/dy"},
}

var fallbackNames = []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7"}

// ParamNames returns the positional parameter names of a kind.
// Kinds without a dedicated layout, psf included, get the p1..p7 fallback.
// Slots set to Unused hold no parameter.
func ParamNames(k Kind) []string {
	if names, ok := paramNames[k]; ok {
		return slices.Clone(names)
	}
	return slices.Clone(fallbackNames)
}

var headerNames = map[string]string{
	"XC":   "x",
	"YC":   "y",
	"MAG":  "magnitude",
	"RE":   "R_e",
	"N":    "n",
	"AR":   "b/a",
	"PA":   "PA",
	"SKY":  "sky",
	"DSDX": "dsky/dx",
	"DSDY": "dsky/dy",
}

// HeaderParamName translates a FITS header parameter key (the part after "<N>_")
// to its parameter name. Unrecognized keys are lowercased.
func HeaderParamName(key string) string {
	key = strings.ToUpper(strings.TrimSpace(key))
	if name, ok := headerNames[key]; ok {
		return name
	}
	return strings.ToLower(key)
}

type signature struct {
	kind Kind
	keys []string
}

// signatures are sorted by decreasing size so that the most specific one matches first:
// expdisk keys are a subset of sersic ones.
var signatures = func() []signature {
	sigs := []signature{
		{kind: KindSersic, keys: []string{"XC", "YC", "MAG", "RE", "N", "AR", "PA"}},
		{kind: KindSky, keys: []string{"XC", "YC", "SKY", "DSDX", "DSDY"}},
		{kind: KindExpDisk, keys: []string{"XC", "YC", "MAG"}},
	}
	slices.SortStableFunc(sigs, func(a, b signature) int { return cmp.Compare(len(b.keys), len(a.keys)) })
	return sigs
}()

// InferKind guesses the kind of a component from its header parameter keys.
func InferKind(keys []string) Kind {
	present := make(map[string]bool, len(keys))
	for _, k := range keys {
		present[strings.ToUpper(strings.TrimSpace(k))] = true
	}

	for _, sig := range signatures {
		if !slices.ContainsFunc(sig.keys, func(k string) bool { return !present[k] }) {
			return sig.kind
		}
	}
	return KindUnknown
}
