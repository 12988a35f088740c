package fitsheader

import (
	"errors"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/galaxy-morphology/galfitkit/internal/fit"
	"github.com/galaxy-morphology/galfitkit/internal/numeric"
	"github.com/ubuntu/decorate"
)

// ErrNoModelRecord is returned when no header is marked as the model.
var ErrNoModelRecord = errors.New("no model record found in FITS headers")

var (
	compKey  = regexp.MustCompile(`^COMP_(\d+)$`)
	paramKey = regexp.MustCompile(`^(\d+)_(.+)$`)
)

type options struct {
	log *slog.Logger
}

// Option configures the result parser.
type Option func(*options)

// WithLogger sets the logger reporting values that could not be read.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// ModelHeader returns the first header with a card whose value is "model".
func ModelHeader(hdrs []Header) (Header, bool) {
	for _, h := range hdrs {
		for _, c := range h.Cards {
			if strings.EqualFold(strings.TrimSpace(c.Value), "model") {
				return h, true
			}
		}
	}
	return Header{}, false
}

// ParseResult extracts the fit result from the model header of hdrs.
func ParseResult(hdrs []Header, args ...Option) (fit.Result, error) {
	h, ok := ModelHeader(hdrs)
	if !ok {
		return fit.Result{}, ErrNoModelRecord
	}
	return ParseHeader(h, args...), nil
}

// ParseFile reads the FITS file at path and extracts its fit result.
func ParseFile(path string, args ...Option) (r fit.Result, err error) {
	defer decorate.OnError(&err, "could not parse fit result")

	hdrs, err := ReadFile(path)
	if err != nil {
		return fit.Result{}, err
	}
	return ParseResult(hdrs, args...)
}

// ParseHeader extracts the components and statistics recorded in h.
//
// Components are listed by COMP_N cards in ascending N order. Their parameters are the
// cards keyed "N_KEY", the component kind being inferred from the set of keys.
func ParseHeader(h Header, args ...Option) fit.Result {
	opts := options{log: slog.Default()}
	for _, opt := range args {
		opt(&opts)
	}

	var r fit.Result
	declared := make(map[int]string)
	params := make(map[string][]Card)
	for _, c := range h.Cards {
		switch c.Key {
		case "CHISQ":
			r.Statistics.Chi2 = floatStat(c)
		case "CHI2NU":
			r.Statistics.Chi2Nu = floatStat(c)
		case "NDOF":
			r.Statistics.NDOF = intStat(c)
		case "NFREE":
			r.Statistics.NFree = intStat(c)
		case "NFIX":
			r.Statistics.NFix = intStat(c)
		case "INITFILE", "INIT":
			if r.InitFile == "" {
				r.InitFile = c.Value
			}
		default:
			if m := compKey.FindStringSubmatch(c.Key); m != nil {
				n, err := strconv.Atoi(m[1])
				if err != nil {
					continue
				}
				declared[n] = c.Value
			} else if m := paramKey.FindStringSubmatch(c.Key); m != nil {
				params[m[1]] = append(params[m[1]], Card{Key: m[2], Value: c.Value, Comment: c.Comment, Quoted: c.Quoted})
			}
		}
	}

	ns := make([]int, 0, len(declared))
	for n := range declared {
		ns = append(ns, n)
	}
	slices.Sort(ns)

	for _, n := range ns {
		cards := params[strconv.Itoa(n)]
		keys := make([]string, 0, len(cards))
		for _, c := range cards {
			keys = append(keys, c.Key)
		}

		kind := fit.InferKind(keys)
		comp := fit.NewComponent(kind.String())
		if d := strings.ToLower(strings.TrimSpace(declared[n])); d != comp.Type {
			opts.log.Debug("Component type inferred from its parameters", "component", n, "declared", declared[n], "inferred", kind)
			comp.Declared = d
		}
		for _, c := range cards {
			v, ok := ParseValue(c.Value)
			if !ok {
				opts.log.Debug("Skipping unreadable component value", "component", n, "key", c.Key, "value", c.Value)
				continue
			}
			comp.Set(fit.HeaderParamName(c.Key), v)
		}
		r.Components = append(r.Components, comp)
	}

	return r
}

// ParseValue reads a parameter value as GALFIT writes it in headers:
// "[x]" for a fixed value, "x +/- y" for a fitted one, or a bare number.
// Asterisks flagging problematic values are ignored.
func ParseValue(s string) (fit.ParameterValue, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "*", ""))

	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		v, ok := numeric.SafeFloat(s[1 : len(s)-1])
		if !ok {
			return fit.ParameterValue{}, false
		}
		return fit.ParameterValue{Value: v, Uncertainty: fit.Ptr(0.0), Fixed: true}, true
	}

	if value, unc, found := strings.Cut(s, "+/-"); found {
		v, ok := numeric.SafeFloat(value)
		if !ok {
			return fit.ParameterValue{}, false
		}
		pv := fit.ParameterValue{Value: v}
		if u, ok := numeric.SafeFloat(unc); ok {
			pv.Uncertainty = &u
		}
		return pv, true
	}

	v, ok := numeric.SafeFloat(s)
	if !ok {
		return fit.ParameterValue{}, false
	}
	return fit.ParameterValue{Value: v}, true
}

func floatStat(c Card) *float64 {
	if v, ok := parseFloat(c.Value); ok {
		return &v
	}
	return nil
}

func intStat(c Card) *int {
	if v, ok := numeric.SafeInt(c.Value); ok {
		return &v
	}
	return nil
}
