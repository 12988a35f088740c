package feedme

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/galaxy-morphology/galfitkit/internal/fileutils"
	"github.com/galaxy-morphology/galfitkit/internal/numeric"
	"github.com/go-viper/mapstructure/v2"
	"github.com/ubuntu/decorate"
	"gopkg.in/yaml.v3"
)

// DecodeRequests converts loosely typed items into insert requests.
// An item is either the token "sersic" or "psf", or a table with a "type" key
// and an optional "delta_mag" key. Anything else is an ErrUnknownRequest.
func DecodeRequests(items []any) ([]Request, error) {
	reqs := make([]Request, 0, len(items))
	for i, item := range items {
		r, err := decodeRequest(item)
		if err != nil {
			return nil, fmt.Errorf("item %d (%v): %w", i, item, err)
		}
		reqs = append(reqs, r)
	}
	return reqs, nil
}

func decodeRequest(item any) (r Request, err error) {
	switch v := item.(type) {
	case string:
		r.Type = v
	case Request:
		r = v
	default:
		if item == nil || reflect.ValueOf(item).Kind() != reflect.Map {
			return r, fmt.Errorf("%w: expected a string or a table, got %T", ErrUnknownRequest, item)
		}
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			DecodeHook:  numeric.FloatHook(),
			ErrorUnused: true,
			Result:      &r,
		})
		if err != nil {
			return r, err
		}
		if err := dec.Decode(item); err != nil {
			return r, fmt.Errorf("%w: %v", ErrUnknownRequest, err)
		}
	}

	r.Type = normalizeType(r.Type)
	if r.Type != TypeSersic && r.Type != TypePSF {
		return r, fmt.Errorf("%w: type %q, use %q or %q", ErrUnknownRequest, r.Type, TypeSersic, TypePSF)
	}
	return r, nil
}

// ParseRequest parses a command line token: "sersic", "psf" or "psf:<delta_mag>".
func ParseRequest(token string) (Request, error) {
	typ, delta, found := strings.Cut(token, ":")
	if !found {
		return decodeRequest(token)
	}
	return decodeRequest(map[string]any{"type": typ, "delta_mag": strings.TrimSpace(delta)})
}

// requestFile is the table form of a request file. TOML documents must use it.
type requestFile struct {
	Components []any `json:"components" yaml:"components" toml:"components"`
}

// LoadRequests reads insert requests from a YAML, TOML or JSON file.
// YAML and JSON files hold either a list of items or a table with a "components" list.
func LoadRequests(path string) (reqs []Request, err error) {
	defer decorate.OnError(&err, "could not load requests from %s", path)

	text, err := fileutils.ReadText(path)
	if err != nil {
		return nil, err
	}

	var items []any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		var f requestFile
		if _, err := toml.Decode(text, &f); err != nil {
			return nil, err
		}
		items = f.Components
	case ".json":
		raw, err := fileutils.DecodeJSON(strings.NewReader(text))
		if err != nil {
			return nil, err
		}
		if items, err = requestItems(raw); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		var raw any
		if err := yaml.Unmarshal([]byte(text), &raw); err != nil {
			return nil, err
		}
		if items, err = requestItems(raw); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported request file extension %q, use .yaml, .toml or .json", filepath.Ext(path))
	}

	return DecodeRequests(items)
}

// requestItems extracts the item list of a decoded YAML or JSON document.
func requestItems(raw any) ([]any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []any:
		return v, nil
	case map[string]any:
		c, ok := v["components"]
		if !ok {
			return nil, fmt.Errorf("missing %q list", "components")
		}
		items, ok := c.([]any)
		if !ok && c != nil {
			return nil, fmt.Errorf("%q must be a list, got %T", "components", c)
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected a list or a table, got %T", raw)
	}
}
