package main

import (
	"fmt"
	"io"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// loadYAMLConfig reads a flat YAML mapping keyed by flag name, e.g.
//
//	concurrency: 8
//	db: /tmp/history.db
//
// Values from flags and environment variables take precedence.
func loadYAMLConfig(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && err != io.EOF {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return kong.ResolverFunc(func(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
		raw, ok := values[flag.Name]
		if !ok || raw == nil {
			return nil, nil
		}
		switch v := raw.(type) {
		case bool:
			return v, nil
		case map[string]any, []any:
			return nil, fmt.Errorf("config key %q must be a scalar", flag.Name)
		default:
			return fmt.Sprint(v), nil
		}
	}), nil
}
