package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a flat YAML document of key: value pairs. Scalar values of
// any type are kept in their textual form so they read back through GetInt,
// GetBool and friends like environment values do.
func LoadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	out := make(map[string]string, len(raw))
	for key, node := range raw {
		switch node.Kind {
		case yaml.ScalarNode:
			out[key] = node.Value
		case yaml.SequenceNode:
			var items []string
			if err := node.Decode(&items); err != nil {
				return nil, fmt.Errorf("parse config key %s: %w", key, err)
			}
			out[key] = strings.Join(items, ",")
		default:
			return nil, fmt.Errorf("parse config key %s: nested values are not supported", key)
		}
	}
	return out, nil
}
