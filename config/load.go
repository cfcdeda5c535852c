package config

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Load assembles the runtime configuration. The optional CONFIG_FILE comes
// first, then parameters under SSM_PARAMETER_PATH, then the process
// environment, which always wins.
func Load(ctx context.Context) (map[string]string, error) {
	env := New()
	layers := []map[string]string{}

	if file := GetString(env, "CONFIG_FILE", ""); file != "" {
		fromFile, err := LoadFile(file)
		if err != nil {
			return nil, err
		}
		log.Info().Str("file", file).Int("keys", len(fromFile)).Msg("loaded config file")
		layers = append(layers, fromFile)
	}

	if prefix := GetString(env, "SSM_PARAMETER_PATH", ""); prefix != "" {
		client, err := NewSSMClient(ctx, GetString(env, "AWS_REGION", ""))
		if err != nil {
			return nil, err
		}
		params, err := LoadSSMParameters(ctx, client, prefix)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", prefix).Int("keys", len(params)).Msg("loaded SSM parameters")
		layers = append(layers, params)
	}

	layers = append(layers, env)
	return Merge(layers...), nil
}
