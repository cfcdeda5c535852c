package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// New returns the process environment as a flat key/value map.
func New() map[string]string {
	environ := os.Environ()
	envAsMap := make(map[string]string, len(environ))
	for _, entry := range environ {
		if entry != "" {
			key, value := split(entry)
			envAsMap[key] = value
		}
	}
	return envAsMap
}

// Merge layers sources left to right; later sources win on conflicting keys.
func Merge(sources ...map[string]string) map[string]string {
	merged := make(map[string]string)
	for _, src := range sources {
		for k, v := range src {
			merged[k] = v
		}
	}
	return merged
}

// assumes entry is not the empty string
func split(entry string) (key, value string) {
	parts := strings.SplitN(entry, "=", 2)
	if len(parts) < 2 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

func GetString(config map[string]string, key string, defaultValue string) string {
	if config == nil {
		return defaultValue
	}

	if val, ok := config[key]; ok && val != "" {
		return val
	}
	return defaultValue
}

// GetFirstString returns the first non-empty value among keys.
func GetFirstString(config map[string]string, defaultValue string, keys ...string) string {
	for _, key := range keys {
		if val := GetString(config, key, ""); val != "" {
			return val
		}
	}
	return defaultValue
}

func GetInt(config map[string]string, key string, defaultValue int) int {
	if config == nil {
		return defaultValue
	}

	s, ok := config[key]
	if !ok {
		return defaultValue
	}

	asInt, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return defaultValue
	}

	return asInt
}

func GetBool(config map[string]string, key string, defaultValue bool) bool {
	s, ok := config[key]
	if !ok || strings.TrimSpace(s) == "" {
		return defaultValue
	}

	asBool, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return defaultValue
	}
	return asBool
}

// GetDuration accepts either a Go duration string ("5s") or a bare number of
// seconds.
func GetDuration(config map[string]string, key string, defaultValue time.Duration) time.Duration {
	s, ok := config[key]
	if !ok {
		return defaultValue
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultValue
	}

	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return defaultValue
}

// GetList splits a comma separated value, dropping blank entries.
func GetList(config map[string]string, key string, defaultValue []string) []string {
	s, ok := config[key]
	if !ok || strings.TrimSpace(s) == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
