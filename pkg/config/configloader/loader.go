// Package configloader layers configuration sources into a validated struct.
package configloader

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// configFile is read from the working directory when present.
const configFile = "config.yaml"

// Validator is implemented by configuration roots that can check themselves.
type Validator interface {
	Validate() error
}

// Load builds the configuration for the named service by merging, in order of
// increasing precedence: config.yaml, a .env file, and <SERVICE>_* environment
// variables. Nested keys use '_' in the environment ("INVENTORY_SERVER_PORT"
// maps to "server.port"). The result is validated before being returned.
func Load[T Validator](serviceName string) (T, error) {
	var cfg T
	k := koanf.New(".")
	prefix := strings.ToUpper(serviceName) + "_"
	flatten := keyFlattener(prefix)

	loadYAMLFile(k)
	loadDotEnv(k, flatten)

	// System environment wins over both files.
	if err := k.Load(env.Provider(prefix, ".", flatten), nil); err != nil {
		log.Printf("WARN: error loading system env vars: %v", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// keyFlattener maps an environment variable name to a koanf key path:
// the prefix is stripped and underscores become dots.
func keyFlattener(prefix string) func(string) string {
	lowerPrefix := strings.ToLower(prefix)
	return func(key string) string {
		key = strings.ToLower(key)
		key = strings.TrimPrefix(key, lowerPrefix)
		return strings.ReplaceAll(key, "_", ".")
	}
}

// loadYAMLFile merges config.yaml if it exists; a missing file is not an error.
func loadYAMLFile(k *koanf.Koanf) {
	if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("WARN: error loading YAML config file %q: %v", configFile, err)
		}
	}
}

// loadDotEnv merges a .env file from the working directory if one exists.
func loadDotEnv(k *koanf.Koanf, flatten func(string) string) {
	envFileMap, err := godotenv.Read(".env")
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("WARN: error reading .env file: %v", err)
		}
		return
	}
	envMap := make(map[string]any, len(envFileMap))
	for key, value := range envFileMap {
		envMap[flatten(key)] = value
	}
	if err := k.Load(confmap.Provider(envMap, "."), nil); err != nil {
		log.Printf("WARN: error loading .env config: %v", err)
	}
}
