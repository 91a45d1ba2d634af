// Package config loads server settings from the environment and the provider
// table from YAML.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed providers.yaml
var defaultProviders []byte

// EnvDevelopment is the default APP_ENV.
const EnvDevelopment = "development"

// ErrKeyNotFound is returned when a provider credential is not set.
var ErrKeyNotFound = errors.New("key not found")

// Config holds all application configuration values.
type Config struct {
	Env             string
	HTTPAddr        string
	ProviderTimeout time.Duration
	Providers       []ProviderConfig
}

// ProviderConfig is the static table entry for one provider.
type ProviderConfig struct {
	Name        string            `yaml:"name"`
	DisplayName string            `yaml:"display_name"`
	KeyEnv      string            `yaml:"key_env"`
	URL         string            `yaml:"url"`
	DetailsURL  string            `yaml:"details_url"`
	MaxRadius   int               `yaml:"max_radius"`
	Params      map[string]string `yaml:"params"`
}

type providersFile struct {
	Providers []ProviderConfig `yaml:"providers"`
}

// Load reads configuration from environment variables and an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	timeout, err := time.ParseDuration(getEnv("PROVIDER_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid PROVIDER_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("PROVIDER_TIMEOUT must be positive")
	}

	data := defaultProviders
	if path := getEnv("PROVIDERS_FILE", ""); path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read providers file: %w", err)
		}
	}

	providers, err := ParseProviders(data)
	if err != nil {
		return nil, err
	}

	for i := range providers {
		prefix := strings.ToUpper(providers[i].Name)
		providers[i].URL = getEnv(prefix+"_URL", providers[i].URL)
		providers[i].DetailsURL = getEnv(prefix+"_DETAILS_URL", providers[i].DetailsURL)
	}

	return &Config{
		Env:             getEnv("APP_ENV", EnvDevelopment),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		ProviderTimeout: timeout,
		Providers:       providers,
	}, nil
}

// ParseProviders decodes a provider table.
func ParseProviders(data []byte) ([]ProviderConfig, error) {
	var f providersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse providers: %w", err)
	}

	seen := make(map[string]bool, len(f.Providers))
	for _, p := range f.Providers {
		if p.Name == "" {
			return nil, fmt.Errorf("parse providers: entry without name")
		}
		if p.URL == "" {
			return nil, fmt.Errorf("parse providers: %s has no url", p.Name)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("parse providers: duplicate provider %s", p.Name)
		}
		seen[p.Name] = true
	}

	return f.Providers, nil
}

// Provider returns the table entry with the given name.
func (c *Config) Provider(name string) (ProviderConfig, bool) {
	for _, p := range c.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return ProviderConfig{}, false
}

// LookupKey returns the credential stored in the environment variable envVar.
func LookupKey(envVar string) (string, error) {
	if v, ok := os.LookupEnv(envVar); ok && v != "" {
		return v, nil
	}
	return "", fmt.Errorf("could not find %s in environment: %w", envVar, ErrKeyNotFound)
}

// getEnv gets an environment variable with a default fallback.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
