package clientcli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultEndpoint is where a locally started server listens.
const DefaultEndpoint = "http://localhost:8080"

// Profile holds the endpoint and tokens for one deployment.
type Profile struct {
	Name         string `yaml:"name"`
	Endpoint     string `yaml:"endpoint"`
	AccessToken  string `yaml:"access_token,omitempty"`
	RefreshToken string `yaml:"refresh_token,omitempty"`
	Default      bool   `yaml:"default,omitempty"`
}

// ConfigFile is the on-disk list of profiles.
type ConfigFile struct {
	Profiles []Profile `yaml:"profiles"`
}

func (c *ConfigFile) index(name string) int {
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			return i
		}
	}
	return -1
}

// GetProfile returns the named profile, or the default one when name is empty.
func (c *ConfigFile) GetProfile(name string) (*Profile, error) {
	if len(c.Profiles) == 0 {
		return nil, ErrNoProfiles
	}
	if name == "" {
		return c.GetDefaultProfile(), nil
	}
	if i := c.index(name); i >= 0 {
		return &c.Profiles[i], nil
	}
	return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
}

// GetDefaultProfile returns the profile marked default, falling back to the
// first one. It returns nil for an empty file.
func (c *ConfigFile) GetDefaultProfile() *Profile {
	if len(c.Profiles) == 0 {
		return nil
	}
	for i := range c.Profiles {
		if c.Profiles[i].Default {
			return &c.Profiles[i]
		}
	}
	return &c.Profiles[0]
}

// Put stores p, replacing a profile of the same name but keeping its default
// flag. A first profile becomes the default.
func (c *ConfigFile) Put(p Profile) {
	if i := c.index(p.Name); i >= 0 {
		p.Default = c.Profiles[i].Default
		c.Profiles[i] = p
		return
	}
	p.Default = len(c.Profiles) == 0
	c.Profiles = append(c.Profiles, p)
}

// SetDefault moves the default flag to the named profile.
func (c *ConfigFile) SetDefault(name string) error {
	target := c.index(name)
	if target < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	for i := range c.Profiles {
		c.Profiles[i].Default = i == target
	}
	return nil
}

// Save writes the config to path with mode 0600, creating the parent
// directory if needed.
func (c *ConfigFile) Save(path string) error {
	cleanPath := filepath.Clean(path)

	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(cleanPath, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// LoadConfigFile reads a profile file written by Save.
func LoadConfigFile(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(filepath.Clean(path)) //#nosec G304 -- path is user-provided config file
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg ConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return &cfg, nil
}

// DefaultConfigPath returns ~/.shareustc/client.yaml, or "" when the home
// directory is unknown.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".shareustc", "client.yaml")
}

// Config is what a Client needs to reach one deployment.
type Config struct {
	Endpoint     string
	AccessToken  string
	RefreshToken string
}

// WithDefaults returns a copy with DefaultEndpoint filled in.
func (c *Config) WithDefaults() *Config {
	out := *c
	out.Endpoint = override(DefaultEndpoint, out.Endpoint)
	return &out
}

// ValidateWithAuth reports ErrTokenRequired when no access token is set.
func (c *Config) ValidateWithAuth() error {
	if c.AccessToken == "" {
		return ErrTokenRequired
	}
	return nil
}

// ConfigFromProfile copies the endpoint and tokens out of p. A nil p gives
// an empty Config.
func ConfigFromProfile(p *Profile) *Config {
	if p == nil {
		return &Config{}
	}
	return &Config{Endpoint: p.Endpoint, AccessToken: p.AccessToken, RefreshToken: p.RefreshToken}
}

// ConfigFromEnv reads SHAREUSTC_ENDPOINT, SHAREUSTC_ACCESS_TOKEN and
// SHAREUSTC_REFRESH_TOKEN.
func ConfigFromEnv() *Config {
	return &Config{
		Endpoint:     os.Getenv("SHAREUSTC_ENDPOINT"),
		AccessToken:  os.Getenv("SHAREUSTC_ACCESS_TOKEN"),
		RefreshToken: os.Getenv("SHAREUSTC_REFRESH_TOKEN"),
	}
}

// ProfileFromEnv returns SHAREUSTC_PROFILE.
func ProfileFromEnv() string {
	return os.Getenv("SHAREUSTC_PROFILE")
}

// MergeConfig layers configs left to right. Only non-empty fields override.
func MergeConfig(layers ...*Config) *Config {
	merged := &Config{}
	for _, l := range layers {
		if l == nil {
			continue
		}
		merged.Endpoint = override(merged.Endpoint, l.Endpoint)
		merged.AccessToken = override(merged.AccessToken, l.AccessToken)
		merged.RefreshToken = override(merged.RefreshToken, l.RefreshToken)
	}
	return merged
}

func override(base, v string) string {
	if v != "" {
		return v
	}
	return base
}
