package cli

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Environment variables read by the CLI
const (
	EnvServer    = "LOSTFOUND_SERVER"
	EnvToken     = "LOSTFOUND_TOKEN"
	EnvTokenFile = "LOSTFOUND_TOKEN_FILE"
)

// Output formats
const (
	OutputText = "text"
	OutputJSON = "json"
)

// Config holds CLI configuration. Flags override the environment.
type Config struct {
	ServerURL string
	Token     string
	TokenFile string
	Output    string
	Verbose   bool
}

// DefaultConfig returns a Config seeded from the environment
func DefaultConfig() *Config {
	cfg := &Config{
		ServerURL: "http://localhost:8080",
		Token:     strings.TrimSpace(os.Getenv(EnvToken)),
		TokenFile: defaultTokenFile(),
		Output:    OutputText,
	}
	if v := os.Getenv(EnvServer); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv(EnvTokenFile); v != "" {
		cfg.TokenFile = v
	}
	return cfg
}

// Validate rejects settings that would only fail later with a less useful
// error: a server URL without an http(s) scheme and host, or an unknown
// output format.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("--server: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("--server: want http(s)://host[:port], got %q", c.ServerURL)
	}
	if c.Output != OutputText && c.Output != OutputJSON {
		return fmt.Errorf("--output: want %s or %s, got %q", OutputText, OutputJSON, c.Output)
	}
	return nil
}

// LoadToken reads the saved token unless one was given explicitly. A
// missing or empty token file means the user is logged out.
func (c *Config) LoadToken() error {
	if c.Token != "" {
		return nil
	}

	data, err := os.ReadFile(c.TokenFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	c.Token = strings.TrimSpace(string(data))
	return nil
}

// SaveToken writes the token readable by the owner only
func (c *Config) SaveToken(token string) error {
	c.Token = token

	if err := os.MkdirAll(filepath.Dir(c.TokenFile), 0o700); err != nil {
		return err
	}
	return os.WriteFile(c.TokenFile, []byte(token+"\n"), 0o600)
}

// ClearToken forgets the saved token. Clearing when logged out is not an
// error.
func (c *Config) ClearToken() error {
	c.Token = ""
	if err := os.Remove(c.TokenFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".lostfound", "token")
	}
	return filepath.Join(home, ".lostfound", "token")
}
