package cfddns

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// EnvAPIToken is the environment variable consulted for the API token.
// It takes precedence over the token stored in the credentials file.
const EnvAPIToken = "CF_API_KEY"

// Credentials holds the Cloudflare account identity used for every API call.
// Immutable for the process lifetime once resolved.
type Credentials struct {
	Email  string `json:"email"`
	APIKey string `json:"api_key"`
}

// DefaultConfigPath returns the per-user credentials file location,
// e.g. ~/.config/cfddns/config.json on Linux.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "cfddns", "config.json")
}

// DefaultStatePath returns the per-user last-known-address file location.
func DefaultStatePath() string {
	return filepath.Join(filepath.Dir(DefaultConfigPath()), "state")
}

// LoadCredentials reads the JSON credentials file at path.
// A missing file is not an error: it returns empty credentials so that
// values from flags and the environment can still complete the set.
func LoadCredentials(path string) (Credentials, error) {
	var creds Credentials
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return creds, nil
	}
	if err != nil {
		return creds, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &creds); err != nil {
		return creds, fmt.Errorf("config file %s is not valid JSON: %w", path, err)
	}
	return creds, nil
}

// Save writes the credentials as JSON with owner-only permissions,
// creating the parent directory on first use.
func (c Credentials) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding credentials: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("unable to create %q: %w", path, err)
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("error writing %q: %w", path, err)
	}
	return nil
}

// Resolve applies the precedence rules to produce the effective credentials:
// explicit flag values win, then the CF_API_KEY environment variable
// (token only), then whatever the file held.
func (c Credentials) Resolve(flagEmail, envToken string) Credentials {
	out := c
	if flagEmail != "" {
		out.Email = flagEmail
	}
	if envToken != "" {
		out.APIKey = envToken
	}
	return out
}

// Complete reports whether both fields are set.
func (c Credentials) Complete() bool {
	return c.Email != "" && c.APIKey != ""
}
