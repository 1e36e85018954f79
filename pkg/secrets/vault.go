// Package secrets loads deployment secrets from HashiCorp Vault's KV store
// into the process environment before configuration is read. It talks to the
// Vault HTTP API directly so no Vault SDK dependency is needed.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config controls the Vault fetch. All fields come from VAULT_* env vars.
type Config struct {
	Enabled   bool
	Addr      string
	Token     string
	Mount     string
	Path      string
	KVVersion int
	Timeout   time.Duration
	Overwrite bool
}

// Result reports how many secrets were applied.
type Result struct {
	Enabled bool
	Loaded  int
	Skipped int
}

// ConfigFromEnv builds a Config from VAULT_* environment variables. Vault is
// opt-in: with VAULT_ENABLED unset the loader is a no-op.
func ConfigFromEnv() Config {
	kvVersion := 2
	if v := os.Getenv("VAULT_KV_VERSION"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			kvVersion = parsed
		}
	}

	mount := os.Getenv("VAULT_MOUNT")
	if mount == "" {
		mount = "secret"
	}

	timeout := 5 * time.Second
	if v := os.Getenv("VAULT_TIMEOUT_MS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			timeout = time.Duration(parsed) * time.Millisecond
		}
	}

	return Config{
		Enabled:   strings.EqualFold(os.Getenv("VAULT_ENABLED"), "true"),
		Addr:      os.Getenv("VAULT_ADDR"),
		Token:     os.Getenv("VAULT_TOKEN"),
		Mount:     mount,
		Path:      os.Getenv("VAULT_PATH"),
		KVVersion: kvVersion,
		Timeout:   timeout,
		Overwrite: strings.EqualFold(os.Getenv("VAULT_OVERWRITE"), "true"),
	}
}

// Apply fetches the secret payload and exports each key as an environment
// variable. Existing variables win unless Overwrite is set.
func Apply(ctx context.Context, cfg Config) (Result, error) {
	if !cfg.Enabled {
		return Result{}, nil
	}
	if cfg.Addr == "" || cfg.Token == "" || cfg.Path == "" {
		return Result{Enabled: true}, errors.New("vault configuration incomplete (VAULT_ADDR, VAULT_TOKEN, VAULT_PATH)")
	}

	data, err := fetch(ctx, cfg)
	if err != nil {
		return Result{Enabled: true}, err
	}

	res := Result{Enabled: true}
	for key, value := range data {
		if !cfg.Overwrite && os.Getenv(key) != "" {
			res.Skipped++
			continue
		}
		if err := os.Setenv(key, stringify(value)); err != nil {
			return res, err
		}
		res.Loaded++
	}

	return res, nil
}

func fetch(ctx context.Context, cfg Config) (map[string]interface{}, error) {
	url, err := secretURL(cfg)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Vault-Token", cfg.Token)

	client := &http.Client{Timeout: cfg.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("vault fetch failed: %s %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	data, ok := payload["data"].(map[string]interface{})
	if !ok {
		return nil, errors.New("vault response missing data")
	}
	if cfg.KVVersion == 1 {
		return data, nil
	}
	// KV v2 nests the payload one level deeper
	inner, ok := data["data"].(map[string]interface{})
	if !ok {
		return nil, errors.New("vault response missing data for KV v2")
	}
	return inner, nil
}

func secretURL(cfg Config) (string, error) {
	addr := strings.TrimRight(cfg.Addr, "/")
	mount := strings.Trim(cfg.Mount, "/")
	path := strings.TrimLeft(cfg.Path, "/")
	if addr == "" || mount == "" || path == "" {
		return "", errors.New("vault address, mount, and path must be set")
	}
	if cfg.KVVersion == 1 {
		return fmt.Sprintf("%s/v1/%s/%s", addr, mount, path), nil
	}
	return fmt.Sprintf("%s/v1/%s/data/%s", addr, mount, path), nil
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}
