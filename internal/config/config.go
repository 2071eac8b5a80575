package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"

	"github.com/alanmeadows/langbridge/internal/store"
)

const (
	appName  = "langbridge"
	fileName = "langbridge.jsonc"
)

// Load reads and merges configuration.
// Resolution order: defaults → user config (~/.config/langbridge/langbridge.jsonc)
// → project config (.langbridge/langbridge.jsonc, or override when non-empty)
// → .env → environment variables.
func Load(override string) (*Config, error) {
	cfg := DefaultConfig()

	if userPath := UserConfigPath(); userPath != "" {
		if err := mergeFile(&cfg, userPath, false); err != nil {
			return nil, fmt.Errorf("merging user config: %w", err)
		}
	}

	projectPath := override
	if projectPath == "" {
		projectPath = ProjectConfigPath()
	}
	if err := mergeFile(&cfg, projectPath, override != ""); err != nil {
		return nil, fmt.Errorf("merging project config: %w", err)
	}

	// godotenv.Load never overrides variables that are already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// UserConfigPath returns the user-level config file path, or "" if the
// user config directory cannot be determined.
func UserConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appName, fileName)
}

// UserDir returns the user-level langbridge directory.
func UserDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appName)
}

// ProjectConfigPath returns the project-level config path relative to the
// working directory.
func ProjectConfigPath() string {
	return filepath.Join("."+appName, fileName)
}

// mergeFile merges a JSONC file into cfg. A missing file is skipped unless
// required is set.
func mergeFile(cfg *Config, path string, required bool) error {
	m, err := loadJSONC(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return mergeIntoConfig(cfg, m)
}

// loadJSONC reads a JSONC file and returns it as a map. The read holds the
// shared side of the lock config edits take; files in directories where the
// lock file cannot be created are read unlocked.
func loadJSONC(path string) (map[string]any, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	var data []byte
	read := func() error {
		var err error
		data, err = os.ReadFile(path)
		return err
	}
	err := store.WithReadLock(context.Background(), path, store.DefaultLockTimeout, read)
	if errors.Is(err, fs.ErrPermission) && data == nil {
		err = read()
	}
	if err != nil {
		return nil, err
	}
	jsonData := jsonc.ToJSON(data)
	var m map[string]any
	if err := json.Unmarshal(jsonData, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}

// mergeIntoConfig round-trips cfg through a map so mergo can deep-merge src
// over it.
func mergeIntoConfig(cfg *Config, src map[string]any) error {
	cfgBytes, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	var dst map[string]any
	if err := json.Unmarshal(cfgBytes, &dst); err != nil {
		return err
	}

	if err := mergo.Merge(&dst, src, mergo.WithOverride); err != nil {
		return err
	}

	merged, err := json.Marshal(dst)
	if err != nil {
		return err
	}
	return json.Unmarshal(merged, cfg)
}

// applyEnvOverrides applies environment variable overrides to the config.
// The NEXT_PUBLIC_ names are accepted for compatibility with existing
// web-client deployments; the unprefixed names win.
func applyEnvOverrides(cfg *Config) {
	if v := firstEnv("LANGGRAPH_API_URL", "NEXT_PUBLIC_LANGGRAPH_API_URL"); v != "" {
		cfg.Server.URL = v
	}
	if v := firstEnv("LANGGRAPH_ASSISTANT_ID", "NEXT_PUBLIC_LANGGRAPH_ASSISTANT_ID"); v != "" {
		cfg.Server.AssistantID = v
	}
	if v := os.Getenv("LANGGRAPH_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("LANGGRAPH_MODEL_NAME"); v != "" {
		cfg.Run.ModelName = v
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
