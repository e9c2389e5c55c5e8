package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvVarEnv    = "REPEATBOT_ENV"
	EnvVarPrefix = "REPEATBOT_PREFIX"
	EnvVarDotEnv = "REPEATBOT_DOTENV"
)

// LoadDotEnv loads .env.local then .env from dir (cwd when empty).
// Variables already set are kept. Missing files are skipped.
// It returns the files that were loaded.
func LoadDotEnv(dir string) ([]string, error) {
	if dotEnvDisabled() {
		return nil, nil
	}
	var loaded []string
	for _, name := range []string{".env.local", ".env"} {
		p := filepath.Join(dir, name)
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return loaded, fmt.Errorf("load %s: %w", p, err)
		}
		loaded = append(loaded, p)
	}
	return loaded, nil
}

func dotEnvDisabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvVarDotEnv))) {
	case "0", "false", "off", "no":
		return true
	default:
		return false
	}
}

// applyEnv lets the environment override the file.
func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvVarEnv)); v != "" {
		cfg.Env = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvVarPrefix)); v != "" {
		cfg.Command.Prefix = v
	}
}
