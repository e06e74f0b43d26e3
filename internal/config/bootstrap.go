package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnsureUserConfig returns dataDir/config.yml, creating it from defaultPath
// (or from Defaults when defaultPath does not exist) on first run.
func EnsureUserConfig(dataDir string, defaultPath string) (string, error) {
	userPath := filepath.Join(dataDir, "config.yml")

	_, err := os.Stat(userPath)
	if err == nil {
		return userPath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", err
	}

	src, err := os.Open(defaultPath)
	if errors.Is(err, os.ErrNotExist) {
		b, err := yaml.Marshal(Defaults())
		if err != nil {
			return "", err
		}
		return userPath, os.WriteFile(userPath, b, 0o644)
	}
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(userPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return userPath, nil
}
