package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// savedHeader is prepended to configs written by the engine, so a user
// opening the file knows edits may be overwritten from the UI.
const savedHeader = "# Written by the offersearch engine (PUT /config). Engine and selector\n" +
	"# changes apply on the next start. The previous version is kept as .bak.\n"

func Validate(cfg Config) error {
	_, v := NormalizeAndValidate(cfg)
	if !v.OK() {
		return errors.New("config validation failed:\n- " + strings.Join(v.Errors, "\n- "))
	}
	return nil
}

// SaveAtomic validates cfg, writes its normalized form next to path and
// swaps it in with a rename, keeping the previous file as path+".bak".
func SaveAtomic(path string, cfg Config) error {
	normalized, v := NormalizeAndValidate(cfg)
	if !v.OK() {
		return errors.New("config validation failed:\n- " + strings.Join(v.Errors, "\n- "))
	}

	body, err := yaml.Marshal(&normalized)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(savedHeader); err == nil {
		_, err = tmp.Write(body)
	}
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}

	bak := path + ".bak"
	_ = os.Remove(bak)
	if err := os.Link(path, bak); err != nil && !errors.Is(err, os.ErrNotExist) {
		// filesystems without hard links still get a backup
		if err := os.Rename(path, bak); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("backup config: %w", err)
		}
	}
	return os.Rename(tmp.Name(), path)
}
