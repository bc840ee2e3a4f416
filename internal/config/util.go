package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

var (
	errConfigFileIsDir = errors.New("config file is dir")
)

// loadFile overlays the yaml file onto cfg. A missing file is not an error.
func loadFile(path string, cfg *Config) error {
	if path == "" {
		return nil
	}

	filename, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	finfo, err := os.Stat(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if finfo.IsDir() {
		return errConfigFileIsDir
	}

	yamlFile, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(yamlFile, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", filename, err)
	}
	return nil
}

func parseEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
