package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Config is the optional configuration file. Pointer fields distinguish
// "not set" from zero values.
type Config struct {
	DB       string `yaml:"db"`
	BankSize *int   `yaml:"bank_size"`
	Palette  string `yaml:"palette"`
	Colors   string `yaml:"colors"`
	Columns  *int   `yaml:"columns"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "nestile", "config.yaml")
}

// loadConfig reads the configuration file at path. A missing file is only an
// error if the path was given explicitly.
func loadConfig(path string, explicit bool) (*Config, error) {
	cfg := new(Config)
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config '%s': %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config '%s': %w", path, err)
	}

	return cfg, nil
}

// apply sets any flag not given on the command line or in the environment
// from the configuration file
func (cfg *Config) apply(c *cli.Context) error {
	set := func(name, value string) error {
		if c.IsSet(name) {
			return nil
		}
		return c.Set(name, value)
	}

	if cfg.DB != "" {
		if err := set("db", cfg.DB); err != nil {
			return err
		}
	}
	if cfg.BankSize != nil {
		if err := set("bank-size", strconv.Itoa(*cfg.BankSize)); err != nil {
			return err
		}
	}
	if cfg.Palette != "" {
		if err := set("palette", cfg.Palette); err != nil {
			return err
		}
	}
	if cfg.Colors != "" {
		if err := set("colors", cfg.Colors); err != nil {
			return err
		}
	}
	if cfg.Columns != nil {
		if err := set("columns", strconv.Itoa(*cfg.Columns)); err != nil {
			return err
		}
	}

	return nil
}
