package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool

	// EnvFile is the dotenv file that was applied, if any.
	EnvFile string
}

// Load resolves, reads, parses, and validates the runtime configuration.
// Environment overrides apply on top of the file, or on top of defaults when the
// file does not exist. Values from hark.env beside the config file fill in keys the
// process environment leaves unset.
func Load(explicitPath string) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	envPath := filepath.Join(filepath.Dir(resolvedPath), EnvFileName)
	fileEnv, err := readEnvFile(envPath)
	if err != nil {
		return Loaded{}, err
	}
	if fileEnv == nil {
		envPath = ""
	}
	lookup := layeredLookup(fileEnv)

	base := Default()
	content, err := os.ReadFile(resolvedPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
		}

		applyEnv(&base, lookup)
		warnings, err := Validate(base)
		if err != nil {
			return Loaded{}, fmt.Errorf("validate config: %w", err)
		}
		return Loaded{
			Path:   resolvedPath,
			Config: base,
			Warnings: append([]Warning{{
				Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
			}}, warnings...),
			Exists:  false,
			EnvFile: envPath,
		}, nil
	}

	cfg, warnings, err := decode(string(content), base)
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, err)
	}

	applyEnv(&cfg, lookup)
	validationWarnings, err := Validate(cfg)
	if err != nil {
		return Loaded{}, fmt.Errorf("validate config %q: %w", resolvedPath, err)
	}
	warnings = append(warnings, validationWarnings...)

	return Loaded{
		Path:     resolvedPath,
		Config:   cfg,
		Warnings: warnings,
		Exists:   true,
		EnvFile:  envPath,
	}, nil
}
