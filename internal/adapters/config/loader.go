// Package config provides the configuration loader for subdiv.
package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultFilename is the configuration file looked up in the working directory.
	DefaultFilename = "subdiv.yaml"
	// PathEnv overrides the configuration path used at startup.
	PathEnv = "SUBDIV_CONFIG"
)

// FileConfigLoader implements ports.ConfigLoader using a YAML file.
type FileConfigLoader struct{}

// NewLoader creates a new FileConfigLoader.
func NewLoader() *FileConfigLoader {
	return &FileConfigLoader{}
}

// Load reads the configuration at path. A missing file yields the defaults.
func (l *FileConfigLoader) Load(path string) (*domain.Config, error) {
	return Load(path)
}

// StartupPath returns the configuration path from the environment, falling
// back to DefaultFilename.
func StartupPath() string {
	if p := os.Getenv(PathEnv); p != "" {
		return p
	}
	return DefaultFilename
}

// Load reads a configuration file from the given path and resolves it onto the defaults.
func Load(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.DefaultConfig(), nil
		}
		return nil, zerr.Wrap(err, "failed to read config file")
	}

	var file Subdivfile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.Wrap(err, "failed to parse config file")
	}
	return resolve(&file)
}

func resolve(file *Subdivfile) (*domain.Config, error) {
	cfg := domain.DefaultConfig()

	if file.Log.Level != "" {
		cfg.LogLevel = domain.ParseLogLevel(file.Log.Level)
	}

	if d := file.Descriptor; d != nil {
		if d.Scheme != "" {
			scheme, err := domain.ParseScheme(d.Scheme)
			if err != nil {
				return nil, err
			}
			cfg.Descriptor.Scheme = scheme
		}
		if d.BoundaryRule != "" {
			rule, err := domain.ParseBoundaryRule(d.BoundaryRule)
			if err != nil {
				return nil, err
			}
			cfg.Descriptor.BoundaryRule = rule
		}
		if d.IsolationLevel != nil {
			cfg.Descriptor.IsolationLevel = *d.IsolationLevel
		}
		if d.Adaptive != nil {
			cfg.Descriptor.Adaptive = *d.Adaptive
		}
		if err := cfg.Descriptor.Validate(); err != nil {
			return nil, err
		}
	}

	if len(file.Backends.Preference) > 0 {
		pref := make([]domain.BackendKind, 0, len(file.Backends.Preference))
		for _, name := range file.Backends.Preference {
			kind, err := domain.ParseBackendKind(name)
			if err != nil {
				return nil, err
			}
			pref = append(pref, kind)
		}
		cfg.Backends.Preference = pref
	}
	if file.Backends.Workers < 0 {
		return nil, zerr.With(zerr.New("negative worker count"), "workers", file.Backends.Workers)
	}
	cfg.Backends.Workers = file.Backends.Workers

	if c := file.Classifier; c != nil {
		table := domain.ClassifierConfig{
			Default:    domain.ClassTopology,
			Attributes: make(map[string]domain.ChangeClass, len(c.Attributes)),
		}
		if c.Default != "" {
			class, err := parseClass(c.Default)
			if err != nil {
				return nil, err
			}
			table.Default = class
		}
		for attr, name := range c.Attributes {
			class, err := parseClass(name)
			if err != nil {
				return nil, zerr.With(err, "attribute", attr)
			}
			table.Attributes[attr] = class
		}
		cfg.Classifier = table
	}

	if file.Watch.Debounce != "" {
		d, err := time.ParseDuration(file.Watch.Debounce)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "invalid watch debounce"), "debounce", file.Watch.Debounce)
		}
		cfg.WatchDebounce = d
	}

	if file.State != "" {
		cfg.StatePath = file.State
	}
	return cfg, nil
}

func parseClass(s string) (domain.ChangeClass, error) {
	switch c := domain.ChangeClass(s); c {
	case domain.ClassIgnore, domain.ClassAttributes, domain.ClassTopology:
		return c, nil
	default:
		return "", zerr.With(zerr.New("unknown change class"), "class", s)
	}
}
