package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"DetBlur/profile"
)

const (
	DefaultPath            = "config.yaml"
	DefaultInputSize       = 416
	DefaultReportIntervalS = 5
)

type Reporter struct {
	Enabled         bool   `yaml:"enabled"`
	URL             string `yaml:"url"`
	IntervalSeconds int    `yaml:"intervalSeconds"`
}

type Config struct {
	Backend     string            `yaml:"backend"`
	InputSize   int               `yaml:"inputSize"`
	Workers     int               `yaml:"workers"`
	MetricsPort int               `yaml:"metricsPort"`
	HTTPPort    int               `yaml:"httpPort"`
	LogFile     string            `yaml:"logFile"`
	Reporter    Reporter          `yaml:"reporter"`
	Detectors   []profile.Profile `yaml:"detectors"`
}

func Default() Config {
	return Config{
		Backend:   "auto",
		InputSize: DefaultInputSize,
		Workers:   1,
		Reporter: Reporter{
			IntervalSeconds: DefaultReportIntervalS,
		},
	}
}

// Load reads path on top of Default. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) normalize() {
	if c.InputSize <= 0 {
		c.InputSize = DefaultInputSize
	}
	if c.Workers <= 0 {
		c.Workers = 1
	} else if n := runtime.NumCPU(); c.Workers > n {
		c.Workers = n
	}
	if c.Reporter.IntervalSeconds <= 0 {
		c.Reporter.IntervalSeconds = DefaultReportIntervalS
	}
}

func (c Config) Validate() error {
	switch c.Backend {
	case "", "auto", "cuda", "cpu":
	default:
		return fmt.Errorf("unsupported backend: %s", c.Backend)
	}
	for _, p := range []struct {
		name string
		v    int
	}{{"metricsPort", c.MetricsPort}, {"httpPort", c.HTTPPort}} {
		if p.v < 0 || p.v > 65535 {
			return fmt.Errorf("invalid %s: %d", p.name, p.v)
		}
	}
	if c.MetricsPort != 0 && c.MetricsPort == c.HTTPPort {
		return fmt.Errorf("metricsPort and httpPort must differ, both are %d", c.HTTPPort)
	}
	if c.Reporter.Enabled && c.Reporter.URL == "" {
		return errors.New("reporter is enabled without a url")
	}
	seen := make(map[string]bool, len(c.Detectors))
	for _, p := range c.Detectors {
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: duplicate detector %s", profile.ErrInvalidProfile, p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// Profile returns the configured detector named like def, or def itself when none is configured.
func (c Config) Profile(def profile.Profile) profile.Profile {
	for _, p := range c.Detectors {
		if p.Name == def.Name {
			return p
		}
	}
	return def
}
