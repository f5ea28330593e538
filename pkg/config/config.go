// Package config resolves runtime configuration from an optional YAML file
// and PAGETIMING_* environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration.
type Config struct {
	// ListenAddr is the server bind address.
	ListenAddr string

	// TargetURL is the page the server probes when rendering a breakdown.
	TargetURL string

	// ProbeTimeout bounds a single probe.
	ProbeTimeout time.Duration

	// Protocol selects the probe protocol ("http/1.1" or "http/2").
	Protocol string

	// InsecureTLS skips certificate verification on probes.
	InsecureTLS bool

	// RenderDelay defers the whole capture-and-compute cycle, giving the
	// page time to reach later milestones before it is measured. Zero
	// runs immediately.
	RenderDelay time.Duration

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// PhaseColors overrides the display color per phase name (network,
	// server, browser). Phases not listed keep their defaults.
	PhaseColors map[string]string
}

// configFile mirrors the YAML schema. It is kept separate from Config so
// runtime-only resolution stays out of the file format.
type configFile struct {
	Server struct {
		Listen string `yaml:"listen"`
	} `yaml:"server"`
	Probe struct {
		Target      string `yaml:"target"`
		TimeoutMS   int    `yaml:"timeout_ms"`
		Protocol    string `yaml:"protocol"`
		InsecureTLS bool   `yaml:"insecure_tls"`
		DelayMS     int    `yaml:"delay_ms"`
	} `yaml:"probe"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Colors map[string]string `yaml:"colors"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		ListenAddr:   ":7421",
		ProbeTimeout: 30 * time.Second,
		Protocol:     "http/1.1",
		LogLevel:     "info",
	}
}

// Load resolves configuration: defaults, then the YAML file at path (if
// path is non-empty), then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		var f configFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		applyFile(&cfg, f)
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyFile(cfg *Config, f configFile) {
	if f.Server.Listen != "" {
		cfg.ListenAddr = f.Server.Listen
	}
	if f.Probe.Target != "" {
		cfg.TargetURL = f.Probe.Target
	}
	if f.Probe.TimeoutMS > 0 {
		cfg.ProbeTimeout = time.Duration(f.Probe.TimeoutMS) * time.Millisecond
	}
	if f.Probe.Protocol != "" {
		cfg.Protocol = f.Probe.Protocol
	}
	if f.Probe.InsecureTLS {
		cfg.InsecureTLS = true
	}
	if f.Probe.DelayMS > 0 {
		cfg.RenderDelay = time.Duration(f.Probe.DelayMS) * time.Millisecond
	}
	if f.Log.Level != "" {
		cfg.LogLevel = f.Log.Level
	}
	for phase, color := range f.Colors {
		if color == "" {
			continue
		}
		if cfg.PhaseColors == nil {
			cfg.PhaseColors = make(map[string]string)
		}
		cfg.PhaseColors[phase] = color
	}
}

func applyEnv(cfg *Config) {
	cfg.ListenAddr = getenv("PAGETIMING_LISTEN", cfg.ListenAddr)
	cfg.TargetURL = getenv("PAGETIMING_TARGET", cfg.TargetURL)
	cfg.Protocol = getenv("PAGETIMING_PROTOCOL", cfg.Protocol)
	cfg.LogLevel = getenv("PAGETIMING_LOG_LEVEL", cfg.LogLevel)
	if v := os.Getenv("PAGETIMING_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.ProbeTimeout = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("PAGETIMING_DELAY_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.RenderDelay = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("PAGETIMING_INSECURE_TLS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.InsecureTLS = b
		}
	}
	colorVars := map[string]string{
		"network": "PAGETIMING_COLOR_NETWORK",
		"server":  "PAGETIMING_COLOR_SERVER",
		"browser": "PAGETIMING_COLOR_BROWSER",
	}
	for phase, key := range colorVars {
		if v := os.Getenv(key); v != "" {
			if cfg.PhaseColors == nil {
				cfg.PhaseColors = make(map[string]string)
			}
			cfg.PhaseColors[phase] = v
		}
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
