// Package config loads engine settings from a YAML file, an optional .env
// file and EBS_* environment variables, in that order of precedence (later
// wins).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Engine struct {
	// MaxCallDepth bounds script recursion. Zero means the default.
	MaxCallDepth int    `yaml:"max_call_depth"`
	ImportDir    string `yaml:"import_dir"`
}

type Timers struct {
	MaxTimers  int `yaml:"max_timers"`
	TickBuffer int `yaml:"tick_buffer"`
}

type Mail struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type Config struct {
	Log    Log    `yaml:"log"`
	Engine Engine `yaml:"engine"`
	Timers Timers `yaml:"timers"`
	Mail   Mail   `yaml:"mail"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Log:    Log{Level: "info", Format: "pretty"},
		Engine: Engine{MaxCallDepth: 1000, ImportDir: "."},
		Timers: Timers{MaxTimers: 32, TickBuffer: 64},
		Mail:   Mail{Port: 587},
	}
}

// Load builds a Config from the defaults, the YAML file at path (skipped if
// empty), the .env file at envFile (skipped if empty) and the process
// environment.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if envFile != "" {
		// existing variables take precedence over the file
		if err := godotenv.Load(envFile); err != nil {
			return cfg, fmt.Errorf("load env file: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %q is not a number", key, v)
		}
		*dst = n
		return nil
	}

	str("EBS_LOG_LEVEL", &c.Log.Level)
	str("EBS_LOG_FORMAT", &c.Log.Format)
	str("EBS_IMPORT_DIR", &c.Engine.ImportDir)
	str("SMTP_HOST", &c.Mail.Host)
	str("SMTP_USER", &c.Mail.Username)
	str("SMTP_PASS", &c.Mail.Password)
	str("SMTP_FROM", &c.Mail.From)
	for key, dst := range map[string]*int{
		"EBS_MAX_TIMERS": &c.Timers.MaxTimers,
		"EBS_MAX_DEPTH":  &c.Engine.MaxCallDepth,
		"SMTP_PORT":      &c.Mail.Port,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}
	return nil
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	if c.Engine.MaxCallDepth < 0 {
		return fmt.Errorf("engine.max_call_depth must not be negative")
	}
	if c.Timers.MaxTimers <= 0 {
		return fmt.Errorf("timers.max_timers must be positive")
	}
	if c.Timers.TickBuffer < 0 {
		return fmt.Errorf("timers.tick_buffer must not be negative")
	}
	if c.Mail.Port < 0 || c.Mail.Port > 65535 {
		return fmt.Errorf("mail.port %d out of range", c.Mail.Port)
	}
	return nil
}

// YAML renders c as YAML.
func (c Config) YAML() (string, error) {
	data, err := yaml.MarshalWithOptions(c, yaml.Indent(2))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
