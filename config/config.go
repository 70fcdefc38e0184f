// Package config reads the settings shared by the pgext tools from the
// environment, falling back to pg_config for the installation directories.
package config

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
)

// Environment variables read by Load.
const (
	EnvLibDir      = "PGEXT_LIB_DIR"
	EnvShareDir    = "PGEXT_SHARE_DIR"
	EnvPGConfig    = "PGEXT_PG_CONFIG"
	EnvLogLevel    = "PGEXT_LOG_LEVEL"
	EnvCallTimeout = "PGEXT_CALL_TIMEOUT"
)

// Config holds the tool settings.
type Config struct {
	// LibDir is the directory holding extension shared libraries
	// (pg_config --pkglibdir).
	LibDir string
	// ShareDir is the installation's share directory (pg_config --sharedir);
	// control files and scripts live in its extension subdirectory.
	ShareDir string
	// PGConfig is the pg_config executable used to fill in missing
	// directories.
	PGConfig string
	LogLevel logrus.Level
	// CallTimeout bounds each extension call. Zero means no limit.
	CallTimeout time.Duration
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		PGConfig: "pg_config",
		LogLevel: logrus.InfoLevel,
	}
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom reads the configuration through lookup, which has the signature of
// os.LookupEnv.
func LoadFrom(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if v, ok := lookup(EnvLibDir); ok {
		cfg.LibDir = v
	}
	if v, ok := lookup(EnvShareDir); ok {
		cfg.ShareDir = v
	}
	if v, ok := lookup(EnvPGConfig); ok && v != "" {
		cfg.PGConfig = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		level, err := logrus.ParseLevel(v)
		if err != nil {
			return Config{}, errors.Wrapf(err, "%s", EnvLogLevel)
		}
		cfg.LogLevel = level
	}
	if v, ok := lookup(EnvCallTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, errors.Wrapf(err, "%s", EnvCallTimeout)
		}
		if d < 0 {
			return Config{}, errors.Newf("%s must not be negative, got %s", EnvCallTimeout, d)
		}
		cfg.CallTimeout = d
	}
	return cfg, nil
}

// ExtensionDir returns the directory holding control files and scripts.
func (c Config) ExtensionDir() string {
	if c.ShareDir == "" {
		return ""
	}
	return filepath.Join(c.ShareDir, "extension")
}

// ResolveDirectories asks pg_config for whichever of LibDir and ShareDir is
// not set.
func (c *Config) ResolveDirectories(ctx context.Context) error {
	if c.LibDir == "" {
		dir, err := c.pgConfig(ctx, "--pkglibdir")
		if err != nil {
			return err
		}
		c.LibDir = dir
	}
	if c.ShareDir == "" {
		dir, err := c.pgConfig(ctx, "--sharedir")
		if err != nil {
			return err
		}
		c.ShareDir = dir
	}
	return nil
}

func (c Config) pgConfig(ctx context.Context, flag string) (string, error) {
	out, err := exec.CommandContext(ctx, c.PGConfig, flag).Output()
	if err != nil {
		return "", errors.Wrapf(err, "running %s %s", c.PGConfig, flag)
	}
	dir := string(bytes.TrimSpace(out))
	if dir == "" {
		return "", errors.Newf("%s %s printed nothing", c.PGConfig, flag)
	}
	return dir, nil
}

// Logger returns a logger writing text to stderr at the configured level.
func (c Config) Logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(c.LogLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	return logger
}

// Context returns ctx bounded by CallTimeout, if one is set.
func (c Config) Context(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.CallTimeout > 0 {
		return context.WithTimeout(ctx, c.CallTimeout)
	}
	return context.WithCancel(ctx)
}
