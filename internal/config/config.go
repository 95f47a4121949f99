// Package config holds the typed runtime configuration for the inventory service.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/autoflex/inventory/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

// Config is the root of the service configuration, populated by the
// configloader from config.yaml, .env and INVENTORY_* environment variables.
type Config struct {
	HTTPServer HTTP     `koanf:"server"`
	Database   Database `koanf:"database"`
	Log        Log      `koanf:"log"`
	PProf      PProf    `koanf:"pprof"`
	Metrics    Metrics  `koanf:"metrics"`
	Shutdown   Shutdown `koanf:"shutdown"`
}

// HTTP configures the public HTTP listener.
type HTTP struct {
	Port           int `koanf:"port"`
	MaxHeaderBytes int `koanf:"maxHeaderBytes"`
	Timeout        struct {
		Read       time.Duration `koanf:"read"`
		Write      time.Duration `koanf:"write"`
		Idle       time.Duration `koanf:"idle"`
		ReadHeader time.Duration `koanf:"readHeader"`
	} `koanf:"timeout"`
}

func (c *HTTP) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Port)
	}
	timeouts := map[string]time.Duration{
		"server.timeout.read":       c.Timeout.Read,
		"server.timeout.write":      c.Timeout.Write,
		"server.timeout.idle":       c.Timeout.Idle,
		"server.timeout.readHeader": c.Timeout.ReadHeader,
	}
	for name, d := range timeouts {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, d)
		}
	}
	return nil
}

// Database configures the PostgreSQL connection.
type Database struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

func (c *Database) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("database.url is not set")
	}
	if !strings.HasPrefix(c.URL, "postgres://") && !strings.HasPrefix(c.URL, "postgresql://") {
		return fmt.Errorf("database.url must be a postgres:// URL")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("database.timeout must be positive, got %v", c.Timeout)
	}
	return nil
}

// Log configures structured logging.
type Log struct {
	Level string `koanf:"level"`
}

func (c *Log) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("log.level unknown: %q", c.Level)
}

// PProf gates the debug profiling listener.
type PProf struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

func (c *PProf) Validate() error {
	if c.Enabled && c.Addr == "" {
		return fmt.Errorf("pprof.addr is required when pprof is enabled")
	}
	return nil
}

// Metrics gates the Prometheus endpoint.
type Metrics struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

func (c *Metrics) Validate() error {
	if !c.Enabled {
		return nil
	}
	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", c.Path)
	}
	return nil
}

// Shutdown bounds the graceful-stop window.
type Shutdown struct {
	Timeout time.Duration `koanf:"timeout"`
}

func (c *Shutdown) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("shutdown.timeout must be positive, got %v", c.Timeout)
	}
	return nil
}

// Validate checks every section and returns the first failure.
func (c *Config) Validate() error {
	sections := []interface{ Validate() error }{
		&c.HTTPServer, &c.Database, &c.Log, &c.PProf, &c.Metrics, &c.Shutdown,
	}
	for _, s := range sections {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// String renders the effective configuration for startup logging,
// masking database credentials.
func (c *Config) String() string {
	var b strings.Builder

	b.WriteString("\n--- Server Configuration ---\n")
	fmt.Fprintf(&b, "  server.port: %d\n", c.HTTPServer.Port)
	fmt.Fprintf(&b, "  server.maxHeaderBytes: %d\n", c.HTTPServer.MaxHeaderBytes)
	fmt.Fprintf(&b, "  server.timeout.read: %v\n", c.HTTPServer.Timeout.Read)
	fmt.Fprintf(&b, "  server.timeout.write: %v\n", c.HTTPServer.Timeout.Write)
	fmt.Fprintf(&b, "  server.timeout.idle: %v\n", c.HTTPServer.Timeout.Idle)
	fmt.Fprintf(&b, "  server.timeout.readHeader: %v\n", c.HTTPServer.Timeout.ReadHeader)

	b.WriteString("\n--- Database Configuration ---\n")
	fmt.Fprintf(&b, "  database.url: %s\n", maskURL(c.Database.URL))
	fmt.Fprintf(&b, "  database.timeout: %s\n", c.Database.Timeout)

	b.WriteString("\n--- Observability & Logging ---\n")
	fmt.Fprintf(&b, "  log.level: %s\n", c.Log.Level)
	fmt.Fprintf(&b, "  pprof.enabled: %t\n", c.PProf.Enabled)
	fmt.Fprintf(&b, "  pprof.addr: %s\n", c.PProf.Addr)
	fmt.Fprintf(&b, "  metrics.enabled: %t\n", c.Metrics.Enabled)
	fmt.Fprintf(&b, "  metrics.path: %s\n", c.Metrics.Path)

	b.WriteString("\n--- Application Behavior ---\n")
	fmt.Fprintf(&b, "  shutdown.timeout: %s\n", c.Shutdown.Timeout)

	return b.String()
}

// maskURL hides everything before the host part of a connection URL.
func maskURL(url string) string {
	if url == "" {
		return "<not configured>"
	}
	if at := strings.LastIndex(url, "@"); at >= 0 {
		return "****@" + url[at+1:]
	}
	return "****"
}
