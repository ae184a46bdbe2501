package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/kacperjurak/goocclusion"
)

// Config holds all configuration settings for a simulation run
type Config struct {
	Root        string
	FreqLow     float64
	FreqHigh    float64
	Reference   string
	FiguresFile string
	OutDir      string
	Format      string
	WebhookURL  string
	Fractions   int
	OptimMethod string
	Geometry    string
	Unity       bool
	Quiet       bool
	LogFormat   string
	Debug       bool
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port        string
	WorkerCount int
	WebhookURL  string

	// ProfilingPort serves pprof endpoints when set.
	ProfilingPort string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Root:        ".",
		FreqLow:     100,
		FreqHigh:    1500,
		FiguresFile: "figures.json",
		OutDir:      "figures",
		Format:      "png",
		OptimMethod: goocclusion.NelderMead,
		LogFormat:   "console",
	}
}

// DefaultServerConfig returns server configuration with sensible defaults
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:        "8080",
		WorkerCount: 5,
	}
}

// FreqRange returns the analysed frequency band.
func (c *Config) FreqRange() [2]float64 {
	return [2]float64{c.FreqLow, c.FreqHigh}
}

// ApplyEnv overrides fields from OCCLUSION_* environment variables.
func (c *Config) ApplyEnv() {
	c.Root = EnvOr("OCCLUSION_ROOT", c.Root)
	c.FreqLow = EnvFloatOr("OCCLUSION_FREQ_LOW", c.FreqLow)
	c.FreqHigh = EnvFloatOr("OCCLUSION_FREQ_HIGH", c.FreqHigh)
	c.Reference = EnvOr("OCCLUSION_REFERENCE", c.Reference)
	c.FiguresFile = EnvOr("OCCLUSION_FIGURES", c.FiguresFile)
	c.OutDir = EnvOr("OCCLUSION_OUT", c.OutDir)
	c.Format = EnvOr("OCCLUSION_FORMAT", c.Format)
	c.WebhookURL = EnvOr("OCCLUSION_WEBHOOK_URL", c.WebhookURL)
	c.Fractions = EnvIntOr("OCCLUSION_FRACTIONS", c.Fractions)
	c.OptimMethod = EnvOr("OCCLUSION_METHOD", c.OptimMethod)
	c.LogFormat = EnvOr("OCCLUSION_LOG_FORMAT", c.LogFormat)
}

// ApplyEnv overrides fields from OCCLUSION_* environment variables.
func (s *ServerConfig) ApplyEnv() {
	s.Port = EnvOr("OCCLUSION_PORT", s.Port)
	s.WorkerCount = EnvIntOr("OCCLUSION_WORKERS", s.WorkerCount)
	s.WebhookURL = EnvOr("OCCLUSION_WEBHOOK_URL", s.WebhookURL)
	s.ProfilingPort = EnvOr("OCCLUSION_PPROF_PORT", s.ProfilingPort)
}

// EnvOr returns the trimmed env value or def when empty.
func EnvOr(key, def string) string {
	v := strings.TrimSpace(strings.Trim(os.Getenv(key), `"`))
	if v == "" {
		return def
	}
	return v
}

// EnvIntOr returns the parsed int env value or def on empty/parse failure.
func EnvIntOr(key string, def int) int {
	n, err := strconv.Atoi(EnvOr(key, ""))
	if err != nil {
		return def
	}
	return n
}

// EnvFloatOr returns the parsed float env value or def on empty/parse failure.
func EnvFloatOr(key string, def float64) float64 {
	f, err := strconv.ParseFloat(EnvOr(key, ""), 64)
	if err != nil {
		return def
	}
	return f
}
