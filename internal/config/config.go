package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// FileName is the config file written by init and read by run.
const FileName = "ledgerprep.yaml"

// Config represents the top-level ledgerprep.yaml configuration.
type Config struct {
	BaseCurrency string         `yaml:"base_currency"`
	Output       string         `yaml:"output"`
	RunLog       string         `yaml:"run_log"`
	MetricsFile  string         `yaml:"metrics_file,omitempty"`
	RulesFile    string         `yaml:"rules_file,omitempty"`
	FX           FXConfig       `yaml:"fx"`
	Sources      []SourceConfig `yaml:"sources"`
	Logging      LoggingConfig  `yaml:"logging"`
}

// FXConfig locates the cached exchange-rate table. Each foreign currency is
// read from the column named by its code.
type FXConfig struct {
	RatesPath  string `yaml:"rates_path"`
	DateColumn string `yaml:"date_column"`
}

// SourceConfig describes one institution export.
type SourceConfig struct {
	Name      string `yaml:"name"`
	Format    string `yaml:"format"` // "bg" or "sd"
	Path      string `yaml:"path"`
	Currency  string `yaml:"currency"`
	HeaderRow int    `yaml:"header_row"` // 0-based; negative searches for it
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// Formats lists the supported source formats.
var Formats = []string{"bg", "sd"}

// Load reads a ledgerprep.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config for the two built-in institutions.
func Default() *Config {
	return &Config{
		BaseCurrency: "EUR",
		Output:       filepath.Join("data", "Finance_Processed.csv"),
		RunLog:       filepath.Join("logs", "run-log.csv"),
		RulesFile:    filepath.Join("rules", "categories.yaml"),
		FX: FXConfig{
			RatesPath:  filepath.Join("data", "fx_rates.csv"),
			DateColumn: "Date",
		},
		Sources: []SourceConfig{
			{Name: "BG", Format: "bg", Path: filepath.Join("data", "BG_Transacciones.xlsx"), Currency: "USD", HeaderRow: 7},
			{Name: "SD", Format: "sd", Path: filepath.Join("data", "SD_Transacciones.xlsx"), Currency: "EUR", HeaderRow: 6},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// envOverrides are the settings that may be replaced from the environment.
type envOverrides struct {
	Output      string `env:"LEDGERPREP_OUTPUT"`
	FXRates     string `env:"LEDGERPREP_FX_RATES"`
	LogLevel    string `env:"LEDGERPREP_LOG_LEVEL"`
	LogFormat   string `env:"LEDGERPREP_LOG_FORMAT"`
	MetricsFile string `env:"LEDGERPREP_METRICS_FILE"`
}

// ApplyEnv overrides settings from the process environment.
func (c *Config) ApplyEnv() error {
	return c.ApplyEnvFrom(env.ToMap(os.Environ()))
}

// ApplyEnvFrom overrides settings from environ. Unset variables leave the
// file's value alone.
func (c *Config) ApplyEnvFrom(environ map[string]string) error {
	var o envOverrides
	if err := env.ParseWithOptions(&o, env.Options{Environment: environ}); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Output, o.Output)
	set(&c.FX.RatesPath, o.FXRates)
	set(&c.Logging.Level, o.LogLevel)
	set(&c.Logging.Format, o.LogFormat)
	set(&c.MetricsFile, o.MetricsFile)
	return nil
}

// Resolve makes every relative path relative to dir, normally the directory
// holding the config file.
func (c *Config) Resolve(dir string) {
	abs := func(p *string) {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
	abs(&c.Output)
	abs(&c.RunLog)
	abs(&c.MetricsFile)
	abs(&c.RulesFile)
	abs(&c.FX.RatesPath)
	for i := range c.Sources {
		abs(&c.Sources[i].Path)
	}
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseCurrency) == "" {
		return fmt.Errorf("base_currency is required")
	}
	if c.Output == "" {
		return fmt.Errorf("output is required")
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}

	seen := make(map[string]bool)
	for i, s := range c.Sources {
		name := strings.ToUpper(s.Name)
		if name == "" {
			return fmt.Errorf("source %d: name is required", i+1)
		}
		if seen[name] {
			return fmt.Errorf("duplicate source %q", s.Name)
		}
		seen[name] = true
		if !knownFormat(s.Format) {
			return fmt.Errorf("source %s: unknown format %q (want one of %s)", s.Name, s.Format, strings.Join(Formats, ", "))
		}
		if s.Path == "" {
			return fmt.Errorf("source %s: path is required", s.Name)
		}
	}
	return nil
}

func knownFormat(f string) bool {
	for _, known := range Formats {
		if strings.EqualFold(f, known) {
			return true
		}
	}
	return false
}

// ForeignSources maps each source recorded in a currency other than the base
// currency to that currency.
func (c *Config) ForeignSources() map[string]string {
	out := make(map[string]string)
	for _, s := range c.Sources {
		if s.Currency != "" && !strings.EqualFold(s.Currency, c.BaseCurrency) {
			out[strings.ToUpper(s.Name)] = strings.ToUpper(s.Currency)
		}
	}
	return out
}
