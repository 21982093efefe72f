package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.MetricsFile = "metrics/ledgerprep.prom"
	cfg.Sources = append(cfg.Sources, SourceConfig{Name: "BG2", Format: "bg", Path: "data/bg2.csv", Currency: "USD", HeaderRow: -1})

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "EUR", cfg.BaseCurrency)
	assert.Equal(t, filepath.Join("data", "Finance_Processed.csv"), cfg.Output)
	assert.Equal(t, "Date", cfg.FX.DateColumn)
	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, "bg", cfg.Sources[0].Format)
	assert.Equal(t, 7, cfg.Sources[0].HeaderRow)
	assert.Equal(t, "sd", cfg.Sources[1].Format)
	assert.Equal(t, 6, cfg.Sources[1].HeaderRow)
	assert.Equal(t, map[string]string{"BG": "USD"}, cfg.ForeignSources())
	assert.NoError(t, cfg.Validate())
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("sources: {\n"), 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "parsing config")
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "base_currency: EUR")
	assert.Contains(t, contents, "date_column: Date")
	assert.Contains(t, contents, "header_row: 7")
	assert.Contains(t, contents, "format: console")
	assert.NotContains(t, contents, "metrics_file")
}

func TestApplyEnvFrom(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnvFrom(map[string]string{
		"LEDGERPREP_OUTPUT":       "/tmp/out.csv",
		"LEDGERPREP_FX_RATES":     "/tmp/rates.csv",
		"LEDGERPREP_LOG_LEVEL":    "debug",
		"LEDGERPREP_LOG_FORMAT":   "json",
		"LEDGERPREP_METRICS_FILE": "/tmp/ledgerprep.prom",
		"UNRELATED":               "x",
	})
	require.NoError(t, err)

	assert.Equal(t, "/tmp/out.csv", cfg.Output)
	assert.Equal(t, "/tmp/rates.csv", cfg.FX.RatesPath)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "/tmp/ledgerprep.prom", cfg.MetricsFile)

	cfg = Default()
	require.NoError(t, cfg.ApplyEnvFrom(map[string]string{}))
	assert.Equal(t, Default(), cfg)
}

func TestResolve(t *testing.T) {
	cfg := Default()
	cfg.Output = "/abs/out.csv"
	cfg.Resolve("/work")

	assert.Equal(t, "/abs/out.csv", cfg.Output)
	assert.Equal(t, filepath.Join("/work", "logs", "run-log.csv"), cfg.RunLog)
	assert.Equal(t, filepath.Join("/work", "data", "fx_rates.csv"), cfg.FX.RatesPath)
	assert.Equal(t, filepath.Join("/work", "data", "BG_Transacciones.xlsx"), cfg.Sources[0].Path)
	assert.Empty(t, cfg.MetricsFile)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"no base currency", func(c *Config) { c.BaseCurrency = " " }, "base_currency"},
		{"no output", func(c *Config) { c.Output = "" }, "output"},
		{"no sources", func(c *Config) { c.Sources = nil }, "at least one source"},
		{"duplicate", func(c *Config) { c.Sources[1].Name = "bg" }, "duplicate source"},
		{"unknown format", func(c *Config) { c.Sources[0].Format = "ofx" }, `unknown format "ofx"`},
		{"no name", func(c *Config) { c.Sources[0].Name = "" }, "name is required"},
		{"no path", func(c *Config) { c.Sources[1].Path = "" }, "path is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
