// Package metrics exposes per-run pipeline figures as Prometheus collectors
// and writes them in the textfile-collector format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder receives pipeline figures.
type Recorder interface {
	RecordStage(stage string, rowsIn, rowsOut int, duration time.Duration)
	RecordConversion(converted, missing int)
	RecordCategory(category string, records int)
	RecordRun(success bool, finished time.Time)
}

// NoOp discards everything.
type NoOp struct{}

func (NoOp) RecordStage(string, int, int, time.Duration) {}
func (NoOp) RecordConversion(int, int) {}
func (NoOp) RecordCategory(string, int) {}
func (NoOp) RecordRun(bool, time.Time) {}

// Collector implements Recorder with Prometheus gauges and counters.
type Collector struct {
	registry *prometheus.Registry

	stageRows     *prometheus.GaugeVec
	stageDropped  *prometheus.GaugeVec
	stageDuration *prometheus.GaugeVec
	fxRows        *prometheus.GaugeVec
	categoryRows  *prometheus.GaugeVec
	runs          *prometheus.CounterVec
	lastSuccess   prometheus.Gauge
}

// New creates a Collector with its own registry.
func New(namespace string) (*Collector, error) {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		stageRows: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "stage_rows",
				Help:      "Rows entering and leaving each pipeline stage in the last run",
			},
			[]string{"stage", "direction"},
		),
		stageDropped: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "stage_dropped_rows",
				Help:      "Rows removed by each pipeline stage in the last run",
			},
			[]string{"stage"},
		),
		stageDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Wall time of each pipeline stage in the last run",
			},
			[]string{"stage"},
		),
		fxRows: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "fx_rows",
				Help:      "Foreign-currency rows by conversion outcome in the last run",
			},
			[]string{"outcome"},
		),
		categoryRows: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "category_rows",
				Help:      "Ledger rows per category in the last run",
			},
			[]string{"category"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Pipeline runs by outcome",
			},
			[]string{"outcome"},
		),
		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful run",
			},
		),
	}

	collectors := []prometheus.Collector{
		c.stageRows,
		c.stageDropped,
		c.stageDuration,
		c.fxRows,
		c.categoryRows,
		c.runs,
		c.lastSuccess,
	}
	for _, collector := range collectors {
		if err := c.registry.Register(collector); err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
	}
	return c, nil
}

// Registry returns the registry holding every collector.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// RecordStage records row counts and timing for one stage.
func (c *Collector) RecordStage(stage string, rowsIn, rowsOut int, duration time.Duration) {
	c.stageRows.WithLabelValues(stage, "in").Set(float64(rowsIn))
	c.stageRows.WithLabelValues(stage, "out").Set(float64(rowsOut))
	c.stageDropped.WithLabelValues(stage).Set(float64(rowsIn - rowsOut))
	c.stageDuration.WithLabelValues(stage).Set(duration.Seconds())
}

// RecordConversion records how many foreign rows were converted.
func (c *Collector) RecordConversion(converted, missing int) {
	c.fxRows.WithLabelValues("converted").Set(float64(converted))
	c.fxRows.WithLabelValues("no_rate").Set(float64(missing))
}

// RecordCategory records the number of rows assigned to a category.
func (c *Collector) RecordCategory(category string, records int) {
	c.categoryRows.WithLabelValues(category).Set(float64(records))
}

// RecordRun records the outcome of a run.
func (c *Collector) RecordRun(success bool, finished time.Time) {
	if !success {
		c.runs.WithLabelValues("failure").Inc()
		return
	}
	c.runs.WithLabelValues("success").Inc()
	c.lastSuccess.Set(float64(finished.Unix()))
}

// WriteTextfile writes every metric to path in the Prometheus text format.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}
