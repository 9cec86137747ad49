// Package prom exports contact book metrics to Prometheus.
package prom

import (
	"time"

	"github.com/hupe1980/contactbook"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
	opSearch = "search"
)

// Collector implements contactbook.MetricsCollector with Prometheus
// counters, histograms and a gauge.
type Collector struct {
	ops           *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	searchResults prometheus.Histogram
	contacts      prometheus.Gauge
	bootstrap     prometheus.Gauge
}

var _ contactbook.MetricsCollector = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contactbook_operations_total",
			Help: "Contact book operations by type and outcome",
		}, []string{"op", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "contactbook_operation_latency_seconds",
			Help:    "Latency of contact book operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		searchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "contactbook_search_results",
			Help:    "Number of contacts matched per search",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		contacts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "contactbook_bootstrap_contacts",
			Help: "Contacts loaded into the search index at startup",
		}),
		bootstrap: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "contactbook_bootstrap_duration_seconds",
			Help: "Time taken to rebuild the search index at startup",
		}),
	}

	reg.MustRegister(c.ops, c.latency, c.searchResults, c.contacts, c.bootstrap)
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (c *Collector) record(op string, d time.Duration, err error) {
	c.ops.WithLabelValues(op, status(err)).Inc()
	c.latency.WithLabelValues(op).Observe(d.Seconds())
}

// RecordCreate implements contactbook.MetricsCollector.
func (c *Collector) RecordCreate(d time.Duration, err error) { c.record(opCreate, d, err) }

// RecordUpdate implements contactbook.MetricsCollector.
func (c *Collector) RecordUpdate(d time.Duration, err error) { c.record(opUpdate, d, err) }

// RecordDelete implements contactbook.MetricsCollector.
func (c *Collector) RecordDelete(d time.Duration, err error) { c.record(opDelete, d, err) }

// RecordSearch implements contactbook.MetricsCollector.
func (c *Collector) RecordSearch(results int, d time.Duration, err error) {
	c.record(opSearch, d, err)
	if err == nil {
		c.searchResults.Observe(float64(results))
	}
}

// RecordBootstrap implements contactbook.MetricsCollector.
func (c *Collector) RecordBootstrap(contacts int, d time.Duration, err error) {
	if err != nil {
		return
	}
	c.contacts.Set(float64(contacts))
	c.bootstrap.Set(d.Seconds())
}
