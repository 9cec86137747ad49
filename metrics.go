package contactbook

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// metric/prom package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordCreate is called after each create operation.
	// duration is the total time taken, err is nil if successful.
	RecordCreate(duration time.Duration, err error)

	// RecordUpdate is called after each rename or email change.
	RecordUpdate(duration time.Duration, err error)

	// RecordDelete is called after each delete operation.
	RecordDelete(duration time.Duration, err error)

	// RecordSearch is called after each search with the number of matches
	// before pagination.
	RecordSearch(results int, duration time.Duration, err error)

	// RecordBootstrap is called once, after the index was rebuilt from the store.
	RecordBootstrap(contacts int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordCreate(time.Duration, error)         {}
func (NoopMetricsCollector) RecordUpdate(time.Duration, error)         {}
func (NoopMetricsCollector) RecordDelete(time.Duration, error)         {}
func (NoopMetricsCollector) RecordSearch(int, time.Duration, error)    {}
func (NoopMetricsCollector) RecordBootstrap(int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	CreateCount      atomic.Int64
	CreateErrors     atomic.Int64
	UpdateCount      atomic.Int64
	UpdateErrors     atomic.Int64
	DeleteCount      atomic.Int64
	DeleteErrors     atomic.Int64
	SearchCount      atomic.Int64
	SearchErrors     atomic.Int64
	SearchResults    atomic.Int64
	SearchTotalNanos atomic.Int64
	Contacts         atomic.Int64 // contacts loaded at bootstrap
}

// RecordCreate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCreate(_ time.Duration, err error) {
	b.CreateCount.Add(1)
	if err != nil {
		b.CreateErrors.Add(1)
	}
}

// RecordUpdate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordUpdate(_ time.Duration, err error) {
	b.UpdateCount.Add(1)
	if err != nil {
		b.UpdateErrors.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(_ time.Duration, err error) {
	b.DeleteCount.Add(1)
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(results int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
		return
	}
	b.SearchResults.Add(int64(results))
}

// RecordBootstrap implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBootstrap(contacts int, _ time.Duration, err error) {
	if err == nil {
		b.Contacts.Store(int64(contacts))
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		CreateCount:    b.CreateCount.Load(),
		CreateErrors:   b.CreateErrors.Load(),
		UpdateCount:    b.UpdateCount.Load(),
		UpdateErrors:   b.UpdateErrors.Load(),
		DeleteCount:    b.DeleteCount.Load(),
		DeleteErrors:   b.DeleteErrors.Load(),
		SearchCount:    b.SearchCount.Load(),
		SearchErrors:   b.SearchErrors.Load(),
		SearchResults:  b.SearchResults.Load(),
		SearchAvgNanos: b.getAvgSearchNanos(),
		Contacts:       b.Contacts.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgSearchNanos() int64 {
	count := b.SearchCount.Load()
	if count == 0 {
		return 0
	}
	return b.SearchTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	CreateCount    int64
	CreateErrors   int64
	UpdateCount    int64
	UpdateErrors   int64
	DeleteCount    int64
	DeleteErrors   int64
	SearchCount    int64
	SearchErrors   int64
	SearchResults  int64
	SearchAvgNanos int64
	Contacts       int64
}
