package prom

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hupe1980/contactbook"
	"github.com/hupe1980/contactbook/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counts(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	c := NewCollector(reg)

	c.RecordCreate(time.Millisecond, nil)
	c.RecordCreate(time.Millisecond, errors.New("boom"))
	c.RecordSearch(3, time.Millisecond, nil)
	c.RecordBootstrap(42, time.Second, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.ops.WithLabelValues(opCreate, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ops.WithLabelValues(opCreate, "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ops.WithLabelValues(opSearch, "ok")))
	assert.Equal(t, 42.0, testutil.ToFloat64(c.contacts))

	err := testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP contactbook_bootstrap_contacts Contacts loaded into the search index at startup
# TYPE contactbook_bootstrap_contacts gauge
contactbook_bootstrap_contacts 42
`), "contactbook_bootstrap_contacts")
	require.NoError(t, err)
}

func TestCollector_WithBook(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	ctx := context.Background()

	book, err := contactbook.Open(ctx, store.NewMemoryStore(), contactbook.WithMetricsCollector(c))
	require.NoError(t, err)
	defer book.Close()

	_, err = book.Create(ctx, "Alice", "alice@example.com")
	require.NoError(t, err)
	_, err = book.Delete(ctx, "nobody@example.com")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.ops.WithLabelValues(opCreate, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ops.WithLabelValues(opDelete, "error")))

	n, err := testutil.GatherAndCount(reg, "contactbook_operation_latency_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
