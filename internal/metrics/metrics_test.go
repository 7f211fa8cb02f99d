package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.Checkout(CheckoutPlaced)
	m.Checkout(CheckoutPlaced)
	m.Checkout(CheckoutEmptyCart)
	m.Transition("pending", "cancelled")
	m.Event("OrderPlaced", EventDropped)
	m.ObserveRequest("GET", "/api/v1/products", 200, 12*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.checkouts.WithLabelValues(CheckoutPlaced)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checkouts.WithLabelValues(CheckoutEmptyCart)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("pending", "cancelled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("OrderPlaced", EventDropped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/v1/products", "200")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Checkout(CheckoutPlaced)
		m.Transition("pending", "processing")
		m.Event("OrderPlaced", EventPublished)
		m.ObserveRequest("GET", "/", 200, time.Millisecond)
	})
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}
