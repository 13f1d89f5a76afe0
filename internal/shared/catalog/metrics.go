package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 目录调用指标
type Metrics struct {
	Calls    *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewMetrics 在 reg 上注册指标，reg 为 nil 时使用默认注册表
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Calls: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_calls_total",
				Help:      "Catalog backend calls by operation and result",
			},
			[]string{"op", "result"},
		),
		Duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "catalog_call_duration_seconds",
				Help:      "Catalog backend call latency",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"op"},
		),
	}
}

func (m *Metrics) observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	switch {
	case errors.Is(err, ErrNotConfigured):
		result = "not_configured"
	case err != nil:
		result = "error"
	}
	m.Calls.WithLabelValues(op, result).Inc()
	m.Duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Instrumented 记录每次调用的指标
type Instrumented struct {
	next    Catalog
	metrics *Metrics
}

// Instrument 包装 Catalog
func Instrument(next Catalog, m *Metrics) *Instrumented {
	return &Instrumented{next: next, metrics: m}
}

func (c *Instrumented) ListCategories(ctx context.Context, q CategoryQuery) (cats []*Category, err error) {
	start := time.Now()
	defer func() { c.metrics.observe("list_categories", start, err) }()
	return c.next.ListCategories(ctx, q)
}

func (c *Instrumented) CreateCategory(ctx context.Context, nc NewCategory) (cat *Category, err error) {
	start := time.Now()
	defer func() { c.metrics.observe("create_category", start, err) }()
	return c.next.CreateCategory(ctx, nc)
}

func (c *Instrumented) CreateProduct(ctx context.Context, p NewProduct) (prod *Product, err error) {
	start := time.Now()
	defer func() { c.metrics.observe("create_product", start, err) }()
	return c.next.CreateProduct(ctx, p)
}

func (c *Instrumented) ListProducts(ctx context.Context, q ProductQuery) (prods []*Product, err error) {
	start := time.Now()
	defer func() { c.metrics.observe("list_products", start, err) }()
	return c.next.ListProducts(ctx, q)
}

var _ Catalog = (*Instrumented)(nil)
