package telemetry

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"gamo-keyword-api/internal/logger"
)

var storedKeywordsDesc = prometheus.NewDesc(
	"gamo_keywords_stored",
	"Number of keyword records currently in the store",
	[]string{"backend"},
	nil,
)

// Counter is the slice of the keyword store the collector reads.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// KeywordCollector reads the keyword count from the store on each scrape.
type KeywordCollector struct {
	store   Counter
	backend string
	timeout time.Duration
}

func NewKeywordCollector(store Counter, backend string) *KeywordCollector {
	return &KeywordCollector{store: store, backend: backend, timeout: 3 * time.Second}
}

// Describe sends the metric descriptor to the channel.
func (c *KeywordCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- storedKeywordsDesc
}

// Collect emits nothing when the store cannot be counted; the failure is logged.
func (c *KeywordCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	n, err := c.store.Count(ctx)
	if err != nil {
		logger.Error("failed to collect keyword metrics", "backend", c.backend, "error", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(storedKeywordsDesc, prometheus.GaugeValue, float64(n), c.backend)
}

// NewRegistry returns a registry with the Go runtime, process and keyword
// collectors registered.
func NewRegistry(store Counter, backend string) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		NewKeywordCollector(store, backend),
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
