package metric

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AccountLister reports the accounts that have persisted cookies.
type AccountLister func(ctx context.Context) ([]string, error)

// Collector exposes the number of persisted accounts at scrape time.
type Collector struct {
	list AccountLister
	desc *prometheus.Desc
}

// NewCollector creates a collector backed by list.
func NewCollector(list AccountLister) *Collector {
	return &Collector{
		list: list,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "accounts"),
			"Accounts with persisted cookies.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	names, err := c.list(ctx)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.desc, err)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(len(names)))
}
