package metric

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CountFunc reports the current size of something at scrape time.
type CountFunc func(ctx context.Context) (int, error)

// Collector reports registry gauges computed at scrape time.
type Collector struct {
	patients CountFunc
	timeout  time.Duration

	patientsDesc *prometheus.Desc
	upDesc       *prometheus.Desc
}

// NewCollector creates a collector that counts stored patients via fn.
func NewCollector(fn CountFunc) *Collector {
	return &Collector{
		patients: fn,
		timeout:  5 * time.Second,
		patientsDesc: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "", "patients_stored"),
			"Patients currently stored.",
			nil, nil,
		),
		upDesc: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "", "storage_up"),
			"Whether the last storage scrape succeeded.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.patientsDesc
	ch <- c.upDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	n, err := c.patients(ctx)
	if err != nil {
		ch <- prometheus.MustNewConstMetric(c.upDesc, prometheus.GaugeValue, 0)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.upDesc, prometheus.GaugeValue, 1)
	ch <- prometheus.MustNewConstMetric(c.patientsDesc, prometheus.GaugeValue, float64(n))
}
