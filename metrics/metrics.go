/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package metrics collects per-service up/down byte counters (read back
// by a context's GetTransferRates), a per-router latency gauge, and a
// per-service open-connection gauge.
package metrics

import (
	"time"

	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector registers and updates the counters/gauges for one context.
// A nil *Collector is valid and every method becomes a no-op, so metrics
// collection can be disabled without conditionals at every call site.
type Collector struct {
	reg *prometheus.Registry

	bytesUp   *prometheus.CounterVec
	bytesDown *prometheus.CounterVec
	latency   *prometheus.GaugeVec
	conns     *prometheus.GaugeVec
}

// NewCollector builds a Collector registered into its own registry so a
// host application can choose whether/how to expose it (e.g. mount it
// under an HTTP handler via promhttp).
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		bytesUp: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "edge_sdk",
			Name:      "bytes_up_total",
			Help:      "Bytes written from the application into a logical connection.",
		}, []string{"service"}),
		bytesDown: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "edge_sdk",
			Name:      "bytes_down_total",
			Help:      "Bytes read from a logical connection into the application.",
		}, []string{"service"}),
		latency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "edge_sdk",
			Name:      "router_latency_seconds",
			Help:      "Most recent round-trip latency probe to an edge router.",
		}, []string{"router"}),
		conns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "edge_sdk",
			Name:      "connections_open",
			Help:      "Logical connections currently open, by service.",
		}, []string{"service"}),
	}

	reg.MustRegister(c.bytesUp, c.bytesDown, c.latency, c.conns)
	return c
}

// Registry exposes the underlying prometheus.Registry for scraping.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.reg
}

func (c *Collector) AddBytesUp(service string, n int) {
	if c == nil {
		return
	}
	c.bytesUp.WithLabelValues(service).Add(float64(n))
}

func (c *Collector) AddBytesDown(service string, n int) {
	if c == nil {
		return
	}
	c.bytesDown.WithLabelValues(service).Add(float64(n))
}

func (c *Collector) SetRouterLatency(router string, d time.Duration) {
	if c == nil {
		return
	}
	c.latency.WithLabelValues(router).Set(d.Seconds())
}

func (c *Collector) IncConnections(service string) {
	if c == nil {
		return
	}
	c.conns.WithLabelValues(service).Inc()
}

func (c *Collector) DecConnections(service string) {
	if c == nil {
		return
	}
	c.conns.WithLabelValues(service).Dec()
}

// Rates is the point-in-time snapshot returned by a context's
// GetTransferRates operation.
type Rates struct {
	BytesUp   float64
	BytesDown float64
}

// Snapshot reads the current counter totals for one service. Counters are
// monotonic; callers compute a rate by differencing two snapshots over a
// known interval.
func (c *Collector) Snapshot(service string) Rates {
	if c == nil {
		return Rates{}
	}
	var r Rates
	var m dto.Metric
	if err := c.bytesUp.WithLabelValues(service).Write(&m); err == nil && m.Counter != nil {
		r.BytesUp = m.Counter.GetValue()
	}
	m = dto.Metric{}
	if err := c.bytesDown.WithLabelValues(service).Write(&m); err == nil && m.Counter != nil {
		r.BytesDown = m.Counter.GetValue()
	}
	return r
}
