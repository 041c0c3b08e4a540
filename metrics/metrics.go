/*
Copyright 2026 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package metrics registers the ambient Prometheus instrumentation for
// package query's socket lifecycle. It has no HTTP server of its own:
// callers register these collectors on whatever Registerer (and whatever
// /metrics handler) their own process already runs, rather than this
// package standing up a handler itself.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors package query updates as it dials,
// sends, and receives. A nil *Metrics is valid everywhere a method is
// called on it: every method is a no-op on a nil receiver, so callers that
// don't want instrumentation can simply not construct one.
type Metrics struct {
	messagesSent  prometheus.Counter
	bytesReceived prometheus.Counter
	decodeErrors  prometheus.Counter
	dumpDuration  prometheus.Histogram
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nftlink",
			Subsystem: "query",
			Name:      "messages_sent_total",
			Help:      "Netlink messages sent to the nftables subsystem.",
		}),
		bytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nftlink",
			Subsystem: "query",
			Name:      "bytes_received_total",
			Help:      "Bytes read back from the netlink socket.",
		}),
		decodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nftlink",
			Subsystem: "query",
			Name:      "decode_errors_total",
			Help:      "Messages that failed to parse or decode during a query.",
		}),
		dumpDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nftlink",
			Subsystem: "query",
			Name:      "dump_duration_seconds",
			Help:      "Wall-clock time of one DUMP request/response round trip.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.messagesSent, m.bytesReceived, m.decodeErrors, m.dumpDuration)
	return m
}

// MessageSent records one netlink message written to the socket.
func (m *Metrics) MessageSent() {
	if m == nil {
		return
	}
	m.messagesSent.Inc()
}

// BytesReceived records n bytes read back from the socket.
func (m *Metrics) BytesReceived(n int) {
	if m == nil {
		return
	}
	m.bytesReceived.Add(float64(n))
}

// DecodeError records one message that failed to parse or decode.
func (m *Metrics) DecodeError() {
	if m == nil {
		return
	}
	m.decodeErrors.Inc()
}

// ObserveDump records the wall-clock duration of one DUMP round trip.
func (m *Metrics) ObserveDump(d time.Duration) {
	if m == nil {
		return
	}
	m.dumpDuration.Observe(d.Seconds())
}
