// Package metrics exposes the pipeline's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline counts inbound and outbound event outcomes. All methods are
// nil-safe so components can run without metrics in tests.
type Pipeline struct {
	consumedTotal  prometheus.Counter
	processedTotal *prometheus.CounterVec
	failedTotal    *prometheus.CounterVec
	skippedTotal   prometheus.Counter

	publishedTotal     prometheus.Counter
	publishFailedTotal prometheus.Counter
}

func newCounter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "msjob",
		Subsystem: "events",
		Name:      name,
		Help:      help,
	})
}

func newCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "msjob",
		Subsystem: "events",
		Name:      name,
		Help:      help,
	}, labels)
}

// NewPipeline builds and registers the collectors. A nil registerer falls
// back to the default registry.
func NewPipeline(registerer prometheus.Registerer) *Pipeline {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	p := &Pipeline{
		consumedTotal:      newCounter("consumed_total", "Total messages pulled from the job events topic"),
		processedTotal:     newCounterVec("processed_total", "Successfully applied inbound events", []string{"event_type"}),
		failedTotal:        newCounterVec("failed_total", "Inbound events that failed processing", []string{"event_type"}),
		skippedTotal:       newCounter("skipped_total", "Envelopes with an unrecognized type"),
		publishedTotal:     newCounter("published_total", "Outbound application events published"),
		publishFailedTotal: newCounter("publish_failed_total", "Outbound application events that failed to publish"),
	}

	registerer.MustRegister(
		p.consumedTotal, p.processedTotal, p.failedTotal, p.skippedTotal,
		p.publishedTotal, p.publishFailedTotal,
	)
	return p
}

func (p *Pipeline) Consumed() {
	if p != nil {
		p.consumedTotal.Inc()
	}
}

func (p *Pipeline) Processed(eventType string) {
	if p != nil {
		p.processedTotal.WithLabelValues(eventType).Inc()
	}
}

func (p *Pipeline) Failed(eventType string) {
	if p != nil {
		p.failedTotal.WithLabelValues(eventType).Inc()
	}
}

func (p *Pipeline) Skipped() {
	if p != nil {
		p.skippedTotal.Inc()
	}
}

func (p *Pipeline) Published() {
	if p != nil {
		p.publishedTotal.Inc()
	}
}

func (p *Pipeline) PublishFailed() {
	if p != nil {
		p.publishFailedTotal.Inc()
	}
}

// Handler serves the default registry for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
