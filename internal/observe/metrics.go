// Package observe records runtime metrics through the OpenTelemetry API and
// exposes them for Prometheus scraping.
//
// Tests should build Metrics with NewMetrics over a ManualReader-backed
// provider. Discard returns a no-op instance for code paths without metrics.
package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/rbright/hark"

// Metrics holds every instrument. All fields are safe for concurrent use.
type Metrics struct {
	STTDuration      metric.Float64Histogram
	DialogueDuration metric.Float64Histogram
	TTSDuration      metric.Float64Histogram

	WakeDetections    metric.Int64Counter
	Utterances        metric.Int64Counter
	Turns             metric.Int64Counter
	CaptureRecoveries metric.Int64Counter
	ProviderRequests  metric.Int64Counter
	ProviderErrors    metric.Int64Counter

	ConversationActive metric.Int64Gauge
}

// latencyBuckets are seconds, tuned for cloud speech round trips.
var latencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32}

// NewMetrics creates every instrument from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	met := &Metrics{}
	var err error

	histograms := []struct {
		dst  *metric.Float64Histogram
		name string
		desc string
	}{
		{&met.STTDuration, "hark.stt.duration", "Latency of speech-to-text transcription."},
		{&met.DialogueDuration, "hark.dialogue.duration", "Latency of dialogue engine replies."},
		{&met.TTSDuration, "hark.tts.duration", "Latency of speech synthesis and playback."},
	}
	for _, h := range histograms {
		if *h.dst, err = m.Float64Histogram(h.name,
			metric.WithDescription(h.desc),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(latencyBuckets...),
		); err != nil {
			return nil, err
		}
	}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&met.WakeDetections, "hark.wake.detections", "Wake word detections by keyword index."},
		{&met.Utterances, "hark.vad.utterances", "Segmenter results by outcome."},
		{&met.Turns, "hark.turns", "Completed conversation turns by outcome."},
		{&met.CaptureRecoveries, "hark.capture.recoveries", "Capture device recoveries by reason."},
		{&met.ProviderRequests, "hark.provider.requests", "Provider calls by provider, kind, and status."},
		{&met.ProviderErrors, "hark.provider.errors", "Provider errors by provider and kind."},
	}
	for _, c := range counters {
		if *c.dst, err = m.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, err
		}
	}

	if met.ConversationActive, err = m.Int64Gauge("hark.conversation.active",
		metric.WithDescription("1 while follow-up turns bypass the wake word."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// Discard returns metrics backed by a no-op provider.
func Discard() *Metrics {
	met, err := NewMetrics(noop.NewMeterProvider())
	if err != nil {
		panic("observe: noop metrics: " + err.Error())
	}
	return met
}

// RecordProviderRequest counts one provider call.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("kind", kind),
		attribute.String("status", status),
	))
}

// RecordProviderError counts one provider failure.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("kind", kind),
	))
}

// RecordWake counts a wake detection.
func (m *Metrics) RecordWake(ctx context.Context, keyword int) {
	m.WakeDetections.Add(ctx, 1, metric.WithAttributes(attribute.Int("keyword", keyword)))
}

// RecordUtterance counts one segmenter result.
func (m *Metrics) RecordUtterance(ctx context.Context, outcome string) {
	m.Utterances.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordTurn counts one completed turn.
func (m *Metrics) RecordTurn(ctx context.Context, outcome string) {
	m.Turns.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordRecovery counts one capture recovery.
func (m *Metrics) RecordRecovery(ctx context.Context, reason string) {
	m.CaptureRecoveries.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// SetConversationActive records the conversation-mode gauge.
func (m *Metrics) SetConversationActive(ctx context.Context, active bool) {
	var v int64
	if active {
		v = 1
	}
	m.ConversationActive.Record(ctx, v)
}
