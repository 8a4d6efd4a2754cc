package api

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	commentsRoute       = "/api/create-comment"
	commentsSpanName    = "corkboard.comments.create"
	commentsEventName   = "comments.request.metrics"
	commentsEventDomain = "corkboard"
)

// commentRequestMetrics collects timings and outcome attributes for a single
// create-comment request and emits them once as a span event plus a structured
// log entry.
type commentRequestMetrics struct {
	logger          *log.Logger
	span            trace.Span
	start           time.Time
	storeDuration   time.Duration
	publishDuration time.Duration
	taggedUser      bool
	recipients      int
	errorStage      string
}

func newCommentRequestMetrics(ctx context.Context, logger *log.Logger) (*commentRequestMetrics, context.Context) {
	m := &commentRequestMetrics{
		logger: logger,
		start:  time.Now(),
	}

	tracer := otel.Tracer("corkboard-api")
	spanCtx, span := tracer.Start(ctx, commentsSpanName)
	m.span = span
	return m, spanCtx
}

func (m *commentRequestMetrics) ObserveStore(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.storeDuration = duration
}

func (m *commentRequestMetrics) ObservePublish(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.publishDuration = duration
}

func (m *commentRequestMetrics) SetTaggedUser(tagged bool) {
	m.taggedUser = tagged
}

func (m *commentRequestMetrics) SetRecipients(count int) {
	if count < 0 {
		count = 0
	}
	m.recipients = count
}

func (m *commentRequestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

func (m *commentRequestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}

	totalMs := durationToMillis(time.Since(m.start))
	severityText, severityNumber := severityForStatus(status, err)

	eventAttrs := []attribute.KeyValue{
		attribute.String("event.name", commentsEventName),
		attribute.String("event.domain", commentsEventDomain),
		attribute.String("severity_text", severityText),
		attribute.Int("severity_number", severityNumber),
		attribute.String("http.route", commentsRoute),
		attribute.Int("http.status_code", status),
		attribute.Float64("corkboard.comments.total_ms", totalMs),
		attribute.Bool("corkboard.comments.tagged_user", m.taggedUser),
		attribute.Int("corkboard.comments.recipients", m.recipients),
	}
	if m.storeDuration > 0 {
		eventAttrs = append(eventAttrs, attribute.Float64("corkboard.comments.store_ms", durationToMillis(m.storeDuration)))
	}
	if m.publishDuration > 0 {
		eventAttrs = append(eventAttrs, attribute.Float64("corkboard.comments.publish_ms", durationToMillis(m.publishDuration)))
	}
	if m.errorStage != "" {
		eventAttrs = append(eventAttrs, attribute.String("corkboard.comments.error_stage", m.errorStage))
	}
	if err != nil {
		eventAttrs = append(eventAttrs, attribute.String("error.message", err.Error()))
	}

	var traceID string
	if m.span != nil {
		m.span.SetAttributes(
			attribute.String("http.route", commentsRoute),
			attribute.Int("http.status_code", status),
		)
		if m.errorStage != "" {
			m.span.SetAttributes(attribute.String("corkboard.comments.error_stage", m.errorStage))
		}
		m.span.AddEvent("observability.event", trace.WithAttributes(eventAttrs...))
		if err != nil {
			m.span.SetStatus(codes.Error, err.Error())
		} else if status >= 500 {
			m.span.SetStatus(codes.Error, "server error")
		} else {
			m.span.SetStatus(codes.Ok, "")
		}
		if sc := m.span.SpanContext(); sc.HasTraceID() {
			traceID = sc.TraceID().String()
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}

	attrs := map[string]any{
		"http.route":                     commentsRoute,
		"http.status_code":               status,
		"corkboard.comments.total_ms":    totalMs,
		"corkboard.comments.tagged_user": m.taggedUser,
		"corkboard.comments.recipients":  m.recipients,
	}
	if m.storeDuration > 0 {
		attrs["corkboard.comments.store_ms"] = durationToMillis(m.storeDuration)
	}
	if m.publishDuration > 0 {
		attrs["corkboard.comments.publish_ms"] = durationToMillis(m.publishDuration)
	}
	if m.errorStage != "" {
		attrs["corkboard.comments.error_stage"] = m.errorStage
	}
	if err != nil {
		attrs["error.message"] = err.Error()
	}

	fields := log.Fields{
		"event.name":      commentsEventName,
		"event.domain":    commentsEventDomain,
		"severity_text":   severityText,
		"severity_number": severityNumber,
		"attributes":      attrs,
	}
	if traceID != "" {
		fields["trace_id"] = traceID
	}

	entry := m.logger.WithFields(fields)
	switch severityText {
	case "ERROR":
		entry.Error("observability.event")
	case "WARN":
		entry.Warn("observability.event")
	default:
		entry.Info("observability.event")
	}
}

func severityForStatus(status int, err error) (string, int) {
	switch {
	case err != nil || status >= 500:
		return "ERROR", 17
	case status >= 400:
		return "WARN", 13
	default:
		return "INFO", 9
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
