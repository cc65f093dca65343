package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"

	"github.com/nevindra/catalogmatch"
)

// Recorder implements catalogmatch.Metrics on top of Instruments: each
// warmup and search operation becomes a counter increment, a duration
// sample, and a structured OTLP log record.
type Recorder struct {
	inst *Instruments
}

// NewMetrics returns a catalogmatch.Metrics backed by inst. Pass the
// Instruments value returned by Init.
func NewMetrics(inst *Instruments) *Recorder {
	return &Recorder{inst: inst}
}

var _ catalogmatch.Metrics = (*Recorder)(nil)

func (r *Recorder) RecordWarmup(ctx context.Context, catalogID string, sources, items int, elapsed time.Duration, err error) {
	durationMs := float64(elapsed.Milliseconds())
	status := "ok"
	if err != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(
		AttrCatalogID.String(catalogID),
		attribute.String("status", status),
	)

	r.inst.WarmupCount.Add(ctx, 1, attrs)
	r.inst.WarmupDuration.Record(ctx, durationMs, attrs)
	if err == nil {
		r.inst.WarmupItems.Record(ctx, int64(items), metric.WithAttributes(AttrCatalogID.String(catalogID)))
	}

	var rec otellog.Record
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetBody(otellog.StringValue("catalog warmup completed"))
	rec.AddAttributes(
		otellog.String(string(AttrCatalogID), catalogID),
		otellog.Int(string(AttrSourceCount), sources),
		otellog.Int(string(AttrItemCount), items),
		otellog.Float64("catalogmatch.duration_ms", durationMs),
		otellog.String("status", status),
	)
	r.inst.Logger.Emit(ctx, rec)
}

func (r *Recorder) RecordSearch(ctx context.Context, catalogID string, srec catalogmatch.SearchRecord) {
	durationMs := float64(srec.Elapsed.Milliseconds())
	status := "ok"
	if srec.Err != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(
		AttrCatalogID.String(catalogID),
		attribute.String("op", srec.Op),
		attribute.String("status", status),
	)

	r.inst.SearchRequests.Add(ctx, 1, attrs)
	r.inst.SearchDuration.Record(ctx, durationMs, attrs)
	if srec.FuzzyUsed {
		r.inst.FuzzyFallbackCount.Add(ctx, 1, metric.WithAttributes(
			AttrCatalogID.String(catalogID),
			attribute.String("op", srec.Op),
		))
	}

	var rec otellog.Record
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetBody(otellog.StringValue("search completed"))
	rec.AddAttributes(
		otellog.String(string(AttrCatalogID), catalogID),
		otellog.String("op", srec.Op),
		otellog.Int(string(AttrTopK), srec.TopK),
		otellog.Float64(string(AttrThreshold), srec.Threshold),
		otellog.String(string(AttrQueryItemID), srec.QueryItemID),
		otellog.String(string(AttrBestMatchID), srec.BestMatchID),
		otellog.Float64(string(AttrBestScore), srec.BestScore),
		otellog.Bool(string(AttrFuzzyApplied), srec.FuzzyUsed),
		otellog.Float64("catalogmatch.duration_ms", durationMs),
		otellog.String("status", status),
	)
	r.inst.Logger.Emit(ctx, rec)
}

func (r *Recorder) RecordCatalogsLoaded(ctx context.Context, delta int) {
	r.inst.CatalogsLoaded.Add(ctx, int64(delta))
}
