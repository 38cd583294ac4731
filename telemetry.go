package ygggo_conn

import (
	"context"
	"database/sql"
	"database/sql/driver"

	"github.com/XSAM/otelsql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	instrumentationName    = "github.com/yggai/ygggo_conn"
	instrumentationVersion = "v0.1.0"
)

func (h *ConnectionHandle) initTracer() {
	if !h.cfg.Telemetry.Enabled {
		h.tracer = noop.NewTracerProvider().Tracer(instrumentationName)
		return
	}
	tp := h.cfg.Telemetry.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	h.tracer = tp.Tracer(instrumentationName, trace.WithInstrumentationVersion(instrumentationVersion))
}

// startSpan creates a span named ygggo_conn.<operation> with the common
// database attributes.
func (h *ConnectionHandle) startSpan(ctx context.Context, operation, query string) (context.Context, trace.Span) {
	if !h.cfg.Telemetry.Enabled {
		return ctx, trace.SpanFromContext(ctx)
	}
	ctx, span := h.tracer.Start(ctx, "ygggo_conn."+operation)
	span.SetAttributes(
		attribute.String("db.system", h.dialect.System),
		attribute.String("db.operation", operation),
		attribute.String("ygggo_conn.handle_id", h.id),
		attribute.String("ygggo_conn.strategy", h.strategy.String()),
	)
	if query != "" {
		span.SetAttributes(attribute.String("db.statement", query))
	}
	return ctx, span
}

// finishSpan completes a span with error handling
func (h *ConnectionHandle) finishSpan(span trace.Span, err error) {
	if !h.cfg.Telemetry.Enabled {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// openDB wraps connector in a *sql.DB, instrumented by otelsql when
// telemetry is on.
func (h *ConnectionHandle) openDB(connector driver.Connector) *sql.DB {
	if !h.cfg.Telemetry.Enabled {
		return sql.OpenDB(connector)
	}
	opts := []otelsql.Option{
		otelsql.WithAttributes(attribute.String("db.system", h.dialect.System)),
	}
	if tp := h.cfg.Telemetry.TracerProvider; tp != nil {
		opts = append(opts, otelsql.WithTracerProvider(tp))
	}
	if mp := h.cfg.Telemetry.MeterProvider; mp != nil {
		opts = append(opts, otelsql.WithMeterProvider(mp))
	}
	return otelsql.OpenDB(connector, opts...)
}
