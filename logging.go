package ygggo_conn

import (
	"context"
	"log/slog"
	"time"
)

func durationMS(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

func errorAttrs(attrs []slog.Attr, err error) []slog.Attr {
	if err == nil {
		return append(attrs, slog.String("status", "success"))
	}
	attrs = append(attrs,
		slog.String("status", "error"),
		slog.String("error", err.Error()),
	)
	if code := errorCode(err); code != 0 {
		attrs = append(attrs, slog.Int("error_code", code))
	}
	if class := Classify(err); class != ErrClassUnknown {
		attrs = append(attrs, slog.String("error_class", class.String()))
	}
	return attrs
}

// logQuery logs statement execution with structured fields
func (h *ConnectionHandle) logQuery(ctx context.Context, operation, query string, args int, duration time.Duration, err error) {
	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("query", query),
		slog.Float64("duration_ms", durationMS(duration)),
	}
	if args > 0 {
		attrs = append(attrs, slog.Int("arg_count", args))
	}
	attrs = errorAttrs(attrs, err)

	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelError
	}
	h.logger.LogAttrs(ctx, level, "database statement executed", attrs...)
}

// logConnection logs acquisition and release
func (h *ConnectionHandle) logConnection(ctx context.Context, event string, duration time.Duration, err error) {
	attrs := errorAttrs([]slog.Attr{
		slog.String("event", event),
		slog.Float64("duration_ms", durationMS(duration)),
	}, err)
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelError
	}
	h.logger.LogAttrs(ctx, level, "database connection event", attrs...)
}

// logTransaction logs begin, commit and rollback
func (h *ConnectionHandle) logTransaction(ctx context.Context, event string, duration time.Duration, err error) {
	attrs := errorAttrs([]slog.Attr{
		slog.String("event", event),
		slog.Float64("duration_ms", durationMS(duration)),
	}, err)
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelError
	}
	h.logger.LogAttrs(ctx, level, "database transaction event", attrs...)
}

// logStep records one guarded teardown or best-effort step. Failures are
// logged at Error, successes at Debug.
func (h *ConnectionHandle) logStep(ctx context.Context, op, step string, err error) {
	attrs := errorAttrs([]slog.Attr{
		slog.String("operation", op),
		slog.String("step", step),
	}, err)
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelError
	}
	h.logger.LogAttrs(ctx, level, "database handle step", attrs...)
}

// logProbe records degraded results of the never-failing probes.
func (h *ConnectionHandle) logProbe(ctx context.Context, op, msg string, err error) {
	attrs := []slog.Attr{slog.String("operation", op)}
	if err != nil {
		attrs = errorAttrs(attrs, err)
	}
	h.logger.LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
}
