package ygggo_conn

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the handle's metric instruments
type Metrics struct {
	connectionsActive  metric.Int64UpDownCounter
	connectionsTotal   metric.Int64Counter
	connectionDuration metric.Float64Histogram

	queriesTotal  metric.Int64Counter
	queryDuration metric.Float64Histogram

	transactionsTotal   metric.Int64Counter
	transactionDuration metric.Float64Histogram
}

func newMetrics(mp metric.MeterProvider) *Metrics {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)
	m := &Metrics{}

	m.connectionsActive, _ = meter.Int64UpDownCounter(
		"ygggo_conn_connections_active",
		metric.WithDescription("Number of open connection handles"),
	)
	m.connectionsTotal, _ = meter.Int64Counter(
		"ygggo_conn_connections_total",
		metric.WithDescription("Total number of connection acquisitions"),
	)
	m.connectionDuration, _ = meter.Float64Histogram(
		"ygggo_conn_connection_duration_seconds",
		metric.WithDescription("Lifetime of connection handles"),
		metric.WithUnit("s"),
	)
	m.queriesTotal, _ = meter.Int64Counter(
		"ygggo_conn_queries_total",
		metric.WithDescription("Total number of executed statements"),
	)
	m.queryDuration, _ = meter.Float64Histogram(
		"ygggo_conn_query_duration_seconds",
		metric.WithDescription("Duration of executed statements"),
		metric.WithUnit("s"),
	)
	m.transactionsTotal, _ = meter.Int64Counter(
		"ygggo_conn_transactions_total",
		metric.WithDescription("Total number of finished transactions"),
	)
	m.transactionDuration, _ = meter.Float64Histogram(
		"ygggo_conn_transaction_duration_seconds",
		metric.WithDescription("Duration of transactions"),
		metric.WithUnit("s"),
	)
	return m
}

func statusAttr(err error) attribute.KeyValue {
	if err != nil {
		return attribute.String("status", "error")
	}
	return attribute.String("status", "success")
}

func (h *ConnectionHandle) strategyAttr() attribute.KeyValue {
	return attribute.String("strategy", h.strategy.String())
}

// recordConnectionAcquired counts an acquisition attempt
func (h *ConnectionHandle) recordConnectionAcquired(ctx context.Context, err error) {
	if h.metrics == nil {
		return
	}
	h.metrics.connectionsTotal.Add(ctx, 1, metric.WithAttributes(h.strategyAttr(), statusAttr(err)))
	if err == nil {
		h.metrics.connectionsActive.Add(ctx, 1, metric.WithAttributes(h.strategyAttr()))
	}
}

// recordConnectionReleased records the end of a connected handle
func (h *ConnectionHandle) recordConnectionReleased(ctx context.Context, lifetime time.Duration) {
	if h.metrics == nil {
		return
	}
	h.metrics.connectionsActive.Add(ctx, -1, metric.WithAttributes(h.strategyAttr()))
	h.metrics.connectionDuration.Record(ctx, lifetime.Seconds(), metric.WithAttributes(h.strategyAttr()))
}

// recordQuery records statement execution metrics
func (h *ConnectionHandle) recordQuery(ctx context.Context, operation string, duration time.Duration, err error) {
	if h.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		statusAttr(err),
	)
	h.metrics.queriesTotal.Add(ctx, 1, attrs)
	h.metrics.queryDuration.Record(ctx, duration.Seconds(), attrs)
}

// recordTransaction records a commit or rollback
func (h *ConnectionHandle) recordTransaction(ctx context.Context, outcome string, duration time.Duration, err error) {
	if h.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("outcome", outcome),
		statusAttr(err),
	)
	h.metrics.transactionsTotal.Add(ctx, 1, attrs)
	h.metrics.transactionDuration.Record(ctx, duration.Seconds(), attrs)
}
