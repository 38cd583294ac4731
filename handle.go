package ygggo_conn

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// State is the lifecycle position of a ConnectionHandle.
type State int

const (
	StateUninitialized State = iota
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ConnectionHandle owns one physical connection and the statements and
// cursor derived from it. It is not safe for concurrent use.
type ConnectionHandle struct {
	id       string
	strategy Strategy
	cfg      Config
	dialect  Dialect
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *Metrics

	state      State
	db         *sql.DB // owned only under DirectURL
	conn       *sql.Conn
	stmt       *Statement
	pstmt      *PreparedStatement
	cstmt      *CallableStatement
	cursor     *Cursor
	tx         *sql.Tx
	txStart    time.Time
	autoCommit bool
	openedAt   time.Time
}

// New acquires a connection with strategy and validates it with a ping.
// On any failure the partial handle is torn down and New returns nil and a
// *ConnectError.
func New(ctx context.Context, strategy Strategy, cfg Config) (*ConnectionHandle, error) {
	cfg = cfg.withDefaults()
	h := &ConnectionHandle{
		id:         uuid.NewString(),
		strategy:   strategy,
		cfg:        cfg,
		dialect:    cfg.Dialect,
		autoCommit: true,
	}
	h.logger = cfg.Logger.With(
		slog.String("handle_id", h.id),
		slog.String("strategy", strategy.String()),
		slog.String("db_system", h.dialect.System),
	)
	h.initTracer()
	if cfg.Telemetry.Enabled {
		h.metrics = newMetrics(cfg.Telemetry.MeterProvider)
	}

	start := time.Now()
	spanCtx, span := h.startSpan(ctx, "connect", "")
	err := h.acquire(spanCtx)
	h.finishSpan(span, err)
	h.logConnection(ctx, "connect", time.Since(start), err)
	h.recordConnectionAcquired(ctx, err)
	if err != nil {
		h.Close()
		return nil, connectErr("connect", err)
	}
	return h, nil
}

func (h *ConnectionHandle) acquire(ctx context.Context) error {
	switch h.strategy {
	case Pooled:
		if h.cfg.Registry == nil {
			return ErrRegistryMissing
		}
		conn, err := h.cfg.Registry.Resolve(ctx, h.cfg.RegistryName)
		if err != nil {
			return fmt.Errorf("resolve %q: %w", h.cfg.RegistryName, err)
		}
		if conn == nil {
			return fmt.Errorf("resolve %q: registry returned no connection", h.cfg.RegistryName)
		}
		h.conn = conn
	case DirectURL:
		connector := h.cfg.Connector
		if connector == nil {
			if err := h.cfg.Validate(); err != nil {
				return err
			}
			var err error
			connector, err = h.dialect.Connector(h.cfg.ConnectionString())
			if err != nil {
				return err
			}
		}
		h.db = h.openDB(connector)
		h.db.SetMaxOpenConns(1)
		h.db.SetMaxIdleConns(1)
		conn, err := h.db.Conn(ctx)
		if err != nil {
			return fmt.Errorf("dial: %w", err)
		}
		h.conn = conn
	default:
		return fmt.Errorf("%w: %d", ErrUnknownStrategy, int(h.strategy))
	}

	if err := h.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	if !h.cfg.DeferStatement {
		h.stmt = &Statement{h: h}
	}
	h.state = StateConnected
	h.openedAt = time.Now()
	return nil
}

// IsConnected reports whether the handle holds a live connection.
func (h *ConnectionHandle) IsConnected() bool {
	return h != nil && h.state == StateConnected
}

func (h *ConnectionHandle) State() State {
	if h == nil {
		return StateUninitialized
	}
	return h.state
}

// ID identifies the handle in log records, spans and metrics.
func (h *ConnectionHandle) ID() string {
	if h == nil {
		return ""
	}
	return h.id
}

func (h *ConnectionHandle) Strategy() Strategy {
	if h == nil {
		return 0
	}
	return h.strategy
}

func (h *ConnectionHandle) Dialect() Dialect {
	if h == nil {
		return Dialect{}
	}
	return h.dialect
}

// Conn exposes the owned connection; nil unless connected.
func (h *ConnectionHandle) Conn() *sql.Conn {
	if !h.IsConnected() {
		return nil
	}
	return h.conn
}

// Cursor returns the active cursor, if any.
func (h *ConnectionHandle) Cursor() *Cursor {
	if h == nil {
		return nil
	}
	return h.cursor
}

// Statement returns the current direct statement, if any.
func (h *ConnectionHandle) Statement() *Statement {
	if h == nil {
		return nil
	}
	return h.stmt
}

// PreparedStatement returns the current prepared statement, if any.
func (h *ConnectionHandle) PreparedStatement() *PreparedStatement {
	if h == nil {
		return nil
	}
	return h.pstmt
}

// CallableStatement returns the current callable statement, if any.
func (h *ConnectionHandle) CallableStatement() *CallableStatement {
	if h == nil {
		return nil
	}
	return h.cstmt
}

// Close releases, in order, the active cursor, the direct statement, the
// callable and prepared statements, any pending transaction (rolled back),
// the connection and, under DirectURL, the owned pool. Every step runs even
// when an earlier one fails. Close is idempotent and safe on a nil handle.
func (h *ConnectionHandle) Close() Outcome {
	out := Outcome{op: "close"}
	if h == nil || h.state == StateClosed {
		return out
	}
	ctx := context.Background()
	wasConnected := h.state == StateConnected
	h.state = StateClosed

	step := func(name string, fn func() error) {
		err := fn()
		h.logStep(ctx, "close", name, err)
		if err != nil {
			out.add(fmt.Errorf("%s: %w", name, err))
		}
	}

	if h.cursor != nil {
		step("cursor", h.cursor.Close)
		h.cursor = nil
	}
	if h.stmt != nil {
		step("statement", h.stmt.Close)
		h.stmt = nil
	}
	if h.cstmt != nil {
		step("callable statement", h.cstmt.Close)
		h.cstmt = nil
	}
	if h.pstmt != nil {
		step("prepared statement", h.pstmt.Close)
		h.pstmt = nil
	}
	if h.tx != nil {
		start := h.txStart
		err := h.tx.Rollback()
		h.logTransaction(ctx, "rollback", time.Since(start), err)
		h.recordTransaction(ctx, "rollback", time.Since(start), err)
		if err != nil {
			out.add(fmt.Errorf("pending transaction: %w", err))
		}
		h.tx = nil
	}
	if h.conn != nil {
		step("connection", h.conn.Close)
		h.conn = nil
	}
	if h.db != nil {
		step("database", h.db.Close)
		h.db = nil
	}

	var lifetime time.Duration
	if wasConnected {
		lifetime = time.Since(h.openedAt)
		h.recordConnectionReleased(ctx, lifetime)
	}
	h.logConnection(ctx, "close", lifetime, out.Detail())
	return out
}
