// Package ygggo_conn wraps one relational database connection and the
// statements and cursor derived from it.
//
// # Overview
//
// A ConnectionHandle owns exactly one physical connection, obtained either
// from a named Registry (Pooled) or by dialing a connection string
// (DirectURL). On top of it the handle keeps:
//   - a direct statement for literal SQL text
//   - one prepared statement and one callable (stored procedure) statement,
//     each with positional parameters that persist across executions
//   - at most one active Cursor, shared by every statement on the handle;
//     any statement execution closes it first, including direct Statement
//     queries, updates, connectivity checks and GetLastInsertId
//   - an optional manual transaction when autocommit is disabled
//
// Close releases all of it in a fixed order and may be called any number of
// times, including on a nil handle returned by a failed New.
//
// # Quick Start
//
//	cfg := ygggo_conn.DefaultConfig()
//	cfg.Password = "secret"
//
//	h, err := ygggo_conn.New(ctx, ygggo_conn.DirectURL, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer h.Close()
//
//	n, err := h.ExecuteUpdate(ctx, ygggo_conn.Direct("UPDATE docs SET seen = 1"))
//
//	ps, err := h.PrepareStatement(ctx, "SELECT id, title FROM docs WHERE owner = ?")
//	ps.SetInt64(1, 42)
//	cur, err := h.ExecuteQuery(ctx, ygggo_conn.Prepared())
//	for cur.Next() {
//		var id int64
//		var title string
//		cur.Scan(&id, &title)
//	}
//
// # Execution paths
//
// ExecuteQuery and ExecuteUpdate take a Query: Direct(sql), Prepared() or
// Callable(). ExecuteQuery fails when the selected statement is missing.
// ExecuteUpdate instead falls back to the direct statement whenever the
// prepared or callable path is not available, which with Prepared() means an
// empty-SQL failure rather than a missing-statement one.
//
// # Transactions
//
//	h.SetAutoCommit(ctx, false)
//	h.ExecuteUpdate(ctx, ygggo_conn.Direct("INSERT INTO docs(title) VALUES ('a')"))
//	if err := h.Commit(ctx); err != nil {
//		h.Rollback(ctx)
//	}
//
// Rollback and Close never return errors; they return an Outcome whose
// Detail carries whatever went wrong.
//
// # Resource lifetime
//
// Create one handle per unit of work and close it when done. A handle must
// not be created repeatedly inside a loop while earlier ones are still open:
// each holds a physical connection until Close, so a loop that forgets to
// close them exhausts the pool or the server's connection limit.
//
// A handle is not safe for concurrent use.
//
// # Observability
//
// Records are written through Config.Logger (log/slog). With
// Config.Telemetry enabled, every operation gets an OpenTelemetry span named
// ygggo_conn.<operation>, metrics named ygggo_conn_*, and DirectURL dials go
// through otelsql.
package ygggo_conn
