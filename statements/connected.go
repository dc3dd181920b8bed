package statements

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/syssam/seedql/dialect"
)

// ExecQuerier wraps the standard Exec method, implemented by *sql.DB,
// *sql.Conn and *sql.Tx.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ConnectedWriter executes every statement on a live database connection
// instead of writing text. Comments are logged, section separators are
// ignored. The writer never commits - the transaction, if any, is driven by
// the caller.
type ConnectedWriter struct {
	ctx     context.Context
	conn    ExecQuerier
	dialect dialect.Dialect
	log     *zap.SugaredLogger
}

// NewConnectedWriter creates a writer executing statements on conn.
func NewConnectedWriter(ctx context.Context, conn ExecQuerier, d dialect.Dialect) *ConnectedWriter {
	return &ConnectedWriter{
		ctx:     ctx,
		conn:    conn,
		dialect: d,
		log:     zap.NewNop().Sugar(),
	}
}

// WithLogger sets the logger used for comments.
func (w *ConnectedWriter) WithLogger(log *zap.SugaredLogger) *ConnectedWriter {
	w.log = log
	return w
}

// Dialect returns the dialect the writer renders for.
func (w *ConnectedWriter) Dialect() dialect.Dialect { return w.dialect }

// WriteStatement executes the statement.
func (w *ConnectedWriter) WriteStatement(stmt Statement) error {
	query := stmt.SQL(w.dialect)
	if _, err := w.conn.ExecContext(w.ctx, query); err != nil {
		return fmt.Errorf("statements: exec %q: %w", query, err)
	}
	return nil
}

// WriteComment logs the comment.
func (w *ConnectedWriter) WriteComment(text string) error {
	w.log.Debug(text)
	return nil
}

// WriteSectionSeparator is a no-op on a connection.
func (w *ConnectedWriter) WriteSectionSeparator() error { return nil }

// Close is a no-op, the connection is owned by the caller.
func (w *ConnectedWriter) Close() error { return nil }

var _ Writer = (*ConnectedWriter)(nil)
