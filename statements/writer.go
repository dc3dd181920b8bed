package statements

import (
	"bufio"
	"fmt"
	"io"

	"github.com/syssam/seedql/dialect"
)

// Writer is the sink for generated statements. The file based and the
// connection based implementations are interchangeable behind this
// interface. Any failed operation surfaces as an error, there is no partial
// retry at this layer.
type Writer interface {
	// WriteStatement appends one statement.
	WriteStatement(stmt Statement) error
	// WriteComment appends a comment.
	WriteComment(text string) error
	// WriteSectionSeparator appends a separator between two logical
	// sections of the output.
	WriteSectionSeparator() error
	// Close flushes and releases the sink.
	Close() error
}

// FileWriter writes statements as SQL text to an io.Writer.
type FileWriter struct {
	dialect dialect.Dialect
	buf     *bufio.Writer
	closer  io.Closer
}

// NewFileWriter creates a writer emitting SQL text for the given dialect.
// If w implements io.Closer it is closed together with the writer.
func NewFileWriter(w io.Writer, d dialect.Dialect) *FileWriter {
	fw := &FileWriter{
		dialect: d,
		buf:     bufio.NewWriter(w),
	}
	if c, ok := w.(io.Closer); ok {
		fw.closer = c
	}
	return fw
}

// Dialect returns the dialect the writer renders for.
func (w *FileWriter) Dialect() dialect.Dialect { return w.dialect }

// WriteStatement appends the statement followed by the dialect terminator.
func (w *FileWriter) WriteStatement(stmt Statement) error {
	if _, err := w.buf.WriteString(stmt.SQL(w.dialect)); err != nil {
		return fmt.Errorf("statements: write statement: %w", err)
	}
	if _, err := w.buf.WriteString(w.dialect.StatementTerminator()); err != nil {
		return fmt.Errorf("statements: write statement: %w", err)
	}
	return nil
}

// WriteComment appends a comment line or block.
func (w *FileWriter) WriteComment(text string) error {
	if _, err := w.buf.WriteString(w.dialect.Comment(text) + "\n"); err != nil {
		return fmt.Errorf("statements: write comment: %w", err)
	}
	return nil
}

// WriteSectionSeparator appends a blank line.
func (w *FileWriter) WriteSectionSeparator() error {
	if _, err := w.buf.WriteString("\n"); err != nil {
		return fmt.Errorf("statements: write separator: %w", err)
	}
	return nil
}

// WriteRaw copies pre-rendered SQL text to the output unchanged.
func (w *FileWriter) WriteRaw(text string) error {
	if _, err := w.buf.WriteString(text); err != nil {
		return fmt.Errorf("statements: write raw: %w", err)
	}
	return nil
}

// Flush writes buffered output to the underlying writer.
func (w *FileWriter) Flush() error {
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("statements: flush: %w", err)
	}
	return nil
}

// Close flushes the buffer and closes the underlying writer, if closable.
func (w *FileWriter) Close() error {
	if err := w.Flush(); err != nil {
		return err
	}
	if w.closer != nil {
		if err := w.closer.Close(); err != nil {
			return fmt.Errorf("statements: close: %w", err)
		}
	}
	return nil
}

var _ Writer = (*FileWriter)(nil)
