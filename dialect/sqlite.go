package dialect

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SQLiteDialect generates SQL for SQLite.
type SQLiteDialect struct{}

// Name returns the dialect name.
func (SQLiteDialect) Name() string { return SQLite }

// DriverName returns the database/sql driver name of modernc.org/sqlite.
func (SQLiteDialect) DriverName() string { return "sqlite" }

// Quote quotes an identifier.
func (SQLiteDialect) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// Fold returns the identifier unchanged.
func (SQLiteDialect) Fold(ident string) string { return ident }

// StringLiteral formats a string literal.
func (SQLiteDialect) StringLiteral(s string) string {
	return "'" + escapeString(s) + "'"
}

// BoolLiteral formats a boolean literal.
func (SQLiteDialect) BoolLiteral(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// TimeLiteral formats a timestamp literal.
func (SQLiteDialect) TimeLiteral(t time.Time) string {
	return "'" + t.Format(timeLayout) + "'"
}

// BytesLiteral formats a binary literal.
func (SQLiteDialect) BytesLiteral(b []byte) string {
	return "x'" + hex.EncodeToString(b) + "'"
}

// UUIDLiteral formats a UUID literal.
func (SQLiteDialect) UUIDLiteral(id uuid.UUID) string {
	return "'" + id.String() + "'"
}

// NextSequenceValue is unsupported, SQLite has no sequences.
func (SQLiteDialect) NextSequenceValue(string, int64) string { return "" }

// CurrentSequenceValue is unsupported, SQLite has no sequences.
func (SQLiteDialect) CurrentSequenceValue(string) string { return "" }

// AlignSequence is unsupported, SQLite has no sequences.
func (SQLiteDialect) AlignSequence(string, int64) string { return "" }

// AlignIdentity moves the rowid counter of the table past the given value.
func (SQLiteDialect) AlignIdentity(table, _ string, value int64) string {
	return fmt.Sprintf("INSERT OR REPLACE INTO sqlite_sequence (name, seq) VALUES ('%s', %d)", table, value)
}

// SupportsSequences reports sequence support.
func (SQLiteDialect) SupportsSequences() bool { return false }

// SupportsIdentity reports identity column support.
func (SQLiteDialect) SupportsIdentity() bool { return true }

// NeedsJoinedDiscriminator reports whether JOINED inheritance requires a
// discriminator column.
func (SQLiteDialect) NeedsJoinedDiscriminator() bool { return false }

// MaxStringLength returns 0, no literal length limit.
func (SQLiteDialect) MaxStringLength() int { return 0 }

// StatementTerminator returns the script statement terminator.
func (SQLiteDialect) StatementTerminator() string { return ";\n" }

// Comment renders an SQL comment.
func (SQLiteDialect) Comment(text string) string { return comment(text) }
