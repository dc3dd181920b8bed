package dialect

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PostgresDialect generates SQL for PostgreSQL.
type PostgresDialect struct{}

// Name returns the dialect name.
func (PostgresDialect) Name() string { return Postgres }

// DriverName returns the database/sql driver name.
func (PostgresDialect) DriverName() string { return "postgres" }

// Quote quotes an identifier.
func (PostgresDialect) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// Fold lowercases the identifier, matching the PostgreSQL folding rule for
// unquoted names.
func (PostgresDialect) Fold(ident string) string { return strings.ToLower(ident) }

// StringLiteral formats a string literal.
func (PostgresDialect) StringLiteral(s string) string {
	if strings.Contains(s, `\`) {
		// Explicit escape string syntax, independent of
		// standard_conforming_strings.
		return "E'" + strings.ReplaceAll(escapeString(s), `\`, `\\`) + "'"
	}
	return "'" + escapeString(s) + "'"
}

// BoolLiteral formats a boolean literal.
func (PostgresDialect) BoolLiteral(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// TimeLiteral formats a timestamp literal.
func (PostgresDialect) TimeLiteral(t time.Time) string {
	return "timestamp '" + t.Format(timeLayout) + "'"
}

// BytesLiteral formats a binary literal using hex input syntax.
func (PostgresDialect) BytesLiteral(b []byte) string {
	return `'\x` + hex.EncodeToString(b) + "'"
}

// UUIDLiteral formats a UUID literal.
func (PostgresDialect) UUIDLiteral(id uuid.UUID) string {
	return "'" + id.String() + "'"
}

// NextSequenceValue returns the nextval expression for the sequence.
func (PostgresDialect) NextSequenceValue(name string, _ int64) string {
	return "nextval('" + name + "')"
}

// CurrentSequenceValue returns the currval expression for the sequence.
func (PostgresDialect) CurrentSequenceValue(name string) string {
	return "currval('" + name + "')"
}

// AlignSequence moves the sequence to the given value.
func (PostgresDialect) AlignSequence(name string, value int64) string {
	return fmt.Sprintf("SELECT setval('%s', %d)", name, value)
}

// AlignIdentity moves the serial sequence of the column past the given value.
func (d PostgresDialect) AlignIdentity(table, column string, value int64) string {
	return fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', '%s'), %d)", table, column, value)
}

// SupportsSequences reports sequence support.
func (PostgresDialect) SupportsSequences() bool { return true }

// SupportsIdentity reports identity column support.
func (PostgresDialect) SupportsIdentity() bool { return true }

// NeedsJoinedDiscriminator reports whether JOINED inheritance requires a
// discriminator column.
func (PostgresDialect) NeedsJoinedDiscriminator() bool { return false }

// MaxStringLength returns 0, PostgreSQL has no literal length limit.
func (PostgresDialect) MaxStringLength() int { return 0 }

// StatementTerminator returns the script statement terminator.
func (PostgresDialect) StatementTerminator() string { return ";\n" }

// Comment renders an SQL comment.
func (PostgresDialect) Comment(text string) string { return comment(text) }
