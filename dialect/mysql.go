package dialect

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MySQLDialect generates SQL for MySQL and MariaDB.
type MySQLDialect struct{}

// Name returns the dialect name.
func (MySQLDialect) Name() string { return MySQL }

// DriverName returns the database/sql driver name.
func (MySQLDialect) DriverName() string { return "mysql" }

// Quote quotes an identifier with backticks.
func (MySQLDialect) Quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

// Fold returns the identifier unchanged.
func (MySQLDialect) Fold(ident string) string { return ident }

// StringLiteral formats a string literal. Backslashes are escaped in
// addition to quote doubling, as MySQL treats them as escape characters.
func (MySQLDialect) StringLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + escapeString(s) + "'"
}

// BoolLiteral formats a boolean literal.
func (MySQLDialect) BoolLiteral(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// TimeLiteral formats a timestamp literal.
func (MySQLDialect) TimeLiteral(t time.Time) string {
	return "'" + t.Format(timeLayout) + "'"
}

// BytesLiteral formats a binary literal.
func (MySQLDialect) BytesLiteral(b []byte) string {
	return "x'" + hex.EncodeToString(b) + "'"
}

// UUIDLiteral formats a UUID literal.
func (MySQLDialect) UUIDLiteral(id uuid.UUID) string {
	return "'" + id.String() + "'"
}

// NextSequenceValue is unsupported, MySQL has no sequences.
func (MySQLDialect) NextSequenceValue(string, int64) string { return "" }

// CurrentSequenceValue is unsupported, MySQL has no sequences.
func (MySQLDialect) CurrentSequenceValue(string) string { return "" }

// AlignSequence is unsupported, MySQL has no sequences.
func (MySQLDialect) AlignSequence(string, int64) string { return "" }

// AlignIdentity moves the auto increment counter past the given value.
func (d MySQLDialect) AlignIdentity(table, _ string, value int64) string {
	return fmt.Sprintf("ALTER TABLE %s AUTO_INCREMENT = %d", d.Quote(table), value+1)
}

// SupportsSequences reports sequence support.
func (MySQLDialect) SupportsSequences() bool { return false }

// SupportsIdentity reports identity column support.
func (MySQLDialect) SupportsIdentity() bool { return true }

// NeedsJoinedDiscriminator reports whether JOINED inheritance requires a
// discriminator column.
func (MySQLDialect) NeedsJoinedDiscriminator() bool { return false }

// MaxStringLength returns 0, no practical literal length limit.
func (MySQLDialect) MaxStringLength() int { return 0 }

// StatementTerminator returns the script statement terminator.
func (MySQLDialect) StatementTerminator() string { return ";\n" }

// Comment renders an SQL comment.
func (MySQLDialect) Comment(text string) string { return comment(text) }
