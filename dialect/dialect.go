// Package dialect provides database dialect abstraction for seedql.
//
// All SQL text that depends on the target database - identifier quoting,
// literal formatting, sequence expressions, alignment statements - is produced
// through the Dialect interface, so that the generator core stays free of
// database conditionals.
//
// The following dialects are supported:
//
//   - Postgres: PostgreSQL database
//   - MySQL: MySQL/MariaDB database
//   - SQLite: SQLite database
package dialect

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Dialect name constants.
const (
	Postgres = "postgres"
	MySQL    = "mysql"
	SQLite   = "sqlite"
)

// Dialect encapsulates the database specific parts of SQL generation.
type Dialect interface {
	// Name returns the dialect name (e.g. "postgres").
	Name() string

	// DriverName returns the database/sql driver name used for the
	// connected writer.
	DriverName() string

	// Quote quotes a table or column identifier.
	Quote(ident string) string

	// Fold normalizes an identifier for comparison, according to the
	// folding rule of the database (lower case for Postgres, unchanged
	// for MySQL and SQLite).
	Fold(ident string) string

	// StringLiteral formats a string value as an SQL literal.
	StringLiteral(s string) string

	// BoolLiteral formats a boolean value as an SQL literal.
	BoolLiteral(b bool) string

	// TimeLiteral formats a timestamp value as an SQL literal.
	TimeLiteral(t time.Time) string

	// BytesLiteral formats a binary value as an SQL literal.
	BytesLiteral(b []byte) string

	// UUIDLiteral formats a UUID value as an SQL literal.
	UUIDLiteral(id uuid.UUID) string

	// NextSequenceValue returns the expression that advances the named
	// sequence and yields the new value.
	NextSequenceValue(name string, allocationSize int64) string

	// CurrentSequenceValue returns the expression that yields the value
	// most recently produced by the named sequence in this session.
	CurrentSequenceValue(name string) string

	// AlignSequence returns a statement that moves the named sequence to
	// the given value.
	AlignSequence(name string, value int64) string

	// AlignIdentity returns a statement that moves the identity counter
	// of the given table past the given value, or "" if the database
	// realigns identities automatically.
	AlignIdentity(table, column string, value int64) string

	// SupportsSequences reports whether the database has sequences.
	SupportsSequences() bool

	// SupportsIdentity reports whether the database has identity
	// (auto increment) columns.
	SupportsIdentity() bool

	// NeedsJoinedDiscriminator reports whether a discriminator column is
	// written for JOINED inheritance even without an explicit
	// discriminator declaration.
	NeedsJoinedDiscriminator() bool

	// MaxStringLength returns the maximum length of a plain string
	// literal, 0 for unlimited.
	MaxStringLength() int

	// StatementTerminator returns the text appended after every
	// statement in script output.
	StatementTerminator() string

	// Comment renders the given text as an SQL comment. Multi line text
	// is bracketed in a block comment.
	Comment(text string) string
}

// New returns the dialect registered under the given name.
func New(name string) (Dialect, error) {
	switch name {
	case Postgres:
		return PostgresDialect{}, nil
	case MySQL:
		return MySQLDialect{}, nil
	case SQLite:
		return SQLiteDialect{}, nil
	}
	return nil, fmt.Errorf("dialect: unknown dialect %q", name)
}

// Literal formats an arbitrary Go value as an SQL literal of the given
// dialect. A nil value formats as NULL.
func Literal(d Dialect, v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "NULL", nil
	case string:
		return d.StringLiteral(v), nil
	case bool:
		return d.BoolLiteral(v), nil
	case int:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case time.Time:
		return d.TimeLiteral(v), nil
	case []byte:
		return d.BytesLiteral(v), nil
	case uuid.UUID:
		return d.UUIDLiteral(v), nil
	}
	return "", fmt.Errorf("dialect: cannot format %T as an SQL literal", v)
}

// escapeString doubles single quotes. Backslash escaping is added by the
// MySQL dialect on top of this.
func escapeString(s string) string {
	if !strings.Contains(s, "'") {
		return s
	}
	return strings.ReplaceAll(s, "'", "''")
}

// comment renders text using line or block comment syntax, shared by all
// bundled dialects.
func comment(text string) string {
	if strings.Contains(text, "\n") {
		// Block comments must not contain a terminator.
		return "/* " + strings.ReplaceAll(text, "*/", "* /") + " */"
	}
	return "-- " + text
}

const timeLayout = "2006-01-02 15:04:05"
