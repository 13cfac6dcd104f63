// Package store holds the SQL behind the API: credentials, the movie
// catalog, the vote ledger and comments. Every aggregate is recomputed
// from the tables on read.
package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid argument")
	ErrConflict = errors.New("conflict")
)

// Error carries a client-facing message alongside one of the sentinel kinds.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Kind }

func notFound(what string) error { return &Error{Kind: ErrNotFound, Message: what + " not found"} }
func invalid(msg string) error   { return &Error{Kind: ErrInvalid, Message: msg} }
func conflict(msg string) error  { return &Error{Kind: ErrConflict, Message: msg} }

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func sqliteCode(err error) int {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()
	}
	return 0
}

// constraintViolation matches the extended result code, falling back to the
// primary code plus message for connections without extended codes.
func constraintViolation(err error, extended int, marker string) bool {
	code := sqliteCode(err)
	if code == extended {
		return true
	}
	return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(err.Error(), marker)
}

func isUniqueViolation(err error) bool {
	return constraintViolation(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE, "UNIQUE")
}

func isForeignKeyViolation(err error) bool {
	return constraintViolation(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, "FOREIGN KEY")
}

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// PageQuery is a search term plus 1-indexed pagination.
type PageQuery struct {
	Query string
	Page  int
	Limit int
}

// ParsePage builds a PageQuery from raw query-string values. Numbers are
// read from their leading digits ("10abc" is 10). A missing, unparsable or
// zero value falls back to page 1 and the default limit; limit is then
// clamped to [1, MaxLimit].
func ParsePage(q, page, limit string) PageQuery {
	p, ok := leadingInt(page)
	if !ok || p == 0 {
		p = 1
	}
	l, ok := leadingInt(limit)
	if !ok || l == 0 {
		l = DefaultLimit
	}
	return PageQuery{Query: strings.TrimSpace(q), Page: p, Limit: l}.normalize()
}

// leadingInt parses an optional sign and the digits that follow it,
// ignoring anything after them.
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func (pq PageQuery) normalize() PageQuery {
	if pq.Page < 1 {
		pq.Page = 1
	}
	switch {
	case pq.Limit < 1:
		pq.Limit = 1
	case pq.Limit > MaxLimit:
		pq.Limit = MaxLimit
	}
	return pq
}

func (pq PageQuery) Offset() int { return (pq.Page - 1) * pq.Limit }

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns a search term into a substring LIKE pattern, meant for
// use with ESCAPE '\'.
func likePattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}
