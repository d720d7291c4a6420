package store

import (
	"embed"
	"errors"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Dialect captures the differences between the supported databases.
type Dialect struct {
	Name       string
	schemaFile string
	numbered   bool
	constraint func(error) bool
}

var (
	SQLite = Dialect{
		Name:       "sqlite",
		schemaFile: "schema/sqlite.sql",
		constraint: isSQLiteConstraint,
	}
	Postgres = Dialect{
		Name:       "postgres",
		schemaFile: "schema/postgres.sql",
		numbered:   true,
		constraint: isPostgresConstraint,
	}
)

// DialectByName returns the dialect for a configured driver name.
func DialectByName(name string) (Dialect, bool) {
	switch name {
	case SQLite.Name:
		return SQLite, true
	case Postgres.Name:
		return Postgres, true
	}
	return Dialect{}, false
}

// Schema returns the DDL for the dialect.
func (d Dialect) Schema() (string, error) {
	b, err := schemaFS.ReadFile(d.schemaFile)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Rebind rewrites "?" placeholders into the dialect's style.
func (d Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsConstraintViolation reports whether err is a foreign key, check or
// uniqueness failure.
func (d Dialect) IsConstraintViolation(err error) bool {
	return err != nil && d.constraint != nil && d.constraint(err)
}

// sqliteConstraint is SQLITE_CONSTRAINT; extended codes keep it in the low byte.
const sqliteConstraint = 19

func isSQLiteConstraint(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()&0xff == sqliteConstraint
	}
	return false
}

func isPostgresConstraint(err error) bool {
	var pe *pq.Error
	if errors.As(err, &pe) {
		return pe.Code.Class() == "23"
	}
	return false
}
