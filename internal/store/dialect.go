package store

import (
	"errors"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

type dialect struct {
	driver   string
	serialPK string
	boolType string
}

var (
	sqliteDialect = dialect{
		driver:   "sqlite",
		serialPK: "INTEGER PRIMARY KEY AUTOINCREMENT",
		boolType: "INTEGER",
	}
	postgresDialect = dialect{
		driver:   "postgres",
		serialPK: "BIGSERIAL PRIMARY KEY",
		boolType: "BOOLEAN",
	}
)

// rebind rewrites ? placeholders into $N for PostgreSQL.
func (d dialect) rebind(query string) string {
	if d.driver != "postgres" {
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

// isUniqueViolation detects constraint failures from either driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
