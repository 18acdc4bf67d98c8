package querysql

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/roach88/relmap/internal/value"
)

// Dialect identifies a SQL flavour by its database/sql driver name.
type Dialect string

const (
	SQLite   Dialect = "sqlite3"
	Postgres Dialect = "pgx"
	MySQL    Dialect = "mysql"
)

// ErrUnknownDialect is returned for driver names relmap has no dialect for.
var ErrUnknownDialect = errors.New("unknown dialect")

// DialectFor maps a driver name to its dialect. "postgres" and "sqlite"
// are accepted as aliases.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3", "sqlite":
		return SQLite, nil
	case "pgx", "postgres", "postgresql":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDialect, driver)
	}
}

// Quote quotes an identifier. Identifiers are sanitized to ASCII letters
// before they get here, so no escaping is needed.
func (d Dialect) Quote(ident string) string {
	if d == MySQL {
		return "`" + ident + "`"
	}
	return `"` + ident + `"`
}

// Rebind converts ? placeholders to the dialect's bind style.
func (d Dialect) Rebind(query string) string {
	return sqlx.Rebind(sqlx.BindType(string(d)), query)
}

// Returning reports whether inserts report the generated identity through
// a RETURNING clause instead of LastInsertId.
func (d Dialect) Returning() bool {
	return d == Postgres
}

// ColumnType returns the column type for a storage kind.
func (d Dialect) ColumnType(k value.Kind) string {
	switch d {
	case Postgres:
		switch k {
		case value.KindText:
			return "TEXT"
		case value.KindInteger:
			return "BIGINT"
		case value.KindReal:
			return "DOUBLE PRECISION"
		case value.KindBlob:
			return "BYTEA"
		}
	case MySQL:
		switch k {
		case value.KindText:
			return "LONGTEXT"
		case value.KindInteger:
			return "BIGINT"
		case value.KindReal:
			return "DOUBLE"
		case value.KindBlob:
			return "LONGBLOB"
		}
	default:
		return k.String()
	}
	return k.String()
}

// PrimaryKey returns the column type of a generated integer identity.
func (d Dialect) PrimaryKey() string {
	switch d {
	case Postgres:
		return "BIGSERIAL PRIMARY KEY"
	case MySQL:
		return "BIGINT AUTO_INCREMENT PRIMARY KEY"
	default:
		return "INTEGER PRIMARY KEY"
	}
}
