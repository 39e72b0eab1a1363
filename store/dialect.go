package store

import (
	"fmt"
	"strconv"
	"strings"

	// Blind imports registering the database/sql drivers of the supported dialects.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect holds the SQL that differs between the supported databases.
type Dialect struct {
	Name   string
	Driver string

	createTables []string
	// numbered placeholders ($1, $2, ...) instead of ?
	numbered bool
}

var (
	SQLite = Dialect{
		Name:   "sqlite",
		Driver: "sqlite3",
		createTables: []string{
			`CREATE TABLE IF NOT EXISTS sources (
				"Identifier" TEXT NOT NULL PRIMARY KEY,
				"Source"     TEXT NOT NULL,
				"NFreq"      INTEGER,
				"DeltaF"     REAL,
				"Freq0"      REAL,
				"DeltaT"     REAL,
				"MJD"        INTEGER,
				"StartTime"  REAL
			);`,
			`CREATE TABLE IF NOT EXISTS spectra (
				"ID"         INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
				"Identifier" TEXT NOT NULL,
				"Seq"        INTEGER NOT NULL,
				"Power"      BLOB
			);`,
			`CREATE INDEX IF NOT EXISTS spectra_seq ON spectra (Identifier, Seq);`,
			`CREATE TABLE IF NOT EXISTS triggers (
				"ID"         TEXT NOT NULL PRIMARY KEY,
				"Identifier" TEXT NOT NULL,
				"Time"       REAL,
				"DMIndex"    INTEGER,
				"TimeIndex"  INTEGER,
				"SNR"        REAL,
				"Duration"   INTEGER
			);`,
		},
	}

	MySQL = Dialect{
		Name:   "mysql",
		Driver: "mysql",
		createTables: []string{
			`CREATE TABLE IF NOT EXISTS sources (
				Identifier VARCHAR(64) NOT NULL PRIMARY KEY,
				Source     VARCHAR(64) NOT NULL,
				NFreq      INTEGER,
				DeltaF     DOUBLE,
				Freq0      DOUBLE,
				DeltaT     DOUBLE,
				MJD        INTEGER,
				StartTime  DOUBLE
			);`,
			`CREATE TABLE IF NOT EXISTS spectra (
				ID         BIGINT NOT NULL PRIMARY KEY AUTO_INCREMENT,
				Identifier VARCHAR(64) NOT NULL,
				Seq        BIGINT NOT NULL,
				Power      LONGBLOB,
				INDEX spectra_seq (Identifier, Seq)
			);`,
			`CREATE TABLE IF NOT EXISTS triggers (
				ID         VARCHAR(36) NOT NULL PRIMARY KEY,
				Identifier VARCHAR(64) NOT NULL,
				Time       DOUBLE,
				DMIndex    INTEGER,
				TimeIndex  INTEGER,
				SNR        DOUBLE,
				Duration   INTEGER
			);`,
		},
	}

	Postgres = Dialect{
		Name:     "postgres",
		Driver:   "pgx",
		numbered: true,
		createTables: []string{
			`CREATE TABLE IF NOT EXISTS sources (
				Identifier TEXT NOT NULL PRIMARY KEY,
				Source     TEXT NOT NULL,
				NFreq      INTEGER,
				DeltaF     DOUBLE PRECISION,
				Freq0      DOUBLE PRECISION,
				DeltaT     DOUBLE PRECISION,
				MJD        INTEGER,
				StartTime  DOUBLE PRECISION
			);`,
			`CREATE TABLE IF NOT EXISTS spectra (
				ID         BIGSERIAL PRIMARY KEY,
				Identifier TEXT NOT NULL,
				Seq        BIGINT NOT NULL,
				Power      BYTEA
			);`,
			`CREATE INDEX IF NOT EXISTS spectra_seq ON spectra (Identifier, Seq);`,
			`CREATE TABLE IF NOT EXISTS triggers (
				ID         TEXT NOT NULL PRIMARY KEY,
				Identifier TEXT NOT NULL,
				Time       DOUBLE PRECISION,
				DMIndex    INTEGER,
				TimeIndex  INTEGER,
				SNR        DOUBLE PRECISION,
				Duration   INTEGER
			);`,
		},
	}
)

// DialectFor looks up a dialect by name.
func DialectFor(name string) (Dialect, error) {
	for _, d := range []Dialect{SQLite, MySQL, Postgres} {
		if strings.EqualFold(d.Name, name) {
			return d, nil
		}
	}
	return Dialect{}, fmt.Errorf("%q is not a supported database, pick one of: sqlite, mysql, postgres", name)
}

// rebind rewrites ? placeholders for dialects using numbered ones.
func (d Dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r != '?' {
			b.WriteRune(r)
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}
