// Package store is the Postgres persistence layer, split by bounded
// context. It speaks raw SQL via database/sql and lib/pq, the same
// no-ORM style the teacher's internal/db/postgres.go uses throughout:
// explicit queries, explicit Scan calls, errors wrapped (never swallowed).
package store

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// DB wraps the shared connection pool. Each bounded context gets its own
// file of methods on this type, mirroring how the teacher keeps every
// table's queries in one PostgresDB but grouped by comment banner — we
// just split the files instead of relying on comments.
type DB struct {
	conn *sql.DB
}

// Open connects to Postgres and configures the pool the way the teacher
// does (25 max open, 5 idle, 5 minute max lifetime).
func Open(connStr string) (*DB, error) {
	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := conn.Ping(); err != nil {
		return nil, err
	}
	return &DB{conn: conn}, nil
}

func (d *DB) Close() error { return d.conn.Close() }

// Conn exposes the underlying *sql.DB for packages that need to start
// their own transactions spanning multiple store files (e.g. identity's
// OTP-verify flow touches users, devices, and one_time_prekeys in one tx).
func (d *DB) Conn() *sql.DB { return d.conn }
