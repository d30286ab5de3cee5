package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// dsn assembles the connection string.  clientFoundRows makes UPDATE
// report matched rows rather than changed rows; the guarded seat and
// booking updates count rows to detect lost races, and without it an
// idempotent re-hold that writes identical values would look like one.
func dsn(user, pass, host, port, name string) string {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
		auth, host, port, name)
}

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn(user, pass, host, port, name))
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// MySQL server error numbers that indicate a transaction lost a race against
// a concurrent competing transaction rather than a real failure.
const (
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

// IsRetryable reports whether err is a transient store conflict (deadlock or
// lock wait timeout) that a caller may safely retry after rolling back.
// These are expected under load on the seat rows and are not surfaced to
// clients directly.
func IsRetryable(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == errDeadlock || me.Number == errLockWaitTimeout
}

// IsDuplicateEntry reports whether err is a unique-key violation (MySQL
// error 1062).  Used to turn duplicate payment inserts into idempotent
// no-ops instead of failures.
func IsDuplicateEntry(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == 1062
}
