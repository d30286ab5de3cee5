package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	got := dsn("app", "secret", "localhost", "3306", "cinema")
	assert.Equal(t,
		"app:secret@tcp(localhost:3306)/cinema?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
		got)

	// No password means no colon in the auth segment.
	assert.Equal(t,
		"root@tcp(db:3307)/cinema?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
		dsn("root", "", "db", "3307", "cinema"))
}

func TestDSNReportsFoundRows(t *testing.T) {
	// The guarded seat updates compare RowsAffected against the batch size;
	// without found-rows semantics an idempotent re-hold writing identical
	// values would be reported as a conflict.
	assert.Contains(t, dsn("u", "p", "h", "3306", "d"), "clientFoundRows=true")
}
