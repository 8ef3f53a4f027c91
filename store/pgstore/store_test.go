package pgstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := embedMigrations.ReadDir("migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	data, err := embedMigrations.ReadFile("migrations/0001_token_tables.sql")
	require.NoError(t, err)

	sql := string(data)
	assert.Contains(t, sql, "-- +goose Up")
	assert.Contains(t, sql, "-- +goose Down")
	assert.Contains(t, sql, "token_blacklist")
	assert.Contains(t, sql, "refresh_tokens")
}
