package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/methodgen/internal/config"
	"github.com/tildaslashalef/methodgen/internal/loggy"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database: config.DatabaseConfig{
			Path:            filepath.Join(t.TempDir(), "methodgen.db"),
			JournalMode:     "WAL",
			SynchronousMode: "NORMAL",
			BusyTimeout:     5000,
			ForeignKeys:     true,
			ConnMaxLife:     time.Hour,
		},
	}
}

func TestBuildSQLiteDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DatabaseConfig
		want []string
	}{
		{
			name: "memory",
			cfg:  config.DatabaseConfig{Path: ":memory:"},
			want: []string{":memory:"},
		},
		{
			name: "file",
			cfg:  config.DatabaseConfig{Path: "/tmp/m.db", JournalMode: "WAL", SynchronousMode: "NORMAL", BusyTimeout: 5000, CacheSize: -2000, ForeignKeys: true},
			want: []string{"file:/tmp/m.db?", "_busy_timeout=5000", "_journal_mode=WAL", "_cache_size=-2000", "_foreign_keys=true"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn := buildSQLiteDSN(&tt.cfg)
			for _, w := range tt.want {
				assert.Contains(t, dsn, w)
			}
		})
	}
}

func TestMigrations(t *testing.T) {
	loggy.NewNoopLogger()

	_, err := RunMigrations()
	require.ErrorIs(t, err, ErrNotInitialized)

	require.NoError(t, InitDB(testConfig(t)))
	t.Cleanup(func() { _ = CloseDB() })

	applied, err := RunMigrations()
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	applied, err = RunMigrations()
	require.NoError(t, err)
	assert.Zero(t, applied)

	version, dirty, err := SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	conn, err := DB()
	require.NoError(t, err)
	_, err = conn.Exec(`INSERT INTO runs (id, name, provider, model, started_at) VALUES ('run-1', 'n', 'openai', 'm', CURRENT_TIMESTAMP)`)
	require.NoError(t, err)

	require.NoError(t, RevertMigrations(1))
	version, _, err = SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	assert.Error(t, RevertMigrations(0))
}

func TestWithTransaction(t *testing.T) {
	loggy.NewNoopLogger()
	require.NoError(t, InitDB(testConfig(t)))
	t.Cleanup(func() { _ = CloseDB() })

	_, err := RunMigrations()
	require.NoError(t, err)

	ctx := context.Background()
	insert := func(tx *sql.Tx, id string) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO runs (id, name, provider, model, started_at) VALUES (?, 'n', 'openai', 'm', CURRENT_TIMESTAMP)`, id)
		return err
	}

	require.NoError(t, WithTransaction(ctx, func(tx *sql.Tx) error { return insert(tx, "run-ok") }))

	boom := errors.New("boom")
	err = WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := insert(tx, "run-rolled-back"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	conn, err := DB()
	require.NoError(t, err)
	var count int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&count))
	assert.Equal(t, 1, count)
}
