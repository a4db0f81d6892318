package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"add layers", "add_layers"},
		{"Add-Stock  Index", "add_stock_index"},
		{"__weird__name__", "weird_name"},
		{"v2 prices!", "v2_prices"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "create packaging")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_create_packaging.up.sql"), first.UpPath)
	assert.FileExists(t, first.UpPath)
	assert.FileExists(t, first.DownPath)

	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(rollback)")

	second, err := CreateMigration(dir, "add index")
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)

	_, err = CreateMigration(dir, "???")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		migrations, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
		require.NoError(t, err)
		assert.Empty(t, migrations)
	})

	t.Run("orders by version and ignores stray files", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{
			"000010_later.up.sql", "000010_later.down.sql",
			"000002_early.up.sql", "000002_early.down.sql",
			"README.md", "notanumber_x.up.sql",
		} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
		}

		migrations, err := ListMigrations(dir)
		require.NoError(t, err)
		require.Len(t, migrations, 2)
		assert.Equal(t, 2, migrations[0].Version)
		assert.Equal(t, "early", migrations[0].Name)
		assert.Equal(t, 10, migrations[1].Version)
	})
}

func TestRepositoryMigrationsArePaired(t *testing.T) {
	migrations, err := ListMigrations(filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version, "migrations must be numbered without gaps")
		assert.FileExists(t, m.DownPath)
	}
}
