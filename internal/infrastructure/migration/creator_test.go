package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailpos/backend/migrations"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add payments table", "add_payments_table"},
		{"Add-Payments-Table", "add_payments_table"},
		{"add__payments__table", "add_payments_table"},
		{"Add Index 123", "add_index_123"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading", "leading"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_Sequential(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "add payments index", "speeds up receivables")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_payments_index.up.sql"), first.UpPath)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: add_payments_index")
	assert.Contains(t, string(up), "-- speeds up receivables")

	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "-- Rollback: add_payments_index")

	second, err := CreateMigration(dir, "drop legacy view", "")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)

	_, err = CreateMigration(dir, "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_b.up.sql":   {},
		"000001_a.up.sql":   {},
		"000001_a.down.sql": {},
		"README.md":         {},
		"junk.up.sql":       {},
	}
	list, err := ListMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, MigrationEntry{Version: 1, Name: "a", HasDown: true}, list[0])
	assert.Equal(t, MigrationEntry{Version: 2, Name: "b", HasDown: false}, list[1])

	empty, err := ListMigrations(os.DirFS(filepath.Join(t.TempDir(), "missing")))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestEmbeddedMigrations(t *testing.T) {
	list, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(list), 3)
	for i, m := range list {
		assert.Equal(t, uint(i+1), m.Version, "versions must be contiguous")
		assert.True(t, m.HasDown, "version %d lacks a down file", m.Version)
	}

	up, err := migrations.FS.ReadFile("000001_init_schema.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(up), "idx_sales_tenant_number ON sales (tenant_id, sale_number)")
	assert.Contains(t, string(up), "idx_products_tenant_code ON products (tenant_id, code)")
}

func TestOpenSource(t *testing.T) {
	drv, name, err := openSource(Source{FS: migrations.FS})
	require.NoError(t, err)
	defer drv.Close()
	assert.Equal(t, "iofs", name)

	first, err := drv.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)
	next, err := drv.Next(first)
	require.NoError(t, err)
	assert.Equal(t, uint(2), next)

	_, _, err = openSource(Source{})
	assert.Error(t, err)
}
