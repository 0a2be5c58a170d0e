package migration

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/erp/wholesale/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"add carrier codes":          "add_carrier_codes",
		"Add-Carrier-Codes":          "add_carrier_codes",
		"ADD__CARRIER__CODES":        "add_carrier_codes",
		"create-sale-order-invoices": "create_sale_order_invoices",
		"journal v2":                 "journal_v2",
		"   padded   ":               "padded",
		"refund%reasons":             "refundreasons",
		"_leading and trailing_":     "leading_and_trailing",
		"":                           "",
	}
	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, want, sanitizeName(input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")

	mf, err := CreateMigration(dir, "add carrier codes", "Add carrier code lookup table")
	require.NoError(t, err)

	assert.Len(t, mf.Version, 14)
	assert.Equal(t,
		strings.TrimSuffix(filepath.Base(mf.UpPath), ".up.sql"),
		strings.TrimSuffix(filepath.Base(mf.DownPath), ".down.sql"))
	assert.Equal(t, mf.Version+"_add_carrier_codes.up.sql", filepath.Base(mf.UpPath))

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "Add carrier code lookup table")
	assert.Contains(t, string(up), "append-only")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Write your DOWN migration SQL here")

	names, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{mf.Version + "_add_carrier_codes"}, names)
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListFS(t *testing.T) {
	fsys := fstest.MapFS{
		"000003_add_payments.up.sql":   {Data: []byte("--")},
		"000003_add_payments.down.sql": {Data: []byte("--")},
		"000001_init_schema.up.sql":    {Data: []byte("--")},
		"000001_init_schema.down.sql":  {Data: []byte("--")},
		"000002_add_invoices.up.sql":   {Data: []byte("--")},
		"README.md":                    {Data: []byte("notes")},
		".up.sql":                      {Data: []byte("--")},
		"archive.up.sql/old.sql":       {Data: []byte("--")},
	}

	names, err := ListFS(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"000001_init_schema",
		"000002_add_invoices",
		"000003_add_payments",
	}, names)
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	names, err := ListMigrations(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestListFS_EmbeddedSchema(t *testing.T) {
	names, err := ListFS(migrations.FS)
	require.NoError(t, err)
	assert.True(t, slices.IsSorted(names))
	assert.Equal(t, []string{
		"20260105090000_create_sale_orders",
		"20260105090100_create_bookkeeping",
	}, names)
}
