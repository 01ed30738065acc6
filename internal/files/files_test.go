package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestListFilesRecursiveAndSorted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b", "ingest_date=2024-01-02", "orders.csv"), "x")
	writeFile(t, filepath.Join(root, "a", "customers.CSV"), "x")
	writeFile(t, filepath.Join(root, "a", "notes.txt"), "x")

	found, err := ListFiles(root, "csv")
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "a", "customers.CSV"),
		filepath.Join(root, "b", "ingest_date=2024-01-02", "orders.csv"),
	}, found)
}

func TestListFilesErrors(t *testing.T) {
	_, err := ListFiles(filepath.Join(t.TempDir(), "missing"), "csv")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = ListFiles(t.TempDir(), "parquet")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractIngestDate(t *testing.T) {
	assert.Equal(t, "2024-01-15", ExtractIngestDate("input/orders/ingest_date=2024-01-15/orders.csv"))
	assert.Equal(t, UnknownIngestDate, ExtractIngestDate("input/orders/orders.csv"))
	assert.Equal(t, UnknownIngestDate, ExtractIngestDate("orders.csv"))
}

func TestPartitionFolderAndBaseName(t *testing.T) {
	assert.Equal(t, "ingest_date=2024-01-15", PartitionFolder("2024-01-15"))
	assert.Equal(t, "ingest_date=unknown", PartitionFolder(""))
	assert.Equal(t, "orders_bronze", BaseName("out/bronze/ingest_date=x/orders_bronze.csv"))
}

func TestLayerPath(t *testing.T) {
	p, err := LayerPath("output", "Silver", "ingest_date=x/orders_silver.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("output", "silver", "ingest_date=x", "orders_silver.csv"), p)

	_, err = LayerPath("output", "platinum", "x.csv")
	assert.ErrorIs(t, err, ErrInvalidLayer)
}

func TestCleanDirectoryRefusesOutsideRoot(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "output")
	outside := filepath.Join(base, "input")
	writeFile(t, filepath.Join(outside, "keep.csv"), "x")

	err := CleanDirectory(root, outside)
	assert.ErrorIs(t, err, ErrUnsafePath)
	assert.FileExists(t, filepath.Join(outside, "keep.csv"))

	err = CleanDirectory(root, filepath.Join(base, "output-sibling"))
	assert.ErrorIs(t, err, ErrUnsafePath)
}

func TestCleanDirectoryRecreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "output")
	writeFile(t, filepath.Join(root, "bronze", "old.csv"), "x")

	require.NoError(t, CleanDirectory(root, root))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCleanDirectoryCreatesMissing(t *testing.T) {
	root := filepath.Join(t.TempDir(), "output")
	require.NoError(t, CleanDirectory(root, filepath.Join(root, "silver")))
	assert.DirExists(t, filepath.Join(root, "silver"))
}

func TestModifiedTimeNotFound(t *testing.T) {
	_, err := ModifiedTime(filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, ErrNotFound)
}
