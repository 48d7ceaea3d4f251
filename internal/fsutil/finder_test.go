package fsutil_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/h2integrate/internal/fsutil"
	"github.com/vk/h2integrate/internal/testutil"
)

func TestFindFilesByExtension(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{
		"b.hcl":        "",
		"a.hcl":        "",
		"nested/c.hcl": "",
		"notes.txt":    "",
		".git/d.hcl":   "",
	})

	files, err := fsutil.FindFilesByExtension(root, ".hcl")
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(root, "a.hcl"),
		filepath.Join(root, "b.hcl"),
		filepath.Join(root, "nested", "c.hcl"),
	}, files)
}

func TestFindFilesByExtension_MissingRoot(t *testing.T) {
	_, err := fsutil.FindFilesByExtension(filepath.Join(t.TempDir(), "nope"), ".hcl")
	require.Error(t, err)
}

func TestFindFilesByExtension_EmptyExtensionPanics(t *testing.T) {
	require.Panics(t, func() { _, _ = fsutil.FindFilesByExtension(t.TempDir(), "") })
}

func TestFindStaleFiles(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{
		"old.msgpack": "x",
		"new.msgpack": "x",
		"k.123.tmp":   "x",
	})
	oldPath := filepath.Join(root, "old.msgpack")
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(oldPath, past, past))

	files, err := fsutil.FindStaleFiles(root, ".msgpack", time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, []string{oldPath}, files)
}
