package files

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldIgnore(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"main.py", false},
		{"src/app.js", false},
		{"node_modules/lib/index.js", true},
		{"pkg/__pycache__/x.py", true},
		{".env", true},
		{"src/.hidden.py", true},
		{".", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldIgnore(tt.path))
		})
	}
}

func TestInclude(t *testing.T) {
	for path, want := range map[string]bool{
		"a.py":          true,
		"README.md":     false,
		"vendor/b.java": false,
		"c.cs":          true,
		"d.JSON":        true,
	} {
		assert.Equal(t, want, Include(path), path)
	}
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func readArchive(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		out[f.Name] = string(b)
	}
	return out
}

func TestPack(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.py":               "print(1)",
		"web/app.js":            "let a",
		"web/node_modules/x.js": "skip",
		".git/config.json":      "{}",
		"notes.txt":             "skip",
	})

	var buf bytes.Buffer
	n, err := Pack(root, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	entries := readArchive(t, buf.Bytes())
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"main.py", "web/app.js"}, names)
	assert.Equal(t, "let a", entries["web/app.js"])
}

func TestPack_NoSources(t *testing.T) {
	root := writeTree(t, map[string]string{"README.md": "hi"})
	_, err := Pack(root, io.Discard)
	assert.ErrorIs(t, err, ErrNoSources)
}

func TestArchive(t *testing.T) {
	root := writeTree(t, map[string]string{"a.java": "class A {}"})

	rc, err := Archive(root)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, map[string]string{"a.java": "class A {}"}, readArchive(t, data))

	zipPath := filepath.Join(t.TempDir(), "p.zip")
	require.NoError(t, os.WriteFile(zipPath, data, 0o644))
	rc, err = Archive(zipPath)
	require.NoError(t, err)
	again, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, data, again)

	_, err = Archive(filepath.Join(root, "missing"))
	assert.Error(t, err)
}
