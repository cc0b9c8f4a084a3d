package scanner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("Subject: x\n\nbody\n"), 0644))
	}
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.eml", "inbox/b.EML", "inbox/deep/c.eml", "notes.txt")

	files, err := NewScanner(root).Scan()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.eml", "inbox/b.EML", "inbox/deep/c.eml"}, files)

	count, err := NewScanner(root).CountEMLFiles()
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestScanMissingRoot(t *testing.T) {
	_, err := NewScanner(filepath.Join(t.TempDir(), "missing")).Scan()
	assert.Error(t, err)
}

// TestResolve tests the path traversal protection
func TestResolve(t *testing.T) {
	root := t.TempDir()
	s := NewScanner(root)

	tests := []struct {
		name        string
		path        string
		shouldError bool
	}{
		{"Valid relative path", "inbox/test.eml", false},
		{"Path traversal with ../", "../../../etc/passwd", true},
		{"Path traversal hidden in path", "inbox/../../etc/shadow", true},
		{"Absolute path", "/etc/passwd", true},
		{"Valid file starting with dots", "inbox/..hidden.eml", false},
		{"Dot segments staying inside", "inbox/../other.eml", false},
		{"Empty path", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := s.Resolve(tt.path)
			if tt.shouldError {
				assert.Error(t, err, "resolved to %q", resolved)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(resolved, root), "%q is not within %q", resolved, root)
		})
	}

	_, err := s.Resolve("../escape.eml")
	assert.ErrorIs(t, err, ErrPathTraversal)
}
