package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// ErrPathTraversal is returned when a relative path escapes the root
var ErrPathTraversal = errors.New("path traversal detected")

// Scanner finds .eml postings under an import root
type Scanner struct {
	rootPath string
}

// NewScanner creates a new scanner for the given root path
func NewScanner(rootPath string) *Scanner {
	return &Scanner{
		rootPath: rootPath,
	}
}

// GetRootPath returns the root path for resolving relative paths
func (s *Scanner) GetRootPath() string {
	return s.rootPath
}

// Scan recursively scans for .eml files and returns paths relative to rootPath,
// slash separated so stored paths survive moving the import root between hosts
func (s *Scanner) Scan() ([]string, error) {
	var emlFiles []string

	absRoot, err := filepath.Abs(s.rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute root path: %w", err)
	}

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if d.IsDir() || !isEML(path) {
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path for %s: %w", path, err)
		}
		emlFiles = append(emlFiles, filepath.ToSlash(relPath))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	return emlFiles, nil
}

// Resolve turns a relative path returned by Scan back into a filesystem path.
// Absolute paths and paths leaving the root are rejected.
func (s *Scanner) Resolve(relPath string) (string, error) {
	if relPath == "" {
		return "", fmt.Errorf("empty path")
	}
	native := filepath.FromSlash(relPath)
	if filepath.IsAbs(native) || strings.HasPrefix(relPath, "/") {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, relPath)
	}

	absRoot, err := filepath.Abs(s.rootPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute root path: %w", err)
	}

	full := filepath.Join(absRoot, native)
	rel, err := filepath.Rel(absRoot, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, relPath)
	}
	return full, nil
}

// CountEMLFiles counts the .eml files under the root
func (s *Scanner) CountEMLFiles() (int, error) {
	count := 0

	err := filepath.WalkDir(s.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && isEML(path) {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}

	return count, nil
}

func isEML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".eml")
}
