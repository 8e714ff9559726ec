// Package source lists the input files of a run
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dicomstack/internal/models"
)

// Discover returns the sources at path. A file is returned as is; a
// directory yields its immediate entries whose extension is in exts
// (case-insensitive). An empty exts accepts every regular file.
func Discover(path string, exts []string) ([]models.SourceFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("input path %s: %w", path, err)
	}

	if !info.IsDir() {
		return []models.SourceFile{newSourceFile(path)}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var sources []models.SourceFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !matches(entry.Name(), exts) {
			continue
		}
		sources = append(sources, newSourceFile(filepath.Join(path, entry.Name())))
	}
	return sources, nil
}

// Paths returns the identifiers of sources
func Paths(sources []models.SourceFile) []string {
	paths := make([]string, len(sources))
	for i, s := range sources {
		paths[i] = s.Path
	}
	return paths
}

func newSourceFile(path string) models.SourceFile {
	return models.SourceFile{Path: path, Ext: strings.ToLower(filepath.Ext(path))}
}

func matches(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range exts {
		want = strings.ToLower(want)
		if !strings.HasPrefix(want, ".") {
			want = "." + want
		}
		if ext == want {
			return true
		}
	}
	return false
}
