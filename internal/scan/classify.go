// SPDX-License-Identifier: Apache-2.0

package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileCategory buckets an eligible file for the scanners that accept it.
type FileCategory string

const (
	CategorySchema    FileCategory = "schema"
	CategoryMigration FileCategory = "migration"
	CategoryModel     FileCategory = "model"
	CategoryRubyOther FileCategory = "ruby_other"
	CategorySQL       FileCategory = "sql"
	CategoryERB       FileCategory = "erb"
	CategoryYAML      FileCategory = "yml"
)

// AllCategories lists every category in classifier precedence order.
var AllCategories = []FileCategory{
	CategorySchema, CategoryMigration, CategoryModel,
	CategoryRubyOther, CategorySQL, CategoryERB, CategoryYAML,
}

// DefaultSkipDirs are pruned entirely during classification: version
// control, dependency vendoring, and transient build/log output.
var DefaultSkipDirs = []string{"vendor", "node_modules", ".git", "tmp", "log"}

// File is one classified file, with its path both absolute and relative
// to the scanned root.
type File struct {
	Path     string
	Rel      string
	Category FileCategory
}

// ClassifyFiles walks root and returns every eligible file with its
// category, in traversal order. Pruned directories are not descended
// into. An unreadable root is the only fatal condition; unreadable
// entries below it are skipped.
func ClassifyFiles(root string, skipDirs []string) ([]File, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s: not a directory", root)
	}
	if len(skipDirs) == 0 {
		skipDirs = DefaultSkipDirs
	}
	skip := make(map[string]bool, len(skipDirs))
	for _, d := range skipDirs {
		skip[d] = true
	}

	var files []File
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			return nil // skip unreadable entries, keep walking
		}
		if d.IsDir() {
			if path != root && skip[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if cat, ok := categorize(rel); ok {
			files = append(files, File{Path: path, Rel: rel, Category: cat})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return files, nil
}

// categorize applies the category precedence: schema filename > migration
// path > model path > extension rules. Files matching nothing are not
// scanned at all.
func categorize(rel string) (FileCategory, bool) {
	ext := strings.ToLower(filepath.Ext(rel))

	if rel == "db/schema.rb" {
		return CategorySchema, true
	}
	if strings.HasPrefix(rel, "db/migrate/") && ext == ".rb" {
		return CategoryMigration, true
	}
	if strings.HasPrefix(rel, "app/models/") && ext == ".rb" {
		return CategoryModel, true
	}

	switch ext {
	case ".rb":
		return CategoryRubyOther, true
	case ".sql":
		return CategorySQL, true
	case ".erb":
		return CategoryERB, true
	case ".yml", ".yaml":
		return CategoryYAML, true
	}
	return "", false
}
