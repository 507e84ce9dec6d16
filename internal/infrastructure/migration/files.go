package migration

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	upFilePattern = regexp.MustCompile(`^(\d+)_(\w+)\.up\.sql$`)
	unsafeName    = regexp.MustCompile(`[^a-z0-9]+`)
)

// File is one up/down migration pair
type File struct {
	Version  uint
	Name     string
	UpPath   string
	DownPath string
}

// List returns the migrations in source ordered by version
func List(source fs.FS) ([]File, error) {
	entries, err := fs.ReadDir(source, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	var files []File
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := upFilePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		version, err := strconv.ParseUint(match[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid migration version in %s: %w", entry.Name(), err)
		}
		base := strings.TrimSuffix(entry.Name(), ".up.sql")
		files = append(files, File{
			Version:  uint(version),
			Name:     match[2],
			UpPath:   entry.Name(),
			DownPath: base + ".down.sql",
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	return files, nil
}

// Create writes an empty up/down pair numbered after the highest existing version
func Create(dir, name string) (*File, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	existing, err := List(os.DirFS(dir))
	if err != nil {
		return nil, err
	}
	var version uint = 1
	if n := len(existing); n > 0 {
		version = existing[n-1].Version + 1
	}

	base := fmt.Sprintf("%06d_%s", version, slug)
	f := &File{
		Version:  version,
		Name:     slug,
		UpPath:   filepath.Join(dir, base+".up.sql"),
		DownPath: filepath.Join(dir, base+".down.sql"),
	}

	up := fmt.Sprintf("-- Migration: %s\n\n", slug)
	if err := os.WriteFile(f.UpPath, []byte(up), 0o644); err != nil {
		return nil, fmt.Errorf("failed to create up migration: %w", err)
	}
	down := fmt.Sprintf("-- Migration: %s (rollback)\n\n", slug)
	if err := os.WriteFile(f.DownPath, []byte(down), 0o644); err != nil {
		_ = os.Remove(f.UpPath)
		return nil, fmt.Errorf("failed to create down migration: %w", err)
	}
	return f, nil
}

func sanitizeName(name string) string {
	return strings.Trim(unsafeName.ReplaceAllString(strings.ToLower(name), "_"), "_")
}
