package buildpipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"weave/internal/driver"
)

// ResolveInputs expands directories into the documents they contain and
// returns the de-duplicated, sorted list together with a base directory
// suitable for display names and output layout. Explicit files are kept
// whatever their extension.
func ResolveInputs(paths, exts []string) (base string, files []string, err error) {
	if len(paths) == 0 {
		return "", nil, fmt.Errorf("no input paths")
	}
	seen := make(map[string]struct{})
	add := func(p string) {
		p = filepath.Clean(p)
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}
	var dirs []string
	for _, p := range paths {
		info, statErr := os.Stat(p)
		if statErr != nil {
			return "", nil, statErr
		}
		if !info.IsDir() {
			add(p)
			dirs = append(dirs, filepath.Dir(p))
			continue
		}
		docs, listErr := driver.ListDocuments(p, exts)
		if listErr != nil {
			return "", nil, fmt.Errorf("list %s: %w", p, listErr)
		}
		for _, doc := range docs {
			add(doc)
		}
		dirs = append(dirs, p)
	}
	sort.Strings(files)
	return commonDir(dirs), files, nil
}

func commonDir(dirs []string) string {
	if len(dirs) == 0 {
		return ""
	}
	common := filepath.Clean(dirs[0])
	for _, dir := range dirs[1:] {
		dir = filepath.Clean(dir)
		for !within(dir, common) {
			parent := filepath.Dir(common)
			if parent == common {
				return common
			}
			common = parent
		}
	}
	return common
}

func within(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// DisplayPath returns file relative to baseDir with forward slashes, or the
// cleaned path when it lies outside baseDir.
func DisplayPath(file, baseDir string) string {
	path := filepath.Clean(file)
	base := strings.TrimSpace(baseDir)
	if base != "" {
		if rel, err := filepath.Rel(base, path); err == nil && rel != "." && within(path, base) {
			path = rel
		}
	}
	return filepath.ToSlash(path)
}

// DisplayPaths maps DisplayPath over files.
func DisplayPaths(files []string, baseDir string) []string {
	out := make([]string, 0, len(files))
	for _, file := range files {
		out = append(out, DisplayPath(file, baseDir))
	}
	return out
}
