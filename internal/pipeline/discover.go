package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Supported image extensions (lowercase, with leading dot).
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".bmp":  true,
}

// WorkItem is one input image. The stem (filename without extension) is the
// join key across normalization, submission, and artifact collection: it
// uniquely determines the item's output artifact group within a run.
type WorkItem struct {
	Path string // Full source path.
	Stem string // Base name without extension.
	Kind string // Lowercase extension without dot (e.g. "png").
}

// Discover lists the input directory (non-recursive), keeps files with
// supported image extensions, and returns them sorted by name for a
// deterministic processing order. An empty directory yields an empty slice;
// a missing or unreadable directory is an error that aborts the run.
func Discover(inputDir string) ([]WorkItem, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("input directory: %w", err)
	}

	var items []WorkItem
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !imageExtensions[ext] {
			continue
		}
		items = append(items, WorkItem{
			Path: filepath.Join(inputDir, name),
			Stem: strings.TrimSuffix(name, filepath.Ext(name)),
			Kind: strings.TrimPrefix(ext, "."),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })
	return items, nil
}
