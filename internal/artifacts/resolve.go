package artifacts

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// meshExt is the artifact extension the service produces.
const meshExt = ".glb"

// ErrNoArtifacts marks a completed job that left nothing matching its stem
// in the service output area — a contract violation, not an empty success.
var ErrNoArtifacts = errors.New("no artifacts found for job")

// Artifact is one produced file: the primary result (empty Suffix) or a
// named variant.
type Artifact struct {
	Path    string
	Suffix  string // Variant label, "" for the primary artifact.
	ModTime time.Time
}

// Set is the artifact group belonging to one work item. The set may be a
// strict subset of the variants a workflow can produce; that is not an
// error since the service's internal stages vary by workflow version.
type Set struct {
	Stem      string
	Artifacts []Artifact // Sorted: primary first, then variants by label.
}

// Primary returns the primary artifact, falling back to the newest variant
// when the service produced only suffixed outputs.
func (s Set) Primary() (Artifact, bool) {
	if len(s.Artifacts) == 0 {
		return Artifact{}, false
	}
	for _, a := range s.Artifacts {
		if a.Suffix == "" {
			return a, true
		}
	}
	newest := s.Artifacts[0]
	for _, a := range s.Artifacts[1:] {
		if a.ModTime.After(newest.ModTime) {
			newest = a
		}
	}
	return newest, true
}

// Resolve walks the service output directory and returns every mesh file
// belonging to stem. When several files map to the same variant (rolling
// counters from repeated runs), the newest wins. Returns ErrNoArtifacts
// when nothing matches.
func Resolve(outputDir, stem string) (Set, error) {
	bySuffix := make(map[string]Artifact)

	err := filepath.WalkDir(outputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if !strings.EqualFold(filepath.Ext(name), meshExt) {
			return nil
		}
		suffix, ok := suffixFor(name, stem)
		if !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil // File vanished mid-walk; skip it.
		}
		cur, seen := bySuffix[suffix]
		if !seen || info.ModTime().After(cur.ModTime) {
			bySuffix[suffix] = Artifact{Path: path, Suffix: suffix, ModTime: info.ModTime()}
		}
		return nil
	})
	if err != nil {
		return Set{}, fmt.Errorf("scan service output %s: %w", outputDir, err)
	}
	if len(bySuffix) == 0 {
		return Set{}, fmt.Errorf("%w: stem %q in %s", ErrNoArtifacts, stem, outputDir)
	}

	set := Set{Stem: stem}
	for _, a := range bySuffix {
		set.Artifacts = append(set.Artifacts, a)
	}
	sort.Slice(set.Artifacts, func(i, j int) bool {
		return set.Artifacts[i].Suffix < set.Artifacts[j].Suffix
	})
	return set, nil
}

// suffixFor extracts the variant suffix of a filename relative to stem.
// The second return is false when the file does not belong to the stem.
// The stem is matched before counter stripping so stems that themselves end
// in digits ("cat2") are never mangled, and "b2.glb" never matches stem "b".
//
//	b.glb                 → "", true         (primary)
//	b_Textured_00001_.glb → "Textured", true
//	b_00003_.glb          → "", true         (counter only, still primary)
//	b2.glb                → _, false         (different stem)
func suffixFor(name, stem string) (string, bool) {
	base := name[:len(name)-len(filepath.Ext(name))]
	if base == stem {
		return "", true
	}
	if !strings.HasPrefix(base, stem+"_") {
		return "", false
	}
	return stripCounter(strings.TrimPrefix(base, stem+"_")), true
}

// stripCounter removes a trailing rolling counter from a variant label:
// "Textured_00001_" → "Textured", "00003_" → "".
func stripCounter(label string) string {
	label = strings.TrimRight(label, "_")
	for len(label) > 0 && label[len(label)-1] >= '0' && label[len(label)-1] <= '9' {
		label = strings.TrimRight(label, "0123456789")
		label = strings.TrimRight(label, "_")
	}
	return label
}
