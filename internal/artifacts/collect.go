package artifacts

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tessellab/meshpipe/internal/staging"
)

// Copied records one artifact delivered to the pipeline output directory.
type Copied struct {
	Name  string // Output filename (stem.glb or stem_Variant.glb).
	Path  string // Full output path.
	Bytes int64
}

// OutputName returns the deterministic output filename for an artifact of
// the set: "stem.glb" for the primary, "stem_<Variant>.glb" for variants.
func OutputName(stem, suffix string) string {
	if suffix == "" {
		return stem + meshExt
	}
	return stem + "_" + suffix + meshExt
}

// Collect copies every artifact of the set into outputDir under the
// deterministic naming scheme, overwriting leftovers from prior runs. It
// never deletes anything from the service's own output area. Collect is
// idempotent: running it twice leaves outputDir in the same state.
func Collect(set Set, outputDir string) ([]Copied, error) {
	if err := staging.EnsureDir(outputDir); err != nil {
		return nil, err
	}

	var copied []Copied
	for _, a := range set.Artifacts {
		name := OutputName(set.Stem, a.Suffix)
		dst := filepath.Join(outputDir, name)
		if err := staging.CopyFile(a.Path, dst); err != nil {
			return copied, fmt.Errorf("collect %s: %w", name, err)
		}
		var size int64
		if fi, err := os.Stat(dst); err == nil {
			size = fi.Size()
		}
		copied = append(copied, Copied{Name: name, Path: dst, Bytes: size})
	}
	return copied, nil
}
