// Package imaging prepares input images for submission: anything larger than
// the service's working bound is scaled down proportionally, anything already
// within bounds is staged byte-for-byte unchanged.
package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	// Decoder registrations for the supported input kinds without encoders.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/tessellab/meshpipe/internal/staging"
)

// MaxSide is the bound on the longest image dimension. Larger inputs are
// scaled so max(width, height) == MaxSide with aspect ratio preserved.
const MaxSide = 1024

// jpegQuality matches the service's expected input quality for re-encoded JPEGs.
const jpegQuality = 95

// ErrDecode marks inputs that are not valid images of a supported kind.
// It is a per-item failure, never fatal to the batch.
var ErrDecode = errors.New("cannot decode image")

// Staged describes a normalized input placed in the service staging area.
type Staged struct {
	Path  string // Full path of the staged file.
	Name  string // Basename within the staging dir; referenced by the job template.
	Scale float64

	OriginalWidth  int
	OriginalHeight int
	Width          int
	Height         int

	Reencoded bool // False when the input was copied unchanged.
}

// Normalize stages srcPath into stageDir under the item's base name.
//
// Inputs already within [MaxSide] are copied unchanged, keeping their
// original extension. Oversize inputs are decoded, scaled so the longest
// side equals MaxSide (never upscaled), and re-encoded: JPEG inputs stay
// JPEG; every other kind is written as PNG, so formats without an encoder
// (webp, bmp) come out with a normalized ".png" extension.
func Normalize(srcPath, stem, stageDir string) (Staged, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return Staged{}, err
	}
	cfg, _, err := image.DecodeConfig(f)
	f.Close()
	if err != nil {
		return Staged{}, fmt.Errorf("%w: %s: %v", ErrDecode, filepath.Base(srcPath), err)
	}

	ext := strings.ToLower(filepath.Ext(srcPath))
	if cfg.Width <= MaxSide && cfg.Height <= MaxSide {
		name := stem + ext
		dst := filepath.Join(stageDir, name)
		if err := staging.CopyFile(srcPath, dst); err != nil {
			return Staged{}, err
		}
		return Staged{
			Path:           dst,
			Name:           name,
			Scale:          1,
			OriginalWidth:  cfg.Width,
			OriginalHeight: cfg.Height,
			Width:          cfg.Width,
			Height:         cfg.Height,
		}, nil
	}

	f, err = os.Open(srcPath)
	if err != nil {
		return Staged{}, err
	}
	src, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return Staged{}, fmt.Errorf("%w: %s: %v", ErrDecode, filepath.Base(srcPath), err)
	}

	scaled, scale := scaleToMax(src, MaxSide)
	name, encode := encoderFor(stem, ext)
	dst := filepath.Join(stageDir, name)

	out, err := os.Create(dst)
	if err != nil {
		return Staged{}, err
	}
	if err := encode(out, scaled); err != nil {
		out.Close()
		os.Remove(dst)
		return Staged{}, fmt.Errorf("encode staged image %s: %w", name, err)
	}
	if err := out.Close(); err != nil {
		return Staged{}, err
	}

	b := scaled.Bounds()
	return Staged{
		Path:           dst,
		Name:           name,
		Scale:          scale,
		OriginalWidth:  cfg.Width,
		OriginalHeight: cfg.Height,
		Width:          b.Dx(),
		Height:         b.Dy(),
		Reencoded:      true,
	}, nil
}

// scaleToMax resizes src so the longest side equals maxSide, preserving
// aspect ratio. CatmullRom gives the best downscale quality of the stdlib
// and x/image interpolators.
func scaleToMax(src image.Image, maxSide int) (image.Image, float64) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	scale := float64(maxSide) / float64(longest)

	nw := int(math.Round(float64(w) * scale))
	nh := int(math.Round(float64(h) * scale))
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst, scale
}

// encoderFor picks the staged filename and encoder for a source extension.
func encoderFor(stem, ext string) (string, func(f *os.File, img image.Image) error) {
	switch ext {
	case ".jpg", ".jpeg":
		return stem + ext, func(f *os.File, img image.Image) error {
			return jpeg.Encode(f, img, &jpeg.Options{Quality: jpegQuality})
		}
	default:
		return stem + ".png", func(f *os.File, img image.Image) error {
			return png.Encode(f, img)
		}
	}
}
