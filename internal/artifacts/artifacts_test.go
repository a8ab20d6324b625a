package artifacts

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
	"time"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(name), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func suffixes(s Set) []string {
	var out []string
	for _, a := range s.Artifacts {
		out = append(out, a.Suffix)
	}
	return out
}

// --- suffixFor ---

func TestSuffixFor(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		stem   string
		suffix string
		ok     bool
	}{
		{"primary plain", "b.glb", "b", "", true},
		{"primary with counter", "b_00003_.glb", "b", "", true},
		{"variant", "b_Textured.glb", "b", "Textured", true},
		{"variant with counter", "b_Textured_00001_.glb", "b", "Textured", true},
		{"whitemesh variant", "model_WhiteMesh_00002_.glb", "model", "WhiteMesh", true},
		{"different stem not matched", "b2.glb", "b", "", false},
		{"longer stem not matched", "bob_Textured.glb", "b", "", false},
		{"stem ending in digits", "cat2.glb", "cat2", "", true},
		{"stem ending in digits variant", "cat2_Refined_00001_.glb", "cat2", "Refined", true},
		{"other item entirely", "a_Textured.glb", "b", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			suffix, ok := suffixFor(tt.file, tt.stem)
			if ok != tt.ok || suffix != tt.suffix {
				t.Errorf("suffixFor(%q, %q) = (%q, %v), want (%q, %v)",
					tt.file, tt.stem, suffix, ok, tt.suffix, tt.ok)
			}
		})
	}
}

// --- Resolve ---

func TestResolve_CollectsVariants(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "model_Textured_00001_.glb")
	touch(t, dir, "model_WhiteMesh_00001_.glb")
	touch(t, dir, "model_Refined_00001_.glb")
	touch(t, dir, "unrelated.glb")
	touch(t, dir, "model.png") // wrong extension

	set, err := Resolve(dir, "model")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	got := suffixes(set)
	sort.Strings(got)
	want := []string{"Refined", "Textured", "WhiteMesh"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("suffixes = %v, want %v", got, want)
	}
}

func TestResolve_NewestCounterWins(t *testing.T) {
	dir := t.TempDir()
	old := touch(t, dir, "b_Textured_00001_.glb")
	newer := touch(t, dir, "b_Textured_00002_.glb")

	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}

	set, err := Resolve(dir, "b")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(set.Artifacts) != 1 {
		t.Fatalf("got %d artifacts, want 1 (deduped per variant)", len(set.Artifacts))
	}
	if set.Artifacts[0].Path != newer {
		t.Errorf("kept %s, want newest %s", set.Artifacts[0].Path, newer)
	}
}

func TestResolve_Recursive(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "3d")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	touch(t, sub, "b_Textured_00001_.glb")

	set, err := Resolve(dir, "b")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(set.Artifacts) != 1 {
		t.Errorf("got %d artifacts, want 1 from subdirectory", len(set.Artifacts))
	}
}

func TestResolve_NothingFound(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "other_Textured.glb")

	_, err := Resolve(dir, "b")
	if !errors.Is(err, ErrNoArtifacts) {
		t.Errorf("expected ErrNoArtifacts, got %v", err)
	}
}

func TestResolve_NoCrossItemLeakage(t *testing.T) {
	// Two items with overlapping variant suffixes but distinct base names:
	// no artifact may cross between them.
	dir := t.TempDir()
	touch(t, dir, "a.glb")
	touch(t, dir, "a_Textured.glb")
	touch(t, dir, "ab.glb")
	touch(t, dir, "ab_Textured.glb")

	setA, err := Resolve(dir, "a")
	if err != nil {
		t.Fatal(err)
	}
	setAB, err := Resolve(dir, "ab")
	if err != nil {
		t.Fatal(err)
	}

	for _, a := range setA.Artifacts {
		if filepath.Base(a.Path) != "a.glb" && filepath.Base(a.Path) != "a_Textured.glb" {
			t.Errorf("stem a picked up %s", a.Path)
		}
	}
	for _, a := range setAB.Artifacts {
		if filepath.Base(a.Path) != "ab.glb" && filepath.Base(a.Path) != "ab_Textured.glb" {
			t.Errorf("stem ab picked up %s", a.Path)
		}
	}
	if len(setA.Artifacts) != 2 || len(setAB.Artifacts) != 2 {
		t.Errorf("set sizes = %d, %d; want 2, 2", len(setA.Artifacts), len(setAB.Artifacts))
	}
}

func TestSet_Primary(t *testing.T) {
	now := time.Now()
	s := Set{Stem: "b", Artifacts: []Artifact{
		{Path: "b.glb", Suffix: "", ModTime: now.Add(-time.Minute)},
		{Path: "b_Textured.glb", Suffix: "Textured", ModTime: now},
	}}
	p, ok := s.Primary()
	if !ok || p.Suffix != "" {
		t.Errorf("Primary = %+v, %v", p, ok)
	}

	// Without an unsuffixed artifact the newest variant stands in.
	s.Artifacts = s.Artifacts[1:]
	p, ok = s.Primary()
	if !ok || p.Suffix != "Textured" {
		t.Errorf("fallback Primary = %+v, %v", p, ok)
	}

	if _, ok := (Set{}).Primary(); ok {
		t.Error("empty set should have no primary")
	}
}

// --- Collect ---

func TestCollect_NamesAndOverwrite(t *testing.T) {
	stage := t.TempDir()
	out := t.TempDir()
	touch(t, stage, "b_00001_.glb")
	touch(t, stage, "b_Textured_00001_.glb")

	set, err := Resolve(stage, "b")
	if err != nil {
		t.Fatal(err)
	}

	copied, err := Collect(set, out)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	var names []string
	for _, c := range copied {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	want := []string{"b.glb", "b_Textured.glb"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("copied = %v, want %v", names, want)
	}
	for _, c := range copied {
		if c.Bytes == 0 {
			t.Errorf("%s: zero bytes recorded", c.Name)
		}
	}
}

func TestCollect_Idempotent(t *testing.T) {
	stage := t.TempDir()
	out := t.TempDir()
	touch(t, stage, "b.glb")
	touch(t, stage, "b_Refined.glb")

	set, err := Resolve(stage, "b")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Collect(set, out); err != nil {
		t.Fatal(err)
	}
	first := dirState(t, out)

	if _, err := Collect(set, out); err != nil {
		t.Fatal(err)
	}
	second := dirState(t, out)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("second Collect changed output dir:\n first: %v\nsecond: %v", first, second)
	}
}

func TestCollect_CreatesOutputDir(t *testing.T) {
	stage := t.TempDir()
	out := filepath.Join(t.TempDir(), "nested", "out")
	touch(t, stage, "b.glb")

	set, err := Resolve(stage, "b")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Collect(set, out); err != nil {
		t.Fatalf("Collect into missing dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "b.glb")); err != nil {
		t.Errorf("b.glb not collected: %v", err)
	}
}

// dirState maps filename → content for every file in dir.
func dirState(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			t.Fatal(err)
		}
		out[e.Name()] = string(b)
	}
	return out
}
