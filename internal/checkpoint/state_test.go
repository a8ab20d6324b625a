package checkpoint

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracking", "state.json")
	st, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(st.Results) != 0 {
		t.Errorf("expected empty state, got %v", st.Results)
	}
}

func TestSetResultAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tracking", "state.json")
	out := filepath.Join(dir, "a.glb")
	if err := os.WriteFile(out, []byte("mesh"), 0o644); err != nil {
		t.Fatal(err)
	}

	st, err := Load(path, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.SetResult("a", out); err != nil {
		t.Fatalf("SetResult: %v", err)
	}

	st2, err := Load(path, false)
	if err != nil {
		t.Fatal(err)
	}
	if !st2.IsComplete("a") {
		t.Error("a should be complete after reload")
	}
	if st2.IsComplete("b") {
		t.Error("b was never recorded")
	}
}

func TestIsComplete_RequiresOutputFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	out := filepath.Join(dir, "a.glb")
	if err := os.WriteFile(out, []byte("mesh"), 0o644); err != nil {
		t.Fatal(err)
	}

	st, _ := Load(path, false)
	st.SetResult("a", out)
	if !st.IsComplete("a") {
		t.Fatal("complete while file exists")
	}

	os.Remove(out)
	if st.IsComplete("a") {
		t.Error("complete after output file vanished")
	}
}

func TestPrune_DropsStaleEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	kept := filepath.Join(dir, "kept.glb")
	if err := os.WriteFile(kept, []byte("mesh"), 0o644); err != nil {
		t.Fatal(err)
	}

	st, _ := Load(path, false)
	st.SetResult("kept", kept)
	st.SetResult("gone", filepath.Join(dir, "gone.glb"))

	removed, err := st.Prune()
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if got := st.CompletedStems(); !reflect.DeepEqual(got, []string{"kept"}) {
		t.Errorf("stems = %v", got)
	}

	// Prune persisted its change.
	st2, _ := Load(path, false)
	if st2.IsComplete("gone") {
		t.Error("pruned entry survived reload")
	}
}

func TestLoad_ForceStartDiscards(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	out := filepath.Join(dir, "a.glb")
	os.WriteFile(out, []byte("mesh"), 0o644)

	st, _ := Load(path, false)
	st.SetResult("a", out)

	st2, err := Load(path, true)
	if err != nil {
		t.Fatal(err)
	}
	if st2.IsComplete("a") {
		t.Error("force start kept old entries")
	}
}

func TestLoad_CorruptFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{{{ not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	st, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load corrupt: %v", err)
	}
	if len(st.Results) != 0 {
		t.Errorf("expected fresh state, got %v", st.Results)
	}
}
