package search

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// These tests exercise FindByPattern against the local filesystem through
// TileDB's VFS (the default config with no configURI resolves to a plain
// local-file VFS), the same code path FindSourceConfigs/FindFootprintSets
// use against a real object store URI in production.

func TestFindSourceConfigsMatchesNestedFiles(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "a.source.yaml"), "name: a\n")
	mustWrite(t, filepath.Join(root, "sub", "b.source.yaml"), "name: b\n")
	mustWrite(t, filepath.Join(root, "sub", "ignore.txt"), "x")

	got, err := FindSourceConfigs(root, "")
	if err != nil {
		t.Fatalf("FindSourceConfigs: %v", err)
	}
	names := baseNames(got)
	sort.Strings(names)
	want := []string{"a.source.yaml", "b.source.yaml"}
	if !equalStrings(names, want) {
		t.Fatalf("got %v, want %v", names, want)
	}
}

func TestFindFootprintSetsIgnoresOtherExtensions(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "buildings.gpkg"), "x")
	mustWrite(t, filepath.Join(root, "notes.txt"), "x")

	got, err := FindFootprintSets(root, "")
	if err != nil {
		t.Fatalf("FindFootprintSets: %v", err)
	}
	names := baseNames(got)
	if !equalStrings(names, []string{"buildings.gpkg"}) {
		t.Fatalf("got %v, want [buildings.gpkg]", names)
	}
}

func mustWrite(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func baseNames(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
