package cleanup

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestCleanRemovesMarkersOnly(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "foo.mp4.part"))
	touch(t, filepath.Join(root, "bar.ytdl"))
	touch(t, filepath.Join(root, "foo.mp4"))
	touch(t, filepath.Join(root, "Room.temp.check.mp4"))

	report, err := Clean(root, false)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if exists(filepath.Join(root, "foo.mp4.part")) || exists(filepath.Join(root, "bar.ytdl")) {
		t.Error("marker files should be removed")
	}
	for _, name := range []string{"foo.mp4", "Room.temp.check.mp4"} {
		if !exists(filepath.Join(root, name)) {
			t.Errorf("finished media %s must be kept", name)
		}
	}
	if len(report.Removed) != 2 || report.Bytes != 8 {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestCleanNestedAndScratch(t *testing.T) {
	root := t.TempDir()
	nested := []string{
		filepath.Join(root, "My List", "01-a.f137.mp4.part-Frag12"),
		filepath.Join(root, "My List", "02-b.temp.mp4"),
		filepath.Join(root, ".ytpull-run-1.paths"),
	}
	for _, p := range nested {
		touch(t, p)
	}
	keep := filepath.Join(root, "My List", "01-a.mp4")
	touch(t, keep)

	report, err := Clean(root, false)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range nested {
		if exists(p) {
			t.Errorf("%s should be removed", p)
		}
	}
	if !exists(keep) {
		t.Error("media in subdirectories must be kept")
	}
	if len(report.Removed) != 3 {
		t.Errorf("expected 3 removals, got %v", report.Removed)
	}
}

func TestCleanDryRun(t *testing.T) {
	root := t.TempDir()
	part := filepath.Join(root, "x.webm.part")
	touch(t, part)
	report, err := Clean(root, true)
	if err != nil {
		t.Fatal(err)
	}
	if !exists(part) {
		t.Error("dry run must not delete")
	}
	if !slices.Equal(report.Removed, []string{part}) {
		t.Errorf("dry run should list the marker, got %v", report.Removed)
	}
}

func TestCleanMissingRoot(t *testing.T) {
	report, err := Clean(filepath.Join(t.TempDir(), "nope"), false)
	if err != nil || len(report.Removed) != 0 {
		t.Errorf("missing root should be a no-op, got %+v %v", report, err)
	}
}

func TestIsMarker(t *testing.T) {
	for name, want := range map[string]bool{
		"a.mp4.part":                 true,
		"a.f251.webm.part-Frag3":     true,
		"a.ytdl":                     true,
		"a.temp.mp4":                 true,
		".ytpull-abc.paths":          true,
		".ytpull-bin":                false,
		"a.mp4":                      false,
		"party.mp3":                  false,
		"a.partial.mp4":              false,
		"a.f137.mp4.part-Frag3.part": true,
		"Room.temp.check.mp4":        false,
		"x.part-Fragment.mp4":        false,
	} {
		if got := IsMarker(name); got != want {
			t.Errorf("IsMarker(%q) = %v, want %v", name, got, want)
		}
	}
}
