package grader

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestFindImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.PNG", "a.jpg", "c.Jpeg", "d.bmp", "notes.txt", "e.gif"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := FindImages(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a.jpg", "b.PNG", "c.Jpeg", "d.bmp"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if filepath.Base(got[i]) != want[i] {
			t.Errorf("entry %d: got %s, want %s", i, filepath.Base(got[i]), want[i])
		}
	}

	if _, err := FindImages(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected an error for a missing directory")
	}
}

func TestGradeDir(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), createWorksheet())
	writePNG(t, filepath.Join(dir, "b.PNG"), createWorksheet())
	if err := os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("skip me"), 0o644); err != nil {
		t.Fatal(err)
	}

	g := newTestGrader(&fakeOracle{detections: worksheetDetections})
	summary, err := g.GradeDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("GradeDir: %v", err)
	}

	if summary.Files != 3 || summary.Succeeded != 2 || summary.Failed != 1 {
		t.Errorf("counts: files=%d ok=%d failed=%d, want 3/2/1", summary.Files, summary.Succeeded, summary.Failed)
	}
	if summary.TotalChars != 4 {
		t.Errorf("total chars: got %d, want 4", summary.TotalChars)
	}
	if summary.MeanScore == nil {
		t.Fatal("mean score should be set")
	}
	first := summary.Results[0].Report.OverallScore
	if *summary.MeanScore != *first {
		t.Errorf("identical sheets should average to their own score: %v vs %v", *summary.MeanScore, *first)
	}

	last := summary.Results[2]
	if filepath.Base(last.Path) != "broken.jpg" || last.Succeeded() || last.Error == "" {
		t.Errorf("broken file should be recorded as failed: %+v", last)
	}
}

func TestGradeDir_Empty(t *testing.T) {
	g := newTestGrader(&fakeOracle{})
	summary, err := g.GradeDir(context.Background(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Files != 0 || summary.MeanScore != nil || len(summary.Results) != 0 {
		t.Errorf("got %+v, want an empty summary", summary)
	}
}
