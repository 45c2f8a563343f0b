package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSupportedExt(t *testing.T) {
	cases := map[string]bool{
		"notes.txt":  true,
		"paper.pdf":  true,
		"PAPER.PDF":  true,
		"image.png":  false,
		"script.sh":  false,
		"noext":      false,
		"weird.txt.": false,
	}
	for name, want := range cases {
		if got := SupportedExt(name); got != want {
			t.Errorf("SupportedExt(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestLoadTxt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(path, []byte("some content"), 0o644); err != nil {
		t.Fatal(err)
	}

	content, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if content != "some content" {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestLoadUnsupported(t *testing.T) {
	_, err := Load("document.docx")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
