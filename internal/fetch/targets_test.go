package fetch

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadTargetsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.csv")
	blob := []byte("url,course_code,course_title\nhttps://syllabus.example.ac.jp/view?id=1,PHY101,基礎物理\nhttps://syllabus.example.ac.jp/view?id=2,,\n")
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		t.Fatal(err)
	}

	targets, err := LoadTargets(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 2 {
		t.Fatalf("targets=%d", len(targets))
	}
	if targets[0].CourseCode != "PHY101" {
		t.Fatalf("code %q", targets[0].CourseCode)
	}
}

func TestLoadTargetsPlainLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	blob := []byte("https://syllabus.example.ac.jp/view?id=1\n\nhttps://syllabus.example.ac.jp/view?id=2\n")
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		t.Fatal(err)
	}

	targets, err := LoadTargets(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 2 {
		t.Fatalf("targets=%d", len(targets))
	}
}

func TestLoadTargetsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(path, []byte("\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTargets(path); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestResolveFileName(t *testing.T) {
	cases := []struct {
		name   string
		target Target
		want   string
	}{
		{name: "explicit", target: Target{FileName: "custom.html"}, want: "custom.html"},
		{name: "explicit without ext", target: Target{FileName: "custom"}, want: "custom.html"},
		{name: "course code", target: Target{CourseCode: "PHY 101"}, want: "phy-101.html"},
		{name: "japanese title", target: Target{CourseTitle: "基礎物理 (A)"}, want: "基礎物理-a.html"},
		{name: "url segment", target: Target{URL: "https://example.ac.jp/syllabus/phy101"}, want: "phy101.html"},
		{name: "fallback index", target: Target{URL: "https://example.ac.jp/"}, want: "page-7.html"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.target.ResolveFileName(7); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestEnsureUniquePath(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "phy101.html")
	if got := EnsureUniquePath(first); got != first {
		t.Fatalf("got %q", got)
	}
	if err := os.WriteFile(first, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "phy101-1.html")
	if got := EnsureUniquePath(first); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
