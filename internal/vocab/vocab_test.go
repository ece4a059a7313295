package vocab

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultMatchers(t *testing.T) {
	v := Default()

	if !v.IsGeneralFaculty("共通教育センター") {
		t.Fatal("共通教育 not recognized")
	}
	if v.IsGeneralFaculty("理工学部") {
		t.Fatal("理工学部 misrecognized as general")
	}
	if !v.IsGeneralTitle("教養ゼミナール") {
		t.Fatal("教養 title not recognized")
	}
	if !v.IsInternational("日本語表現法（留学生対象）") {
		t.Fatal("留学生 not recognized")
	}
}

func TestLanguageCode(t *testing.T) {
	v := Default()
	cases := []struct {
		input string
		want  string
	}{
		{input: "英語", want: "english"},
		{input: "English", want: "english"},
		{input: "日本語および英語", want: "english"},
		{input: "ドイツ語", want: "german"},
		{input: "エスペラント語", want: ""},
		{input: "", want: ""},
	}
	for _, tc := range cases {
		if got := v.LanguageCode(tc.input); got != tc.want {
			t.Fatalf("LanguageCode(%q)=%q want %q", tc.input, got, tc.want)
		}
	}
}

func TestLoadMergesPerSection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.yaml")
	blob := []byte("general_code_prefixes:\n  - \"GE\"\nlanguages:\n  - code: spanish\n    keywords: [\"スペイン語\"]\n")
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		t.Fatal(err)
	}

	v, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if !v.IsGeneralCode("GE101") {
		t.Fatal("override prefix not applied")
	}
	if got := v.LanguageCode("スペイン語"); got != "spanish" {
		t.Fatalf("language override got %q", got)
	}
	// Sections absent from the file keep their defaults.
	if !v.IsGeneralFaculty("教養教育院") {
		t.Fatal("default faculty keywords lost")
	}
	// Languages section was replaced wholesale.
	if got := v.LanguageCode("英語"); got != "" {
		t.Fatalf("replaced languages still match english: %q", got)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	v, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if len(v.GeneralFacultyKeywords) == 0 {
		t.Fatal("defaults missing")
	}
}
