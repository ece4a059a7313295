package pipeline

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"syllabook/internal"
)

func TestRawCSVRoundTrip(t *testing.T) {
	rows := []internal.RawRow{{
		TextbookTitle:       "物理学の基礎",
		CourseTitle:         "基礎物理 (A)",
		Campus:              "BKC",
		FacultyNames:        []string{"理工学部", "情報理工学部"},
		TagNames:            []string{"faculty-course", "multi-faculty"},
		CourseCode:          "PHY101",
		CourseCategory:      internal.CategoryFacultyCourse,
		Instructors:         []string{"山田 太郎"},
		InstructionLanguage: "日本語",
		Note:                []string{"毎回持参すること", "複数学部向け: 情報理工学部, 理工学部"},
		ISBN:                "9784000000000",
	}}

	path := filepath.Join(t.TempDir(), "raw.csv")
	if err := WriteRawCSV(rows, path); err != nil {
		t.Fatal(err)
	}

	got, err := ReadRawCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("rows=%d", len(got))
	}
	if !reflect.DeepEqual(got[0], rows[0]) {
		t.Fatalf("round trip changed the row:\n%+v\n%+v", got[0], rows[0])
	}
}

func TestReadRawCSVMissingRequiredColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	blob := []byte("textbook_title,course_title\n本,授業\n")
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadRawCSV(path); err == nil {
		t.Fatal("expected error for missing campus column")
	}
}

func TestReadRawCSVHandEnteredSubset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hand.csv")
	blob := []byte("course_title,textbook_title,campus,faculty_names\n基礎物理,物理学の基礎,BKC,\"理工学部,経済学部\"\n")
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		t.Fatal(err)
	}

	rows, err := ReadRawCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows=%d", len(rows))
	}
	row := rows[0]
	if row.CourseTitle != "基礎物理" || row.Campus != "BKC" {
		t.Fatalf("row %+v", row)
	}
	if !reflect.DeepEqual(row.FacultyNames, []string{"理工学部", "経済学部"}) {
		t.Fatalf("faculties %v", row.FacultyNames)
	}
	if row.CourseCategory != "" {
		t.Fatalf("category preset to %q", row.CourseCategory)
	}
}

func TestReadRawCSVBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bom.csv")
	blob := append([]byte("\uFEFF"), []byte("textbook_title,course_title,campus\n本,授業,BKC\n")...)
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		t.Fatal(err)
	}
	rows, err := ReadRawCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	if rows[0].TextbookTitle != "本" {
		t.Fatalf("bom not stripped: %+v", rows[0])
	}
}
