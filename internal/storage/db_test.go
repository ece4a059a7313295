package storage

import (
	"path/filepath"
	"reflect"
	"testing"

	"syllabook/internal"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUpsertPageIsIdempotentOnFileName(t *testing.T) {
	db := openTestDB(t)

	first, err := db.UpsertPage("https://example.ac.jp/1", "phy101.html", "/tmp/phy101.html", "2026-08-29T00:00:00Z", internal.PageFetched)
	if err != nil {
		t.Fatal(err)
	}
	second, err := db.UpsertPage("https://example.ac.jp/1?rev=2", "phy101.html", "/tmp/phy101.html", "2026-08-30T00:00:00Z", internal.PageFetched)
	if err != nil {
		t.Fatal(err)
	}

	if first.ID != second.ID {
		t.Fatalf("ids differ: %d vs %d", first.ID, second.ID)
	}
	if second.SourceURL != "https://example.ac.jp/1?rev=2" {
		t.Fatalf("sourceUrl %q", second.SourceURL)
	}

	pending, err := db.ListPagesByStatus(internal.PageFetched, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending=%d", len(pending))
	}
}

func TestRowsRoundTrip(t *testing.T) {
	db := openTestDB(t)

	page, err := db.UpsertPage("", "phy101.html", "/tmp/phy101.html", "", internal.PageFetched)
	if err != nil {
		t.Fatal(err)
	}

	in := internal.RawRow{
		TextbookTitle:       "物理学の基礎",
		CourseTitle:         "基礎物理 (A)",
		Campus:              "BKC",
		FacultyNames:        []string{"理工学部", "情報理工学部"},
		TagNames:            []string{"faculty-course", "multi-faculty"},
		CourseCode:          "PHY101",
		CourseCategory:      internal.CategoryFacultyCourse,
		Instructors:         []string{"山田 太郎", "佐藤 花子"},
		InstructionLanguage: "日本語",
		Note:                []string{"毎回持参すること"},
		ISBN:                "9784000000000",
	}
	if err := db.InsertRows(page.ID, []internal.RawRow{in}); err != nil {
		t.Fatal(err)
	}

	out, err := db.ListRows()
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("rows=%d", len(out))
	}
	if !reflect.DeepEqual(out[0], in) {
		t.Fatalf("round trip changed the row:\n%+v\n%+v", out[0], in)
	}
}

func TestClearPageRows(t *testing.T) {
	db := openTestDB(t)

	page, err := db.UpsertPage("", "a.html", "/tmp/a.html", "", internal.PageFetched)
	if err != nil {
		t.Fatal(err)
	}
	row := internal.RawRow{TextbookTitle: "本", CourseTitle: "授業", Campus: "BKC"}
	if err := db.InsertRows(page.ID, []internal.RawRow{row, row}); err != nil {
		t.Fatal(err)
	}
	if err := db.ClearPageRows(page.ID); err != nil {
		t.Fatal(err)
	}

	out, err := db.ListRows()
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Fatalf("rows=%d", len(out))
	}
}

func TestMetadata(t *testing.T) {
	db := openTestDB(t)

	got, err := db.GetMetadata("scrape.last_run")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("unexpected value %q", *got)
	}

	if err := db.SetMetadata("scrape.last_run", "2026-08-29T00:00:00Z"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMetadata("scrape.last_run", "2026-08-30T00:00:00Z"); err != nil {
		t.Fatal(err)
	}

	got, err = db.GetMetadata("scrape.last_run")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || *got != "2026-08-30T00:00:00Z" {
		t.Fatalf("value %v", got)
	}
}

func TestInsertRun(t *testing.T) {
	db := openTestDB(t)
	if err := db.InsertRun("abc123", "scrape", internal.RunCounts{PagesRead: 3, RowsRead: 7}); err != nil {
		t.Fatal(err)
	}
}
