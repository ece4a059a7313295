package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"syllabook/internal"
	"syllabook/internal/config"
	"syllabook/internal/storage"
	"syllabook/internal/vocab"
)

func TestSmokeHTMLToArtifacts(t *testing.T) {
	tmp := t.TempDir()
	inputDir := filepath.Join(tmp, "html")
	if err := os.MkdirAll(inputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	blob, err := os.ReadFile(filepath.Join("testdata", "sample_syllabus.html"))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(inputDir, "phy101.html"), blob, 0o644); err != nil {
		t.Fatal(err)
	}

	db, err := storage.Open(filepath.Join(tmp, "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	cfg, _ := config.Load()
	proc := NewProcessingService(db, cfg, vocab.Default())

	rows, scrape, err := proc.ScrapeDir(inputDir)
	if err != nil {
		t.Fatal(err)
	}
	if scrape.PagesRead != 1 || scrape.PagesSkipped != 0 {
		t.Fatalf("scrape %+v", scrape)
	}
	if len(rows) != 2 {
		t.Fatalf("rows=%d", len(rows))
	}

	outDir := filepath.Join(tmp, "out")
	counts, err := PrepareArtifacts(vocab.Default(), rows, outDir, false)
	if err != nil {
		t.Fatal(err)
	}
	if counts.FullRows != 2 || counts.RowsRejected != 0 {
		t.Fatalf("counts %+v", counts)
	}
	if counts.Courses != 1 {
		t.Fatalf("courses=%d", counts.Courses)
	}

	for _, name := range []string{
		"textbooks_for_import.csv",
		"textbooks_for_import_minimal.csv",
		"textbook_relations.json",
	} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatal(err)
		}
	}

	relBlob, err := os.ReadFile(filepath.Join(outDir, "textbook_relations.json"))
	if err != nil {
		t.Fatal(err)
	}
	var relations []internal.CourseRelations
	if err := json.Unmarshal(relBlob, &relations); err != nil {
		t.Fatal(err)
	}
	if len(relations) != 1 || relations[0].CourseCode != "PHY101" {
		t.Fatalf("relations %+v", relations)
	}
	if len(relations[0].TextbookTitles) != 2 {
		t.Fatalf("textbooks %v", relations[0].TextbookTitles)
	}
}

func TestScrapePendingPersistsRows(t *testing.T) {
	tmp := t.TempDir()
	blob, err := os.ReadFile(filepath.Join("testdata", "sample_syllabus.html"))
	if err != nil {
		t.Fatal(err)
	}
	rawPath := filepath.Join(tmp, "phy101.html")
	if err := os.WriteFile(rawPath, blob, 0o644); err != nil {
		t.Fatal(err)
	}

	db, err := storage.Open(filepath.Join(tmp, "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, err := db.UpsertPage("https://example.ac.jp/syllabus/phy101", "phy101.html", rawPath, "2026-08-29T00:00:00Z", internal.PageFetched); err != nil {
		t.Fatal(err)
	}

	cfg, _ := config.Load()
	proc := NewProcessingService(db, cfg, vocab.Default())
	result, err := proc.ScrapePending(10)
	if err != nil {
		t.Fatal(err)
	}
	if result.PagesRead != 1 || result.Rows != 2 {
		t.Fatalf("result %+v", result)
	}

	stored, err := db.ListRows()
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored=%d", len(stored))
	}
	if stored[0].CourseCode != "PHY101" {
		t.Fatalf("stored row %+v", stored[0])
	}

	page, err := db.MustPageByFileName("phy101.html")
	if err != nil {
		t.Fatal(err)
	}
	if page.Status != internal.PageScraped {
		t.Fatalf("status %s", page.Status)
	}

	// Re-running finds nothing pending.
	again, err := proc.ScrapePending(10)
	if err != nil {
		t.Fatal(err)
	}
	if again.PagesRead != 0 {
		t.Fatalf("rescrape %+v", again)
	}
}
