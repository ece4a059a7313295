package pipeline

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"syllabook/internal"
	"syllabook/internal/config"
	"syllabook/internal/storage"
	"syllabook/internal/vocab"
)

type ProcessingService struct {
	db    *storage.DB
	cfg   config.Config
	vocab vocab.Vocabulary
}

func NewProcessingService(db *storage.DB, cfg config.Config, v vocab.Vocabulary) *ProcessingService {
	return &ProcessingService{db: db, cfg: cfg, vocab: v}
}

// ScrapeResult is the per-run extraction report. Skipped pages and dropped
// rows are data-quality counts, not failures.
type ScrapeResult struct {
	PagesRead    int
	PagesSkipped int
	Rows         int
	RowsDropped  int
}

// ScrapePending extracts every stored page still in fetched state. Alias and
// faculty-scope annotation runs across the whole batch before anything is
// persisted, since those notes depend on the full row set.
func (s *ProcessingService) ScrapePending(limit int) (ScrapeResult, error) {
	pages, err := s.db.ListPagesByStatus(internal.PageFetched, limit)
	if err != nil {
		return ScrapeResult{}, err
	}

	start := time.Now()
	result := ScrapeResult{}
	type pageRows struct {
		page internal.SyllabusPage
		rows []internal.RawRow
	}
	batch := make([]pageRows, 0, len(pages))

	for _, page := range pages {
		extracted, err := s.scrapePage(page)
		if err != nil {
			return result, err
		}
		result.PagesRead++
		result.RowsDropped += extracted.Dropped
		if extracted.Skipped {
			result.PagesSkipped++
			if err := s.db.UpdatePageStatus(page.ID, internal.PageSkipped); err != nil {
				return result, err
			}
			fmt.Printf("skipped page id=%d file=%s (no course identity)\n", page.ID, page.FileName)
			continue
		}
		batch = append(batch, pageRows{page: page, rows: extracted.Rows})
	}

	var all []*internal.RawRow
	for i := range batch {
		for j := range batch[i].rows {
			all = append(all, &batch[i].rows[j])
		}
	}
	AnnotateAliases(all)
	AnnotateFacultyScope(all)

	for _, entry := range batch {
		if err := s.db.ClearPageRows(entry.page.ID); err != nil {
			return result, err
		}
		if err := s.db.InsertRows(entry.page.ID, entry.rows); err != nil {
			return result, err
		}
		if err := s.db.UpdatePageStatus(entry.page.ID, internal.PageScraped); err != nil {
			return result, err
		}
		result.Rows += len(entry.rows)
	}

	counts := internal.RunCounts{
		PagesRead:    result.PagesRead,
		PagesSkipped: result.PagesSkipped,
		RowsRead:     result.Rows,
	}
	_ = s.db.InsertRun(traceID(), "scrape", counts)
	_ = s.db.SetMetadata("scrape.last_run", time.Now().UTC().Format(time.RFC3339))
	fmt.Printf("scrape done pages=%d skipped=%d rows=%d dropped=%d in %dms\n",
		result.PagesRead, result.PagesSkipped, result.Rows, result.RowsDropped,
		time.Since(start).Milliseconds())

	return result, nil
}

func (s *ProcessingService) scrapePage(page internal.SyllabusPage) (ExtractResult, error) {
	blob, err := os.ReadFile(page.RawRef)
	if err != nil {
		return ExtractResult{}, err
	}
	return s.extractBlob(page.FileName, blob)
}

func (s *ProcessingService) extractBlob(fileName string, blob []byte) (ExtractResult, error) {
	extractor := NewExtractor(s.vocab)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".html", ".htm":
		result, err := extractor.ExtractHTML(strings.NewReader(string(blob)))
		if err != nil {
			// Unparseable markup is lack of data, not a failed run.
			return ExtractResult{Skipped: true}, nil
		}
		return result, nil
	case ".pdf":
		result, err := extractor.ExtractPDF(blob)
		if err != nil {
			return ExtractResult{Skipped: true}, nil
		}
		return result, nil
	default:
		return extractor.ExtractText(string(blob)), nil
	}
}

// ScrapeDir extracts a directory of syllabus files without touching the
// store, for one-shot runs.
func (s *ProcessingService) ScrapeDir(dir string) ([]internal.RawRow, ScrapeResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ScrapeResult{}, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".html", ".htm", ".txt", ".pdf":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	result := ScrapeResult{}
	var rows []internal.RawRow
	for _, name := range names {
		blob, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, result, err
		}
		extracted, err := s.extractBlob(name, blob)
		if err != nil {
			return nil, result, err
		}
		result.PagesRead++
		result.RowsDropped += extracted.Dropped
		if extracted.Skipped {
			result.PagesSkipped++
			fmt.Printf("skipped file %s (no course identity)\n", name)
			continue
		}
		rows = append(rows, extracted.Rows...)
	}

	ptrs := make([]*internal.RawRow, len(rows))
	for i := range rows {
		ptrs[i] = &rows[i]
	}
	AnnotateAliases(ptrs)
	AnnotateFacultyScope(ptrs)

	result.Rows = len(rows)
	return rows, result, nil
}

// PrepareArtifacts runs the normalizer over one run's row set and writes the
// three output artifacts under outDir. The run always completes; counts tell
// the caller what was rejected.
func PrepareArtifacts(v vocab.Vocabulary, rows []internal.RawRow, outDir string, minimalOnly bool) (internal.RunCounts, error) {
	counts := internal.RunCounts{RowsRead: len(rows)}

	kept, rejected := NormalizeRows(v, rows)
	counts.RowsRejected = rejected
	counts.FullRows = len(kept)

	minimal := BuildMinimalTable(kept)
	counts.MinimalRows = len(minimal)

	relations := BuildRelations(kept)
	counts.Courses = len(relations)

	if !minimalOnly {
		if err := ExportFullCSV(kept, filepath.Join(outDir, "textbooks_for_import.csv")); err != nil {
			return counts, err
		}
		if err := ExportRelationsJSON(relations, filepath.Join(outDir, "textbook_relations.json")); err != nil {
			return counts, err
		}
	}
	if err := ExportMinimalCSV(minimal, filepath.Join(outDir, "textbooks_for_import_minimal.csv")); err != nil {
		return counts, err
	}

	return counts, nil
}

func traceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
