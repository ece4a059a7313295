package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"syllabook/internal"
	"syllabook/internal/archive"
	"syllabook/internal/config"
	"syllabook/internal/fetch"
	"syllabook/internal/pipeline"
	"syllabook/internal/storage"
	"syllabook/internal/vocab"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	vocabulary, err := vocab.Load(cfg.VocabPath)
	must(err)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "CSV or TXT listing syllabus URLs")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		targets, err := fetch.LoadTargets(*input)
		must(err)
		fetcher := fetch.NewFetcher(db, cfg)
		result, err := fetcher.FetchAll(context.Background(), targets)
		must(err)
		fmt.Printf("fetch done targets=%d saved=%d failed=%d\n", result.Fetched, result.Saved, result.Failed)

	case "scrape":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		dir := fs.String("dir", "", "register and scrape a directory of syllabus files")
		batch := fs.Int("batch", 500, "max pages per run")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*dir) != "" {
			must(registerDir(db, *dir))
		}
		processor := pipeline.NewProcessingService(db, cfg, vocabulary)
		_, err := processor.ScrapePending(*batch)
		must(err)

	case "export:raw":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", "", "output CSV path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			*out = filepath.Join(cfg.OutputDir, "textbooks_raw.csv")
		}
		rows, err := db.ListRows()
		must(err)
		if len(rows) == 0 {
			must(fmt.Errorf("no scraped rows to export"))
		}
		must(pipeline.WriteRawCSV(rows, *out))
		fmt.Printf("exported %d raw rows to %s\n", len(rows), *out)

	case "prepare":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "raw CSV path (default: scraped rows from the store)")
		outDir := fs.String("out-dir", "", "artifact output directory")
		minimalOnly := fs.Bool("minimal-only", false, "write only the minimal CSV")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*outDir) == "" {
			*outDir = filepath.Join(cfg.OutputDir, "processed")
		}

		var rows []internal.RawRow
		if strings.TrimSpace(*input) != "" {
			rows, err = pipeline.ReadRawCSV(*input)
		} else {
			rows, err = db.ListRows()
		}
		must(err)

		counts, err := pipeline.PrepareArtifacts(vocabulary, rows, *outDir, *minimalOnly)
		must(err)
		_ = db.InsertRun(fmt.Sprintf("prepare-%d", time.Now().UnixNano()), "prepare", counts)
		fmt.Printf("prepare done rows=%d rejected=%d full=%d minimal=%d courses=%d out=%s\n",
			counts.RowsRead, counts.RowsRejected, counts.FullRows, counts.MinimalRows, counts.Courses, *outDir)

	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			*out = filepath.Join(cfg.OutputDir, "textbooks_for_import.xlsx")
		}
		rows, err := db.ListRows()
		must(err)
		kept, rejected := pipeline.NormalizeRows(vocabulary, rows)
		must(pipeline.ExportFullXLSX(kept, *out))
		fmt.Printf("exported %d rows (%d rejected) to %s\n", len(kept), rejected, *out)

	case "html:stats":
		stats, err := archive.CollectStats(cfg.RawHTMLDir)
		must(err)
		if stats.Files == 0 {
			fmt.Printf("no HTML files found in %s\n", cfg.RawHTMLDir)
			return
		}
		fmt.Printf("directory: %s\n", cfg.RawHTMLDir)
		fmt.Printf("files: %d\n", stats.Files)
		fmt.Printf("total size: %s\n", archive.HumanSize(stats.TotalBytes))
		fmt.Printf("oldest: %s %s\n", stats.Oldest.Format("2006-01-02 15:04:05"), stats.OldestName)
		fmt.Printf("newest: %s %s\n", stats.Newest.Format("2006-01-02 15:04:05"), stats.NewestName)

	case "html:archive":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		keepLatest := fs.Int("keep-latest", cfg.ArchiveKeepLatest, "newest files to keep unarchived")
		deleteAfter := fs.Bool("delete-after", false, "delete originals after archiving")
		dryRun := fs.Bool("dry-run", false, "preview without writing or deleting")
		_ = fs.Parse(os.Args[2:])
		result, err := archive.Archive(cfg.RawHTMLDir, cfg.ArchiveDir, archive.Options{
			KeepLatest:  *keepLatest,
			DeleteAfter: *deleteAfter,
			DryRun:      *dryRun,
		})
		must(err)
		if result.Archived == 0 {
			fmt.Println("nothing to archive")
			return
		}
		if *dryRun {
			fmt.Printf("dry run: would archive %d file(s), keep %d\n", result.Archived, result.Kept)
			return
		}
		fmt.Printf("archived %d file(s) to %s (kept %d)\n", result.Archived, result.ArchivePath, result.Kept)

	case "run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		inputDir := fs.String("input-dir", cfg.RawHTMLDir, "directory of syllabus files")
		outDir := fs.String("out-dir", "", "artifact output directory")
		minimalOnly := fs.Bool("minimal-only", false, "write only the minimal CSV")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*outDir) == "" {
			*outDir = filepath.Join(cfg.OutputDir, "processed")
		}

		processor := pipeline.NewProcessingService(db, cfg, vocabulary)
		rows, scrape, err := processor.ScrapeDir(*inputDir)
		must(err)
		counts, err := pipeline.PrepareArtifacts(vocabulary, rows, *outDir, *minimalOnly)
		must(err)
		fmt.Printf("run done pages=%d skipped=%d rows=%d rejected=%d full=%d minimal=%d courses=%d out=%s\n",
			scrape.PagesRead, scrape.PagesSkipped, counts.RowsRead, counts.RowsRejected,
			counts.FullRows, counts.MinimalRows, counts.Courses, *outDir)

	default:
		usage()
		os.Exit(1)
	}
}

func registerDir(db *storage.DB, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".html", ".htm", ".txt", ".pdf":
			if _, err := db.UpsertPage("", entry.Name(), filepath.Join(dir, entry.Name()), now, internal.PageFetched); err != nil {
				return err
			}
		}
	}
	return nil
}

func usage() {
	fmt.Println("usage: syllabook <command>")
	fmt.Println("commands:")
	fmt.Println("  fetch --input=urls.csv")
	fmt.Println("  scrape [--dir=./raw/html] [--batch=500]")
	fmt.Println("  export:raw [--out=./out/textbooks_raw.csv]")
	fmt.Println("  prepare [--input=textbooks_raw.csv] [--out-dir=./out/processed] [--minimal-only]")
	fmt.Println("  export:xlsx [--out=./out/textbooks_for_import.xlsx]")
	fmt.Println("  html:stats")
	fmt.Println("  html:archive [--keep-latest=100] [--delete-after] [--dry-run]")
	fmt.Println("  run [--input-dir=./raw/html] [--out-dir=./out/processed] [--minimal-only]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
