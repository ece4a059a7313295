// Package archive manages the local syllabus HTML snapshot directory: usage
// stats and zip compaction of old snapshots.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

type snapshot struct {
	path    string
	modTime time.Time
	size    int64
}

type Stats struct {
	Files      int
	TotalBytes int64
	Oldest     time.Time
	OldestName string
	Newest     time.Time
	NewestName string
}

// CollectStats reports how many HTML snapshots are stored and their spread.
// A missing or empty directory yields zero files, not an error.
func CollectStats(dir string) (Stats, error) {
	files, err := gatherSnapshots(dir)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Files: len(files)}
	for _, f := range files {
		stats.TotalBytes += f.size
	}
	if len(files) > 0 {
		stats.Oldest = files[0].modTime
		stats.OldestName = filepath.Base(files[0].path)
		stats.Newest = files[len(files)-1].modTime
		stats.NewestName = filepath.Base(files[len(files)-1].path)
	}
	return stats, nil
}

type Options struct {
	KeepLatest  int
	DeleteAfter bool
	DryRun      bool
}

type Result struct {
	Archived    int
	Kept        int
	ArchivePath string
}

// Archive zips every snapshot except the newest KeepLatest into a timestamped
// archive under archiveDir, optionally deleting the originals afterwards.
func Archive(dir, archiveDir string, opts Options) (Result, error) {
	if opts.KeepLatest < 0 {
		return Result{}, errors.New("keep-latest must be zero or positive")
	}

	files, err := gatherSnapshots(dir)
	if err != nil {
		return Result{}, err
	}
	if len(files) == 0 || opts.KeepLatest >= len(files) {
		return Result{Kept: len(files)}, nil
	}

	candidates := files[:len(files)-opts.KeepLatest]
	result := Result{Archived: len(candidates), Kept: opts.KeepLatest}
	if opts.DryRun {
		return result, nil
	}

	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return Result{}, err
	}
	result.ArchivePath = filepath.Join(archiveDir,
		fmt.Sprintf("syllabus-html-%s.zip", time.Now().Format("20060102-150405")))

	if err := writeZip(result.ArchivePath, dir, candidates); err != nil {
		return Result{}, err
	}

	if opts.DeleteAfter {
		for _, f := range candidates {
			if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
				return result, err
			}
		}
	}
	return result, nil
}

func writeZip(archivePath, baseDir string, files []snapshot) error {
	out, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, f := range files {
		rel, err := filepath.Rel(baseDir, f.path)
		if err != nil {
			rel = filepath.Base(f.path)
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		src, err := os.Open(f.path)
		if err != nil {
			return err
		}
		_, err = io.Copy(w, src)
		_ = src.Close()
		if err != nil {
			return err
		}
	}
	return zw.Close()
}

func gatherSnapshots(dir string) ([]snapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []snapshot
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".html") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, snapshot{
			path:    filepath.Join(dir, entry.Name()),
			modTime: info.ModTime(),
			size:    info.Size(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].modTime.Before(out[j].modTime) })
	return out, nil
}

// HumanSize renders a byte count the way the stats report prints it.
func HumanSize(numBytes int64) string {
	value := float64(numBytes)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if value < 1024 {
			return fmt.Sprintf("%.1f%s", value, unit)
		}
		value /= 1024
	}
	return fmt.Sprintf("%.1fTB", value)
}
