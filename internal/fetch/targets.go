package fetch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"
	"unicode"
)

// Target is one syllabus page to download. Code/title/filename, when given,
// drive the stored filename; only the URL is required.
type Target struct {
	URL         string
	CourseCode  string
	CourseTitle string
	FileName    string
}

// LoadTargets reads a target list: a CSV with a `url` column (plus optional
// course_code, course_title, file_name), or a plain text file with one URL
// per line.
func LoadTargets(inputPath string) ([]Target, error) {
	blob, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, err
	}

	var targets []Target
	if strings.EqualFold(path.Ext(inputPath), ".csv") {
		targets, err = parseTargetCSV(blob)
		if err != nil {
			return nil, err
		}
	}
	if targets == nil {
		targets = parseTargetLines(string(blob))
	}

	if len(targets) == 0 {
		return nil, errors.New("no syllabus URLs found in input file")
	}
	return targets, nil
}

func parseTargetCSV(blob []byte) ([]Target, error) {
	reader := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(blob), "\uFEFF")))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	columns := map[string]int{}
	for i, name := range records[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["url"]; !ok {
		// Not a target CSV; let the caller fall back to line parsing.
		return nil, nil
	}

	get := func(record []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	out := make([]Target, 0, len(records)-1)
	for _, record := range records[1:] {
		urlValue := get(record, "url")
		if urlValue == "" {
			// Some hand-maintained sheets put the URL in an unlabeled column.
			for _, cell := range record {
				cell = strings.TrimSpace(cell)
				if strings.HasPrefix(strings.ToLower(cell), "http://") || strings.HasPrefix(strings.ToLower(cell), "https://") {
					urlValue = cell
					break
				}
			}
		}
		if urlValue == "" {
			continue
		}
		out = append(out, Target{
			URL:         urlValue,
			CourseCode:  get(record, "course_code"),
			CourseTitle: get(record, "course_title"),
			FileName:    get(record, "file_name"),
		})
	}
	return out, nil
}

func parseTargetLines(text string) []Target {
	var out []Target
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.EqualFold(line, "url") {
			continue
		}
		out = append(out, Target{URL: line})
	}
	return out
}

// ResolveFileName derives a stable .html filename: explicit name, else
// slugged course code, else slugged title, else the URL's last path segment.
func (t Target) ResolveFileName(index int) string {
	if t.FileName != "" {
		return ensureHTMLExt(t.FileName)
	}
	if t.CourseCode != "" {
		if slug := Slugify(t.CourseCode); slug != "" {
			return ensureHTMLExt(slug)
		}
	}
	if t.CourseTitle != "" {
		if slug := Slugify(t.CourseTitle); slug != "" {
			return ensureHTMLExt(slug)
		}
	}

	if parsed, err := url.Parse(t.URL); err == nil {
		if last := path.Base(parsed.Path); last != "" && last != "/" && last != "." {
			if slug := Slugify(last); slug != "" {
				return ensureHTMLExt(slug)
			}
		}
	}
	return ensureHTMLExt(fmt.Sprintf("page-%d", index))
}

func ensureHTMLExt(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".html") {
		return name
	}
	return name + ".html"
}

// Slugify lowercases and keeps letters and digits, joining runs with "-".
// Non-ASCII letters (course titles are usually Japanese) pass through.
func Slugify(value string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(value) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteRune('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// EnsureUniquePath suffixes -1, -2, ... until the name is free, so two
// courses slugging to the same filename never overwrite each other.
func EnsureUniquePath(fullPath string) string {
	if _, err := os.Stat(fullPath); err != nil {
		return fullPath
	}

	ext := path.Ext(fullPath)
	stem := strings.TrimSuffix(fullPath, ext)
	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, counter, ext)
		if _, err := os.Stat(candidate); err != nil {
			return candidate
		}
	}
}
