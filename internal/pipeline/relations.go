package pipeline

import (
	"sort"
	"strings"

	"syllabook/internal"
	"syllabook/internal/util"
)

// BuildRelations groups the run's rows by CourseKey into the relation graph:
// per course, the sets of faculties, departments and tags, plus a residual
// metadata bag. The result is independent of input row order — rows inside a
// group are folded in a content-sorted order, and set members come out
// sorted.
func BuildRelations(rows []internal.RawRow) []internal.CourseRelations {
	groups := map[internal.CourseKey][]*internal.RawRow{}
	for i := range rows {
		key := rows[i].Key()
		groups[key] = append(groups[key], &rows[i])
	}

	keys := make([]internal.CourseKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Campus != keys[j].Campus {
			return keys[i].Campus < keys[j].Campus
		}
		return keys[i].Identity < keys[j].Identity
	})

	out := make([]internal.CourseRelations, 0, len(keys))
	for _, key := range keys {
		out = append(out, foldGroup(key, groups[key]))
	}
	return out
}

func foldGroup(key internal.CourseKey, members []*internal.RawRow) internal.CourseRelations {
	// Sort members by content, not arrival order, so the fold below is
	// deterministic for any permutation of the input.
	sorted := append([]*internal.RawRow(nil), members...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.TextbookTitle != b.TextbookTitle {
			return a.TextbookTitle < b.TextbookTitle
		}
		if a.CourseTitle != b.CourseTitle {
			return a.CourseTitle < b.CourseTitle
		}
		return a.NoteText() < b.NoteText()
	})

	entry := internal.CourseRelations{Campus: key.Campus}
	titles := map[string]struct{}{}
	textbooks := map[string]struct{}{}
	faculties := map[string]struct{}{}
	departments := map[string]struct{}{}
	tags := map[string]struct{}{}
	var noteLog []string

	appendNote := func(addition string) {
		addition = strings.TrimSpace(addition)
		if addition == "" {
			return
		}
		if strings.Contains(strings.Join(noteLog, " / "), addition) {
			return
		}
		noteLog = append(noteLog, addition)
	}

	for _, row := range sorted {
		titles[row.CourseTitle] = struct{}{}
		textbooks[row.TextbookTitle] = struct{}{}
		addAll(faculties, row.FacultyNames)
		addAll(departments, row.DepartmentNames)
		addAll(tags, row.TagNames)
		for _, note := range row.Note {
			appendNote(note)
		}

		setIfEmpty(&entry.CourseCode, row.CourseCode)
		if entry.CourseCategory == "" {
			entry.CourseCategory = string(row.CourseCategory)
		}
		setIfEmpty(&entry.InstructionLanguage, row.InstructionLanguage)
		setIfEmpty(&entry.Authors, row.Authors)
		setIfEmpty(&entry.Publisher, row.Publisher)
		setIfEmpty(&entry.PublicationYear, row.PublicationYear)
		setIfEmpty(&entry.ISBN, row.ISBN)
	}

	entry.CourseTitles = sortedSet(titles)
	entry.TextbookTitles = sortedSet(textbooks)
	entry.Faculties = sortedSet(faculties)
	entry.Departments = sortedSet(departments)
	entry.Tags = sortedSet(tags)

	// The same underlying course observed under different surface titles gets
	// an alternate-name note recording every spelling seen.
	if len(entry.CourseTitles) > 1 {
		appendNote("別名称: " + strings.Join(entry.CourseTitles, " / "))
	}
	entry.Note = strings.Join(noteLog, " / ")

	return entry
}

func addAll(set map[string]struct{}, values []string) {
	for _, v := range util.UniqueInOrder(values) {
		set[v] = struct{}{}
	}
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
