package pipeline

import (
	"strings"

	"syllabook/internal"
	"syllabook/internal/util"
	"syllabook/internal/vocab"
)

// NormalizeRow trims every field and collapses multi-value fields to their
// canonical set form (first-seen order, no duplicates, no empties).
func NormalizeRow(row *internal.RawRow) {
	row.TextbookTitle = strings.TrimSpace(row.TextbookTitle)
	row.TextbookTitleReading = strings.TrimSpace(row.TextbookTitleReading)
	row.CourseTitle = strings.TrimSpace(row.CourseTitle)
	row.CourseTitleReading = strings.TrimSpace(row.CourseTitleReading)
	row.Campus = strings.TrimSpace(row.Campus)
	row.CourseCode = strings.TrimSpace(row.CourseCode)
	row.CourseCategory = internal.CourseCategory(strings.TrimSpace(string(row.CourseCategory)))
	row.AcademicYear = strings.TrimSpace(row.AcademicYear)
	row.Term = strings.TrimSpace(row.Term)
	row.Schedule = strings.TrimSpace(row.Schedule)
	row.Classroom = strings.TrimSpace(row.Classroom)
	row.Credits = strings.TrimSpace(row.Credits)
	row.InstructionLanguage = strings.TrimSpace(row.InstructionLanguage)
	row.Authors = strings.TrimSpace(row.Authors)
	row.Publisher = strings.TrimSpace(row.Publisher)
	row.PublicationYear = strings.TrimSpace(row.PublicationYear)
	row.ISBN = strings.TrimSpace(row.ISBN)

	row.FacultyNames = util.UniqueInOrder(row.FacultyNames)
	row.DepartmentNames = util.UniqueInOrder(row.DepartmentNames)
	row.TagNames = util.UniqueInOrder(row.TagNames)
	row.Instructors = util.UniqueInOrder(row.Instructors)
	row.Note = util.UniqueInOrder(row.Note)
}

// NormalizeRows validates and enriches one run's worth of raw rows. Rows
// missing a required identity field are rejected and counted, never fatal.
// Kept rows get missing classification filled in (hand-entered rows arrive
// unclassified) and the cross-row alias and faculty-scope annotations.
func NormalizeRows(v vocab.Vocabulary, rows []internal.RawRow) (kept []internal.RawRow, rejected int) {
	kept = make([]internal.RawRow, 0, len(rows))
	for i := range rows {
		row := rows[i]
		NormalizeRow(&row)
		if !row.HasRequiredFields() {
			rejected++
			continue
		}
		kept = append(kept, row)
	}

	ptrs := make([]*internal.RawRow, len(kept))
	for i := range kept {
		ptrs[i] = &kept[i]
		EnrichRow(v, ptrs[i])
	}
	AnnotateAliases(ptrs)
	AnnotateFacultyScope(ptrs)

	return kept, rejected
}

// BuildMinimalTable deduplicates rows down to the 4-column review table.
// Section variants of a course ("基礎物理 (A)" / "基礎物理 (B)") group under
// the canonical title; faculty names are unioned across a group. Grouping is
// on title text, not CourseKey, so a coded course with divergent spellings
// stays split here while being one relation-graph entity.
func BuildMinimalTable(rows []internal.RawRow) []internal.MinimalRow {
	type groupKey struct {
		courseTitle   string
		textbookTitle string
		campus        string
	}

	index := map[groupKey]int{}
	out := make([]internal.MinimalRow, 0, len(rows))

	for i := range rows {
		row := &rows[i]
		canonical := util.CanonicalCourseTitle(row.CourseTitle)
		if canonical == "" {
			canonical = row.CourseTitle
		}
		key := groupKey{courseTitle: canonical, textbookTitle: row.TextbookTitle, campus: row.Campus}

		if at, ok := index[key]; ok {
			out[at].FacultyNames = util.UniqueInOrder(append(out[at].FacultyNames, row.FacultyNames...))
			continue
		}
		index[key] = len(out)
		out = append(out, internal.MinimalRow{
			CourseTitle:   canonical,
			TextbookTitle: row.TextbookTitle,
			Campus:        row.Campus,
			FacultyNames:  util.UniqueInOrder(row.FacultyNames),
		})
	}

	return out
}
