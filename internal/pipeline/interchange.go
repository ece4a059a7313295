package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strings"

	"syllabook/internal"
	"syllabook/internal/util"
)

var requiredColumns = []string{"textbook_title", "course_title", "campus"}

// RowToRecord serializes a row in the interchange column order, multi-value
// fields comma-joined from their canonical set form.
func RowToRecord(row *internal.RawRow) []string {
	return []string{
		row.TextbookTitle, row.TextbookTitleReading,
		row.CourseTitle, row.CourseTitleReading,
		row.Campus,
		util.JoinList(row.FacultyNames),
		util.JoinList(row.DepartmentNames),
		util.JoinList(row.TagNames),
		row.CourseCode, string(row.CourseCategory),
		row.AcademicYear, row.Term, row.Schedule, row.Classroom, row.Credits,
		util.JoinList(row.Instructors),
		row.InstructionLanguage, row.NoteText(),
		row.Authors, row.Publisher, row.PublicationYear, row.ISBN,
	}
}

// RowFromRecord reads a row from a CSV record using the file's own header
// layout, so hand-entered files may order or omit optional columns freely.
func RowFromRecord(columns map[string]int, record []string) internal.RawRow {
	get := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	row := internal.RawRow{
		TextbookTitle:        get("textbook_title"),
		TextbookTitleReading: get("textbook_title_reading"),
		CourseTitle:          get("course_title"),
		CourseTitleReading:   get("course_title_reading"),
		Campus:               get("campus"),
		FacultyNames:         util.SplitList(get("faculty_names")),
		DepartmentNames:      util.SplitList(get("department_names")),
		TagNames:             util.SplitList(get("tag_names")),
		CourseCode:           get("course_code"),
		CourseCategory:       internal.CourseCategory(get("course_category")),
		AcademicYear:         get("academic_year"),
		Term:                 get("term"),
		Schedule:             get("schedule"),
		Classroom:            get("classroom"),
		Credits:              get("credits"),
		Instructors:          util.SplitList(get("instructors")),
		InstructionLanguage:  get("instruction_language"),
		Authors:              get("authors"),
		Publisher:            get("publisher"),
		PublicationYear:      get("publication_year"),
		ISBN:                 get("isbn"),
	}
	for _, note := range strings.Split(get("note"), " / ") {
		row.AppendNote(note)
	}
	return row
}

// ReadRawCSV loads an interchange CSV. Missing required columns fail; unknown
// columns are warned about and ignored.
func ReadRawCSV(path string) ([]internal.RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty csv: %s", path)
	}

	columns := map[string]int{}
	for i, name := range records[0] {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF"))] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	known := map[string]struct{}{}
	for _, name := range internal.InterchangeHeader {
		known[name] = struct{}{}
	}
	var unexpected []string
	for name := range columns {
		if _, ok := known[name]; !ok {
			unexpected = append(unexpected, name)
		}
	}
	if len(unexpected) > 0 {
		sort.Strings(unexpected)
		fmt.Printf("[warn] ignoring unknown columns: %s\n", strings.Join(unexpected, ", "))
	}

	rows := make([]internal.RawRow, 0, len(records)-1)
	for _, record := range records[1:] {
		rows = append(rows, RowFromRecord(columns, record))
	}
	return rows, nil
}

// WriteRawCSV writes the interchange CSV the scrape stage hands to prepare.
func WriteRawCSV(rows []internal.RawRow, path string) error {
	records := make([][]string, 0, len(rows))
	for i := range rows {
		records = append(records, RowToRecord(&rows[i]))
	}
	return writeCSV(path, internal.InterchangeHeader, records)
}
