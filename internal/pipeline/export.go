package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"syllabook/internal"
	"syllabook/internal/util"
)

// ExportFullCSV writes artifact 1: the full denormalized import table, one
// row per (course-section, textbook) pair, in first-seen order.
func ExportFullCSV(rows []internal.RawRow, path string) error {
	records := make([][]string, 0, len(rows))
	for i := range rows {
		records = append(records, fullTableRecord(&rows[i]))
	}
	return writeCSV(path, internal.FullTableHeader, records)
}

// ExportMinimalCSV writes artifact 2: the deduplicated 4-column review table.
func ExportMinimalCSV(rows []internal.MinimalRow, path string) error {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.CourseTitle, row.TextbookTitle, row.Campus, util.JoinList(row.FacultyNames),
		})
	}
	return writeCSV(path, internal.MinimalTableHeader, records)
}

// ExportRelationsJSON writes artifact 3: the relation graph, one keyed record
// per course. Japanese text is emitted as-is, not escaped.
func ExportRelationsJSON(relations []internal.CourseRelations, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(relations)
}

// ExportFullXLSX writes artifact 1 as a spreadsheet for manual review.
func ExportFullXLSX(rows []internal.RawRow, path string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for i, h := range internal.FullTableHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i := range rows {
		record := fullTableRecord(&rows[i])
		for col, value := range record {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return f.SaveAs(path)
}

func fullTableRecord(row *internal.RawRow) []string {
	return []string{
		row.TextbookTitle, row.TextbookTitleReading,
		row.CourseTitle, row.CourseTitleReading,
		row.Campus,
		util.JoinList(row.FacultyNames),
		util.JoinList(row.DepartmentNames),
		util.JoinList(row.TagNames),
		row.CourseCode, string(row.CourseCategory),
		row.InstructionLanguage, row.NoteText(),
		row.Authors, row.Publisher, row.PublicationYear, row.ISBN,
	}
}

func writeCSV(path string, header []string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, record := range records {
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
