package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"syllabook/internal"
	"syllabook/internal/util"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS pages (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  sourceUrl TEXT,
  fileName TEXT NOT NULL,
  rawRef TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  fetchedAt TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(fileName)
);
CREATE INDEX IF NOT EXISTS idx_pages_status ON pages(status);

CREATE TABLE IF NOT EXISTS rows (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  pageId INTEGER,
  textbook_title TEXT NOT NULL,
  textbook_title_reading TEXT,
  course_title TEXT NOT NULL,
  course_title_reading TEXT,
  campus TEXT NOT NULL,
  faculty_names TEXT,
  department_names TEXT,
  tag_names TEXT,
  course_code TEXT,
  course_category TEXT,
  academic_year TEXT,
  term TEXT,
  schedule TEXT,
  classroom TEXT,
  credits TEXT,
  instructors TEXT,
  instruction_language TEXT,
  note TEXT,
  authors TEXT,
  publisher TEXT,
  publication_year TEXT,
  isbn TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(pageId) REFERENCES pages(id)
);
CREATE INDEX IF NOT EXISTS idx_rows_course ON rows(course_code, campus);
CREATE INDEX IF NOT EXISTS idx_rows_page ON rows(pageId);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  kind TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) UpsertPage(sourceURL, fileName, rawRef, fetchedAt string, status internal.PageStatus) (internal.SyllabusPage, error) {
	_, err := d.conn.Exec(`
INSERT INTO pages (sourceUrl, fileName, rawRef, status, fetchedAt)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(fileName) DO UPDATE SET
  sourceUrl=excluded.sourceUrl,
  rawRef=excluded.rawRef,
  status=excluded.status,
  fetchedAt=excluded.fetchedAt,
  updatedAt=CURRENT_TIMESTAMP
`, sourceURL, fileName, rawRef, string(status), fetchedAt)
	if err != nil {
		return internal.SyllabusPage{}, err
	}

	page, err := d.GetPageByFileName(fileName)
	if err != nil {
		return internal.SyllabusPage{}, err
	}
	if page == nil {
		return internal.SyllabusPage{}, errors.New("failed to upsert page")
	}
	return *page, nil
}

func (d *DB) GetPageByFileName(fileName string) (*internal.SyllabusPage, error) {
	var page internal.SyllabusPage
	var status string
	err := d.conn.QueryRow(`
SELECT id, COALESCE(sourceUrl, ''), fileName, rawRef, status, COALESCE(fetchedAt, '')
FROM pages WHERE fileName = ?
`, fileName).Scan(&page.ID, &page.SourceURL, &page.FileName, &page.RawRef, &status, &page.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	page.Status = internal.PageStatus(status)
	return &page, nil
}

func (d *DB) ListPagesByStatus(status internal.PageStatus, limit int) ([]internal.SyllabusPage, error) {
	rows, err := d.conn.Query(`
SELECT id, COALESCE(sourceUrl, ''), fileName, rawRef, status, COALESCE(fetchedAt, '')
FROM pages WHERE status = ? ORDER BY id ASC LIMIT ?
`, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.SyllabusPage
	for rows.Next() {
		var page internal.SyllabusPage
		var s string
		if err := rows.Scan(&page.ID, &page.SourceURL, &page.FileName, &page.RawRef, &s, &page.FetchedAt); err != nil {
			return nil, err
		}
		page.Status = internal.PageStatus(s)
		out = append(out, page)
	}
	return out, rows.Err()
}

func (d *DB) UpdatePageStatus(pageID int, status internal.PageStatus) error {
	_, err := d.conn.Exec(`UPDATE pages SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, string(status), pageID)
	return err
}

// ClearPageRows removes a page's extracted rows so a re-scrape starts clean.
func (d *DB) ClearPageRows(pageID int) error {
	_, err := d.conn.Exec(`DELETE FROM rows WHERE pageId = ?`, pageID)
	return err
}

func (d *DB) InsertRows(pageID int, rawRows []internal.RawRow) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO rows (
  pageId,
  textbook_title, textbook_title_reading, course_title, course_title_reading,
  campus, faculty_names, department_names, tag_names,
  course_code, course_category,
  academic_year, term, schedule, classroom, credits, instructors,
  instruction_language, note,
  authors, publisher, publication_year, isbn
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range rawRows {
		row := &rawRows[i]
		var page any
		if pageID > 0 {
			page = pageID
		}
		if _, err := stmt.Exec(
			page,
			row.TextbookTitle, row.TextbookTitleReading, row.CourseTitle, row.CourseTitleReading,
			row.Campus, util.JoinList(row.FacultyNames), util.JoinList(row.DepartmentNames), util.JoinList(row.TagNames),
			row.CourseCode, string(row.CourseCategory),
			row.AcademicYear, row.Term, row.Schedule, row.Classroom, row.Credits, util.JoinList(row.Instructors),
			row.InstructionLanguage, row.NoteText(),
			row.Authors, row.Publisher, row.PublicationYear, row.ISBN,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListRows returns every stored raw row in insertion order.
func (d *DB) ListRows() ([]internal.RawRow, error) {
	rows, err := d.conn.Query(`
SELECT
  textbook_title, COALESCE(textbook_title_reading, ''),
  course_title, COALESCE(course_title_reading, ''),
  campus, COALESCE(faculty_names, ''), COALESCE(department_names, ''), COALESCE(tag_names, ''),
  COALESCE(course_code, ''), COALESCE(course_category, ''),
  COALESCE(academic_year, ''), COALESCE(term, ''), COALESCE(schedule, ''), COALESCE(classroom, ''),
  COALESCE(credits, ''), COALESCE(instructors, ''),
  COALESCE(instruction_language, ''), COALESCE(note, ''),
  COALESCE(authors, ''), COALESCE(publisher, ''), COALESCE(publication_year, ''), COALESCE(isbn, '')
FROM rows ORDER BY id ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RawRow
	for rows.Next() {
		var row internal.RawRow
		var faculties, departments, tags, instructors, category, note string
		if err := rows.Scan(
			&row.TextbookTitle, &row.TextbookTitleReading,
			&row.CourseTitle, &row.CourseTitleReading,
			&row.Campus, &faculties, &departments, &tags,
			&row.CourseCode, &category,
			&row.AcademicYear, &row.Term, &row.Schedule, &row.Classroom,
			&row.Credits, &instructors,
			&row.InstructionLanguage, &note,
			&row.Authors, &row.Publisher, &row.PublicationYear, &row.ISBN,
		); err != nil {
			return nil, err
		}
		row.FacultyNames = util.SplitList(faculties)
		row.DepartmentNames = util.SplitList(departments)
		row.TagNames = util.SplitList(tags)
		row.Instructors = util.SplitList(instructors)
		row.CourseCategory = internal.CourseCategory(category)
		for _, n := range strings.Split(note, " / ") {
			row.AppendNote(n)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) InsertRun(traceID, kind string, counts internal.RunCounts) error {
	countsJSON, _ := json.Marshal(counts)
	_, err := d.conn.Exec(`INSERT INTO runs (traceId, kind, countsJson) VALUES (?, ?, ?)`, traceID, kind, string(countsJSON))
	return err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func (d *DB) MustPageByFileName(fileName string) (internal.SyllabusPage, error) {
	page, err := d.GetPageByFileName(fileName)
	if err != nil {
		return internal.SyllabusPage{}, err
	}
	if page == nil {
		return internal.SyllabusPage{}, fmt.Errorf("page not found: fileName=%s", fileName)
	}
	return *page, nil
}
