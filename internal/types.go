package internal

import "strings"

type CourseCategory string

const (
	CategoryGeneralEducation CourseCategory = "general-education"
	CategoryFacultyCourse    CourseCategory = "faculty-course"
)

const (
	TagMultiFaculty         = "multi-faculty"
	TagInternationalStudent = "international-student"
)

// PageStatus tracks a stored syllabus snapshot through the pipeline.
type PageStatus string

const (
	PageFetched PageStatus = "fetched"
	PageScraped PageStatus = "scraped"
	PageSkipped PageStatus = "skipped"
)

// RawRow is one (course, textbook) observation, the interchange unit between
// the extractor and the normalizer. Multi-value fields hold the split form;
// they are comma-joined only at serialization time. Note is an append-only
// annotation log, joined with " / " on output.
type RawRow struct {
	TextbookTitle        string
	TextbookTitleReading string
	CourseTitle          string
	CourseTitleReading   string
	Campus               string
	FacultyNames         []string
	DepartmentNames      []string
	TagNames             []string
	CourseCode           string
	CourseCategory       CourseCategory
	AcademicYear         string
	Term                 string
	Schedule             string
	Classroom            string
	Credits              string
	Instructors          []string
	InstructionLanguage  string
	Note                 []string
	Authors              string
	Publisher            string
	PublicationYear      string
	ISBN                 string
}

// InterchangeHeader is the raw CSV contract between the scrape and prepare
// stages. Column names and order are stable.
var InterchangeHeader = []string{
	"textbook_title", "textbook_title_reading",
	"course_title", "course_title_reading",
	"campus", "faculty_names", "department_names", "tag_names",
	"course_code", "course_category",
	"academic_year", "term", "schedule", "classroom", "credits", "instructors",
	"instruction_language", "note",
	"authors", "publisher", "publication_year", "isbn",
}

// FullTableHeader is the column set of the full import artifact. Scheduling
// columns are dropped; readings are retained for display.
var FullTableHeader = []string{
	"textbook_title", "textbook_title_reading",
	"course_title", "course_title_reading",
	"campus", "faculty_names", "department_names", "tag_names",
	"course_code", "course_category", "instruction_language", "note",
	"authors", "publisher", "publication_year", "isbn",
}

// MinimalTableHeader is the column set of the deduplicated review artifact.
var MinimalTableHeader = []string{"course_title", "textbook_title", "campus", "faculty_names"}

// NoteText joins the annotation log into its serialized form.
func (r *RawRow) NoteText() string {
	return strings.Join(r.Note, " / ")
}

// AppendNote adds an annotation unless it is empty or already recorded.
func (r *RawRow) AppendNote(addition string) {
	addition = strings.TrimSpace(addition)
	if addition == "" {
		return
	}
	if strings.Contains(r.NoteText(), addition) {
		return
	}
	r.Note = append(r.Note, addition)
}

// HasRequiredFields reports whether the row carries the three identity fields
// every downstream consumer depends on.
func (r *RawRow) HasRequiredFields() bool {
	return strings.TrimSpace(r.CourseTitle) != "" &&
		strings.TrimSpace(r.Campus) != "" &&
		strings.TrimSpace(r.TextbookTitle) != ""
}

// CourseKey identifies a course section: a stable code when present, else the
// normalized title, always scoped to a campus.
type CourseKey struct {
	Identity string
	Campus   string
}

// Key derives the CourseKey for a row.
func (r *RawRow) Key() CourseKey {
	identity := strings.TrimSpace(r.CourseCode)
	if identity == "" {
		identity = strings.TrimSpace(r.CourseTitle)
	}
	return CourseKey{Identity: identity, Campus: strings.TrimSpace(r.Campus)}
}

// SyllabusPage is one stored syllabus snapshot (fetched HTML or a dropped-in
// file) awaiting extraction.
type SyllabusPage struct {
	ID        int
	SourceURL string
	FileName  string
	RawRef    string
	Status    PageStatus
	FetchedAt string
}

// MinimalRow is one deduplicated entry of the minimal import table.
type MinimalRow struct {
	CourseTitle   string
	TextbookTitle string
	Campus        string
	FacultyNames  []string
}

// CourseRelations is one node of the relation graph: everything observed for a
// single CourseKey across the run.
type CourseRelations struct {
	CourseCode     string   `json:"course_code"`
	Campus         string   `json:"campus"`
	CourseTitles   []string `json:"course_titles"`
	TextbookTitles []string `json:"textbook_titles"`
	Faculties      []string `json:"faculties"`
	Departments    []string `json:"departments"`
	Tags           []string `json:"tags"`

	CourseCategory      string `json:"course_category"`
	InstructionLanguage string `json:"instruction_language"`
	Note                string `json:"note"`
	Authors             string `json:"authors"`
	Publisher           string `json:"publisher"`
	PublicationYear     string `json:"publication_year"`
	ISBN                string `json:"isbn"`
}

// RunCounts is the per-run data-quality report. Runs always complete; these
// counts are how a human finds out what was dropped along the way.
type RunCounts struct {
	PagesRead    int
	PagesSkipped int
	RowsRead     int
	RowsRejected int
	FullRows     int
	MinimalRows  int
	Courses      int
}
