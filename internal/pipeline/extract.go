package pipeline

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	pdf "github.com/ledongthuc/pdf"

	"syllabook/internal"
	"syllabook/internal/util"
	"syllabook/internal/vocab"
)

// Extractor turns one syllabus document at a time into flat RawRow
// observations, one per textbook the document names. The vocabulary is
// read-only; an Extractor is safe to reuse across documents.
type Extractor struct {
	vocab vocab.Vocabulary
}

func NewExtractor(v vocab.Vocabulary) *Extractor {
	return &Extractor{vocab: v}
}

// ExtractResult carries the rows for one document plus what was lost on the
// way: Skipped means no course identity could be located at all, Dropped
// counts rows discarded for missing a required identity field. Neither is an
// error; the run continues.
type ExtractResult struct {
	Rows    []internal.RawRow
	Skipped bool
	Dropped int
}

type courseIdentity struct {
	courseCode          string
	courseTitle         string
	courseTitleReading  string
	academicYear        string
	term                string
	schedule            string
	campus              string
	classroom           string
	credits             string
	instructionLanguage string
	faculties           []string
	departments         []string
	instructors         []string
}

type textbookEntry struct {
	title     string
	reading   string
	authors   string
	publisher string
	year      string
	isbn      string
	note      string
}

var (
	reCampusSection    = regexp.MustCompile(`キャンパス|[Cc]ampus`)
	reClassroomSection = regexp.MustCompile(`授業施設|教室|教場|教室名`)
	reLanguageSection  = regexp.MustCompile(`使用言語|Language of instruction|使用言語等|使用される言語`)
	reTextbookSection  = regexp.MustCompile(`教科書|[Tt]extbook`)
	reCourseIdentifier = regexp.MustCompile(`^([^\s：:]+)[：:](.+)$`)
	reLabelSplit       = regexp.MustCompile(`^([^：:]{1,20})[：:](.*)$`)
)

// metadataLabels maps syllabus field labels (and their common variants) to
// identity fields. Matching is case-insensitive substring, first probe wins.
var metadataLabels = []struct {
	field  string
	probes []string
}{
	{"code", []string{"科目コード", "授業コード", "course code"}},
	{"title_reading", []string{"科目名読み", "科目名ふりがな", "フリガナ"}},
	{"title", []string{"科目名", "授業名", "講義名", "course title", "course name"}},
	{"campus", []string{"キャンパス", "campus"}},
	{"faculties", []string{"開講学部", "学部", "faculty", "faculties"}},
	{"departments", []string{"学科", "専攻", "department"}},
	{"year", []string{"開講年度", "年度", "academic year"}},
	{"term", []string{"学期", "セメスター", "term", "semester"}},
	{"schedule", []string{"曜日時限", "曜時限", "時限", "schedule"}},
	{"classroom", []string{"授業施設", "教室", "教場", "classroom"}},
	{"credits", []string{"単位", "credit"}},
	{"instructors", []string{"担当教員", "担当者", "教員", "instructor"}},
	{"language", []string{"使用言語", "language"}},
}

// ExtractHTML parses one saved syllabus page. A page without a recognizable
// course identity yields Skipped, never an error; only unreadable input fails.
func (e *Extractor) ExtractHTML(r io.Reader) (ExtractResult, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return ExtractResult{}, err
	}

	identity := e.extractIdentityHTML(doc)
	textbooks := extractTextbooksHTML(doc)
	return e.buildRows(identity, textbooks), nil
}

// ExtractText parses a hand-entered plain-text syllabus: "label: value" lines
// for course identity, then textbook lines after a 教科書 heading, fields
// separated by "|" or tabs (title, authors, publisher, isbn, note).
func (e *Extractor) ExtractText(text string) ExtractResult {
	identity := courseIdentity{}
	var textbooks []textbookEntry
	inTextbooks := false

	for _, line := range splitLines(text) {
		if !inTextbooks && reTextbookSection.MatchString(line) && len([]rune(line)) <= 16 {
			inTextbooks = true
			continue
		}
		if m := reLabelSplit.FindStringSubmatch(line); m != nil {
			label := util.NormalizeSpaces(m[1])
			value := util.NormalizeSpaces(m[2])
			if applyLabeled(&identity, label, value) {
				continue
			}
		}
		if inTextbooks {
			if entry := parseTextbookLine(line); entry.title != "" {
				textbooks = append(textbooks, entry)
			}
		}
	}

	return e.buildRows(identity, textbooks)
}

// ExtractPDF feeds the page text of a PDF syllabus handout through the
// plain-text extractor.
func (e *Extractor) ExtractPDF(blob []byte) (ExtractResult, error) {
	r, err := pdf.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		return ExtractResult{}, err
	}

	var text strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pageText, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		text.WriteString(pageText)
		text.WriteString("\n")
	}

	return e.ExtractText(text.String()), nil
}

func (e *Extractor) extractIdentityHTML(doc *goquery.Document) courseIdentity {
	identity := courseIdentity{}

	// Portal layout: a course header table with fixed column positions.
	if table := doc.Find("#table-syllabusitems table.stdlist").First(); table.Length() > 0 {
		rows := table.Find("tr")
		if rows.Length() >= 2 {
			var cells []string
			rows.Eq(1).Find("td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, util.NormalizeSpaces(cell.Text()))
			})
			get := func(i int) string {
				if i < len(cells) {
					return cells[i]
				}
				return ""
			}
			identity.courseCode, identity.courseTitle = parseCourseIdentifier(get(0))
			identity.academicYear = get(1)
			identity.term = get(2)
			identity.schedule = get(3)
			identity.faculties = util.SplitNames(get(4))
			identity.instructors = util.SplitInstructors(get(5))
			identity.credits = get(6)
		}
	}

	// Labeled th/td pairs anywhere fill whatever is still empty.
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("th,td")
		if cells.Length() < 2 {
			return
		}
		label := util.NormalizeSpaces(cells.Eq(0).Text())
		value := util.NormalizeSpaces(cells.Eq(1).Text())
		applyLabeled(&identity, label, value)
	})

	// Section headers outside tables (h3 followed by the value).
	if identity.campus == "" {
		identity.campus = sectionText(doc, reCampusSection)
	}
	if identity.classroom == "" {
		identity.classroom = sectionText(doc, reClassroomSection)
	}
	if identity.instructionLanguage == "" {
		identity.instructionLanguage = sectionText(doc, reLanguageSection)
	}

	return identity
}

// applyLabeled matches a label against the synonym table and fills the target
// field when it is still empty. Reports whether the label was recognized.
func applyLabeled(identity *courseIdentity, label, value string) bool {
	if label == "" || value == "" {
		return false
	}
	lowered := strings.ToLower(label)

	for _, entry := range metadataLabels {
		matched := false
		for _, probe := range entry.probes {
			if strings.Contains(lowered, strings.ToLower(probe)) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}

		switch entry.field {
		case "code":
			setIfEmpty(&identity.courseCode, value)
		case "title":
			if identity.courseTitle == "" {
				code, title := parseCourseIdentifier(value)
				if title != "" {
					setIfEmpty(&identity.courseCode, code)
					identity.courseTitle = title
				} else {
					identity.courseTitle = value
				}
			}
		case "title_reading":
			setIfEmpty(&identity.courseTitleReading, value)
		case "campus":
			setIfEmpty(&identity.campus, value)
		case "faculties":
			if len(identity.faculties) == 0 {
				identity.faculties = util.SplitNames(value)
			}
		case "departments":
			if len(identity.departments) == 0 {
				identity.departments = util.SplitNames(value)
			}
		case "year":
			setIfEmpty(&identity.academicYear, value)
		case "term":
			setIfEmpty(&identity.term, value)
		case "schedule":
			setIfEmpty(&identity.schedule, value)
		case "classroom":
			setIfEmpty(&identity.classroom, value)
		case "credits":
			setIfEmpty(&identity.credits, value)
		case "instructors":
			if len(identity.instructors) == 0 {
				identity.instructors = util.SplitInstructors(value)
			}
		case "language":
			setIfEmpty(&identity.instructionLanguage, value)
		}
		return true
	}
	return false
}

func setIfEmpty(target *string, value string) {
	if *target == "" {
		*target = value
	}
}

// parseCourseIdentifier splits "CODE：TITLE" (fullwidth or ASCII colon), with
// a whitespace fallback for "CODE TITLE". A value with no separator is a bare
// code.
func parseCourseIdentifier(value string) (code, title string) {
	value = strings.TrimSpace(value)
	if m := reCourseIdentifier.FindStringSubmatch(value); m != nil {
		return m[1], strings.TrimSpace(m[2])
	}
	parts := strings.SplitN(value, " ", 2)
	if len(parts) == 2 {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	return value, ""
}

func sectionText(doc *goquery.Document, re *regexp.Regexp) string {
	out := ""
	doc.Find("h3,th").EachWithBreak(func(_ int, header *goquery.Selection) bool {
		if !re.MatchString(util.NormalizeSpaces(header.Text())) {
			return true
		}
		next := header.Next()
		if next.Length() == 0 && goquery.NodeName(header) == "th" {
			next = header.Parent().Find("td").First()
		}
		if text := util.NormalizeSpaces(next.Text()); text != "" {
			out = text
			return false
		}
		return true
	})
	return out
}

func extractTextbooksHTML(doc *goquery.Document) []textbookEntry {
	var section *goquery.Selection
	doc.Find("h3").EachWithBreak(func(_ int, header *goquery.Selection) bool {
		if reTextbookSection.MatchString(header.Text()) {
			section = header
			return false
		}
		return true
	})
	if section == nil {
		return nil
	}

	table := section.NextAllFiltered("table").First()
	if table.Length() == 0 {
		table = section.NextAll().Find("table").First()
	}
	if table.Length() == 0 {
		return nil
	}

	rows := table.Find("tr")
	if rows.Length() == 0 {
		return nil
	}

	var headerMap []string
	hasHeader := rows.First().Find("th").Length() > 0
	dataStart := 0
	if hasHeader {
		rows.First().Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			headerMap = append(headerMap, normalizeTextbookHeader(cell.Text()))
		})
		dataStart = 1
	}

	var out []textbookEntry
	rows.Slice(dataStart, rows.Length()).Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.Find("td,th").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, util.NormalizeSpaces(cell.Text()))
		})
		if len(cells) == 0 {
			return
		}

		entry := textbookEntry{}
		for i, text := range cells {
			key := ""
			if i < len(headerMap) {
				key = headerMap[i]
			}
			if key == "" {
				key = positionalTextbookField(i)
			}
			setTextbookField(&entry, key, text)
		}
		if entry.title != "" {
			out = append(out, entry)
		}
	})
	return out
}

// normalizeTextbookHeader maps a textbook table column header to its field.
// Unrecognized headers yield "", which falls back to positional mapping.
func normalizeTextbookHeader(label string) string {
	value := util.NormalizeSpaces(label)
	if value == "" {
		return ""
	}
	lowered := strings.ToLower(value)
	switch {
	case strings.Contains(value, "読み") || strings.Contains(value, "フリガナ") || strings.Contains(value, "ふりがな"):
		return "reading"
	case strings.Contains(value, "書名") || strings.Contains(value, "タイトル") || strings.Contains(lowered, "name") || strings.Contains(lowered, "title"):
		return "title"
	case strings.Contains(value, "著者") || strings.Contains(value, "編者") || strings.Contains(lowered, "author"):
		return "authors"
	case strings.Contains(value, "出版社") || strings.Contains(lowered, "publisher"):
		return "publisher"
	case strings.Contains(value, "出版年") || strings.Contains(value, "発行年") || strings.Contains(lowered, "year"):
		return "year"
	case strings.Contains(lowered, "isbn"):
		return "isbn"
	case strings.Contains(value, "備考") || strings.Contains(value, "補足") || strings.Contains(value, "メモ") || strings.Contains(value, "使用頻度") || strings.Contains(lowered, "note"):
		return "note"
	default:
		return ""
	}
}

func positionalTextbookField(index int) string {
	switch index {
	case 0:
		return "title"
	case 1:
		return "authors"
	case 2:
		return "publisher"
	case 3:
		return "isbn"
	case 4:
		return "note"
	default:
		return ""
	}
}

func setTextbookField(entry *textbookEntry, key, value string) {
	if value == "" {
		return
	}
	switch key {
	case "title":
		setIfEmpty(&entry.title, value)
	case "reading":
		setIfEmpty(&entry.reading, value)
	case "authors":
		setIfEmpty(&entry.authors, value)
	case "publisher":
		setIfEmpty(&entry.publisher, value)
	case "year":
		setIfEmpty(&entry.year, value)
	case "isbn":
		setIfEmpty(&entry.isbn, value)
	case "note":
		setIfEmpty(&entry.note, value)
	}
}

func parseTextbookLine(line string) textbookEntry {
	line = strings.ReplaceAll(line, "\t", "|")
	parts := strings.Split(line, "|")
	entry := textbookEntry{}
	for i, part := range parts {
		setTextbookField(&entry, positionalTextbookField(i), util.NormalizeSpaces(part))
	}
	return entry
}

// buildRows flattens one document's identity and textbook list into RawRows,
// one per textbook, applying classification. Zero textbooks is not an error,
// just lack of data.
func (e *Extractor) buildRows(identity courseIdentity, textbooks []textbookEntry) ExtractResult {
	if identity.courseTitle == "" && identity.courseCode == "" {
		return ExtractResult{Skipped: true}
	}

	courseTitle := identity.courseTitle
	if courseTitle == "" {
		courseTitle = identity.courseCode
	}

	category := DetermineCategory(e.vocab, identity.faculties, courseTitle, identity.courseCode)
	baseTags := DeriveTags(e.vocab, category, identity.faculties, courseTitle, identity.instructionLanguage)

	result := ExtractResult{}
	for _, textbook := range textbooks {
		row := internal.RawRow{
			TextbookTitle:        textbook.title,
			TextbookTitleReading: textbook.reading,
			CourseTitle:          courseTitle,
			CourseTitleReading:   identity.courseTitleReading,
			Campus:               identity.campus,
			FacultyNames:         util.UniqueInOrder(identity.faculties),
			DepartmentNames:      util.UniqueInOrder(identity.departments),
			TagNames:             baseTags,
			CourseCode:           identity.courseCode,
			CourseCategory:       category,
			AcademicYear:         identity.academicYear,
			Term:                 identity.term,
			Schedule:             identity.schedule,
			Classroom:            identity.classroom,
			Credits:              identity.credits,
			Instructors:          util.UniqueInOrder(identity.instructors),
			InstructionLanguage:  identity.instructionLanguage,
			Authors:              textbook.authors,
			Publisher:            textbook.publisher,
			PublicationYear:      textbook.year,
			ISBN:                 textbook.isbn,
		}
		row.AppendNote(textbook.note)
		if e.vocab.IsInternational(textbook.note) {
			row.TagNames = mergeTag(row.TagNames, internal.TagInternationalStudent)
		}

		if !row.HasRequiredFields() {
			result.Dropped++
			continue
		}
		result.Rows = append(result.Rows, row)
	}
	return result
}

func mergeTag(tags []string, tag string) []string {
	set := map[string]struct{}{tag: {}}
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return sortedTags(set)
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
