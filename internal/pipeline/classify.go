package pipeline

import (
	"sort"
	"strings"

	"syllabook/internal"
	"syllabook/internal/util"
	"syllabook/internal/vocab"
)

// DetermineCategory decides whether a course is a common/liberal-arts
// offering or a faculty course. First matching rule wins; anything
// unmatched defaults to faculty-course.
func DetermineCategory(v vocab.Vocabulary, facultyNames []string, courseTitle, courseCode string) internal.CourseCategory {
	faculties := util.UniqueInOrder(facultyNames)
	if len(faculties) == 0 {
		return internal.CategoryGeneralEducation
	}

	for _, faculty := range faculties {
		if v.IsGeneralFaculty(faculty) {
			return internal.CategoryGeneralEducation
		}
	}

	// A course offered to three or more faculties is a common offering even
	// when none of the faculty names say so.
	if len(faculties) >= 3 {
		return internal.CategoryGeneralEducation
	}

	if v.IsGeneralTitle(courseTitle) {
		return internal.CategoryGeneralEducation
	}
	if v.IsGeneralCode(courseCode) {
		return internal.CategoryGeneralEducation
	}

	return internal.CategoryFacultyCourse
}

// DeriveTags builds the tag set for a course. The category itself is always
// tagged; multi-faculty is suppressed for general-education courses since a
// common offering is multi-faculty by definition.
func DeriveTags(v vocab.Vocabulary, category internal.CourseCategory, facultyNames []string, courseTitle, instructionLanguage string) []string {
	tags := map[string]struct{}{string(category): {}}

	if len(util.UniqueInOrder(facultyNames)) > 1 && category != internal.CategoryGeneralEducation {
		tags[internal.TagMultiFaculty] = struct{}{}
	}
	if v.IsInternational(courseTitle) {
		tags[internal.TagInternationalStudent] = struct{}{}
	}
	if code := v.LanguageCode(instructionLanguage); code != "" {
		tags["lang:"+code] = struct{}{}
	}

	return sortedTags(tags)
}

// EnrichRow fills in classification outputs the row arrived without and merges
// freshly derived tags into any it already carries. Safe to run on rows the
// extractor classified; every rule is idempotent.
func EnrichRow(v vocab.Vocabulary, row *internal.RawRow) {
	if row.CourseCategory == "" {
		row.CourseCategory = DetermineCategory(v, row.FacultyNames, row.CourseTitle, row.CourseCode)
	}

	tags := map[string]struct{}{}
	for _, t := range row.TagNames {
		if t = strings.TrimSpace(t); t != "" {
			tags[t] = struct{}{}
		}
	}
	for _, t := range DeriveTags(v, row.CourseCategory, row.FacultyNames, row.CourseTitle, row.InstructionLanguage) {
		tags[t] = struct{}{}
	}
	if v.IsInternational(row.NoteText()) {
		tags[internal.TagInternationalStudent] = struct{}{}
	}
	row.TagNames = sortedTags(tags)
}

// AnnotateFacultyScope appends audience notes: which faculties a multi-faculty
// course serves, and that a general-education classification was automatic.
func AnnotateFacultyScope(rows []*internal.RawRow) {
	for _, row := range rows {
		faculties := util.UniqueInOrder(row.FacultyNames)
		if len(faculties) > 1 {
			sorted := append([]string(nil), faculties...)
			sort.Strings(sorted)
			row.AppendNote("複数学部向け: " + strings.Join(sorted, ", "))
		}
		if row.CourseCategory == internal.CategoryGeneralEducation {
			row.AppendNote("教養・共通科目 (自動判定)")
		}
	}
}

// AnnotateAliases finds course codes observed under more than one title within
// a campus and records the other spellings on every affected row. Grouping is
// by CourseKey, so the alias list does not depend on input order.
func AnnotateAliases(rows []*internal.RawRow) {
	titlesByKey := map[internal.CourseKey]map[string]struct{}{}
	for _, row := range rows {
		if strings.TrimSpace(row.CourseCode) == "" {
			continue
		}
		key := row.Key()
		if titlesByKey[key] == nil {
			titlesByKey[key] = map[string]struct{}{}
		}
		titlesByKey[key][strings.TrimSpace(row.CourseTitle)] = struct{}{}
	}

	for _, row := range rows {
		if strings.TrimSpace(row.CourseCode) == "" {
			continue
		}
		titles := titlesByKey[row.Key()]
		if len(titles) <= 1 {
			continue
		}
		others := make([]string, 0, len(titles)-1)
		for title := range titles {
			if title != strings.TrimSpace(row.CourseTitle) {
				others = append(others, title)
			}
		}
		if len(others) == 0 {
			continue
		}
		sort.Strings(others)
		row.AppendNote("別名称: " + strings.Join(others, " / "))
	}
}

func sortedTags(tags map[string]struct{}) []string {
	out := make([]string, 0, len(tags))
	for t := range tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
