package util

import (
	"regexp"
	"strings"
)

var (
	reSpaces        = regexp.MustCompile(`[\s\x{00A0}\x{3000}]+`)
	reNameSep       = regexp.MustCompile(`[、,\s\x{3000}]+`)
	reInstructorSep = regexp.MustCompile(`[、,/／]+`)
	// Trailing section marker like "(A)", "（Ｂ２）" appended to course titles.
	reSectionSuffix = regexp.MustCompile(`[\s\x{3000}]*[\(（][A-Za-z0-9Ａ-Ｚａ-ｚ０-９]{1,4}[\)）]$`)
)

// NormalizeSpaces collapses runs of whitespace, NBSP and ideographic spaces
// into single ASCII spaces and trims the result.
func NormalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

// SplitNames splits a faculty/department style list on Japanese or ASCII
// commas and whitespace, dropping empty segments.
func SplitNames(value string) []string {
	return splitOn(reNameSep, value)
}

// SplitInstructors splits an instructor list. Slashes separate co-instructors
// in syllabus pages, so whitespace inside a name is preserved.
func SplitInstructors(value string) []string {
	return splitOn(reInstructorSep, value)
}

// SplitList splits a comma-separated interchange field into its members.
func SplitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitOn(sep *regexp.Regexp, value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	parts := sep.Split(value, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// UniqueInOrder collapses duplicates keeping first-seen order. This is the
// canonical set form multi-value fields are re-serialized from.
func UniqueInOrder(values []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// JoinList serializes a multi-value field back to its comma-joined form.
func JoinList(values []string) string {
	return strings.Join(UniqueInOrder(values), ",")
}

// CanonicalCourseTitle strips a trailing parenthesized section marker so that
// class variants of the same course ("基礎物理 (A)", "基礎物理（Ｂ）") group
// together in the minimal table.
func CanonicalCourseTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	return strings.TrimSpace(reSectionSuffix.ReplaceAllString(title, ""))
}
