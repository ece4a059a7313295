// Package vocab holds the classification vocabulary: the curated pattern sets
// the extractor matches course titles, faculty names and language fields
// against. The vocabulary is loaded once at process start and passed into the
// pipeline; it is never mutated afterwards.
package vocab

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Language struct {
	Code     string   `yaml:"code"`
	Keywords []string `yaml:"keywords"`
}

type Vocabulary struct {
	GeneralFacultyKeywords []string   `yaml:"general_faculty_keywords"`
	GeneralTitleKeywords   []string   `yaml:"general_title_keywords"`
	GeneralCodePrefixes    []string   `yaml:"general_code_prefixes"`
	InternationalKeywords  []string   `yaml:"international_keywords"`
	Languages              []Language `yaml:"languages"`
}

// Default is the built-in vocabulary covering the common wording of Japanese
// university syllabus pages.
func Default() Vocabulary {
	return Vocabulary{
		GeneralFacultyKeywords: []string{
			"共通教育", "教養教育", "全学共通", "基盤教育", "汎用教育",
			"General Education", "教養科目", "共通科目",
		},
		GeneralTitleKeywords: []string{
			"教養", "共通科目", "General Education", "Liberal Arts",
		},
		GeneralCodePrefixes: nil,
		InternationalKeywords: []string{
			"留学生", "International Students", "for International Students",
			"Non-Japanese", "外国人",
		},
		Languages: []Language{
			{Code: "english", Keywords: []string{"english", "英語"}},
			{Code: "japanese", Keywords: []string{"japanese", "日本語"}},
			{Code: "chinese", Keywords: []string{"chinese", "中国語"}},
			{Code: "korean", Keywords: []string{"korean", "韓国語"}},
			{Code: "french", Keywords: []string{"french", "フランス語"}},
			{Code: "german", Keywords: []string{"german", "ドイツ語"}},
		},
	}
}

// Load reads a YAML vocabulary file. Sections absent from the file keep their
// built-in defaults, so an override file only needs the lists it changes.
// An empty path returns the defaults.
func Load(path string) (Vocabulary, error) {
	v := Default()
	if strings.TrimSpace(path) == "" {
		return v, nil
	}

	blob, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, err
	}

	var override Vocabulary
	if err := yaml.Unmarshal(blob, &override); err != nil {
		return Vocabulary{}, err
	}

	if len(override.GeneralFacultyKeywords) > 0 {
		v.GeneralFacultyKeywords = override.GeneralFacultyKeywords
	}
	if len(override.GeneralTitleKeywords) > 0 {
		v.GeneralTitleKeywords = override.GeneralTitleKeywords
	}
	if len(override.GeneralCodePrefixes) > 0 {
		v.GeneralCodePrefixes = override.GeneralCodePrefixes
	}
	if len(override.InternationalKeywords) > 0 {
		v.InternationalKeywords = override.InternationalKeywords
	}
	if len(override.Languages) > 0 {
		v.Languages = override.Languages
	}
	return v, nil
}

// IsGeneralFaculty reports whether a faculty name denotes a common or
// liberal-arts offering.
func (v Vocabulary) IsGeneralFaculty(name string) bool {
	return containsAny(name, v.GeneralFacultyKeywords)
}

// IsGeneralTitle reports whether a course title denotes a common offering.
func (v Vocabulary) IsGeneralTitle(title string) bool {
	return containsAny(title, v.GeneralTitleKeywords)
}

// IsGeneralCode reports whether a course code carries a known
// general-education prefix.
func (v Vocabulary) IsGeneralCode(code string) bool {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return false
	}
	for _, prefix := range v.GeneralCodePrefixes {
		prefix = strings.ToLower(strings.TrimSpace(prefix))
		if prefix != "" && strings.HasPrefix(code, prefix) {
			return true
		}
	}
	return false
}

// IsInternational reports whether free text signals an
// international-students audience.
func (v Vocabulary) IsInternational(text string) bool {
	return containsAny(text, v.InternationalKeywords)
}

// LanguageCode maps an instruction-language value to its short code. First
// matching entry wins; unrecognized text yields "".
func (v Vocabulary) LanguageCode(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	for _, lang := range v.Languages {
		for _, kw := range lang.Keywords {
			if strings.Contains(value, strings.ToLower(kw)) {
				return lang.Code
			}
		}
	}
	return ""
}

func containsAny(text string, keywords []string) bool {
	lowered := strings.ToLower(text)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
