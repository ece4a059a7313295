package util

import (
	"reflect"
	"testing"
)

func TestNormalizeSpaces(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "ideographic space", input: "基礎　物理", want: "基礎 物理"},
		{name: "mixed runs", input: "  a \t b c  ", want: "a b c"},
		{name: "empty", input: "   ", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeSpaces(tc.input); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestSplitNames(t *testing.T) {
	got := SplitNames("理工学部、経済学部, 文学部")
	want := []string{"理工学部", "経済学部", "文学部"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestSplitInstructorsKeepsSpacedNames(t *testing.T) {
	got := SplitInstructors("山田 太郎／佐藤 花子")
	want := []string{"山田 太郎", "佐藤 花子"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestUniqueInOrder(t *testing.T) {
	got := UniqueInOrder([]string{"b", "a", " b ", "", "a", "c"})
	want := []string{"b", "a", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestJoinSplitRoundTrip(t *testing.T) {
	joined := JoinList([]string{"理工学部", "経済学部", "理工学部"})
	if joined != "理工学部,経済学部" {
		t.Fatalf("joined %q", joined)
	}
	if got := SplitList(joined); !reflect.DeepEqual(got, []string{"理工学部", "経済学部"}) {
		t.Fatalf("split %v", got)
	}
}

func TestCanonicalCourseTitle(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "ascii section", input: "基礎物理 (A)", want: "基礎物理"},
		{name: "fullwidth section", input: "基礎物理（Ｂ２）", want: "基礎物理"},
		{name: "no section", input: "基礎物理", want: "基礎物理"},
		{name: "inner parens kept", input: "物理 (実験) 入門", want: "物理 (実験) 入門"},
		{name: "long marker kept", input: "物理学 (advanced)", want: "物理学 (advanced)"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanonicalCourseTitle(tc.input); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}
