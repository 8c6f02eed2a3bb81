package model

import "testing"

func TestNormalizeDifficulty(t *testing.T) {
	cases := []struct {
		in   string
		want Difficulty
		ok   bool
	}{
		{"easy", DifficultyEasy, true},
		{"EASY", DifficultyEasy, true},
		{" Moderate ", DifficultyMedium, true},
		{"intermediate", DifficultyMedium, true},
		{"challenging", DifficultyHard, true},
		{"HIGH", DifficultyHard, true},
		{"impossible", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := NormalizeDifficulty(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("NormalizeDifficulty(%q) = (%q, %v), want (%q, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestNormalizeBloomLevel(t *testing.T) {
	cases := []struct {
		in   string
		want BloomLevel
		ok   bool
	}{
		{"remember", BloomRemember, true},
		{"Remembering", BloomRemember, true},
		{"comprehension", BloomUnderstand, true},
		{"Analyse", BloomAnalyze, true}, // 英式拼写
		{"analysis", BloomAnalyze, true},
		{"synthesis", BloomCreate, true},
		{"EVALUATE", BloomEvaluate, true},
		{"guessing", "", false},
	}
	for _, c := range cases {
		got, ok := NormalizeBloomLevel(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("NormalizeBloomLevel(%q) = (%q, %v), want (%q, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestNormalizeQuestionType(t *testing.T) {
	cases := []struct {
		in   string
		want QuestionType
		ok   bool
	}{
		{"mcq", TypeMCQ, true},
		{"Multiple-Choice", TypeMCQ, true},
		{"multiple_choice", TypeMCQ, true},
		{"short answer", TypeShortAnswer, true},
		{"2 mark", TypeShortAnswer, true},
		{"ESSAY", TypeLongAnswer, true},
		{"13_mark", TypeLongAnswer, true},
		{"Case  Study", TypeCaseStudy, true}, // 多余空白折叠
		{"scenario", TypeCaseStudy, true},
		{"true/false", "", false},
	}
	for _, c := range cases {
		got, ok := NormalizeQuestionType(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("NormalizeQuestionType(%q) = (%q, %v), want (%q, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestNormalizeMarks(t *testing.T) {
	cases := []struct {
		marks int
		qt    QuestionType
		want  int
	}{
		{1, TypeMCQ, 1},
		{2, TypeShortAnswer, 2},
		{13, TypeLongAnswer, 13},
		{15, TypeCaseStudy, 15},
		{5, TypeShortAnswer, 2},  // 集合外回落到题型默认
		{0, TypeLongAnswer, 13},  // 缺省值同样回落
		{-3, TypeCaseStudy, 15},
		{100, TypeMCQ, 1},
	}
	for _, c := range cases {
		if got := NormalizeMarks(c.marks, c.qt); got != c.want {
			t.Errorf("NormalizeMarks(%d, %s) = %d, want %d", c.marks, c.qt, got, c.want)
		}
	}
}

func TestEnumValid(t *testing.T) {
	if !DifficultyEasy.Valid() || !DifficultyHard.Valid() {
		t.Error("canonical difficulties should be valid")
	}
	if Difficulty("easy").Valid() {
		t.Error("lowercase difficulty is not canonical")
	}
	if !BloomCreate.Valid() {
		t.Error("CREATE should be valid")
	}
	if BloomLevel("SYNTHESIS").Valid() {
		t.Error("SYNTHESIS is an alias, not a canonical level")
	}
	if !TypeCaseStudy.Valid() {
		t.Error("CASE_STUDY should be valid")
	}
	if QuestionType("TRUE_FALSE").Valid() {
		t.Error("TRUE_FALSE is not a supported type")
	}
}
