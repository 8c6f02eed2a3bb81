package model

import "strings"

// 试题三条配额轴的规范枚举。生成后端返回的近似值（大小写、别名、
// 下划线等）统一经 Normalize* 查表归一，表外值由调用方决定兜底。

type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type BloomLevel string

const (
	BloomRemember   BloomLevel = "REMEMBER"
	BloomUnderstand BloomLevel = "UNDERSTAND"
	BloomApply      BloomLevel = "APPLY"
	BloomAnalyze    BloomLevel = "ANALYZE"
	BloomEvaluate   BloomLevel = "EVALUATE"
	BloomCreate     BloomLevel = "CREATE"
)

func (b BloomLevel) Valid() bool {
	switch b {
	case BloomRemember, BloomUnderstand, BloomApply, BloomAnalyze, BloomEvaluate, BloomCreate:
		return true
	}
	return false
}

type QuestionType string

const (
	TypeMCQ         QuestionType = "MCQ"
	TypeShortAnswer QuestionType = "SHORT_ANSWER"
	TypeLongAnswer  QuestionType = "LONG_ANSWER"
	TypeCaseStudy   QuestionType = "CASE_STUDY"
)

func (t QuestionType) Valid() bool {
	switch t {
	case TypeMCQ, TypeShortAnswer, TypeLongAnswer, TypeCaseStudy:
		return true
	}
	return false
}

// 无请求上下文时的字段默认值（手工录入路径）
const (
	DefaultDifficulty   = DifficultyMedium
	DefaultBloomLevel   = BloomUnderstand
	DefaultQuestionType = TypeShortAnswer
)

// AllDifficulties 规范顺序，配额规划按此顺序展开
func AllDifficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}
}

func AllBloomLevels() []BloomLevel {
	return []BloomLevel{BloomRemember, BloomUnderstand, BloomApply, BloomAnalyze, BloomEvaluate, BloomCreate}
}

func AllQuestionTypes() []QuestionType {
	return []QuestionType{TypeMCQ, TypeShortAnswer, TypeLongAnswer, TypeCaseStudy}
}

// MarksForType 题型到分值的映射，Part A 2分简答、Part B 13分论述、
// Part C 15分案例的常规卷面结构
var MarksForType = map[QuestionType]int{
	TypeMCQ:         1,
	TypeShortAnswer: 2,
	TypeLongAnswer:  13,
	TypeCaseStudy:   15,
}

var ValidMarks = map[int]bool{1: true, 2: true, 13: true, 15: true}

var difficultyAliases = map[string]Difficulty{
	"easy":         DifficultyEasy,
	"simple":       DifficultyEasy,
	"basic":        DifficultyEasy,
	"beginner":     DifficultyEasy,
	"low":          DifficultyEasy,
	"medium":       DifficultyMedium,
	"moderate":     DifficultyMedium,
	"intermediate": DifficultyMedium,
	"average":      DifficultyMedium,
	"normal":       DifficultyMedium,
	"hard":         DifficultyHard,
	"difficult":    DifficultyHard,
	"advanced":     DifficultyHard,
	"challenging":  DifficultyHard,
	"complex":      DifficultyHard,
	"high":         DifficultyHard,
}

var bloomAliases = map[string]BloomLevel{
	"remember":      BloomRemember,
	"remembering":   BloomRemember,
	"recall":        BloomRemember,
	"knowledge":     BloomRemember,
	"understand":    BloomUnderstand,
	"understanding": BloomUnderstand,
	"comprehend":    BloomUnderstand,
	"comprehension": BloomUnderstand,
	"apply":         BloomApply,
	"applying":      BloomApply,
	"application":   BloomApply,
	"analyze":       BloomAnalyze,
	"analyse":       BloomAnalyze,
	"analyzing":     BloomAnalyze,
	"analysis":      BloomAnalyze,
	"evaluate":      BloomEvaluate,
	"evaluating":    BloomEvaluate,
	"evaluation":    BloomEvaluate,
	"create":        BloomCreate,
	"creating":      BloomCreate,
	"creation":      BloomCreate,
	"synthesis":     BloomCreate,
	"design":        BloomCreate,
}

var questionTypeAliases = map[string]QuestionType{
	"mcq":               TypeMCQ,
	"multiple choice":   TypeMCQ,
	"objective":         TypeMCQ,
	"one mark":          TypeMCQ,
	"short answer":      TypeShortAnswer,
	"short":             TypeShortAnswer,
	"two mark":          TypeShortAnswer,
	"2 mark":            TypeShortAnswer,
	"definition":        TypeShortAnswer,
	"long answer":       TypeLongAnswer,
	"long":              TypeLongAnswer,
	"essay":             TypeLongAnswer,
	"descriptive":       TypeLongAnswer,
	"13 mark":           TypeLongAnswer,
	"case study":        TypeCaseStudy,
	"case":              TypeCaseStudy,
	"scenario":          TypeCaseStudy,
	"application based": TypeCaseStudy,
	"15 mark":           TypeCaseStudy,
}

// normalizeEnumKey 小写、去空白、下划线和连字符折叠为空格
func normalizeEnumKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}

func NormalizeDifficulty(s string) (Difficulty, bool) {
	d, ok := difficultyAliases[normalizeEnumKey(s)]
	return d, ok
}

func NormalizeBloomLevel(s string) (BloomLevel, bool) {
	b, ok := bloomAliases[normalizeEnumKey(s)]
	return b, ok
}

func NormalizeQuestionType(s string) (QuestionType, bool) {
	t, ok := questionTypeAliases[normalizeEnumKey(s)]
	return t, ok
}

// NormalizeMarks 分值吸附到固定集合，集合外回落到题型默认分值
func NormalizeMarks(marks int, qt QuestionType) int {
	if ValidMarks[marks] {
		return marks
	}
	return MarksForType[qt]
}
