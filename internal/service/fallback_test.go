package service

import (
	"reflect"
	"strings"
	"testing"

	"qpgen_backend/internal/model"
)

func TestFallbackQuestionsPreserveRequestAxes(t *testing.T) {
	req := GenerationRequest{
		Section:      model.Section{BaseModel: model.BaseModel{ID: 3}, Title: "Process Scheduling"},
		Difficulty:   model.DifficultyHard,
		BloomLevel:   model.BloomAnalyze,
		QuestionType: model.TypeLongAnswer,
		Marks:        13,
		Count:        1,
	}

	questions := FallbackQuestions(req)
	if len(questions) != 1 {
		t.Fatalf("got %d questions, want 1", len(questions))
	}
	q := questions[0]
	if q.Difficulty != model.DifficultyHard || q.BloomLevel != model.BloomAnalyze || q.QuestionType != model.TypeLongAnswer {
		t.Errorf("axes = (%s, %s, %s), want request values", q.Difficulty, q.BloomLevel, q.QuestionType)
	}
	if q.Marks != 13 {
		t.Errorf("marks = %d, want 13", q.Marks)
	}
	if !q.IsFallback {
		t.Error("fallback question must be flagged")
	}
	if q.SectionID != 3 {
		t.Errorf("section id = %d, want 3", q.SectionID)
	}
	if !strings.HasPrefix(q.Text, "Analyze") {
		t.Errorf("text %q should open with the bloom verb", q.Text)
	}
	if !strings.Contains(q.Text, "Process Scheduling") {
		t.Errorf("text %q should mention the section title", q.Text)
	}
}

func TestFallbackQuestionsDeterministic(t *testing.T) {
	req := GenerationRequest{
		Section:      model.Section{Title: "Transactions"},
		Difficulty:   model.DifficultyMedium,
		BloomLevel:   model.BloomUnderstand,
		QuestionType: model.TypeShortAnswer,
		Marks:        2,
		Count:        3,
	}

	first := FallbackQuestions(req)
	second := FallbackQuestions(req)
	if !reflect.DeepEqual(first, second) {
		t.Error("same request should produce identical fallback questions")
	}
	if len(first) != 3 {
		t.Fatalf("got %d questions, want 3", len(first))
	}

	seen := map[string]bool{}
	for _, q := range first {
		if seen[q.Text] {
			t.Errorf("duplicate variant text %q", q.Text)
		}
		seen[q.Text] = true
	}
}

func TestFallbackQuestionsUnknownBloomVerb(t *testing.T) {
	req := GenerationRequest{
		Section:      model.Section{Title: "Indexing"},
		BloomLevel:   model.BloomLevel("UNKNOWN"),
		QuestionType: model.TypeShortAnswer,
		Count:        1,
	}
	questions := FallbackQuestions(req)
	if !strings.HasPrefix(questions[0].Text, "Discuss") {
		t.Errorf("text %q should fall back to the generic verb", questions[0].Text)
	}
}
