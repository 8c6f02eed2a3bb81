package service

import (
	"errors"
	"testing"

	"qpgen_backend/internal/model"
	"qpgen_backend/internal/util"
)

func evenQuota(n int) model.QuotaConfig {
	return model.QuotaConfig{
		Difficulty:   map[model.Difficulty]int{model.DifficultyEasy: n, model.DifficultyMedium: n},
		BloomLevel:   map[model.BloomLevel]int{model.BloomRemember: n, model.BloomApply: n},
		QuestionType: map[model.QuestionType]int{model.TypeMCQ: n, model.TypeShortAnswer: n},
	}
}

func testSections(n int) []model.Section {
	sections := make([]model.Section, n)
	for i := range sections {
		sections[i] = model.Section{Ord: i, Title: "section", Content: "content"}
	}
	return sections
}

func TestValidateQuota(t *testing.T) {
	cases := []struct {
		name    string
		quota   model.QuotaConfig
		max     int
		wantErr bool
	}{
		{"balanced axes pass", evenQuota(2), 100, false},
		{"no cap when limit is zero", evenQuota(50), 0, false},
		{
			"axis totals differ",
			model.QuotaConfig{
				Difficulty:   map[model.Difficulty]int{model.DifficultyEasy: 3},
				BloomLevel:   map[model.BloomLevel]int{model.BloomRemember: 2},
				QuestionType: map[model.QuestionType]int{model.TypeMCQ: 3},
			},
			100, true,
		},
		{
			"unknown difficulty key",
			model.QuotaConfig{
				Difficulty:   map[model.Difficulty]int{"easy": 1},
				BloomLevel:   map[model.BloomLevel]int{model.BloomRemember: 1},
				QuestionType: map[model.QuestionType]int{model.TypeMCQ: 1},
			},
			100, true,
		},
		{
			"negative count",
			model.QuotaConfig{
				Difficulty:   map[model.Difficulty]int{model.DifficultyEasy: -1},
				BloomLevel:   map[model.BloomLevel]int{model.BloomRemember: -1},
				QuestionType: map[model.QuestionType]int{model.TypeMCQ: -1},
			},
			100, true,
		},
		{"empty quota", model.QuotaConfig{}, 100, true},
		{"exceeds limit", evenQuota(3), 4, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := ValidateQuota(c.quota, c.max)
			if c.wantErr {
				if !errors.Is(err, util.ErrQuotaConfigInvalid) {
					t.Fatalf("want ErrQuotaConfigInvalid, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestPlanRequestsSchedulesFullQuota(t *testing.T) {
	quota := evenQuota(2) // 每轴共4题
	requests, shortfall := PlanRequests(testSections(2), quota, 10)

	if !shortfall.Empty() {
		t.Fatalf("expected no shortfall, got %+v", shortfall)
	}

	scheduled := 0
	byDifficulty := map[model.Difficulty]int{}
	byType := map[model.QuestionType]int{}
	for _, r := range requests {
		scheduled += r.Count
		byDifficulty[r.Difficulty] += r.Count
		byType[r.QuestionType] += r.Count
		if r.Marks != model.MarksForType[r.QuestionType] {
			t.Errorf("request marks %d do not match type %s", r.Marks, r.QuestionType)
		}
	}
	if scheduled != 4 {
		t.Fatalf("scheduled %d questions, want 4", scheduled)
	}
	if byDifficulty[model.DifficultyEasy] != 2 || byDifficulty[model.DifficultyMedium] != 2 {
		t.Errorf("difficulty distribution %v does not match quota", byDifficulty)
	}
	if byType[model.TypeMCQ] != 2 || byType[model.TypeShortAnswer] != 2 {
		t.Errorf("type distribution %v does not match quota", byType)
	}
}

func TestPlanRequestsPairsSlotsInCanonicalOrder(t *testing.T) {
	quota := model.QuotaConfig{
		Difficulty:   map[model.Difficulty]int{model.DifficultyEasy: 1, model.DifficultyHard: 1},
		BloomLevel:   map[model.BloomLevel]int{model.BloomRemember: 1, model.BloomCreate: 1},
		QuestionType: map[model.QuestionType]int{model.TypeMCQ: 1, model.TypeCaseStudy: 1},
	}
	requests, shortfall := PlanRequests(testSections(1), quota, 10)

	if !shortfall.Empty() {
		t.Fatalf("expected no shortfall, got %+v", shortfall)
	}
	if len(requests) != 2 {
		t.Fatalf("got %d requests, want 2", len(requests))
	}
	first, second := requests[0], requests[1]
	if first.Difficulty != model.DifficultyEasy || first.BloomLevel != model.BloomRemember || first.QuestionType != model.TypeMCQ {
		t.Errorf("first request = (%s, %s, %s), want (EASY, REMEMBER, MCQ)", first.Difficulty, first.BloomLevel, first.QuestionType)
	}
	if second.Difficulty != model.DifficultyHard || second.BloomLevel != model.BloomCreate || second.QuestionType != model.TypeCaseStudy {
		t.Errorf("second request = (%s, %s, %s), want (HARD, CREATE, CASE_STUDY)", second.Difficulty, second.BloomLevel, second.QuestionType)
	}
}

func TestPlanRequestsMergesEqualRuns(t *testing.T) {
	quota := model.QuotaConfig{
		Difficulty:   map[model.Difficulty]int{model.DifficultyEasy: 3},
		BloomLevel:   map[model.BloomLevel]int{model.BloomRemember: 3},
		QuestionType: map[model.QuestionType]int{model.TypeMCQ: 3},
	}
	requests, _ := PlanRequests(testSections(1), quota, 3)

	if len(requests) != 1 {
		t.Fatalf("got %d requests, want 1 merged request", len(requests))
	}
	if requests[0].Count != 3 {
		t.Errorf("merged count = %d, want 3", requests[0].Count)
	}
	if requests[0].Marks != 1 {
		t.Errorf("marks = %d, want 1 for MCQ", requests[0].Marks)
	}
}

func TestPlanRequestsBatchCeiling(t *testing.T) {
	quota := evenQuota(2) // 共4题
	requests, shortfall := PlanRequests(testSections(1), quota, 2)

	scheduled := 0
	for _, r := range requests {
		scheduled += r.Count
	}
	if scheduled != 2 {
		t.Fatalf("scheduled %d, want 2 capped by batch size", scheduled)
	}
	if shortfall.Total() != 2 {
		t.Fatalf("shortfall total = %d, want 2", shortfall.Total())
	}
}

func TestPlanRequestsNoSections(t *testing.T) {
	requests, shortfall := PlanRequests(nil, evenQuota(1), 5)
	if len(requests) != 0 {
		t.Fatalf("got %d requests without sections", len(requests))
	}
	if shortfall.Total() != 2 {
		t.Fatalf("shortfall total = %d, want entire quota of 2", shortfall.Total())
	}
}

func TestQuotaShortfallWarning(t *testing.T) {
	s := QuotaShortfall{
		Difficulty:   map[model.Difficulty]int{model.DifficultyEasy: 2},
		BloomLevel:   map[model.BloomLevel]int{model.BloomApply: 1, model.BloomRemember: 1},
		QuestionType: map[model.QuestionType]int{model.TypeMCQ: 2},
	}
	want := "quota shortfall: 2 question(s) not scheduled (difficulty EASY=2; bloom REMEMBER=1,APPLY=1; type MCQ=2)"
	if got := s.Warning(); got != want {
		t.Errorf("Warning() = %q, want %q", got, want)
	}

	if got := (QuotaShortfall{}).Warning(); got != "" {
		t.Errorf("empty shortfall warning = %q, want empty string", got)
	}
}
