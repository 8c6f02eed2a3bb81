package service

import (
	"fmt"

	"qpgen_backend/internal/model"
)

// 占位题干按认知层级选动词，保持和请求一致的考查意图
var bloomVerbs = map[model.BloomLevel]string{
	model.BloomRemember:   "State",
	model.BloomUnderstand: "Explain",
	model.BloomApply:      "Apply",
	model.BloomAnalyze:    "Analyze",
	model.BloomEvaluate:   "Evaluate",
	model.BloomCreate:     "Design",
}

const fallbackAnswer = "To be authored by the course coordinator before review."

// FallbackQuestions 在后端超时或输出全部不可用时生成占位题。
// 同一请求多次调用结果完全相同，且三条轴的值严格取自请求本身，
// 产出需人工改写后才能进入审批
func FallbackQuestions(req GenerationRequest) []model.Question {
	verb := bloomVerbs[req.BloomLevel]
	if verb == "" {
		verb = "Discuss"
	}

	questions := make([]model.Question, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		var text string
		switch req.QuestionType {
		case model.TypeMCQ:
			text = fmt.Sprintf("%s the key idea of %q: which of the following statements is correct?", verb, req.Section.Title)
		case model.TypeLongAnswer:
			text = fmt.Sprintf("%s in detail the topic %q covered in this unit.", verb, req.Section.Title)
		case model.TypeCaseStudy:
			text = fmt.Sprintf("%s a practical scenario drawing on %q and justify your approach.", verb, req.Section.Title)
		default:
			text = fmt.Sprintf("%s briefly the topic %q.", verb, req.Section.Title)
		}
		if req.Count > 1 {
			text = fmt.Sprintf("%s (variant %d)", text, i+1)
		}

		questions = append(questions, model.Question{
			SectionID:    req.Section.ID,
			Text:         text,
			Answer:       fallbackAnswer,
			Difficulty:   req.Difficulty,
			BloomLevel:   req.BloomLevel,
			QuestionType: req.QuestionType,
			Marks:        req.Marks,
			IsFallback:   true,
		})
	}
	return questions
}
