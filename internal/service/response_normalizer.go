package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"qpgen_backend/internal/model"
	"qpgen_backend/internal/util"
)

// rawGeneratedQuestion 按提示词约定的字段接收模型输出，
// marks 用 interface{} 兼容数字和字符串两种写法
type rawGeneratedQuestion struct {
	Question     string      `json:"question"`
	Answer       string      `json:"answer"`
	Difficulty   string      `json:"difficulty"`
	BloomLevel   string      `json:"bloom_level"`
	QuestionType string      `json:"question_type"`
	Marks        interface{} `json:"marks"`
}

func (q rawGeneratedQuestion) marksInt() int {
	switch v := q.Marks.(type) {
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	}
	return 0
}

// extractJSONArray 从模型回复里抠出 JSON 数组。
// 模型经常包一层 ``` 围栏或附带说明文字，直接按中括号定位；
// 只回了单个对象时包成长度为一的数组
func extractJSONArray(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start >= 0 && end > start {
		return s[start : end+1], true
	}

	objStart := strings.Index(s, "{")
	objEnd := strings.LastIndex(s, "}")
	if objStart >= 0 && objEnd > objStart {
		return "[" + s[objStart:objEnd+1] + "]", true
	}
	return "", false
}

// NormalizeResponse 把一次生成调用的原始输出转成题目实体。
// 缺题干或缺答案的条目直接丢弃并计数，不做填充；
// 三条轴的值经别名表归一，不认识的值回落到请求里的值；
// 超出请求数量的多余条目截断。整段输出都不可用时返回错误
func NormalizeResponse(raw string, req GenerationRequest) ([]model.Question, int, error) {
	payload, ok := extractJSONArray(raw)
	if !ok {
		return nil, 0, fmt.Errorf("%w: no JSON array in output", util.ErrMalformedOutput)
	}

	var entries []rawGeneratedQuestion
	if err := json.Unmarshal([]byte(payload), &entries); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", util.ErrMalformedOutput, err)
	}

	discarded := 0
	questions := make([]model.Question, 0, len(entries))
	for _, entry := range entries {
		text := strings.TrimSpace(entry.Question)
		answer := strings.TrimSpace(entry.Answer)
		if text == "" || answer == "" {
			discarded++
			continue
		}

		difficulty, ok := model.NormalizeDifficulty(entry.Difficulty)
		if !ok {
			difficulty = req.Difficulty
		}
		bloom, ok := model.NormalizeBloomLevel(entry.BloomLevel)
		if !ok {
			bloom = req.BloomLevel
		}
		qtype, ok := model.NormalizeQuestionType(entry.QuestionType)
		if !ok {
			qtype = req.QuestionType
		}
		marks := model.NormalizeMarks(entry.marksInt(), qtype)

		questions = append(questions, model.Question{
			SectionID:    req.Section.ID,
			Text:         text,
			Answer:       answer,
			Difficulty:   difficulty,
			BloomLevel:   bloom,
			QuestionType: qtype,
			Marks:        marks,
		})
	}

	if len(questions) == 0 {
		return nil, discarded, fmt.Errorf("%w: all %d entries unusable", util.ErrMalformedOutput, len(entries))
	}
	if len(questions) > req.Count {
		questions = questions[:req.Count]
	}
	return questions, discarded, nil
}
