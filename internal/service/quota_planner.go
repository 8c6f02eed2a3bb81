package service

import (
	"fmt"
	"strings"

	"qpgen_backend/internal/model"
	"qpgen_backend/internal/util"
)

// GenerationRequest 规划器产出的最小生成单元：
// 同一请求内所有题目共享同一组（难度，认知层级，题型）
type GenerationRequest struct {
	Section      model.Section
	Difficulty   model.Difficulty
	BloomLevel   model.BloomLevel
	QuestionType model.QuestionType
	Marks        int
	Count        int
}

// QuotaShortfall 记录无法排入任何章节的配额，按轴计数
type QuotaShortfall struct {
	Difficulty   map[model.Difficulty]int
	BloomLevel   map[model.BloomLevel]int
	QuestionType map[model.QuestionType]int
}

func (s QuotaShortfall) Empty() bool {
	return len(s.Difficulty) == 0 && len(s.BloomLevel) == 0 && len(s.QuestionType) == 0
}

func (s QuotaShortfall) Total() int {
	total := 0
	for _, n := range s.Difficulty {
		total += n
	}
	return total
}

// Warning 生成面向用户的缺口描述，枚举顺序固定保证输出可复现
func (s QuotaShortfall) Warning() string {
	if s.Empty() {
		return ""
	}
	var parts []string
	var diffs []string
	for _, d := range model.AllDifficulties() {
		if n := s.Difficulty[d]; n > 0 {
			diffs = append(diffs, fmt.Sprintf("%s=%d", d, n))
		}
	}
	if len(diffs) > 0 {
		parts = append(parts, "difficulty "+strings.Join(diffs, ","))
	}
	var blooms []string
	for _, b := range model.AllBloomLevels() {
		if n := s.BloomLevel[b]; n > 0 {
			blooms = append(blooms, fmt.Sprintf("%s=%d", b, n))
		}
	}
	if len(blooms) > 0 {
		parts = append(parts, "bloom "+strings.Join(blooms, ","))
	}
	var types []string
	for _, t := range model.AllQuestionTypes() {
		if n := s.QuestionType[t]; n > 0 {
			types = append(types, fmt.Sprintf("%s=%d", t, n))
		}
	}
	if len(types) > 0 {
		parts = append(parts, "type "+strings.Join(types, ","))
	}
	return fmt.Sprintf("quota shortfall: %d question(s) not scheduled (%s)", s.Total(), strings.Join(parts, "; "))
}

// ValidateQuota 校验配额配置：三条轴的总数必须一致，
// 每个键必须是已知枚举值且计数非负，总量不超过上限
func ValidateQuota(quota model.QuotaConfig, maxTotal int) error {
	diffTotal := 0
	for d, n := range quota.Difficulty {
		if !d.Valid() {
			return fmt.Errorf("%w: unknown difficulty %q", util.ErrQuotaConfigInvalid, d)
		}
		if n < 0 {
			return fmt.Errorf("%w: negative count for difficulty %s", util.ErrQuotaConfigInvalid, d)
		}
		diffTotal += n
	}
	bloomTotal := 0
	for b, n := range quota.BloomLevel {
		if !b.Valid() {
			return fmt.Errorf("%w: unknown bloom level %q", util.ErrQuotaConfigInvalid, b)
		}
		if n < 0 {
			return fmt.Errorf("%w: negative count for bloom level %s", util.ErrQuotaConfigInvalid, b)
		}
		bloomTotal += n
	}
	typeTotal := 0
	for t, n := range quota.QuestionType {
		if !t.Valid() {
			return fmt.Errorf("%w: unknown question type %q", util.ErrQuotaConfigInvalid, t)
		}
		if n < 0 {
			return fmt.Errorf("%w: negative count for question type %s", util.ErrQuotaConfigInvalid, t)
		}
		typeTotal += n
	}

	if diffTotal == 0 {
		return fmt.Errorf("%w: quota is empty", util.ErrQuotaConfigInvalid)
	}
	if diffTotal != bloomTotal || diffTotal != typeTotal {
		return fmt.Errorf("%w: axis totals differ (difficulty=%d bloom=%d type=%d)",
			util.ErrQuotaConfigInvalid, diffTotal, bloomTotal, typeTotal)
	}
	if maxTotal > 0 && diffTotal > maxTotal {
		return fmt.Errorf("%w: total %d exceeds limit %d", util.ErrQuotaConfigInvalid, diffTotal, maxTotal)
	}
	return nil
}

// PlanRequests 把配额展开成逐题槽位并分配到章节上。
// 每条轴按固定枚举顺序展开，第 i 题取三条轴的第 i 个槽位；
// 单个章节最多承接 batchSize 题，章节走完一轮仍未排下的进入缺口。
// 输入有限且每步都消耗槽位，必然终止
func PlanRequests(sections []model.Section, quota model.QuotaConfig, batchSize int) ([]GenerationRequest, QuotaShortfall) {
	if batchSize <= 0 {
		batchSize = 1
	}

	var diffSlots []model.Difficulty
	for _, d := range model.AllDifficulties() {
		for i := 0; i < quota.Difficulty[d]; i++ {
			diffSlots = append(diffSlots, d)
		}
	}
	var bloomSlots []model.BloomLevel
	for _, b := range model.AllBloomLevels() {
		for i := 0; i < quota.BloomLevel[b]; i++ {
			bloomSlots = append(bloomSlots, b)
		}
	}
	var typeSlots []model.QuestionType
	for _, t := range model.AllQuestionTypes() {
		for i := 0; i < quota.QuestionType[t]; i++ {
			typeSlots = append(typeSlots, t)
		}
	}

	total := len(diffSlots)
	if len(bloomSlots) < total {
		total = len(bloomSlots)
	}
	if len(typeSlots) < total {
		total = len(typeSlots)
	}

	var requests []GenerationRequest
	next := 0
	for _, section := range sections {
		if next >= total {
			break
		}
		take := batchSize
		if remaining := total - next; take > remaining {
			take = remaining
		}

		// 连续相同的（难度，层级，题型）合并成一条请求
		for i := 0; i < take; {
			d, b, t := diffSlots[next+i], bloomSlots[next+i], typeSlots[next+i]
			count := 1
			for i+count < take &&
				diffSlots[next+i+count] == d &&
				bloomSlots[next+i+count] == b &&
				typeSlots[next+i+count] == t {
				count++
			}
			requests = append(requests, GenerationRequest{
				Section:      section,
				Difficulty:   d,
				BloomLevel:   b,
				QuestionType: t,
				Marks:        model.MarksForType[t],
				Count:        count,
			})
			i += count
		}
		next += take
	}

	shortfall := QuotaShortfall{
		Difficulty:   map[model.Difficulty]int{},
		BloomLevel:   map[model.BloomLevel]int{},
		QuestionType: map[model.QuestionType]int{},
	}
	for i := next; i < total; i++ {
		shortfall.Difficulty[diffSlots[i]]++
		shortfall.BloomLevel[bloomSlots[i]]++
		shortfall.QuestionType[typeSlots[i]]++
	}
	if shortfall.Empty() {
		return requests, QuotaShortfall{}
	}
	return requests, shortfall
}
