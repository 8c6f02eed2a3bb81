package service

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"qpgen_backend/internal/model"
	"qpgen_backend/internal/util"
)

// SectionSource 把上传的课程材料切分成可出题的章节。
// 实现方只需要关心文本到章节的转换，解析结果的落库由 MaterialService 负责。
type SectionSource interface {
	Parse(ctx context.Context, title string, r io.Reader) ([]model.Section, error)
}

// MarkdownSectionSource 按 Markdown 标题切分材料，
// 没有任何标题的纯文本退化为按段落分块
type MarkdownSectionSource struct {
	// ChunkSize 无标题文本的分块字符数，零值用 defaultChunkSize
	ChunkSize int
}

const defaultChunkSize = 1500

func NewMarkdownSectionSource() *MarkdownSectionSource {
	return &MarkdownSectionSource{ChunkSize: defaultChunkSize}
}

func (s *MarkdownSectionSource) Parse(ctx context.Context, title string, r io.Reader) ([]model.Section, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	type rawSection struct {
		title   string
		level   int
		content strings.Builder
	}

	var sections []*rawSection
	current := &rawSection{title: title, level: 0}

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		line := scanner.Text()
		if heading, level, ok := parseHeading(line); ok {
			if strings.TrimSpace(current.content.String()) != "" || current.level > 0 {
				sections = append(sections, current)
			}
			current = &rawSection{title: heading, level: level}
			continue
		}
		current.content.WriteString(line)
		current.content.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read material: %w", err)
	}
	if strings.TrimSpace(current.content.String()) != "" {
		sections = append(sections, current)
	}

	// 没有标题且只有一大块文本时按段落分块
	if len(sections) == 1 && sections[0].level == 0 {
		chunkSize := s.ChunkSize
		if chunkSize <= 0 {
			chunkSize = defaultChunkSize
		}
		chunks := chunkParagraphs(sections[0].content.String(), chunkSize)
		if len(chunks) > 1 {
			sections = sections[:0]
			for i, chunk := range chunks {
				rs := &rawSection{title: fmt.Sprintf("%s (part %d)", title, i+1), level: 1}
				rs.content.WriteString(chunk)
				sections = append(sections, rs)
			}
		}
	}

	var result []model.Section
	for i, rs := range sections {
		content := strings.TrimSpace(rs.content.String())
		if content == "" {
			continue
		}
		topics := extractTopics(content, 5)
		topicsJSON, _ := json.Marshal(topics)
		result = append(result, model.Section{
			Ord:     i,
			Title:   rs.title,
			Level:   rs.level,
			Content: content,
			Topics:  topicsJSON,
		})
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("%w: material contains no usable text", util.ErrParseFailed)
	}
	return result, nil
}

func parseHeading(line string) (string, int, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return "", 0, false
	}
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level > 6 {
		return "", 0, false
	}
	rest := strings.TrimSpace(trimmed[level:])
	if rest == "" {
		return "", 0, false
	}
	return rest, level, true
}

func chunkParagraphs(text string, chunkSize int) []string {
	paragraphs := strings.Split(text, "\n\n")
	var chunks []string
	var sb strings.Builder
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if sb.Len() > 0 && sb.Len()+len(p) > chunkSize {
			chunks = append(chunks, sb.String())
			sb.Reset()
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(p)
	}
	if strings.TrimSpace(sb.String()) != "" {
		chunks = append(chunks, sb.String())
	}
	return chunks
}

var topicStopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "this": true,
	"that": true, "with": true, "from": true, "have": true, "has": true,
	"was": true, "were": true, "will": true, "can": true, "not": true,
	"but": true, "all": true, "its": true, "their": true, "which": true,
	"when": true, "where": true, "into": true, "such": true, "than": true,
	"then": true, "they": true, "these": true, "those": true, "also": true,
	"each": true, "between": true, "about": true, "used": true, "using": true,
	"more": true, "most": true, "other": true, "some": true, "been": true,
	"what": true, "how": true, "why": true, "may": true, "must": true,
}

// extractTopics 用词频挑出最常出现的实词作为章节主题
func extractTopics(content string, limit int) []string {
	freq := make(map[string]int)
	words := strings.FieldsFunc(strings.ToLower(content), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	for _, w := range words {
		if len(w) < 4 || topicStopwords[w] {
			continue
		}
		freq[w]++
	}

	type wordCount struct {
		word  string
		count int
	}
	counts := make([]wordCount, 0, len(freq))
	for w, c := range freq {
		if c < 2 {
			continue
		}
		counts = append(counts, wordCount{w, c})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].word < counts[j].word
	})

	if len(counts) > limit {
		counts = counts[:limit]
	}
	topics := make([]string, 0, len(counts))
	for _, wc := range counts {
		topics = append(topics, wc.word)
	}
	return topics
}
