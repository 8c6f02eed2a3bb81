package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"qpgen_backend/internal/config"
	"qpgen_backend/internal/util"

	openai "github.com/sashabaranov/go-openai"
)

// GeneratorProvider 题目生成后端，托管与本地模型共用同一接口。
// Complete 必须尊重 ctx 的取消与超时。
type GeneratorProvider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

const generationSystemPrompt = "You are an exam question author for a university course. " +
	"Always respond with a JSON array only, no prose, no markdown fences."

// OpenAIProvider 走 OpenAI 兼容的 chat completions 接口，
// BaseURL 可指向任何兼容网关
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
}

func NewOpenAIProvider(cfg config.OpenAIConfig) *OpenAIProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: p.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: generationSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion from %s", p.model)
	}
	return resp.Choices[0].Message.Content, nil
}

// OllamaProvider 本地模型，走 Ollama 的 /api/generate
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllamaProvider(cfg config.OllamaConfig) *OllamaProvider {
	return &OllamaProvider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		client:  &http.Client{Timeout: 10 * time.Minute},
	}
}

func (p *OllamaProvider) Name() string { return "ollama" }

func (p *OllamaProvider) Complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"model":  p.model,
		"prompt": generationSystemPrompt + "\n\n" + prompt,
		"stream": false,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	return out.Response, nil
}

// GeneratorRegistry 启动时装配全部后端并选中配置指定的那一个。
// 配置里写了不存在的后端名直接报错，不会留到生成时才发现。
// active 支持配置热更新时切换，进行中的请求继续用旧后端跑完
type GeneratorRegistry struct {
	mu        sync.RWMutex
	providers map[string]GeneratorProvider
	active    GeneratorProvider
}

func NewGeneratorRegistry(cfg config.AIConfig) (*GeneratorRegistry, error) {
	providers := map[string]GeneratorProvider{}
	for _, p := range []GeneratorProvider{
		NewOpenAIProvider(cfg.OpenAI),
		NewOllamaProvider(cfg.Ollama),
	} {
		providers[p.Name()] = p
	}

	active, ok := providers[cfg.Backend]
	if !ok {
		return nil, fmt.Errorf("%w: %q", util.ErrUnknownBackend, cfg.Backend)
	}
	return &GeneratorRegistry{providers: providers, active: active}, nil
}

func (r *GeneratorRegistry) Active() GeneratorProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// SetActive 切换当前出题后端，名字未注册时保持原状并返回错误
func (r *GeneratorRegistry) SetActive(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[name]
	if !ok {
		return fmt.Errorf("%w: %q", util.ErrUnknownBackend, name)
	}
	r.active = p
	return nil
}

func (r *GeneratorRegistry) Provider(name string) (GeneratorProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

const maxPromptSectionChars = 4000

// buildGenerationPrompt 把一条生成请求拼成提示词，
// 要求模型按固定字段输出 JSON 数组
func buildGenerationPrompt(req GenerationRequest) string {
	content := req.Section.Content
	if len(content) > maxPromptSectionChars {
		content = content[:maxPromptSectionChars]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Write %d exam question(s) based on the course material below.\n\n", req.Count)
	fmt.Fprintf(&sb, "Section: %s\n", req.Section.Title)
	fmt.Fprintf(&sb, "Material:\n%s\n\n", content)
	sb.WriteString("Constraints for every question:\n")
	fmt.Fprintf(&sb, "- difficulty: %s\n", req.Difficulty)
	fmt.Fprintf(&sb, "- bloom_level: %s\n", req.BloomLevel)
	fmt.Fprintf(&sb, "- question_type: %s\n", req.QuestionType)
	fmt.Fprintf(&sb, "- marks: %d\n\n", req.Marks)
	sb.WriteString("Respond with a JSON array. Each element must have exactly these fields:\n")
	sb.WriteString(`{"question": "...", "answer": "...", "difficulty": "...", "bloom_level": "...", "question_type": "...", "marks": 0}` + "\n")
	sb.WriteString("The answer field must contain a model answer or marking guide, never empty.\n")
	return sb.String()
}
