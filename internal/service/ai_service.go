package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"smartform_backend/internal/config"
	"smartform_backend/internal/model"
	"smartform_backend/internal/util"
	"smartform_backend/pkg/monitoring"
	"strings"
	"time"
)

// Completer AI 聊天补全的最小接口，测试时用桩实现替换真实 HTTP 客户端
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

type AIService struct {
	completer Completer
}

func NewAIService(cfg config.AIConfig) *AIService {
	return &AIService{completer: &chatClient{config: cfg}}
}

// NewAIServiceWithCompleter 注入自定义补全器（测试用）
func NewAIServiceWithCompleter(c Completer) *AIService {
	return &AIService{completer: c}
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model    string          `json:"model"`
	Messages []AIChatMessage `json:"messages"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// chatClient OpenAI 兼容的聊天补全客户端
type chatClient struct {
	config config.AIConfig
}

func (c *chatClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	messages := []AIChatMessage{}
	if system != "" {
		messages = append(messages, AIChatMessage{Role: "system", Content: system})
	}
	messages = append(messages, AIChatMessage{Role: "user", Content: prompt})

	reqBody := ChatCompletionRequest{
		Model:    c.config.Model,
		Messages: messages,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	client := &http.Client{Timeout: 120 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}

	if result.Error != nil {
		return "", fmt.Errorf("AI API error: %s", result.Error.Message)
	}
	if len(result.Choices) > 0 {
		return result.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("AI returned no choices")
}

const analysisSystemPrompt = "你是一名专业的招聘分析助手。根据表单结构和候选人提交的答案，" +
	"对每位候选人进行客观评估。只输出 JSON，不要输出任何解释性文字。"

// AnalyzeCandidates 对全部提交做一次批量候选人分析。
// 上游返回的结果形状不稳定，统一在边界处归一化为 CandidateAnalysis。
func (s *AIService) AnalyzeCandidates(ctx context.Context, form *model.Form, submissions []model.Submission, customInstructions string) ([]model.CandidateAnalysis, error) {
	start := time.Now()

	prompt := buildAnalysisPrompt(form, submissions, customInstructions)
	raw, err := s.completer.Complete(ctx, analysisSystemPrompt, prompt)
	monitoring.ObserveAIRequest("analyze_candidates", start, err)
	if err != nil {
		return nil, err
	}

	analyses, err := parseAnalysisResponse(raw, submissions)
	if err != nil {
		return nil, err
	}
	return analyses, nil
}

// AnalyzeSubmission 单候选人分析
func (s *AIService) AnalyzeSubmission(ctx context.Context, form *model.Form, sub *model.Submission, customInstructions string) (*model.CandidateAnalysis, error) {
	analyses, err := s.AnalyzeCandidates(ctx, form, []model.Submission{*sub}, customInstructions)
	if err != nil {
		return nil, err
	}
	if len(analyses) == 0 {
		return nil, util.ErrAnalysisFailed
	}
	return &analyses[0], nil
}

// buildAnalysisPrompt 把表单结构和提交数据编排进分析提示词。
// 未作答用 [No Answer] 标记，文件链接用 [File Upload] 前缀，让模型明确区分。
func buildAnalysisPrompt(form *model.Form, submissions []model.Submission, customInstructions string) string {
	var b strings.Builder

	b.WriteString("## 表单结构\n")
	b.WriteString(fmt.Sprintf("表单: %s\n", form.Name))
	if form.Description != "" {
		b.WriteString(fmt.Sprintf("描述: %s\n", form.Description))
	}
	for i, q := range form.Questions {
		b.WriteString(fmt.Sprintf("%d. %s (类型: %s", i+1, q.Text, q.Type))
		if len(q.Options) > 0 {
			b.WriteString(fmt.Sprintf(", 选项: %s", strings.Join(q.Options, " / ")))
		}
		b.WriteString(")\n")
	}

	b.WriteString("\n## 候选人提交\n")
	for si := range submissions {
		sub := &submissions[si]
		b.WriteString(fmt.Sprintf("\n### 候选人 (submissionId: %s", sub.ID))
		if !sub.SubmittedAt.IsZero() {
			b.WriteString(fmt.Sprintf(", 提交时间: %s", sub.SubmittedAt.UTC().Format(util.TimeFormat)))
		}
		b.WriteString(")\n")
		for qi := range form.Questions {
			q := &form.Questions[qi]
			resp := MatchResponse(sub, q)
			b.WriteString(fmt.Sprintf("- %s: %s\n", q.Text, promptAnswer(resp)))
		}
	}

	if customInstructions != "" {
		b.WriteString("\n## 额外评估要求\n")
		b.WriteString(customInstructions)
		b.WriteString("\n")
	}

	b.WriteString("\n## 输出要求\n")
	b.WriteString("输出一个 JSON 对象 {\"candidateAnalyses\": [...]}，数组中每个元素对应一位候选人，字段：\n")
	b.WriteString("submissionId, candidateAlias, summary, strengths (字符串数组), weaknesses (字符串数组), ")
	b.WriteString("categoryScores (维度名到 0-10 分数的对象), overallFitScore (0-10), fitReasoning, ")
	b.WriteString("isFlagged (布尔), flagReason。\n")
	b.WriteString("candidateAlias 从答案中推断候选人姓名，推断不出时留空。\n")

	return b.String()
}

func promptAnswer(resp *model.Response) string {
	if resp == nil {
		return "[No Answer]"
	}
	tokens := AnswerTokens(resp.Answer)
	if len(tokens) == 0 {
		return "[No Answer]"
	}
	if !resp.Answer.IsList && util.IsHTTPURL(tokens[0]) {
		return "[File Upload] " + tokens[0]
	}
	return strings.Join(tokens, util.DisplayJoinSeparator)
}

// stripJSONFence 剥掉模型习惯性包裹的 ```json 围栏
func stripJSONFence(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// parseAnalysisResponse 归一化上游返回的各种形状：
// 标准信封 {candidateAnalyses: [...]}、裸数组、以及逐条目的旧格式变体。
func parseAnalysisResponse(raw string, submissions []model.Submission) ([]model.CandidateAnalysis, error) {
	cleaned := stripJSONFence(raw)

	var envelope struct {
		CandidateAnalyses []json.RawMessage `json:"candidateAnalyses"`
		Error             string            `json:"error"`
		Details           string            `json:"details"`
	}
	if err := json.Unmarshal([]byte(cleaned), &envelope); err == nil {
		if envelope.Error != "" {
			if envelope.Details != "" {
				return nil, fmt.Errorf("%w: %s (%s)", util.ErrAnalysisFailed, envelope.Error, envelope.Details)
			}
			return nil, fmt.Errorf("%w: %s", util.ErrAnalysisFailed, envelope.Error)
		}
		if envelope.CandidateAnalyses != nil {
			return normalizeEntries(envelope.CandidateAnalyses, submissions)
		}
	}

	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &entries); err == nil {
		return normalizeEntries(entries, submissions)
	}

	return nil, fmt.Errorf("%w: 无法解析分析结果", util.ErrAnalysisFailed)
}

func normalizeEntries(entries []json.RawMessage, submissions []model.Submission) ([]model.CandidateAnalysis, error) {
	out := make([]model.CandidateAnalysis, 0, len(entries))
	for i, entry := range entries {
		analysis, err := normalizeEntry(entry)
		if err != nil {
			return nil, err
		}
		// 缺失的 submissionId 按输入顺序回填
		if analysis.SubmissionID == "" && i < len(submissions) {
			analysis.SubmissionID = submissions[i].ID
		}
		if analysis.SubmittedAt == "" && i < len(submissions) && !submissions[i].SubmittedAt.IsZero() {
			analysis.SubmittedAt = submissions[i].SubmittedAt.UTC().Format(util.TimeFormat)
		}
		out = append(out, *analysis)
	}
	return out, nil
}

// normalizeEntry 兼容四种实际出现过的条目形状：
//  1. 规范的 CandidateAnalysis 对象
//  2. {output: {properties: {...description}}} 包裹的结构化输出
//  3. {summary, strengths, areas_for_concern, fit_score, hire_recommendation} 平铺变体
//  4. {output: "..."} 或裸字符串，退化为仅含 summary 的结果
func normalizeEntry(entry json.RawMessage) (*model.CandidateAnalysis, error) {
	// 裸字符串条目退化为仅含摘要的结果
	var text string
	if err := json.Unmarshal(entry, &text); err == nil {
		return &model.CandidateAnalysis{Summary: strings.TrimSpace(text)}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(entry, &fields); err != nil {
		return nil, fmt.Errorf("%w: 无法识别的分析条目", util.ErrAnalysisFailed)
	}

	if output, ok := fields["output"]; ok {
		return normalizeOutput(output)
	}

	// 旧格式平铺字段按键名区分，summary/strengths 与规范形状重名
	if hasAny(fields, "fit_score", "areas_for_concern", "hire_recommendation") {
		var flat struct {
			Summary            string   `json:"summary"`
			Strengths          []string `json:"strengths"`
			AreasForConcern    []string `json:"areas_for_concern"`
			FitScore           *float64 `json:"fit_score"`
			HireRecommendation string   `json:"hire_recommendation"`
		}
		if err := json.Unmarshal(entry, &flat); err != nil {
			return nil, fmt.Errorf("%w: %v", util.ErrAnalysisFailed, err)
		}
		return &model.CandidateAnalysis{
			Summary:         flat.Summary,
			Strengths:       flat.Strengths,
			Weaknesses:      flat.AreasForConcern,
			OverallFitScore: flat.FitScore,
			FitReasoning:    flat.HireRecommendation,
		}, nil
	}

	var canonical model.CandidateAnalysis
	if err := json.Unmarshal(entry, &canonical); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrAnalysisFailed, err)
	}
	return &canonical, nil
}

func normalizeOutput(output json.RawMessage) (*model.CandidateAnalysis, error) {
	var text string
	if err := json.Unmarshal(output, &text); err == nil {
		return &model.CandidateAnalysis{Summary: strings.TrimSpace(text)}, nil
	}

	var structured struct {
		Properties map[string]struct {
			Description string `json:"description"`
		} `json:"properties"`
	}
	if err := json.Unmarshal(output, &structured); err == nil && structured.Properties != nil {
		parts := make([]string, 0, len(structured.Properties))
		for _, p := range structured.Properties {
			if p.Description != "" {
				parts = append(parts, p.Description)
			}
		}
		return &model.CandidateAnalysis{Summary: strings.Join(parts, " ")}, nil
	}

	return nil, fmt.Errorf("%w: 无法识别的分析条目", util.ErrAnalysisFailed)
}

func hasAny(fields map[string]json.RawMessage, keys ...string) bool {
	for _, key := range keys {
		if _, ok := fields[key]; ok {
			return true
		}
	}
	return false
}

// SuggestedQuestion AI 生成的问题建议
type SuggestedQuestion struct {
	Text    string             `json:"text"`
	Type    model.QuestionType `json:"type"`
	Options []string           `json:"options,omitempty"`
}

// answerTypeMap 模型输出的人类可读类型名到内部类型的映射
var answerTypeMap = map[string]model.QuestionType{
	"Text Input":      model.QuestionText,
	"Number Input":    model.QuestionNumber,
	"Text Area":       model.QuestionTextarea,
	"Dropdown":        model.QuestionDropdown,
	"Multiple Choice": model.QuestionMultipleChoice,
	"Checkboxes":      model.QuestionCheckboxes,
	"Yes/No":          model.QuestionYesNo,
	"Rating":          model.QuestionRating,
	"File Upload":     model.QuestionFile,
}

const suggestSystemPrompt = "你是一名表单设计助手。根据用户描述的目标，生成一组合适的表单问题。" +
	"只输出 JSON 数组，不要输出任何解释性文字。"

// SuggestQuestions 根据自然语言描述生成问题建议；未知类型一律回退为文本输入
func (s *AIService) SuggestQuestions(ctx context.Context, description string) ([]SuggestedQuestion, error) {
	start := time.Now()

	prompt := fmt.Sprintf("表单目标: %s\n\n输出一个 JSON 数组，每个元素为 "+
		"{\"questionText\": \"...\", \"answerType\": \"...\", \"options\": [...]}。\n"+
		"answerType 取值: Text Input, Number Input, Text Area, Dropdown, Multiple Choice, "+
		"Checkboxes, Yes/No, Rating, File Upload。\n"+
		"仅 Dropdown / Multiple Choice / Checkboxes 需要 options。", description)

	raw, err := s.completer.Complete(ctx, suggestSystemPrompt, prompt)
	monitoring.ObserveAIRequest("suggest_questions", start, err)
	if err != nil {
		return nil, err
	}

	var entries []struct {
		QuestionText string   `json:"questionText"`
		AnswerType   string   `json:"answerType"`
		Options      []string `json:"options"`
	}
	if err := json.Unmarshal([]byte(stripJSONFence(raw)), &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrAnalysisFailed, err)
	}

	out := make([]SuggestedQuestion, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.QuestionText) == "" {
			continue
		}
		qType, ok := answerTypeMap[e.AnswerType]
		if !ok {
			qType = model.QuestionText
		}
		sq := SuggestedQuestion{Text: e.QuestionText, Type: qType}
		if qType.HasOptions() {
			sq.Options = e.Options
		}
		out = append(out, sq)
	}
	return out, nil
}
