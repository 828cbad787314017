package service

import (
	"context"
	"smartform_backend/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCompleter 固定返回预设内容的补全器
type stubCompleter struct {
	response string
	err      error

	gotSystem string
	gotPrompt string
}

func (s *stubCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	s.gotSystem = system
	s.gotPrompt = prompt
	return s.response, s.err
}

func hiringForm() *model.Form {
	form := &model.Form{
		Name: "后端工程师招聘",
		Questions: []model.Question{
			question("q1", "自我介绍", model.QuestionTextarea),
			question("q2", "简历", model.QuestionFile),
		},
	}
	form.ID = "form-1"
	return form
}

func hiringSubmission() model.Submission {
	sub := model.Submission{
		FormID:      "form-1",
		SubmittedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Responses: model.ResponseList{
			{QuestionID: "q1", QuestionText: "自我介绍", Answer: scalar("十年Go经验")},
			{QuestionID: "q2", QuestionText: "简历", Answer: scalar("https://cdn.example.com/cv.pdf")},
		},
	}
	sub.ID = "sub-1"
	return sub
}

func TestAnalyzeCandidatesPrompt(t *testing.T) {
	stub := &stubCompleter{response: `{"candidateAnalyses": []}`}
	svc := NewAIServiceWithCompleter(stub)

	_, err := svc.AnalyzeCandidates(context.Background(), hiringForm(), []model.Submission{hiringSubmission()}, "注重系统设计")
	require.NoError(t, err)

	t.Run("文件答案带上传标记", func(t *testing.T) {
		assert.Contains(t, stub.gotPrompt, "[File Upload] https://cdn.example.com/cv.pdf")
	})

	t.Run("未作答问题显式标记", func(t *testing.T) {
		empty := model.Submission{FormID: "form-1"}
		empty.ID = "sub-2"
		_, err := svc.AnalyzeCandidates(context.Background(), hiringForm(), []model.Submission{empty}, "")
		require.NoError(t, err)
		assert.Contains(t, stub.gotPrompt, "[No Answer]")
	})

	t.Run("附加评估要求注入提示词", func(t *testing.T) {
		_, err := svc.AnalyzeCandidates(context.Background(), hiringForm(), []model.Submission{hiringSubmission()}, "注重系统设计")
		require.NoError(t, err)
		assert.Contains(t, stub.gotPrompt, "注重系统设计")
	})
}

func TestAnalyzeCandidatesNormalization(t *testing.T) {
	run := func(t *testing.T, response string) []model.CandidateAnalysis {
		svc := NewAIServiceWithCompleter(&stubCompleter{response: response})
		analyses, err := svc.AnalyzeCandidates(context.Background(), hiringForm(), []model.Submission{hiringSubmission()}, "")
		require.NoError(t, err)
		return analyses
	}

	t.Run("规范信封", func(t *testing.T) {
		analyses := run(t, `{"candidateAnalyses": [{"submissionId": "sub-1", "candidateAlias": "张三", "summary": "不错", "overallFitScore": 8}]}`)
		require.Len(t, analyses, 1)
		assert.Equal(t, "sub-1", analyses[0].SubmissionID)
		assert.Equal(t, "张三", analyses[0].CandidateAlias)
		assert.Equal(t, 8.0, *analyses[0].OverallFitScore)
	})

	t.Run("markdown围栏剥除", func(t *testing.T) {
		analyses := run(t, "```json\n{\"candidateAnalyses\": [{\"submissionId\": \"sub-1\", \"summary\": \"ok\"}]}\n```")
		require.Len(t, analyses, 1)
		assert.Equal(t, "ok", analyses[0].Summary)
	})

	t.Run("裸数组也接受", func(t *testing.T) {
		analyses := run(t, `[{"submissionId": "sub-1", "summary": "ok"}]`)
		require.Len(t, analyses, 1)
	})

	t.Run("output包裹的结构化条目", func(t *testing.T) {
		analyses := run(t, `[{"output": {"properties": {"summary": {"description": "经验丰富"}}}}]`)
		require.Len(t, analyses, 1)
		assert.Contains(t, analyses[0].Summary, "经验丰富")
	})

	t.Run("平铺变体字段映射", func(t *testing.T) {
		analyses := run(t, `[{"summary": "ok", "strengths": ["a"], "areas_for_concern": ["b"], "fit_score": 6, "hire_recommendation": "可以考虑"}]`)
		require.Len(t, analyses, 1)
		assert.Equal(t, []string{"a"}, analyses[0].Strengths)
		assert.Equal(t, []string{"b"}, analyses[0].Weaknesses)
		assert.Equal(t, 6.0, *analyses[0].OverallFitScore)
		assert.Equal(t, "可以考虑", analyses[0].FitReasoning)
	})

	t.Run("字符串条目退化为摘要", func(t *testing.T) {
		analyses := run(t, `[{"output": "整体一般"}]`)
		require.Len(t, analyses, 1)
		assert.Equal(t, "整体一般", analyses[0].Summary)
	})

	t.Run("缺失ID按输入顺序回填", func(t *testing.T) {
		analyses := run(t, `[{"summary": "ok"}]`)
		require.Len(t, analyses, 1)
		assert.Equal(t, "sub-1", analyses[0].SubmissionID)
		assert.Equal(t, "2026-03-01 09:00:00", analyses[0].SubmittedAt)
	})

	t.Run("错误信封上抛", func(t *testing.T) {
		svc := NewAIServiceWithCompleter(&stubCompleter{response: `{"error": "quota exceeded", "details": "rate limit"}`})
		_, err := svc.AnalyzeCandidates(context.Background(), hiringForm(), []model.Submission{hiringSubmission()}, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota exceeded")
	})

	t.Run("不可解析内容报错", func(t *testing.T) {
		svc := NewAIServiceWithCompleter(&stubCompleter{response: "对不起，我无法完成这个任务"})
		_, err := svc.AnalyzeCandidates(context.Background(), hiringForm(), []model.Submission{hiringSubmission()}, "")
		require.Error(t, err)
	})
}

func TestSuggestQuestions(t *testing.T) {
	t.Run("类型名映射", func(t *testing.T) {
		svc := NewAIServiceWithCompleter(&stubCompleter{response: `[
			{"questionText": "你的名字?", "answerType": "Text Input"},
			{"questionText": "技能?", "answerType": "Checkboxes", "options": ["Go", "Rust"]},
			{"questionText": "是否接受出差?", "answerType": "Yes/No"}
		]`})

		questions, err := svc.SuggestQuestions(context.Background(), "招聘后端工程师")
		require.NoError(t, err)
		require.Len(t, questions, 3)
		assert.Equal(t, model.QuestionText, questions[0].Type)
		assert.Equal(t, model.QuestionCheckboxes, questions[1].Type)
		assert.Equal(t, []string{"Go", "Rust"}, questions[1].Options)
		assert.Equal(t, model.QuestionYesNo, questions[2].Type)
	})

	t.Run("未知类型回退为文本", func(t *testing.T) {
		svc := NewAIServiceWithCompleter(&stubCompleter{response: `[{"questionText": "住址?", "answerType": "Address Widget"}]`})

		questions, err := svc.SuggestQuestions(context.Background(), "问卷")
		require.NoError(t, err)
		require.Len(t, questions, 1)
		assert.Equal(t, model.QuestionText, questions[0].Type)
	})

	t.Run("非选项类型丢弃options", func(t *testing.T) {
		svc := NewAIServiceWithCompleter(&stubCompleter{response: `[{"questionText": "年龄?", "answerType": "Number Input", "options": ["无意义"]}]`})

		questions, err := svc.SuggestQuestions(context.Background(), "问卷")
		require.NoError(t, err)
		assert.Empty(t, questions[0].Options)
	})

	t.Run("空问题文本跳过", func(t *testing.T) {
		svc := NewAIServiceWithCompleter(&stubCompleter{response: `[{"questionText": "  ", "answerType": "Text Input"}]`})

		questions, err := svc.SuggestQuestions(context.Background(), "问卷")
		require.NoError(t, err)
		assert.Empty(t, questions)
	})
}
