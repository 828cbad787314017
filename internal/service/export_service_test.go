package service

import (
	"smartform_backend/internal/model"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSVRow(t *testing.T) {
	t.Run("每个单元格一律加引号", func(t *testing.T) {
		var b strings.Builder
		writeCSVRow(&b, []string{"a", "b"})
		assert.Equal(t, "\"a\",\"b\"\r\n", b.String())
	})

	t.Run("内部引号翻倍", func(t *testing.T) {
		var b strings.Builder
		writeCSVRow(&b, []string{`He said "hi"`})
		assert.Equal(t, "\"He said \"\"hi\"\"\"\r\n", b.String())
	})

	t.Run("逗号和换行包在引号内不破坏结构", func(t *testing.T) {
		var b strings.Builder
		writeCSVRow(&b, []string{"a,b", "c\nd"})
		assert.Equal(t, "\"a,b\",\"c\nd\"\r\n", b.String())
	})
}

func TestRawCSV(t *testing.T) {
	form := &model.Form{
		Name: "招聘表",
		Questions: []model.Question{
			question("q1", "名字", model.QuestionText),
			question("q2", "技能", model.QuestionCheckboxes),
		},
	}
	form.ID = "form-1"

	sub := model.Submission{
		FormID:      "form-1",
		SubmittedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Responses: model.ResponseList{
			{QuestionID: "q1", QuestionText: "名字", Answer: scalar("张三")},
			{QuestionID: "q2", QuestionText: "技能", Answer: list("Go", "Rust")},
		},
	}
	sub.ID = "sub-1"

	content := string(rawCSV(form, []model.Submission{sub}))
	lines := strings.Split(strings.TrimRight(content, "\r\n"), "\r\n")
	require.Len(t, lines, 2)

	t.Run("表头为元信息列加问题原文", func(t *testing.T) {
		assert.Equal(t, `"Submission ID","Submitted At","Form ID","名字","技能"`, lines[0])
	})

	t.Run("数据行按结构顺序展开", func(t *testing.T) {
		assert.Equal(t, `"sub-1","2026-03-01 09:00:00","form-1","张三","Go; Rust"`, lines[1])
	})

	t.Run("未作答问题为空单元格", func(t *testing.T) {
		empty := model.Submission{FormID: "form-1", SubmittedAt: sub.SubmittedAt}
		empty.ID = "sub-2"
		content := string(rawCSV(form, []model.Submission{empty}))
		rows := strings.Split(strings.TrimRight(content, "\r\n"), "\r\n")
		assert.Equal(t, `"sub-2","2026-03-01 09:00:00","form-1","",""`, rows[1])
	})
}

func TestAnalysisCSV(t *testing.T) {
	analyses := []model.CandidateAnalysis{
		{
			SubmissionID:    "sub-1",
			CandidateAlias:  "张三",
			SubmittedAt:     "2026-03-01 09:00:00",
			Summary:         "经验丰富",
			Strengths:       []string{"沟通", "技术"},
			Weaknesses:      []string{"管理经验少"},
			CategoryScores:  map[string]float64{"technical": 9},
			OverallFitScore: fit(8.5),
			FitReasoning:    "强烈推荐",
			IsFlagged:       true,
			FlagReason:      "答案疑似复制",
		},
	}

	content := string(analysisCSV(analyses))
	lines := strings.Split(strings.TrimRight(content, "\r\n"), "\r\n")
	require.Len(t, lines, 2)

	t.Run("固定11列表头", func(t *testing.T) {
		assert.Equal(t, 11, strings.Count(lines[0], `","`)+1)
		assert.Contains(t, lines[0], `"Category Scores"`)
		assert.Contains(t, lines[0], `"Flag Reason"`)
	})

	t.Run("结构化评分序列化为JSON字符串", func(t *testing.T) {
		assert.Contains(t, lines[1], `""technical"":9`)
	})

	t.Run("布尔标记输出Yes", func(t *testing.T) {
		assert.Contains(t, lines[1], `"Yes"`)
	})

	t.Run("优劣势用分号连接", func(t *testing.T) {
		assert.Contains(t, lines[1], `"沟通; 技术"`)
	})

	t.Run("缺失分数为空单元格", func(t *testing.T) {
		content := string(analysisCSV([]model.CandidateAnalysis{{SubmissionID: "s"}}))
		rows := strings.Split(strings.TrimRight(content, "\r\n"), "\r\n")
		assert.Contains(t, rows[1], `"s",""`)
		assert.Contains(t, rows[1], `"No"`)
	})
}
