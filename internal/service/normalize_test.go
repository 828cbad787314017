package service

import (
	"smartform_backend/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
)

func scalar(s string) model.AnswerValue {
	return model.AnswerValue{Scalar: s}
}

func list(items ...string) model.AnswerValue {
	return model.AnswerValue{List: items, IsList: true}
}

func nullAnswer() model.AnswerValue {
	return model.AnswerValue{IsNull: true}
}

func TestAnswerTokens(t *testing.T) {
	tests := []struct {
		name   string
		answer model.AnswerValue
		want   []string
	}{
		{"普通标量", scalar("hello"), []string{"hello"}},
		{"标量去除首尾空白", scalar("  hello  "), []string{"hello"}},
		{"空白标量无token", scalar("   "), nil},
		{"空字符串无token", scalar(""), nil},
		{"null无token", nullAnswer(), nil},
		{"多选逐项展开", list("A", "B"), []string{"A", "B"}},
		{"多选丢弃空项", list("A", "B", ""), []string{"A", "B"}},
		{"多选逐项trim", list(" A ", "B"), []string{"A", "B"}},
		{"空数组无token", list(), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnswerTokens(tt.answer)
			if tt.want == nil {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDisplayAnswer(t *testing.T) {
	t.Run("未作答标记", func(t *testing.T) {
		d := DisplayAnswer(nullAnswer())
		assert.True(t, d.IsNoAnswer)
		assert.Equal(t, NoAnswerText, d.Text)
	})

	t.Run("空白答案也是未作答", func(t *testing.T) {
		d := DisplayAnswer(scalar("   "))
		assert.True(t, d.IsNoAnswer)
	})

	t.Run("http地址按文件链接呈现", func(t *testing.T) {
		d := DisplayAnswer(scalar("https://cdn.example.com/resume.pdf"))
		assert.True(t, d.IsFileLink)
		assert.Equal(t, FileLinkLabel, d.Text)
		assert.Equal(t, "https://cdn.example.com/resume.pdf", d.URL)
	})

	t.Run("普通文本原样展示", func(t *testing.T) {
		d := DisplayAnswer(scalar("five years"))
		assert.False(t, d.IsNoAnswer)
		assert.False(t, d.IsFileLink)
		assert.Equal(t, "five years", d.Text)
	})

	t.Run("多选用逗号连接", func(t *testing.T) {
		d := DisplayAnswer(list("Go", "Rust"))
		assert.Equal(t, "Go, Rust", d.Text)
	})

	t.Run("数组中的URL不按文件链接处理", func(t *testing.T) {
		d := DisplayAnswer(list("https://example.com/a"))
		assert.False(t, d.IsFileLink)
	})
}

func TestCSVAnswer(t *testing.T) {
	assert.Equal(t, "", CSVAnswer(nullAnswer()))
	assert.Equal(t, "hello", CSVAnswer(scalar("hello")))
	// CSV 单元格内用分号连接，与表格展示的逗号区分
	assert.Equal(t, "Go; Rust", CSVAnswer(list("Go", "Rust")))
}

func TestMatchResponse(t *testing.T) {
	sub := &model.Submission{
		Responses: model.ResponseList{
			{QuestionID: "q1", QuestionText: "你的名字?", Answer: scalar("张三")},
			{QuestionID: "q2", QuestionText: "工作年限?", Answer: scalar("5")},
		},
	}

	t.Run("按ID优先匹配", func(t *testing.T) {
		q := &model.Question{Text: "工作年限?"}
		q.ID = "q1"
		resp := MatchResponse(sub, q)
		assert.NotNil(t, resp)
		assert.Equal(t, "张三", resp.Answer.Scalar)
	})

	t.Run("ID不中时按原文回退", func(t *testing.T) {
		q := &model.Question{Text: "工作年限?"}
		q.ID = "q-renamed"
		resp := MatchResponse(sub, q)
		assert.NotNil(t, resp)
		assert.Equal(t, "5", resp.Answer.Scalar)
	})

	t.Run("都不中返回nil", func(t *testing.T) {
		q := &model.Question{Text: "不存在的问题"}
		q.ID = "q-missing"
		assert.Nil(t, MatchResponse(sub, q))
	})
}
