package service

import (
	"smartform_backend/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ratingQuestion(id string) *model.Question {
	q := &model.Question{Text: "打分", Type: model.QuestionRating}
	q.ID = id
	return q
}

func submissionWith(qid, text string, answer model.AnswerValue) model.Submission {
	return model.Submission{
		Responses: model.ResponseList{
			{QuestionID: qid, QuestionText: text, Answer: answer},
		},
	}
}

func TestDistributable(t *testing.T) {
	assert.True(t, Distributable(model.QuestionDropdown))
	assert.True(t, Distributable(model.QuestionMultipleChoice))
	assert.True(t, Distributable(model.QuestionCheckboxes))
	assert.True(t, Distributable(model.QuestionYesNo))
	assert.True(t, Distributable(model.QuestionRating))

	assert.False(t, Distributable(model.QuestionText))
	assert.False(t, Distributable(model.QuestionNumber))
	assert.False(t, Distributable(model.QuestionTextarea))
	assert.False(t, Distributable(model.QuestionFile))
}

func TestBuildAnswerDistribution(t *testing.T) {
	t.Run("评分分布", func(t *testing.T) {
		q := ratingQuestion("q1")
		subs := []model.Submission{
			submissionWith("q1", "打分", scalar("5")),
			submissionWith("q1", "打分", scalar("5")),
			submissionWith("q1", "打分", scalar("3")),
		}

		dist := BuildAnswerDistribution(q, subs)
		assert.True(t, dist.HasData)
		assert.Equal(t, 3, dist.Total)
		assert.Equal(t, map[string]int{"5": 2, "3": 1}, dist.Counts)
	})

	t.Run("多选一次提交累加多个计数", func(t *testing.T) {
		q := &model.Question{Text: "技能", Type: model.QuestionCheckboxes}
		q.ID = "q1"
		subs := []model.Submission{
			submissionWith("q1", "技能", list("Go", "Rust")),
			submissionWith("q1", "技能", list("Go")),
		}

		dist := BuildAnswerDistribution(q, subs)
		assert.Equal(t, 3, dist.Total)
		assert.Equal(t, map[string]int{"Go": 2, "Rust": 1}, dist.Counts)
	})

	t.Run("未作答零贡献", func(t *testing.T) {
		q := ratingQuestion("q1")
		subs := []model.Submission{
			submissionWith("q1", "打分", nullAnswer()),
			submissionWith("q1", "打分", scalar("  ")),
		}

		dist := BuildAnswerDistribution(q, subs)
		assert.False(t, dist.HasData)
		assert.Equal(t, 0, dist.Total)
		assert.Empty(t, dist.Counts)
	})

	t.Run("零提交是无数据而非空图表", func(t *testing.T) {
		dist := BuildAnswerDistribution(ratingQuestion("q1"), nil)
		assert.False(t, dist.HasData)
		assert.NotNil(t, dist.Counts)
	})

	t.Run("自由文本类型不做分布", func(t *testing.T) {
		q := &model.Question{Text: "自我介绍", Type: model.QuestionTextarea}
		q.ID = "q1"
		subs := []model.Submission{submissionWith("q1", "自我介绍", scalar("hi"))}

		dist := BuildAnswerDistribution(q, subs)
		assert.False(t, dist.HasData)
		assert.Equal(t, 0, dist.Total)
	})
}

func TestBuildResponsesOverTime(t *testing.T) {
	at := func(s string) time.Time {
		ts, err := time.Parse(time.RFC3339, s)
		assert.NoError(t, err)
		return ts
	}

	t.Run("按UTC日历日分桶升序", func(t *testing.T) {
		subs := []model.Submission{
			{SubmittedAt: at("2026-03-02T09:00:00Z")},
			{SubmittedAt: at("2026-03-01T23:59:00Z")},
			{SubmittedAt: at("2026-03-02T18:30:00Z")},
		}

		counts := BuildResponsesOverTime(subs)
		assert.Equal(t, []DateCount{
			{Date: "2026-03-01", Count: 1},
			{Date: "2026-03-02", Count: 2},
		}, counts)
	})

	t.Run("同一自然日不同时间落入同一桶", func(t *testing.T) {
		subs := []model.Submission{
			{SubmittedAt: at("2026-03-01T00:00:01Z")},
			{SubmittedAt: at("2026-03-01T23:59:59Z")},
		}

		counts := BuildResponsesOverTime(subs)
		assert.Len(t, counts, 1)
		assert.Equal(t, 2, counts[0].Count)
	})

	t.Run("零值时间戳跳过", func(t *testing.T) {
		subs := []model.Submission{
			{SubmittedAt: at("2026-03-01T12:00:00Z")},
			{},
		}

		counts := BuildResponsesOverTime(subs)
		assert.Len(t, counts, 1)
	})

	t.Run("零提交返回空", func(t *testing.T) {
		assert.Empty(t, BuildResponsesOverTime(nil))
	})
}
