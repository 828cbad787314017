package service

import (
	"context"
	"errors"
	"smartform_backend/internal/model"
	"smartform_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fit(score float64) *float64 {
	return &score
}

func question(id, text string, qType model.QuestionType) model.Question {
	q := model.Question{Text: text, Type: qType}
	q.ID = id
	return q
}

func TestBuildRawComparisonTable(t *testing.T) {
	questions := []model.Question{
		question("q1", "名字", model.QuestionText),
		question("q2", "技能", model.QuestionCheckboxes),
	}

	subA := model.Submission{
		SubmittedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Responses: model.ResponseList{
			{QuestionID: "q1", QuestionText: "名字", Answer: scalar("张三")},
			{QuestionID: "q2", QuestionText: "技能", Answer: list("Go", "Rust")},
		},
	}
	subA.ID = "sub-a"
	subB := model.Submission{
		SubmittedAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		Responses: model.ResponseList{
			{QuestionID: "q1", QuestionText: "名字", Answer: scalar("李四")},
		},
	}
	subB.ID = "sub-b"

	table := BuildRawComparisonTable(questions, []model.Submission{subA, subB})

	t.Run("列头为Question加候选人标签", func(t *testing.T) {
		assert.Equal(t, []string{
			"Question",
			"Candidate 1 (2026-03-01)",
			"Candidate 2 (2026-03-02)",
		}, table.Header)
	})

	t.Run("矩阵规模为问题数乘候选人数", func(t *testing.T) {
		assert.Len(t, table.Rows, 2)
		for _, row := range table.Rows {
			assert.Len(t, row.Cells, 2)
		}
	})

	t.Run("多选单元格逗号连接", func(t *testing.T) {
		assert.Equal(t, "Go, Rust", table.Rows[1].Cells[0].Text)
	})

	t.Run("匹配失败的单元格为未作答而非错误", func(t *testing.T) {
		cell := table.Rows[1].Cells[1]
		assert.True(t, cell.IsNoAnswer)
		assert.Equal(t, NoAnswerText, cell.Text)
	})
}

func TestRankCandidates(t *testing.T) {
	t.Run("按分数降序且同分保持输入顺序", func(t *testing.T) {
		analyses := []model.CandidateAnalysis{
			{SubmissionID: "a", CandidateAlias: "A", OverallFitScore: fit(5)},
			{SubmissionID: "b", CandidateAlias: "B", OverallFitScore: fit(5)},
			{SubmissionID: "c", CandidateAlias: "C", OverallFitScore: fit(8)},
		}

		ranked := RankCandidates(analyses, nil)
		assert.Equal(t, "c", ranked[0].SubmissionID)
		assert.Equal(t, "a", ranked[1].SubmissionID)
		assert.Equal(t, "b", ranked[2].SubmissionID)
	})

	t.Run("名次从1开始连续", func(t *testing.T) {
		analyses := []model.CandidateAnalysis{
			{SubmissionID: "a", OverallFitScore: fit(3)},
			{SubmissionID: "b", OverallFitScore: fit(9)},
		}

		ranked := RankCandidates(analyses, nil)
		assert.Equal(t, 1, ranked[0].Rank)
		assert.Equal(t, 2, ranked[1].Rank)
	})

	t.Run("缺失分数按0排序但不伪造分数", func(t *testing.T) {
		analyses := []model.CandidateAnalysis{
			{SubmissionID: "a"},
			{SubmissionID: "b", OverallFitScore: fit(2)},
		}

		ranked := RankCandidates(analyses, nil)
		assert.Equal(t, "b", ranked[0].SubmissionID)
		assert.Nil(t, ranked[1].OverallFitScore)
		assert.Equal(t, model.FitBandNeutral, ranked[1].FitBand)
	})

	t.Run("缺失别名用提交ID前缀构造", func(t *testing.T) {
		analyses := []model.CandidateAnalysis{
			{SubmissionID: "abcdef1234", OverallFitScore: fit(7)},
		}

		ranked := RankCandidates(analyses, nil)
		assert.Equal(t, "Candidate (ID: abcdef...)", ranked[0].CandidateAlias)
	})

	t.Run("档位划分", func(t *testing.T) {
		analyses := []model.CandidateAnalysis{
			{SubmissionID: "h", OverallFitScore: fit(8)},
			{SubmissionID: "m", OverallFitScore: fit(5)},
			{SubmissionID: "l", OverallFitScore: fit(1)},
			{SubmissionID: "n"},
		}

		ranked := RankCandidates(analyses, nil)
		assert.Equal(t, model.FitBandHigh, ranked[0].FitBand)
		assert.Equal(t, model.FitBandMedium, ranked[1].FitBand)
		assert.Equal(t, model.FitBandLow, ranked[2].FitBand)
		assert.Equal(t, model.FitBandNeutral, ranked[3].FitBand)
	})

	t.Run("从提交快照回填提交时间", func(t *testing.T) {
		sub := model.Submission{SubmittedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)}
		sub.ID = "a"
		analyses := []model.CandidateAnalysis{{SubmissionID: "a", OverallFitScore: fit(6)}}

		ranked := RankCandidates(analyses, []model.Submission{sub})
		assert.Equal(t, "2026-03-01 09:30:00", ranked[0].Analysis.SubmittedAt)
	})
}

func TestFallbackAlias(t *testing.T) {
	assert.Equal(t, "Candidate (ID: 123456...)", FallbackAlias("1234567890"))
	// 短ID整体保留
	assert.Equal(t, "Candidate (ID: abc...)", FallbackAlias("abc"))
}

func TestCompareSessionGuards(t *testing.T) {
	t.Run("分析进行中拒绝重新加载", func(t *testing.T) {
		svc := NewCompareService(nil, nil, nil)
		svc.sessions["f1"] = &CompareSession{FormID: "f1", State: StateAnalyzing}

		_, err := svc.LoadSession("f1", 1)
		assert.ErrorIs(t, err, util.ErrAnalysisInFlight)
	})

	t.Run("分析进行中拒绝刷新", func(t *testing.T) {
		svc := NewCompareService(nil, nil, nil)
		svc.sessions["f1"] = &CompareSession{FormID: "f1", State: StateAnalyzing}

		_, err := svc.Refresh("f1", 1)
		assert.ErrorIs(t, err, util.ErrAnalysisInFlight)
	})

	t.Run("无分析结果时排名不可用", func(t *testing.T) {
		svc := NewCompareService(nil, nil, nil)
		svc.sessions["f1"] = &CompareSession{FormID: "f1", State: StateReadyRaw}

		_, err := svc.SessionAnalyses("f1")
		assert.ErrorIs(t, err, util.ErrNoAnalyses)
	})

	t.Run("新会话从Idle开始", func(t *testing.T) {
		svc := NewCompareService(nil, nil, nil)
		session := svc.session("f1")
		assert.Equal(t, StateIdle, session.State)
	})
}

func TestAnalyzeStateTransitions(t *testing.T) {
	seeded := func(stub *stubCompleter) (*CompareService, *CompareSession) {
		svc := NewCompareService(nil, nil, NewAIServiceWithCompleter(stub))
		session := &CompareSession{
			FormID:      "f1",
			Form:        hiringForm(),
			Submissions: []model.Submission{hiringSubmission()},
			State:       StateReadyRaw,
		}
		svc.sessions["f1"] = session
		return svc, session
	}

	t.Run("AI失败回到ReadyRaw且不留下半成品结果", func(t *testing.T) {
		svc, session := seeded(&stubCompleter{err: errors.New("upstream timeout")})

		_, err := svc.runAnalysis(context.Background(), session, "")
		assert.ErrorIs(t, err, util.ErrAnalysisFailed)
		assert.Equal(t, StateReadyRaw, session.State)
		assert.Empty(t, session.Analyses)
	})

	t.Run("成功进入ReadyAnalyzed并保留结果", func(t *testing.T) {
		svc, session := seeded(&stubCompleter{
			response: `{"candidateAnalyses": [{"submissionId": "s1", "summary": "候选人基础扎实"}]}`,
		})

		analyses, err := svc.runAnalysis(context.Background(), session, "")
		require.NoError(t, err)
		require.Len(t, analyses, 1)
		assert.Equal(t, StateReadyAnalyzed, session.State)
		assert.Len(t, session.Analyses, 1)
	})

	t.Run("零提交拒绝分析", func(t *testing.T) {
		svc, session := seeded(&stubCompleter{})
		session.Submissions = nil

		_, err := svc.runAnalysis(context.Background(), session, "")
		assert.ErrorIs(t, err, util.ErrNoSubmissions)
		assert.Equal(t, StateReadyRaw, session.State)
	})
}

func TestCandidateLabel(t *testing.T) {
	sub := &model.Submission{SubmittedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, "Candidate 1 (2026-03-01)", CandidateLabel(sub, 0))

	// 无时间戳时省略日期
	assert.Equal(t, "Candidate 3", CandidateLabel(&model.Submission{}, 2))
}
