package model

// CandidateAnalysis AI 分析产出的候选人评估结果。仅存在于当前比较会话的内存里，
// 核心不落库；字段名与 AI 协作方的 JSON 契约保持一致，不可改动。
// swagger:model CandidateAnalysis
type CandidateAnalysis struct {
	SubmissionID    string             `json:"submissionId"`
	CandidateAlias  string             `json:"candidateAlias"`
	SubmittedAt     string             `json:"submittedAt"`
	Summary         string             `json:"summary"`
	Strengths       []string           `json:"strengths"`
	Weaknesses      []string           `json:"weaknesses"`
	CategoryScores  map[string]float64 `json:"categoryScores"`
	OverallFitScore *float64           `json:"overallFitScore,omitempty"`
	FitReasoning    string             `json:"fitReasoning"`
	IsFlagged       bool               `json:"isFlagged"`
	FlagReason      string             `json:"flagReason,omitempty"`
}

// FitScore 缺失分数按 0 参与排序，但不会被提升为真实分数
func (a *CandidateAnalysis) FitScore() float64 {
	if a.OverallFitScore == nil {
		return 0
	}
	return *a.OverallFitScore
}

// FitBand 展示用评分档位
type FitBand string

const (
	FitBandHigh    FitBand = "high"
	FitBandMedium  FitBand = "medium"
	FitBandLow     FitBand = "low"
	FitBandNeutral FitBand = "neutral"
)

// Band 评分档位：>=8 high，>=5 medium，>0 low，0 或缺失为 neutral
func (a *CandidateAnalysis) Band() FitBand {
	score := a.FitScore()
	switch {
	case score >= 8:
		return FitBandHigh
	case score >= 5:
		return FitBandMedium
	case score > 0:
		return FitBandLow
	default:
		return FitBandNeutral
	}
}
