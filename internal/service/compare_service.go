package service

import (
	"context"
	"fmt"
	"smartform_backend/internal/model"
	"smartform_backend/internal/repository"
	"smartform_backend/internal/util"
	"sort"
	"sync"

	"gorm.io/gorm"
)

// CompareState 比较工作流状态机
type CompareState string

const (
	StateIdle                CompareState = "idle"
	StateFetchingSchema      CompareState = "fetching_schema"
	StateFetchingSubmissions CompareState = "fetching_submissions"
	StateReadyRaw            CompareState = "ready_raw"
	StateAnalyzing           CompareState = "analyzing"
	StateReadyAnalyzed       CompareState = "ready_analyzed"
)

// CompareSession 一次比较会话的显式上下文：表单结构、提交快照、分析结果。
// 聚合函数对给定快照是纯函数，快照整体替换，不做增量修补。
type CompareSession struct {
	mu sync.Mutex

	FormID      string
	Form        *model.Form
	Submissions []model.Submission
	Analyses    []model.CandidateAnalysis
	State       CompareState
}

type CompareService struct {
	FormRepo       *repository.FormRepository
	SubmissionRepo *repository.SubmissionRepository
	AI             *AIService

	mu       sync.Mutex
	sessions map[string]*CompareSession
}

func NewCompareService(formRepo *repository.FormRepository, submissionRepo *repository.SubmissionRepository, ai *AIService) *CompareService {
	return &CompareService{
		FormRepo:       formRepo,
		SubmissionRepo: submissionRepo,
		AI:             ai,
		sessions:       make(map[string]*CompareSession),
	}
}

// LoadSession 拉取表单结构与提交快照，进入 ReadyRaw。
// 结构不可用属于页面级错误，中止全部依赖渲染；零提交是合法状态。
func (s *CompareService) LoadSession(formID string, ownerID uint) (*CompareSession, error) {
	session := s.session(formID)
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.State == StateAnalyzing {
		return nil, util.ErrAnalysisInFlight
	}

	session.State = StateFetchingSchema
	form, err := s.FormRepo.FindByID(formID)
	if err != nil {
		session.State = StateIdle
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrFormNotFound
		}
		return nil, fmt.Errorf("fetch form structure: %w", err)
	}
	if form.OwnerID != ownerID {
		session.State = StateIdle
		return nil, util.ErrPermissionDenied
	}

	session.State = StateFetchingSubmissions
	subs, err := s.SubmissionRepo.ListByForm(formID, true)
	if err != nil {
		session.State = StateIdle
		return nil, fmt.Errorf("fetch submissions: %w", err)
	}

	session.Form = form
	session.Submissions = subs
	session.State = StateReadyRaw
	return session, nil
}

// Refresh 整体替换提交快照并重置到 ReadyRaw（丢弃旧的分析结果）
func (s *CompareService) Refresh(formID string, ownerID uint) (*CompareSession, error) {
	session := s.session(formID)
	session.mu.Lock()
	if session.State == StateAnalyzing {
		session.mu.Unlock()
		return nil, util.ErrAnalysisInFlight
	}
	session.Analyses = nil
	session.mu.Unlock()
	return s.LoadSession(formID, ownerID)
}

// Analyze 触发 AI 批量分析。只能从 Ready 进入，且至少要有一条提交；
// 同一会话同时只允许一个在途请求，失败回到 ReadyRaw 并上抛错误，绝不自动重试。
func (s *CompareService) Analyze(ctx context.Context, formID string, ownerID uint, customInstructions string) ([]model.CandidateAnalysis, error) {
	session, err := s.LoadSession(formID, ownerID)
	if err != nil {
		return nil, err
	}
	return s.runAnalysis(ctx, session, customInstructions)
}

// runAnalysis 在已就绪的会话上执行分析并推进状态机
func (s *CompareService) runAnalysis(ctx context.Context, session *CompareSession, customInstructions string) ([]model.CandidateAnalysis, error) {
	session.mu.Lock()
	if session.State != StateReadyRaw && session.State != StateReadyAnalyzed {
		session.mu.Unlock()
		return nil, util.ErrAnalysisInFlight
	}
	if len(session.Submissions) == 0 {
		session.mu.Unlock()
		return nil, util.ErrNoSubmissions
	}
	form := session.Form
	subs := session.Submissions
	session.State = StateAnalyzing
	session.mu.Unlock()

	analyses, err := s.AI.AnalyzeCandidates(ctx, form, subs, customInstructions)

	session.mu.Lock()
	defer session.mu.Unlock()
	if err != nil {
		// 失败不影响已就绪的原始表格
		session.State = StateReadyRaw
		return nil, fmt.Errorf("%w: %v", util.ErrAnalysisFailed, err)
	}
	session.Analyses = analyses
	session.State = StateReadyAnalyzed
	return analyses, nil
}

// SessionAnalyses 当前会话持有的分析结果（仅内存，不落库）
func (s *CompareService) SessionAnalyses(formID string) ([]model.CandidateAnalysis, error) {
	session := s.session(formID)
	session.mu.Lock()
	defer session.mu.Unlock()
	if len(session.Analyses) == 0 {
		return nil, util.ErrNoAnalyses
	}
	out := make([]model.CandidateAnalysis, len(session.Analyses))
	copy(out, session.Analyses)
	return out, nil
}

func (s *CompareService) session(formID string) *CompareSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[formID]
	if !ok {
		session = &CompareSession{FormID: formID, State: StateIdle}
		s.sessions[formID] = session
	}
	return session
}

// ComparisonRow 比较矩阵中一行：一个问题对全部候选人的答案
type ComparisonRow struct {
	QuestionID   string         `json:"questionId"`
	QuestionText string         `json:"questionText"`
	Cells        []DisplayValue `json:"cells"`
}

// ComparisonTable 原始比较矩阵（问题 × 候选人），纯展示数据，每次重算
type ComparisonTable struct {
	Header []string        `json:"header"`
	Rows   []ComparisonRow `json:"rows"`
}

// BuildRawComparisonTable 构建原始比较矩阵。匹配失败的单元格为未作答标记，
// 不视为错误；结果对于给定输入是确定且无状态的。
func BuildRawComparisonTable(questions []model.Question, submissions []model.Submission) ComparisonTable {
	header := make([]string, 0, len(submissions)+1)
	header = append(header, "Question")
	for i := range submissions {
		header = append(header, CandidateLabel(&submissions[i], i))
	}

	rows := make([]ComparisonRow, 0, len(questions))
	for qi := range questions {
		q := &questions[qi]
		row := ComparisonRow{
			QuestionID:   q.ID,
			QuestionText: q.Text,
			Cells:        make([]DisplayValue, 0, len(submissions)),
		}
		for si := range submissions {
			resp := MatchResponse(&submissions[si], q)
			if resp == nil {
				row.Cells = append(row.Cells, DisplayValue{Text: NoAnswerText, IsNoAnswer: true})
				continue
			}
			row.Cells = append(row.Cells, DisplayAnswer(resp.Answer))
		}
		rows = append(rows, row)
	}

	return ComparisonTable{Header: header, Rows: rows}
}

// CandidateLabel 候选人列头：Candidate N (提交日期)
func CandidateLabel(sub *model.Submission, index int) string {
	if sub.SubmittedAt.IsZero() {
		return fmt.Sprintf("Candidate %d", index+1)
	}
	return fmt.Sprintf("Candidate %d (%s)", index+1, sub.SubmittedAt.UTC().Format(util.DateFormat))
}

// RawTable 当前会话的比较矩阵
func (s *CompareService) RawTable(formID string, ownerID uint) (*ComparisonTable, error) {
	session, err := s.LoadSession(formID, ownerID)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	table := BuildRawComparisonTable(session.Form.Questions, session.Submissions)
	return &table, nil
}

// RankedCandidate 排名条目，附带完整分析用于详情卡渲染
type RankedCandidate struct {
	Rank            int                     `json:"rank"`
	SubmissionID    string                  `json:"submissionId"`
	CandidateAlias  string                  `json:"candidateAlias"`
	OverallFitScore *float64                `json:"overallFitScore,omitempty"`
	FitBand         model.FitBand           `json:"fitBand"`
	Analysis        model.CandidateAnalysis `json:"analysis"`
}

// RankCandidates 按 overallFitScore 降序稳定排序；缺失分数仅在排序时按 0 处理，
// 不会被提升成真实分数。同分保持输入相对顺序，没有隐藏的次级排序键。
func RankCandidates(analyses []model.CandidateAnalysis, submissions []model.Submission) []RankedCandidate {
	ranked := make([]model.CandidateAnalysis, len(analyses))
	copy(ranked, analyses)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FitScore() > ranked[j].FitScore()
	})

	submittedAt := make(map[string]string, len(submissions))
	for i := range submissions {
		if !submissions[i].SubmittedAt.IsZero() {
			submittedAt[submissions[i].ID] = submissions[i].SubmittedAt.UTC().Format(util.TimeFormat)
		}
	}

	out := make([]RankedCandidate, 0, len(ranked))
	for i, analysis := range ranked {
		if analysis.CandidateAlias == "" {
			analysis.CandidateAlias = FallbackAlias(analysis.SubmissionID)
		}
		if analysis.SubmittedAt == "" {
			analysis.SubmittedAt = submittedAt[analysis.SubmissionID]
		}
		out = append(out, RankedCandidate{
			Rank:            i + 1,
			SubmissionID:    analysis.SubmissionID,
			CandidateAlias:  analysis.CandidateAlias,
			OverallFitScore: analysis.OverallFitScore,
			FitBand:         analysis.Band(),
			Analysis:        analysis,
		})
	}
	return out
}

// FallbackAlias 分析结果缺少别名时，用 submissionId 前 6 位构造展示名
func FallbackAlias(submissionID string) string {
	short := submissionID
	if len(short) > 6 {
		short = short[:6]
	}
	return fmt.Sprintf("Candidate (ID: %s...)", short)
}

// Ranking 当前会话的候选人排名
func (s *CompareService) Ranking(formID string, ownerID uint) ([]RankedCandidate, error) {
	form, err := s.FormRepo.FindByID(formID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrFormNotFound
		}
		return nil, err
	}
	if form.OwnerID != ownerID {
		return nil, util.ErrPermissionDenied
	}

	session := s.session(formID)
	session.mu.Lock()
	defer session.mu.Unlock()
	if len(session.Analyses) == 0 {
		return nil, util.ErrNoAnalyses
	}
	return RankCandidates(session.Analyses, session.Submissions), nil
}
