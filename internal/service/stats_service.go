package service

import (
	"smartform_backend/internal/model"
	"smartform_backend/internal/repository"
	"smartform_backend/internal/util"
	"sort"

	"gorm.io/gorm"
)

type StatsService struct {
	FormRepo       *repository.FormRepository
	SubmissionRepo *repository.SubmissionRepository
}

func NewStatsService(formRepo *repository.FormRepository, submissionRepo *repository.SubmissionRepository) *StatsService {
	return &StatsService{FormRepo: formRepo, SubmissionRepo: submissionRepo}
}

// distributableTypes 适合做答案分布统计的问题类型。
// text/number/textarea/file 刻意排除在外，自由文本没有有意义的分布。
var distributableTypes = map[model.QuestionType]bool{
	model.QuestionDropdown:       true,
	model.QuestionMultipleChoice: true,
	model.QuestionCheckboxes:     true,
	model.QuestionYesNo:          true,
	model.QuestionRating:         true,
}

// Distributable 该问题类型是否可做分布统计
func Distributable(t model.QuestionType) bool {
	return distributableTypes[t]
}

// AnswerDistribution token→出现次数。HasData 为 false 表示"无数据"，
// 与空映射是两种状态，调用方据此渲染提示而不是空图表
type AnswerDistribution struct {
	QuestionID   string         `json:"questionId"`
	QuestionText string         `json:"questionText"`
	Counts       map[string]int `json:"counts"`
	Total        int            `json:"total"`
	HasData      bool           `json:"hasData"`
}

// BuildAnswerDistribution 统计某问题在全部提交中的答案分布。
// checkboxes 的一次提交可能同时累加多个计数，每个选中项都是独立数据点。
func BuildAnswerDistribution(q *model.Question, submissions []model.Submission) AnswerDistribution {
	dist := AnswerDistribution{
		QuestionID:   q.ID,
		QuestionText: q.Text,
		Counts:       map[string]int{},
	}
	if !Distributable(q.Type) {
		return dist
	}

	for i := range submissions {
		resp := MatchResponse(&submissions[i], q)
		if resp == nil {
			continue
		}
		for _, token := range AnswerTokens(resp.Answer) {
			dist.Counts[token]++
			dist.Total++
		}
	}

	dist.HasData = dist.Total > 0
	return dist
}

// DateCount 按自然日统计的提交量
type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// BuildResponsesOverTime 按提交日期（UTC 日期部分，非滚动 24 小时窗口）分桶，
// 升序返回；submittedAt 为零值的提交不进此视图，但仍计入其余总量统计
func BuildResponsesOverTime(submissions []model.Submission) []DateCount {
	byDate := map[string]int{}
	for i := range submissions {
		if submissions[i].SubmittedAt.IsZero() {
			continue
		}
		key := submissions[i].SubmittedAt.UTC().Format(util.DateFormat)
		byDate[key]++
	}

	out := make([]DateCount, 0, len(byDate))
	for date, count := range byDate {
		out = append(out, DateCount{Date: date, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// FormStatsOverview 单表单统计概览
type FormStatsOverview struct {
	FormID            string           `json:"formId"`
	FormName          string           `json:"formName"`
	TotalSubmissions  int64            `json:"totalSubmissions"`
	DistributableQIDs []model.Question `json:"distributableQuestions"`
	ResponsesOverTime []DateCount      `json:"responsesOverTime"`
}

// GetFormOverview 表单统计概览：提交总量、可分布统计的问题列表、按日趋势
func (s *StatsService) GetFormOverview(formID string, ownerID uint) (*FormStatsOverview, error) {
	form, err := s.ownedForm(formID, ownerID)
	if err != nil {
		return nil, err
	}

	total, err := s.SubmissionRepo.CountByForm(formID)
	if err != nil {
		return nil, util.ErrSubmissionNotFound
	}

	subs, err := s.SubmissionRepo.ListByForm(formID, true)
	if err != nil {
		return nil, util.ErrSubmissionNotFound
	}

	suitable := make([]model.Question, 0, len(form.Questions))
	for _, q := range form.Questions {
		if Distributable(q.Type) {
			suitable = append(suitable, q)
		}
	}

	return &FormStatsOverview{
		FormID:            form.ID,
		FormName:          form.Name,
		TotalSubmissions:  total,
		DistributableQIDs: suitable,
		ResponsesOverTime: BuildResponsesOverTime(subs),
	}, nil
}

// GetAnswerDistribution 指定问题的答案分布
func (s *StatsService) GetAnswerDistribution(formID, questionID string, ownerID uint) (*AnswerDistribution, error) {
	form, err := s.ownedForm(formID, ownerID)
	if err != nil {
		return nil, err
	}

	var question *model.Question
	for i := range form.Questions {
		if form.Questions[i].ID == questionID {
			question = &form.Questions[i]
			break
		}
	}
	if question == nil {
		return nil, util.ErrQuestionNotFound
	}
	if !Distributable(question.Type) {
		return nil, util.ErrInvalidQuestionType
	}

	subs, err := s.SubmissionRepo.ListByForm(formID, true)
	if err != nil {
		return nil, util.ErrSubmissionNotFound
	}

	dist := BuildAnswerDistribution(question, subs)
	return &dist, nil
}

// GetResponsesOverTime 按日提交趋势
func (s *StatsService) GetResponsesOverTime(formID string, ownerID uint) ([]DateCount, error) {
	if _, err := s.ownedForm(formID, ownerID); err != nil {
		return nil, err
	}
	subs, err := s.SubmissionRepo.ListByForm(formID, true)
	if err != nil {
		return nil, util.ErrSubmissionNotFound
	}
	return BuildResponsesOverTime(subs), nil
}

func (s *StatsService) ownedForm(formID string, ownerID uint) (*model.Form, error) {
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
	return form, nil
}
