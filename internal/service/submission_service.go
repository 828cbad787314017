package service

import (
	"encoding/json"
	"fmt"
	"smartform_backend/internal/model"
	"smartform_backend/internal/repository"
	"smartform_backend/internal/util"
	"smartform_backend/pkg/monitoring"
	"time"

	"gorm.io/gorm"
)

type SubmissionService struct {
	FormRepo       *repository.FormRepository
	SubmissionRepo *repository.SubmissionRepository
}

func NewSubmissionService(formRepo *repository.FormRepository, submissionRepo *repository.SubmissionRepository) *SubmissionService {
	return &SubmissionService{FormRepo: formRepo, SubmissionRepo: submissionRepo}
}

// SubmitInput 公开提交入参：问题 ID 到原始答案的映射。
// 答案值在反序列化边界被全量纠偏成字符串或字符串数组。
type SubmitInput struct {
	Answers map[string]json.RawMessage `json:"answers" binding:"required"`
}

// Submit 对已发布表单提交一份答卷。
// 数组形式的答案只允许出现在 checkboxes 类型的问题上；
// 未出现在表单结构中的问题 ID 直接拒绝。
func (s *SubmissionService) Submit(slug string, input *SubmitInput) (*model.Submission, error) {
	form, err := s.FormRepo.FindBySlug(slug)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrFormNotFound
		}
		return nil, err
	}
	if !form.IsPublished {
		return nil, util.ErrFormNotPublished
	}

	questionByID := make(map[string]*model.Question, len(form.Questions))
	for i := range form.Questions {
		questionByID[form.Questions[i].ID] = &form.Questions[i]
	}

	responses := make(model.ResponseList, 0, len(form.Questions))
	for i := range form.Questions {
		q := &form.Questions[i]
		raw, ok := input.Answers[q.ID]
		if !ok {
			responses = append(responses, model.Response{
				QuestionID:   q.ID,
				QuestionText: q.Text,
				Answer:       model.AnswerValue{IsNull: true},
			})
			continue
		}

		var answer model.AnswerValue
		if err := json.Unmarshal(raw, &answer); err != nil {
			return nil, fmt.Errorf("%w: 问题 %s", util.ErrInvalidAnswerShape, q.ID)
		}
		if answer.IsList && q.Type != model.QuestionCheckboxes {
			return nil, fmt.Errorf("%w: 问题 %s 不接受数组答案", util.ErrInvalidAnswerShape, q.ID)
		}
		responses = append(responses, model.Response{
			QuestionID:   q.ID,
			QuestionText: q.Text,
			Answer:       answer,
		})
	}

	for id := range input.Answers {
		if _, ok := questionByID[id]; !ok {
			return nil, fmt.Errorf("%w: %s", util.ErrQuestionNotFound, id)
		}
	}

	sub := &model.Submission{
		FormID:      form.ID,
		SubmittedAt: time.Now().UTC(),
		Responses:   responses,
	}
	if err := s.SubmissionRepo.Create(sub); err != nil {
		return nil, err
	}

	monitoring.SubmissionCounter.WithLabelValues(form.ID).Inc()
	return sub, nil
}

// List 列出表单的全部提交，仅限表单所有者；ascending 控制提交时间排序方向
func (s *SubmissionService) List(formID string, ownerID uint, ascending bool) ([]model.Submission, error) {
	if _, err := s.ownedForm(formID, ownerID); err != nil {
		return nil, err
	}
	return s.SubmissionRepo.ListByForm(formID, ascending)
}

func (s *SubmissionService) Get(submissionID string, ownerID uint) (*model.Submission, error) {
	sub, err := s.SubmissionRepo.FindByID(submissionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrSubmissionNotFound
		}
		return nil, err
	}
	if _, err := s.ownedForm(sub.FormID, ownerID); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *SubmissionService) ownedForm(formID string, ownerID uint) (*model.Form, error) {
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
