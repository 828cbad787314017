package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"smartform_backend/internal/model"
	"smartform_backend/internal/repository"
	"smartform_backend/internal/util"
	"strings"
	"time"

	"gorm.io/gorm"
)

type FormService struct {
	FormRepo       *repository.FormRepository
	SubmissionRepo *repository.SubmissionRepository
}

func NewFormService(formRepo *repository.FormRepository, submissionRepo *repository.SubmissionRepository) *FormService {
	return &FormService{FormRepo: formRepo, SubmissionRepo: submissionRepo}
}

// QuestionInput 创建/更新问题的入参
type QuestionInput struct {
	Text    string   `json:"text" binding:"required"`
	Type    string   `json:"type" binding:"required"`
	Options []string `json:"options"`
}

// FormInput 创建/更新表单的入参
type FormInput struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Questions   []QuestionInput `json:"questions"`
}

// FormListItem 表单列表条目，附提交数供仪表盘展示
type FormListItem struct {
	Form            model.Form `json:"form"`
	SubmissionCount int64      `json:"submissionCount"`
}

func (s *FormService) Create(ownerID uint, input *FormInput) (*model.Form, error) {
	questions, err := buildQuestions(input.Questions)
	if err != nil {
		return nil, err
	}

	form := &model.Form{
		OwnerID:     ownerID,
		Name:        input.Name,
		Description: input.Description,
		Questions:   questions,
	}
	if err := s.FormRepo.Create(form); err != nil {
		return nil, err
	}
	return s.FormRepo.FindByID(form.ID)
}

func (s *FormService) Get(formID string, ownerID uint) (*model.Form, error) {
	return s.ownedForm(formID, ownerID)
}

func (s *FormService) List(ownerID uint, page, limit int) ([]FormListItem, int64, error) {
	forms, total, err := s.FormRepo.ListByOwner(ownerID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	items := make([]FormListItem, 0, len(forms))
	for i := range forms {
		count, err := s.SubmissionRepo.CountByForm(forms[i].ID)
		if err != nil {
			count = 0
		}
		items = append(items, FormListItem{Form: forms[i], SubmissionCount: count})
	}
	return items, total, nil
}

// Update 整体替换表单结构。问题列表全量覆盖，旧问题删除后按新顺序重建。
func (s *FormService) Update(formID string, ownerID uint, input *FormInput) (*model.Form, error) {
	form, err := s.ownedForm(formID, ownerID)
	if err != nil {
		return nil, err
	}

	questions, err := buildQuestions(input.Questions)
	if err != nil {
		return nil, err
	}

	for i := range form.Questions {
		if err := s.FormRepo.DeleteQuestion(form.Questions[i].ID); err != nil {
			return nil, err
		}
	}

	form.Name = input.Name
	form.Description = input.Description
	form.Questions = nil
	if err := s.FormRepo.Update(form); err != nil {
		return nil, err
	}

	for i := range questions {
		questions[i].FormID = form.ID
		if err := s.FormRepo.CreateQuestion(&questions[i]); err != nil {
			return nil, err
		}
	}
	return s.FormRepo.FindByID(form.ID)
}

func (s *FormService) Delete(formID string, ownerID uint) error {
	if _, err := s.ownedForm(formID, ownerID); err != nil {
		return err
	}
	return s.FormRepo.Delete(formID)
}

// Publish 发布表单并生成分享 slug；重复发布不更换已有 slug
func (s *FormService) Publish(formID string, ownerID uint) (*model.Form, error) {
	form, err := s.ownedForm(formID, ownerID)
	if err != nil {
		return nil, err
	}

	if form.ShareSlug == "" {
		slug, err := generateSlug()
		if err != nil {
			return nil, err
		}
		form.ShareSlug = slug
	}
	form.IsPublished = true
	now := time.Now()
	form.PublishedAt = &now

	if err := s.FormRepo.Update(form); err != nil {
		return nil, err
	}
	return form, nil
}

func (s *FormService) Unpublish(formID string, ownerID uint) (*model.Form, error) {
	form, err := s.ownedForm(formID, ownerID)
	if err != nil {
		return nil, err
	}
	form.IsPublished = false
	if err := s.FormRepo.Update(form); err != nil {
		return nil, err
	}
	return form, nil
}

// GetPublic 按 slug 取已发布表单（无需登录）
func (s *FormService) GetPublic(slug string) (*model.Form, error) {
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
	return form, nil
}

// FileQuestionAcceptedTypes 文件上传类问题声明的 MIME 白名单。
// 问题的 Options 即允许的 MIME 前缀或完整类型，空列表表示不限制。
func FileQuestionAcceptedTypes(form *model.Form, questionID string) ([]string, error) {
	for i := range form.Questions {
		q := &form.Questions[i]
		if q.ID != questionID {
			continue
		}
		if q.Type != model.QuestionFile {
			return nil, util.ErrInvalidQuestionType
		}
		return q.Options, nil
	}
	return nil, util.ErrQuestionNotFound
}

func (s *FormService) ownedForm(formID string, ownerID uint) (*model.Form, error) {
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

func buildQuestions(inputs []QuestionInput) ([]model.Question, error) {
	questions := make([]model.Question, 0, len(inputs))
	for i, q := range inputs {
		if !model.ValidQuestionType(q.Type) {
			return nil, fmt.Errorf("%w: %s", util.ErrInvalidQuestionType, q.Type)
		}
		qType := model.QuestionType(q.Type)
		if qType.HasOptions() && len(q.Options) == 0 {
			return nil, fmt.Errorf("%w: %s 类型缺少选项", util.ErrInvalidQuestionType, q.Type)
		}
		question := model.Question{
			Text:  strings.TrimSpace(q.Text),
			Type:  qType,
			Order: i,
		}
		if qType.HasOptions() {
			question.Options = q.Options
		}
		questions = append(questions, question)
	}
	return questions, nil
}

// FormTemplate 预置问题模板，建表单时一键套用
type FormTemplate struct {
	Key         string          `json:"key"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Questions   []QuestionInput `json:"questions"`
}

// Templates 内置模板列表
func (s *FormService) Templates() []FormTemplate {
	return []FormTemplate{
		{
			Key:         "job_application",
			Name:        "职位申请",
			Description: "候选人基础信息与动机收集",
			Questions: []QuestionInput{
				{Text: "你的姓名?", Type: string(model.QuestionText)},
				{Text: "联系邮箱?", Type: string(model.QuestionText)},
				{Text: "工作年限?", Type: string(model.QuestionNumber)},
				{Text: "为什么想加入我们?", Type: string(model.QuestionTextarea)},
				{Text: "期望的工作方式?", Type: string(model.QuestionDropdown), Options: []string{"远程", "混合", "坐班"}},
				{Text: "是否接受出差?", Type: string(model.QuestionYesNo)},
				{Text: "上传简历", Type: string(model.QuestionFile)},
			},
		},
		{
			Key:         "feedback",
			Name:        "满意度反馈",
			Description: "产品或活动反馈问卷",
			Questions: []QuestionInput{
				{Text: "整体满意度打分", Type: string(model.QuestionRating)},
				{Text: "你最喜欢哪些方面?", Type: string(model.QuestionCheckboxes), Options: []string{"功能", "性能", "设计", "支持"}},
				{Text: "是否愿意推荐给朋友?", Type: string(model.QuestionYesNo)},
				{Text: "其他建议", Type: string(model.QuestionTextarea)},
			},
		},
		{
			Key:         "event_registration",
			Name:        "活动报名",
			Description: "线下活动报名登记",
			Questions: []QuestionInput{
				{Text: "你的姓名?", Type: string(model.QuestionText)},
				{Text: "参加哪个场次?", Type: string(model.QuestionMultipleChoice), Options: []string{"上午场", "下午场"}},
				{Text: "饮食偏好", Type: string(model.QuestionDropdown), Options: []string{"不限", "素食", "清真"}},
			},
		},
	}
}

func generateSlug() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
