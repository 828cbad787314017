package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// QuestionType 问题类型
type QuestionType string

const (
	QuestionText           QuestionType = "text"
	QuestionNumber         QuestionType = "number"
	QuestionTextarea       QuestionType = "textarea"
	QuestionDropdown       QuestionType = "dropdown"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionCheckboxes     QuestionType = "checkboxes"
	QuestionYesNo          QuestionType = "yes_no"
	QuestionRating         QuestionType = "rating"
	QuestionFile           QuestionType = "file"
)

// ValidQuestionType 校验问题类型是否合法
func ValidQuestionType(t string) bool {
	switch QuestionType(t) {
	case QuestionText, QuestionNumber, QuestionTextarea, QuestionDropdown,
		QuestionMultipleChoice, QuestionCheckboxes, QuestionYesNo,
		QuestionRating, QuestionFile:
		return true
	}
	return false
}

// HasOptions 该类型是否携带选项列表（选项标签、评分刻度或允许的 MIME 模式）
func (t QuestionType) HasOptions() bool {
	switch t {
	case QuestionDropdown, QuestionMultipleChoice, QuestionCheckboxes,
		QuestionRating, QuestionFile:
		return true
	}
	return false
}

// StringList JSON 列存储的字符串数组
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return errors.New("unsupported type for StringList")
}

// swagger:model Form
type Form struct {
	UUIDBase
	OwnerID     uint       `gorm:"index;type:bigint unsigned" json:"ownerId"`
	Name        string     `gorm:"size:255;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	IsPublished bool       `gorm:"default:false" json:"isPublished"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	ShareSlug   string     `gorm:"size:64;index" json:"shareSlug,omitempty"`
	Questions   []Question `gorm:"foreignKey:FormID" json:"questions,omitempty"`
}

func (Form) TableName() string {
	return "forms"
}

// Question 表单中的单个问题。一旦有提交引用（按 id，其次按原文匹配），视为不可变。
// swagger:model Question
type Question struct {
	UUIDBase
	FormID  string       `gorm:"index;type:varchar(36)" json:"formId"`
	Text    string       `gorm:"type:text;not null" json:"text"`
	Type    QuestionType `gorm:"size:50;not null" json:"type"`
	Options StringList   `gorm:"type:json" json:"options,omitempty"`
	Order   int          `gorm:"default:0" json:"order"`
}

func (Question) TableName() string {
	return "questions"
}
