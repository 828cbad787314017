package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

// AnswerValue 单题的原始回答：null、字符串或字符串数组（仅 checkboxes）。
// 反序列化是全函数：数字、布尔等异常标量被强制转为字符串，绝不报错。
type AnswerValue struct {
	Scalar string
	List   []string
	IsList bool
	IsNull bool
}

func (a *AnswerValue) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		// 无法解析的片段按原文保留为标量
		a.Scalar = string(data)
		return nil
	}
	*a = CoerceAnswer(raw)
	return nil
}

func (a AnswerValue) MarshalJSON() ([]byte, error) {
	if a.IsNull {
		return []byte("null"), nil
	}
	if a.IsList {
		if a.List == nil {
			return json.Marshal([]string{})
		}
		return json.Marshal(a.List)
	}
	return json.Marshal(a.Scalar)
}

// CoerceAnswer 把任意解码值归一为 AnswerValue
func CoerceAnswer(raw interface{}) AnswerValue {
	switch v := raw.(type) {
	case nil:
		return AnswerValue{IsNull: true}
	case string:
		return AnswerValue{Scalar: v}
	case []interface{}:
		items := make([]string, 0, len(v))
		for _, item := range v {
			items = append(items, coerceScalar(item))
		}
		return AnswerValue{List: items, IsList: true}
	default:
		return AnswerValue{Scalar: coerceScalar(v)}
	}
}

func coerceScalar(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	default:
		b, err := json.Marshal(s)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Response 提交中对某一问题的回答，questionText 为提交时刻的问题原文快照
type Response struct {
	QuestionID   string      `json:"questionId"`
	QuestionText string      `json:"questionText"`
	Answer       AnswerValue `json:"answer"`
}

// ResponseList JSON 列存储的有序回答列表
type ResponseList []Response

func (l ResponseList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *ResponseList) Scan(value interface{}) error {
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
	return errors.New("unsupported type for ResponseList")
}

// Submission 一次完整的表单提交，创建后不再修改
// swagger:model Submission
type Submission struct {
	UUIDBase
	FormID      string       `gorm:"index;type:varchar(36)" json:"formId"`
	SubmittedAt time.Time    `json:"submittedAt"`
	Responses   ResponseList `gorm:"type:json" json:"responses"`
}

func (Submission) TableName() string {
	return "submissions"
}
