package service

import (
	"smartform_backend/internal/model"
	"smartform_backend/internal/util"
	"strings"
)

// NoAnswerText 显式"未作答"标记，与合法的空字符串 token 严格区分
const NoAnswerText = "No answer"

// FileLinkLabel 文件类答案在表格中的链接文案
const FileLinkLabel = "View File"

// AnswerTokens 把原始回答归一为零个或多个去除首尾空白的非空 token。
// 数组答案（checkboxes）逐项展开，空项丢弃；标量答案产生单个 token，
// 空白答案不产生 token，对分布统计零贡献。
func AnswerTokens(a model.AnswerValue) []string {
	if a.IsNull {
		return nil
	}
	if a.IsList {
		tokens := make([]string, 0, len(a.List))
		for _, item := range a.List {
			item = strings.TrimSpace(item)
			if item != "" {
				tokens = append(tokens, item)
			}
		}
		return tokens
	}
	s := strings.TrimSpace(a.Scalar)
	if s == "" {
		return nil
	}
	return []string{s}
}

// DisplayValue 单元格的展示形态
type DisplayValue struct {
	Text       string `json:"text"`
	IsNoAnswer bool   `json:"isNoAnswer"`
	IsFileLink bool   `json:"isFileLink"`
	URL        string `json:"url,omitempty"`
}

// DisplayAnswer 生成表格展示值：无 token 显示未作答标记；
// http/https 绝对地址按文件链接呈现；其余用逗号连接
func DisplayAnswer(a model.AnswerValue) DisplayValue {
	tokens := AnswerTokens(a)
	if len(tokens) == 0 {
		return DisplayValue{Text: NoAnswerText, IsNoAnswer: true}
	}
	if !a.IsList && util.IsHTTPURL(tokens[0]) {
		return DisplayValue{Text: FileLinkLabel, IsFileLink: true, URL: tokens[0]}
	}
	return DisplayValue{Text: strings.Join(tokens, util.DisplayJoinSeparator)}
}

// CSVAnswer 生成 CSV 单元格值，数组用分号连接；未作答为空串
func CSVAnswer(a model.AnswerValue) string {
	tokens := AnswerTokens(a)
	if len(tokens) == 0 {
		return ""
	}
	return strings.Join(tokens, util.CSVCellJoinSeparator)
}

// MatchResponse 在提交中定位某问题的回答：先按 questionId，
// 再按问题原文精确匹配（容忍表单结构漂移）；都失败返回 nil
func MatchResponse(sub *model.Submission, q *model.Question) *model.Response {
	for i := range sub.Responses {
		if q.ID != "" && sub.Responses[i].QuestionID == q.ID {
			return &sub.Responses[i]
		}
	}
	for i := range sub.Responses {
		if q.Text != "" && sub.Responses[i].QuestionText == q.Text {
			return &sub.Responses[i]
		}
	}
	return nil
}
