package util

import "errors"

var (
	ErrEmailRegistered  = errors.New("该邮箱已被注册")
	ErrPermissionDenied = errors.New("permission denied")

	// 表单结构不可用时中止全部依赖渲染
	ErrFormNotFound     = errors.New("form not found")
	ErrFormNotPublished = errors.New("form not published or not accessible")
	ErrQuestionNotFound = errors.New("question not found")

	// 提交不可用与"零提交"是两种状态，后者不是错误
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrNoSubmissions      = errors.New("no submissions for this form")

	// AI 协作方返回非成功或畸形负载；不影响已渲染的原始数据
	ErrAnalysisFailed   = errors.New("AI analysis failed")
	ErrAnalysisInFlight = errors.New("an analysis request is already in progress")
	ErrNoAnalyses       = errors.New("no analysis results available")

	// 导出序列化失败时放弃操作，不产生部分文件
	ErrExportFailed      = errors.New("export generation failed")
	ErrUnsupportedFormat = errors.New("unsupported export format")

	ErrInvalidQuestionType = errors.New("invalid question type")
	ErrInvalidAnswerShape  = errors.New("array answers are only allowed for checkbox questions")
)
