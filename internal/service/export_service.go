package service

import (
	"encoding/json"
	"fmt"
	"smartform_backend/internal/model"
	"smartform_backend/internal/repository"
	"smartform_backend/internal/util"
	"strings"

	"gorm.io/gorm"
)

// ExportFormat 导出格式
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

// ExportFile 导出产物：内容、MIME 类型与下载文件名
type ExportFile struct {
	Content  []byte
	MIMEType string
	Filename string
}

type ExportService struct {
	FormRepo       *repository.FormRepository
	SubmissionRepo *repository.SubmissionRepository
	Compare        *CompareService
}

func NewExportService(formRepo *repository.FormRepository, submissionRepo *repository.SubmissionRepository, compare *CompareService) *ExportService {
	return &ExportService{FormRepo: formRepo, SubmissionRepo: submissionRepo, Compare: compare}
}

// ExportRaw 导出原始提交数据。CSV 列顺序跟随表单结构中的问题顺序，
// JSON 保留完整保真度（含原始答案结构）。
func (s *ExportService) ExportRaw(formID string, ownerID uint, format ExportFormat) (*ExportFile, error) {
	form, err := s.ownedForm(formID, ownerID)
	if err != nil {
		return nil, err
	}
	subs, err := s.SubmissionRepo.ListByForm(formID, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrExportFailed, err)
	}
	if len(subs) == 0 {
		return nil, util.ErrNoSubmissions
	}

	switch format {
	case FormatJSON:
		content, err := json.MarshalIndent(subs, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", util.ErrExportFailed, err)
		}
		return &ExportFile{
			Content:  content,
			MIMEType: util.MimeJSON,
			Filename: fmt.Sprintf("raw_submissions_%s.json", formID),
		}, nil
	case FormatCSV:
		content := rawCSV(form, subs)
		return &ExportFile{
			Content:  content,
			MIMEType: util.MimeCSV,
			Filename: fmt.Sprintf("raw_submissions_%s.csv", formID),
		}, nil
	default:
		return nil, util.ErrUnsupportedFormat
	}
}

// ExportAnalyses 导出当前会话的 AI 分析报告（固定 11 列）
func (s *ExportService) ExportAnalyses(formID string, ownerID uint, format ExportFormat) (*ExportFile, error) {
	if _, err := s.ownedForm(formID, ownerID); err != nil {
		return nil, err
	}
	analyses, err := s.Compare.SessionAnalyses(formID)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatJSON:
		content, err := json.MarshalIndent(analyses, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", util.ErrExportFailed, err)
		}
		return &ExportFile{
			Content:  content,
			MIMEType: util.MimeJSON,
			Filename: fmt.Sprintf("ai_analysis_report_%s.json", formID),
		}, nil
	case FormatCSV:
		content := analysisCSV(analyses)
		return &ExportFile{
			Content:  content,
			MIMEType: util.MimeCSV,
			Filename: fmt.Sprintf("ai_analysis_report_%s.csv", formID),
		}, nil
	default:
		return nil, util.ErrUnsupportedFormat
	}
}

func (s *ExportService) ownedForm(formID string, ownerID uint) (*model.Form, error) {
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

// rawCSV 原始数据 CSV：元信息列在前，问题列按表单结构顺序展开
func rawCSV(form *model.Form, subs []model.Submission) []byte {
	var b strings.Builder

	header := []string{"Submission ID", "Submitted At", "Form ID"}
	for _, q := range form.Questions {
		header = append(header, q.Text)
	}
	writeCSVRow(&b, header)

	for si := range subs {
		sub := &subs[si]
		row := []string{sub.ID, sub.SubmittedAt.UTC().Format(util.TimeFormat), sub.FormID}
		for qi := range form.Questions {
			resp := MatchResponse(sub, &form.Questions[qi])
			if resp == nil {
				row = append(row, "")
				continue
			}
			row = append(row, CSVAnswer(resp.Answer))
		}
		writeCSVRow(&b, row)
	}

	return []byte(b.String())
}

// analysisCSV 分析报告 CSV。结构化的 categoryScores 序列化为 JSON 字符串塞进单元格，
// 布尔标记输出 Yes/No。
func analysisCSV(analyses []model.CandidateAnalysis) []byte {
	var b strings.Builder

	writeCSVRow(&b, []string{
		"Submission ID", "Candidate Alias", "Submitted At",
		"Overall Fit Score", "Fit Reasoning", "Summary",
		"Strengths", "Weaknesses", "Category Scores",
		"Flagged", "Flag Reason",
	})

	for _, a := range analyses {
		score := ""
		if a.OverallFitScore != nil {
			score = fmt.Sprintf("%g", *a.OverallFitScore)
		}
		categoryScores := ""
		if len(a.CategoryScores) > 0 {
			if raw, err := json.Marshal(a.CategoryScores); err == nil {
				categoryScores = string(raw)
			}
		}
		flagged := "No"
		if a.IsFlagged {
			flagged = "Yes"
		}
		writeCSVRow(&b, []string{
			a.SubmissionID,
			a.CandidateAlias,
			a.SubmittedAt,
			score,
			a.FitReasoning,
			a.Summary,
			strings.Join(a.Strengths, util.CSVCellJoinSeparator),
			strings.Join(a.Weaknesses, util.CSVCellJoinSeparator),
			categoryScores,
			flagged,
			a.FlagReason,
		})
	}

	return []byte(b.String())
}

// writeCSVRow 每个单元格一律加引号，内部引号翻倍（RFC 4180）
func writeCSVRow(b *strings.Builder, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(cell, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteString("\r\n")
}
