package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"smartform_backend/internal/service"
	"smartform_backend/internal/util"
	"time"

	"github.com/gin-gonic/gin"
)

type SubmissionController struct {
	SubmissionService *service.SubmissionService
	FormService       *service.FormService
	StorageService    *service.StorageService
	AIService         *service.AIService
}

func NewSubmissionController(submissionService *service.SubmissionService, formService *service.FormService, storageService *service.StorageService, aiService *service.AIService) *SubmissionController {
	return &SubmissionController{
		SubmissionService: submissionService,
		FormService:       formService,
		StorageService:    storageService,
		AIService:         aiService,
	}
}

// Submit godoc
// @Summary 提交表单
// @Description 对已发布表单提交一份答卷（无需登录）
// @Tags 提交
// @Accept  json
// @Produce  json
// @Param   slug path string true "分享标识"
// @Param   body body service.SubmitInput true "答案映射"
// @Success 201 {object} util.Response{data=object}
// @Failure 400 {object} util.Response "答案格式错误"
// @Failure 404 {object} util.Response "表单不存在或未发布"
// @Router /api/public/forms/{slug}/submissions [post]
func (c *SubmissionController) Submit(ctx *gin.Context) {
	var input service.SubmitInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	sub, err := c.SubmissionService.Submit(ctx.Param("slug"), &input)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrFormNotFound), errors.Is(err, util.ErrFormNotPublished):
			util.Error(ctx, 404, "表单不存在或未发布")
		case errors.Is(err, util.ErrInvalidAnswerShape), errors.Is(err, util.ErrQuestionNotFound):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, gin.H{"id": sub.ID, "submittedAt": sub.SubmittedAt})
}

// Upload godoc
// @Summary 上传附件
// @Description 文件上传类问题的附件上传，返回可公开访问的文件地址
// @Tags 提交
// @Accept  multipart/form-data
// @Produce  json
// @Param   slug path string true "分享标识"
// @Param   questionId formData string true "目标文件问题ID"
// @Param   file formData file true "文件"
// @Success 200 {object} util.Response{data=object}
// @Failure 400 {object} util.Response "文件缺失或类型不允许"
// @Router /api/public/forms/{slug}/uploads [post]
func (c *SubmissionController) Upload(ctx *gin.Context) {
	form, err := c.FormService.GetPublic(ctx.Param("slug"))
	if err != nil {
		util.Error(ctx, 404, "表单不存在或未发布")
		return
	}

	questionID := ctx.PostForm("questionId")
	if questionID == "" {
		util.BadRequest(ctx, "缺少 questionId")
		return
	}
	allowedTypes, err := service.FileQuestionAcceptedTypes(form, questionID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrQuestionNotFound):
			util.BadRequest(ctx, "问题不存在")
		case errors.Is(err, util.ErrInvalidQuestionType):
			util.BadRequest(ctx, "该问题不接受文件上传")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "缺少文件")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	contentType, err := util.ValidateMimeType(file, allowedTypes)
	if err != nil {
		util.BadRequest(ctx, "文件类型不允许: "+contentType)
		return
	}
	// 类型嗅探消费了文件头，回到起点再上传
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	filename := fmt.Sprintf("%s/%d%s", ctx.Param("slug"), time.Now().UnixNano(), filepath.Ext(fileHeader.Filename))
	uploadCtx, cancel := context.WithTimeout(ctx.Request.Context(), 30*time.Second)
	defer cancel()

	url, err := c.StorageService.Upload(uploadCtx, filename, file, fileHeader.Size, contentType)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"url": url})
}

// List godoc
// @Summary 提交列表
// @Description 表单的全部提交，默认按提交时间升序
// @Tags 提交
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "表单ID"
// @Param   order query string false "排序方向 asc|desc" default(asc)
// @Success 200 {object} util.Response{data=object}
// @Failure 404 {object} util.Response "表单不存在"
// @Router /api/forms/{id}/submissions [get]
func (c *SubmissionController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	ascending := ctx.DefaultQuery("order", "asc") != "desc"
	subs, err := c.SubmissionService.List(ctx.Param("id"), claims.UserID, ascending)
	if err != nil {
		respondFormError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"submissions": subs, "total": len(subs)})
}

// Get godoc
// @Summary 提交详情
// @Tags 提交
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "提交ID"
// @Success 200 {object} util.Response{data=model.Submission}
// @Failure 404 {object} util.Response "提交不存在"
// @Router /api/submissions/{id} [get]
func (c *SubmissionController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	sub, err := c.SubmissionService.Get(ctx.Param("id"), claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrSubmissionNotFound) {
			util.Error(ctx, 404, "提交不存在")
		} else {
			respondFormError(ctx, err)
		}
		return
	}
	util.Success(ctx, sub)
}

// AnalyzeRequest 单候选人分析请求
type AnalyzeRequest struct {
	CustomInstructions string `json:"customInstructions"`
}

// Analyze godoc
// @Summary 分析单个候选人
// @Description 对单份提交运行 AI 分析
// @Tags 提交
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "提交ID"
// @Param   body body AnalyzeRequest false "附加评估要求"
// @Success 200 {object} util.Response{data=model.CandidateAnalysis}
// @Failure 502 {object} util.Response "AI 服务不可用"
// @Router /api/submissions/{id}/analyze [post]
func (c *SubmissionController) Analyze(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req AnalyzeRequest
	_ = ctx.ShouldBindJSON(&req)

	sub, err := c.SubmissionService.Get(ctx.Param("id"), claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrSubmissionNotFound) {
			util.Error(ctx, 404, "提交不存在")
		} else {
			respondFormError(ctx, err)
		}
		return
	}

	form, err := c.FormService.Get(sub.FormID, claims.UserID)
	if err != nil {
		respondFormError(ctx, err)
		return
	}

	analysis, err := c.AIService.AnalyzeSubmission(ctx.Request.Context(), form, sub, req.CustomInstructions)
	if err != nil {
		util.Error(ctx, 502, "AI 分析失败: "+err.Error())
		return
	}
	util.Success(ctx, analysis)
}
