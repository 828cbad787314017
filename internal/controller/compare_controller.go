package controller

import (
	"errors"
	"smartform_backend/internal/service"
	"smartform_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CompareController struct {
	CompareService *service.CompareService
}

func NewCompareController(compareService *service.CompareService) *CompareController {
	return &CompareController{CompareService: compareService}
}

// Table godoc
// @Summary 原始比较矩阵
// @Description 问题 × 候选人的原始答案表格
// @Tags 比较
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "表单ID"
// @Success 200 {object} util.Response{data=service.ComparisonTable}
// @Failure 404 {object} util.Response "表单不存在"
// @Failure 409 {object} util.Response "分析进行中"
// @Router /api/forms/{id}/compare/table [get]
func (c *CompareController) Table(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	table, err := c.CompareService.RawTable(ctx.Param("id"), claims.UserID)
	if err != nil {
		respondCompareError(ctx, err)
		return
	}
	util.Success(ctx, table)
}

// CompareAnalyzeRequest 批量分析请求
type CompareAnalyzeRequest struct {
	CustomInstructions string `json:"customInstructions"`
}

// Analyze godoc
// @Summary 批量候选人分析
// @Description 对表单的全部提交运行一次 AI 分析；同一表单同时只允许一个在途请求
// @Tags 比较
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "表单ID"
// @Param   body body CompareAnalyzeRequest false "附加评估要求"
// @Success 200 {object} util.Response{data=object}
// @Failure 409 {object} util.Response "分析进行中"
// @Failure 502 {object} util.Response "AI 分析失败"
// @Router /api/forms/{id}/compare/analyze [post]
func (c *CompareController) Analyze(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req CompareAnalyzeRequest
	_ = ctx.ShouldBindJSON(&req)

	analyses, err := c.CompareService.Analyze(ctx.Request.Context(), ctx.Param("id"), claims.UserID, req.CustomInstructions)
	if err != nil {
		if errors.Is(err, util.ErrAnalysisFailed) {
			util.Error(ctx, 502, err.Error())
			return
		}
		respondCompareError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"analyses": analyses})
}

// Ranking godoc
// @Summary 候选人排名
// @Description 按综合匹配分降序的候选人排名，需先完成分析
// @Tags 比较
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "表单ID"
// @Success 200 {object} util.Response{data=object}
// @Failure 409 {object} util.Response "尚无分析结果"
// @Router /api/forms/{id}/compare/ranking [get]
func (c *CompareController) Ranking(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	ranked, err := c.CompareService.Ranking(ctx.Param("id"), claims.UserID)
	if err != nil {
		respondCompareError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"ranking": ranked})
}

// Refresh godoc
// @Summary 刷新比较数据
// @Description 重新拉取提交快照并丢弃旧的分析结果
// @Tags 比较
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "表单ID"
// @Success 200 {object} util.Response{data=object}
// @Failure 409 {object} util.Response "分析进行中"
// @Router /api/forms/{id}/compare/refresh [post]
func (c *CompareController) Refresh(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	session, err := c.CompareService.Refresh(ctx.Param("id"), claims.UserID)
	if err != nil {
		respondCompareError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"state": session.State, "submissionCount": len(session.Submissions)})
}

func respondCompareError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrAnalysisInFlight):
		util.Error(ctx, 409, "分析进行中，请稍后重试")
	case errors.Is(err, util.ErrNoSubmissions):
		util.Error(ctx, 409, "该表单还没有提交")
	case errors.Is(err, util.ErrNoAnalyses):
		util.Error(ctx, 409, "尚无分析结果，请先运行分析")
	default:
		respondFormError(ctx, err)
	}
}
