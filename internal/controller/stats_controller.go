package controller

import (
	"errors"
	"smartform_backend/internal/service"
	"smartform_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type StatsController struct {
	StatsService *service.StatsService
}

func NewStatsController(statsService *service.StatsService) *StatsController {
	return &StatsController{StatsService: statsService}
}

// Overview godoc
// @Summary 表单统计总览
// @Description 提交总数、最近提交时间等汇总信息
// @Tags 统计
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "表单ID"
// @Success 200 {object} util.Response{data=service.FormStatsOverview}
// @Failure 404 {object} util.Response "表单不存在"
// @Router /api/forms/{id}/stats/overview [get]
func (c *StatsController) Overview(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	overview, err := c.StatsService.GetFormOverview(ctx.Param("id"), claims.UserID)
	if err != nil {
		respondFormError(ctx, err)
		return
	}
	util.Success(ctx, overview)
}

// OverTime godoc
// @Summary 提交随时间分布
// @Description 按 UTC 日历日聚合的提交数，升序
// @Tags 统计
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "表单ID"
// @Success 200 {object} util.Response{data=object}
// @Failure 404 {object} util.Response "表单不存在"
// @Router /api/forms/{id}/stats/over-time [get]
func (c *StatsController) OverTime(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	counts, err := c.StatsService.GetResponsesOverTime(ctx.Param("id"), claims.UserID)
	if err != nil {
		respondFormError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"counts": counts})
}

// Distribution godoc
// @Summary 答案分布
// @Description 指定问题的答案计数分布，仅支持封闭选项类问题
// @Tags 统计
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "表单ID"
// @Param   questionId path string true "问题ID"
// @Success 200 {object} util.Response{data=service.AnswerDistribution}
// @Failure 400 {object} util.Response "问题类型不支持分布统计"
// @Failure 404 {object} util.Response "表单或问题不存在"
// @Router /api/forms/{id}/stats/distribution/{questionId} [get]
func (c *StatsController) Distribution(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	dist, err := c.StatsService.GetAnswerDistribution(ctx.Param("id"), ctx.Param("questionId"), claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrQuestionNotFound):
			util.Error(ctx, 404, "问题不存在")
		case errors.Is(err, util.ErrInvalidQuestionType):
			util.BadRequest(ctx, "该问题类型不支持分布统计")
		default:
			respondFormError(ctx, err)
		}
		return
	}
	util.Success(ctx, dist)
}
