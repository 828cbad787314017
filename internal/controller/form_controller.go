package controller

import (
	"errors"
	"smartform_backend/internal/service"
	"smartform_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type FormController struct {
	FormService *service.FormService
	AIService   *service.AIService
}

func NewFormController(formService *service.FormService, aiService *service.AIService) *FormController {
	return &FormController{FormService: formService, AIService: aiService}
}

// Create godoc
// @Summary 创建表单
// @Description 创建新表单及其问题列表
// @Tags 表单
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.FormInput true "表单结构"
// @Success 201 {object} util.Response{data=model.Form}
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/forms [post]
func (c *FormController) Create(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	var input service.FormInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	form, err := c.FormService.Create(claims.UserID, &input)
	if err != nil {
		if errors.Is(err, util.ErrInvalidQuestionType) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, form)
}

// List godoc
// @Summary 表单列表
// @Description 当前用户拥有的表单，附提交数
// @Tags 表单
// @Produce  json
// @Security BearerAuth
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=object}
// @Router /api/forms [get]
func (c *FormController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	items, total, err := c.FormService.List(claims.UserID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"forms": items, "total": total, "page": page, "limit": limit})
}

// Get godoc
// @Summary 表单详情
// @Tags 表单
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "表单ID"
// @Success 200 {object} util.Response{data=model.Form}
// @Failure 403 {object} util.Response "无权限"
// @Failure 404 {object} util.Response "表单不存在"
// @Router /api/forms/{id} [get]
func (c *FormController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	form, err := c.FormService.Get(ctx.Param("id"), claims.UserID)
	if err != nil {
		respondFormError(ctx, err)
		return
	}
	util.Success(ctx, form)
}

// Update godoc
// @Summary 更新表单
// @Description 整体替换表单名称、描述与问题列表
// @Tags 表单
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "表单ID"
// @Param   body body service.FormInput true "表单结构"
// @Success 200 {object} util.Response{data=model.Form}
// @Failure 404 {object} util.Response "表单不存在"
// @Router /api/forms/{id} [put]
func (c *FormController) Update(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	var input service.FormInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	form, err := c.FormService.Update(ctx.Param("id"), claims.UserID, &input)
	if err != nil {
		if errors.Is(err, util.ErrInvalidQuestionType) {
			util.BadRequest(ctx, err.Error())
		} else {
			respondFormError(ctx, err)
		}
		return
	}
	util.Success(ctx, form)
}

// Delete godoc
// @Summary 删除表单
// @Tags 表单
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "表单ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "表单不存在"
// @Router /api/forms/{id} [delete]
func (c *FormController) Delete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if err := c.FormService.Delete(ctx.Param("id"), claims.UserID); err != nil {
		respondFormError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Publish godoc
// @Summary 发布表单
// @Description 发布表单并生成公开分享链接
// @Tags 表单
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "表单ID"
// @Success 200 {object} util.Response{data=model.Form}
// @Failure 404 {object} util.Response "表单不存在"
// @Router /api/forms/{id}/publish [post]
func (c *FormController) Publish(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	form, err := c.FormService.Publish(ctx.Param("id"), claims.UserID)
	if err != nil {
		respondFormError(ctx, err)
		return
	}
	util.Success(ctx, form)
}

// Unpublish godoc
// @Summary 取消发布
// @Tags 表单
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "表单ID"
// @Success 200 {object} util.Response{data=model.Form}
// @Router /api/forms/{id}/unpublish [post]
func (c *FormController) Unpublish(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	form, err := c.FormService.Unpublish(ctx.Param("id"), claims.UserID)
	if err != nil {
		respondFormError(ctx, err)
		return
	}
	util.Success(ctx, form)
}

// GetPublic godoc
// @Summary 公开表单
// @Description 按分享链接获取已发布表单（无需登录）
// @Tags 表单
// @Produce  json
// @Param   slug path string true "分享标识"
// @Success 200 {object} util.Response{data=model.Form}
// @Failure 404 {object} util.Response "表单不存在或未发布"
// @Router /api/public/forms/{slug} [get]
func (c *FormController) GetPublic(ctx *gin.Context) {
	form, err := c.FormService.GetPublic(ctx.Param("slug"))
	if err != nil {
		if errors.Is(err, util.ErrFormNotFound) || errors.Is(err, util.ErrFormNotPublished) {
			util.Error(ctx, 404, "表单不存在或未发布")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, form)
}

// Templates godoc
// @Summary 表单模板
// @Description 内置的问题模板列表
// @Tags 表单
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=object}
// @Router /api/forms/templates [get]
func (c *FormController) Templates(ctx *gin.Context) {
	util.Success(ctx, gin.H{"templates": c.FormService.Templates()})
}

// SuggestRequest AI 生成问题建议请求
type SuggestRequest struct {
	Description string `json:"description" binding:"required"`
}

// Suggest godoc
// @Summary AI 问题建议
// @Description 根据自然语言描述生成一组表单问题
// @Tags 表单
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body SuggestRequest true "目标描述"
// @Success 200 {object} util.Response{data=object}
// @Failure 502 {object} util.Response "AI 服务不可用"
// @Router /api/forms/ai-suggest [post]
func (c *FormController) Suggest(ctx *gin.Context) {
	var req SuggestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	questions, err := c.AIService.SuggestQuestions(ctx.Request.Context(), req.Description)
	if err != nil {
		util.Error(ctx, 502, "AI 服务暂不可用: "+err.Error())
		return
	}
	util.Success(ctx, gin.H{"questions": questions})
}

// respondFormError 统一映射表单相关的业务错误
func respondFormError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrFormNotFound):
		util.Error(ctx, 404, "表单不存在")
	case errors.Is(err, util.ErrPermissionDenied):
		util.Error(ctx, 403, "无权访问该表单")
	default:
		util.LogInternalError(ctx, err)
	}
}
