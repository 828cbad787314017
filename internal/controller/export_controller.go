package controller

import (
	"errors"
	"smartform_backend/internal/service"
	"smartform_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ExportController struct {
	ExportService *service.ExportService
}

func NewExportController(exportService *service.ExportService) *ExportController {
	return &ExportController{ExportService: exportService}
}

// Raw godoc
// @Summary 导出原始提交数据
// @Description 以 CSV 或 JSON 格式下载表单的全部提交
// @Tags 导出
// @Produce  text/csv
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "表单ID"
// @Param   format query string false "导出格式 csv|json" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} util.Response "不支持的导出格式"
// @Failure 404 {object} util.Response "表单不存在"
// @Failure 409 {object} util.Response "该表单还没有提交"
// @Router /api/forms/{id}/export/raw [get]
func (c *ExportController) Raw(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	format := service.ExportFormat(ctx.DefaultQuery("format", "csv"))

	file, err := c.ExportService.ExportRaw(ctx.Param("id"), claims.UserID, format)
	if err != nil {
		respondExportError(ctx, err)
		return
	}
	serveExport(ctx, file)
}

// Analyses godoc
// @Summary 导出 AI 分析报告
// @Description 以 CSV 或 JSON 格式下载当前分析会话的报告
// @Tags 导出
// @Produce  text/csv
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "表单ID"
// @Param   format query string false "导出格式 csv|json" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} util.Response "不支持的导出格式"
// @Failure 409 {object} util.Response "尚无分析结果"
// @Router /api/forms/{id}/export/analysis [get]
func (c *ExportController) Analyses(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	format := service.ExportFormat(ctx.DefaultQuery("format", "csv"))

	file, err := c.ExportService.ExportAnalyses(ctx.Param("id"), claims.UserID, format)
	if err != nil {
		respondExportError(ctx, err)
		return
	}
	serveExport(ctx, file)
}

func serveExport(ctx *gin.Context, file *service.ExportFile) {
	ctx.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	ctx.Data(200, file.MIMEType, file.Content)
}

func respondExportError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrUnsupportedFormat):
		util.BadRequest(ctx, "不支持的导出格式")
	case errors.Is(err, util.ErrNoSubmissions):
		util.Error(ctx, 409, "该表单还没有提交")
	case errors.Is(err, util.ErrNoAnalyses):
		util.Error(ctx, 409, "尚无分析结果，请先运行分析")
	case errors.Is(err, util.ErrExportFailed):
		util.LogInternalError(ctx, err)
	default:
		respondFormError(ctx, err)
	}
}
