package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"expensetracker/database"
	"expensetracker/middleware"
	"expensetracker/models"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportHandler 导出处理器
type ExportHandler struct{}

// NewExportHandler 创建导出处理器
func NewExportHandler() *ExportHandler {
	return &ExportHandler{}
}

// exportColumns 导出文件表头
var exportColumns = []string{"ID", "Title", "Description", "Amount", "Direction", "Tag", "Date", "CreatedAt"}

// fetchForExport 按列表接口的筛选参数取出当前用户的全部匹配记录（不分页）
func fetchForExport(c *gin.Context) ([]models.Expense, bool) {
	userID := middleware.GetCurrentUserID(c)

	var req ExpenseListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return nil, false
	}

	var expenses []models.Expense
	if err := applyFilters(database.DB.Model(&models.Expense{}), userID, &req).
		Order(orderClause(&req)).
		Find(&expenses).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return nil, false
	}
	return expenses, true
}

func exportRow(e models.Expense) []string {
	direction := "DEBIT"
	if e.IsCredit {
		direction = "CREDIT"
	}
	return []string{
		strconv.FormatUint(uint64(e.ID), 10),
		e.Title,
		e.Description,
		strconv.FormatFloat(e.Amount, 'f', 2, 64),
		direction,
		e.Tag,
		e.Date.Format("2006-01-02"),
		e.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func exportFilename(ext string) string {
	return fmt.Sprintf("expenses_%s.%s", time.Now().Format("20060102_150405"), ext)
}

// ExportCSV 导出收支记录为 CSV
// @Summary 导出收支记录 (CSV)
// @Description 按与列表接口相同的筛选参数导出当前用户的收支记录为 CSV 文件
// @Tags 导出
// @Produce text/csv
// @Security BearerAuth
// @Param search query string false "标题/描述模糊搜索"
// @Param tags query string false "标签筛选，逗号分隔"
// @Param startDate query string false "开始日期 (2024-01-01)"
// @Param endDate query string false "结束日期 (2024-12-31)"
// @Param isCredit query string false "收支方向: true/false/all"
// @Success 200 {file} file "CSV 文件"
// @Failure 401 {object} Response "未授权"
// @Failure 500 {object} Response "服务器错误"
// @Router /api/export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	expenses, ok := fetchForExport(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	_ = writer.Write(exportColumns)
	for _, e := range expenses {
		_ = writer.Write(exportRow(e))
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		InternalError(c, SafeErrorMessage(err, "导出失败"))
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+exportFilename("csv"))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportJSON 导出收支记录为 JSON
// @Summary 导出收支记录 (JSON)
// @Description 按与列表接口相同的筛选参数导出当前用户的收支记录为 JSON 附件
// @Tags 导出
// @Produce json
// @Security BearerAuth
// @Param search query string false "标题/描述模糊搜索"
// @Param tags query string false "标签筛选，逗号分隔"
// @Param startDate query string false "开始日期 (2024-01-01)"
// @Param endDate query string false "结束日期 (2024-12-31)"
// @Param isCredit query string false "收支方向: true/false/all"
// @Success 200 {array} models.Expense "JSON 文件"
// @Failure 401 {object} Response "未授权"
// @Failure 500 {object} Response "服务器错误"
// @Router /api/export/json [get]
func (h *ExportHandler) ExportJSON(c *gin.Context) {
	expenses, ok := fetchForExport(c)
	if !ok {
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+exportFilename("json"))
	c.JSON(http.StatusOK, expenses)
}

// ExportExcel 导出收支记录为 Excel
// @Summary 导出收支记录 (Excel)
// @Description 按与列表接口相同的筛选参数导出当前用户的收支记录为 xlsx 文件
// @Tags 导出
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param search query string false "标题/描述模糊搜索"
// @Param tags query string false "标签筛选，逗号分隔"
// @Param startDate query string false "开始日期 (2024-01-01)"
// @Param endDate query string false "结束日期 (2024-12-31)"
// @Param isCredit query string false "收支方向: true/false/all"
// @Success 200 {file} file "xlsx 文件"
// @Failure 401 {object} Response "未授权"
// @Failure 500 {object} Response "服务器错误"
// @Router /api/export/xlsx [get]
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	expenses, ok := fetchForExport(c)
	if !ok {
		return
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Expenses"
	index, err := f.NewSheet(sheet)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "导出失败"))
		return
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, col)
	}
	for r, e := range expenses {
		for i, v := range exportRow(e) {
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		InternalError(c, SafeErrorMessage(err, "导出失败"))
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+exportFilename("xlsx"))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
