package api

import (
	"net/http"

	"expensetracker/database"
	"expensetracker/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SummaryResponse 收支汇总响应
type SummaryResponse struct {
	TotalAmount     float64     `json:"totalAmount"`
	TotalIncome     float64     `json:"totalIncome"`
	TotalExpense    float64     `json:"totalExpense"`
	TagDistribution []TagAmount `json:"tagDistribution"`
}

// GetSummary 获取收支汇总
// @Summary 获取收支汇总
// @Description 按与列表接口相同的筛选参数统计当前用户的净额、收入、支出与标签分布，不返回分页数据。聚合值在同一事务内读取。
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param search query string false "标题/描述模糊搜索（不区分大小写）"
// @Param tags query string false "标签筛选，逗号分隔（如: FOOD,TRAVEL）"
// @Param startDate query string false "开始日期 (2024-01-01)"
// @Param endDate query string false "结束日期 (2024-12-31)"
// @Param minAmount query number false "最小金额"
// @Param maxAmount query number false "最大金额"
// @Param isCredit query string false "收支方向: true/false/all" Enums(true,false,all)
// @Success 200 {object} SummaryResponse "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 500 {object} Response "服务器错误"
// @Router /api/expenses/summary [get]
func (h *ExpenseHandler) GetSummary(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req ExpenseListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	var agg aggregates
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		agg, err = queryAggregates(tx, userID, &req)
		return err
	})
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	c.JSON(http.StatusOK, SummaryResponse{
		TotalAmount:     agg.TotalCredit - agg.TotalDebit,
		TotalIncome:     agg.TotalCredit,
		TotalExpense:    agg.TotalDebit,
		TagDistribution: agg.TagDistribution,
	})
}
