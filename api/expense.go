package api

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"expensetracker/database"
	"expensetracker/middleware"
	"expensetracker/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ExpenseHandler 收支记录处理器
type ExpenseHandler struct{}

// NewExpenseHandler 创建收支记录处理器
func NewExpenseHandler() *ExpenseHandler {
	return &ExpenseHandler{}
}

// ExpenseListRequest 收支记录列表请求
// 所有筛选参数均可选；数字、日期参数统一按字符串接收，解析失败视为未提供
type ExpenseListRequest struct {
	Page      string `form:"page" example:"1"`
	PageSize  string `form:"pageSize" example:"10"`
	Search    string `form:"search" example:"lunch"`
	Tags      string `form:"tags" example:"FOOD,TRAVEL"`
	StartDate string `form:"startDate" example:"2024-01-01"`
	EndDate   string `form:"endDate" example:"2024-12-31"`
	MinAmount string `form:"minAmount" example:"10"`
	MaxAmount string `form:"maxAmount" example:"500"`
	IsCredit  string `form:"isCredit" example:"all"`
	SortBy    string `form:"sortBy" example:"date"`
	SortOrder string `form:"sortOrder" example:"desc"`
}

// CreateExpenseRequest 创建收支记录请求
type CreateExpenseRequest struct {
	Title       string  `json:"title" binding:"required" example:"午餐"`
	Description string  `json:"description" example:"公司楼下"`
	Amount      float64 `json:"amount" binding:"required,gt=0" example:"39.99"`
	IsCredit    bool    `json:"isCredit" example:"false"`
	Tag         string  `json:"tag" binding:"required" example:"FOOD"`
	Date        string  `json:"date" binding:"required" example:"2024-01-15"`
}

// Pagination 分页信息
type Pagination struct {
	Page          int   `json:"page"`
	PageSize      int   `json:"pageSize"`
	TotalExpenses int64 `json:"totalExpenses"`
	TotalPages    int   `json:"totalPages"`
}

// TagAmount 单个标签的支出金额汇总
type TagAmount struct {
	Tag    string  `json:"tag"`
	Amount float64 `json:"amount"`
}

// ExpenseListResponse 收支记录列表响应
// 聚合值与分页数据在同一事务内计算，保证彼此一致
type ExpenseListResponse struct {
	Expenses        []models.Expense `json:"expenses"`
	Pagination      Pagination       `json:"pagination"`
	TotalAmount     float64          `json:"totalAmount"`
	TotalIncome     float64          `json:"totalIncome"`
	TotalExpense    float64          `json:"totalExpense"`
	TagDistribution []TagAmount      `json:"tagDistribution"`
}

// sortColumns 可排序字段白名单，防止排序参数注入
var sortColumns = map[string]string{
	"id":        "id",
	"title":     "title",
	"amount":    "amount",
	"tag":       "tag",
	"date":      "date",
	"createdAt": "created_at",
}

// applyFilters 将筛选参数折叠为查询条件
// 恒定限定 author_id；缺失、空白或无法解析的参数一律不产生条件
func applyFilters(q *gorm.DB, userID uint, req *ExpenseListRequest) *gorm.DB {
	q = q.Where("author_id = ?", userID)

	// 标题/描述模糊搜索（不区分大小写）
	if search := strings.TrimSpace(req.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)", like, like)
	}

	// 标签筛选（逗号分隔）
	if req.Tags != "" {
		var tags []string
		for _, t := range strings.Split(req.Tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		if len(tags) > 0 {
			q = q.Where("tag IN ?", tags)
		}
	}

	// 日期范围筛选（含端点）
	if req.StartDate != "" {
		if start, err := time.ParseInLocation("2006-01-02", req.StartDate, time.Local); err == nil {
			q = q.Where("date >= ?", start)
		}
	}
	if req.EndDate != "" {
		if end, err := time.ParseInLocation("2006-01-02", req.EndDate, time.Local); err == nil {
			// 包含结束日期当天
			end = end.Add(24*time.Hour - time.Second)
			q = q.Where("date <= ?", end)
		}
	}

	// 金额范围筛选（含端点）
	if req.MinAmount != "" {
		if min, err := strconv.ParseFloat(req.MinAmount, 64); err == nil {
			q = q.Where("amount >= ?", min)
		}
	}
	if req.MaxAmount != "" {
		if max, err := strconv.ParseFloat(req.MaxAmount, 64); err == nil {
			q = q.Where("amount <= ?", max)
		}
	}

	// 收支方向筛选，"all" 为不限定
	if req.IsCredit != "" && req.IsCredit != "all" {
		q = q.Where("is_credit = ?", req.IsCredit == "true")
	}

	return q
}

// orderClause 构造排序子句
// 主排序字段取白名单命中值，未命中回退到 date；恒以 created_at DESC 兜底保证分页稳定
func orderClause(req *ExpenseListRequest) string {
	column, ok := sortColumns[req.SortBy]
	if !ok {
		column = "date"
	}
	direction := "DESC"
	if req.SortOrder == "asc" {
		direction = "ASC"
	}
	return column + " " + direction + ", created_at DESC"
}

// pageParams 解析分页参数，缺省 page=1、pageSize=10，均不小于 1
func pageParams(req *ExpenseListRequest) (page, pageSize int) {
	page = 1
	if v, err := strconv.Atoi(req.Page); err == nil && v >= 1 {
		page = v
	}
	pageSize = 10
	if v, err := strconv.Atoi(req.PageSize); err == nil && v >= 1 {
		pageSize = v
	}
	return page, pageSize
}

// aggregates 收支合计与标签分布
type aggregates struct {
	TotalCredit     float64
	TotalDebit      float64
	TagDistribution []TagAmount
}

// queryAggregates 在给定查询句柄上计算收支合计与标签分布
// 标签分布只统计支出（is_credit = false）；无数据的分组结果为 0
func queryAggregates(tx *gorm.DB, userID uint, req *ExpenseListRequest) (aggregates, error) {
	var agg aggregates

	var sums []struct {
		IsCredit bool
		Total    float64
	}
	err := applyFilters(tx.Model(&models.Expense{}), userID, req).
		Select("is_credit, COALESCE(SUM(amount), 0) AS total").
		Group("is_credit").
		Scan(&sums).Error
	if err != nil {
		return agg, err
	}
	for _, s := range sums {
		if s.IsCredit {
			agg.TotalCredit = s.Total
		} else {
			agg.TotalDebit = s.Total
		}
	}

	agg.TagDistribution = make([]TagAmount, 0)
	err = applyFilters(tx.Model(&models.Expense{}), userID, req).
		Where("is_credit = ?", false).
		Select("tag, COALESCE(SUM(amount), 0) AS amount").
		Group("tag").
		Order("amount DESC").
		Scan(&agg.TagDistribution).Error
	if err != nil {
		return agg, err
	}

	return agg, nil
}

// List 获取收支记录列表
// @Summary 获取收支记录列表
// @Description 获取当前用户的收支记录列表，支持搜索、标签、日期区间、金额区间、收支方向筛选及排序分页。分页数据、总数与聚合值在同一事务内读取。
// @Tags 收支记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param pageSize query int false "每页数量" default(10)
// @Param search query string false "标题/描述模糊搜索（不区分大小写）"
// @Param tags query string false "标签筛选，逗号分隔（如: FOOD,TRAVEL）"
// @Param startDate query string false "开始日期 (2024-01-01)"
// @Param endDate query string false "结束日期 (2024-12-31)"
// @Param minAmount query number false "最小金额"
// @Param maxAmount query number false "最大金额"
// @Param isCredit query string false "收支方向: true/false/all" Enums(true,false,all)
// @Param sortBy query string false "排序字段: id/title/amount/tag/date/createdAt" default(date)
// @Param sortOrder query string false "排序方向: asc/desc" default(desc)
// @Success 200 {object} ExpenseListResponse "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 500 {object} Response "服务器错误"
// @Router /api/expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req ExpenseListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	page, pageSize := pageParams(&req)
	offset := (page - 1) * pageSize

	expenses := make([]models.Expense, 0)
	var total int64
	var agg aggregates

	// 分页数据、总数、聚合值必须来自同一快照
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := applyFilters(tx.Model(&models.Expense{}), userID, &req).
			Order(orderClause(&req)).
			Offset(offset).
			Limit(pageSize).
			Find(&expenses).Error; err != nil {
			return err
		}

		if err := applyFilters(tx.Model(&models.Expense{}), userID, &req).
			Count(&total).Error; err != nil {
			return err
		}

		var err error
		agg, err = queryAggregates(tx, userID, &req)
		return err
	})
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))

	c.JSON(http.StatusOK, ExpenseListResponse{
		Expenses: expenses,
		Pagination: Pagination{
			Page:          page,
			PageSize:      pageSize,
			TotalExpenses: total,
			TotalPages:    totalPages,
		},
		TotalAmount:     agg.TotalCredit - agg.TotalDebit,
		TotalIncome:     agg.TotalCredit,
		TotalExpense:    agg.TotalDebit,
		TagDistribution: agg.TagDistribution,
	})
}

// parseExpenseDate 解析记录日期，支持 2006-01-02 和 RFC3339 两种格式
func parseExpenseDate(value string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", value, time.Local); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// findOwnedExpense 按 id 查找当前用户的记录
// 他人的记录与不存在的记录一视同仁，避免泄露数据存在性
func findOwnedExpense(userID uint, id uint64) (*models.Expense, error) {
	var expense models.Expense
	if err := database.DB.Where("id = ? AND author_id = ?", id, userID).First(&expense).Error; err != nil {
		return nil, err
	}
	return &expense, nil
}

// Create 创建收支记录
// @Summary 创建收支记录
// @Description 创建一条新的收支记录，title/amount/tag/date 必填，isCredit 缺省为 false（支出）
// @Tags 收支记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateExpenseRequest true "收支记录信息"
// @Success 201 {object} map[string]models.Expense "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 500 {object} Response "服务器错误"
// @Router /api/expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "缺少必填字段"))
		return
	}

	date, err := parseExpenseDate(req.Date)
	if err != nil {
		BadRequest(c, "日期格式错误，应为: 2024-01-15")
		return
	}

	expense := models.Expense{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Amount:      req.Amount,
		IsCredit:    req.IsCredit,
		Tag:         req.Tag,
		Date:        date,
		AuthorID:    userID,
	}
	if expense.Title == "" {
		BadRequest(c, "标题不能为空")
		return
	}

	if err := database.DB.Create(&expense).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建失败"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"expense": expense})
}

// Get 获取单条收支记录
// @Summary 获取单条收支记录
// @Description 根据ID获取当前用户的收支记录详情
// @Tags 收支记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "记录ID"
// @Success 200 {object} map[string]models.Expense "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/expenses/{id} [get]
func (h *ExpenseHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	expense, err := findOwnedExpense(userID, id)
	if err != nil {
		NotFound(c, "记录不存在")
		return
	}

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// Update 更新收支记录
// @Summary 更新收支记录
// @Description 全量替换指定记录的可变字段（无部分更新语义），仅能操作本人的记录
// @Tags 收支记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "记录ID"
// @Param request body CreateExpenseRequest true "收支记录信息（全字段）"
// @Success 200 {object} map[string]models.Expense "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "记录不存在"
// @Failure 500 {object} Response "服务器错误"
// @Router /api/expenses/{id} [put]
func (h *ExpenseHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	expense, err := findOwnedExpense(userID, id)
	if err != nil {
		NotFound(c, "记录不存在")
		return
	}

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "缺少必填字段"))
		return
	}

	date, err := parseExpenseDate(req.Date)
	if err != nil {
		BadRequest(c, "日期格式错误，应为: 2024-01-15")
		return
	}

	// 全量替换，零值字段一并写入
	updates := map[string]interface{}{
		"title":       strings.TrimSpace(req.Title),
		"description": req.Description,
		"amount":      req.Amount,
		"is_credit":   req.IsCredit,
		"tag":         req.Tag,
		"date":        date,
	}

	if err := database.DB.Model(expense).Updates(updates).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "更新失败"))
		return
	}

	// 重新获取更新后的记录
	database.DB.First(expense, expense.ID)
	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// Delete 删除收支记录
// @Summary 删除收支记录
// @Description 删除指定的收支记录，仅能操作本人的记录
// @Tags 收支记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "记录ID"
// @Success 200 {object} map[string]string "删除成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "记录不存在"
// @Failure 500 {object} Response "服务器错误"
// @Router /api/expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	expense, err := findOwnedExpense(userID, id)
	if err != nil {
		NotFound(c, "记录不存在")
		return
	}

	if err := database.DB.Delete(expense).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "已删除"})
}

// GetTags 获取标签列表
// @Summary 获取标签列表
// @Description 获取前端可用的收支标签闭集；存储层不限制标签取值
// @Tags 收支记录
// @Accept json
// @Produce json
// @Success 200 {object} Response{data=[]string} "获取成功"
// @Router /api/tags [get]
func (h *ExpenseHandler) GetTags(c *gin.Context) {
	Success(c, models.AllTags())
}
