package api

import (
	"testing"

	"expensetracker/database"
	"expensetracker/models"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// filterSQL 以 DryRun 方式生成筛选 SQL，便于校验谓词组合
func filterSQL(t *testing.T, req *ExpenseListRequest) (string, []interface{}) {
	t.Helper()
	tx := database.DB.Session(&gorm.Session{DryRun: true})
	var out []models.Expense
	stmt := applyFilters(tx.Model(&models.Expense{}), 42, req).Find(&out).Statement
	return stmt.SQL.String(), stmt.Vars
}

func TestApplyFilters_OwnerOnly(t *testing.T) {
	_, cleanup := setupMockDB(t)
	defer cleanup()

	sql, vars := filterSQL(t, &ExpenseListRequest{})
	assert.Contains(t, sql, "author_id = ?")
	assert.NotContains(t, sql, "LIKE")
	assert.NotContains(t, sql, "IN")
	assert.NotContains(t, sql, "is_credit")
	assert.Equal(t, []interface{}{uint(42)}, vars)
}

func TestApplyFilters_Search(t *testing.T) {
	_, cleanup := setupMockDB(t)
	defer cleanup()

	sql, vars := filterSQL(t, &ExpenseListRequest{Search: "  Lunch "})
	assert.Contains(t, sql, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)")
	assert.Contains(t, vars, "%lunch%")

	// 空白搜索词不产生条件
	sql, _ = filterSQL(t, &ExpenseListRequest{Search: "   "})
	assert.NotContains(t, sql, "LIKE")
}

func TestApplyFilters_Tags(t *testing.T) {
	_, cleanup := setupMockDB(t)
	defer cleanup()

	sql, vars := filterSQL(t, &ExpenseListRequest{Tags: "FOOD, TRAVEL,"})
	assert.Contains(t, sql, "tag IN (?,?)")
	assert.Contains(t, vars, "FOOD")
	assert.Contains(t, vars, "TRAVEL")

	// 只有分隔符时不产生条件
	sql, _ = filterSQL(t, &ExpenseListRequest{Tags: " , ,"})
	assert.NotContains(t, sql, "tag IN")
}

func TestApplyFilters_DateRange(t *testing.T) {
	_, cleanup := setupMockDB(t)
	defer cleanup()

	sql, _ := filterSQL(t, &ExpenseListRequest{StartDate: "2024-01-01", EndDate: "2024-12-31"})
	assert.Contains(t, sql, "date >= ?")
	assert.Contains(t, sql, "date <= ?")

	// 无法解析的日期视为未提供
	sql, _ = filterSQL(t, &ExpenseListRequest{StartDate: "not-a-date", EndDate: "31/12/2024"})
	assert.NotContains(t, sql, "date >=")
	assert.NotContains(t, sql, "date <=")
}

func TestApplyFilters_AmountRange(t *testing.T) {
	_, cleanup := setupMockDB(t)
	defer cleanup()

	sql, vars := filterSQL(t, &ExpenseListRequest{MinAmount: "10.5", MaxAmount: "500"})
	assert.Contains(t, sql, "amount >= ?")
	assert.Contains(t, sql, "amount <= ?")
	assert.Contains(t, vars, 10.5)
	assert.Contains(t, vars, 500.0)

	// 无法解析的金额视为未提供
	sql, _ = filterSQL(t, &ExpenseListRequest{MinAmount: "abc", MaxAmount: "12,50"})
	assert.NotContains(t, sql, "amount >=")
	assert.NotContains(t, sql, "amount <=")
}

func TestApplyFilters_IsCredit(t *testing.T) {
	_, cleanup := setupMockDB(t)
	defer cleanup()

	sql, vars := filterSQL(t, &ExpenseListRequest{IsCredit: "true"})
	assert.Contains(t, sql, "is_credit = ?")
	assert.Contains(t, vars, true)

	sql, vars = filterSQL(t, &ExpenseListRequest{IsCredit: "false"})
	assert.Contains(t, sql, "is_credit = ?")
	assert.Contains(t, vars, false)

	// "all" 与缺省均不限定方向
	sql, _ = filterSQL(t, &ExpenseListRequest{IsCredit: "all"})
	assert.NotContains(t, sql, "is_credit")
	sql, _ = filterSQL(t, &ExpenseListRequest{})
	assert.NotContains(t, sql, "is_credit")
}

func TestOrderClause(t *testing.T) {
	// 缺省按日期降序，created_at 恒为次级排序
	assert.Equal(t, "date DESC, created_at DESC", orderClause(&ExpenseListRequest{}))
	assert.Equal(t, "amount ASC, created_at DESC", orderClause(&ExpenseListRequest{SortBy: "amount", SortOrder: "asc"}))
	assert.Equal(t, "created_at DESC, created_at DESC", orderClause(&ExpenseListRequest{SortBy: "createdAt"}))

	// 未知字段回退到 date，不报错
	assert.Equal(t, "date DESC, created_at DESC", orderClause(&ExpenseListRequest{SortBy: "password"}))
	assert.Equal(t, "date DESC, created_at DESC", orderClause(&ExpenseListRequest{SortBy: "amount; DROP TABLE expenses"}))

	// 非 asc 的排序方向一律按 desc 处理
	assert.Equal(t, "date DESC, created_at DESC", orderClause(&ExpenseListRequest{SortOrder: "sideways"}))
}

func TestPageParams(t *testing.T) {
	// 缺省值
	page, pageSize := pageParams(&ExpenseListRequest{})
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, pageSize)

	// 正常取值
	page, pageSize = pageParams(&ExpenseListRequest{Page: "3", PageSize: "25"})
	assert.Equal(t, 3, page)
	assert.Equal(t, 25, pageSize)

	// 非法与越界值回退
	page, pageSize = pageParams(&ExpenseListRequest{Page: "0", PageSize: "-5"})
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, pageSize)

	page, pageSize = pageParams(&ExpenseListRequest{Page: "abc", PageSize: "xyz"})
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, pageSize)
}
