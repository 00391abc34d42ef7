package api

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"expensetracker/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpenseHandler_GetSummary(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT is_credit, COALESCE\\(SUM\\(amount\\), 0\\) AS total FROM `expenses`").
		WillReturnRows(sqlmock.NewRows([]string{"is_credit", "total"}).
			AddRow(true, 100.0).
			AddRow(false, 40.0))
	mock.ExpectQuery("SELECT tag, COALESCE\\(SUM\\(amount\\), 0\\) AS amount FROM `expenses`").
		WillReturnRows(sqlmock.NewRows([]string{"tag", "amount"}).
			AddRow(models.TagFood, 40.0))
	mock.ExpectCommit()

	router := newExpenseRouter(1)
	req := httptest.NewRequest("GET", "/expenses/summary", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, 200, w.Code)
	var resp SummaryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, 100.0, resp.TotalIncome)
	assert.Equal(t, 40.0, resp.TotalExpense)
	assert.Equal(t, 60.0, resp.TotalAmount)

	// 标签分布只覆盖支出，总和等于支出合计
	var sum float64
	for _, item := range resp.TagDistribution {
		sum += item.Amount
	}
	assert.Equal(t, resp.TotalExpense, sum)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseHandler_GetSummary_Empty(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT is_credit, COALESCE\\(SUM\\(amount\\), 0\\) AS total FROM `expenses`").
		WillReturnRows(sqlmock.NewRows([]string{"is_credit", "total"}))
	mock.ExpectQuery("SELECT tag, COALESCE\\(SUM\\(amount\\), 0\\) AS amount FROM `expenses`").
		WillReturnRows(sqlmock.NewRows([]string{"tag", "amount"}))
	mock.ExpectCommit()

	router := newExpenseRouter(1)
	req := httptest.NewRequest("GET", "/expenses/summary", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, 200, w.Code)

	// 无数据时各合计为 0，分布为空数组
	assert.Contains(t, w.Body.String(), `"tagDistribution":[]`)
	var resp SummaryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0.0, resp.TotalAmount)
	assert.Equal(t, 0.0, resp.TotalIncome)
	assert.Equal(t, 0.0, resp.TotalExpense)
	require.NoError(t, mock.ExpectationsWereMet())
}
