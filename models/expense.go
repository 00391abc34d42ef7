package models

import (
	"time"
)

// Expense 单条收支记录
// isCredit 为 true 表示收入，false 表示支出；amount 恒为非负值
type Expense struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"size:255;not null"`
	Description string    `json:"description" gorm:"size:255"`
	Amount      float64   `json:"amount" gorm:"type:decimal(10,2);not null"`
	IsCredit    bool      `json:"isCredit" gorm:"not null;default:false"`
	Tag         string    `json:"tag" gorm:"size:50;not null;index"`
	Date        time.Time `json:"date" gorm:"not null;index"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	AuthorID    uint      `json:"authorId" gorm:"index;not null"`
	Author      User      `json:"-" gorm:"foreignKey:AuthorID"`
}

// TableName 设置表名
func (Expense) TableName() string {
	return "expenses"
}

// Tag 标签常量（前端使用的闭集；存储层不做限制）
const (
	TagFood          = "FOOD"
	TagTravel        = "TRAVEL"
	TagBills         = "BILLS"
	TagEntertainment = "ENTERTAINMENT"
	TagSalary        = "SALARY"
	TagOther         = "OTHER"
)

// AllTags 获取所有标签
func AllTags() []string {
	return []string{
		TagFood,
		TagTravel,
		TagBills,
		TagEntertainment,
		TagSalary,
		TagOther,
	}
}
