package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// 现金流方向
const (
	CashFlowInflow  = "INFLOW"
	CashFlowOutflow = "OUTFLOW"
)

// CashFlow 计划内的定期收入或支出
type CashFlow struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	PlanID         uint            `json:"plan_id" gorm:"index;not null"`
	Kind           string          `json:"kind" gorm:"size:10;not null"`
	Name           string          `json:"name" gorm:"size:100;not null"`
	AnnualAmount   decimal.Decimal `json:"annual_amount" gorm:"type:decimal(20,2);not null"`
	StartYear      int             `json:"start_year" gorm:"not null"`
	EndYear        int             `json:"end_year" gorm:"not null"`
	ApplyInflation bool            `json:"apply_inflation" gorm:"not null"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (CashFlow) TableName() string {
	return "cash_flows"
}

// RetirementIncome 退休收入计划（养老金、社保等），年龄以持有人计
type RetirementIncome struct {
	ID               uint            `json:"id" gorm:"primaryKey"`
	PlanID           uint            `json:"plan_id" gorm:"index;not null"`
	Name             string          `json:"name" gorm:"size:100;not null"`
	AnnualIncome     decimal.Decimal `json:"annual_income" gorm:"type:decimal(20,2);not null"`
	StartAge         int             `json:"start_age" gorm:"not null"`
	EndAge           *int            `json:"end_age"`
	ApplyInflation   bool            `json:"apply_inflation" gorm:"not null"`
	IncludeInNestEgg bool            `json:"include_in_nest_egg" gorm:"not null"`
	OwnerIDs         []uint          `json:"owner_ids" gorm:"-"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (RetirementIncome) TableName() string {
	return "retirement_incomes"
}

// RetirementIncomeOwner 退休收入与成员的多对多关系
type RetirementIncomeOwner struct {
	RetirementIncomeID uint `json:"retirement_income_id" gorm:"primaryKey;autoIncrement:false"`
	PersonID           uint `json:"person_id" gorm:"primaryKey;autoIncrement:false;index"`
}

func (RetirementIncomeOwner) TableName() string {
	return "retirement_income_owners"
}
