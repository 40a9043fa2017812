package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan 财务计划
type Plan struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	HouseholdID       uint      `json:"household_id" gorm:"index;not null"`
	Name              string    `json:"name" gorm:"size:100;not null"`
	ReferencePersonID uint      `json:"reference_person_id" gorm:"index;not null"`
	CreationYear      int       `json:"creation_year" gorm:"not null"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (Plan) TableName() string {
	return "plans"
}

// 基础假设默认值
const (
	DefaultNestEggGrowthRate = 6.0
	RateMin                  = -200.0
	RateMax                  = 200.0
)

// BaseAssumptions 计划的基础假设，每个计划恰好一条
type BaseAssumptions struct {
	ID                       uint            `json:"id" gorm:"primaryKey"`
	PlanID                   uint            `json:"plan_id" gorm:"uniqueIndex;not null"`
	NestEggGrowthRate        float64         `json:"nest_egg_growth_rate" gorm:"not null"`
	InflationRate            float64         `json:"inflation_rate" gorm:"not null"`
	AnnualRetirementSpending decimal.Decimal `json:"annual_retirement_spending" gorm:"type:decimal(20,2);not null"`
	UpdatedAt                time.Time       `json:"updated_at"`
}

func (BaseAssumptions) TableName() string {
	return "base_assumptions"
}

// NestEggYearlyValue 预测结果：某年的养老储备金额。scenario_id 为空表示基础计划。
type NestEggYearlyValue struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	PlanID     uint            `json:"plan_id" gorm:"index:idx_nest_egg_plan_scenario;not null"`
	ScenarioID *uint           `json:"scenario_id" gorm:"index:idx_nest_egg_plan_scenario"`
	Year       int             `json:"year" gorm:"not null"`
	Value      decimal.Decimal `json:"value" gorm:"type:decimal(20,2);not null"`
}

func (NestEggYearlyValue) TableName() string {
	return "nest_egg_yearly_values"
}
