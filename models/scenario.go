package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Scenario 情景，挂在某个计划下，用覆盖记录改写计划的基础数据
type Scenario struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PlanID    uint      `json:"plan_id" gorm:"index;not null"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Scenario) TableName() string {
	return "scenarios"
}

// 以下覆盖表每个字段由 overrides_x 标志和可空的 x 列组成，
// 业务代码只通过 override.Field 读写这些列。

// ScenarioAssumption 情景对基础假设的覆盖，每个情景至多一条
type ScenarioAssumption struct {
	ID                                uint                `gorm:"primaryKey"`
	ScenarioID                        uint                `gorm:"uniqueIndex;not null"`
	OverridesNestEggGrowthRate        bool                `gorm:"not null;default:false"`
	NestEggGrowthRate                 *float64            ``
	OverridesInflationRate            bool                `gorm:"not null;default:false"`
	InflationRate                     *float64            ``
	OverridesAnnualRetirementSpending bool                `gorm:"not null;default:false"`
	AnnualRetirementSpending          decimal.NullDecimal `gorm:"type:decimal(20,2)"`
	CreatedAt                         time.Time
	UpdatedAt                         time.Time
}

func (ScenarioAssumption) TableName() string {
	return "scenario_assumptions"
}

// ScenarioGrowthAdjustment 情景增长率调整。AssetID 为空表示作用于整个情景，
// 否则替换该资产的基础增长调整。
type ScenarioGrowthAdjustment struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	ScenarioID uint    `json:"scenario_id" gorm:"index;not null"`
	AssetID    *uint   `json:"asset_id" gorm:"index"`
	StartYear  int     `json:"start_year" gorm:"not null"`
	EndYear    int     `json:"end_year" gorm:"not null"`
	GrowthRate float64 `json:"growth_rate" gorm:"not null"`
}

func (ScenarioGrowthAdjustment) TableName() string {
	return "scenario_growth_adjustments"
}

// ScenarioPerson 情景对成员年龄的覆盖
type ScenarioPerson struct {
	ID                     uint `gorm:"primaryKey"`
	ScenarioID             uint `gorm:"uniqueIndex:idx_scenario_person;not null"`
	PersonID               uint `gorm:"uniqueIndex:idx_scenario_person;index;not null"`
	OverridesRetirementAge bool `gorm:"not null;default:false"`
	RetirementAge          *int
	OverridesFinalAge      bool `gorm:"not null;default:false"`
	FinalAge               *int
	ExcludeFromProjection  bool `gorm:"not null;default:false"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func (ScenarioPerson) TableName() string {
	return "scenario_people"
}

// ScenarioAsset 情景对资产的覆盖
type ScenarioAsset struct {
	ID                             uint                `gorm:"primaryKey"`
	ScenarioID                     uint                `gorm:"uniqueIndex:idx_scenario_asset;not null"`
	AssetID                        uint                `gorm:"uniqueIndex:idx_scenario_asset;index;not null"`
	OverridesValue                 bool                `gorm:"not null;default:false"`
	Value                          decimal.NullDecimal `gorm:"type:decimal(20,2)"`
	OverridesIndependentGrowthRate bool                `gorm:"not null;default:false"`
	IndependentGrowthRate          *float64
	OverridesIncludeInNestEgg      bool `gorm:"not null;default:false"`
	IncludeInNestEgg               *bool
	ExcludeFromProjection          bool `gorm:"not null;default:false"`
	CreatedAt                      time.Time
	UpdatedAt                      time.Time
}

func (ScenarioAsset) TableName() string {
	return "scenario_assets"
}

// ScenarioLiability 情景对负债的覆盖
type ScenarioLiability struct {
	ID                        uint                `gorm:"primaryKey"`
	ScenarioID                uint                `gorm:"uniqueIndex:idx_scenario_liability;not null"`
	LiabilityID               uint                `gorm:"uniqueIndex:idx_scenario_liability;index;not null"`
	OverridesValue            bool                `gorm:"not null;default:false"`
	Value                     decimal.NullDecimal `gorm:"type:decimal(20,2)"`
	OverridesInterestRate     bool                `gorm:"not null;default:false"`
	InterestRate              *float64
	OverridesIncludeInNestEgg bool `gorm:"not null;default:false"`
	IncludeInNestEgg          *bool
	ExcludeFromProjection     bool `gorm:"not null;default:false"`
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

func (ScenarioLiability) TableName() string {
	return "scenario_liabilities"
}

// ScenarioCashFlow 情景对现金流的覆盖
type ScenarioCashFlow struct {
	ID                      uint                `gorm:"primaryKey"`
	ScenarioID              uint                `gorm:"uniqueIndex:idx_scenario_cash_flow;not null"`
	CashFlowID              uint                `gorm:"uniqueIndex:idx_scenario_cash_flow;index;not null"`
	OverridesAnnualAmount   bool                `gorm:"not null;default:false"`
	AnnualAmount            decimal.NullDecimal `gorm:"type:decimal(20,2)"`
	OverridesStartYear      bool                `gorm:"not null;default:false"`
	StartYear               *int
	OverridesEndYear        bool `gorm:"not null;default:false"`
	EndYear                 *int
	OverridesApplyInflation bool `gorm:"not null;default:false"`
	ApplyInflation          *bool
	ExcludeFromProjection   bool `gorm:"not null;default:false"`
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

func (ScenarioCashFlow) TableName() string {
	return "scenario_cash_flows"
}

// ScenarioRetirementIncome 情景对退休收入的覆盖
type ScenarioRetirementIncome struct {
	ID                        uint                `gorm:"primaryKey"`
	ScenarioID                uint                `gorm:"uniqueIndex:idx_scenario_income;not null"`
	RetirementIncomeID        uint                `gorm:"uniqueIndex:idx_scenario_income;index;not null"`
	OverridesAnnualIncome     bool                `gorm:"not null;default:false"`
	AnnualIncome              decimal.NullDecimal `gorm:"type:decimal(20,2)"`
	OverridesStartAge         bool                `gorm:"not null;default:false"`
	StartAge                  *int
	OverridesEndAge           bool `gorm:"not null;default:false"`
	EndAge                    *int
	OverridesApplyInflation   bool `gorm:"not null;default:false"`
	ApplyInflation            *bool
	OverridesIncludeInNestEgg bool `gorm:"not null;default:false"`
	IncludeInNestEgg          *bool
	ExcludeFromProjection     bool `gorm:"not null;default:false"`
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

func (ScenarioRetirementIncome) TableName() string {
	return "scenario_retirement_incomes"
}

// All 返回所有需要迁移的模型，顺序即建表顺序
func All() []interface{} {
	return []interface{}{
		&Household{},
		&Person{},
		&AssetCategory{},
		&LiabilityCategory{},
		&Plan{},
		&BaseAssumptions{},
		&Asset{},
		&AssetOwner{},
		&GrowthAdjustment{},
		&Liability{},
		&CashFlow{},
		&RetirementIncome{},
		&RetirementIncomeOwner{},
		&Scenario{},
		&ScenarioAssumption{},
		&ScenarioGrowthAdjustment{},
		&ScenarioPerson{},
		&ScenarioAsset{},
		&ScenarioLiability{},
		&ScenarioCashFlow{},
		&ScenarioRetirementIncome{},
		&NestEggYearlyValue{},
	}
}
