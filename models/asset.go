package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Asset 资产
type Asset struct {
	ID                    uint            `json:"id" gorm:"primaryKey"`
	PlanID                uint            `json:"plan_id" gorm:"index;not null"`
	AssetCategoryID       uint            `json:"asset_category_id" gorm:"index;not null"`
	Name                  string          `json:"name" gorm:"size:100;not null"`
	Value                 decimal.Decimal `json:"value" gorm:"type:decimal(20,2);not null"`
	IncludeInNestEgg      bool            `json:"include_in_nest_egg" gorm:"not null"`
	IndependentGrowthRate *float64        `json:"independent_growth_rate"`
	OwnerIDs              []uint          `json:"owner_ids" gorm:"-"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

func (Asset) TableName() string {
	return "assets"
}

// AssetOwner 资产与成员的多对多关系
type AssetOwner struct {
	AssetID  uint `json:"asset_id" gorm:"primaryKey;autoIncrement:false"`
	PersonID uint `json:"person_id" gorm:"primaryKey;autoIncrement:false;index"`
}

func (AssetOwner) TableName() string {
	return "asset_owners"
}

// GrowthAdjustment 资产在 [StartYear, EndYear] 区间内的增长率调整
type GrowthAdjustment struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	AssetID    uint    `json:"asset_id" gorm:"index;not null"`
	StartYear  int     `json:"start_year" gorm:"not null"`
	EndYear    int     `json:"end_year" gorm:"not null"`
	GrowthRate float64 `json:"growth_rate" gorm:"not null"`
}

func (GrowthAdjustment) TableName() string {
	return "growth_adjustments"
}

// Liability 负债
type Liability struct {
	ID                  uint            `json:"id" gorm:"primaryKey"`
	PlanID              uint            `json:"plan_id" gorm:"index;not null"`
	LiabilityCategoryID uint            `json:"liability_category_id" gorm:"index;not null"`
	Name                string          `json:"name" gorm:"size:100;not null"`
	Value               decimal.Decimal `json:"value" gorm:"type:decimal(20,2);not null"`
	InterestRate        float64         `json:"interest_rate" gorm:"not null"`
	IncludeInNestEgg    bool            `json:"include_in_nest_egg" gorm:"not null"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

func (Liability) TableName() string {
	return "liabilities"
}
