package models

import (
	"time"
)

// Household 家庭，拥有成员、计划和类别
type Household struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Household) TableName() string {
	return "households"
}

// Person 家庭成员
type Person struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	HouseholdID   uint      `json:"household_id" gorm:"index;not null"`
	FirstName     string    `json:"first_name" gorm:"size:50;not null"`
	LastName      string    `json:"last_name" gorm:"size:50;not null"`
	DateOfBirth   string    `json:"dob" gorm:"column:dob;size:10;not null"` // YYYY-MM-DD
	RetirementAge int       `json:"retirement_age" gorm:"not null"`
	FinalAge      int       `json:"final_age" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Person) TableName() string {
	return "people"
}

// FullName 姓名
func (p Person) FullName() string {
	return p.FirstName + " " + p.LastName
}

// AssetCategory 资产类别
type AssetCategory struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	HouseholdID uint      `json:"household_id" gorm:"index;not null"`
	Name        string    `json:"name" gorm:"size:50;not null"`
	CreatedAt   time.Time `json:"created_at"`
}

func (AssetCategory) TableName() string {
	return "asset_categories"
}

// LiabilityCategory 负债类别
type LiabilityCategory struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	HouseholdID uint      `json:"household_id" gorm:"index;not null"`
	Name        string    `json:"name" gorm:"size:50;not null"`
	CreatedAt   time.Time `json:"created_at"`
}

func (LiabilityCategory) TableName() string {
	return "liability_categories"
}
