package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fipli/models"
)

// LiabilityInput 创建负债参数
type LiabilityInput struct {
	CategoryID       uint            `json:"liability_category_id"`
	Name             string          `json:"name"`
	Value            decimal.Decimal `json:"value"`
	InterestRate     float64         `json:"interest_rate"`
	IncludeInNestEgg *bool           `json:"include_in_nest_egg"`
}

// LiabilityUpdate 负债稀疏更新
type LiabilityUpdate struct {
	CategoryID       *uint            `json:"liability_category_id"`
	Name             *string          `json:"name"`
	Value            *decimal.Decimal `json:"value"`
	InterestRate     *float64         `json:"interest_rate"`
	IncludeInNestEgg *bool            `json:"include_in_nest_egg"`
}

func validateLiability(l *models.Liability) error {
	var err error
	if l.Name, err = checkName("name", l.Name); err != nil {
		return err
	}
	if err := checkNonNegative("value", l.Value); err != nil {
		return err
	}
	return checkRate("interest_rate", l.InterestRate)
}

// CreateLiability 创建负债
func (s *Service) CreateLiability(ctx context.Context, planID uint, in LiabilityInput) (uint, error) {
	l := models.Liability{
		PlanID:              planID,
		LiabilityCategoryID: in.CategoryID,
		Name:                in.Name,
		Value:               in.Value,
		InterestRate:        in.InterestRate,
		IncludeInNestEgg:    true,
	}
	if in.IncludeInNestEgg != nil {
		l.IncludeInNestEgg = *in.IncludeInNestEgg
	}
	if err := validateLiability(&l); err != nil {
		return 0, err
	}
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		plan, err := mustExist[models.Plan](tx, "plan_id", planID)
		if err != nil {
			return err
		}
		if err := categoryInHousehold[models.LiabilityCategory](tx, "liability_category_id", in.CategoryID, plan.HouseholdID); err != nil {
			return err
		}
		return tx.Create(&l).Error
	})
	if err != nil {
		return 0, fmt.Errorf("create liability: %w", err)
	}
	return l.ID, nil
}

// GetLiability 获取负债
func (s *Service) GetLiability(ctx context.Context, id uint) (models.Liability, bool, error) {
	l, ok, err := first[models.Liability](s.store.DB(ctx), id)
	return l, ok, wrapErr("get liability", err)
}

// ListLiabilities 列出计划的负债
func (s *Service) ListLiabilities(ctx context.Context, planID uint, categoryID *uint) ([]models.Liability, error) {
	q := s.store.DB(ctx).Where("plan_id = ?", planID)
	if categoryID != nil {
		q = q.Where("liability_category_id = ?", *categoryID)
	}
	var list []models.Liability
	if err := q.Order("id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list liabilities: %w", err)
	}
	return list, nil
}

// UpdateLiability 稀疏更新负债
func (s *Service) UpdateLiability(ctx context.Context, id uint, upd LiabilityUpdate) (bool, error) {
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		l, ok, err := first[models.Liability](tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return errNotFound
		}
		if upd.CategoryID != nil {
			plan, err := mustExist[models.Plan](tx, "plan_id", l.PlanID)
			if err != nil {
				return err
			}
			if err := categoryInHousehold[models.LiabilityCategory](tx, "liability_category_id", *upd.CategoryID, plan.HouseholdID); err != nil {
				return err
			}
			l.LiabilityCategoryID = *upd.CategoryID
		}
		if upd.Name != nil {
			l.Name = *upd.Name
		}
		if upd.Value != nil {
			l.Value = *upd.Value
		}
		if upd.InterestRate != nil {
			l.InterestRate = *upd.InterestRate
		}
		if upd.IncludeInNestEgg != nil {
			l.IncludeInNestEgg = *upd.IncludeInNestEgg
		}
		if err := validateLiability(&l); err != nil {
			return err
		}
		return tx.Model(&l).Updates(map[string]interface{}{
			"liability_category_id": l.LiabilityCategoryID,
			"name":                  l.Name,
			"value":                 l.Value,
			"interest_rate":         l.InterestRate,
			"include_in_nest_egg":   l.IncludeInNestEgg,
		}).Error
	})
	found, err := foundResult(err)
	if err != nil {
		return false, fmt.Errorf("update liability: %w", err)
	}
	return found, nil
}

// DeleteLiability 删除负债及各情景中针对它的覆盖
func (s *Service) DeleteLiability(ctx context.Context, id uint) (bool, error) {
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		_, ok, err := first[models.Liability](tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return errNotFound
		}
		if err := tx.Where("liability_id = ?", id).Delete(&models.ScenarioLiability{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Liability{}, id).Error
	})
	found, err := foundResult(err)
	if err != nil {
		return false, fmt.Errorf("delete liability: %w", err)
	}
	return found, nil
}
