package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fipli/models"
)

// IncomeInput 创建退休收入参数，IncludeInNestEgg 缺省为 true
type IncomeInput struct {
	Name             string          `json:"name"`
	AnnualIncome     decimal.Decimal `json:"annual_income"`
	StartAge         int             `json:"start_age"`
	EndAge           *int            `json:"end_age"`
	OwnerIDs         []uint          `json:"owner_ids"`
	ApplyInflation   bool            `json:"apply_inflation"`
	IncludeInNestEgg *bool           `json:"include_in_nest_egg"`
}

// IncomeUpdate 退休收入稀疏更新
type IncomeUpdate struct {
	Name             *string          `json:"name"`
	AnnualIncome     *decimal.Decimal `json:"annual_income"`
	StartAge         *int             `json:"start_age"`
	EndAge           *int             `json:"end_age"`
	OwnerIDs         []uint           `json:"owner_ids"`
	ApplyInflation   *bool            `json:"apply_inflation"`
	IncludeInNestEgg *bool            `json:"include_in_nest_egg"`
}

func validateIncome(r *models.RetirementIncome, owners []models.Person) error {
	var err error
	if r.Name, err = checkName("name", r.Name); err != nil {
		return err
	}
	if err := checkNonNegative("annual_income", r.AnnualIncome); err != nil {
		return err
	}
	return ValidateIncomeAges(r.StartAge, r.EndAge, owners)
}

// CreateRetirementIncome 创建退休收入及其持有人关系
func (s *Service) CreateRetirementIncome(ctx context.Context, planID uint, in IncomeInput) (uint, error) {
	r := models.RetirementIncome{
		PlanID:           planID,
		Name:             in.Name,
		AnnualIncome:     in.AnnualIncome,
		StartAge:         in.StartAge,
		EndAge:           in.EndAge,
		ApplyInflation:   in.ApplyInflation,
		IncludeInNestEgg: true,
	}
	if in.IncludeInNestEgg != nil {
		r.IncludeInNestEgg = *in.IncludeInNestEgg
	}
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		plan, err := mustExist[models.Plan](tx, "plan_id", planID)
		if err != nil {
			return err
		}
		owners, err := ownersInHousehold(tx, plan.HouseholdID, in.OwnerIDs)
		if err != nil {
			return err
		}
		if err := validateIncome(&r, owners); err != nil {
			return err
		}
		if err := tx.Create(&r).Error; err != nil {
			return err
		}
		return replaceIncomeOwners(tx, r.ID, owners)
	})
	if err != nil {
		return 0, fmt.Errorf("create retirement income: %w", err)
	}
	return r.ID, nil
}

func replaceIncomeOwners(tx *gorm.DB, incomeID uint, owners []models.Person) error {
	if err := tx.Where("retirement_income_id = ?", incomeID).Delete(&models.RetirementIncomeOwner{}).Error; err != nil {
		return err
	}
	links := make([]models.RetirementIncomeOwner, 0, len(owners))
	for _, p := range owners {
		links = append(links, models.RetirementIncomeOwner{RetirementIncomeID: incomeID, PersonID: p.ID})
	}
	return tx.Create(&links).Error
}

func loadIncomeOwners(tx *gorm.DB, list []models.RetirementIncome) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]uint, len(list))
	for i, r := range list {
		ids[i] = r.ID
	}
	var links []models.RetirementIncomeOwner
	if err := tx.Where("retirement_income_id IN ?", ids).Order("retirement_income_id ASC, person_id ASC").Find(&links).Error; err != nil {
		return err
	}
	byIncome := make(map[uint][]uint)
	for _, l := range links {
		byIncome[l.RetirementIncomeID] = append(byIncome[l.RetirementIncomeID], l.PersonID)
	}
	for i := range list {
		list[i].OwnerIDs = byIncome[list[i].ID]
	}
	return nil
}

// incomeOwnerPeople 读取退休收入当前的持有人
func incomeOwnerPeople(tx *gorm.DB, incomeID uint) ([]models.Person, error) {
	var people []models.Person
	err := tx.Where("id IN (?)", tx.Model(&models.RetirementIncomeOwner{}).Select("person_id").Where("retirement_income_id = ?", incomeID)).
		Order("id ASC").Find(&people).Error
	return people, err
}

// GetRetirementIncome 获取退休收入（含持有人）
func (s *Service) GetRetirementIncome(ctx context.Context, id uint) (models.RetirementIncome, bool, error) {
	db := s.store.DB(ctx)
	r, ok, err := first[models.RetirementIncome](db, id)
	if err != nil || !ok {
		return r, ok, wrapErr("get retirement income", err)
	}
	list := []models.RetirementIncome{r}
	if err := loadIncomeOwners(db, list); err != nil {
		return r, false, fmt.Errorf("get retirement income: %w", err)
	}
	return list[0], true, nil
}

// ListRetirementIncome 列出计划的退休收入
func (s *Service) ListRetirementIncome(ctx context.Context, planID uint) ([]models.RetirementIncome, error) {
	db := s.store.DB(ctx)
	var list []models.RetirementIncome
	if err := db.Where("plan_id = ?", planID).Order("start_age ASC, id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list retirement income: %w", err)
	}
	if err := loadIncomeOwners(db, list); err != nil {
		return nil, fmt.Errorf("list retirement income: %w", err)
	}
	return list, nil
}

// ListPersonRetirementIncome 列出某成员持有的退休收入
func (s *Service) ListPersonRetirementIncome(ctx context.Context, personID uint) ([]models.RetirementIncome, error) {
	db := s.store.DB(ctx)
	var list []models.RetirementIncome
	err := db.Where("id IN (?)", db.Model(&models.RetirementIncomeOwner{}).Select("retirement_income_id").Where("person_id = ?", personID)).
		Order("start_age ASC, id ASC").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list person retirement income: %w", err)
	}
	if err := loadIncomeOwners(db, list); err != nil {
		return nil, fmt.Errorf("list person retirement income: %w", err)
	}
	return list, nil
}

// UpdateRetirementIncome 稀疏更新退休收入，年龄按合并后的值与持有人校验
func (s *Service) UpdateRetirementIncome(ctx context.Context, id uint, upd IncomeUpdate) (bool, error) {
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		r, ok, err := first[models.RetirementIncome](tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return errNotFound
		}
		var owners []models.Person
		if upd.OwnerIDs != nil {
			plan, err := mustExist[models.Plan](tx, "plan_id", r.PlanID)
			if err != nil {
				return err
			}
			if owners, err = ownersInHousehold(tx, plan.HouseholdID, upd.OwnerIDs); err != nil {
				return err
			}
		} else if owners, err = incomeOwnerPeople(tx, id); err != nil {
			return err
		}
		if upd.Name != nil {
			r.Name = *upd.Name
		}
		if upd.AnnualIncome != nil {
			r.AnnualIncome = *upd.AnnualIncome
		}
		if upd.StartAge != nil {
			r.StartAge = *upd.StartAge
		}
		if upd.EndAge != nil {
			r.EndAge = upd.EndAge
		}
		if upd.ApplyInflation != nil {
			r.ApplyInflation = *upd.ApplyInflation
		}
		if upd.IncludeInNestEgg != nil {
			r.IncludeInNestEgg = *upd.IncludeInNestEgg
		}
		if err := validateIncome(&r, owners); err != nil {
			return err
		}
		if err := recheckIncomeScenarios(tx, r, owners); err != nil {
			return err
		}
		if upd.OwnerIDs != nil {
			if err := replaceIncomeOwners(tx, r.ID, owners); err != nil {
				return err
			}
		}
		return tx.Model(&r).Updates(map[string]interface{}{
			"name":                r.Name,
			"annual_income":       r.AnnualIncome,
			"start_age":           r.StartAge,
			"end_age":             r.EndAge,
			"apply_inflation":     r.ApplyInflation,
			"include_in_nest_egg": r.IncludeInNestEgg,
		}).Error
	})
	found, err := foundResult(err)
	if err != nil {
		return false, fmt.Errorf("update retirement income: %w", err)
	}
	return found, nil
}

// DeleteRetirementIncome 删除退休收入、持有人关系及各情景中针对它的覆盖
func (s *Service) DeleteRetirementIncome(ctx context.Context, id uint) (bool, error) {
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		_, ok, err := first[models.RetirementIncome](tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return errNotFound
		}
		if err := tx.Where("retirement_income_id = ?", id).Delete(&models.RetirementIncomeOwner{}).Error; err != nil {
			return err
		}
		if err := tx.Where("retirement_income_id = ?", id).Delete(&models.ScenarioRetirementIncome{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.RetirementIncome{}, id).Error
	})
	found, err := foundResult(err)
	if err != nil {
		return false, fmt.Errorf("delete retirement income: %w", err)
	}
	return found, nil
}
