package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fipli/models"
)

// AssumptionsInput 基础假设参数。创建计划时 InflationRate 必填，
// 其余缺省分别为 6.0 和 0；更新时 nil 表示不修改。
type AssumptionsInput struct {
	NestEggGrowthRate        *float64         `json:"nest_egg_growth_rate"`
	InflationRate            *float64         `json:"inflation_rate"`
	AnnualRetirementSpending *decimal.Decimal `json:"annual_retirement_spending"`
}

func (in AssumptionsInput) validate() error {
	if in.NestEggGrowthRate != nil {
		if err := checkRate("nest_egg_growth_rate", *in.NestEggGrowthRate); err != nil {
			return err
		}
	}
	if in.InflationRate != nil {
		if err := checkRate("inflation_rate", *in.InflationRate); err != nil {
			return err
		}
	}
	if in.AnnualRetirementSpending != nil {
		if err := checkNonNegative("annual_retirement_spending", *in.AnnualRetirementSpending); err != nil {
			return err
		}
	}
	return nil
}

// PlanInput 创建计划参数，CreationYear 为 0 时取当前年份
type PlanInput struct {
	Name              string           `json:"name"`
	ReferencePersonID uint             `json:"reference_person_id"`
	CreationYear      int              `json:"creation_year"`
	Assumptions       AssumptionsInput `json:"assumptions"`
}

// PlanUpdate 计划稀疏更新
type PlanUpdate struct {
	Name              *string `json:"name"`
	ReferencePersonID *uint   `json:"reference_person_id"`
}

// CreatePlan 创建计划及其基础假设
func (s *Service) CreatePlan(ctx context.Context, householdID uint, in PlanInput) (uint, error) {
	name, err := checkName("name", in.Name)
	if err != nil {
		return 0, err
	}
	if in.Assumptions.InflationRate == nil {
		return 0, invalid("inflation_rate", "必填")
	}
	if err := in.Assumptions.validate(); err != nil {
		return 0, err
	}
	year := in.CreationYear
	if year == 0 {
		year = s.now().Year()
	}
	if year < 0 {
		return 0, invalid("creation_year", "不能为负数")
	}

	plan := models.Plan{
		HouseholdID:       householdID,
		Name:              name,
		ReferencePersonID: in.ReferencePersonID,
		CreationYear:      year,
	}
	err = s.store.Transaction(ctx, func(tx *gorm.DB) error {
		if _, err := mustExist[models.Household](tx, "household_id", householdID); err != nil {
			return err
		}
		if err := checkReferencePerson(tx, householdID, in.ReferencePersonID); err != nil {
			return err
		}
		if err := tx.Create(&plan).Error; err != nil {
			return err
		}
		ba := models.BaseAssumptions{
			PlanID:            plan.ID,
			NestEggGrowthRate: models.DefaultNestEggGrowthRate,
			InflationRate:     *in.Assumptions.InflationRate,
		}
		if in.Assumptions.NestEggGrowthRate != nil {
			ba.NestEggGrowthRate = *in.Assumptions.NestEggGrowthRate
		}
		if in.Assumptions.AnnualRetirementSpending != nil {
			ba.AnnualRetirementSpending = *in.Assumptions.AnnualRetirementSpending
		}
		return tx.Create(&ba).Error
	})
	if err != nil {
		return 0, fmt.Errorf("create plan: %w", err)
	}
	s.log.Info("plan created", "plan_id", plan.ID, "household_id", householdID)
	return plan.ID, nil
}

func checkReferencePerson(tx *gorm.DB, householdID, personID uint) error {
	p, err := mustExist[models.Person](tx, "reference_person_id", personID)
	if err != nil {
		return err
	}
	if p.HouseholdID != householdID {
		return invalid("reference_person_id", "成员 %d 不属于家庭 %d", personID, householdID)
	}
	return nil
}

// GetPlan 获取计划
func (s *Service) GetPlan(ctx context.Context, id uint) (models.Plan, bool, error) {
	p, ok, err := first[models.Plan](s.store.DB(ctx), id)
	if err != nil {
		return p, false, fmt.Errorf("get plan: %w", err)
	}
	return p, ok, nil
}

// ListPlans 列出家庭的计划
func (s *Service) ListPlans(ctx context.Context, householdID uint) ([]models.Plan, error) {
	var list []models.Plan
	if err := s.store.DB(ctx).Where("household_id = ?", householdID).Order("id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return list, nil
}

// UpdatePlan 修改计划名称或参照人
func (s *Service) UpdatePlan(ctx context.Context, id uint, upd PlanUpdate) (bool, error) {
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		plan, ok, err := first[models.Plan](tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return errNotFound
		}
		updates := map[string]interface{}{}
		if upd.Name != nil {
			name, err := checkName("name", *upd.Name)
			if err != nil {
				return err
			}
			updates["name"] = name
		}
		if upd.ReferencePersonID != nil {
			if err := checkReferencePerson(tx, plan.HouseholdID, *upd.ReferencePersonID); err != nil {
				return err
			}
			updates["reference_person_id"] = *upd.ReferencePersonID
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&plan).Updates(updates).Error
	})
	found, err := foundResult(err)
	if err != nil {
		return false, fmt.Errorf("update plan: %w", err)
	}
	return found, nil
}

// DeletePlan 删除计划及其全部资产、负债、现金流、退休收入和情景
func (s *Service) DeletePlan(ctx context.Context, id uint) (bool, error) {
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		_, ok, err := first[models.Plan](tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return errNotFound
		}
		return deletePlanTx(tx, id)
	})
	found, err := foundResult(err)
	if err != nil {
		return false, fmt.Errorf("delete plan: %w", err)
	}
	if found {
		s.log.Info("plan deleted", "plan_id", id)
	}
	return found, nil
}

func deletePlanTx(tx *gorm.DB, planID uint) error {
	var scenarioIDs []uint
	if err := tx.Model(&models.Scenario{}).Where("plan_id = ?", planID).Pluck("id", &scenarioIDs).Error; err != nil {
		return err
	}
	if err := deleteScenariosTx(tx, scenarioIDs); err != nil {
		return err
	}

	var assetIDs []uint
	if err := tx.Model(&models.Asset{}).Where("plan_id = ?", planID).Pluck("id", &assetIDs).Error; err != nil {
		return err
	}
	if len(assetIDs) > 0 {
		if err := tx.Where("asset_id IN ?", assetIDs).Delete(&models.AssetOwner{}).Error; err != nil {
			return err
		}
		if err := tx.Where("asset_id IN ?", assetIDs).Delete(&models.GrowthAdjustment{}).Error; err != nil {
			return err
		}
	}

	var incomeIDs []uint
	if err := tx.Model(&models.RetirementIncome{}).Where("plan_id = ?", planID).Pluck("id", &incomeIDs).Error; err != nil {
		return err
	}
	if len(incomeIDs) > 0 {
		if err := tx.Where("retirement_income_id IN ?", incomeIDs).Delete(&models.RetirementIncomeOwner{}).Error; err != nil {
			return err
		}
	}

	owned := []interface{}{
		&models.Asset{},
		&models.Liability{},
		&models.CashFlow{},
		&models.RetirementIncome{},
		&models.BaseAssumptions{},
		&models.NestEggYearlyValue{},
	}
	for _, m := range owned {
		if err := tx.Where("plan_id = ?", planID).Delete(m).Error; err != nil {
			return err
		}
	}
	return tx.Delete(&models.Plan{}, planID).Error
}

// GetBaseAssumptions 获取计划的基础假设
func (s *Service) GetBaseAssumptions(ctx context.Context, planID uint) (models.BaseAssumptions, bool, error) {
	var ba models.BaseAssumptions
	res := s.store.DB(ctx).Where("plan_id = ?", planID).Limit(1).Find(&ba)
	if res.Error != nil {
		return ba, false, fmt.Errorf("get base assumptions: %w", res.Error)
	}
	return ba, res.RowsAffected > 0, nil
}

// UpdateBaseAssumptions 稀疏更新基础假设
func (s *Service) UpdateBaseAssumptions(ctx context.Context, planID uint, in AssumptionsInput) (bool, error) {
	if err := in.validate(); err != nil {
		return false, err
	}
	updates := map[string]interface{}{}
	if in.NestEggGrowthRate != nil {
		updates["nest_egg_growth_rate"] = *in.NestEggGrowthRate
	}
	if in.InflationRate != nil {
		updates["inflation_rate"] = *in.InflationRate
	}
	if in.AnnualRetirementSpending != nil {
		updates["annual_retirement_spending"] = *in.AnnualRetirementSpending
	}
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		var ba models.BaseAssumptions
		res := tx.Where("plan_id = ?", planID).Limit(1).Find(&ba)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotFound
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&ba).Updates(updates).Error
	})
	found, err := foundResult(err)
	if err != nil {
		return false, fmt.Errorf("update base assumptions: %w", err)
	}
	return found, nil
}
