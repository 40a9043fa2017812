package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fipli/models"
	"fipli/override"
)

// CashFlowPatch 情景中现金流的覆盖
type CashFlowPatch struct {
	AnnualAmount          override.Field[decimal.Decimal] `json:"annual_amount"`
	StartYear             override.Field[int]             `json:"start_year"`
	EndYear               override.Field[int]             `json:"end_year"`
	ApplyInflation        override.Field[bool]            `json:"apply_inflation"`
	ExcludeFromProjection bool                            `json:"exclude_from_projection"`
}

func (p CashFlowPatch) columns() columnSet {
	cols := columnSet{}
	put(cols, "annual_amount", p.AnnualAmount)
	put(cols, "start_year", p.StartYear)
	put(cols, "end_year", p.EndYear)
	put(cols, "apply_inflation", p.ApplyInflation)
	return cols
}

// CashFlowOverride 已保存的现金流覆盖
type CashFlowOverride struct {
	ID                    uint                            `json:"id"`
	ScenarioID            uint                            `json:"scenario_id"`
	CashFlowID            uint                            `json:"cash_flow_id"`
	AnnualAmount          override.Field[decimal.Decimal] `json:"annual_amount"`
	StartYear             override.Field[int]             `json:"start_year"`
	EndYear               override.Field[int]             `json:"end_year"`
	ApplyInflation        override.Field[bool]            `json:"apply_inflation"`
	ExcludeFromProjection bool                            `json:"exclude_from_projection"`
}

func cashFlowOverrideOf(r models.ScenarioCashFlow) CashFlowOverride {
	return CashFlowOverride{
		ID:                    r.ID,
		ScenarioID:            r.ScenarioID,
		CashFlowID:            r.CashFlowID,
		AnnualAmount:          decimalField(r.OverridesAnnualAmount, r.AnnualAmount),
		StartYear:             override.FromColumns(r.OverridesStartYear, r.StartYear),
		EndYear:               override.FromColumns(r.OverridesEndYear, r.EndYear),
		ApplyInflation:        override.FromColumns(r.OverridesApplyInflation, r.ApplyInflation),
		ExcludeFromProjection: r.ExcludeFromProjection,
	}
}

func (o CashFlowOverride) apply(c models.CashFlow) models.CashFlow {
	c.AnnualAmount = o.AnnualAmount.Resolve(c.AnnualAmount)
	c.StartYear = o.StartYear.Resolve(c.StartYear)
	c.EndYear = o.EndYear.Resolve(c.EndYear)
	c.ApplyInflation = o.ApplyInflation.Resolve(c.ApplyInflation)
	return c
}

func cashFlowKey(scenarioID, cashFlowID uint) overrideKey {
	return overrideKey{ScenarioID: scenarioID, Column: "cash_flow_id", EntityID: cashFlowID}
}

// OverrideCashFlow 写入或合并现金流覆盖。
// 起止年份按“本次值 > 已有覆盖 > 基础值”合并后校验。
func (s *Service) OverrideCashFlow(ctx context.Context, scenarioID, cashFlowID uint, p CashFlowPatch) (uint, error) {
	if v, ok := p.AnnualAmount.Get(); ok {
		if err := checkNonNegative("annual_amount", v); err != nil {
			return 0, err
		}
	}
	var id uint
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		sc, plan, err := loadScenario(tx, scenarioID)
		if err != nil {
			return err
		}
		c, err := mustExist[models.CashFlow](tx, "cash_flow_id", cashFlowID)
		if err != nil {
			return err
		}
		if c.PlanID != sc.PlanID {
			return invalid("cash_flow_id", "现金流 %d 不属于情景所在计划", cashFlowID)
		}
		key := cashFlowKey(scenarioID, cashFlowID)
		row, _, err := findOverride[models.ScenarioCashFlow](tx, key)
		if err != nil {
			return err
		}
		cur := cashFlowOverrideOf(row)
		merged := CashFlowOverride{
			StartYear: p.StartYear.Or(cur.StartYear),
			EndYear:   p.EndYear.Or(cur.EndYear),
		}.apply(c)
		if err := ValidateCashFlowYears(merged.StartYear, merged.EndYear, plan.CreationYear); err != nil {
			return err
		}
		id, err = upsertOverride(tx, &models.ScenarioCashFlow{}, key, p.columns(), &p.ExcludeFromProjection)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("override cash flow: %w", err)
	}
	return id, nil
}

// GetCashFlowOverride 读取现金流覆盖
func (s *Service) GetCashFlowOverride(ctx context.Context, scenarioID, cashFlowID uint) (CashFlowOverride, bool, error) {
	row, ok, err := findOverride[models.ScenarioCashFlow](s.store.DB(ctx), cashFlowKey(scenarioID, cashFlowID))
	if err != nil || !ok {
		return CashFlowOverride{}, ok, wrapErr("get cash flow override", err)
	}
	return cashFlowOverrideOf(row), true, nil
}

// DeleteCashFlowOverride 删除现金流覆盖
func (s *Service) DeleteCashFlowOverride(ctx context.Context, scenarioID, cashFlowID uint) (bool, error) {
	ok, err := deleteOverride(s.store.DB(ctx), &models.ScenarioCashFlow{}, cashFlowKey(scenarioID, cashFlowID))
	return ok, wrapErr("delete cash flow override", err)
}

// IncomePatch 情景中退休收入的覆盖
type IncomePatch struct {
	AnnualIncome          override.Field[decimal.Decimal] `json:"annual_income"`
	StartAge              override.Field[int]             `json:"start_age"`
	EndAge                override.Field[int]             `json:"end_age"`
	ApplyInflation        override.Field[bool]            `json:"apply_inflation"`
	IncludeInNestEgg      override.Field[bool]            `json:"include_in_nest_egg"`
	ExcludeFromProjection bool                            `json:"exclude_from_projection"`
}

func (p IncomePatch) columns() columnSet {
	cols := columnSet{}
	put(cols, "annual_income", p.AnnualIncome)
	put(cols, "start_age", p.StartAge)
	put(cols, "end_age", p.EndAge)
	put(cols, "apply_inflation", p.ApplyInflation)
	put(cols, "include_in_nest_egg", p.IncludeInNestEgg)
	return cols
}

// IncomeOverride 已保存的退休收入覆盖
type IncomeOverride struct {
	ID                    uint                            `json:"id"`
	ScenarioID            uint                            `json:"scenario_id"`
	RetirementIncomeID    uint                            `json:"retirement_income_id"`
	AnnualIncome          override.Field[decimal.Decimal] `json:"annual_income"`
	StartAge              override.Field[int]             `json:"start_age"`
	EndAge                override.Field[int]             `json:"end_age"`
	ApplyInflation        override.Field[bool]            `json:"apply_inflation"`
	IncludeInNestEgg      override.Field[bool]            `json:"include_in_nest_egg"`
	ExcludeFromProjection bool                            `json:"exclude_from_projection"`
}

func incomeOverrideOf(r models.ScenarioRetirementIncome) IncomeOverride {
	return IncomeOverride{
		ID:                    r.ID,
		ScenarioID:            r.ScenarioID,
		RetirementIncomeID:    r.RetirementIncomeID,
		AnnualIncome:          decimalField(r.OverridesAnnualIncome, r.AnnualIncome),
		StartAge:              override.FromColumns(r.OverridesStartAge, r.StartAge),
		EndAge:                override.FromColumns(r.OverridesEndAge, r.EndAge),
		ApplyInflation:        override.FromColumns(r.OverridesApplyInflation, r.ApplyInflation),
		IncludeInNestEgg:      override.FromColumns(r.OverridesIncludeInNestEgg, r.IncludeInNestEgg),
		ExcludeFromProjection: r.ExcludeFromProjection,
	}
}

func (o IncomeOverride) apply(r models.RetirementIncome) models.RetirementIncome {
	r.AnnualIncome = o.AnnualIncome.Resolve(r.AnnualIncome)
	r.StartAge = o.StartAge.Resolve(r.StartAge)
	r.EndAge = o.EndAge.ResolvePtr(r.EndAge)
	r.ApplyInflation = o.ApplyInflation.Resolve(r.ApplyInflation)
	r.IncludeInNestEgg = o.IncludeInNestEgg.Resolve(r.IncludeInNestEgg)
	return r
}

func incomeKey(scenarioID, incomeID uint) overrideKey {
	return overrideKey{ScenarioID: scenarioID, Column: "retirement_income_id", EntityID: incomeID}
}

// OverrideRetirementIncome 写入或合并退休收入覆盖。
// 起止年龄按合并后的值校验，并对照每个持有人在该情景中的生效年龄。
func (s *Service) OverrideRetirementIncome(ctx context.Context, scenarioID, incomeID uint, p IncomePatch) (uint, error) {
	if v, ok := p.AnnualIncome.Get(); ok {
		if err := checkNonNegative("annual_income", v); err != nil {
			return 0, err
		}
	}
	var id uint
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		sc, _, err := loadScenario(tx, scenarioID)
		if err != nil {
			return err
		}
		r, err := mustExist[models.RetirementIncome](tx, "retirement_income_id", incomeID)
		if err != nil {
			return err
		}
		if r.PlanID != sc.PlanID {
			return invalid("retirement_income_id", "退休收入 %d 不属于情景所在计划", incomeID)
		}
		key := incomeKey(scenarioID, incomeID)
		row, _, err := findOverride[models.ScenarioRetirementIncome](tx, key)
		if err != nil {
			return err
		}
		cur := incomeOverrideOf(row)
		merged := IncomeOverride{
			StartAge: p.StartAge.Or(cur.StartAge),
			EndAge:   p.EndAge.Or(cur.EndAge),
		}.apply(r)

		owners, err := incomeOwnerPeople(tx, incomeID)
		if err != nil {
			return err
		}
		owners, err = effectivePeople(tx, scenarioID, owners)
		if err != nil {
			return err
		}
		if err := ValidateIncomeAges(merged.StartAge, merged.EndAge, owners); err != nil {
			return err
		}
		id, err = upsertOverride(tx, &models.ScenarioRetirementIncome{}, key, p.columns(), &p.ExcludeFromProjection)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("override retirement income: %w", err)
	}
	return id, nil
}

// GetRetirementIncomeOverride 读取退休收入覆盖
func (s *Service) GetRetirementIncomeOverride(ctx context.Context, scenarioID, incomeID uint) (IncomeOverride, bool, error) {
	row, ok, err := findOverride[models.ScenarioRetirementIncome](s.store.DB(ctx), incomeKey(scenarioID, incomeID))
	if err != nil || !ok {
		return IncomeOverride{}, ok, wrapErr("get retirement income override", err)
	}
	return incomeOverrideOf(row), true, nil
}

// DeleteRetirementIncomeOverride 删除退休收入覆盖
func (s *Service) DeleteRetirementIncomeOverride(ctx context.Context, scenarioID, incomeID uint) (bool, error) {
	ok, err := deleteOverride(s.store.DB(ctx), &models.ScenarioRetirementIncome{}, incomeKey(scenarioID, incomeID))
	return ok, wrapErr("delete retirement income override", err)
}
