package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"fipli/models"
)

// 基础记录变更后，已有覆盖与新基础值合并出的生效值仍须满足同样的约束。
// 以下检查在变更所在事务中执行，失败时整个写入回滚。

// inScenario 为情景中的校验失败标注情景 ID
func inScenario(scenarioID uint, err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return &ValidationError{Field: ve.Field, Message: fmt.Sprintf("情景 %d 中%s", scenarioID, ve.Message)}
	}
	return err
}

// recheckCashFlowScenarios 用更新后的现金流 c 重新校验各情景中的生效区间
func recheckCashFlowScenarios(tx *gorm.DB, c models.CashFlow, creationYear int) error {
	var rows []models.ScenarioCashFlow
	if err := tx.Where("cash_flow_id = ?", c.ID).Order("scenario_id ASC").Find(&rows).Error; err != nil {
		return err
	}
	for _, r := range rows {
		merged := cashFlowOverrideOf(r).apply(c)
		if err := ValidateCashFlowYears(merged.StartYear, merged.EndYear, creationYear); err != nil {
			return inScenario(r.ScenarioID, err)
		}
	}
	return nil
}

// recheckPerson 成员年龄已写入后，校验各情景中的生效年龄和其持有的退休收入
func recheckPerson(tx *gorm.DB, p models.Person) error {
	var rows []models.ScenarioPerson
	if err := tx.Where("person_id = ?", p.ID).Order("scenario_id ASC").Find(&rows).Error; err != nil {
		return err
	}
	for _, r := range rows {
		merged := personOverrideOf(r).apply(p)
		if err := checkAges(merged.RetirementAge, merged.FinalAge); err != nil {
			return inScenario(r.ScenarioID, err)
		}
	}

	incomes, err := ownedIncomes(tx, p.ID)
	if err != nil {
		return err
	}
	for _, r := range incomes {
		owners, err := incomeOwnerPeople(tx, r.ID)
		if err != nil {
			return err
		}
		if err := ValidateIncomeAges(r.StartAge, r.EndAge, owners); err != nil {
			return err
		}
		if err := recheckIncomeScenarios(tx, r, owners); err != nil {
			return err
		}
	}
	return nil
}

// recheckOwnedIncomes 成员覆盖写入后，校验该情景中其持有的退休收入
func recheckOwnedIncomes(tx *gorm.DB, sc models.Scenario, personID uint) error {
	incomes, err := ownedIncomes(tx, personID)
	if err != nil {
		return err
	}
	for _, r := range incomes {
		if r.PlanID != sc.PlanID {
			continue
		}
		owners, err := incomeOwnerPeople(tx, r.ID)
		if err != nil {
			return err
		}
		if err := checkIncomeInScenario(tx, sc.ID, r, owners); err != nil {
			return err
		}
	}
	return nil
}

// recheckIncomeScenarios 用基础值 r 和基础持有人 owners 校验计划下每个情景
func recheckIncomeScenarios(tx *gorm.DB, r models.RetirementIncome, owners []models.Person) error {
	var ids []uint
	if err := tx.Model(&models.Scenario{}).Where("plan_id = ?", r.PlanID).Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return err
	}
	for _, id := range ids {
		if err := checkIncomeInScenario(tx, id, r, owners); err != nil {
			return err
		}
	}
	return nil
}

func checkIncomeInScenario(tx *gorm.DB, scenarioID uint, r models.RetirementIncome, owners []models.Person) error {
	row, _, err := findOverride[models.ScenarioRetirementIncome](tx, incomeKey(scenarioID, r.ID))
	if err != nil {
		return err
	}
	merged := incomeOverrideOf(row).apply(r)
	effective, err := effectivePeople(tx, scenarioID, owners)
	if err != nil {
		return err
	}
	if err := ValidateIncomeAges(merged.StartAge, merged.EndAge, effective); err != nil {
		return inScenario(scenarioID, err)
	}
	return nil
}

func ownedIncomes(tx *gorm.DB, personID uint) ([]models.RetirementIncome, error) {
	var list []models.RetirementIncome
	err := tx.Where("id IN (?)", tx.Model(&models.RetirementIncomeOwner{}).Select("retirement_income_id").Where("person_id = ?", personID)).
		Order("id ASC").Find(&list).Error
	return list, err
}
