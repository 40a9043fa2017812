package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fipli/models"
)

// YearlyValue 某年的养老储备金额
type YearlyValue struct {
	Year  int             `json:"year" yaml:"year"`
	Value decimal.Decimal `json:"value" yaml:"value"`
}

// SaveYearlyValues 整体替换计划（或情景）的预测结果，scenarioID 为 nil 表示基础计划
func (s *Service) SaveYearlyValues(ctx context.Context, planID uint, scenarioID *uint, values []YearlyValue) error {
	seen := make(map[int]bool, len(values))
	for _, v := range values {
		if seen[v.Year] {
			return invalid("year", "年份 %d 重复", v.Year)
		}
		seen[v.Year] = true
	}
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		if _, err := mustExist[models.Plan](tx, "plan_id", planID); err != nil {
			return err
		}
		q := tx.Where("plan_id = ?", planID)
		if scenarioID != nil {
			sc, err := mustExist[models.Scenario](tx, "scenario_id", *scenarioID)
			if err != nil {
				return err
			}
			if sc.PlanID != planID {
				return invalid("scenario_id", "情景 %d 不属于计划 %d", sc.ID, planID)
			}
			q = q.Where("scenario_id = ?", *scenarioID)
		} else {
			q = q.Where("scenario_id IS NULL")
		}
		if err := q.Delete(&models.NestEggYearlyValue{}).Error; err != nil {
			return err
		}
		if len(values) == 0 {
			return nil
		}
		rows := make([]models.NestEggYearlyValue, len(values))
		for i, v := range values {
			rows[i] = models.NestEggYearlyValue{PlanID: planID, ScenarioID: scenarioID, Year: v.Year, Value: v.Value}
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return fmt.Errorf("save yearly values: %w", err)
	}
	return nil
}

// ListYearlyValues 按年份读取预测结果
func (s *Service) ListYearlyValues(ctx context.Context, planID uint, scenarioID *uint) ([]YearlyValue, error) {
	q := s.store.DB(ctx).Model(&models.NestEggYearlyValue{}).Where("plan_id = ?", planID)
	if scenarioID != nil {
		q = q.Where("scenario_id = ?", *scenarioID)
	} else {
		q = q.Where("scenario_id IS NULL")
	}
	var rows []models.NestEggYearlyValue
	if err := q.Order("year ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list yearly values: %w", err)
	}
	out := make([]YearlyValue, len(rows))
	for i, r := range rows {
		out[i] = YearlyValue{Year: r.Year, Value: r.Value}
	}
	return out, nil
}
