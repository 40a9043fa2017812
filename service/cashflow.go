package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fipli/models"
)

// CashFlowInput 创建现金流参数，Kind 不区分大小写
type CashFlowInput struct {
	Kind           string          `json:"kind"`
	Name           string          `json:"name"`
	AnnualAmount   decimal.Decimal `json:"annual_amount"`
	StartYear      int             `json:"start_year"`
	EndYear        int             `json:"end_year"`
	ApplyInflation bool            `json:"apply_inflation"`
}

// CashFlowUpdate 现金流稀疏更新
type CashFlowUpdate struct {
	Kind           *string          `json:"kind"`
	Name           *string          `json:"name"`
	AnnualAmount   *decimal.Decimal `json:"annual_amount"`
	StartYear      *int             `json:"start_year"`
	EndYear        *int             `json:"end_year"`
	ApplyInflation *bool            `json:"apply_inflation"`
}

// PlanCashFlows 按方向拆分的现金流
type PlanCashFlows struct {
	Inflows  []models.CashFlow `json:"inflows"`
	Outflows []models.CashFlow `json:"outflows"`
}

func validateCashFlow(c *models.CashFlow, creationYear int) error {
	var err error
	if c.Kind, err = normalizeKind(c.Kind); err != nil {
		return err
	}
	if c.Name, err = checkName("name", c.Name); err != nil {
		return err
	}
	if err := checkNonNegative("annual_amount", c.AnnualAmount); err != nil {
		return err
	}
	return ValidateCashFlowYears(c.StartYear, c.EndYear, creationYear)
}

// CreateCashFlow 创建现金流
func (s *Service) CreateCashFlow(ctx context.Context, planID uint, in CashFlowInput) (uint, error) {
	c := models.CashFlow{
		PlanID:         planID,
		Kind:           in.Kind,
		Name:           in.Name,
		AnnualAmount:   in.AnnualAmount,
		StartYear:      in.StartYear,
		EndYear:        in.EndYear,
		ApplyInflation: in.ApplyInflation,
	}
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		plan, err := mustExist[models.Plan](tx, "plan_id", planID)
		if err != nil {
			return err
		}
		if err := validateCashFlow(&c, plan.CreationYear); err != nil {
			return err
		}
		return tx.Create(&c).Error
	})
	if err != nil {
		return 0, fmt.Errorf("create cash flow: %w", err)
	}
	return c.ID, nil
}

// GetCashFlow 获取现金流
func (s *Service) GetCashFlow(ctx context.Context, id uint) (models.CashFlow, bool, error) {
	c, ok, err := first[models.CashFlow](s.store.DB(ctx), id)
	return c, ok, wrapErr("get cash flow", err)
}

// ListCashFlows 列出计划的全部现金流
func (s *Service) ListCashFlows(ctx context.Context, planID uint) ([]models.CashFlow, error) {
	var list []models.CashFlow
	if err := s.store.DB(ctx).Where("plan_id = ?", planID).Order("start_year ASC, id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list cash flows: %w", err)
	}
	return list, nil
}

// GetPlanCashFlows 按流入流出拆分，year 非 nil 时只返回该年有效的条目
func (s *Service) GetPlanCashFlows(ctx context.Context, planID uint, year *int) (PlanCashFlows, error) {
	q := s.store.DB(ctx).Where("plan_id = ?", planID)
	if year != nil {
		q = q.Where("start_year <= ? AND end_year >= ?", *year, *year)
	}
	var list []models.CashFlow
	if err := q.Order("start_year ASC, id ASC").Find(&list).Error; err != nil {
		return PlanCashFlows{}, fmt.Errorf("get plan cash flows: %w", err)
	}
	out := PlanCashFlows{Inflows: []models.CashFlow{}, Outflows: []models.CashFlow{}}
	for _, c := range list {
		if c.Kind == models.CashFlowInflow {
			out.Inflows = append(out.Inflows, c)
		} else {
			out.Outflows = append(out.Outflows, c)
		}
	}
	return out, nil
}

// UpdateCashFlow 稀疏更新现金流，年份按合并后的区间校验
func (s *Service) UpdateCashFlow(ctx context.Context, id uint, upd CashFlowUpdate) (bool, error) {
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		c, ok, err := first[models.CashFlow](tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return errNotFound
		}
		plan, err := mustExist[models.Plan](tx, "plan_id", c.PlanID)
		if err != nil {
			return err
		}
		if upd.Kind != nil {
			c.Kind = *upd.Kind
		}
		if upd.Name != nil {
			c.Name = *upd.Name
		}
		if upd.AnnualAmount != nil {
			c.AnnualAmount = *upd.AnnualAmount
		}
		if upd.StartYear != nil {
			c.StartYear = *upd.StartYear
		}
		if upd.EndYear != nil {
			c.EndYear = *upd.EndYear
		}
		if upd.ApplyInflation != nil {
			c.ApplyInflation = *upd.ApplyInflation
		}
		if err := validateCashFlow(&c, plan.CreationYear); err != nil {
			return err
		}
		if err := recheckCashFlowScenarios(tx, c, plan.CreationYear); err != nil {
			return err
		}
		return tx.Model(&c).Updates(map[string]interface{}{
			"kind":            c.Kind,
			"name":            c.Name,
			"annual_amount":   c.AnnualAmount,
			"start_year":      c.StartYear,
			"end_year":        c.EndYear,
			"apply_inflation": c.ApplyInflation,
		}).Error
	})
	found, err := foundResult(err)
	if err != nil {
		return false, fmt.Errorf("update cash flow: %w", err)
	}
	return found, nil
}

// DeleteCashFlow 删除现金流及各情景中针对它的覆盖
func (s *Service) DeleteCashFlow(ctx context.Context, id uint) (bool, error) {
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		_, ok, err := first[models.CashFlow](tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return errNotFound
		}
		if err := tx.Where("cash_flow_id = ?", id).Delete(&models.ScenarioCashFlow{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.CashFlow{}, id).Error
	})
	found, err := foundResult(err)
	if err != nil {
		return false, fmt.Errorf("delete cash flow: %w", err)
	}
	return found, nil
}
