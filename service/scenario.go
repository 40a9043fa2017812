package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fipli/models"
	"fipli/override"
)

// AssumptionPatch 情景对基础假设的覆盖，未设置的字段保持原状
type AssumptionPatch struct {
	NestEggGrowthRate        override.Field[float64]         `json:"nest_egg_growth_rate"`
	InflationRate            override.Field[float64]         `json:"inflation_rate"`
	AnnualRetirementSpending override.Field[decimal.Decimal] `json:"annual_retirement_spending"`
}

func (p AssumptionPatch) empty() bool {
	return !p.NestEggGrowthRate.IsSet() && !p.InflationRate.IsSet() && !p.AnnualRetirementSpending.IsSet()
}

func (p AssumptionPatch) validate() error {
	if v, ok := p.NestEggGrowthRate.Get(); ok {
		if err := checkRate("nest_egg_growth_rate", v); err != nil {
			return err
		}
	}
	if v, ok := p.InflationRate.Get(); ok {
		if err := checkRate("inflation_rate", v); err != nil {
			return err
		}
	}
	if v, ok := p.AnnualRetirementSpending.Get(); ok {
		if err := checkNonNegative("annual_retirement_spending", v); err != nil {
			return err
		}
	}
	return nil
}

func (p AssumptionPatch) columns() columnSet {
	cols := columnSet{}
	put(cols, "nest_egg_growth_rate", p.NestEggGrowthRate)
	put(cols, "inflation_rate", p.InflationRate)
	put(cols, "annual_retirement_spending", p.AnnualRetirementSpending)
	return cols
}

// ScenarioUpdate 情景更新参数
type ScenarioUpdate struct {
	Name        *string         `json:"name"`
	Assumptions AssumptionPatch `json:"assumptions"`
}

// ScenarioSummary 情景及其覆盖数量统计
type ScenarioSummary struct {
	models.Scenario
	HasAssumptionOverride  bool  `json:"has_assumption_override"`
	GrowthAdjustmentCount  int64 `json:"growth_adjustment_count"`
	PersonOverrideCount    int64 `json:"person_override_count"`
	AssetOverrideCount     int64 `json:"asset_override_count"`
	LiabilityOverrideCount int64 `json:"liability_override_count"`
	CashFlowOverrideCount  int64 `json:"cash_flow_override_count"`
	IncomeOverrideCount    int64 `json:"income_override_count"`
}

// CreateScenario 创建情景，可同时写入假设覆盖
func (s *Service) CreateScenario(ctx context.Context, planID uint, name string, patch AssumptionPatch) (uint, error) {
	name, err := checkName("name", name)
	if err != nil {
		return 0, err
	}
	if err := patch.validate(); err != nil {
		return 0, err
	}
	sc := models.Scenario{PlanID: planID, Name: name}
	err = s.store.Transaction(ctx, func(tx *gorm.DB) error {
		if _, err := mustExist[models.Plan](tx, "plan_id", planID); err != nil {
			return err
		}
		if err := tx.Create(&sc).Error; err != nil {
			return err
		}
		if patch.empty() {
			return nil
		}
		_, err := upsertOverride(tx, &models.ScenarioAssumption{}, overrideKey{ScenarioID: sc.ID}, patch.columns(), nil)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("create scenario: %w", err)
	}
	s.log.Info("scenario created", "scenario_id", sc.ID, "plan_id", planID)
	return sc.ID, nil
}

// UpdateScenario 修改情景名称，并把提供的假设覆盖合并进已有覆盖行
func (s *Service) UpdateScenario(ctx context.Context, id uint, upd ScenarioUpdate) (bool, error) {
	if err := upd.Assumptions.validate(); err != nil {
		return false, err
	}
	var name string
	if upd.Name != nil {
		n, err := checkName("name", *upd.Name)
		if err != nil {
			return false, err
		}
		name = n
	}
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		sc, ok, err := first[models.Scenario](tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return errNotFound
		}
		if upd.Name != nil {
			if err := tx.Model(&sc).Update("name", name).Error; err != nil {
				return err
			}
		}
		if upd.Assumptions.empty() {
			return nil
		}
		_, err = upsertOverride(tx, &models.ScenarioAssumption{}, overrideKey{ScenarioID: id}, upd.Assumptions.columns(), nil)
		return err
	})
	found, err := foundResult(err)
	if err != nil {
		return false, fmt.Errorf("update scenario: %w", err)
	}
	return found, nil
}

// DeleteScenario 删除情景及其全部覆盖
func (s *Service) DeleteScenario(ctx context.Context, id uint) (bool, error) {
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		_, ok, err := first[models.Scenario](tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return errNotFound
		}
		return deleteScenariosTx(tx, []uint{id})
	})
	found, err := foundResult(err)
	if err != nil {
		return false, fmt.Errorf("delete scenario: %w", err)
	}
	if found {
		s.log.Info("scenario deleted", "scenario_id", id)
	}
	return found, nil
}

// scenarioTables 依附于情景的表
var scenarioTables = []interface{}{
	&models.ScenarioAssumption{},
	&models.ScenarioGrowthAdjustment{},
	&models.ScenarioPerson{},
	&models.ScenarioAsset{},
	&models.ScenarioLiability{},
	&models.ScenarioCashFlow{},
	&models.ScenarioRetirementIncome{},
	&models.NestEggYearlyValue{},
}

func deleteScenariosTx(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	for _, m := range scenarioTables {
		if err := tx.Where("scenario_id IN ?", ids).Delete(m).Error; err != nil {
			return err
		}
	}
	return tx.Where("id IN ?", ids).Delete(&models.Scenario{}).Error
}

// GetScenario 获取情景及统计
func (s *Service) GetScenario(ctx context.Context, id uint) (ScenarioSummary, bool, error) {
	db := s.store.DB(ctx)
	sc, ok, err := first[models.Scenario](db, id)
	if err != nil || !ok {
		return ScenarioSummary{}, ok, wrapErr("get scenario", err)
	}
	list, err := summarize(db, []models.Scenario{sc})
	if err != nil {
		return ScenarioSummary{}, false, fmt.Errorf("get scenario: %w", err)
	}
	return list[0], true, nil
}

// ListScenarios 列出计划的情景及统计
func (s *Service) ListScenarios(ctx context.Context, planID uint) ([]ScenarioSummary, error) {
	db := s.store.DB(ctx)
	var scenarios []models.Scenario
	if err := db.Where("plan_id = ?", planID).Order("id ASC").Find(&scenarios).Error; err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	list, err := summarize(db, scenarios)
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	return list, nil
}

func summarize(db *gorm.DB, scenarios []models.Scenario) ([]ScenarioSummary, error) {
	out := make([]ScenarioSummary, len(scenarios))
	if len(scenarios) == 0 {
		return out, nil
	}
	ids := make([]uint, len(scenarios))
	for i, sc := range scenarios {
		ids[i] = sc.ID
	}

	counts := make([]map[uint]int64, 0, 7)
	for _, m := range []interface{}{
		&models.ScenarioAssumption{},
		&models.ScenarioGrowthAdjustment{},
		&models.ScenarioPerson{},
		&models.ScenarioAsset{},
		&models.ScenarioLiability{},
		&models.ScenarioCashFlow{},
		&models.ScenarioRetirementIncome{},
	} {
		c, err := countByScenario(db, m, ids)
		if err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}

	for i, sc := range scenarios {
		out[i] = ScenarioSummary{
			Scenario:               sc,
			HasAssumptionOverride:  counts[0][sc.ID] > 0,
			GrowthAdjustmentCount:  counts[1][sc.ID],
			PersonOverrideCount:    counts[2][sc.ID],
			AssetOverrideCount:     counts[3][sc.ID],
			LiabilityOverrideCount: counts[4][sc.ID],
			CashFlowOverrideCount:  counts[5][sc.ID],
			IncomeOverrideCount:    counts[6][sc.ID],
		}
	}
	return out, nil
}

func countByScenario(db *gorm.DB, model interface{}, ids []uint) (map[uint]int64, error) {
	var rows []struct {
		ScenarioID uint
		N          int64
	}
	err := db.Model(model).
		Select("scenario_id, COUNT(*) AS n").
		Where("scenario_id IN ?", ids).
		Group("scenario_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]int64, len(rows))
	for _, r := range rows {
		out[r.ScenarioID] = r.N
	}
	return out, nil
}

// ScenarioGrowthInput 情景增长调整参数，AssetID 为空表示作用于整个情景
type ScenarioGrowthInput struct {
	AssetID *uint `json:"asset_id"`
	GrowthWindowInput
}

// AddScenarioGrowthAdjustment 添加情景增长调整。
// 同一情景内、同一作用对象（某资产或整个情景）的区间不得重叠。
func (s *Service) AddScenarioGrowthAdjustment(ctx context.Context, scenarioID uint, in ScenarioGrowthInput) (uint, error) {
	if err := in.validate(); err != nil {
		return 0, err
	}
	g := models.ScenarioGrowthAdjustment{
		ScenarioID: scenarioID,
		AssetID:    in.AssetID,
		StartYear:  in.StartYear,
		EndYear:    in.EndYear,
		GrowthRate: in.Rate,
	}
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		sc, err := mustExist[models.Scenario](tx, "scenario_id", scenarioID)
		if err != nil {
			return err
		}
		q := tx.Where("scenario_id = ?", scenarioID)
		if in.AssetID != nil {
			a, err := mustExist[models.Asset](tx, "asset_id", *in.AssetID)
			if err != nil {
				return err
			}
			if a.PlanID != sc.PlanID {
				return invalid("asset_id", "资产 %d 不属于情景所在计划", a.ID)
			}
			q = q.Where("asset_id = ?", *in.AssetID)
		} else {
			q = q.Where("asset_id IS NULL")
		}
		var existing []models.ScenarioGrowthAdjustment
		if err := q.Find(&existing).Error; err != nil {
			return err
		}
		for _, e := range existing {
			if windowsOverlap(in.StartYear, in.EndYear, e.StartYear, e.EndYear) {
				return invalid("start_year", "区间 [%d, %d] 与已有调整 [%d, %d] 重叠",
					in.StartYear, in.EndYear, e.StartYear, e.EndYear)
			}
		}
		return tx.Create(&g).Error
	})
	if err != nil {
		return 0, fmt.Errorf("add scenario growth adjustment: %w", err)
	}
	return g.ID, nil
}

// ListScenarioGrowthAdjustments 列出情景的全部增长调整
func (s *Service) ListScenarioGrowthAdjustments(ctx context.Context, scenarioID uint) ([]models.ScenarioGrowthAdjustment, error) {
	var list []models.ScenarioGrowthAdjustment
	err := s.store.DB(ctx).Where("scenario_id = ?", scenarioID).Order("start_year ASC, id ASC").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list scenario growth adjustments: %w", err)
	}
	return list, nil
}

// DeleteScenarioGrowthAdjustment 删除情景增长调整
func (s *Service) DeleteScenarioGrowthAdjustment(ctx context.Context, id uint) (bool, error) {
	res := s.store.DB(ctx).Delete(&models.ScenarioGrowthAdjustment{}, id)
	if res.Error != nil {
		return false, fmt.Errorf("delete scenario growth adjustment: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// loadScenario 覆盖写入时使用，情景不存在视为校验错误
func loadScenario(tx *gorm.DB, id uint) (models.Scenario, models.Plan, error) {
	sc, err := mustExist[models.Scenario](tx, "scenario_id", id)
	if err != nil {
		return sc, models.Plan{}, err
	}
	plan, err := mustExist[models.Plan](tx, "plan_id", sc.PlanID)
	return sc, plan, err
}
