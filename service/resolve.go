package service

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fipli/models"
	"fipli/override"
)

// 生效值视图不带时间戳，同一数据多次解析结果完全一致

// EffectiveAssumptions 情景中的生效假设
type EffectiveAssumptions struct {
	ScenarioID               uint            `json:"scenario_id" yaml:"scenario_id"`
	PlanID                   uint            `json:"plan_id" yaml:"plan_id"`
	NestEggGrowthRate        float64         `json:"nest_egg_growth_rate" yaml:"nest_egg_growth_rate"`
	InflationRate            float64         `json:"inflation_rate" yaml:"inflation_rate"`
	AnnualRetirementSpending decimal.Decimal `json:"annual_retirement_spending" yaml:"annual_retirement_spending"`
	Overridden               []string        `json:"overridden" yaml:"overridden"`
	GrowthAdjustments        []GrowthWindow  `json:"growth_adjustments" yaml:"growth_adjustments"`
}

// GrowthWindow 生效的增长率区间，Source 为 base 或 scenario
type GrowthWindow struct {
	StartYear int     `json:"start_year" yaml:"start_year"`
	EndYear   int     `json:"end_year" yaml:"end_year"`
	Rate      float64 `json:"growth_rate" yaml:"growth_rate"`
	Source    string  `json:"source" yaml:"source"`
}

// EffectivePerson 情景中的成员
type EffectivePerson struct {
	ID            uint     `json:"id" yaml:"id"`
	HouseholdID   uint     `json:"household_id" yaml:"household_id"`
	FirstName     string   `json:"first_name" yaml:"first_name"`
	LastName      string   `json:"last_name" yaml:"last_name"`
	DateOfBirth   string   `json:"dob" yaml:"dob"`
	RetirementAge int      `json:"retirement_age" yaml:"retirement_age"`
	FinalAge      int      `json:"final_age" yaml:"final_age"`
	Overridden    []string `json:"overridden" yaml:"overridden"`
}

// EffectiveAsset 情景中的资产
type EffectiveAsset struct {
	ID                    uint            `json:"id" yaml:"id"`
	PlanID                uint            `json:"plan_id" yaml:"plan_id"`
	CategoryID            uint            `json:"asset_category_id" yaml:"asset_category_id"`
	Name                  string          `json:"name" yaml:"name"`
	Value                 decimal.Decimal `json:"value" yaml:"value"`
	IncludeInNestEgg      bool            `json:"include_in_nest_egg" yaml:"include_in_nest_egg"`
	IndependentGrowthRate *float64        `json:"independent_growth_rate" yaml:"independent_growth_rate"`
	OwnerIDs              []uint          `json:"owner_ids" yaml:"owner_ids"`
	GrowthAdjustments     []GrowthWindow  `json:"growth_adjustments" yaml:"growth_adjustments"`
	Overridden            []string        `json:"overridden" yaml:"overridden"`
}

// EffectiveLiability 情景中的负债
type EffectiveLiability struct {
	ID               uint            `json:"id" yaml:"id"`
	PlanID           uint            `json:"plan_id" yaml:"plan_id"`
	CategoryID       uint            `json:"liability_category_id" yaml:"liability_category_id"`
	Name             string          `json:"name" yaml:"name"`
	Value            decimal.Decimal `json:"value" yaml:"value"`
	InterestRate     float64         `json:"interest_rate" yaml:"interest_rate"`
	IncludeInNestEgg bool            `json:"include_in_nest_egg" yaml:"include_in_nest_egg"`
	Overridden       []string        `json:"overridden" yaml:"overridden"`
}

// EffectiveCashFlow 情景中的现金流
type EffectiveCashFlow struct {
	ID             uint            `json:"id" yaml:"id"`
	PlanID         uint            `json:"plan_id" yaml:"plan_id"`
	Kind           string          `json:"kind" yaml:"kind"`
	Name           string          `json:"name" yaml:"name"`
	AnnualAmount   decimal.Decimal `json:"annual_amount" yaml:"annual_amount"`
	StartYear      int             `json:"start_year" yaml:"start_year"`
	EndYear        int             `json:"end_year" yaml:"end_year"`
	ApplyInflation bool            `json:"apply_inflation" yaml:"apply_inflation"`
	Overridden     []string        `json:"overridden" yaml:"overridden"`
}

// EffectiveIncome 情景中的退休收入
type EffectiveIncome struct {
	ID               uint            `json:"id" yaml:"id"`
	PlanID           uint            `json:"plan_id" yaml:"plan_id"`
	Name             string          `json:"name" yaml:"name"`
	AnnualIncome     decimal.Decimal `json:"annual_income" yaml:"annual_income"`
	StartAge         int             `json:"start_age" yaml:"start_age"`
	EndAge           *int            `json:"end_age" yaml:"end_age"`
	ApplyInflation   bool            `json:"apply_inflation" yaml:"apply_inflation"`
	IncludeInNestEgg bool            `json:"include_in_nest_egg" yaml:"include_in_nest_egg"`
	OwnerIDs         []uint          `json:"owner_ids" yaml:"owner_ids"`
	Overridden       []string        `json:"overridden" yaml:"overridden"`
}

// EffectivePlan 情景的完整生效视图，在一次快照读中得到
type EffectivePlan struct {
	ScenarioID       uint                 `json:"scenario_id" yaml:"scenario_id"`
	ScenarioName     string               `json:"scenario_name" yaml:"scenario_name"`
	PlanID           uint                 `json:"plan_id" yaml:"plan_id"`
	PlanName         string               `json:"plan_name" yaml:"plan_name"`
	CreationYear     int                  `json:"creation_year" yaml:"creation_year"`
	Assumptions      EffectiveAssumptions `json:"assumptions" yaml:"assumptions"`
	People           []EffectivePerson    `json:"people" yaml:"people"`
	Assets           []EffectiveAsset     `json:"assets" yaml:"assets"`
	Liabilities      []EffectiveLiability `json:"liabilities" yaml:"liabilities"`
	CashFlows        []EffectiveCashFlow  `json:"cash_flows" yaml:"cash_flows"`
	RetirementIncome []EffectiveIncome    `json:"retirement_income" yaml:"retirement_income"`
}

// overridden 收集被覆盖的字段名，顺序与参数一致
type overridden []string

func (o *overridden) mark(name string, set bool) {
	if set {
		*o = append(*o, name)
	}
}

func (o overridden) list() []string {
	if o == nil {
		return []string{}
	}
	return o
}

// GetEffectiveAssumptions 解析情景假设，三个字段各自独立继承
func (s *Service) GetEffectiveAssumptions(ctx context.Context, scenarioID uint) (EffectiveAssumptions, bool, error) {
	return resolveOne(ctx, s, scenarioID, "get effective assumptions", effectiveAssumptions)
}

// GetEffectivePeople 解析情景中的成员，排除的成员不出现
func (s *Service) GetEffectivePeople(ctx context.Context, scenarioID uint) ([]EffectivePerson, bool, error) {
	return resolveOne(ctx, s, scenarioID, "get effective people", effectivePeopleView)
}

// GetEffectiveAssets 解析情景中的资产
func (s *Service) GetEffectiveAssets(ctx context.Context, scenarioID uint) ([]EffectiveAsset, bool, error) {
	return resolveOne(ctx, s, scenarioID, "get effective assets", effectiveAssets)
}

// GetEffectiveLiabilities 解析情景中的负债
func (s *Service) GetEffectiveLiabilities(ctx context.Context, scenarioID uint) ([]EffectiveLiability, bool, error) {
	return resolveOne(ctx, s, scenarioID, "get effective liabilities", effectiveLiabilities)
}

// GetEffectiveCashFlows 解析情景中的现金流
func (s *Service) GetEffectiveCashFlows(ctx context.Context, scenarioID uint) ([]EffectiveCashFlow, bool, error) {
	return resolveOne(ctx, s, scenarioID, "get effective cash flows", effectiveCashFlows)
}

// GetEffectiveRetirementIncome 解析情景中的退休收入
func (s *Service) GetEffectiveRetirementIncome(ctx context.Context, scenarioID uint) ([]EffectiveIncome, bool, error) {
	return resolveOne(ctx, s, scenarioID, "get effective retirement income", effectiveIncome)
}

// GetEffectivePlan 在同一事务内解析情景的全部生效数据
func (s *Service) GetEffectivePlan(ctx context.Context, scenarioID uint) (EffectivePlan, bool, error) {
	var out EffectivePlan
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		sc, ok, err := first[models.Scenario](tx, scenarioID)
		if err != nil {
			return err
		}
		if !ok {
			return errNotFound
		}
		plan, ok, err := first[models.Plan](tx, sc.PlanID)
		if err != nil {
			return err
		}
		if !ok {
			return errNotFound
		}
		out = EffectivePlan{
			ScenarioID:   sc.ID,
			ScenarioName: sc.Name,
			PlanID:       plan.ID,
			PlanName:     plan.Name,
			CreationYear: plan.CreationYear,
		}
		if out.Assumptions, err = effectiveAssumptions(tx, sc); err != nil {
			return err
		}
		if out.People, err = effectivePeopleView(tx, sc); err != nil {
			return err
		}
		if out.Assets, err = effectiveAssets(tx, sc); err != nil {
			return err
		}
		if out.Liabilities, err = effectiveLiabilities(tx, sc); err != nil {
			return err
		}
		if out.CashFlows, err = effectiveCashFlows(tx, sc); err != nil {
			return err
		}
		out.RetirementIncome, err = effectiveIncome(tx, sc)
		return err
	})
	found, err := foundResult(err)
	if err != nil || !found {
		return EffectivePlan{}, false, wrapErr("get effective plan", err)
	}
	return out, true, nil
}

// resolveOne 在同一事务内读取情景和 fn 需要的基础与覆盖数据，情景不存在时返回 found=false
func resolveOne[T any](ctx context.Context, s *Service, scenarioID uint, op string, fn func(*gorm.DB, models.Scenario) (T, error)) (T, bool, error) {
	var out T
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		sc, ok, err := first[models.Scenario](tx, scenarioID)
		if err != nil {
			return err
		}
		if !ok {
			return errNotFound
		}
		out, err = fn(tx, sc)
		return err
	})
	found, err := foundResult(err)
	if err != nil || !found {
		var zero T
		return zero, false, wrapErr(op, err)
	}
	return out, true, nil
}

// scenarioRows 读取情景的某类覆盖行
func scenarioRows[M any](tx *gorm.DB, scenarioID uint) ([]M, error) {
	var rows []M
	err := tx.Where("scenario_id = ?", scenarioID).Order("id ASC").Find(&rows).Error
	return rows, err
}

func effectiveAssumptions(tx *gorm.DB, sc models.Scenario) (EffectiveAssumptions, error) {
	var base models.BaseAssumptions
	if err := tx.Where("plan_id = ?", sc.PlanID).First(&base).Error; err != nil {
		return EffectiveAssumptions{}, err
	}
	row, _, err := findOverride[models.ScenarioAssumption](tx, overrideKey{ScenarioID: sc.ID})
	if err != nil {
		return EffectiveAssumptions{}, err
	}
	patch := AssumptionPatch{
		NestEggGrowthRate:        override.FromColumns(row.OverridesNestEggGrowthRate, row.NestEggGrowthRate),
		InflationRate:            override.FromColumns(row.OverridesInflationRate, row.InflationRate),
		AnnualRetirementSpending: decimalField(row.OverridesAnnualRetirementSpending, row.AnnualRetirementSpending),
	}
	var ov overridden
	ov.mark("nest_egg_growth_rate", patch.NestEggGrowthRate.IsSet())
	ov.mark("inflation_rate", patch.InflationRate.IsSet())
	ov.mark("annual_retirement_spending", patch.AnnualRetirementSpending.IsSet())

	var wide []models.ScenarioGrowthAdjustment
	err = tx.Where("scenario_id = ? AND asset_id IS NULL", sc.ID).Order("start_year ASC, id ASC").Find(&wide).Error
	if err != nil {
		return EffectiveAssumptions{}, err
	}
	windows := make([]GrowthWindow, 0, len(wide))
	for _, g := range wide {
		windows = append(windows, GrowthWindow{StartYear: g.StartYear, EndYear: g.EndYear, Rate: g.GrowthRate, Source: "scenario"})
	}

	return EffectiveAssumptions{
		ScenarioID:               sc.ID,
		PlanID:                   sc.PlanID,
		NestEggGrowthRate:        patch.NestEggGrowthRate.Resolve(base.NestEggGrowthRate),
		InflationRate:            patch.InflationRate.Resolve(base.InflationRate),
		AnnualRetirementSpending: patch.AnnualRetirementSpending.Resolve(base.AnnualRetirementSpending),
		Overridden:               ov.list(),
		GrowthAdjustments:        windows,
	}, nil
}

func effectivePeopleView(tx *gorm.DB, sc models.Scenario) ([]EffectivePerson, error) {
	var plan models.Plan
	if err := tx.First(&plan, sc.PlanID).Error; err != nil {
		return nil, err
	}
	var people []models.Person
	if err := tx.Where("household_id = ?", plan.HouseholdID).Order("id ASC").Find(&people).Error; err != nil {
		return nil, err
	}
	rows, err := scenarioRows[models.ScenarioPerson](tx, sc.ID)
	if err != nil {
		return nil, err
	}
	byPerson := make(map[uint]PersonOverride, len(rows))
	for _, r := range rows {
		byPerson[r.PersonID] = personOverrideOf(r)
	}

	out := make([]EffectivePerson, 0, len(people))
	for _, p := range people {
		o := byPerson[p.ID]
		if o.ExcludeFromProjection {
			continue
		}
		var ov overridden
		ov.mark("retirement_age", o.RetirementAge.IsSet())
		ov.mark("final_age", o.FinalAge.IsSet())
		p = o.apply(p)
		out = append(out, EffectivePerson{
			ID:            p.ID,
			HouseholdID:   p.HouseholdID,
			FirstName:     p.FirstName,
			LastName:      p.LastName,
			DateOfBirth:   p.DateOfBirth,
			RetirementAge: p.RetirementAge,
			FinalAge:      p.FinalAge,
			Overridden:    ov.list(),
		})
	}
	return out, nil
}

func effectiveAssets(tx *gorm.DB, sc models.Scenario) ([]EffectiveAsset, error) {
	var assets []models.Asset
	if err := tx.Where("plan_id = ?", sc.PlanID).Order("id ASC").Find(&assets).Error; err != nil {
		return nil, err
	}
	if err := loadAssetOwners(tx, assets); err != nil {
		return nil, err
	}
	rows, err := scenarioRows[models.ScenarioAsset](tx, sc.ID)
	if err != nil {
		return nil, err
	}
	byAsset := make(map[uint]AssetOverride, len(rows))
	for _, r := range rows {
		byAsset[r.AssetID] = assetOverrideOf(r)
	}
	schedules, err := growthSchedules(tx, sc.ID, assets)
	if err != nil {
		return nil, err
	}

	out := make([]EffectiveAsset, 0, len(assets))
	for _, a := range assets {
		o := byAsset[a.ID]
		if o.ExcludeFromProjection {
			continue
		}
		var ov overridden
		ov.mark("value", o.Value.IsSet())
		ov.mark("independent_growth_rate", o.IndependentGrowthRate.IsSet())
		ov.mark("include_in_nest_egg", o.IncludeInNestEgg.IsSet())
		owners := a.OwnerIDs
		if owners == nil {
			owners = []uint{}
		}
		out = append(out, EffectiveAsset{
			ID:                    a.ID,
			PlanID:                a.PlanID,
			CategoryID:            a.AssetCategoryID,
			Name:                  a.Name,
			Value:                 o.Value.Resolve(a.Value),
			IncludeInNestEgg:      o.IncludeInNestEgg.Resolve(a.IncludeInNestEgg),
			IndependentGrowthRate: o.IndependentGrowthRate.ResolvePtr(a.IndependentGrowthRate),
			OwnerIDs:              owners,
			GrowthAdjustments:     schedules[a.ID],
			Overridden:            ov.list(),
		})
	}
	return out, nil
}

// growthSchedules 计算每个资产的生效增长调整：
// 情景中存在针对该资产的调整时整体替换基础调整。
func growthSchedules(tx *gorm.DB, scenarioID uint, assets []models.Asset) (map[uint][]GrowthWindow, error) {
	out := make(map[uint][]GrowthWindow, len(assets))
	if len(assets) == 0 {
		return out, nil
	}
	ids := make([]uint, len(assets))
	for i, a := range assets {
		ids[i] = a.ID
		out[a.ID] = []GrowthWindow{}
	}

	var scoped []models.ScenarioGrowthAdjustment
	err := tx.Where("scenario_id = ? AND asset_id IN ?", scenarioID, ids).Order("start_year ASC, id ASC").Find(&scoped).Error
	if err != nil {
		return nil, err
	}
	replaced := make(map[uint]bool)
	for _, g := range scoped {
		replaced[*g.AssetID] = true
		out[*g.AssetID] = append(out[*g.AssetID], GrowthWindow{StartYear: g.StartYear, EndYear: g.EndYear, Rate: g.GrowthRate, Source: "scenario"})
	}

	var base []models.GrowthAdjustment
	if err := tx.Where("asset_id IN ?", ids).Order("start_year ASC, id ASC").Find(&base).Error; err != nil {
		return nil, err
	}
	for _, g := range base {
		if replaced[g.AssetID] {
			continue
		}
		out[g.AssetID] = append(out[g.AssetID], GrowthWindow{StartYear: g.StartYear, EndYear: g.EndYear, Rate: g.GrowthRate, Source: "base"})
	}
	return out, nil
}

func effectiveLiabilities(tx *gorm.DB, sc models.Scenario) ([]EffectiveLiability, error) {
	var list []models.Liability
	if err := tx.Where("plan_id = ?", sc.PlanID).Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	rows, err := scenarioRows[models.ScenarioLiability](tx, sc.ID)
	if err != nil {
		return nil, err
	}
	byLiability := make(map[uint]LiabilityOverride, len(rows))
	for _, r := range rows {
		byLiability[r.LiabilityID] = liabilityOverrideOf(r)
	}

	out := make([]EffectiveLiability, 0, len(list))
	for _, l := range list {
		o := byLiability[l.ID]
		if o.ExcludeFromProjection {
			continue
		}
		var ov overridden
		ov.mark("value", o.Value.IsSet())
		ov.mark("interest_rate", o.InterestRate.IsSet())
		ov.mark("include_in_nest_egg", o.IncludeInNestEgg.IsSet())
		out = append(out, EffectiveLiability{
			ID:               l.ID,
			PlanID:           l.PlanID,
			CategoryID:       l.LiabilityCategoryID,
			Name:             l.Name,
			Value:            o.Value.Resolve(l.Value),
			InterestRate:     o.InterestRate.Resolve(l.InterestRate),
			IncludeInNestEgg: o.IncludeInNestEgg.Resolve(l.IncludeInNestEgg),
			Overridden:       ov.list(),
		})
	}
	return out, nil
}

func effectiveCashFlows(tx *gorm.DB, sc models.Scenario) ([]EffectiveCashFlow, error) {
	var list []models.CashFlow
	if err := tx.Where("plan_id = ?", sc.PlanID).Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	rows, err := scenarioRows[models.ScenarioCashFlow](tx, sc.ID)
	if err != nil {
		return nil, err
	}
	byFlow := make(map[uint]CashFlowOverride, len(rows))
	for _, r := range rows {
		byFlow[r.CashFlowID] = cashFlowOverrideOf(r)
	}

	out := make([]EffectiveCashFlow, 0, len(list))
	for _, c := range list {
		o := byFlow[c.ID]
		if o.ExcludeFromProjection {
			continue
		}
		var ov overridden
		ov.mark("annual_amount", o.AnnualAmount.IsSet())
		ov.mark("start_year", o.StartYear.IsSet())
		ov.mark("end_year", o.EndYear.IsSet())
		ov.mark("apply_inflation", o.ApplyInflation.IsSet())
		c = o.apply(c)
		out = append(out, EffectiveCashFlow{
			ID:             c.ID,
			PlanID:         c.PlanID,
			Kind:           c.Kind,
			Name:           c.Name,
			AnnualAmount:   c.AnnualAmount,
			StartYear:      c.StartYear,
			EndYear:        c.EndYear,
			ApplyInflation: c.ApplyInflation,
			Overridden:     ov.list(),
		})
	}
	return out, nil
}

func effectiveIncome(tx *gorm.DB, sc models.Scenario) ([]EffectiveIncome, error) {
	var list []models.RetirementIncome
	if err := tx.Where("plan_id = ?", sc.PlanID).Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	if err := loadIncomeOwners(tx, list); err != nil {
		return nil, err
	}
	rows, err := scenarioRows[models.ScenarioRetirementIncome](tx, sc.ID)
	if err != nil {
		return nil, err
	}
	byIncome := make(map[uint]IncomeOverride, len(rows))
	for _, r := range rows {
		byIncome[r.RetirementIncomeID] = incomeOverrideOf(r)
	}

	out := make([]EffectiveIncome, 0, len(list))
	for _, r := range list {
		o := byIncome[r.ID]
		if o.ExcludeFromProjection {
			continue
		}
		var ov overridden
		ov.mark("annual_income", o.AnnualIncome.IsSet())
		ov.mark("start_age", o.StartAge.IsSet())
		ov.mark("end_age", o.EndAge.IsSet())
		ov.mark("apply_inflation", o.ApplyInflation.IsSet())
		ov.mark("include_in_nest_egg", o.IncludeInNestEgg.IsSet())
		r = o.apply(r)
		owners := r.OwnerIDs
		if owners == nil {
			owners = []uint{}
		}
		out = append(out, EffectiveIncome{
			ID:               r.ID,
			PlanID:           r.PlanID,
			Name:             r.Name,
			AnnualIncome:     r.AnnualIncome,
			StartAge:         r.StartAge,
			EndAge:           r.EndAge,
			ApplyInflation:   r.ApplyInflation,
			IncludeInNestEgg: r.IncludeInNestEgg,
			OwnerIDs:         owners,
			Overridden:       ov.list(),
		})
	}
	return out, nil
}
