package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fipli/models"
	"fipli/override"
)

func TestHousehold_CRUD(t *testing.T) {
	f := newFixture(t)

	h, ok, err := f.svc.GetHousehold(f.ctx, f.householdID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Smith", h.Name)

	found, err := f.svc.UpdateHousehold(f.ctx, f.householdID, "  Smith Family ")
	require.NoError(t, err)
	assert.True(t, found)
	h, _, err = f.svc.GetHousehold(f.ctx, f.householdID)
	require.NoError(t, err)
	assert.Equal(t, "Smith Family", h.Name)

	_, ok, err = f.svc.GetHousehold(f.ctx, 999)
	require.NoError(t, err)
	assert.False(t, ok)

	found, err = f.svc.UpdateHousehold(f.ctx, 999, "Nobody")
	require.NoError(t, err)
	assert.False(t, found)

	_, err = f.svc.CreateHousehold(f.ctx, "   ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPerson_Validation(t *testing.T) {
	f := newFixture(t)

	cases := []PersonInput{
		{FirstName: "X", LastName: "Y", DateOfBirth: "1970-01-01", RetirementAge: 0, FinalAge: 90},
		{FirstName: "X", LastName: "Y", DateOfBirth: "1970-01-01", RetirementAge: 65, FinalAge: 0},
		{FirstName: "X", LastName: "Y", DateOfBirth: "1970-01-01", RetirementAge: 90, FinalAge: 90},
		{FirstName: "X", LastName: "Y", DateOfBirth: "01/01/1970", RetirementAge: 65, FinalAge: 90},
	}
	for _, in := range cases {
		_, err := f.svc.CreatePerson(f.ctx, f.householdID, in)
		assert.ErrorIs(t, err, ErrValidation, "%+v", in)
	}

	_, err := f.svc.CreatePerson(f.ctx, 999, PersonInput{FirstName: "X", LastName: "Y", DateOfBirth: "1970-01-01", RetirementAge: 65, FinalAge: 90})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPerson_UpdateValidatesMergedAges(t *testing.T) {
	f := newFixture(t)

	// 终止年龄 95，把退休年龄改到 96 不合法
	_, err := f.svc.UpdatePerson(f.ctx, f.personID, PersonUpdate{RetirementAge: intPtr(96)})
	assert.ErrorIs(t, err, ErrValidation)

	found, err := f.svc.UpdatePerson(f.ctx, f.personID, PersonUpdate{RetirementAge: intPtr(60)})
	require.NoError(t, err)
	assert.True(t, found)

	p, ok, err := f.svc.GetPerson(f.ctx, f.personID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 60, p.RetirementAge)
	assert.Equal(t, 95, p.FinalAge)
	assert.Equal(t, "1970-03-15", p.DateOfBirth)

	found, err = f.svc.UpdatePerson(f.ctx, 999, PersonUpdate{RetirementAge: intPtr(60)})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPerson_DeleteGuards(t *testing.T) {
	f := newFixture(t)

	// 计划参照人
	_, err := f.svc.DeletePerson(f.ctx, f.personID)
	assert.ErrorIs(t, err, ErrConstraint)

	second, err := f.svc.CreatePerson(f.ctx, f.householdID, PersonInput{
		FirstName: "C", LastName: "Smith", DateOfBirth: "1972-05-05", RetirementAge: 67, FinalAge: 92,
	})
	require.NoError(t, err)

	solo, err := f.svc.CreateAsset(f.ctx, f.planID, AssetInput{
		CategoryID: f.assetCategoryID, Name: "Car", Value: dec(10000), OwnerIDs: []uint{second},
	})
	require.NoError(t, err)

	// 唯一持有人
	_, err = f.svc.DeletePerson(f.ctx, second)
	assert.ErrorIs(t, err, ErrConstraint)

	// 改为共同持有后可以删除，持有关系随之删除
	_, err = f.svc.UpdateAsset(f.ctx, solo, AssetUpdate{OwnerIDs: []uint{f.personID, second}})
	require.NoError(t, err)
	found, err := f.svc.DeletePerson(f.ctx, second)
	require.NoError(t, err)
	assert.True(t, found)

	a, _, err := f.svc.GetAsset(f.ctx, solo)
	require.NoError(t, err)
	assert.Equal(t, []uint{f.personID}, a.OwnerIDs)

	found, err = f.svc.DeletePerson(f.ctx, 999)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPerson_DeleteCountsSoleOwnedAssets(t *testing.T) {
	f := newFixture(t)
	second, err := f.svc.CreatePerson(f.ctx, f.householdID, PersonInput{
		FirstName: "C", LastName: "Smith", DateOfBirth: "1972-05-05", RetirementAge: 67, FinalAge: 92,
	})
	require.NoError(t, err)

	for _, owners := range [][]uint{{second}, {second}, {f.personID, second}} {
		_, err := f.svc.CreateAsset(f.ctx, f.planID, AssetInput{
			CategoryID: f.assetCategoryID, Name: "Holding", Value: dec(1000), OwnerIDs: owners,
		})
		require.NoError(t, err)
	}

	// 共同持有的资产不计入
	_, err = f.svc.DeletePerson(f.ctx, second)
	var ce *ConstraintError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "是 2 项资产的唯一持有人", ce.Message)
}

func TestPlan_CreateDefaultsAndValidation(t *testing.T) {
	f := newFixture(t)

	plan, ok, err := f.svc.GetPlan(f.ctx, f.planID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2025, plan.CreationYear)

	ba, ok, err := f.svc.GetBaseAssumptions(f.ctx, f.planID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.DefaultNestEggGrowthRate, ba.NestEggGrowthRate)
	assert.Equal(t, 3.0, ba.InflationRate)
	assert.True(t, ba.AnnualRetirementSpending.IsZero())

	// 缺少通胀率
	_, err = f.svc.CreatePlan(f.ctx, f.householdID, PlanInput{Name: "P", ReferencePersonID: f.personID})
	assert.ErrorIs(t, err, ErrValidation)

	// 增长率越界
	_, err = f.svc.CreatePlan(f.ctx, f.householdID, PlanInput{
		Name: "P", ReferencePersonID: f.personID,
		Assumptions: AssumptionsInput{InflationRate: floatPtr(3), NestEggGrowthRate: floatPtr(250)},
	})
	assert.ErrorIs(t, err, ErrValidation)

	// 参照人属于其他家庭
	_, other := f.secondHousehold(t)
	_, err = f.svc.CreatePlan(f.ctx, f.householdID, PlanInput{
		Name: "P", ReferencePersonID: other, Assumptions: AssumptionsInput{InflationRate: floatPtr(3)},
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.UpdatePlan(f.ctx, f.planID, PlanUpdate{ReferencePersonID: &other})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPlan_UpdateBaseAssumptionsSparse(t *testing.T) {
	f := newFixture(t)

	found, err := f.svc.UpdateBaseAssumptions(f.ctx, f.planID, AssumptionsInput{AnnualRetirementSpending: decPtr(60000)})
	require.NoError(t, err)
	assert.True(t, found)

	ba, _, err := f.svc.GetBaseAssumptions(f.ctx, f.planID)
	require.NoError(t, err)
	assert.True(t, dec(60000).Equal(ba.AnnualRetirementSpending))
	assert.Equal(t, 3.0, ba.InflationRate)

	_, err = f.svc.UpdateBaseAssumptions(f.ctx, f.planID, AssumptionsInput{InflationRate: floatPtr(-300)})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCategory_DeleteRestricted(t *testing.T) {
	f := newFixture(t)
	assetID := f.asset(t, "Brokerage", 100000)

	_, err := f.svc.DeleteAssetCategory(f.ctx, f.assetCategoryID)
	assert.ErrorIs(t, err, ErrConstraint)

	_, err = f.svc.DeleteAsset(f.ctx, assetID)
	require.NoError(t, err)
	found, err := f.svc.DeleteAssetCategory(f.ctx, f.assetCategoryID)
	require.NoError(t, err)
	assert.True(t, found)

	f.liability(t, "Home loan", 200000)
	_, err = f.svc.DeleteLiabilityCategory(f.ctx, f.liabilityCategoryID)
	assert.ErrorIs(t, err, ErrConstraint)

	found, err = f.svc.DeleteLiabilityCategory(f.ctx, 999)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAsset_CreateValidation(t *testing.T) {
	f := newFixture(t)
	otherHousehold, otherPerson := f.secondHousehold(t)

	base := AssetInput{CategoryID: f.assetCategoryID, Name: "Brokerage", Value: dec(100), OwnerIDs: []uint{f.personID}}

	in := base
	in.Value = dec(-1)
	_, err := f.svc.CreateAsset(f.ctx, f.planID, in)
	assert.ErrorIs(t, err, ErrValidation)

	in = base
	in.IndependentGrowthRate = floatPtr(201)
	_, err = f.svc.CreateAsset(f.ctx, f.planID, in)
	assert.ErrorIs(t, err, ErrValidation)

	in = base
	in.OwnerIDs = nil
	_, err = f.svc.CreateAsset(f.ctx, f.planID, in)
	assert.ErrorIs(t, err, ErrValidation)

	in = base
	in.OwnerIDs = []uint{f.personID, otherPerson}
	_, err = f.svc.CreateAsset(f.ctx, f.planID, in)
	assert.ErrorIs(t, err, ErrValidation)

	otherCategory, err := f.svc.CreateAssetCategory(f.ctx, otherHousehold, "Other")
	require.NoError(t, err)
	in = base
	in.CategoryID = otherCategory
	_, err = f.svc.CreateAsset(f.ctx, f.planID, in)
	assert.ErrorIs(t, err, ErrValidation)

	// 校验失败不留下任何资产或持有关系
	list, err := f.svc.ListAssets(f.ctx, f.planID, nil)
	require.NoError(t, err)
	assert.Empty(t, list)
	owned, err := f.svc.ListPersonAssets(f.ctx, f.personID)
	require.NoError(t, err)
	assert.Empty(t, owned)
}

func TestAsset_DefaultsAndListing(t *testing.T) {
	f := newFixture(t)
	id := f.asset(t, "Brokerage", 100000)

	a, ok, err := f.svc.GetAsset(f.ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, a.IncludeInNestEgg)
	assert.Nil(t, a.IndependentGrowthRate)
	assert.Equal(t, []uint{f.personID}, a.OwnerIDs)
	assert.True(t, dec(100000).Equal(a.Value))

	otherCategory, err := f.svc.CreateAssetCategory(f.ctx, f.householdID, "Property")
	require.NoError(t, err)
	_, err = f.svc.CreateAsset(f.ctx, f.planID, AssetInput{
		CategoryID: otherCategory, Name: "House", Value: dec(500000), OwnerIDs: []uint{f.personID},
		IncludeInNestEgg: boolPtr(false),
	})
	require.NoError(t, err)

	all, err := f.svc.ListAssets(f.ctx, f.planID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := f.svc.ListAssets(f.ctx, f.planID, &otherCategory)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "House", filtered[0].Name)
	assert.False(t, filtered[0].IncludeInNestEgg)

	owned, err := f.svc.ListPersonAssets(f.ctx, f.personID)
	require.NoError(t, err)
	assert.Len(t, owned, 2)
}

func TestGrowthAdjustment_AcceptAndOverlap(t *testing.T) {
	f := newFixture(t)
	assetID := f.asset(t, "Brokerage", 100000)

	id, err := f.svc.AddGrowthAdjustment(f.ctx, assetID, GrowthWindowInput{StartYear: 2030, EndYear: 2035, Rate: 5})
	require.NoError(t, err)

	list, err := f.svc.ListGrowthAdjustments(f.ctx, assetID, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, 2030, list[0].StartYear)
	assert.Equal(t, 2035, list[0].EndYear)
	assert.Equal(t, 5.0, list[0].GrowthRate)

	// 端点相交即重叠
	_, err = f.svc.AddGrowthAdjustment(f.ctx, assetID, GrowthWindowInput{StartYear: 2035, EndYear: 2040, Rate: 2})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.AddGrowthAdjustment(f.ctx, assetID, GrowthWindowInput{StartYear: 2025, EndYear: 2050, Rate: 2})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.AddGrowthAdjustment(f.ctx, assetID, GrowthWindowInput{StartYear: 2036, EndYear: 2040, Rate: -10})
	require.NoError(t, err)

	_, err = f.svc.AddGrowthAdjustment(f.ctx, assetID, GrowthWindowInput{StartYear: 2045, EndYear: 2044, Rate: 1})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.AddGrowthAdjustment(f.ctx, assetID, GrowthWindowInput{StartYear: 2045, EndYear: 2046, Rate: 300})
	assert.ErrorIs(t, err, ErrValidation)

	inYear, err := f.svc.ListGrowthAdjustments(f.ctx, assetID, intPtr(2038))
	require.NoError(t, err)
	require.Len(t, inYear, 1)
	assert.Equal(t, -10.0, inYear[0].GrowthRate)

	found, err := f.svc.DeleteGrowthAdjustment(f.ctx, id)
	require.NoError(t, err)
	assert.True(t, found)
	list, err = f.svc.ListGrowthAdjustments(f.ctx, assetID, nil)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestLiability_CRUD(t *testing.T) {
	f := newFixture(t)
	id := f.liability(t, "Home loan", 200000)

	l, ok, err := f.svc.GetLiability(f.ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, l.IncludeInNestEgg)
	assert.Equal(t, 4.5, l.InterestRate)

	_, err = f.svc.UpdateLiability(f.ctx, id, LiabilityUpdate{InterestRate: floatPtr(-250)})
	assert.ErrorIs(t, err, ErrValidation)

	found, err := f.svc.UpdateLiability(f.ctx, id, LiabilityUpdate{Value: decPtr(150000)})
	require.NoError(t, err)
	assert.True(t, found)
	l, _, err = f.svc.GetLiability(f.ctx, id)
	require.NoError(t, err)
	assert.True(t, dec(150000).Equal(l.Value))
	assert.Equal(t, 4.5, l.InterestRate)

	list, err := f.svc.ListLiabilities(f.ctx, f.planID, &f.liabilityCategoryID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	found, err = f.svc.DeleteLiability(f.ctx, id)
	require.NoError(t, err)
	assert.True(t, found)
	_, ok, err = f.svc.GetLiability(f.ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCashFlow_ValidationAndSplit(t *testing.T) {
	f := newFixture(t)

	id := f.cashFlow(t, "inflow", 2025, 2040)
	_, err := f.svc.CreateCashFlow(f.ctx, f.planID, CashFlowInput{
		Kind: "Outflow", Name: "Tuition", AnnualAmount: dec(20000), StartYear: 2030, EndYear: 2033, ApplyInflation: true,
	})
	require.NoError(t, err)

	c, ok, err := f.svc.GetCashFlow(f.ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.CashFlowInflow, c.Kind)

	// 早于计划创建年份
	_, err = f.svc.CreateCashFlow(f.ctx, f.planID, CashFlowInput{Kind: "INFLOW", Name: "Old", AnnualAmount: dec(1), StartYear: 2024, EndYear: 2030})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.CreateCashFlow(f.ctx, f.planID, CashFlowInput{Kind: "gift", Name: "Gift", AnnualAmount: dec(1), StartYear: 2026, EndYear: 2030})
	assert.ErrorIs(t, err, ErrValidation)

	// 更新按合并后的区间校验
	_, err = f.svc.UpdateCashFlow(f.ctx, id, CashFlowUpdate{StartYear: intPtr(2041)})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.UpdateCashFlow(f.ctx, id, CashFlowUpdate{StartYear: intPtr(2041), EndYear: intPtr(2045)})
	require.NoError(t, err)

	split, err := f.svc.GetPlanCashFlows(f.ctx, f.planID, nil)
	require.NoError(t, err)
	assert.Len(t, split.Inflows, 1)
	assert.Len(t, split.Outflows, 1)

	year, err := f.svc.GetPlanCashFlows(f.ctx, f.planID, intPtr(2031))
	require.NoError(t, err)
	assert.Empty(t, year.Inflows)
	assert.Len(t, year.Outflows, 1)
}

func TestRetirementIncome_OwnerAges(t *testing.T) {
	f := newFixture(t)

	// 开始年龄超过终止年龄 95
	_, err := f.svc.CreateRetirementIncome(f.ctx, f.planID, IncomeInput{
		Name: "Late", AnnualIncome: dec(1), StartAge: 96, OwnerIDs: []uint{f.personID},
	})
	assert.ErrorIs(t, err, ErrValidation)

	// 结束年龄早于退休年龄 65
	_, err = f.svc.CreateRetirementIncome(f.ctx, f.planID, IncomeInput{
		Name: "Early", AnnualIncome: dec(1), StartAge: 55, EndAge: intPtr(60), OwnerIDs: []uint{f.personID},
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.CreateRetirementIncome(f.ctx, f.planID, IncomeInput{
		Name: "Nobody", AnnualIncome: dec(1), StartAge: 65,
	})
	assert.ErrorIs(t, err, ErrValidation)

	id := f.income(t, 67, nil)
	r, ok, err := f.svc.GetRetirementIncome(f.ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, r.IncludeInNestEgg)
	assert.False(t, r.ApplyInflation)
	assert.Nil(t, r.EndAge)
	assert.Equal(t, []uint{f.personID}, r.OwnerIDs)

	_, err = f.svc.UpdateRetirementIncome(f.ctx, id, IncomeUpdate{EndAge: intPtr(66)})
	assert.ErrorIs(t, err, ErrValidation)
	found, err := f.svc.UpdateRetirementIncome(f.ctx, id, IncomeUpdate{EndAge: intPtr(90)})
	require.NoError(t, err)
	assert.True(t, found)

	list, err := f.svc.ListPersonRetirementIncome(f.ctx, f.personID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].EndAge)
	assert.Equal(t, 90, *list[0].EndAge)
}

func TestDeleteHousehold_CascadesEverything(t *testing.T) {
	f := newFixture(t)
	assetID := f.asset(t, "Brokerage", 100000)
	liabilityID := f.liability(t, "Home loan", 200000)
	cashFlowID := f.cashFlow(t, "INFLOW", 2025, 2030)
	incomeID := f.income(t, 67, nil)
	_, err := f.svc.AddGrowthAdjustment(f.ctx, assetID, GrowthWindowInput{StartYear: 2030, EndYear: 2031, Rate: 1})
	require.NoError(t, err)

	sc := f.scenario(t, "Recession")
	_, err = f.svc.OverrideAsset(f.ctx, sc, assetID, AssetPatch{})
	require.NoError(t, err)
	_, err = f.svc.OverrideLiability(f.ctx, sc, liabilityID, LiabilityPatch{})
	require.NoError(t, err)
	_, err = f.svc.OverrideCashFlow(f.ctx, sc, cashFlowID, CashFlowPatch{})
	require.NoError(t, err)
	_, err = f.svc.OverrideRetirementIncome(f.ctx, sc, incomeID, IncomePatch{})
	require.NoError(t, err)
	_, err = f.svc.OverridePerson(f.ctx, sc, f.personID, PersonPatch{})
	require.NoError(t, err)
	_, err = f.svc.UpdateScenario(f.ctx, sc, ScenarioUpdate{Assumptions: AssumptionPatch{InflationRate: override.Set(4.0)}})
	require.NoError(t, err)
	_, err = f.svc.AddScenarioGrowthAdjustment(f.ctx, sc, ScenarioGrowthInput{GrowthWindowInput: GrowthWindowInput{StartYear: 2030, EndYear: 2031, Rate: -20}})
	require.NoError(t, err)
	require.NoError(t, f.svc.SaveYearlyValues(f.ctx, f.planID, &sc, []YearlyValue{{Year: 2030, Value: dec(1)}}))

	// 另一个家庭不受影响
	otherHousehold, _ := f.secondHousehold(t)

	found, err := f.svc.DeleteHousehold(f.ctx, f.householdID)
	require.NoError(t, err)
	require.True(t, found)

	db := f.svc.Store().DB(f.ctx)
	for _, m := range models.All() {
		var n int64
		require.NoError(t, db.Model(m).Count(&n).Error)
		switch m.(type) {
		case *models.Household, *models.Person:
			assert.Equal(t, int64(1), n, "%T", m)
		default:
			assert.Zero(t, n, "%T", m)
		}
	}

	_, ok, err := f.svc.GetHousehold(f.ctx, otherHousehold)
	require.NoError(t, err)
	assert.True(t, ok)

	found, err = f.svc.DeleteHousehold(f.ctx, f.householdID)
	require.NoError(t, err)
	assert.False(t, found)
}
