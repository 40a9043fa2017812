package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYearlyValues_ReplaceAndList(t *testing.T) {
	f := newFixture(t)
	sc := f.scenario(t, "S")

	require.NoError(t, f.svc.SaveYearlyValues(f.ctx, f.planID, nil, []YearlyValue{
		{Year: 2026, Value: dec(110)},
		{Year: 2025, Value: dec(100)},
	}))
	require.NoError(t, f.svc.SaveYearlyValues(f.ctx, f.planID, &sc, []YearlyValue{
		{Year: 2025, Value: dec(90)},
	}))

	base, err := f.svc.ListYearlyValues(f.ctx, f.planID, nil)
	require.NoError(t, err)
	require.Len(t, base, 2)
	assert.Equal(t, 2025, base[0].Year)
	assert.True(t, dec(100).Equal(base[0].Value))

	// 整体替换
	require.NoError(t, f.svc.SaveYearlyValues(f.ctx, f.planID, nil, []YearlyValue{{Year: 2030, Value: dec(5)}}))
	base, err = f.svc.ListYearlyValues(f.ctx, f.planID, nil)
	require.NoError(t, err)
	require.Len(t, base, 1)
	assert.Equal(t, 2030, base[0].Year)

	scenario, err := f.svc.ListYearlyValues(f.ctx, f.planID, &sc)
	require.NoError(t, err)
	require.Len(t, scenario, 1)
	assert.True(t, dec(90).Equal(scenario[0].Value))

	// 删除情景时结果一并删除
	_, err = f.svc.DeleteScenario(f.ctx, sc)
	require.NoError(t, err)
	scenario, err = f.svc.ListYearlyValues(f.ctx, f.planID, &sc)
	require.NoError(t, err)
	assert.Empty(t, scenario)
}

func TestYearlyValues_Validation(t *testing.T) {
	f := newFixture(t)

	err := f.svc.SaveYearlyValues(f.ctx, f.planID, nil, []YearlyValue{{Year: 2025}, {Year: 2025}})
	assert.ErrorIs(t, err, ErrValidation)

	err = f.svc.SaveYearlyValues(f.ctx, 999, nil, nil)
	assert.ErrorIs(t, err, ErrValidation)

	otherPlan, err := f.svc.CreatePlan(f.ctx, f.householdID, PlanInput{
		Name: "Other", ReferencePersonID: f.personID, Assumptions: AssumptionsInput{InflationRate: floatPtr(2)},
	})
	require.NoError(t, err)
	sc := f.scenario(t, "S")
	err = f.svc.SaveYearlyValues(f.ctx, otherPlan, &sc, []YearlyValue{{Year: 2025}})
	assert.ErrorIs(t, err, ErrValidation)
}
