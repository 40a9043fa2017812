package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fipli/models"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func boolPtr(v bool) *bool { return &v }

func strPtr(v string) *string { return &v }

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func decPtr(v int64) *decimal.Decimal {
	d := dec(v)
	return &d
}

func TestWindowsOverlap(t *testing.T) {
	assert.True(t, windowsOverlap(2030, 2035, 2035, 2040))
	assert.True(t, windowsOverlap(2030, 2040, 2032, 2033))
	assert.False(t, windowsOverlap(2030, 2035, 2036, 2040))
	assert.False(t, windowsOverlap(2036, 2040, 2030, 2035))
}

func TestCheckRateBounds(t *testing.T) {
	require.NoError(t, checkRate("rate", -200))
	require.NoError(t, checkRate("rate", 200))
	assert.ErrorIs(t, checkRate("rate", 200.5), ErrValidation)
	assert.ErrorIs(t, checkRate("rate", -201), ErrValidation)
}

func TestCheckAges(t *testing.T) {
	require.NoError(t, checkAges(65, 95))
	assert.ErrorIs(t, checkAges(0, 95), ErrValidation)
	assert.ErrorIs(t, checkAges(65, 0), ErrValidation)
	assert.ErrorIs(t, checkAges(70, 70), ErrValidation)
}

func TestNormalizeKind(t *testing.T) {
	k, err := normalizeKind(" inflow ")
	require.NoError(t, err)
	assert.Equal(t, models.CashFlowInflow, k)

	_, err = normalizeKind("transfer")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestValidateCashFlowYears(t *testing.T) {
	require.NoError(t, ValidateCashFlowYears(2025, 2025, 2025))
	assert.ErrorIs(t, ValidateCashFlowYears(2031, 2030, 2025), ErrValidation)
	assert.ErrorIs(t, ValidateCashFlowYears(2024, 2030, 2025), ErrValidation)
}

func TestValidateIncomeAges(t *testing.T) {
	owners := []models.Person{{FirstName: "John", LastName: "Smith", RetirementAge: 65, FinalAge: 95}}

	require.NoError(t, ValidateIncomeAges(67, nil, owners))
	require.NoError(t, ValidateIncomeAges(67, intPtr(90), owners))

	var verr *ValidationError
	err := ValidateIncomeAges(0, nil, owners)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "start_age", verr.Field)

	assert.ErrorIs(t, ValidateIncomeAges(70, intPtr(69), owners), ErrValidation)
	assert.ErrorIs(t, ValidateIncomeAges(96, nil, owners), ErrValidation)
	assert.ErrorIs(t, ValidateIncomeAges(60, intPtr(62), owners), ErrValidation)
}

func TestDedupeIDs(t *testing.T) {
	assert.Equal(t, []uint{1, 2, 3}, dedupeIDs([]uint{3, 1, 2, 3, 1}))
	assert.Empty(t, dedupeIDs(nil))
}

func TestErrorTypes(t *testing.T) {
	err := invalid("value", "不能为负数")
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrConstraint)
	assert.Equal(t, "value: 不能为负数", err.Error())

	cerr := &ConstraintError{Entity: "asset_category", ID: 3, Message: "仍被资产引用"}
	assert.ErrorIs(t, cerr, ErrConstraint)
	assert.Contains(t, cerr.Error(), "asset_category 3")
}
