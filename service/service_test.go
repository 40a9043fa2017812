package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fipli/config"
	"fipli/database"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := database.Open(config.DatabaseConfig{
		Driver:   config.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "test.db"),
		LogLevel: "silent",
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	clock := func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	return New(store,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(clock),
	)
}

// fixture 一个家庭、一个成员、一个计划和两类类别
type fixture struct {
	svc                 *Service
	ctx                 context.Context
	householdID         uint
	personID            uint
	planID              uint
	assetCategoryID     uint
	liabilityCategoryID uint
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	svc := newTestService(t)
	ctx := context.Background()
	f := &fixture{svc: svc, ctx: ctx}

	var err error
	f.householdID, err = svc.CreateHousehold(ctx, "Smith")
	require.NoError(t, err)
	f.personID, err = svc.CreatePerson(ctx, f.householdID, PersonInput{
		FirstName:     "A",
		LastName:      "Smith",
		DateOfBirth:   "1970-03-15",
		RetirementAge: 65,
		FinalAge:      95,
	})
	require.NoError(t, err)
	f.planID, err = svc.CreatePlan(ctx, f.householdID, PlanInput{
		Name:              "Retirement",
		ReferencePersonID: f.personID,
		Assumptions:       AssumptionsInput{InflationRate: floatPtr(3.0)},
	})
	require.NoError(t, err)
	f.assetCategoryID, err = svc.CreateAssetCategory(ctx, f.householdID, "Investments")
	require.NoError(t, err)
	f.liabilityCategoryID, err = svc.CreateLiabilityCategory(ctx, f.householdID, "Mortgage")
	require.NoError(t, err)
	return f
}

func (f *fixture) asset(t *testing.T, name string, value int64) uint {
	t.Helper()
	id, err := f.svc.CreateAsset(f.ctx, f.planID, AssetInput{
		CategoryID: f.assetCategoryID,
		Name:       name,
		Value:      dec(value),
		OwnerIDs:   []uint{f.personID},
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) liability(t *testing.T, name string, value int64) uint {
	t.Helper()
	id, err := f.svc.CreateLiability(f.ctx, f.planID, LiabilityInput{
		CategoryID:   f.liabilityCategoryID,
		Name:         name,
		Value:        dec(value),
		InterestRate: 4.5,
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) cashFlow(t *testing.T, kind string, start, end int) uint {
	t.Helper()
	id, err := f.svc.CreateCashFlow(f.ctx, f.planID, CashFlowInput{
		Kind:         kind,
		Name:         "Salary",
		AnnualAmount: dec(50000),
		StartYear:    start,
		EndYear:      end,
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) income(t *testing.T, startAge int, endAge *int) uint {
	t.Helper()
	id, err := f.svc.CreateRetirementIncome(f.ctx, f.planID, IncomeInput{
		Name:         "Pension",
		AnnualIncome: dec(24000),
		StartAge:     startAge,
		EndAge:       endAge,
		OwnerIDs:     []uint{f.personID},
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) scenario(t *testing.T, name string) uint {
	t.Helper()
	id, err := f.svc.CreateScenario(f.ctx, f.planID, name, AssumptionPatch{})
	require.NoError(t, err)
	return id
}

// secondHousehold 另一个家庭及其成员，用于跨家庭校验
func (f *fixture) secondHousehold(t *testing.T) (householdID, personID uint) {
	t.Helper()
	hid, err := f.svc.CreateHousehold(f.ctx, "Jones")
	require.NoError(t, err)
	pid, err := f.svc.CreatePerson(f.ctx, hid, PersonInput{
		FirstName:     "B",
		LastName:      "Jones",
		DateOfBirth:   "1980-01-01",
		RetirementAge: 60,
		FinalAge:      90,
	})
	require.NoError(t, err)
	return hid, pid
}
