package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fipli/config"
	"fipli/database"
)

func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	svc := New(database.New(gormDB, config.DriverMySQL),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	return svc, mock
}

func TestCreatePerson_RollsBackOnInsertError(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `households`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).
			AddRow(1, "Smith", time.Now(), time.Now()))
	mock.ExpectExec("INSERT INTO `people`").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := svc.CreatePerson(context.Background(), 1, PersonInput{
		FirstName: "A", LastName: "Smith", DateOfBirth: "1970-01-01", RetirementAge: 65, FinalAge: 95,
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "disk full")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePerson_MissingHouseholdRollsBack(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `households`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at", "updated_at"}))
	mock.ExpectRollback()

	_, err := svc.CreatePerson(context.Background(), 7, PersonInput{
		FirstName: "A", LastName: "Smith", DateOfBirth: "1970-01-01", RetirementAge: 65, FinalAge: 95,
	})
	assert.ErrorIs(t, err, ErrValidation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateHousehold_NoRowsMeansNotFound(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `households`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	found, err := svc.UpdateHousehold(context.Background(), 42, "Renamed")
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEffectiveLiabilities_ReadsInOneTransaction(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `scenarios`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "plan_id", "name", "created_at", "updated_at"}).
			AddRow(3, 1, "Recession", time.Now(), time.Now()))
	mock.ExpectQuery("SELECT .* FROM `liabilities`").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("SELECT .* FROM `scenario_liabilities`").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	list, ok, err := svc.GetEffectiveLiabilities(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, list)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEffectivePeople_MissingScenarioRollsBack(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `scenarios`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "plan_id", "name", "created_at", "updated_at"}))
	mock.ExpectRollback()

	people, ok, err := svc.GetEffectivePeople(context.Background(), 9)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, people)
	require.NoError(t, mock.ExpectationsWereMet())
}
