package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"fipli/config"
	"fipli/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(config.DatabaseConfig{
		Driver:   config.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "test.db"),
		LogLevel: "silent",
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_MigratesAllTables(t *testing.T) {
	s := openTestStore(t)

	tables, err := s.Tables()
	require.NoError(t, err)
	assert.Len(t, tables, len(models.All()))
	assert.Contains(t, tables, "scenario_assets")
	assert.Equal(t, config.DriverSQLite, s.Driver())

	// 重复迁移不报错
	require.NoError(t, s.Migrate())
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "plan.db")
	s, err := Open(config.DatabaseConfig{Driver: config.DriverSQLite, Path: path, LogLevel: "silent"}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestOpen_RejectsBadConfig(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: config.DriverSQLite}, nil)
	require.Error(t, err)

	_, err = Open(config.DatabaseConfig{Driver: "oracle"}, nil)
	require.Error(t, err)
}

func TestTransaction_RollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&models.Household{Name: "Smith"}).Error; err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, s.DB(ctx).Model(&models.Household{}).Count(&count).Error)
	assert.Zero(t, count)

	require.NoError(t, s.Transaction(ctx, func(tx *gorm.DB) error {
		return tx.Create(&models.Household{Name: "Smith"}).Error
	}))
	require.NoError(t, s.DB(ctx).Model(&models.Household{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestOverrideUniqueIndex(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	db := s.DB(ctx)
	require.NoError(t, db.Create(&models.ScenarioAsset{ScenarioID: 1, AssetID: 2}).Error)
	err := db.Create(&models.ScenarioAsset{ScenarioID: 1, AssetID: 2}).Error
	require.Error(t, err)
	require.NoError(t, db.Create(&models.ScenarioAsset{ScenarioID: 2, AssetID: 2}).Error)
}
