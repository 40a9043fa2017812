package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"fipli/models"
)

// CreateAssetCategory 创建资产类别
func (s *Service) CreateAssetCategory(ctx context.Context, householdID uint, name string) (uint, error) {
	name, err := checkName("name", name)
	if err != nil {
		return 0, err
	}
	c := models.AssetCategory{HouseholdID: householdID, Name: name}
	err = s.store.Transaction(ctx, func(tx *gorm.DB) error {
		if _, err := mustExist[models.Household](tx, "household_id", householdID); err != nil {
			return err
		}
		return tx.Create(&c).Error
	})
	if err != nil {
		return 0, fmt.Errorf("create asset category: %w", err)
	}
	return c.ID, nil
}

// ListAssetCategories 列出家庭的资产类别
func (s *Service) ListAssetCategories(ctx context.Context, householdID uint) ([]models.AssetCategory, error) {
	var list []models.AssetCategory
	if err := s.store.DB(ctx).Where("household_id = ?", householdID).Order("id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list asset categories: %w", err)
	}
	return list, nil
}

// DeleteAssetCategory 删除资产类别，仍被资产引用时拒绝
func (s *Service) DeleteAssetCategory(ctx context.Context, id uint) (bool, error) {
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		return deleteCategoryTx[models.AssetCategory](tx, id, &models.Asset{}, "asset_category_id", "asset_category")
	})
	found, err := foundResult(err)
	if err != nil {
		return false, fmt.Errorf("delete asset category: %w", err)
	}
	return found, nil
}

// CreateLiabilityCategory 创建负债类别
func (s *Service) CreateLiabilityCategory(ctx context.Context, householdID uint, name string) (uint, error) {
	name, err := checkName("name", name)
	if err != nil {
		return 0, err
	}
	c := models.LiabilityCategory{HouseholdID: householdID, Name: name}
	err = s.store.Transaction(ctx, func(tx *gorm.DB) error {
		if _, err := mustExist[models.Household](tx, "household_id", householdID); err != nil {
			return err
		}
		return tx.Create(&c).Error
	})
	if err != nil {
		return 0, fmt.Errorf("create liability category: %w", err)
	}
	return c.ID, nil
}

// ListLiabilityCategories 列出家庭的负债类别
func (s *Service) ListLiabilityCategories(ctx context.Context, householdID uint) ([]models.LiabilityCategory, error) {
	var list []models.LiabilityCategory
	if err := s.store.DB(ctx).Where("household_id = ?", householdID).Order("id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list liability categories: %w", err)
	}
	return list, nil
}

// DeleteLiabilityCategory 删除负债类别，仍被负债引用时拒绝
func (s *Service) DeleteLiabilityCategory(ctx context.Context, id uint) (bool, error) {
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		return deleteCategoryTx[models.LiabilityCategory](tx, id, &models.Liability{}, "liability_category_id", "liability_category")
	})
	found, err := foundResult(err)
	if err != nil {
		return false, fmt.Errorf("delete liability category: %w", err)
	}
	return found, nil
}

func deleteCategoryTx[C any](tx *gorm.DB, id uint, user interface{}, column, entity string) error {
	_, ok, err := first[C](tx, id)
	if err != nil {
		return err
	}
	if !ok {
		return errNotFound
	}
	var refs int64
	if err := tx.Model(user).Where(column+" = ?", id).Count(&refs).Error; err != nil {
		return err
	}
	if refs > 0 {
		return &ConstraintError{Entity: entity, ID: id, Message: fmt.Sprintf("仍被 %d 条记录引用", refs)}
	}
	return tx.Delete(new(C), id).Error
}

// categoryInHousehold 校验类别存在且属于指定家庭
func categoryInHousehold[C models.AssetCategory | models.LiabilityCategory](tx *gorm.DB, field string, id, householdID uint) error {
	c, err := mustExist[C](tx, field, id)
	if err != nil {
		return err
	}
	var owner uint
	switch v := any(c).(type) {
	case models.AssetCategory:
		owner = v.HouseholdID
	case models.LiabilityCategory:
		owner = v.HouseholdID
	}
	if owner != householdID {
		return invalid(field, "类别 %d 不属于计划所在家庭", id)
	}
	return nil
}
