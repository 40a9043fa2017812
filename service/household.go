package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"fipli/models"
)

// CreateHousehold 创建家庭
func (s *Service) CreateHousehold(ctx context.Context, name string) (uint, error) {
	name, err := checkName("name", name)
	if err != nil {
		return 0, err
	}
	h := models.Household{Name: name}
	if err := s.store.DB(ctx).Create(&h).Error; err != nil {
		return 0, fmt.Errorf("create household: %w", err)
	}
	s.log.Info("household created", "household_id", h.ID)
	return h.ID, nil
}

// GetHousehold 获取家庭
func (s *Service) GetHousehold(ctx context.Context, id uint) (models.Household, bool, error) {
	h, ok, err := first[models.Household](s.store.DB(ctx), id)
	if err != nil {
		return h, false, fmt.Errorf("get household: %w", err)
	}
	return h, ok, nil
}

// ListHouseholds 列出所有家庭
func (s *Service) ListHouseholds(ctx context.Context) ([]models.Household, error) {
	var list []models.Household
	if err := s.store.DB(ctx).Order("id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list households: %w", err)
	}
	return list, nil
}

// UpdateHousehold 修改家庭名称
func (s *Service) UpdateHousehold(ctx context.Context, id uint, name string) (bool, error) {
	name, err := checkName("name", name)
	if err != nil {
		return false, err
	}
	res := s.store.DB(ctx).Model(&models.Household{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return false, fmt.Errorf("update household: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// DeleteHousehold 删除家庭及其下所有计划、成员和类别
func (s *Service) DeleteHousehold(ctx context.Context, id uint) (bool, error) {
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		_, ok, err := first[models.Household](tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return errNotFound
		}

		var planIDs []uint
		if err := tx.Model(&models.Plan{}).Where("household_id = ?", id).Pluck("id", &planIDs).Error; err != nil {
			return err
		}
		for _, planID := range planIDs {
			if err := deletePlanTx(tx, planID); err != nil {
				return err
			}
		}

		var personIDs []uint
		if err := tx.Model(&models.Person{}).Where("household_id = ?", id).Pluck("id", &personIDs).Error; err != nil {
			return err
		}
		if len(personIDs) > 0 {
			if err := tx.Where("person_id IN ?", personIDs).Delete(&models.ScenarioPerson{}).Error; err != nil {
				return err
			}
			if err := tx.Where("person_id IN ?", personIDs).Delete(&models.AssetOwner{}).Error; err != nil {
				return err
			}
			if err := tx.Where("person_id IN ?", personIDs).Delete(&models.RetirementIncomeOwner{}).Error; err != nil {
				return err
			}
		}

		steps := []interface{}{&models.Person{}, &models.AssetCategory{}, &models.LiabilityCategory{}}
		for _, m := range steps {
			if err := tx.Where("household_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Household{}, id).Error
	})
	found, err := foundResult(err)
	if err != nil {
		return false, fmt.Errorf("delete household: %w", err)
	}
	if found {
		s.log.Info("household deleted", "household_id", id)
	}
	return found, nil
}
