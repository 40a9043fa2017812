package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fipli/models"
)

// AssetInput 创建资产参数，IncludeInNestEgg 缺省为 true
type AssetInput struct {
	CategoryID            uint            `json:"asset_category_id"`
	Name                  string          `json:"name"`
	Value                 decimal.Decimal `json:"value"`
	OwnerIDs              []uint          `json:"owner_ids"`
	IncludeInNestEgg      *bool           `json:"include_in_nest_egg"`
	IndependentGrowthRate *float64        `json:"independent_growth_rate"`
}

// AssetUpdate 资产稀疏更新，OwnerIDs 非 nil 时整体替换持有人
type AssetUpdate struct {
	CategoryID            *uint            `json:"asset_category_id"`
	Name                  *string          `json:"name"`
	Value                 *decimal.Decimal `json:"value"`
	OwnerIDs              []uint           `json:"owner_ids"`
	IncludeInNestEgg      *bool            `json:"include_in_nest_egg"`
	IndependentGrowthRate *float64         `json:"independent_growth_rate"`
}

// GrowthWindowInput 增长率调整区间
type GrowthWindowInput struct {
	StartYear int     `json:"start_year"`
	EndYear   int     `json:"end_year"`
	Rate      float64 `json:"growth_rate"`
}

func (in GrowthWindowInput) validate() error {
	if err := checkWindow(in.StartYear, in.EndYear); err != nil {
		return err
	}
	return checkRate("growth_rate", in.Rate)
}

func validateAssetFields(a *models.Asset) error {
	var err error
	if a.Name, err = checkName("name", a.Name); err != nil {
		return err
	}
	if err := checkNonNegative("value", a.Value); err != nil {
		return err
	}
	if a.IndependentGrowthRate != nil {
		if err := checkRate("independent_growth_rate", *a.IndependentGrowthRate); err != nil {
			return err
		}
	}
	return nil
}

// CreateAsset 创建资产及其持有人关系
func (s *Service) CreateAsset(ctx context.Context, planID uint, in AssetInput) (uint, error) {
	a := models.Asset{
		PlanID:                planID,
		AssetCategoryID:       in.CategoryID,
		Name:                  in.Name,
		Value:                 in.Value,
		IncludeInNestEgg:      true,
		IndependentGrowthRate: in.IndependentGrowthRate,
	}
	if in.IncludeInNestEgg != nil {
		a.IncludeInNestEgg = *in.IncludeInNestEgg
	}
	if err := validateAssetFields(&a); err != nil {
		return 0, err
	}
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		plan, err := mustExist[models.Plan](tx, "plan_id", planID)
		if err != nil {
			return err
		}
		if err := categoryInHousehold[models.AssetCategory](tx, "asset_category_id", in.CategoryID, plan.HouseholdID); err != nil {
			return err
		}
		owners, err := ownersInHousehold(tx, plan.HouseholdID, in.OwnerIDs)
		if err != nil {
			return err
		}
		if err := tx.Create(&a).Error; err != nil {
			return err
		}
		return replaceAssetOwners(tx, a.ID, owners)
	})
	if err != nil {
		return 0, fmt.Errorf("create asset: %w", err)
	}
	return a.ID, nil
}

func replaceAssetOwners(tx *gorm.DB, assetID uint, owners []models.Person) error {
	if err := tx.Where("asset_id = ?", assetID).Delete(&models.AssetOwner{}).Error; err != nil {
		return err
	}
	links := make([]models.AssetOwner, 0, len(owners))
	for _, p := range owners {
		links = append(links, models.AssetOwner{AssetID: assetID, PersonID: p.ID})
	}
	return tx.Create(&links).Error
}

// loadAssetOwners 批量填充 OwnerIDs
func loadAssetOwners(tx *gorm.DB, assets []models.Asset) error {
	if len(assets) == 0 {
		return nil
	}
	ids := make([]uint, len(assets))
	for i, a := range assets {
		ids[i] = a.ID
	}
	var links []models.AssetOwner
	if err := tx.Where("asset_id IN ?", ids).Order("asset_id ASC, person_id ASC").Find(&links).Error; err != nil {
		return err
	}
	byAsset := make(map[uint][]uint)
	for _, l := range links {
		byAsset[l.AssetID] = append(byAsset[l.AssetID], l.PersonID)
	}
	for i := range assets {
		assets[i].OwnerIDs = byAsset[assets[i].ID]
	}
	return nil
}

// GetAsset 获取资产（含持有人）
func (s *Service) GetAsset(ctx context.Context, id uint) (models.Asset, bool, error) {
	db := s.store.DB(ctx)
	a, ok, err := first[models.Asset](db, id)
	if err != nil || !ok {
		return a, ok, wrapErr("get asset", err)
	}
	list := []models.Asset{a}
	if err := loadAssetOwners(db, list); err != nil {
		return a, false, fmt.Errorf("get asset: %w", err)
	}
	return list[0], true, nil
}

// ListAssets 列出计划的资产，categoryID 非 nil 时按类别过滤
func (s *Service) ListAssets(ctx context.Context, planID uint, categoryID *uint) ([]models.Asset, error) {
	db := s.store.DB(ctx)
	q := db.Where("plan_id = ?", planID)
	if categoryID != nil {
		q = q.Where("asset_category_id = ?", *categoryID)
	}
	var list []models.Asset
	if err := q.Order("id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	if err := loadAssetOwners(db, list); err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	return list, nil
}

// ListPersonAssets 列出某成员持有的资产
func (s *Service) ListPersonAssets(ctx context.Context, personID uint) ([]models.Asset, error) {
	db := s.store.DB(ctx)
	var list []models.Asset
	err := db.Where("id IN (?)", db.Model(&models.AssetOwner{}).Select("asset_id").Where("person_id = ?", personID)).
		Order("id ASC").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list person assets: %w", err)
	}
	if err := loadAssetOwners(db, list); err != nil {
		return nil, fmt.Errorf("list person assets: %w", err)
	}
	return list, nil
}

// UpdateAsset 稀疏更新资产
func (s *Service) UpdateAsset(ctx context.Context, id uint, upd AssetUpdate) (bool, error) {
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		a, ok, err := first[models.Asset](tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return errNotFound
		}
		plan, err := mustExist[models.Plan](tx, "plan_id", a.PlanID)
		if err != nil {
			return err
		}
		if upd.CategoryID != nil {
			if err := categoryInHousehold[models.AssetCategory](tx, "asset_category_id", *upd.CategoryID, plan.HouseholdID); err != nil {
				return err
			}
			a.AssetCategoryID = *upd.CategoryID
		}
		if upd.Name != nil {
			a.Name = *upd.Name
		}
		if upd.Value != nil {
			a.Value = *upd.Value
		}
		if upd.IncludeInNestEgg != nil {
			a.IncludeInNestEgg = *upd.IncludeInNestEgg
		}
		if upd.IndependentGrowthRate != nil {
			a.IndependentGrowthRate = upd.IndependentGrowthRate
		}
		if err := validateAssetFields(&a); err != nil {
			return err
		}
		if upd.OwnerIDs != nil {
			owners, err := ownersInHousehold(tx, plan.HouseholdID, upd.OwnerIDs)
			if err != nil {
				return err
			}
			if err := replaceAssetOwners(tx, a.ID, owners); err != nil {
				return err
			}
		}
		return tx.Model(&a).Updates(map[string]interface{}{
			"asset_category_id":       a.AssetCategoryID,
			"name":                    a.Name,
			"value":                   a.Value,
			"include_in_nest_egg":     a.IncludeInNestEgg,
			"independent_growth_rate": a.IndependentGrowthRate,
		}).Error
	})
	found, err := foundResult(err)
	if err != nil {
		return false, fmt.Errorf("update asset: %w", err)
	}
	return found, nil
}

// DeleteAsset 删除资产，同时删除持有人关系、增长调整以及各情景中针对它的覆盖
func (s *Service) DeleteAsset(ctx context.Context, id uint) (bool, error) {
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		_, ok, err := first[models.Asset](tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return errNotFound
		}
		dependents := []interface{}{
			&models.AssetOwner{},
			&models.GrowthAdjustment{},
			&models.ScenarioAsset{},
			&models.ScenarioGrowthAdjustment{},
		}
		for _, m := range dependents {
			if err := tx.Where("asset_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Asset{}, id).Error
	})
	found, err := foundResult(err)
	if err != nil {
		return false, fmt.Errorf("delete asset: %w", err)
	}
	return found, nil
}

// AddGrowthAdjustment 为资产添加增长率调整，区间不得与已有调整重叠
func (s *Service) AddGrowthAdjustment(ctx context.Context, assetID uint, in GrowthWindowInput) (uint, error) {
	if err := in.validate(); err != nil {
		return 0, err
	}
	g := models.GrowthAdjustment{
		AssetID:    assetID,
		StartYear:  in.StartYear,
		EndYear:    in.EndYear,
		GrowthRate: in.Rate,
	}
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		if _, err := mustExist[models.Asset](tx, "asset_id", assetID); err != nil {
			return err
		}
		var existing []models.GrowthAdjustment
		if err := tx.Where("asset_id = ?", assetID).Find(&existing).Error; err != nil {
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
		return 0, fmt.Errorf("add growth adjustment: %w", err)
	}
	return g.ID, nil
}

// ListGrowthAdjustments 按开始年份列出资产的增长调整，year 非 nil 时只返回覆盖该年的区间
func (s *Service) ListGrowthAdjustments(ctx context.Context, assetID uint, year *int) ([]models.GrowthAdjustment, error) {
	q := s.store.DB(ctx).Where("asset_id = ?", assetID)
	if year != nil {
		q = q.Where("start_year <= ? AND end_year >= ?", *year, *year)
	}
	var list []models.GrowthAdjustment
	if err := q.Order("start_year ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list growth adjustments: %w", err)
	}
	return list, nil
}

// DeleteGrowthAdjustment 删除增长调整
func (s *Service) DeleteGrowthAdjustment(ctx context.Context, id uint) (bool, error) {
	res := s.store.DB(ctx).Delete(&models.GrowthAdjustment{}, id)
	if res.Error != nil {
		return false, fmt.Errorf("delete growth adjustment: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
