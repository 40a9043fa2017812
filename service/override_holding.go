package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fipli/models"
	"fipli/override"
)

// AssetPatch 情景中资产的覆盖
type AssetPatch struct {
	Value                 override.Field[decimal.Decimal] `json:"value"`
	IndependentGrowthRate override.Field[float64]         `json:"independent_growth_rate"`
	IncludeInNestEgg      override.Field[bool]            `json:"include_in_nest_egg"`
	ExcludeFromProjection bool                            `json:"exclude_from_projection"`
}

func (p AssetPatch) validate() error {
	if v, ok := p.Value.Get(); ok {
		if err := checkNonNegative("value", v); err != nil {
			return err
		}
	}
	if v, ok := p.IndependentGrowthRate.Get(); ok {
		if err := checkRate("independent_growth_rate", v); err != nil {
			return err
		}
	}
	return nil
}

func (p AssetPatch) columns() columnSet {
	cols := columnSet{}
	put(cols, "value", p.Value)
	put(cols, "independent_growth_rate", p.IndependentGrowthRate)
	put(cols, "include_in_nest_egg", p.IncludeInNestEgg)
	return cols
}

// AssetOverride 已保存的资产覆盖
type AssetOverride struct {
	ID                    uint                            `json:"id"`
	ScenarioID            uint                            `json:"scenario_id"`
	AssetID               uint                            `json:"asset_id"`
	Value                 override.Field[decimal.Decimal] `json:"value"`
	IndependentGrowthRate override.Field[float64]         `json:"independent_growth_rate"`
	IncludeInNestEgg      override.Field[bool]            `json:"include_in_nest_egg"`
	ExcludeFromProjection bool                            `json:"exclude_from_projection"`
}

func assetOverrideOf(r models.ScenarioAsset) AssetOverride {
	return AssetOverride{
		ID:                    r.ID,
		ScenarioID:            r.ScenarioID,
		AssetID:               r.AssetID,
		Value:                 decimalField(r.OverridesValue, r.Value),
		IndependentGrowthRate: override.FromColumns(r.OverridesIndependentGrowthRate, r.IndependentGrowthRate),
		IncludeInNestEgg:      override.FromColumns(r.OverridesIncludeInNestEgg, r.IncludeInNestEgg),
		ExcludeFromProjection: r.ExcludeFromProjection,
	}
}

func assetKey(scenarioID, assetID uint) overrideKey {
	return overrideKey{ScenarioID: scenarioID, Column: "asset_id", EntityID: assetID}
}

// OverrideAsset 写入或合并资产覆盖
func (s *Service) OverrideAsset(ctx context.Context, scenarioID, assetID uint, p AssetPatch) (uint, error) {
	if err := p.validate(); err != nil {
		return 0, err
	}
	var id uint
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		sc, _, err := loadScenario(tx, scenarioID)
		if err != nil {
			return err
		}
		a, err := mustExist[models.Asset](tx, "asset_id", assetID)
		if err != nil {
			return err
		}
		if a.PlanID != sc.PlanID {
			return invalid("asset_id", "资产 %d 不属于情景所在计划", assetID)
		}
		id, err = upsertOverride(tx, &models.ScenarioAsset{}, assetKey(scenarioID, assetID), p.columns(), &p.ExcludeFromProjection)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("override asset: %w", err)
	}
	s.log.Debug("asset override saved", "scenario_id", scenarioID, "asset_id", assetID, "override_id", id)
	return id, nil
}

// GetAssetOverride 读取资产覆盖
func (s *Service) GetAssetOverride(ctx context.Context, scenarioID, assetID uint) (AssetOverride, bool, error) {
	row, ok, err := findOverride[models.ScenarioAsset](s.store.DB(ctx), assetKey(scenarioID, assetID))
	if err != nil || !ok {
		return AssetOverride{}, ok, wrapErr("get asset override", err)
	}
	return assetOverrideOf(row), true, nil
}

// DeleteAssetOverride 删除资产覆盖
func (s *Service) DeleteAssetOverride(ctx context.Context, scenarioID, assetID uint) (bool, error) {
	ok, err := deleteOverride(s.store.DB(ctx), &models.ScenarioAsset{}, assetKey(scenarioID, assetID))
	return ok, wrapErr("delete asset override", err)
}

// LiabilityPatch 情景中负债的覆盖
type LiabilityPatch struct {
	Value                 override.Field[decimal.Decimal] `json:"value"`
	InterestRate          override.Field[float64]         `json:"interest_rate"`
	IncludeInNestEgg      override.Field[bool]            `json:"include_in_nest_egg"`
	ExcludeFromProjection bool                            `json:"exclude_from_projection"`
}

func (p LiabilityPatch) validate() error {
	if v, ok := p.Value.Get(); ok {
		if err := checkNonNegative("value", v); err != nil {
			return err
		}
	}
	if v, ok := p.InterestRate.Get(); ok {
		if err := checkRate("interest_rate", v); err != nil {
			return err
		}
	}
	return nil
}

func (p LiabilityPatch) columns() columnSet {
	cols := columnSet{}
	put(cols, "value", p.Value)
	put(cols, "interest_rate", p.InterestRate)
	put(cols, "include_in_nest_egg", p.IncludeInNestEgg)
	return cols
}

// LiabilityOverride 已保存的负债覆盖
type LiabilityOverride struct {
	ID                    uint                            `json:"id"`
	ScenarioID            uint                            `json:"scenario_id"`
	LiabilityID           uint                            `json:"liability_id"`
	Value                 override.Field[decimal.Decimal] `json:"value"`
	InterestRate          override.Field[float64]         `json:"interest_rate"`
	IncludeInNestEgg      override.Field[bool]            `json:"include_in_nest_egg"`
	ExcludeFromProjection bool                            `json:"exclude_from_projection"`
}

func liabilityOverrideOf(r models.ScenarioLiability) LiabilityOverride {
	return LiabilityOverride{
		ID:                    r.ID,
		ScenarioID:            r.ScenarioID,
		LiabilityID:           r.LiabilityID,
		Value:                 decimalField(r.OverridesValue, r.Value),
		InterestRate:          override.FromColumns(r.OverridesInterestRate, r.InterestRate),
		IncludeInNestEgg:      override.FromColumns(r.OverridesIncludeInNestEgg, r.IncludeInNestEgg),
		ExcludeFromProjection: r.ExcludeFromProjection,
	}
}

func liabilityKey(scenarioID, liabilityID uint) overrideKey {
	return overrideKey{ScenarioID: scenarioID, Column: "liability_id", EntityID: liabilityID}
}

// OverrideLiability 写入或合并负债覆盖
func (s *Service) OverrideLiability(ctx context.Context, scenarioID, liabilityID uint, p LiabilityPatch) (uint, error) {
	if err := p.validate(); err != nil {
		return 0, err
	}
	var id uint
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		sc, _, err := loadScenario(tx, scenarioID)
		if err != nil {
			return err
		}
		l, err := mustExist[models.Liability](tx, "liability_id", liabilityID)
		if err != nil {
			return err
		}
		if l.PlanID != sc.PlanID {
			return invalid("liability_id", "负债 %d 不属于情景所在计划", liabilityID)
		}
		id, err = upsertOverride(tx, &models.ScenarioLiability{}, liabilityKey(scenarioID, liabilityID), p.columns(), &p.ExcludeFromProjection)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("override liability: %w", err)
	}
	return id, nil
}

// GetLiabilityOverride 读取负债覆盖
func (s *Service) GetLiabilityOverride(ctx context.Context, scenarioID, liabilityID uint) (LiabilityOverride, bool, error) {
	row, ok, err := findOverride[models.ScenarioLiability](s.store.DB(ctx), liabilityKey(scenarioID, liabilityID))
	if err != nil || !ok {
		return LiabilityOverride{}, ok, wrapErr("get liability override", err)
	}
	return liabilityOverrideOf(row), true, nil
}

// DeleteLiabilityOverride 删除负债覆盖
func (s *Service) DeleteLiabilityOverride(ctx context.Context, scenarioID, liabilityID uint) (bool, error) {
	ok, err := deleteOverride(s.store.DB(ctx), &models.ScenarioLiability{}, liabilityKey(scenarioID, liabilityID))
	return ok, wrapErr("delete liability override", err)
}
