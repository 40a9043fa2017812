package service

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fipli/override"
)

// columnSet 覆盖行的列赋值，只包含本次提供的字段
type columnSet map[string]interface{}

// put 字段被覆盖时写入 overrides_<name>=true 和 <name>=值，继承时不动
func put[T any](cols columnSet, name string, f override.Field[T]) {
	if v, ok := f.Get(); ok {
		cols["overrides_"+name] = true
		cols[name] = v
	}
}

// overrideKey 定位一条覆盖行。Column 为空时 scenario_id 本身即唯一键。
type overrideKey struct {
	ScenarioID uint
	Column     string
	EntityID   uint
}

func (k overrideKey) where(tx *gorm.DB) *gorm.DB {
	q := tx.Where("scenario_id = ?", k.ScenarioID)
	if k.Column != "" {
		q = q.Where(k.Column+" = ?", k.EntityID)
	}
	return q
}

// upsertOverride 插入覆盖行，或在唯一键冲突时只更新 cols 中的列。
// exclude 非 nil 时总是写入 exclude_from_projection。返回行 id，多次调用保持不变。
func upsertOverride(tx *gorm.DB, model interface{}, key overrideKey, cols columnSet, exclude *bool) (uint, error) {
	now := time.Now()
	updates := map[string]interface{}{"updated_at": now}
	for k, v := range cols {
		updates[k] = v
	}
	if exclude != nil {
		updates["exclude_from_projection"] = *exclude
	}

	insert := map[string]interface{}{
		"scenario_id": key.ScenarioID,
		"created_at":  now,
	}
	conflict := []clause.Column{{Name: "scenario_id"}}
	if key.Column != "" {
		insert[key.Column] = key.EntityID
		conflict = append(conflict, clause.Column{Name: key.Column})
	}
	for k, v := range updates {
		insert[k] = v
	}

	err := tx.Model(model).Clauses(clause.OnConflict{
		Columns:   conflict,
		DoUpdates: clause.Assignments(updates),
	}).Create(insert).Error
	if err != nil {
		return 0, err
	}

	var ids []uint
	if err := key.where(tx.Model(model)).Limit(1).Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return ids[0], nil
}

// findOverride 读取覆盖行，不存在时 found=false
func findOverride[M any](tx *gorm.DB, key overrideKey) (M, bool, error) {
	var row M
	res := key.where(tx).Limit(1).Find(&row)
	if res.Error != nil {
		return row, false, res.Error
	}
	return row, res.RowsAffected > 0, nil
}

// deleteOverride 删除覆盖行，字段随之回落到基础值
func deleteOverride(tx *gorm.DB, model interface{}, key overrideKey) (bool, error) {
	res := key.where(tx).Delete(model)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
