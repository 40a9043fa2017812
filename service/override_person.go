package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fipli/models"
	"fipli/override"
)

// PersonPatch 情景中成员年龄的覆盖
type PersonPatch struct {
	RetirementAge         override.Field[int] `json:"retirement_age"`
	FinalAge              override.Field[int] `json:"final_age"`
	ExcludeFromProjection bool                `json:"exclude_from_projection"`
}

func (p PersonPatch) columns() columnSet {
	cols := columnSet{}
	put(cols, "retirement_age", p.RetirementAge)
	put(cols, "final_age", p.FinalAge)
	return cols
}

// PersonOverride 已保存的成员覆盖
type PersonOverride struct {
	ID                    uint                `json:"id"`
	ScenarioID            uint                `json:"scenario_id"`
	PersonID              uint                `json:"person_id"`
	RetirementAge         override.Field[int] `json:"retirement_age"`
	FinalAge              override.Field[int] `json:"final_age"`
	ExcludeFromProjection bool                `json:"exclude_from_projection"`
}

func personOverrideOf(r models.ScenarioPerson) PersonOverride {
	return PersonOverride{
		ID:                    r.ID,
		ScenarioID:            r.ScenarioID,
		PersonID:              r.PersonID,
		RetirementAge:         override.FromColumns(r.OverridesRetirementAge, r.RetirementAge),
		FinalAge:              override.FromColumns(r.OverridesFinalAge, r.FinalAge),
		ExcludeFromProjection: r.ExcludeFromProjection,
	}
}

// apply 返回应用覆盖后的成员
func (o PersonOverride) apply(p models.Person) models.Person {
	p.RetirementAge = o.RetirementAge.Resolve(p.RetirementAge)
	p.FinalAge = o.FinalAge.Resolve(p.FinalAge)
	return p
}

func personKey(scenarioID, personID uint) overrideKey {
	return overrideKey{ScenarioID: scenarioID, Column: "person_id", EntityID: personID}
}

// OverridePerson 写入或合并成员覆盖，年龄按合并后的值校验，
// 其在该情景中持有的退休收入须与新年龄相容
func (s *Service) OverridePerson(ctx context.Context, scenarioID, personID uint, p PersonPatch) (uint, error) {
	var id uint
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		sc, plan, err := loadScenario(tx, scenarioID)
		if err != nil {
			return err
		}
		person, err := mustExist[models.Person](tx, "person_id", personID)
		if err != nil {
			return err
		}
		if person.HouseholdID != plan.HouseholdID {
			return invalid("person_id", "成员 %d 不属于情景所在计划的家庭", personID)
		}
		key := personKey(scenarioID, personID)
		row, _, err := findOverride[models.ScenarioPerson](tx, key)
		if err != nil {
			return err
		}
		cur := personOverrideOf(row)
		merged := PersonOverride{
			RetirementAge: p.RetirementAge.Or(cur.RetirementAge),
			FinalAge:      p.FinalAge.Or(cur.FinalAge),
		}.apply(person)
		if err := checkAges(merged.RetirementAge, merged.FinalAge); err != nil {
			return err
		}
		if id, err = upsertOverride(tx, &models.ScenarioPerson{}, key, p.columns(), &p.ExcludeFromProjection); err != nil {
			return err
		}
		return recheckOwnedIncomes(tx, sc, personID)
	})
	if err != nil {
		return 0, fmt.Errorf("override person: %w", err)
	}
	s.log.Debug("person override saved", "scenario_id", scenarioID, "person_id", personID, "override_id", id)
	return id, nil
}

// GetPersonOverride 读取成员覆盖（即使已排除也返回）
func (s *Service) GetPersonOverride(ctx context.Context, scenarioID, personID uint) (PersonOverride, bool, error) {
	row, ok, err := findOverride[models.ScenarioPerson](s.store.DB(ctx), personKey(scenarioID, personID))
	if err != nil || !ok {
		return PersonOverride{}, ok, wrapErr("get person override", err)
	}
	return personOverrideOf(row), true, nil
}

// DeletePersonOverride 删除成员覆盖
func (s *Service) DeletePersonOverride(ctx context.Context, scenarioID, personID uint) (bool, error) {
	ok, err := deleteOverride(s.store.DB(ctx), &models.ScenarioPerson{}, personKey(scenarioID, personID))
	return ok, wrapErr("delete person override", err)
}

// effectivePeople 返回成员在情景中的生效年龄（忽略排除标志）
func effectivePeople(tx *gorm.DB, scenarioID uint, people []models.Person) ([]models.Person, error) {
	if len(people) == 0 {
		return people, nil
	}
	ids := make([]uint, len(people))
	for i, p := range people {
		ids[i] = p.ID
	}
	var rows []models.ScenarioPerson
	if err := tx.Where("scenario_id = ? AND person_id IN ?", scenarioID, ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byPerson := make(map[uint]PersonOverride, len(rows))
	for _, r := range rows {
		byPerson[r.PersonID] = personOverrideOf(r)
	}
	out := make([]models.Person, len(people))
	for i, p := range people {
		if o, ok := byPerson[p.ID]; ok {
			p = o.apply(p)
		}
		out[i] = p
	}
	return out, nil
}

// decimalField 由覆盖标志和可空金额列组合字段
func decimalField(flag bool, v decimal.NullDecimal) override.Field[decimal.Decimal] {
	if !flag || !v.Valid {
		return override.Inherit[decimal.Decimal]()
	}
	return override.Set(v.Decimal)
}
