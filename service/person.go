package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"fipli/models"
)

// PersonInput 创建成员参数
type PersonInput struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	DateOfBirth   string `json:"dob"`
	RetirementAge int    `json:"retirement_age"`
	FinalAge      int    `json:"final_age"`
}

// PersonUpdate 成员稀疏更新，nil 表示不修改
type PersonUpdate struct {
	FirstName     *string `json:"first_name"`
	LastName      *string `json:"last_name"`
	DateOfBirth   *string `json:"dob"`
	RetirementAge *int    `json:"retirement_age"`
	FinalAge      *int    `json:"final_age"`
}

func validatePerson(p *models.Person) error {
	var err error
	if p.FirstName, err = checkName("first_name", p.FirstName); err != nil {
		return err
	}
	if p.LastName, err = checkName("last_name", p.LastName); err != nil {
		return err
	}
	if err := checkDate("dob", p.DateOfBirth); err != nil {
		return err
	}
	return checkAges(p.RetirementAge, p.FinalAge)
}

// CreatePerson 在家庭中创建成员
func (s *Service) CreatePerson(ctx context.Context, householdID uint, in PersonInput) (uint, error) {
	p := models.Person{
		HouseholdID:   householdID,
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		DateOfBirth:   in.DateOfBirth,
		RetirementAge: in.RetirementAge,
		FinalAge:      in.FinalAge,
	}
	if err := validatePerson(&p); err != nil {
		return 0, err
	}
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		if _, err := mustExist[models.Household](tx, "household_id", householdID); err != nil {
			return err
		}
		return tx.Create(&p).Error
	})
	if err != nil {
		return 0, fmt.Errorf("create person: %w", err)
	}
	return p.ID, nil
}

// GetPerson 获取成员
func (s *Service) GetPerson(ctx context.Context, id uint) (models.Person, bool, error) {
	p, ok, err := first[models.Person](s.store.DB(ctx), id)
	if err != nil {
		return p, false, fmt.Errorf("get person: %w", err)
	}
	return p, ok, nil
}

// ListPeople 列出家庭成员
func (s *Service) ListPeople(ctx context.Context, householdID uint) ([]models.Person, error) {
	var list []models.Person
	if err := s.store.DB(ctx).Where("household_id = ?", householdID).Order("id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	return list, nil
}

// UpdatePerson 稀疏更新成员，年龄按合并后的值校验。
// 各情景中的生效年龄及其持有的退休收入同样须保持有效，否则整体回滚。
func (s *Service) UpdatePerson(ctx context.Context, id uint, upd PersonUpdate) (bool, error) {
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		p, ok, err := first[models.Person](tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return errNotFound
		}
		if upd.FirstName != nil {
			p.FirstName = *upd.FirstName
		}
		if upd.LastName != nil {
			p.LastName = *upd.LastName
		}
		if upd.DateOfBirth != nil {
			p.DateOfBirth = *upd.DateOfBirth
		}
		if upd.RetirementAge != nil {
			p.RetirementAge = *upd.RetirementAge
		}
		if upd.FinalAge != nil {
			p.FinalAge = *upd.FinalAge
		}
		if err := validatePerson(&p); err != nil {
			return err
		}
		err = tx.Model(&p).Updates(map[string]interface{}{
			"first_name":     p.FirstName,
			"last_name":      p.LastName,
			"dob":            p.DateOfBirth,
			"retirement_age": p.RetirementAge,
			"final_age":      p.FinalAge,
		}).Error
		if err != nil {
			return err
		}
		return recheckPerson(tx, p)
	})
	found, err := foundResult(err)
	if err != nil {
		return false, fmt.Errorf("update person: %w", err)
	}
	return found, nil
}

// DeletePerson 删除成员。
// 成员是某计划的参照人，或是某资产/退休收入的唯一持有人时拒绝删除。
func (s *Service) DeletePerson(ctx context.Context, id uint) (bool, error) {
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		_, ok, err := first[models.Person](tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return errNotFound
		}

		var refs int64
		if err := tx.Model(&models.Plan{}).Where("reference_person_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return &ConstraintError{Entity: "person", ID: id, Message: "仍是计划的参照人"}
		}
		if n, err := soleOwnerCount(tx, "asset_owners", "asset_id", id); err != nil {
			return err
		} else if n > 0 {
			return &ConstraintError{Entity: "person", ID: id, Message: fmt.Sprintf("是 %d 项资产的唯一持有人", n)}
		}
		if n, err := soleOwnerCount(tx, "retirement_income_owners", "retirement_income_id", id); err != nil {
			return err
		} else if n > 0 {
			return &ConstraintError{Entity: "person", ID: id, Message: fmt.Sprintf("是 %d 项退休收入的唯一持有人", n)}
		}

		if err := tx.Where("person_id = ?", id).Delete(&models.AssetOwner{}).Error; err != nil {
			return err
		}
		if err := tx.Where("person_id = ?", id).Delete(&models.RetirementIncomeOwner{}).Error; err != nil {
			return err
		}
		if err := tx.Where("person_id = ?", id).Delete(&models.ScenarioPerson{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Person{}, id).Error
	})
	found, err := foundResult(err)
	if err != nil {
		return false, fmt.Errorf("delete person: %w", err)
	}
	return found, nil
}

// soleOwnerCount 统计 personID 作为唯一持有人的记录数
func soleOwnerCount(tx *gorm.DB, table, key string, personID uint) (int, error) {
	var ids []uint
	sub := tx.Table(table).Select(key).Where("person_id = ?", personID)
	err := tx.Table(table).
		Where(key+" IN (?)", sub).
		Group(key).
		Having("COUNT(*) = 1").
		Pluck(key, &ids).Error
	return len(ids), err
}

// ownersInHousehold 校验持有人非空且都属于该家庭，返回去重后的成员
func ownersInHousehold(tx *gorm.DB, householdID uint, ownerIDs []uint) ([]models.Person, error) {
	ids := dedupeIDs(ownerIDs)
	if len(ids) == 0 {
		return nil, invalid("owner_ids", "至少需要一名持有人")
	}
	var people []models.Person
	if err := tx.Where("id IN ?", ids).Order("id ASC").Find(&people).Error; err != nil {
		return nil, err
	}
	if len(people) != len(ids) {
		return nil, invalid("owner_ids", "包含不存在的成员")
	}
	for _, p := range people {
		if p.HouseholdID != householdID {
			return nil, invalid("owner_ids", "成员 %d 不属于计划所在家庭", p.ID)
		}
	}
	return people, nil
}
