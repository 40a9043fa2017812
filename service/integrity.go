package service

import (
	"context"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"fipli/models"
)

// 检查类型
const (
	CheckSchema       = "schema"
	CheckRelationship = "relationship"
	CheckBusinessRule = "business_rule"
)

// 严重程度
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// IntegrityIssue 一条完整性问题
type IntegrityIssue struct {
	Check    string `json:"check" yaml:"check"`
	Severity string `json:"severity" yaml:"severity"`
	Entity   string `json:"entity" yaml:"entity"`
	ID       uint   `json:"id" yaml:"id"`
	Message  string `json:"message" yaml:"message"`
}

// IntegrityReport 完整性检查结果
type IntegrityReport struct {
	Issues []IntegrityIssue `json:"issues" yaml:"issues"`
}

// Errors 错误数量
func (r IntegrityReport) Errors() int {
	return r.count(SeverityError)
}

// Warnings 警告数量
func (r IntegrityReport) Warnings() int {
	return r.count(SeverityWarning)
}

func (r IntegrityReport) count(severity string) int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == severity {
			n++
		}
	}
	return n
}

func (r *IntegrityReport) add(check, severity, entity string, id uint, format string, args ...interface{}) {
	r.Issues = append(r.Issues, IntegrityIssue{
		Check:    check,
		Severity: severity,
		Entity:   entity,
		ID:       id,
		Message:  fmt.Sprintf(format, args...),
	})
}

// CheckIntegrity 扫描整个库，报告绕过服务层写入或历史遗留的不一致数据。只读。
func (s *Service) CheckIntegrity(ctx context.Context) (IntegrityReport, error) {
	var report IntegrityReport
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		missing, err := checkTables(tx, &report)
		if err != nil || missing {
			return err
		}
		for _, check := range []func(*gorm.DB, *IntegrityReport) error{
			checkPeopleAges,
			checkBaseAssumptions,
			checkEmptyHouseholds,
			checkOwners,
			checkCashFlowRanges,
			checkGrowthOverlap,
			checkScenarioGrowthOverlap,
			checkOverrideTargets,
		} {
			if err := check(tx, &report); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return IntegrityReport{}, fmt.Errorf("check integrity: %w", err)
	}
	sort.SliceStable(report.Issues, func(i, j int) bool {
		a, b := report.Issues[i], report.Issues[j]
		if a.Entity != b.Entity {
			return a.Entity < b.Entity
		}
		return a.ID < b.ID
	})
	s.log.Info("integrity check finished", "errors", report.Errors(), "warnings", report.Warnings())
	return report, nil
}

// checkTables 缺表时其余检查无法执行
func checkTables(tx *gorm.DB, r *IntegrityReport) (bool, error) {
	missing := false
	migrator := tx.Migrator()
	for _, m := range models.All() {
		stmt := &gorm.Statement{DB: tx}
		if err := stmt.Parse(m); err != nil {
			return false, err
		}
		if !migrator.HasTable(stmt.Schema.Table) {
			missing = true
			r.add(CheckSchema, SeverityError, stmt.Schema.Table, 0, "缺少数据表 %s", stmt.Schema.Table)
		}
	}
	return missing, nil
}

func checkPeopleAges(tx *gorm.DB, r *IntegrityReport) error {
	var people []models.Person
	if err := tx.Where("retirement_age <= 0 OR final_age <= 0 OR retirement_age >= final_age").Order("id ASC").Find(&people).Error; err != nil {
		return err
	}
	for _, p := range people {
		r.add(CheckBusinessRule, SeverityError, "person", p.ID,
			"退休年龄 %d 与终老年龄 %d 不满足 0 < 退休年龄 < 终老年龄", p.RetirementAge, p.FinalAge)
	}
	return nil
}

func checkBaseAssumptions(tx *gorm.DB, r *IntegrityReport) error {
	var ids []uint
	err := tx.Model(&models.Plan{}).
		Where("id NOT IN (?)", tx.Model(&models.BaseAssumptions{}).Select("plan_id")).
		Order("id ASC").Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	for _, id := range ids {
		r.add(CheckRelationship, SeverityError, "plan", id, "计划缺少基础假设")
	}
	return nil
}

func checkEmptyHouseholds(tx *gorm.DB, r *IntegrityReport) error {
	var ids []uint
	err := tx.Model(&models.Household{}).
		Where("id NOT IN (?)", tx.Model(&models.Plan{}).Select("household_id")).
		Order("id ASC").Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	for _, id := range ids {
		r.add(CheckRelationship, SeverityWarning, "household", id, "家庭下没有计划")
	}
	return nil
}

func checkOwners(tx *gorm.DB, r *IntegrityReport) error {
	var assets []uint
	err := tx.Model(&models.Asset{}).
		Where("id NOT IN (?)", tx.Model(&models.AssetOwner{}).Select("asset_id")).
		Order("id ASC").Pluck("id", &assets).Error
	if err != nil {
		return err
	}
	for _, id := range assets {
		r.add(CheckRelationship, SeverityError, "asset", id, "资产没有持有人")
	}

	var incomes []uint
	err = tx.Model(&models.RetirementIncome{}).
		Where("id NOT IN (?)", tx.Model(&models.RetirementIncomeOwner{}).Select("retirement_income_id")).
		Order("id ASC").Pluck("id", &incomes).Error
	if err != nil {
		return err
	}
	for _, id := range incomes {
		r.add(CheckRelationship, SeverityError, "retirement_income", id, "退休收入没有持有人")
	}
	return nil
}

func checkCashFlowRanges(tx *gorm.DB, r *IntegrityReport) error {
	var rows []struct {
		ID           uint
		StartYear    int
		EndYear      int
		CreationYear int
	}
	err := tx.Table("cash_flows AS c").
		Select("c.id, c.start_year, c.end_year, p.creation_year").
		Joins("JOIN plans p ON p.id = c.plan_id").
		Where("c.start_year > c.end_year OR c.start_year < p.creation_year").
		Order("c.id ASC").Scan(&rows).Error
	if err != nil {
		return err
	}
	for _, c := range rows {
		r.add(CheckBusinessRule, SeverityError, "cash_flow", c.ID,
			"年份区间 [%d, %d] 无效（计划创建年份 %d）", c.StartYear, c.EndYear, c.CreationYear)
	}
	return nil
}

func checkGrowthOverlap(tx *gorm.DB, r *IntegrityReport) error {
	var list []models.GrowthAdjustment
	if err := tx.Order("asset_id ASC, start_year ASC, id ASC").Find(&list).Error; err != nil {
		return err
	}
	for i := 1; i < len(list); i++ {
		prev, cur := list[i-1], list[i]
		if prev.AssetID == cur.AssetID && windowsOverlap(prev.StartYear, prev.EndYear, cur.StartYear, cur.EndYear) {
			r.add(CheckBusinessRule, SeverityError, "growth_adjustment", cur.ID,
				"与调整 %d 在资产 %d 上重叠", prev.ID, cur.AssetID)
		}
	}
	return nil
}

func checkScenarioGrowthOverlap(tx *gorm.DB, r *IntegrityReport) error {
	var list []models.ScenarioGrowthAdjustment
	if err := tx.Order("scenario_id ASC, asset_id ASC, start_year ASC, id ASC").Find(&list).Error; err != nil {
		return err
	}
	sameTarget := func(a, b *uint) bool {
		if a == nil || b == nil {
			return a == nil && b == nil
		}
		return *a == *b
	}
	for i := 1; i < len(list); i++ {
		prev, cur := list[i-1], list[i]
		if prev.ScenarioID == cur.ScenarioID && sameTarget(prev.AssetID, cur.AssetID) &&
			windowsOverlap(prev.StartYear, prev.EndYear, cur.StartYear, cur.EndYear) {
			r.add(CheckBusinessRule, SeverityError, "scenario_growth_adjustment", cur.ID,
				"与情景 %d 的调整 %d 重叠", cur.ScenarioID, prev.ID)
		}
	}
	return nil
}

// overrideTarget 描述一类覆盖表与其基础实体表的关联
type overrideTarget struct {
	entity string
	table  string
	column string
	base   string
}

var overrideTargets = []overrideTarget{
	{entity: "scenario_asset", table: "scenario_assets", column: "asset_id", base: "assets"},
	{entity: "scenario_liability", table: "scenario_liabilities", column: "liability_id", base: "liabilities"},
	{entity: "scenario_cash_flow", table: "scenario_cash_flows", column: "cash_flow_id", base: "cash_flows"},
	{entity: "scenario_retirement_income", table: "scenario_retirement_incomes", column: "retirement_income_id", base: "retirement_incomes"},
}

// checkOverrideTargets 覆盖行必须指向同一计划（成员：同一家庭）中存在的实体
func checkOverrideTargets(tx *gorm.DB, r *IntegrityReport) error {
	type row struct {
		ID       uint
		EntityID uint
		Found    bool
	}
	for _, t := range overrideTargets {
		var rows []row
		err := tx.Table(t.table + " AS o").
			Select("o.id, o." + t.column + " AS entity_id, b.id IS NOT NULL AS found").
			Joins("JOIN scenarios s ON s.id = o.scenario_id").
			Joins("LEFT JOIN " + t.base + " b ON b.id = o." + t.column).
			Where("b.id IS NULL OR b.plan_id <> s.plan_id").
			Order("o.id ASC").Scan(&rows).Error
		if err != nil {
			return err
		}
		for _, o := range rows {
			if o.Found {
				r.add(CheckRelationship, SeverityError, t.entity, o.ID, "%s %d 不属于情景所在计划", t.column, o.EntityID)
			} else {
				r.add(CheckRelationship, SeverityError, t.entity, o.ID, "%s %d 不存在", t.column, o.EntityID)
			}
		}
	}

	var people []row
	err := tx.Table("scenario_people AS o").
		Select("o.id, o.person_id AS entity_id, pe.id IS NOT NULL AS found").
		Joins("JOIN scenarios s ON s.id = o.scenario_id").
		Joins("JOIN plans p ON p.id = s.plan_id").
		Joins("LEFT JOIN people pe ON pe.id = o.person_id").
		Where("pe.id IS NULL OR pe.household_id <> p.household_id").
		Order("o.id ASC").Scan(&people).Error
	if err != nil {
		return err
	}
	for _, o := range people {
		if o.Found {
			r.add(CheckRelationship, SeverityError, "scenario_person", o.ID, "person_id %d 不属于计划所在家庭", o.EntityID)
		} else {
			r.add(CheckRelationship, SeverityError, "scenario_person", o.ID, "person_id %d 不存在", o.EntityID)
		}
	}
	return nil
}
