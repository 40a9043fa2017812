package service

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fipli/models"
)

func checkName(field, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid(field, "不能为空")
	}
	if len([]rune(name)) > 100 {
		return "", invalid(field, "长度不能超过 100")
	}
	return name, nil
}

func checkRate(field string, v float64) error {
	if v < models.RateMin || v > models.RateMax {
		return invalid(field, "必须在 %.0f 到 %.0f 之间，当前为 %g", models.RateMin, models.RateMax, v)
	}
	return nil
}

func checkNonNegative(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return invalid(field, "不能为负数，当前为 %s", d.String())
	}
	return nil
}

func checkDate(field, s string) error {
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return invalid(field, "日期格式应为 YYYY-MM-DD")
	}
	return nil
}

// checkAges 0 < retirementAge < finalAge
func checkAges(retirementAge, finalAge int) error {
	if retirementAge <= 0 {
		return invalid("retirement_age", "必须大于 0")
	}
	if finalAge <= 0 {
		return invalid("final_age", "必须大于 0")
	}
	if retirementAge >= finalAge {
		return invalid("retirement_age", "退休年龄 %d 必须小于终止年龄 %d", retirementAge, finalAge)
	}
	return nil
}

func checkWindow(startYear, endYear int) error {
	if startYear > endYear {
		return invalid("start_year", "开始年份 %d 不能晚于结束年份 %d", startYear, endYear)
	}
	return nil
}

// windowsOverlap 闭区间 [s1,e1] 与 [s2,e2] 是否相交
func windowsOverlap(s1, e1, s2, e2 int) bool {
	return s1 <= e2 && s2 <= e1
}

func normalizeKind(kind string) (string, error) {
	k := strings.ToUpper(strings.TrimSpace(kind))
	if k != models.CashFlowInflow && k != models.CashFlowOutflow {
		return "", invalid("kind", "必须是 INFLOW 或 OUTFLOW")
	}
	return k, nil
}

// ValidateCashFlowYears 现金流区间必须有序且不早于计划创建年份
func ValidateCashFlowYears(startYear, endYear, creationYear int) error {
	if err := checkWindow(startYear, endYear); err != nil {
		return err
	}
	if startYear < creationYear {
		return invalid("start_year", "开始年份 %d 不能早于计划创建年份 %d", startYear, creationYear)
	}
	return nil
}

// ValidateIncomeAges 校验退休收入的起止年龄与每个持有人的年龄设定是否相容。
// owners 应为持有人在当前上下文（基础或某个情景）中的生效年龄。
func ValidateIncomeAges(startAge int, endAge *int, owners []models.Person) error {
	if startAge <= 0 {
		return invalid("start_age", "必须大于 0")
	}
	if endAge != nil && *endAge < startAge {
		return invalid("end_age", "结束年龄 %d 不能小于开始年龄 %d", *endAge, startAge)
	}
	for _, p := range owners {
		if startAge > p.FinalAge {
			return invalid("start_age", "开始年龄 %d 超过 %s 的终止年龄 %d", startAge, p.FullName(), p.FinalAge)
		}
		if endAge != nil && *endAge < p.RetirementAge {
			return invalid("end_age", "结束年龄 %d 早于 %s 的退休年龄 %d", *endAge, p.FullName(), p.RetirementAge)
		}
	}
	return nil
}

// dedupeIDs 去重并排序
func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
