// Package export 把情景的生效视图导出为 Excel 工作簿。
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"fipli/service"
)

// 工作表名称
const (
	SheetAssumptions = "假设"
	SheetPeople      = "成员"
	SheetAssets      = "资产"
	SheetLiabilities = "负债"
	SheetCashFlows   = "现金流"
	SheetIncome      = "退休收入"
	SheetGrowth      = "增长调整"
)

// ContentType xlsx 的 MIME 类型
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// column 一列。field 对应生效视图 Overridden 中的字段名，空表示该列不会被覆盖。
type column struct {
	title string
	field string
	width float64
}

type sheet struct {
	name    string
	columns []column
	rows    [][]interface{}
	marked  [][]string
	total   *decimal.Decimal
	totalAt int
}

func (s *sheet) add(overridden []string, values ...interface{}) {
	s.rows = append(s.rows, values)
	s.marked = append(s.marked, overridden)
}

type styles struct {
	header     int
	data       int
	overridden int
	summary    int
}

func border() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
}

func newStyles(f *excelize.File) (styles, error) {
	var st styles
	var err error
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}
	if st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: center,
		Border:    border(),
	}); err != nil {
		return st, err
	}
	if st.data, err = f.NewStyle(&excelize.Style{Alignment: center, Border: border()}); err != nil {
		return st, err
	}
	// 情景覆盖的单元格用浅黄底标出
	if st.overridden, err = f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFF2CC"}, Pattern: 1},
		Alignment: center,
		Border:    border(),
	}); err != nil {
		return st, err
	}
	st.summary, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Alignment: center,
		Border:    border(),
	})
	return st, err
}

// Workbook 生成工作簿，调用方负责 Close
func Workbook(plan service.EffectivePlan) (*excelize.File, error) {
	f := excelize.NewFile()
	st, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	for i, s := range sheets(plan) {
		if i == 0 {
			err = f.SetSheetName("Sheet1", s.name)
		} else {
			_, err = f.NewSheet(s.name)
		}
		if err == nil {
			err = writeSheet(f, s, st)
		}
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("写入工作表 %s 失败: %w", s.name, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// Write 生成工作簿并写入 w
func Write(w io.Writer, plan service.EffectivePlan) error {
	f, err := Workbook(plan)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// FileName 下载文件名
func FileName(plan service.EffectivePlan) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`\/:*?"<>| `, r) {
			return '_'
		}
		return r
	}, plan.ScenarioName)
	return fmt.Sprintf("scenario_%d_%s.xlsx", plan.ScenarioID, name)
}

func writeSheet(f *excelize.File, s sheet, st styles) error {
	last := len(s.columns)
	for i, c := range s.columns {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(s.name, col, col, c.width); err != nil {
			return err
		}
		cell := col + "1"
		if err := f.SetCellValue(s.name, cell, c.title); err != nil {
			return err
		}
		if err := f.SetCellStyle(s.name, cell, cell, st.header); err != nil {
			return err
		}
	}

	for r, values := range s.rows {
		row := r + 2
		for i, v := range values {
			cell, err := excelize.CoordinatesToCellName(i+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(s.name, cell, v); err != nil {
				return err
			}
			style := st.data
			if i < last && s.columns[i].field != "" && contains(s.marked[r], s.columns[i].field) {
				style = st.overridden
			}
			if err := f.SetCellStyle(s.name, cell, cell, style); err != nil {
				return err
			}
		}
	}

	if s.total == nil {
		return nil
	}
	// 合计行
	row := len(s.rows) + 2
	first, _ := excelize.CoordinatesToCellName(1, row)
	end, _ := excelize.CoordinatesToCellName(last, row)
	totalCell, _ := excelize.CoordinatesToCellName(s.totalAt+1, row)
	if err := f.SetCellValue(s.name, first, "合计"); err != nil {
		return err
	}
	if err := f.SetCellValue(s.name, totalCell, s.total.InexactFloat64()); err != nil {
		return err
	}
	return f.SetCellStyle(s.name, first, end, st.summary)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func money(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func optionalFloat(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func optionalInt(v *int) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func yesNo(b bool) string {
	if b {
		return "是"
	}
	return "否"
}

func ids(list []uint) string {
	parts := make([]string, len(list))
	for i, id := range list {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(parts, ",")
}

func sheets(plan service.EffectivePlan) []sheet {
	a := plan.Assumptions
	assumptions := sheet{name: SheetAssumptions, columns: []column{
		{title: "项目", width: 20},
		{title: "数值", width: 16, field: "*"},
		{title: "来源", width: 10},
	}}
	source := func(field string) string {
		if contains(a.Overridden, field) {
			return "情景"
		}
		return "基础"
	}
	for _, item := range []struct {
		title, field string
		value        interface{}
	}{
		{"计划", "", plan.PlanName},
		{"情景", "", plan.ScenarioName},
		{"创建年份", "", plan.CreationYear},
		{"养老储备增长率(%)", "nest_egg_growth_rate", a.NestEggGrowthRate},
		{"通胀率(%)", "inflation_rate", a.InflationRate},
		{"年退休支出", "annual_retirement_spending", money(a.AnnualRetirementSpending)},
	} {
		if item.field == "" {
			assumptions.add(nil, item.title, item.value, "")
			continue
		}
		var marked []string
		if contains(a.Overridden, item.field) {
			marked = []string{"*"}
		}
		assumptions.add(marked, item.title, item.value, source(item.field))
	}

	people := sheet{name: SheetPeople, columns: []column{
		{title: "ID", width: 8},
		{title: "姓名", width: 20},
		{title: "出生日期", width: 14},
		{title: "退休年龄", width: 10, field: "retirement_age"},
		{title: "终止年龄", width: 10, field: "final_age"},
	}}
	for _, p := range plan.People {
		people.add(p.Overridden, p.ID, p.FirstName+" "+p.LastName, p.DateOfBirth, p.RetirementAge, p.FinalAge)
	}

	assets := sheet{name: SheetAssets, totalAt: 2, columns: []column{
		{title: "ID", width: 8},
		{title: "名称", width: 24},
		{title: "金额", width: 16, field: "value"},
		{title: "独立增长率(%)", width: 14, field: "independent_growth_rate"},
		{title: "计入养老储备", width: 12, field: "include_in_nest_egg"},
		{title: "持有人", width: 12},
	}}
	assetTotal := decimal.Zero
	for _, x := range plan.Assets {
		assets.add(x.Overridden, x.ID, x.Name, money(x.Value), optionalFloat(x.IndependentGrowthRate), yesNo(x.IncludeInNestEgg), ids(x.OwnerIDs))
		assetTotal = assetTotal.Add(x.Value)
	}
	assets.total = &assetTotal

	liabilities := sheet{name: SheetLiabilities, totalAt: 2, columns: []column{
		{title: "ID", width: 8},
		{title: "名称", width: 24},
		{title: "金额", width: 16, field: "value"},
		{title: "利率(%)", width: 10, field: "interest_rate"},
		{title: "计入养老储备", width: 12, field: "include_in_nest_egg"},
	}}
	liabilityTotal := decimal.Zero
	for _, x := range plan.Liabilities {
		liabilities.add(x.Overridden, x.ID, x.Name, money(x.Value), x.InterestRate, yesNo(x.IncludeInNestEgg))
		liabilityTotal = liabilityTotal.Add(x.Value)
	}
	liabilities.total = &liabilityTotal

	flows := sheet{name: SheetCashFlows, columns: []column{
		{title: "ID", width: 8},
		{title: "方向", width: 10},
		{title: "名称", width: 24},
		{title: "年金额", width: 16, field: "annual_amount"},
		{title: "开始年份", width: 10, field: "start_year"},
		{title: "结束年份", width: 10, field: "end_year"},
		{title: "随通胀调整", width: 12, field: "apply_inflation"},
	}}
	for _, x := range plan.CashFlows {
		flows.add(x.Overridden, x.ID, x.Kind, x.Name, money(x.AnnualAmount), x.StartYear, x.EndYear, yesNo(x.ApplyInflation))
	}

	income := sheet{name: SheetIncome, columns: []column{
		{title: "ID", width: 8},
		{title: "名称", width: 24},
		{title: "年收入", width: 16, field: "annual_income"},
		{title: "开始年龄", width: 10, field: "start_age"},
		{title: "结束年龄", width: 10, field: "end_age"},
		{title: "随通胀调整", width: 12, field: "apply_inflation"},
		{title: "计入养老储备", width: 12, field: "include_in_nest_egg"},
		{title: "持有人", width: 12},
	}}
	for _, x := range plan.RetirementIncome {
		income.add(x.Overridden, x.ID, x.Name, money(x.AnnualIncome), x.StartAge, optionalInt(x.EndAge),
			yesNo(x.ApplyInflation), yesNo(x.IncludeInNestEgg), ids(x.OwnerIDs))
	}

	growth := sheet{name: SheetGrowth, columns: []column{
		{title: "资产", width: 24},
		{title: "开始年份", width: 10},
		{title: "结束年份", width: 10},
		{title: "增长率(%)", width: 10},
		{title: "来源", width: 10},
	}}
	sourceName := map[string]string{"base": "基础", "scenario": "情景"}
	for _, g := range a.GrowthAdjustments {
		growth.add(nil, "全部", g.StartYear, g.EndYear, g.Rate, sourceName[g.Source])
	}
	for _, x := range plan.Assets {
		for _, g := range x.GrowthAdjustments {
			growth.add(nil, x.Name, g.StartYear, g.EndYear, g.Rate, sourceName[g.Source])
		}
	}

	return []sheet{assumptions, people, assets, liabilities, flows, income, growth}
}
