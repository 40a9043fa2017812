package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"fipli/service"
)

// NewScenarioCommand 情景查看
func NewScenarioCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "查看计划下的情景及其生效值",
	}
	cmd.AddCommand(newScenarioListCommand(opts))
	cmd.AddCommand(newScenarioShowCommand(opts))
	return cmd
}

// scenarioRow 情景列表中的一行
type scenarioRow struct {
	ID                     uint   `json:"id" yaml:"id"`
	Name                   string `json:"name" yaml:"name"`
	HasAssumptionOverride  bool   `json:"has_assumption_override" yaml:"has_assumption_override"`
	GrowthAdjustmentCount  int64  `json:"growth_adjustment_count" yaml:"growth_adjustment_count"`
	PersonOverrideCount    int64  `json:"person_override_count" yaml:"person_override_count"`
	AssetOverrideCount     int64  `json:"asset_override_count" yaml:"asset_override_count"`
	LiabilityOverrideCount int64  `json:"liability_override_count" yaml:"liability_override_count"`
	CashFlowOverrideCount  int64  `json:"cash_flow_override_count" yaml:"cash_flow_override_count"`
	IncomeOverrideCount    int64  `json:"income_override_count" yaml:"income_override_count"`
}

func newScenarioListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <plan-id>",
		Short: "列出计划下的情景和覆盖数量",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			planID, err := parseID(args[0])
			if err != nil {
				return err
			}
			e, err := openEnv(opts, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := cmd.Context()
			if _, ok, err := e.svc.GetPlan(ctx, planID); err != nil {
				return WrapExitError(ExitFailure, "读取计划失败", err)
			} else if !ok {
				return NewExitError(ExitFailure, fmt.Sprintf("计划 #%d 不存在", planID))
			}
			list, err := e.svc.ListScenarios(ctx, planID)
			if err != nil {
				return WrapExitError(ExitFailure, "读取情景失败", err)
			}

			rows := make([]scenarioRow, 0, len(list))
			for _, s := range list {
				rows = append(rows, scenarioRow{
					ID:                     s.ID,
					Name:                   s.Name,
					HasAssumptionOverride:  s.HasAssumptionOverride,
					GrowthAdjustmentCount:  s.GrowthAdjustmentCount,
					PersonOverrideCount:    s.PersonOverrideCount,
					AssetOverrideCount:     s.AssetOverrideCount,
					LiabilityOverrideCount: s.LiabilityOverrideCount,
					CashFlowOverrideCount:  s.CashFlowOverrideCount,
					IncomeOverrideCount:    s.IncomeOverrideCount,
				})
			}

			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return out.Print(rows, func(w io.Writer) {
				if len(rows) == 0 {
					fmt.Fprintln(w, "(none)")
					return
				}
				for _, r := range rows {
					assumptions := "-"
					if r.HasAssumptionOverride {
						assumptions = "yes"
					}
					fmt.Fprintf(w, "#%d %s assumptions=%s growth=%d people=%d assets=%d liabilities=%d cashflows=%d income=%d\n",
						r.ID, r.Name, assumptions, r.GrowthAdjustmentCount, r.PersonOverrideCount,
						r.AssetOverrideCount, r.LiabilityOverrideCount, r.CashFlowOverrideCount, r.IncomeOverrideCount)
				}
			})
		},
	}
}

func newScenarioShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <scenario-id>",
		Short: "显示情景的完整生效视图，* 标记被覆盖的字段",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			e, err := openEnv(opts, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			plan, ok, err := e.svc.GetEffectivePlan(cmd.Context(), id)
			if err != nil {
				return WrapExitError(ExitFailure, "解析情景失败", err)
			}
			if !ok {
				return NewExitError(ExitFailure, fmt.Sprintf("情景 #%d 不存在", id))
			}

			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return out.Print(plan, func(w io.Writer) { renderPlan(w, plan) })
		},
	}
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("无效的ID: %s", s))
	}
	return uint(id), nil
}

// fieldLine 拼接 key=value，被覆盖的字段追加 *
type fieldLine struct {
	parts      []string
	overridden map[string]bool
}

func newFieldLine(overridden []string) *fieldLine {
	m := make(map[string]bool, len(overridden))
	for _, name := range overridden {
		m[name] = true
	}
	return &fieldLine{overridden: m}
}

func (l *fieldLine) add(name, value string) *fieldLine {
	part := name + "=" + value
	if l.overridden[name] {
		part += "*"
	}
	l.parts = append(l.parts, part)
	return l
}

func (l *fieldLine) String() string {
	return strings.Join(l.parts, " ")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return formatFloat(*v)
}

func formatOptInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func formatIDs(ids []uint) string {
	if len(ids) == 0 {
		return "-"
	}
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(s, ",")
}

func writeWindows(w io.Writer, indent string, windows []service.GrowthWindow) {
	for _, g := range windows {
		fmt.Fprintf(w, "%sgrowth %d-%d %s%% (%s)\n", indent, g.StartYear, g.EndYear, formatFloat(g.Rate), g.Source)
	}
}

func section(w io.Writer, title string, n int) bool {
	fmt.Fprintf(w, "\n[%s]\n", title)
	if n == 0 {
		fmt.Fprintln(w, "  (none)")
		return false
	}
	return true
}

// renderPlan 文本格式的生效视图
func renderPlan(w io.Writer, p service.EffectivePlan) {
	fmt.Fprintf(w, "scenario #%d %s\n", p.ScenarioID, p.ScenarioName)
	fmt.Fprintf(w, "plan #%d %s (creation_year %d)\n", p.PlanID, p.PlanName, p.CreationYear)

	a := p.Assumptions
	fmt.Fprintf(w, "\n[assumptions]\n")
	fmt.Fprintf(w, "  %s\n", newFieldLine(a.Overridden).
		add("nest_egg_growth_rate", formatFloat(a.NestEggGrowthRate)).
		add("inflation_rate", formatFloat(a.InflationRate)).
		add("annual_retirement_spending", a.AnnualRetirementSpending.String()))
	writeWindows(w, "  ", a.GrowthAdjustments)

	if section(w, "people", len(p.People)) {
		for _, x := range p.People {
			fmt.Fprintf(w, "  #%d %s %s %s\n", x.ID, x.FirstName, x.LastName, newFieldLine(x.Overridden).
				add("dob", x.DateOfBirth).
				add("retirement_age", strconv.Itoa(x.RetirementAge)).
				add("final_age", strconv.Itoa(x.FinalAge)))
		}
	}

	if section(w, "assets", len(p.Assets)) {
		for _, x := range p.Assets {
			fmt.Fprintf(w, "  #%d %s %s\n", x.ID, x.Name, newFieldLine(x.Overridden).
				add("value", x.Value.String()).
				add("independent_growth_rate", formatOptFloat(x.IndependentGrowthRate)).
				add("include_in_nest_egg", strconv.FormatBool(x.IncludeInNestEgg)).
				add("owners", formatIDs(x.OwnerIDs)))
			writeWindows(w, "    ", x.GrowthAdjustments)
		}
	}

	if section(w, "liabilities", len(p.Liabilities)) {
		for _, x := range p.Liabilities {
			fmt.Fprintf(w, "  #%d %s %s\n", x.ID, x.Name, newFieldLine(x.Overridden).
				add("value", x.Value.String()).
				add("interest_rate", formatFloat(x.InterestRate)).
				add("include_in_nest_egg", strconv.FormatBool(x.IncludeInNestEgg)))
		}
	}

	if section(w, "cash_flows", len(p.CashFlows)) {
		for _, x := range p.CashFlows {
			fmt.Fprintf(w, "  #%d %s %s %s\n", x.ID, x.Kind, x.Name, newFieldLine(x.Overridden).
				add("annual_amount", x.AnnualAmount.String()).
				add("start_year", strconv.Itoa(x.StartYear)).
				add("end_year", strconv.Itoa(x.EndYear)).
				add("apply_inflation", strconv.FormatBool(x.ApplyInflation)))
		}
	}

	if section(w, "retirement_income", len(p.RetirementIncome)) {
		for _, x := range p.RetirementIncome {
			fmt.Fprintf(w, "  #%d %s %s\n", x.ID, x.Name, newFieldLine(x.Overridden).
				add("annual_income", x.AnnualIncome.String()).
				add("start_age", strconv.Itoa(x.StartAge)).
				add("end_age", formatOptInt(x.EndAge)).
				add("apply_inflation", strconv.FormatBool(x.ApplyInflation)).
				add("include_in_nest_egg", strconv.FormatBool(x.IncludeInNestEgg)).
				add("owners", formatIDs(x.OwnerIDs)))
		}
	}
}
