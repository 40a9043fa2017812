package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"fipli/service"
)

// validateResult 完整性检查输出
type validateResult struct {
	Errors   int                      `json:"errors" yaml:"errors"`
	Warnings int                      `json:"warnings" yaml:"warnings"`
	Issues   []service.IntegrityIssue `json:"issues" yaml:"issues"`
}

// NewValidateCommand 检查库中数据的一致性，有错误时退出码为 1
func NewValidateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "检查数据库的结构、关联和业务规则",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			report, err := e.svc.CheckIntegrity(cmd.Context())
			if err != nil {
				return WrapExitError(ExitCommandError, "完整性检查失败", err)
			}
			result := validateResult{
				Errors:   report.Errors(),
				Warnings: report.Warnings(),
				Issues:   report.Issues,
			}
			if result.Issues == nil {
				result.Issues = []service.IntegrityIssue{}
			}

			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			if err := out.Print(result, func(w io.Writer) { renderReport(w, result) }); err != nil {
				return err
			}
			if result.Errors > 0 {
				return NewExitError(ExitFailure, fmt.Sprintf("完整性检查发现 %d 个错误", result.Errors))
			}
			return nil
		},
	}
}

func renderReport(w io.Writer, r validateResult) {
	if len(r.Issues) == 0 {
		fmt.Fprintln(w, "未发现问题")
		return
	}
	for _, i := range r.Issues {
		fmt.Fprintf(w, "%-7s %-13s %s #%d: %s\n", i.Severity, i.Check, i.Entity, i.ID, i.Message)
	}
	fmt.Fprintf(w, "\n%d 个错误，%d 个警告\n", r.Errors, r.Warnings)
}
