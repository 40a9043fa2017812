package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fipli/export"
)

// NewExportCommand 把情景的生效视图导出为 Excel
func NewExportCommand(opts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <scenario-id>",
		Short: "导出情景生效视图为 xlsx",
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

			if output == "" {
				output = export.FileName(plan)
			}
			f, err := os.Create(output)
			if err != nil {
				return WrapExitError(ExitFailure, "创建文件失败", err)
			}
			if err := export.Write(f, plan); err != nil {
				f.Close()
				return WrapExitError(ExitFailure, "导出失败", err)
			}
			if err := f.Close(); err != nil {
				return WrapExitError(ExitFailure, "写入文件失败", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "输出文件，缺省为 scenario_<id>_<名称>.xlsx")
	return cmd
}
