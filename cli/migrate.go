package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewMigrateCommand 创建或升级表结构
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	var printTables bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "创建或升级数据库表结构",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			// 打开数据库时已完成迁移
			if !printTables {
				fmt.Fprintln(cmd.OutOrStdout(), "迁移完成")
				return nil
			}

			tables, err := e.store.Tables()
			if err != nil {
				return WrapExitError(ExitCommandError, "读取表清单失败", err)
			}
			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return out.Print(map[string][]string{"tables": tables}, func(w io.Writer) {
				for _, t := range tables {
					fmt.Fprintln(w, t)
				}
			})
		},
	}

	cmd.Flags().BoolVar(&printTables, "print", false, "输出迁移管理的表")
	return cmd
}
