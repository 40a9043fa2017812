// Package cli 实现 fipli 命令行：服务、迁移、完整性检查、情景查看和导出。
package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"fipli/config"
	"fipli/database"
	"fipli/logging"
	"fipli/service"
)

// Version 构建时通过 -ldflags 注入
var Version = "dev"

// RootOptions 全局参数
type RootOptions struct {
	ConfigPath string
	DBPath     string
	Format     string // text | json | yaml
}

// ValidFormats 支持的输出格式
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand 创建根命令
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "fipli",
		Short:         "家庭财务计划与情景管理",
		Long:          "fipli 保存家庭的财务计划数据，并按情景覆盖解析出生效视图。",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("无效的输出格式 %q，可选 %s", opts.Format, strings.Join(ValidFormats, "|")))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "外部配置文件路径（可选）")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "SQLite 数据库路径，覆盖 database.path")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "输出格式 (text|json|yaml)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewScenarioCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// env 一次命令执行所需的配置、日志和存储
type env struct {
	cfg   *config.Config
	log   *slog.Logger
	store *database.Store
	svc   *service.Service
}

func (e *env) Close() {
	if e.store != nil {
		e.store.Close()
	}
}

// openEnv 加载配置、初始化日志并打开数据库（会执行自动迁移）。日志写到 stderr。
func openEnv(opts *RootOptions, cmd *cobra.Command) (*env, error) {
	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "加载配置失败", err)
	}
	if opts.DBPath != "" {
		cfg.Database.Driver = config.DriverSQLite
		cfg.Database.Path = opts.DBPath
	}
	log := logging.Setup(cmd.ErrOrStderr(), cfg.Log)

	store, err := database.Open(cfg.Database, log)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "数据库初始化失败", err)
	}
	return &env{
		cfg:   cfg,
		log:   log,
		store: store,
		svc:   service.New(store, service.WithLogger(log)),
	}, nil
}
