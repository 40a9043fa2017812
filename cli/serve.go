package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"fipli/config"
	"fipli/router"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand 启动 HTTP 服务
func NewServeCommand(opts *RootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP API 服务",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			if port != "" {
				if !strings.HasPrefix(port, ":") {
					port = ":" + port
				}
				e.cfg.Server.Port = port
			}
			config.PrintConfig()

			srv := &http.Server{
				Addr:              e.cfg.Server.Port,
				Handler:           router.SetupRouter(e.cfg, e.svc, e.log),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				e.log.Info("服务已启动", "addr", srv.Addr, "api", "/api/v1/")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return WrapExitError(ExitCommandError, "服务器启动失败", err)
				}
				return nil
			case <-ctx.Done():
			}

			e.log.Info("正在关闭服务")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return WrapExitError(ExitFailure, "服务关闭失败", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "监听端口，如 8080 或 :8080")
	return cmd
}
