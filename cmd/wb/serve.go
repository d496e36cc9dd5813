package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"wbtracker/internal/app"
	"wbtracker/internal/cycle"
	"wbtracker/internal/domain"
	"wbtracker/internal/gateway"
	"wbtracker/internal/logging"
	"wbtracker/internal/server"
)

// offlinePlatform stands in for the chat platform when no gateway is
// configured: cycle messages are logged and voice channels look empty.
type offlinePlatform struct{ log *zap.Logger }

func (p offlinePlatform) Send(_ context.Context, channelID, text string) error {
	p.log.Info("offline send", zap.String("channel", channelID), zap.Int("bytes", len(text)))
	return nil
}

func (p offlinePlatform) VoiceMembers(context.Context, string) ([]domain.Reporter, error) {
	return nil, nil
}

func (p offlinePlatform) MoveMember(context.Context, string, string) error { return nil }

func serveCmd() *cobra.Command {
	var noJournal, noAPI bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat gateway, the event cycle and the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			workspace := viper.GetString("workspace")
			cfg, err := app.LoadConfig(workspace, viper.GetString("config"))
			if err != nil {
				return err
			}
			log, err := logging.New(setting(cmd, "log-level", cfg.Log.Level), cfg.Log.JSON)
			if err != nil {
				return err
			}
			defer log.Sync()

			rt, err := app.Open(ctx, workspace, app.Options{
				ConfigPath: viper.GetString("config"),
				Journal:    !noJournal,
				Log:        log,
			})
			if err != nil {
				return err
			}
			defer rt.Close()
			e := rt.Engine

			var wg sync.WaitGroup
			errs := make(chan error, 3)
			run := func(name string, fn func() error) {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if err := fn(); err != nil {
						errs <- fmt.Errorf("%s: %w", name, err)
						stop()
					}
				}()
			}

			var platform cycle.Platform = offlinePlatform{log: log}
			if url := setting(cmd, "gateway-url", cfg.Gateway.URL); url != "" {
				gw := gateway.New(url, setting(cmd, "gateway-token", cfg.Gateway.Token), e, log)
				platform = gw
				run("gateway", func() error { return gw.Run(ctx) })
			} else {
				log.Warn("no gateway url configured; chat reports only arrive through the API")
			}

			runner := cycle.New(e, platform, log)
			run("cycle", func() error { return runner.Start(ctx) })

			if !noAPI {
				secret := setting(cmd, "jwt-secret", cfg.API.JWTSecret)
				if secret == "" {
					log.Warn("no jwt secret configured; admin routes will reject every request")
				}
				basePath := setting(cmd, "base-path", cfg.API.BasePath)
				handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: server.AuthConfig{JWTSecret: secret}, Log: log})
				if err != nil {
					return err
				}
				addr := setting(cmd, "addr", cfg.API.Addr)
				srv := &http.Server{Addr: addr, Handler: handler}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				log.Info("serving API", zap.String("addr", addr), zap.String("base_path", basePath))
				run("api", func() error {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						return err
					}
					return nil
				})
			}

			wg.Wait()
			close(errs)
			var all []error
			for err := range errs {
				all = append(all, err)
			}
			log.Info("shutdown complete")
			return errors.Join(all...)
		},
	}
	cmd.Flags().String("addr", "", "API listen address (default api.addr)")
	cmd.Flags().String("base-path", "", "API base path (default api.base_path)")
	cmd.Flags().String("jwt-secret", "", "HS256 secret for admin tokens")
	cmd.Flags().String("gateway-url", "", "platform bridge websocket url")
	cmd.Flags().String("gateway-token", "", "platform bridge token")
	cmd.Flags().BoolVar(&noJournal, "no-journal", false, "do not journal report outcomes")
	cmd.Flags().BoolVar(&noAPI, "no-api", false, "do not start the HTTP API")
	return cmd
}
