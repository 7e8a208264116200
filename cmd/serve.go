package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ProjectApnapan/apnapan-pulse/internal/api"
	"github.com/ProjectApnapan/apnapan-pulse/internal/auth"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		accounts, feedback, err := initAccounts(ctx, st)
		if err != nil {
			return err
		}

		sessions, closeSessions, err := initSessions(ctx, cfg.Session)
		if err != nil {
			return err
		}
		defer closeSessions()

		tokens, err := auth.NewIssuer(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
		if err != nil {
			return err
		}

		handler := api.New(api.Deps{
			Accounts: accounts,
			Files:    st,
			Feedback: feedback,
			Sessions: sessions,
			Tokens:   tokens,
			Pipeline: newPipeline(cfg.Survey),
		}, api.Options{
			AllowedOrigins:     cfg.Server.AllowedOrigins,
			MaxUploadBytes:     int64(cfg.Server.MaxUploadMB) << 20,
			LoginRatePerMinute: cfg.Auth.LoginRatePerMinute,
			ReportTitle:        cfg.Report.Title,
			BrandLogo:          brandLogo(cfg.Report.LogoPath),
		}).Router()

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server",
			zap.Int("port", cfg.Server.Port),
			zap.String("store", cfg.Store.Driver),
			zap.String("accounts", cfg.Accounts.Backend),
			zap.String("sessions", cfg.Session.Backend),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
