package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"passage/config"
	"passage/gateway/middleware"
	"passage/gateway/routes"
	"passage/observability/logging"
	"passage/observability/otel"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, root)
		},
	}
}

func runServe(ctx context.Context, opts *rootOptions) error {
	n, err := openNode(opts)
	if err != nil {
		return err
	}
	defer n.Close()
	cfg := n.cfg

	shutdownTelemetry, err := otel.Init(ctx, otel.Config{
		ServiceName: cfg.Telemetry.ServiceName,
		Environment: cfg.Telemetry.Environment,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     otel.ParseHeaders(cfg.Telemetry.Headers),
		Traces:      cfg.Telemetry.Traces,
		Metrics:     cfg.Telemetry.Metrics,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			n.logger.Warn("telemetry shutdown", slog.String("error", err.Error()))
		}
	}()

	authCfg, err := authConfig(cfg.Gateway.JWT)
	if err != nil {
		return err
	}
	limit := middleware.RateLimit{RatePerSecond: cfg.Gateway.RateLimitPerSecond, Burst: cfg.Gateway.RateLimitBurst}
	handler, err := routes.New(routes.Config{
		Backend:       n.contract,
		Env:           routes.NewEnvSource(cfg.ChainID, cfg.Contract(), time.Now),
		Authenticator: middleware.NewAuthenticator(authCfg, n.logger),
		RateLimiter: middleware.NewRateLimiter(map[string]middleware.RateLimit{
			routes.RouteExecute: limit,
			routes.RouteQuery:   limit,
		}, n.logger),
		Observability: middleware.NewObservability(n.logger, true),
		Logger:        n.logger,
		ServiceName:   cfg.Telemetry.ServiceName,
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.Gateway.ListenAddress,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.Gateway.ReadTimeoutSecs) * time.Second,
		WriteTimeout:      time.Duration(cfg.Gateway.WriteTimeoutSecs) * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		n.logger.Info("gateway listening",
			slog.String("address", server.Addr),
			slog.Bool("auth", authCfg.Enabled),
			logging.MaskField("jwtSecret", authCfg.HMACSecret))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	n.logger.Info("gateway shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func authConfig(cfg config.JWT) (middleware.AuthConfig, error) {
	out := middleware.AuthConfig{Enabled: cfg.Enable, Issuer: cfg.Issuer, Audience: cfg.Audience}
	if !cfg.Enable {
		return out, nil
	}
	secret := strings.TrimSpace(os.Getenv(cfg.SecretEnv))
	if secret == "" {
		return out, fmt.Errorf("gateway.jwt: %s is not set", cfg.SecretEnv)
	}
	out.HMACSecret = secret
	return out, nil
}
