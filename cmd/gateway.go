package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"skypeconnector/pkg/backend"
	"skypeconnector/pkg/channel/skype"
	"skypeconnector/pkg/config"
	"skypeconnector/pkg/digester"
	"skypeconnector/pkg/gateway"
	"skypeconnector/pkg/lang"
	"skypeconnector/pkg/logger"
	"skypeconnector/pkg/session"

	"github.com/spf13/cobra"
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Run the Skype webhook gateway",
	Long:  "Serves the Bot Framework messaging endpoint, forwards user turns to the backend, and replies with rendered answers.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = args

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("failed to load config: %v\n", err)
			return
		}

		appLogger, err := logger.New(cfg.Logging)
		if err != nil {
			fmt.Printf("failed to initialize logger: %v\n", err)
			return
		}
		slog.SetDefault(appLogger)
		log := slog.Default().With("component", "cmd.gateway")

		deps, err := buildDependencies(cfg, log)
		if err != nil {
			log.Error("Gateway configuration invalid", "error", err)
			return
		}
		defer func() {
			if err := deps.Sessions.Close(); err != nil {
				log.Warn("Failed to close session store", "error", err)
			}
		}()

		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, err := gateway.NewService(cfg, deps, log)
		if err != nil {
			log.Error("Failed to initialize gateway service", "error", err)
			return
		}

		log.Info("Gateway started", "backend", cfg.Backend.BaseURL, "language", cfg.Lang.Language, "session_driver", sessionDriverName(cfg.Session))
		if err := svc.Run(runCtx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Error("Gateway runtime failed", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(gatewayCmd)
}

// buildDependencies constructs every collaborator the gateway needs from cfg.
func buildDependencies(cfg *config.Config, log *slog.Logger) (gateway.Dependencies, error) {
	translations, err := lang.New(cfg.Lang)
	if err != nil {
		return gateway.Dependencies{}, fmt.Errorf("load translations: %w", err)
	}

	backendClient, err := backend.New(cfg.Backend, log)
	if err != nil {
		return gateway.Dependencies{}, fmt.Errorf("configure backend: %w", err)
	}

	skypeClient, err := skype.NewClient(cfg.Skype, log)
	if err != nil {
		return gateway.Dependencies{}, fmt.Errorf("configure skype channel: %w", err)
	}

	sessions, err := session.New(cfg.Session)
	if err != nil {
		return gateway.Dependencies{}, fmt.Errorf("configure sessions: %w", err)
	}

	return gateway.Dependencies{
		Digester: digester.New(cfg.Digester, translations, log),
		Backend:  backendClient,
		Channel:  skypeClient,
		Sessions: sessions,
		Lang:     translations,
	}, nil
}

func sessionDriverName(cfg config.SessionConfig) string {
	if cfg.Driver == "" {
		return session.DriverMemory
	}
	return cfg.Driver
}
