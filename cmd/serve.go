package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nestlock/nestlock/internal/api"
	"github.com/nestlock/nestlock/internal/audit"
	"github.com/nestlock/nestlock/internal/config"
	"github.com/nestlock/nestlock/internal/engine"
	"github.com/nestlock/nestlock/internal/marketplace"
	"github.com/nestlock/nestlock/internal/service"
	"github.com/nestlock/nestlock/internal/store"
	"github.com/nestlock/nestlock/internal/tasks"
	"github.com/nestlock/nestlock/internal/ttlock"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the nestlock server",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if addr == "" {
			addr = cfg.Server.Addr
		}
		if addr == "" {
			addr = ":8080"
		}

		log.Info().Msg("Initializing lock vendor client...")
		vendor := ttlock.New(ttlock.Config{
			BaseURL:      cfg.TTLock.BaseURL,
			ClientID:     cfg.TTLock.ClientID,
			ClientSecret: cfg.TTLock.ClientSecret,
			Username:     cfg.TTLock.Username,
			Password:     cfg.TTLock.Password,
			Timeout:      cfg.TTLock.Timeout,
			CacheTTL:     cfg.TTLock.CacheTTL,
		})

		transactions := marketplace.New(marketplace.Config{
			BaseURL:  cfg.Marketplace.BaseURL,
			APIToken: cfg.Marketplace.APIToken,
			Timeout:  cfg.Marketplace.Timeout,
		})

		grantStore, err := store.Open(cfg.Store)
		if err != nil {
			return fmt.Errorf("opening grant store: %w", err)
		}
		defer func() {
			_ = grantStore.Close()
		}()

		auditor, err := audit.Open(cfg.Audit)
		if err != nil {
			return fmt.Errorf("opening auditor: %w", err)
		}
		defer func() {
			_ = auditor.Close()
		}()

		policy, err := engine.New(cfg.Rules)
		if err != nil {
			return fmt.Errorf("compiling issuance rules: %w", err)
		}

		grants := service.NewGrantService(vendor)
		recorder := service.NewRecorder(transactions, grants, grantStore, auditor, policy)

		taskManager := tasks.NewManager()
		taskManager.Register(service.SweepTaskName, cfg.Sweep.Interval,
			service.NewSweepTask(grants, grantStore, auditor, cfg.Sweep.Retention))

		srv := api.NewServer(recorder, taskManager, auditor, grantStore)

		server := &http.Server{
			Addr:    addr,
			Handler: srv.Routes([]byte(cfg.Server.AdminSigningKey)),
		}

		go func() {
			log.Info().Msgf("Starting server on %s...", addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("Server crashed")
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info().Msg("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		log.Info().Msg("Server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "address to listen on (overrides config)")
}
