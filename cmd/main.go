package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"shotwell-facedetect/config"
	dbusapi "shotwell-facedetect/internal/api"
	"shotwell-facedetect/internal/container"
	"shotwell-facedetect/internal/infrastructure/bus"
	"shotwell-facedetect/internal/infrastructure/storage"
	"shotwell-facedetect/internal/infrastructure/vision"
)

func main() {
	// SIGINT/SIGTERM останавливают цикл так же, как потеря имени
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		address string
		debug   bool
	)

	cmd := &cobra.Command{
		Use:          "shotwell-facedetect",
		Short:        "Shotwell face detection helper service",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cmd.Flags().Changed("address") {
				cfg.Address = address
			}
			if debug {
				cfg.Debug = true
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			return run(cmd.Context(), cfg, newLogger(cfg.Debug))
		},
	}

	cmd.Flags().StringVarP(&address, "address", "a", "", "Use private DBus ADDRESS instead of session")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	return cmd
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	endpoint, err := bus.NewEndpoint(bus.Options{
		Address:        cfg.Address,
		RedialInterval: cfg.RedialInterval,
		ReplyMember:    dbusapi.TerminateMember,
	}, bus.NewSameUserAuthorizer(logger), logger)
	if err != nil {
		return fmt.Errorf("invalid address: %w", err)
	}

	visionCfg := vision.DefaultConfig()
	visionCfg.CascadeDir = cfg.CascadeDir
	visionCfg.MinNeighbors = cfg.MinNeighbors
	visionCfg.MinFaceSize = cfg.MinFaceSize
	detector := vision.NewDetector(visionCfg, logger)

	app := container.New(endpoint, detector, storage.NewMemoryModelRegistry(), cfg.AckTimeout, logger)

	logger.Info("service starting", "mode", endpoint.Mode().String(), "backend", vision.Backend)
	return app.Run(ctx)
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
