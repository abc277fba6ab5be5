package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pedro199288/reelforge-sub004/internal/api"
	"github.com/pedro199288/reelforge-sub004/internal/cloud"
	"github.com/pedro199288/reelforge-sub004/internal/config"
	"github.com/pedro199288/reelforge-sub004/internal/db"
	"github.com/pedro199288/reelforge-sub004/internal/logging"
	"github.com/pedro199288/reelforge-sub004/internal/media"
	"github.com/pedro199288/reelforge-sub004/internal/playback"
	"github.com/pedro199288/reelforge-sub004/internal/project"
	"github.com/pedro199288/reelforge-sub004/internal/ui"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "reelforge",
		Short: "ReelForge agent: local timeline engine and export service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the agent (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("reelforge %s (commit %s, built %s)\n",
				config.Version, config.GitCommit, config.BuildTime)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.ExportDir(), 0755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting reelforge agent", "version", config.Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := project.NewRepository(database.Conn())

	deviceID, err := ensureDeviceID(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║                   REELFORGE AGENT v0.1.0                  ║")
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Device ID:  %-45s ║\n", deviceID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	projectSvc := project.NewService(repo, logger, cfg.FrameRate())
	playbackSvc := playback.NewServer(logger)

	var cloudClient cloud.Client
	if cfg.CloudEnabled() && cfg.CloudBaseURL() != "" && cfg.CloudToken() != "" {
		httpClient := cloud.NewHTTPClient(cfg.CloudBaseURL(), cfg.CloudToken(), cfg.CloudOrgSlug(), logger)
		httpClient.SetDeviceID(deviceID)
		cloudClient = httpClient
		logger.Info("cloud publishing enabled", "base_url", cfg.CloudBaseURL(), "org_slug", cfg.CloudOrgSlug())
	} else {
		cloudClient = cloud.NewStubClient(logger)
	}

	regCtx, regCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := cloudClient.RegisterDevice(regCtx, deviceID); err != nil {
		logger.Warn("device registration failed", "error", err)
	}
	regCancel()

	mediaCfg := media.DefaultConfig(cfg.DataDir(), logger)
	if p := cfg.FFmpegPath(); p != "" {
		mediaCfg.FFmpegPath = p
	}
	if p := cfg.FFprobePath(); p != "" {
		mediaCfg.FFprobePath = p
	}
	mediaCfg.ProbeTimeout = cfg.ProbeTimeout()
	mediaCfg.ThumbnailTimeout = cfg.ThumbnailTimeout()

	var mediaRunner media.Runner
	var doctor *media.CachedDoctor

	mr, err := media.NewRunner(mediaCfg)
	if err != nil {
		logger.Warn("media tools unavailable, probing disabled", "error", err)
	} else {
		mediaRunner = mr
		doctor = media.NewCachedDoctor(mr, logger)

		initCtx, initCancel := context.WithTimeout(context.Background(), mediaCfg.ProbeTimeout)
		if caps, err := doctor.Refresh(initCtx); err != nil {
			logger.Warn("initial media doctor probe failed", "error", err)
		} else {
			logger.Info("media capabilities detected",
				"probe", caps.HasProbe,
				"thumbnails", caps.HasThumbnails,
				"ffmpeg", caps.FFmpeg.Version,
			)
		}
		initCancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := project.NewRunner(projectSvc, repo, mediaRunner, doctor, cfg.ExportDir(), logger)
	go runner.Start(ctx)

	apiServer := api.NewServer(api.ServerConfig{
		Port:           cfg.Port(),
		ProjectService: projectSvc,
		PlaybackServer: playbackSvc,
		Repository:     repo,
		Runner:         runner,
		Doctor:         doctor,
		CloudClient:    cloudClient,
		Logger:         logger,
		StartTime:      startTime,
		DeviceID:       deviceID,
		Version:        config.Version,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			ProjectService: projectSvc,
			Runner:         runner,
			Logger:         logger,
			OnOpenEditor: func() error {
				logger.Info("open editor requested from tray (browser launch not implemented in v0)")
				return nil
			},
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func ensureDeviceID(repo project.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "device_id")
	if err == nil && existing != "" {
		return existing, nil
	}

	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return "", err
	}
	deviceID := hex.EncodeToString(idBytes)

	if err := repo.SetConfig(ctx, "device_id", deviceID); err != nil {
		return "", err
	}

	return deviceID, nil
}

func ensureAuthToken(repo project.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, "auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}
