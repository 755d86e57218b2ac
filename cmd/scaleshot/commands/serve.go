package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bryanchriswhite/ScaleShot/internal/api"
	"github.com/bryanchriswhite/ScaleShot/internal/capture"
	"github.com/bryanchriswhite/ScaleShot/internal/display"
	"github.com/bryanchriswhite/ScaleShot/internal/logger"
	"github.com/bryanchriswhite/ScaleShot/internal/screen"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ScaleShot HTTP server",
	Long: `Start the ScaleShot HTTP server.

The server exposes display enumeration and logical-region capture over a
REST API. On X11 it also pushes the display list over a WebSocket whenever
the RandR configuration changes.`,
	Example: `  # Start server on default port (8080)
  scaleshot serve

  # Start server on custom port
  scaleshot serve --port 9090

  # Start with debug logging
  scaleshot serve --log-level debug`,
	RunE: runServe,
}

var servePort int

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config, 8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Println("🎯 ScaleShot - DPI-aware screenshots")
	fmt.Println("====================================")

	configMgr, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		if err := configMgr.Override("server_port", servePort); err != nil {
			return fmt.Errorf("invalid --port: %w", err)
		}
	}

	log := logger.WithComponent("serve")
	cfg := configMgr.Get()
	log.Info().Str("path", configMgr.GetConfigPath()).Msg("Configuration loaded")

	backend, err := capture.Open(cfg.Backend, cfg.DPIScale)
	if err != nil {
		return fmt.Errorf("failed to open capture backend: %w", err)
	}
	defer backend.Close()

	// Enumerate once up front so a broken setup fails at startup.
	lister := func() ([]*screen.DisplayCapture, error) {
		cfg := configMgr.Get()
		return screen.AllDisplays(backend.Enumerator, backend.Probe, backend.Capturer, screenOptions(cfg))
	}
	displays, err := lister()
	if err != nil {
		return err
	}
	log.Info().Int("displays", len(displays)).Str("backend", backend.Name).Msg("Displays enumerated")

	var changes api.ChangeNotifier
	if backend.Name == capture.BackendX11 {
		watcher, err := display.NewWatcher()
		if err != nil {
			log.Warn().Err(err).Msg("Display change feed unavailable")
		} else if err := watcher.Start(); err != nil {
			log.Warn().Err(err).Msg("Display change feed unavailable")
			watcher.Stop()
		} else {
			defer watcher.Stop()
			changes = watcher
		}
	}

	server := api.NewServer(lister, configMgr, changes)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(cfg.ServerPort)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	fmt.Println()
	log.Info().Msg("✅ ScaleShot is running!")
	log.Info().Msgf("   - API: http://localhost:%d/api", cfg.ServerPort)
	log.Info().Msgf("   - Display feed: ws://localhost:%d/api/displays/stream", cfg.ServerPort)
	log.Info().Msg("   - Press Ctrl+C to stop")
	fmt.Println()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-sigChan:
	}

	fmt.Println()
	log.Info().Msg("Shutting down gracefully...")
	return nil
}
