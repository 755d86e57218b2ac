package commands

import (
	"fmt"
	"os"

	"github.com/bryanchriswhite/ScaleShot/internal/capture"
	"github.com/bryanchriswhite/ScaleShot/internal/config"
	"github.com/bryanchriswhite/ScaleShot/internal/logger"
	"github.com/bryanchriswhite/ScaleShot/internal/output"
	"github.com/bryanchriswhite/ScaleShot/internal/screen"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "scaleshot",
		Short: "ScaleShot - DPI-aware screenshots in logical coordinates",
		Long: `ScaleShot captures regions of a display given in logical (scaled)
coordinates and returns them at full physical resolution.

Features:
  • Enumerate displays with logical and physical resolution
  • Detect the desktop DPI scale and any extra xrandr scaling
  • Capture logical regions as physical pixels
  • Save screenshots with size and scale in the file name
  • REST API and WebSocket display change feed`,
		SilenceUsage: true,
	}
)

// overrides maps persistent flags to the config keys they replace.
var overrides = map[string]string{
	"log-level":  "log_level",
	"backend":    "backend",
	"dpi-scale":  "dpi_scale",
	"pretty-log": "pretty_log",
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/scaleshot/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("backend", "", "capture backend (auto, x11, screenshot)")
	rootCmd.PersistentFlags().Float64("dpi-scale", 0, "force the DPI scale instead of probing the OS")
	rootCmd.PersistentFlags().Bool("pretty-log", true, "human readable log output")

	// Bind flags to viper
	for flag, key := range overrides {
		viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag))
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// loadConfig reads the config file, applies any explicitly set global flags
// for this run only, and initializes logging.
func loadConfig(cmd *cobra.Command) (*config.Manager, error) {
	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	for flag, key := range overrides {
		if !cmd.Flags().Changed(flag) {
			continue
		}
		if err := configMgr.Override(key, viper.Get(key)); err != nil {
			return nil, fmt.Errorf("invalid --%s: %w", flag, err)
		}
	}

	cfg := configMgr.Get()
	logger.Init(cfg.LogLevel, cfg.PrettyLog)
	logger.WithComponent("cli").Debug().
		Str("config", configMgr.GetConfigPath()).
		Str("backend", cfg.Backend).
		Float64("dpi_scale", cfg.DPIScale).
		Msg("Configuration loaded")

	return configMgr, nil
}

// session is an opened capture backend plus the displays it enumerated.
type session struct {
	config   *config.Config
	backend  *capture.Backend
	displays []*screen.DisplayCapture
}

func (s *session) Close() {
	s.backend.Close()
}

// screenOptions builds capture options from the output section.
func screenOptions(cfg *config.Config) screen.Options {
	return screen.Options{
		Writer:            output.FileWriter{JPEGQuality: cfg.Output.JPEGQuality},
		Format:            cfg.Output.Format,
		ResampleToLogical: cfg.Output.ResampleToLogical,
	}
}

// openSession loads configuration, opens the configured backend and
// enumerates displays.
func openSession(cmd *cobra.Command) (*session, error) {
	configMgr, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	cfg := configMgr.Get()

	backend, err := capture.Open(cfg.Backend, cfg.DPIScale)
	if err != nil {
		return nil, err
	}

	displays, err := screen.AllDisplays(backend.Enumerator, backend.Probe, backend.Capturer, screenOptions(cfg))
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &session{config: cfg, backend: backend, displays: displays}, nil
}
