// Hotpot is a kitchen timer for hotpot: stage ingredients on the plate,
// drop them in the pot, and get told when each one is ready.
//
// Usage:
//
//	hotpot [run]              interactive kitchen
//	hotpot cook <name>...     cook from the shell
//	hotpot catalog|plate|admin
package main

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hammamikhairi/hotpot/internal/config"
	"github.com/hammamikhairi/hotpot/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "hotpot",
	Short: "Hotpot kitchen timer",
	Long: `Hotpot keeps track of what is cooking in the pot.

- Plate: ingredients waiting to go in. The plate survives restarts.
- Pot: what is cooking right now. Each item counts down on its own.
- Tap a plate item once to start it. Tap twice quickly to start a copy
  and keep the original on the plate.
- Tap a ready pot item to eat it. Double-tap an unfinished one to fish
  it back out onto the plate.
- Tap the title three times to open the admin panel.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return cfgErr
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runKitchen(cmd.Context())
	},
}

var (
	cfg     = config.Default()
	cfgErr  error
	cfgFile string
	v       = config.NewViper()
)

func main() {
	_ = godotenv.Load()

	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

// initConfig layers the config file, then HOTPOT_* variables and flags,
// over the defaults.
func initConfig() {
	cfg = config.Default()

	path := cfgFile
	if path == "" {
		if _, err := os.Stat(config.DefaultFile); err == nil {
			path = config.DefaultFile
		}
	}
	if path != "" {
		if err := config.LoadFile(path, &cfg); err != nil {
			cfgErr = err
			return
		}
	}

	config.ApplyViper(v, &cfg)
	cfgErr = cfg.Validate()
}

func addPersistentFlags() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file (default ./"+config.DefaultFile+" when present)")
	pf.String("data-dir", cfg.DataDir, "directory for the plate, catalog and settings")
	pf.String("store", cfg.Store, "storage backend: memory, file or sqlite")
	pf.String("log-level", cfg.LogLevel, "log level: off, info or debug")
	pf.String("log-file", cfg.LogFile, `file to write logs to (use "stderr" to log to console)`)
	pf.Bool("sound", cfg.Sound, "play tones for kitchen events")
	pf.Bool("speech", cfg.Speech, "speak announcements (needs Azure speech keys)")
	_ = v.BindPFlag("data_dir", pf.Lookup("data-dir"))
	_ = v.BindPFlag("store", pf.Lookup("store"))
	_ = v.BindPFlag("log_level", pf.Lookup("log-level"))
	_ = v.BindPFlag("log_file", pf.Lookup("log-file"))
	_ = v.BindPFlag("sound", pf.Lookup("sound"))
	_ = v.BindPFlag("speech", pf.Lookup("speech"))
}

func registerCommands() {
	run := runCmd()
	run.Flags().Bool("voice", cfg.Voice, "enable push-to-talk voice input via local Whisper")
	run.Flags().String("whisper-bin", cfg.WhisperBin, "path to the whisper-cpp CLI binary")
	run.Flags().String("whisper-model", cfg.WhisperModel, "path to the Whisper GGML model file")
	_ = v.BindPFlag("voice", run.Flags().Lookup("voice"))
	_ = v.BindPFlag("whisper_bin", run.Flags().Lookup("whisper-bin"))
	_ = v.BindPFlag("whisper_model", run.Flags().Lookup("whisper-model"))

	rootCmd.AddCommand(run)
	rootCmd.AddCommand(cookCmd())
	rootCmd.AddCommand(catalogCmd())
	rootCmd.AddCommand(plateCmd())
	rootCmd.AddCommand(adminCmd())
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Open the interactive kitchen (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKitchen(cmd.Context())
		},
	}
}

// openLog directs logs to the configured file so the terminal stays
// clean. Go's default log package, used by the whisper transcriber,
// goes to the same place.
func openLog(c config.Config) (*logger.Logger, func()) {
	var out io.Writer = os.Stderr
	closeFn := func() {}

	if c.LogFile != "" && c.LogFile != "stderr" {
		if dir := filepath.Dir(c.LogFile); dir != "" && dir != "." {
			_ = os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", c.LogFile, err)
		} else {
			out = f
			closeFn = func() { _ = f.Close() }
		}
	}

	stdlog.SetOutput(out)
	stdlog.SetFlags(stdlog.Ltime)
	return logger.New(c.Level(), out), closeFn
}
