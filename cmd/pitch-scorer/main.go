// Command pitch-scorer scores startup pitch videos submitted through the
// application form. It can run the HTTP front-end with the nightly batch
// scheduler, run a batch pass once, score a single application, and inspect
// cached results and the batch checkpoint.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/pitch-scorer/internal/config"
	"github.com/fpang/pitch-scorer/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	configFlag   string
	logLevelFlag string
	jsonFlag     bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "pitch-scorer",
	Short: "Score startup pitch videos against behavior and skill rubrics",
	Long: `Pitch Scorer reads applications from the application form's Google Sheet,
transcribes each pitch video with Gemini and scores the transcript against
fixed behavior and skill rubrics. Results are cached in S3 or on disk, and a
nightly batch picks up new applications from a persisted checkpoint.

Configuration comes from pitch-scorer.yaml, a .env file and PITCH_*
environment variables.

Examples:
  pitch-scorer serve --port 8080
  pitch-scorer batch
  pitch-scorer score 104
  pitch-scorer results 104 --type skill
  pitch-scorer checkpoint get
  pitch-scorer checkpoint set 103`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFlag)
		if err != nil {
			return err
		}
		level := cfg.Log.Level
		if logLevelFlag != "" {
			level = logLevelFlag
		}
		logging.Init(level, cfg.Log.Console)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Config file (default: ./pitch-scorer.yaml or ./configs/pitch-scorer.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Print JSON instead of tables")

	rootCmd.AddCommand(serveCmd, batchCmd, scoreCmd, resultsCmd, checkpointCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
