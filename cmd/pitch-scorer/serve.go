package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/pitch-scorer/internal/api"
	"github.com/fpang/pitch-scorer/internal/app"
	"github.com/fpang/pitch-scorer/internal/lambdaboot"
)

var portFlag int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the nightly batch scheduler",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (default from server.port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	initStart := time.Now()
	ctx := cmd.Context()

	a, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}

	var sched api.Scheduler
	if cfg.Schedule.Enabled {
		release, err := acquireLock(cfg.LockFile)
		if err != nil {
			return err
		}
		defer release()

		a.Scheduler.Start()
		defer a.Scheduler.Stop()
		sched = a.Scheduler
	}

	port := cfg.Server.Port
	if portFlag != 0 {
		port = portFlag
	}
	srv := &http.Server{
		Addr: ":" + strconv.Itoa(port),
		Handler: api.NewServer(api.Options{
			Source:     a.Source,
			Pipeline:   a.Pipeline,
			Results:    a.Results,
			Checkpoint: a.Checkpoint,
			Scheduler:  sched,
			Version:    version,
			CORSOrigin: cfg.Server.CORSOrigin,
			Gzip:       cfg.Server.EnableGzip,
		}).Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("HTTP shutdown did not complete")
		}
	}()

	lambdaboot.StartupLog("serve", initStart).
		Version(version).
		Resource("cache", a.Cache.Name()).
		Resource("sheetTab", cfg.Sheet.Tab).
		Resource("eventBus", cfg.Events.BusName).
		Resource("mediaWorkDir", cfg.Media.WorkDir).
		SSMParam("geminiKey", cfg.Gemini.APIKeySSMParam).
		SSMParam("googleCredentials", cfg.Google.CredentialsSSMParam).
		Feature("scheduler", cfg.Schedule.Enabled).
		Feature("events", cfg.Events.BusName != "").
		Feature("gzip", cfg.Server.EnableGzip).
		Config("schedule", fmt.Sprintf("%02d:%02d %s", cfg.Schedule.Hour, cfg.Schedule.Minute, cfg.Schedule.Location)).
		Config("model", cfg.Gemini.Model).
		Config("port", strconv.Itoa(port)).
		Log()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
