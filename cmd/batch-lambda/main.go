// Package main provides the Lambda entry point for the nightly batch.
//
// An EventBridge schedule rule invokes this function once a day. Each
// invocation runs one incremental batch pass and returns the run report.
// A source read failure fails the invocation so the schedule's alarm fires;
// per-application failures are only reported.
package main

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/fpang/pitch-scorer/internal/app"
	"github.com/fpang/pitch-scorer/internal/apperr"
	"github.com/fpang/pitch-scorer/internal/batch"
	"github.com/fpang/pitch-scorer/internal/config"
	"github.com/fpang/pitch-scorer/internal/lambdaboot"
	"github.com/fpang/pitch-scorer/internal/logging"
)

var processor *batch.Processor

func init() {
	initStart := time.Now()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.Log.Level, false)

	a, err := app.Build(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build service graph")
	}
	processor = a.Batch

	lambdaboot.StartupLog("batch-lambda", initStart).
		Resource("cache", a.Cache.Name()).
		Resource("sheetTab", cfg.Sheet.Tab).
		Resource("eventBus", cfg.Events.BusName).
		SSMParam("geminiKey", cfg.Gemini.APIKeySSMParam).
		SSMParam("googleCredentials", cfg.Google.CredentialsSSMParam).
		Feature("events", cfg.Events.BusName != "").
		Config("model", cfg.Gemini.Model).
		Log()
}

func handler(ctx context.Context) (batch.Report, error) {
	rep := processor.Run(ctx)
	if rep.SourceError != "" {
		return rep, apperr.Mark(apperr.Newf("batch %s: %s", rep.RunID, rep.SourceError), apperr.ErrSourceUnavailable)
	}
	return rep, nil
}

func main() {
	lambda.Start(handler)
}
