// Package main serves the HTTP API from Lambda behind an API Gateway HTTP
// API (payload format 2.0).
//
// Batch runs are driven by the batch Lambda's schedule, so POST
// /api/batch/run answers 503 here.
package main

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/rs/zerolog/log"

	"github.com/fpang/pitch-scorer/internal/api"
	"github.com/fpang/pitch-scorer/internal/app"
	"github.com/fpang/pitch-scorer/internal/config"
	"github.com/fpang/pitch-scorer/internal/lambdaboot"
	"github.com/fpang/pitch-scorer/internal/logging"
)

func main() {
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

	handler := api.NewServer(api.Options{
		Source:     a.Source,
		Pipeline:   a.Pipeline,
		Results:    a.Results,
		Checkpoint: a.Checkpoint,
		CORSOrigin: cfg.Server.CORSOrigin,
		// API Gateway handles compression.
		Gzip: false,
	}).Handler()

	lambdaboot.StartupLog("api-lambda", initStart).
		Resource("cache", a.Cache.Name()).
		Resource("sheetTab", cfg.Sheet.Tab).
		SSMParam("geminiKey", cfg.Gemini.APIKeySSMParam).
		SSMParam("googleCredentials", cfg.Google.CredentialsSSMParam).
		Config("corsOrigin", cfg.Server.CORSOrigin).
		Log()

	adapter := httpadapter.NewV2(handler)
	lambda.Start(adapter.ProxyWithContext)
}
