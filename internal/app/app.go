// Package app wires configuration into the service graph. Every collaborator
// is constructed here and injected; nothing below this package reaches for
// process-wide clients.
package app

import (
	"context"
	"os"

	"github.com/spf13/afero"
	"google.golang.org/api/option"

	"github.com/fpang/pitch-scorer/internal/apperr"
	"github.com/fpang/pitch-scorer/internal/batch"
	"github.com/fpang/pitch-scorer/internal/checkpoint"
	"github.com/fpang/pitch-scorer/internal/config"
	"github.com/fpang/pitch-scorer/internal/events"
	"github.com/fpang/pitch-scorer/internal/gemini"
	"github.com/fpang/pitch-scorer/internal/lambdaboot"
	"github.com/fpang/pitch-scorer/internal/media"
	"github.com/fpang/pitch-scorer/internal/metrics"
	"github.com/fpang/pitch-scorer/internal/objcache"
	"github.com/fpang/pitch-scorer/internal/pipeline"
	"github.com/fpang/pitch-scorer/internal/results"
	"github.com/fpang/pitch-scorer/internal/scheduler"
	"github.com/fpang/pitch-scorer/internal/scoring"
	"github.com/fpang/pitch-scorer/internal/sheets"
	"github.com/fpang/pitch-scorer/internal/transcribe"
)

// Storage is the cache-backed part of the graph. Commands that only read
// or edit cached state need nothing else.
type Storage struct {
	Cache       objcache.Store
	Results     *results.Store
	Transcripts *transcribe.Cache
	Checkpoint  *checkpoint.Tracker

	aws *lambdaboot.AWSClients
}

// App is the full service graph.
type App struct {
	*Storage

	Config    *config.Config
	Source    sheets.Reader
	Pipeline  *pipeline.Runner
	Batch     *batch.Processor
	Scheduler *scheduler.Scheduler
}

// OpenStorage builds the object cache and the stores on top of it.
func OpenStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	s := &Storage{}
	switch cfg.Cache.Backend {
	case "s3":
		clients, err := s.awsClients(ctx)
		if err != nil {
			return nil, err
		}
		s.Cache = objcache.NewS3Store(clients.S3, cfg.Cache.Bucket, cfg.Cache.Prefix)
	default:
		s.Cache = objcache.NewFileStore(afero.NewOsFs(), cfg.Cache.LocalDir)
	}
	s.Results = results.New(s.Cache)
	s.Transcripts = transcribe.NewCache(s.Cache)
	s.Checkpoint = checkpoint.New(s.Cache)
	return s, nil
}

func (s *Storage) awsClients(ctx context.Context) (lambdaboot.AWSClients, error) {
	if s.aws == nil {
		c, err := lambdaboot.LoadAWS(ctx)
		if err != nil {
			return lambdaboot.AWSClients{}, err
		}
		s.aws = &c
	}
	return *s.aws, nil
}

func (s *Storage) secret(ctx context.Context, value, param string) (string, error) {
	if value != "" || param == "" {
		return value, nil
	}
	clients, err := s.awsClients(ctx)
	if err != nil {
		return "", err
	}
	return lambdaboot.LoadSecret(ctx, clients.SSM, param)
}

// Build constructs the full graph. The scheduler is created but not started.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	configureMetrics(cfg)

	store, err := OpenStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &App{Storage: store, Config: cfg}

	googleOpts, err := store.googleOptions(ctx, cfg.Google)
	if err != nil {
		return nil, err
	}
	if cfg.Sheet.Link == "" {
		return nil, apperr.New("sheet.link is required (PITCH_SHEET_LINK)")
	}
	source, err := sheets.NewGoogleReader(ctx, cfg.Sheet.Link, cfg.Sheet.Tab, sheets.ParseOptions{
		IDColumn: cfg.Sheet.IDColumn,
		Renames:  cfg.Sheet.RenameMap(),
	}, googleOpts...)
	if err != nil {
		return nil, err
	}
	a.Source = source

	downloader, err := media.NewDriveDownloader(ctx, googleOpts...)
	if err != nil {
		return nil, err
	}
	extractor := media.FFmpegExtractor{Path: cfg.Media.FFmpegPath}
	acquirer := media.NewAcquirer(afero.NewOsFs(), cfg.Media.WorkDir, cfg.Sheet.VideoColumn, downloader, extractor)

	apiKey := cfg.Gemini.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	apiKey, err = store.secret(ctx, apiKey, cfg.Gemini.APIKeySSMParam)
	if err != nil {
		return nil, err
	}
	client, err := gemini.NewClient(ctx, apiKey, cfg.Gemini.RequestsPerMinute, cfg.Gemini.UploadTimeout)
	if err != nil {
		return nil, err
	}

	a.Pipeline = pipeline.NewRunner(pipeline.Deps{
		Source:      source,
		Media:       acquirer,
		Transcriber: transcribe.NewGeminiTranscriber(client, client, gemini.ResolveModel(cfg.Gemini.TranscribeModel)),
		Transcripts: store.Transcripts,
		Scorer:      scoring.NewGeminiScorer(client, gemini.ResolveModel(cfg.Gemini.Model)),
		Results:     store.Results,
		Excluded:    cfg.Sheet.ExcludedColumns,
	})

	var publisher batch.Publisher
	if cfg.Events.BusName != "" {
		clients, err := store.awsClients(ctx)
		if err != nil {
			return nil, err
		}
		publisher = events.NewEventBridgePublisher(clients.EventBridge, cfg.Events.BusName, cfg.Events.Source)
	}
	a.Batch = batch.NewProcessor(source, store.Checkpoint, a.Pipeline, publisher)

	loc, err := cfg.Schedule.TimeLocation()
	if err != nil {
		return nil, err
	}
	a.Scheduler = scheduler.New(func(ctx context.Context) { a.Batch.Run(ctx) }, scheduler.Config{
		Hour:         cfg.Schedule.Hour,
		Minute:       cfg.Schedule.Minute,
		PollInterval: cfg.Schedule.PollInterval,
		StopTimeout:  cfg.Schedule.StopTimeout,
		Location:     loc,
	})
	return a, nil
}

// googleOptions selects service-account credentials for Sheets and Drive:
// a key file, then a JSON key in SSM, then Application Default Credentials.
func (s *Storage) googleOptions(ctx context.Context, g config.GoogleConfig) ([]option.ClientOption, error) {
	if g.CredentialsFile != "" {
		return []option.ClientOption{option.WithCredentialsFile(g.CredentialsFile)}, nil
	}
	if g.CredentialsSSMParam != "" {
		keyJSON, err := s.secret(ctx, "", g.CredentialsSSMParam)
		if err != nil {
			return nil, err
		}
		return []option.ClientOption{option.WithCredentialsJSON([]byte(keyJSON))}, nil
	}
	return nil, nil
}

func configureMetrics(cfg *config.Config) {
	inLambda := os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
	metrics.Configure(cfg.Metrics.Namespace, cfg.Metrics.EMF || inLambda, nil)
}
