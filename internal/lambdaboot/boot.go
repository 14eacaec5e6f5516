// Package lambdaboot holds the AWS bootstrap shared by the CLI and the
// Lambda entry points: SDK config, the S3 client for the object cache,
// EventBridge, and SSM Parameter Store secrets.
package lambdaboot

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/fpang/pitch-scorer/internal/apperr"
	"github.com/fpang/pitch-scorer/internal/logging"
)

// AWSClients holds the SDK config and the clients built from it.
type AWSClients struct {
	Config      aws.Config
	S3          *s3.Client
	SSM         *ssm.Client
	EventBridge *eventbridge.Client
}

// LoadAWS loads the default AWS config chain and creates the clients.
func LoadAWS(ctx context.Context) (AWSClients, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return AWSClients{}, apperr.Wrap(err, "load AWS config")
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return AWSClients{
		Config:      cfg,
		S3:          s3.NewFromConfig(cfg),
		SSM:         ssm.NewFromConfig(cfg),
		EventBridge: eventbridge.NewFromConfig(cfg),
	}, nil
}

// InitAWS is LoadAWS for Lambda cold starts, where failure is fatal.
func InitAWS() AWSClients {
	c, err := LoadAWS(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	return c
}

type parameterAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// LoadSecret reads a SecureString parameter. The value is never logged.
func LoadSecret(ctx context.Context, client parameterAPI, param string) (string, error) {
	start := time.Now()
	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(param),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", apperr.Wrapf(err, "read SSM parameter %s", param)
	}
	if out.Parameter == nil || aws.ToString(out.Parameter.Value) == "" {
		return "", apperr.Newf("SSM parameter %s is empty", param)
	}
	log.Debug().Str("param", param).Dur("elapsed", time.Since(start)).Msg("Secret loaded from SSM")
	return aws.ToString(out.Parameter.Value), nil
}

// ResolveSecret returns value when set, otherwise the SSM parameter named
// by param. Both empty yields "" with no error.
func ResolveSecret(ctx context.Context, client parameterAPI, value, param string) (string, error) {
	if value != "" || param == "" {
		return value, nil
	}
	return LoadSecret(ctx, client, param)
}

// StartupLog is a convenience wrapper for the startup logger.
func StartupLog(name string, initStart time.Time) *logging.StartupLogger {
	return logging.NewStartupLogger(name).
		Version(os.Getenv("PITCH_VERSION")).
		InitDuration(time.Since(initStart))
}
