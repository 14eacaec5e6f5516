package logging

import (
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// StartupLogger collects process identity, the resources a command talks to,
// schedule settings and feature flags, then emits a single structured event
// describing how the process was configured. Works for both the CLI and the
// Lambda entry points; Lambda fields are only attached when present.
type StartupLogger struct {
	name         string
	version      string
	initDuration time.Duration

	resources map[string]string
	ssmParams map[string]string
	features  map[string]bool
	config    map[string]string
}

// NewStartupLogger creates a StartupLogger for the given component
// (e.g. "serve", "batch-lambda").
func NewStartupLogger(name string) *StartupLogger {
	return &StartupLogger{
		name:      name,
		resources: make(map[string]string),
		ssmParams: make(map[string]string),
		features:  make(map[string]bool),
		config:    make(map[string]string),
	}
}

// Version sets the build version baked in with -ldflags.
func (s *StartupLogger) Version(v string) *StartupLogger {
	s.version = v
	return s
}

// Resource registers an external resource (bucket, sheet, event bus, directory).
func (s *StartupLogger) Resource(label, name string) *StartupLogger {
	if name != "" {
		s.resources[label] = name
	}
	return s
}

// SSMParam registers an SSM parameter path. Only the path is logged, never the value.
func (s *StartupLogger) SSMParam(label, path string) *StartupLogger {
	if path != "" {
		s.ssmParams[label] = path
	}
	return s
}

// Feature registers a boolean feature flag (e.g. "scheduler", "events").
func (s *StartupLogger) Feature(name string, enabled bool) *StartupLogger {
	s.features[name] = enabled
	return s
}

// Config registers a non-sensitive configuration key-value pair.
func (s *StartupLogger) Config(key, value string) *StartupLogger {
	s.config[key] = value
	return s
}

// InitDuration records how long bootstrap took.
func (s *StartupLogger) InitDuration(d time.Duration) *StartupLogger {
	s.initDuration = d
	return s
}

// Log emits a single structured INFO event with everything collected.
func (s *StartupLogger) Log() {
	evt := log.Info()

	proc := zerolog.Dict().
		Str("name", s.name).
		Str("goVersion", runtime.Version()).
		Str("arch", runtime.GOARCH).
		Int("pid", os.Getpid())
	if s.version != "" {
		proc = proc.Str("version", s.version)
	}
	if fn := os.Getenv("AWS_LAMBDA_FUNCTION_NAME"); fn != "" {
		proc = proc.
			Str("functionName", fn).
			Str("functionVersion", os.Getenv("AWS_LAMBDA_FUNCTION_VERSION")).
			Str("region", os.Getenv("AWS_REGION")).
			Str("memoryMB", os.Getenv("AWS_LAMBDA_FUNCTION_MEMORY_SIZE"))
	}
	evt = evt.Dict("process", proc)

	if len(s.resources) > 0 {
		evt = evt.Dict("resources", dictFromMap(s.resources))
	}
	if len(s.ssmParams) > 0 {
		evt = evt.Dict("ssmParams", dictFromMap(s.ssmParams))
	}
	if len(s.features) > 0 {
		d := zerolog.Dict()
		for k, v := range s.features {
			d = d.Bool(k, v)
		}
		evt = evt.Dict("features", d)
	}
	if len(s.config) > 0 {
		evt = evt.Dict("config", dictFromMap(s.config))
	}
	if s.initDuration > 0 {
		evt = evt.Dur("initDuration", s.initDuration)
	}

	evt.Msg("Startup complete")
}

func dictFromMap(m map[string]string) *zerolog.Event {
	d := zerolog.Dict()
	for k, v := range m {
		d = d.Str(k, v)
	}
	return d
}
