// Package metrics emits CloudWatch Embedded Metric Format (EMF) documents and
// maintains the Prometheus collectors served at /metrics.
//
// EMF metrics are JSON lines that CloudWatch Logs extracts automatically when
// running in Lambda. Outside Lambda they are disabled by default so CLI
// output stays clean; call Configure to turn them on.
//
// See: https://docs.aws.amazon.com/AmazonCloudWatch/latest/monitoring/CloudWatch_Embedded_Metric_Format_Specification.html
package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Standard CloudWatch metric units.
const (
	UnitMilliseconds = "Milliseconds"
	UnitCount        = "Count"
	UnitBytes        = "Bytes"
	UnitNone         = "None"
)

// DefaultNamespace is the CloudWatch namespace used when none is configured.
const DefaultNamespace = "PitchScorer"

type metricDef struct {
	Name string `json:"Name"`
	Unit string `json:"Unit"`
}

type emfDirective struct {
	Timestamp         int64      `json:"Timestamp"`
	CloudWatchMetrics []cwMetric `json:"CloudWatchMetrics"`
}

type cwMetric struct {
	Namespace  string      `json:"Namespace"`
	Dimensions [][]string  `json:"Dimensions"`
	Metrics    []metricDef `json:"Metrics"`
}

// Recorder accumulates dimensions, metrics and properties for a single flush.
// Not safe for concurrent use; create one per operation.
type Recorder struct {
	namespace  string
	dimensions map[string]string
	metrics    map[string]metricDef
	values     map[string]interface{}
	properties map[string]interface{}
}

var (
	mu        sync.RWMutex
	namespace = DefaultNamespace
	enabled   = os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
	out       = io.Writer(os.Stdout)

	functionName string
	initOnce     sync.Once
)

func initFunctionName() {
	functionName = os.Getenv("AWS_LAMBDA_FUNCTION_NAME")
}

// Configure sets the namespace, toggles EMF output and redirects it.
// A nil writer keeps the current one.
func Configure(ns string, on bool, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if ns != "" {
		namespace = ns
	}
	enabled = on
	if w != nil {
		out = w
	}
}

// New creates a Recorder in the configured namespace. The FunctionName
// dimension is added automatically inside Lambda.
func New() *Recorder {
	initOnce.Do(initFunctionName)
	mu.RLock()
	ns := namespace
	mu.RUnlock()

	r := &Recorder{
		namespace:  ns,
		dimensions: make(map[string]string),
		metrics:    make(map[string]metricDef),
		values:     make(map[string]interface{}),
		properties: make(map[string]interface{}),
	}
	if functionName != "" {
		r.dimensions["FunctionName"] = functionName
	}
	return r
}

// Dimension adds an indexed dimension.
func (r *Recorder) Dimension(key, value string) *Recorder {
	r.dimensions[key] = value
	return r
}

// Metric records a named value with a CloudWatch unit.
func (r *Recorder) Metric(name string, value float64, unit string) *Recorder {
	r.metrics[name] = metricDef{Name: name, Unit: unit}
	r.values[name] = value
	return r
}

// Count records a count metric with value 1.
func (r *Recorder) Count(name string) *Recorder {
	return r.Metric(name, 1, UnitCount)
}

// Duration records d as a millisecond metric.
func (r *Recorder) Duration(name string, d time.Duration) *Recorder {
	return r.Metric(name, float64(d.Milliseconds()), UnitMilliseconds)
}

// Property adds a searchable non-metric field.
func (r *Recorder) Property(key string, value interface{}) *Recorder {
	r.properties[key] = value
	return r
}

// Flush writes the EMF document as one JSON line. It is a no-op when EMF is
// disabled or nothing was recorded.
func (r *Recorder) Flush() {
	mu.RLock()
	on, w := enabled, out
	mu.RUnlock()
	if !on || len(r.metrics) == 0 {
		return
	}

	doc := make(map[string]interface{}, len(r.dimensions)+len(r.values)+len(r.properties)+1)

	metricDefs := make([]metricDef, 0, len(r.metrics))
	for _, m := range r.metrics {
		metricDefs = append(metricDefs, m)
	}
	dimKeys := make([]string, 0, len(r.dimensions))
	for k := range r.dimensions {
		dimKeys = append(dimKeys, k)
	}

	doc["_aws"] = emfDirective{
		Timestamp: time.Now().UnixMilli(),
		CloudWatchMetrics: []cwMetric{{
			Namespace:  r.namespace,
			Dimensions: [][]string{dimKeys},
			Metrics:    metricDefs,
		}},
	}
	for k, v := range r.properties {
		doc[k] = v
	}
	for k, v := range r.dimensions {
		doc[k] = v
	}
	for k, v := range r.values {
		doc[k] = v
	}

	data, err := json.Marshal(doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "emf: failed to marshal metrics: %v\n", err)
		return
	}
	fmt.Fprintln(w, string(data))
}
