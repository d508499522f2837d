// Package engine provides the API-primary mapping engine.
// CLI is a thin wrapper around this engine.
package engine

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"

	"metrix-mapping/core/logs"
	"metrix-mapping/core/mapper"
	"metrix-mapping/core/mapping"
	"metrix-mapping/core/network"
	"metrix-mapping/core/observer"
	"metrix-mapping/core/timeseries"
	"metrix-mapping/internal/errors"
)

// Engine is the primary API for time series mapping.
// All other interfaces (CLI) are thin wrappers.
type Engine struct {
	config EngineConfig
	log    *zap.Logger
}

// EngineConfig configures the mapping engine
type EngineConfig struct {
	Parameters mapper.Parameters

	// RequiredTimeSeries must exist in the table even if nothing maps them
	RequiredTimeSeries []string

	// StdDevWorkers bounds the std-dev precompute; 0 uses GOMAXPROCS
	StdDevWorkers int
}

// NewEngine creates a new mapping engine
func NewEngine(config EngineConfig, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if config.StdDevWorkers <= 0 {
		config.StdDevWorkers = runtime.GOMAXPROCS(0)
	}
	return &Engine{config: config, log: log}
}

// Parameters returns the mapping parameters of every run
func (e *Engine) Parameters() mapper.Parameters {
	return e.config.Parameters
}

// Request is the input of one run
type Request struct {
	// REQUIRED: base case network, read only
	Network network.View

	// REQUIRED: mapping configuration
	Mapping *mapping.Config

	// REQUIRED: time series
	Table timeseries.Table

	// Optional: observers, called in order
	Observers []observer.Observer

	// Optional: run identifier for process logs
	RunID string
}

// Result is the output of one run
type Result struct {
	RunID    string
	Versions []int
	Points   int

	// Stats is the mapping coverage per kind
	Stats *mapping.Stats

	// Logs is the mapping log
	Logs *logs.Logger

	StartedAt time.Time
	Duration  time.Duration
}

// Run checks the request, then maps every selected version.
// On a mapping failure the partial Result is returned with the error.
func (e *Engine) Run(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()

	// REQUIRED: validate inputs
	switch {
	case req == nil:
		return nil, errors.Input("request is required")
	case req.Network == nil:
		return nil, errors.Input("network is required")
	case req.Mapping == nil:
		return nil, errors.Input("mapping configuration is required")
	case req.Table == nil:
		return nil, errors.Input("time series table is required")
	}

	log := e.log
	if req.RunID != "" {
		log = log.With(zap.String("run_id", req.RunID))
	}

	params := e.config.Parameters
	first, last, err := timeseries.Window(req.Table, params.FirstPoint, params.LastPoint)
	if err != nil {
		return nil, err
	}

	o := NewOrchestrator(req.Network, req.Mapping, req.Table, log)
	if err := o.CheckConfiguration(); err != nil {
		return nil, err
	}
	if err := o.CheckTable(params.Versions, e.config.RequiredTimeSeries...); err != nil {
		return nil, err
	}
	if err := o.Prepare(ctx, e.config.StdDevWorkers); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:     req.RunID,
		Versions:  o.Versions(),
		Points:    last - first + 1,
		Stats:     o.Stats(),
		Logs:      logs.NewLogger(),
		StartedAt: start.UTC(),
	}
	log.Info("mapping started",
		zap.Ints("versions", result.Versions),
		zap.Int("first_point", first),
		zap.Int("last_point", last),
		zap.Bool("ignore_limits", params.IgnoreLimits),
		zap.Bool("identify_constant", params.IdentifyConstantTimeSeries))

	m := mapper.New(req.Network, req.Mapping, req.Table, result.Logs, log)
	err = o.Map(ctx, m, params, req.Observers...)
	result.Duration = time.Since(start)
	return result, err
}
