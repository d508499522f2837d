// Package engine - Mapping run orchestrator
// Enforces the execution flow of one run:
// 1. Configuration checked against the network
// 2. Table checked against the configuration and versions
// 3. Standard deviations prepared
// 4. Versions mapped
package engine

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"metrix-mapping/core/mapper"
	"metrix-mapping/core/mapping"
	"metrix-mapping/core/network"
	"metrix-mapping/core/observer"
	"metrix-mapping/core/timeseries"
	"metrix-mapping/internal/errors"
)

// Phase represents the execution phases of a run
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseConfigChecked       // mapping checked against the network
	PhaseTableChecked        // series and versions found in the table
	PhasePrepared            // std-dev cache filled
	PhaseMapped              // every version mapped
)

// String returns the phase name
func (p Phase) String() string {
	names := []string{"uninitialized", "config_checked", "table_checked", "prepared", "mapped"}
	if int(p) < len(names) {
		return names[p]
	}
	return "unknown"
}

// PhaseOrderError indicates phases executed out of order
type PhaseOrderError struct {
	Required Phase
	Current  Phase
}

func (e *PhaseOrderError) Error() string {
	return fmt.Sprintf("phase %s required, but current phase is %s", e.Required, e.Current)
}

// PhaseError is a failure recorded during orchestration
type PhaseError struct {
	Phase   Phase
	Message string
	Cause   error
}

// stdDevPreparer is implemented by tables that can fill their std-dev cache up front
type stdDevPreparer interface {
	PrecomputeStdDev(ctx context.Context, versions []int, workers int) error
}

// Orchestrator runs the phases of one mapping run. Each phase can run once, in order.
type Orchestrator struct {
	phase Phase

	network network.View
	config  *mapping.Config
	table   timeseries.Table
	log     *zap.Logger

	stats    *mapping.Stats
	versions []int
	errors   []PhaseError
}

// NewOrchestrator creates an orchestrator for one run
func NewOrchestrator(n network.View, c *mapping.Config, t timeseries.Table, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{network: n, config: c, table: t, log: log}
}

// Phase returns the last completed phase
func (o *Orchestrator) Phase() Phase { return o.phase }

// Stats returns the mapping statistics computed by CheckConfiguration
func (o *Orchestrator) Stats() *mapping.Stats { return o.stats }

// Versions returns the versions selected by CheckTable
func (o *Orchestrator) Versions() []int { return o.versions }

// Errors returns the failures recorded so far
func (o *Orchestrator) Errors() []PhaseError { return o.errors }

// PhaseGuard ensures a phase has been completed
func (o *Orchestrator) PhaseGuard(required Phase) error {
	if o.phase < required {
		return &PhaseOrderError{Required: required, Current: o.phase}
	}
	return nil
}

func (o *Orchestrator) enter(required, next Phase) error {
	if err := o.PhaseGuard(required); err != nil {
		return err
	}
	if o.phase >= next {
		return fmt.Errorf("phase %s already done", next)
	}
	return nil
}

func (o *Orchestrator) recordError(phase Phase, message string, cause error) {
	o.errors = append(o.errors, PhaseError{Phase: phase, Message: message, Cause: cause})
	o.log.Error(message, zap.Stringer("phase", phase), zap.Error(cause))
}

// CheckConfiguration validates the mapping against the network
func (o *Orchestrator) CheckConfiguration() error {
	if err := o.enter(PhaseUninitialized, PhaseConfigChecked); err != nil {
		return err
	}
	stats, err := mapping.Check(o.config, o.network)
	if err != nil {
		o.recordError(PhaseConfigChecked, "invalid mapping configuration", err)
		return err
	}
	o.stats = stats
	o.phase = PhaseConfigChecked
	return nil
}

// CheckTable verifies that every series read exists and selects the versions.
// No versions means every version of the table.
func (o *Orchestrator) CheckTable(versions []int, required ...string) error {
	if err := o.enter(PhaseConfigChecked, PhaseTableChecked); err != nil {
		return err
	}
	if err := mapping.CheckTimeSeries(o.config, o.table.Names(), required...); err != nil {
		o.recordError(PhaseTableChecked, "missing time series", err)
		return err
	}

	available := o.table.Versions()
	if len(versions) == 0 {
		versions = available
	}
	for _, v := range versions {
		if !slices.Contains(available, v) {
			err := errors.NotFound("version", fmt.Sprint(v))
			o.recordError(PhaseTableChecked, "unknown version", err)
			return err
		}
	}
	if len(versions) == 0 {
		err := errors.Input("table has no version")
		o.recordError(PhaseTableChecked, "empty table", err)
		return err
	}
	o.versions = slices.Clone(versions)
	o.phase = PhaseTableChecked
	return nil
}

// Prepare fills the std-dev cache of the selected versions when the table supports it
func (o *Orchestrator) Prepare(ctx context.Context, workers int) error {
	if err := o.enter(PhaseTableChecked, PhasePrepared); err != nil {
		return err
	}
	if p, ok := o.table.(stdDevPreparer); ok {
		if err := p.PrecomputeStdDev(ctx, o.versions, workers); err != nil {
			o.recordError(PhasePrepared, "std-dev precompute failed", err)
			return err
		}
	}
	o.phase = PhasePrepared
	return nil
}

// Map runs the mapper on the selected versions
func (o *Orchestrator) Map(ctx context.Context, m *mapper.Mapper, params mapper.Parameters, observers ...observer.Observer) error {
	if err := o.enter(PhasePrepared, PhaseMapped); err != nil {
		return err
	}
	params.Versions = o.versions
	if err := m.Run(ctx, params, observers...); err != nil {
		o.recordError(PhaseMapped, "mapping failed", err)
		return err
	}
	o.phase = PhaseMapped
	return nil
}
