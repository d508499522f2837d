// Package cmd - map command
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	networkadapter "metrix-mapping/adapters/network"
	"metrix-mapping/core/engine"
	"metrix-mapping/core/mapper"
	"metrix-mapping/core/network"
	"metrix-mapping/core/observer"
	"metrix-mapping/core/timeseries"
	"metrix-mapping/core/ui"
	"metrix-mapping/internal/config"
	"metrix-mapping/internal/errors"
	"metrix-mapping/internal/logging"
)

var (
	mapNetworkPath string
	mapMappingPath string
	mapTablePath   string
	mapFormat      string

	mapIgnoreLimits      bool
	mapIgnoreEmptyFilter bool
	mapVersions          []int
	mapFirstPoint        int
	mapLastPoint         int
	mapNoConstant        bool
	mapTolerance         float64
	mapOutputDir         string
)

// mapCmd runs the mapping engine
var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Map time series onto a network",
	Long: `Load a network (YAML), a mapping configuration (HCL or JSON) and a time
series table (CSV or XLSX), map every selected version and write the
artifacts enabled in the configuration to the output directory:

  mappingLogs.csv, mappingLogs.json       mapping logs
  balanceSummary.csv, balanceStats.csv    balance per point and per version
  equipmentTimeSeries_<version>.csv       values of equipment time series
  network_<version>.yaml                  network of the last point of each version
  mappingConfig.json                      resolved mapping configuration

Flags override the configuration file.`,
	Args: cobra.NoArgs,
	RunE: runMap,
}

func init() {
	f := mapCmd.Flags()
	f.StringVarP(&mapNetworkPath, "network", "n", "", "network file (YAML) [REQUIRED]")
	f.StringVarP(&mapMappingPath, "mapping", "m", "", "mapping configuration (HCL or JSON) [REQUIRED]")
	f.StringVarP(&mapTablePath, "table", "t", "", "time series table (CSV or XLSX) [REQUIRED]")
	f.StringVarP(&mapFormat, "format", "f", "cli", "summary format (cli, json)")

	f.BoolVar(&mapIgnoreLimits, "ignore-limits", false, "widen violated limits instead of clamping mapped values")
	f.BoolVar(&mapIgnoreEmptyFilter, "ignore-empty-filter", false, "log instead of failing when a non-zero value has no equipment")
	f.IntSliceVar(&mapVersions, "versions", nil, "versions to map (default: every version of the table)")
	f.IntVar(&mapFirstPoint, "first-point", 0, "first time point")
	f.IntVar(&mapLastPoint, "last-point", -1, "last time point, -1 for the end of the table")
	f.BoolVar(&mapNoConstant, "no-constant", false, "map constant time series at every point")
	f.Float64Var(&mapTolerance, "tolerance", mapper.DefaultToleranceThreshold, "tolerance around power limits")
	f.StringVarP(&mapOutputDir, "output-dir", "o", "", "output directory")

	_ = mapCmd.MarkFlagRequired("network")
	_ = mapCmd.MarkFlagRequired("mapping")
	_ = mapCmd.MarkFlagRequired("table")
}

// effectiveConfig applies the flags set on the command line
func effectiveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := *config.Get()
	m := &cfg.Mapping
	f := cmd.Flags()
	if f.Changed("ignore-limits") {
		m.IgnoreLimits = mapIgnoreLimits
	}
	if f.Changed("ignore-empty-filter") {
		m.IgnoreEmptyFilter = mapIgnoreEmptyFilter
	}
	if f.Changed("versions") {
		m.Versions = mapVersions
	}
	if f.Changed("first-point") {
		m.FirstPoint = mapFirstPoint
	}
	if f.Changed("last-point") {
		m.LastPoint = mapLastPoint
	}
	if f.Changed("no-constant") {
		m.IdentifyConstantTimeSeries = !mapNoConstant
	}
	if f.Changed("tolerance") {
		m.ToleranceThreshold = mapTolerance
	}
	if f.Changed("output-dir") {
		cfg.Output.Directory = mapOutputDir
	}
	if mapFormat != "cli" && mapFormat != "json" {
		return nil, errors.Newf(errors.TypeInput, "unknown format %q", mapFormat)
	}
	return &cfg, cfg.Validate()
}

func parameters(m config.MappingConfig) mapper.Parameters {
	return mapper.Parameters{
		Versions:                   m.Versions,
		FirstPoint:                 m.FirstPoint,
		LastPoint:                  m.LastPoint,
		IgnoreLimits:               m.IgnoreLimits,
		IgnoreEmptyFilter:          m.IgnoreEmptyFilter,
		IdentifyConstantTimeSeries: m.IdentifyConstantTimeSeries,
		ToleranceThreshold:         m.ToleranceThreshold,
	}
}

func runMap(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(cfg.Output.TimeZone)
	if err != nil {
		return errors.Wrapf(errors.TypeConfig, err, "unknown time zone %q", cfg.Output.TimeZone)
	}
	sep := cfg.SeparatorRune()

	w := newWriter(cmd)
	if mapFormat == "json" {
		w.SetVerbosity(ui.Quiet)
	}

	in, err := loadNetworkAndMapping(w, mapNetworkPath, mapMappingPath)
	if err != nil {
		return err
	}
	if in.table, err = loadTable(w, mapTablePath, sep); err != nil {
		return err
	}

	runID := logging.NewRunID()
	log := logging.ForRun(runID)
	params := parameters(cfg.Mapping)
	first, last, err := timeseries.Window(in.table, params.FirstPoint, params.LastPoint)
	if err != nil {
		return err
	}

	out := artifacts{dir: cfg.Output.Directory}
	if err := os.MkdirAll(out.dir, 0755); err != nil {
		return errors.Wrapf(errors.TypeInput, err, "failed to create output directory %s", out.dir)
	}

	balance := observer.NewBalanceSummary()
	observers := []observer.Observer{balance}
	if cfg.Output.WriteNetwork {
		nw := observer.NewNetworkWriter(in.network)
		nw.OnVersionEnd = func(version int, n *network.Network) error {
			return networkadapter.WriteFile(out.path(fmt.Sprintf("network_%d.yaml", version)), n)
		}
		observers = append(observers, nw)
	}
	if cfg.Output.WriteEquipmentSeries {
		ew := observer.NewEquipmentSeriesWriter(in.mapping, in.table.Index(), first, last, sep, loc)
		ew.Create = func(version int) (io.WriteCloser, error) {
			return out.create(fmt.Sprintf("equipmentTimeSeries_%d.csv", version))
		}
		observers = append(observers, ew)
	}

	e := engine.NewEngine(engine.EngineConfig{
		Parameters:         params,
		RequiredTimeSeries: cfg.Mapping.RequiredTimeSeries,
	}, log)
	runner := ui.NewMappingRunner(w, e)
	result, runErr := runner.Run(ctx, &engine.Request{
		Network:   in.network,
		Mapping:   in.mapping,
		Table:     in.table,
		Observers: observers,
		RunID:     runID,
	})
	if result == nil {
		return runErr
	}

	// logs are written even when the run stopped on a data error
	if err := out.write(cfg, result, balance, in, loc); err != nil {
		log.Error("failed to write artifacts", zap.Error(err))
		if runErr == nil {
			runErr = err
		}
	}
	if runErr != nil {
		return runErr
	}

	if mapFormat == "json" {
		return runner.JSONOutput(result, balance)
	}
	runner.DisplayResult(result, balance)
	w.Info("Artifacts written to %s", out.dir)
	return nil
}

type artifacts struct {
	dir string
}

func (a artifacts) path(name string) string {
	return filepath.Join(a.dir, name)
}

func (a artifacts) create(name string) (*os.File, error) {
	f, err := os.Create(a.path(name))
	if err != nil {
		return nil, errors.Wrapf(errors.TypeInput, err, "failed to create %s", name)
	}
	return f, nil
}

// writeFile creates name and closes it after fn
func (a artifacts) writeFile(name string, fn func(io.Writer) error) error {
	f, err := a.create(name)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return errors.Wrapf(errors.TypeInternal, err, "failed to write %s", name)
	}
	return f.Close()
}

func (a artifacts) write(cfg *config.Config, result *engine.Result, balance *observer.BalanceSummary, in *inputs, loc *time.Location) error {
	sep := cfg.SeparatorRune()
	index := in.table.Index()

	if cfg.Output.WriteLogs {
		if err := a.writeFile("mappingLogs.csv", func(w io.Writer) error {
			return result.Logs.WriteCSV(w, sep, index, loc)
		}); err != nil {
			return err
		}
		if err := a.writeFile("mappingLogs.json", func(w io.Writer) error {
			return result.Logs.WriteJSON(w, result.RunID)
		}); err != nil {
			return err
		}
	}
	if cfg.Output.WriteBalance {
		if err := a.writeFile("balanceSummary.csv", func(w io.Writer) error {
			return balance.WriteCSV(w, sep, index, loc)
		}); err != nil {
			return err
		}
		if err := a.writeFile("balanceStats.csv", func(w io.Writer) error {
			return balance.WriteStatsCSV(w, sep)
		}); err != nil {
			return err
		}
	}
	if cfg.Output.WriteMappingConfig {
		if err := a.writeFile("mappingConfig.json", func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(in.mapping)
		}); err != nil {
			return err
		}
	}
	return nil
}
