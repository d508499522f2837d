// Package cmd - check command
package cmd

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	hcladapter "metrix-mapping/adapters/hcl"
	"metrix-mapping/core/mapping"
	"metrix-mapping/core/ui"
	"metrix-mapping/internal/errors"
)

var (
	checkNetworkPath string
	checkMappingPath string
	checkDump        string
	checkDumpFormat  string
)

// checkCmd validates a mapping configuration against a network
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a mapping configuration against a network",
	Long: `Check that every mapped equipment exists, that every variable can be
mapped on its equipment and that no load mixes total and detailed power.
Print the mapping coverage per equipment kind.

Examples:
  metrix-mapping check -n network.yaml -m mapping.hcl
  metrix-mapping check -n network.yaml -m mapping.hcl --dump resolved.json
  metrix-mapping check -n network.yaml -m mapping.json --dump - --dump-format hcl`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	f := checkCmd.Flags()
	f.StringVarP(&checkNetworkPath, "network", "n", "", "network file (YAML) [REQUIRED]")
	f.StringVarP(&checkMappingPath, "mapping", "m", "", "mapping configuration (HCL or JSON) [REQUIRED]")
	f.StringVar(&checkDump, "dump", "", "write the resolved configuration to this file, - for stdout")
	f.StringVar(&checkDumpFormat, "dump-format", "json", "dump format (json, hcl)")

	_ = checkCmd.MarkFlagRequired("network")
	_ = checkCmd.MarkFlagRequired("mapping")
}

func runCheck(cmd *cobra.Command, args []string) error {
	if checkDumpFormat != "json" && checkDumpFormat != "hcl" {
		return errors.Newf(errors.TypeInput, "unknown dump format %q", checkDumpFormat)
	}
	w := newWriter(cmd)
	if checkDump == "-" {
		w.SetVerbosity(ui.Quiet)
	}

	in, err := loadNetworkAndMapping(w, checkNetworkPath, checkMappingPath)
	if err != nil {
		return err
	}
	stats, err := mapping.Check(in.mapping, in.network)
	if err != nil {
		w.Error("Invalid mapping configuration")
		return err
	}

	if checkDump != "" {
		if err := dumpMapping(cmd.OutOrStdout(), in.mapping); err != nil {
			return err
		}
		if checkDump != "-" {
			w.Success("Configuration written to %s", checkDump)
		}
	}

	if checkDump != "-" {
		w.Header("Mapping coverage")
		ui.DisplayCoverage(w, stats)
	}
	return nil
}

func dumpMapping(stdout io.Writer, c *mapping.Config) error {
	var data []byte
	switch checkDumpFormat {
	case "hcl":
		data = hcladapter.Encode(c)
	default:
		var err error
		if data, err = json.MarshalIndent(c, "", "  "); err != nil {
			return errors.Wrap(errors.TypeInternal, "failed to encode mapping configuration", err)
		}
		data = append(data, '\n')
	}

	if checkDump == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(checkDump, data, 0644); err != nil {
		return errors.Wrapf(errors.TypeInput, err, "failed to write %s", checkDump)
	}
	return nil
}
