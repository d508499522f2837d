package cmd

import (
	"os"
	"path/filepath"
	"strings"

	hcladapter "metrix-mapping/adapters/hcl"
	networkadapter "metrix-mapping/adapters/network"
	tableadapter "metrix-mapping/adapters/table"
	"metrix-mapping/core/mapping"
	"metrix-mapping/core/network"
	"metrix-mapping/core/timeseries"
	"metrix-mapping/core/ui"
	"metrix-mapping/internal/errors"
)

type inputs struct {
	network *network.Network
	mapping *mapping.Config
	table   *timeseries.InMemoryTable
}

// loadNetworkAndMapping reads the network, then the mapping configuration resolved against it
func loadNetworkAndMapping(w *ui.Writer, networkPath, mappingPath string) (*inputs, error) {
	in := &inputs{}
	err := w.Step("Loading network "+networkPath, func() error {
		n, err := networkadapter.LoadFile(networkPath)
		in.network = n
		return err
	})
	if err != nil {
		return nil, err
	}
	err = w.Step("Loading mapping "+mappingPath, func() error {
		c, err := loadMapping(mappingPath, in.network)
		in.mapping = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return in, nil
}

// loadMapping reads HCL, or JSON as written by check --dump
func loadMapping(path string, n network.View) (*mapping.Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(errors.TypeInput, err, "failed to read mapping file %s", path)
		}
		c := mapping.NewConfig()
		if err := c.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return c, nil
	default:
		return hcladapter.NewLoader(n).LoadFile(path)
	}
}

func loadTable(w *ui.Writer, path string, sep rune) (*timeseries.InMemoryTable, error) {
	var t *timeseries.InMemoryTable
	err := w.Step("Loading time series "+path, func() error {
		var err error
		t, err = tableadapter.Default(sep).ReadFile(path)
		return err
	})
	return t, err
}
