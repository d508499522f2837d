// Package network reads and writes networks as YAML.
//
//	name: grid
//	equipments:
//	  - id: G1
//	    kind: generator
//	    values: {minP: 0, maxP: 100, targetP: 50}
//	  - id: H1
//	    kind: hvdcLine
//	    activePowerRange: true
//	    values: {maxP: 200, activePowerSetpoint: 40, CS1toCS2: 150, CS2toCS1: 120}
package network

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"metrix-mapping/core/network"
	"metrix-mapping/internal/errors"
)

// LoadFile reads a network file
func LoadFile(path string) (*network.Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeInput, err, "failed to read network file %s", path)
	}
	n, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if n.Name == "" {
		n.Name = filepath.Base(path)
	}
	return n, nil
}

// Decode reads a network. Unknown fields and kinds are rejected.
func Decode(r io.Reader) (*network.Network, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	n := network.New("")
	if err := dec.Decode(n); err != nil {
		if err == io.EOF {
			return nil, errors.Parsing("empty network file", err)
		}
		return nil, errors.Parsing("failed to parse network YAML", err)
	}
	for i, e := range n.Equipments {
		if e == nil || e.ID == "" {
			return nil, errors.Newf(errors.TypeParsing, "equipment #%d has no id", i+1)
		}
		if e.ActivePowerRange && e.Kind != network.KindHvdcLine {
			return nil, errors.Newf(errors.TypeParsing, "equipment '%s' is not an hvdc line but has an active power range", e.ID)
		}
		if e.LoadDetail && e.Kind != network.KindLoad {
			return nil, errors.Newf(errors.TypeParsing, "equipment '%s' is not a load but has a load detail", e.ID)
		}
	}
	if err := n.Reindex(); err != nil {
		return nil, errors.Parsing("invalid network", err)
	}
	return n, nil
}

// Encode writes n as YAML
func Encode(w io.Writer, n *network.Network) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(n); err != nil {
		return errors.Wrap(errors.TypeInternal, "failed to encode network", err)
	}
	return enc.Close()
}

// WriteFile writes n to path, creating the directory
func WriteFile(path string, n *network.Network) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(errors.TypeInput, err, "failed to create directory for %s", path)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, n); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.Wrapf(errors.TypeInput, err, "failed to write network file %s", path)
	}
	return nil
}
