// Package hcl reads and writes mapping configurations in HCL.
//
//	ignore_limits = ["wind"]
//
//	map "generator" {
//	  time_series      = "wind"
//	  variable         = "targetP"        # default variable of the kind when omitted
//	  equipments       = ["G1", "G2"]     # or prefix = "G"
//	  distribution_key = { G1 = 2, G2 = "capacity" }
//	}
//
//	equipment_time_series "g1_max" {
//	  variable   = "maxP"
//	  equipments = ["G1"]
//	}
//
//	unmapped "load" {
//	  equipments = ["L9"]
//	}
package hcl

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"

	"metrix-mapping/core/mapping"
	"metrix-mapping/core/network"
	"metrix-mapping/internal/errors"
)

const (
	blockMap             = "map"
	blockEquipmentSeries = "equipment_time_series"
	blockUnmapped        = "unmapped"

	attrIgnoreLimits    = "ignore_limits"
	attrTimeSeries      = "time_series"
	attrVariable        = "variable"
	attrEquipments      = "equipments"
	attrPrefix          = "prefix"
	attrDistributionKey = "distribution_key"
)

var fileSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: attrIgnoreLimits},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: blockMap, LabelNames: []string{"kind"}},
		{Type: blockEquipmentSeries, LabelNames: []string{"time_series"}},
		{Type: blockUnmapped, LabelNames: []string{"kind"}},
	},
}

// Loader builds mapping configurations against a network
type Loader struct {
	parser  *hclparse.Parser
	network network.View
}

// NewLoader creates a loader resolving equipments in n
func NewLoader(n network.View) *Loader {
	return &Loader{parser: hclparse.NewParser(), network: n}
}

// LoadFile reads and decodes a mapping file
func (l *Loader) LoadFile(path string) (*mapping.Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeInput, err, "failed to read mapping file %s", path)
	}
	return l.Decode(src, path)
}

// Decode parses src; filename only shows in diagnostics
func (l *Loader) Decode(src []byte, filename string) (*mapping.Config, error) {
	file, diags := l.parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diagError(filename, diags)
	}
	content, diags := file.Body.Content(fileSchema)
	if diags.HasErrors() {
		return nil, diagError(filename, diags)
	}

	c := mapping.NewConfigFor(l.network)
	if attr, ok := content.Attributes[attrIgnoreLimits]; ok {
		v, err := evaluate(attr)
		if err != nil {
			return nil, err
		}
		names, err := v.AsStrings()
		if err != nil {
			return nil, blockError(attr.Range, attrIgnoreLimits, err)
		}
		for _, name := range names {
			c.AddIgnoreLimits(name)
		}
	}

	for _, block := range content.Blocks {
		var err error
		switch block.Type {
		case blockMap:
			err = l.decodeMap(c, block)
		case blockEquipmentSeries:
			err = l.decodeEquipmentSeries(c, block)
		case blockUnmapped:
			err = l.decodeUnmapped(c, block)
		}
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (l *Loader) decodeMap(c *mapping.Config, block *hcl.Block) error {
	kind, err := network.ParseKind(block.Labels[0])
	if err != nil {
		return blockError(block.DefRange, blockMap, err)
	}
	attrs, err := attributes(block)
	if err != nil {
		return err
	}

	series, ok := attrs[attrTimeSeries].AsString()
	if !ok || series == "" {
		return blockError(block.DefRange, blockMap, fmt.Errorf("%s is required", attrTimeSeries))
	}
	variable := mapping.DefaultVariable(kind)
	if raw, present := attrs[attrVariable]; present {
		s, ok := raw.AsString()
		if !ok {
			return blockError(block.DefRange, blockMap, fmt.Errorf("%s must be a string", attrVariable))
		}
		variable = network.Variable(s)
	}
	if !mapping.Compatible(kind, variable) {
		return errors.Config("variable '%s' cannot be mapped on %s (%s)", variable, kind, rangeOf(block.DefRange))
	}

	ids, err := l.selectEquipments(kind, attrs, block)
	if err != nil {
		return err
	}
	keys, err := distributionKeys(attrs, block)
	if err != nil {
		return err
	}

	if len(ids) == 0 {
		c.MapEmpty(kind, series, variable)
		return nil
	}
	for _, id := range ids {
		key, ok := keys[id]
		if !ok {
			key = keys[""]
		}
		c.Map(kind, series, variable, id, key)
	}
	return nil
}

// selectEquipments applies equipments or prefix. Listed ids keep their order, prefix follows the network.
func (l *Loader) selectEquipments(kind network.Kind, attrs map[string]Value, block *hcl.Block) ([]string, error) {
	if raw, ok := attrs[attrEquipments]; ok {
		ids, err := raw.AsStrings()
		if err != nil {
			return nil, blockError(block.DefRange, attrEquipments, err)
		}
		return ids, nil
	}
	if raw, ok := attrs[attrPrefix]; ok {
		prefix, ok := raw.AsString()
		if !ok {
			return nil, blockError(block.DefRange, attrPrefix, fmt.Errorf("must be a string"))
		}
		var ids []string
		for _, id := range l.network.IDs(kind) {
			if strings.HasPrefix(id, prefix) {
				ids = append(ids, id)
			}
		}
		return ids, nil
	}
	return nil, blockError(block.DefRange, block.Type, fmt.Errorf("one of %s or %s is required", attrEquipments, attrPrefix))
}

// distributionKeys returns keys per equipment id; "" holds the key of every other equipment
func distributionKeys(attrs map[string]Value, block *hcl.Block) (map[string]mapping.DistributionKey, error) {
	keys := map[string]mapping.DistributionKey{"": mapping.DefaultKey}
	raw, ok := attrs[attrDistributionKey]
	if !ok {
		return keys, nil
	}
	if entries, ok := raw.AsEntries(); ok {
		for _, e := range entries {
			key, err := toKey(e.Value)
			if err != nil {
				return nil, blockError(block.DefRange, attrDistributionKey, err)
			}
			keys[e.Key] = key
		}
		return keys, nil
	}
	key, err := toKey(raw)
	if err != nil {
		return nil, blockError(block.DefRange, attrDistributionKey, err)
	}
	keys[""] = key
	return keys, nil
}

func toKey(v Value) (mapping.DistributionKey, error) {
	if f, ok := v.AsFloat(); ok {
		return mapping.NumberKey{Value: f}, nil
	}
	if s, ok := v.AsString(); ok && s != "" {
		return mapping.SeriesKey{Name: s}, nil
	}
	return nil, fmt.Errorf("expected a number or a time series name, got %s", v.CtyType)
}

func (l *Loader) decodeEquipmentSeries(c *mapping.Config, block *hcl.Block) error {
	series := block.Labels[0]
	attrs, err := attributes(block)
	if err != nil {
		return err
	}
	s, ok := attrs[attrVariable].AsString()
	if !ok {
		return blockError(block.DefRange, blockEquipmentSeries, fmt.Errorf("%s is required", attrVariable))
	}
	raw, ok := attrs[attrEquipments]
	if !ok {
		return blockError(block.DefRange, blockEquipmentSeries, fmt.Errorf("%s is required", attrEquipments))
	}
	ids, err := raw.AsStrings()
	if err != nil {
		return blockError(block.DefRange, attrEquipments, err)
	}
	for _, id := range ids {
		c.MapEquipmentSeries(series, network.Variable(s), id)
	}
	return nil
}

func (l *Loader) decodeUnmapped(c *mapping.Config, block *hcl.Block) error {
	kind, err := network.ParseKind(block.Labels[0])
	if err != nil {
		return blockError(block.DefRange, blockUnmapped, err)
	}
	attrs, err := attributes(block)
	if err != nil {
		return err
	}
	ids, err := l.selectEquipments(kind, attrs, block)
	if err != nil {
		return err
	}
	for _, id := range ids {
		c.IgnoreUnmapped(kind, id)
	}
	return nil
}

// attributes evaluates every attribute of a block, without variables or functions
func attributes(block *hcl.Block) (map[string]Value, error) {
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, diagError(block.DefRange.Filename, diags)
	}
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make(map[string]Value, len(attrs))
	for _, name := range names {
		v, err := evaluate(attrs[name])
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

func evaluate(attr *hcl.Attribute) (Value, error) {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return Value{}, diagError(attr.Range.Filename, diags)
	}
	v, err := FromCty(val)
	if err != nil {
		return Value{}, blockError(attr.Range, attr.Name, err)
	}
	return v, nil
}

func diagError(filename string, diags hcl.Diagnostics) error {
	var msgs []string
	for _, diag := range diags {
		if diag.Severity != hcl.DiagError {
			continue
		}
		line := 0
		if diag.Subject != nil {
			line = diag.Subject.Start.Line
		}
		msgs = append(msgs, fmt.Sprintf("%s:%d: %s: %s", filename, line, diag.Summary, diag.Detail))
	}
	return errors.Parsing(strings.Join(msgs, "\n"), diags)
}

func blockError(r hcl.Range, what string, err error) error {
	return errors.Wrapf(errors.TypeParsing, err, "%s: invalid %s", rangeOf(r), what)
}

func rangeOf(r hcl.Range) string {
	return fmt.Sprintf("%s:%d", r.Filename, r.Start.Line)
}
