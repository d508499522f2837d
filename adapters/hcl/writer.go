package hcl

import (
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"metrix-mapping/core/mapping"
	"metrix-mapping/core/network"
)

// Encode writes c in the format read by Loader.
// Unmapped equipments derived from the network are not written, only declared ones.
func Encode(c *mapping.Config) []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	if names := c.IgnoreLimitsSeries(); len(names) > 0 {
		body.SetAttributeValue(attrIgnoreLimits, ToCty(stringList(names)))
		body.AppendNewline()
	}

	for _, kind := range network.Kinds() {
		for _, key := range c.SeriesKeys(kind) {
			ids := c.Equipments(kind, key)
			block := body.AppendNewBlock(blockMap, []string{kind.String()}).Body()
			block.SetAttributeValue(attrTimeSeries, cty.StringVal(key.ID))
			block.SetAttributeValue(attrVariable, cty.StringVal(string(key.Variable)))
			block.SetAttributeValue(attrEquipments, ToCty(stringList(ids)))

			var keys []Entry
			for _, id := range ids {
				if v, ok := keyValue(c.DistributionKey(key.Variable, id)); ok {
					keys = append(keys, Entry{Key: id, Value: v})
				}
			}
			if len(keys) > 0 {
				block.SetAttributeValue(attrDistributionKey, ToCty(Value{Type: TypeMap, Raw: keys}))
			}
			body.AppendNewline()
		}
	}

	for _, series := range c.EquipmentSeries() {
		byVariable := make(map[network.Variable][]string)
		var order []network.Variable
		for _, key := range c.EquipmentSeriesKeys(series) {
			if _, seen := byVariable[key.Variable]; !seen {
				order = append(order, key.Variable)
			}
			byVariable[key.Variable] = append(byVariable[key.Variable], key.ID)
		}
		for _, v := range order {
			block := body.AppendNewBlock(blockEquipmentSeries, []string{series}).Body()
			block.SetAttributeValue(attrVariable, cty.StringVal(string(v)))
			block.SetAttributeValue(attrEquipments, ToCty(stringList(byVariable[v])))
			body.AppendNewline()
		}
	}

	for _, kind := range network.Kinds() {
		if ids := c.IgnoredUnmapped(kind); len(ids) > 0 {
			block := body.AppendNewBlock(blockUnmapped, []string{kind.String()}).Body()
			block.SetAttributeValue(attrEquipments, ToCty(stringList(ids)))
			body.AppendNewline()
		}
	}
	return f.Bytes()
}

// keyValue returns false for the default key
func keyValue(k mapping.DistributionKey) (Value, bool) {
	switch k := k.(type) {
	case mapping.SeriesKey:
		return Value{Type: TypeString, Raw: k.Name}, true
	case mapping.NumberKey:
		if k.Value == 1 {
			return Value{}, false
		}
		return Value{Type: TypeNumber, Raw: k.Value}, true
	}
	return Value{}, false
}

func stringList(items []string) Value {
	values := make([]Value, len(items))
	for i, s := range items {
		values[i] = Value{Type: TypeString, Raw: s}
	}
	return Value{Type: TypeList, Raw: values}
}
