package network

import (
	"fmt"
	"maps"
	"math"
	"sort"
)

// Equipment is one element of the arena
type Equipment struct {
	ID     string               `yaml:"id" json:"id"`
	Kind   Kind                 `yaml:"kind" json:"kind"`
	Values map[Variable]float64 `yaml:"values,omitempty" json:"values,omitempty"`

	// LoadDetail marks loads carrying fixed/variable active and reactive power
	LoadDetail bool `yaml:"loadDetail,omitempty" json:"loadDetail,omitempty"`

	// ActivePowerRange marks HVDC lines with an operator CS1toCS2/CS2toCS1 range
	ActivePowerRange bool `yaml:"activePowerRange,omitempty" json:"activePowerRange,omitempty"`
}

func (e *Equipment) clone() *Equipment {
	c := *e
	c.Values = make(map[Variable]float64, len(e.Values))
	for k, v := range e.Values {
		c.Values[k] = v
	}
	return &c
}

// View is the read-only surface the engine works with
type View interface {
	// Kind returns the kind of an equipment, false if unknown
	Kind(id string) (Kind, bool)

	// Value returns an attribute, 0 when it was never set
	Value(id string, v Variable) float64

	HasLoadDetail(id string) bool
	HasActivePowerRange(id string) bool

	// IDs lists the equipments of a kind in insertion order
	IDs(kind Kind) []string
}

// Mutator is the commit surface handed to observers
type Mutator interface {
	View
	Set(id string, v Variable, value float64) error
	AddActivePowerRange(id string) error
}

// Network is an arena of equipments indexed by id
type Network struct {
	Name       string       `yaml:"name" json:"name"`
	Equipments []*Equipment `yaml:"equipments" json:"equipments"`

	byID map[string]int
}

// New creates an empty network
func New(name string) *Network {
	return &Network{Name: name, byID: make(map[string]int)}
}

// Add inserts an equipment; ids are unique across kinds
func (n *Network) Add(e *Equipment) error {
	n.ensureIndex()
	if e.ID == "" {
		return fmt.Errorf("equipment without id")
	}
	if _, exists := n.byID[e.ID]; exists {
		return fmt.Errorf("duplicate equipment id %q", e.ID)
	}
	if e.Values == nil {
		e.Values = make(map[Variable]float64)
	}
	n.byID[e.ID] = len(n.Equipments)
	n.Equipments = append(n.Equipments, e)
	return nil
}

// MustAdd is Add for fixtures built in code
func (n *Network) MustAdd(e *Equipment) *Network {
	if err := n.Add(e); err != nil {
		panic(err)
	}
	return n
}

// Reindex rebuilds the id index after decoding. Every equipment is indexed,
// the first occurrence of a duplicate id wins and the duplicate is reported.
func (n *Network) Reindex() error {
	n.byID = make(map[string]int, len(n.Equipments))
	var dup error
	for i, e := range n.Equipments {
		if e.Values == nil {
			e.Values = make(map[Variable]float64)
		}
		if _, exists := n.byID[e.ID]; exists {
			if dup == nil {
				dup = fmt.Errorf("duplicate equipment id %q", e.ID)
			}
			continue
		}
		n.byID[e.ID] = i
	}
	return dup
}

// ensureIndex indexes a network assembled without Add or Reindex. Add and
// the network decoder reject duplicate ids, so only such hand-built networks
// can carry one, and Get then sees its first occurrence.
func (n *Network) ensureIndex() {
	if n.byID == nil {
		_ = n.Reindex()
	}
}

// Get returns the equipment with the given id
func (n *Network) Get(id string) (*Equipment, bool) {
	n.ensureIndex()
	i, ok := n.byID[id]
	if !ok {
		return nil, false
	}
	return n.Equipments[i], true
}

// Kind implements View
func (n *Network) Kind(id string) (Kind, bool) {
	e, ok := n.Get(id)
	if !ok {
		return 0, false
	}
	return e.Kind, true
}

// Value implements View
func (n *Network) Value(id string, v Variable) float64 {
	e, ok := n.Get(id)
	if !ok {
		return 0
	}
	return e.Values[v]
}

// HasLoadDetail implements View
func (n *Network) HasLoadDetail(id string) bool {
	e, ok := n.Get(id)
	return ok && e.LoadDetail
}

// HasActivePowerRange implements View
func (n *Network) HasActivePowerRange(id string) bool {
	e, ok := n.Get(id)
	return ok && e.ActivePowerRange
}

// IDs implements View
func (n *Network) IDs(kind Kind) []string {
	var ids []string
	for _, e := range n.Equipments {
		if e.Kind == kind {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// Count returns the number of equipments per kind
func (n *Network) Count() map[Kind]int {
	counts := make(map[Kind]int)
	for _, e := range n.Equipments {
		counts[e.Kind]++
	}
	return counts
}

// Clone returns a deep copy, used to give each version its own network.
// The copy shares the source's id resolution, duplicates included.
func (n *Network) Clone() *Network {
	n.ensureIndex()
	c := &Network{Name: n.Name, Equipments: make([]*Equipment, len(n.Equipments)), byID: maps.Clone(n.byID)}
	for i, e := range n.Equipments {
		c.Equipments[i] = e.clone()
	}
	return c
}

// Edit returns the mutable handle on this network
func (n *Network) Edit() Mutator {
	n.ensureIndex()
	return &editor{n}
}

type editor struct {
	*Network
}

func (ed *editor) Set(id string, v Variable, value float64) error {
	e, ok := ed.Get(id)
	if !ok {
		return fmt.Errorf("equipment %q not found", id)
	}
	e.Values[v] = value
	return nil
}

func (ed *editor) AddActivePowerRange(id string) error {
	e, ok := ed.Get(id)
	if !ok {
		return fmt.Errorf("equipment %q not found", id)
	}
	if e.Kind != KindHvdcLine {
		return fmt.Errorf("equipment %q is not an hvdc line", id)
	}
	if !e.ActivePowerRange {
		e.ActivePowerRange = true
		maxP := math.Abs(e.Values[MaxP])
		e.Values[OprFromCS1toCS2] = maxP
		e.Values[OprFromCS2toCS1] = maxP
	}
	return nil
}

// SortedIDs returns every id in lexical order
func (n *Network) SortedIDs() []string {
	ids := make([]string, 0, len(n.Equipments))
	for _, e := range n.Equipments {
		ids = append(ids, e.ID)
	}
	sort.Strings(ids)
	return ids
}
