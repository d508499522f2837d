package determinism

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderedMapKeepsInsertionOrder(t *testing.T) {
	m := NewOrderedMap[string, int]()
	m.Set("b", 1)
	m.Set("a", 2)
	m.Set("c", 3)
	m.Set("b", 4)

	assert.Equal(t, []string{"b", "a", "c"}, m.Keys())
	v, ok := m.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 4, v)

	m.Delete("a")
	m.Delete("missing")
	assert.Equal(t, []string{"b", "c"}, m.Keys())
	assert.Equal(t, 2, m.Len())

	var seen []string
	m.Range(func(k string, _ int) bool {
		seen = append(seen, k)
		return false
	})
	assert.Equal(t, []string{"b"}, seen)
}

func TestOrderedMapGetOrCreate(t *testing.T) {
	m := NewOrderedMap[string, []string]()
	calls := 0
	create := func() []string {
		calls++
		return []string{"x"}
	}
	m.GetOrCreate("k", create)
	m.GetOrCreate("k", create)
	assert.Equal(t, 1, calls)

	m.Clear()
	assert.Equal(t, 0, m.Len())
	assert.False(t, m.Has("k"))
}

func TestOrderedSet(t *testing.T) {
	s := NewOrderedSet("g2", "g1")
	assert.False(t, s.Add("g2"))
	assert.True(t, s.Add("g3"))
	s.Remove("g1")

	assert.Equal(t, []string{"g2", "g3"}, s.Items())
	assert.True(t, s.Contains("g3"))
	assert.False(t, s.Contains("g1"))
}

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, SortedKeys(map[int]bool{3: true, 1: true, 2: false}))
}
