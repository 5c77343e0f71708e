package hooks

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoint(t *testing.T) {
	t.Run("zero value applies no transformation", func(t *testing.T) {
		var p Point[string]
		assert.Equal(t, "smith", p.Apply("smith"))
		assert.Equal(t, 0, p.Len())
	})

	t.Run("filters run in registration order", func(t *testing.T) {
		var p Point[string]
		p.Register(func(s string) string { return s + "-a" })
		p.Register(func(s string) string { return s + "-b" })

		assert.Equal(t, "x-a-b", p.Apply("x"))
		assert.Equal(t, 2, p.Len())
	})

	t.Run("nil filters are ignored", func(t *testing.T) {
		var p Point[int]
		p.Register(nil)
		p.Register(func(n int) int { return n * 2 })

		assert.Equal(t, 1, p.Len())
		assert.Equal(t, 10, p.Apply(5))
	})

	t.Run("works with map values", func(t *testing.T) {
		var p Point[map[string][]string]
		p.Register(func(m map[string][]string) map[string][]string {
			delete(m, "blocked")
			return m
		})

		out := p.Apply(map[string][]string{
			"region":  {"north"},
			"blocked": {"x"},
		})
		assert.Equal(t, map[string][]string{"region": {"north"}}, out)
	})
}

func TestSearchPoints(t *testing.T) {
	var h Search
	h.Term.Register(strings.ToLower)
	h.AttributePrefix.Register(func(string) string { return "attr_" })

	assert.Equal(t, "smith", h.Term.Apply("SMITH"))
	assert.Equal(t, "attr_", h.AttributePrefix.Apply("meta_"))
	assert.Equal(t, "last_name", h.Field.Apply("last_name"))
}
