package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreBySource(t *testing.T) {
	s := Store{
		"b:2": {ID: "b:2", Source: "B"},
		"a:9": {ID: "a:9", Source: "A"},
		"a:1": {ID: "a:1", Source: "A"},
	}
	assert.Equal(t, []string{"a:1", "a:9"}, s.BySource("A"))
	assert.Equal(t, []string{"b:2"}, s.BySource("B"))
	assert.Empty(t, s.BySource("C"))
}
