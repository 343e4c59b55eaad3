package uid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	got := New("A")
	assert.Len(t, got, 7)
	assert.True(t, strings.HasPrefix(got, "A"))
	assert.Equal(t, strings.ToUpper(got), got)
}

func TestNewIsUniqueEnough(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := New("T")
		assert.False(t, seen[id], id)
		seen[id] = true
	}
}
