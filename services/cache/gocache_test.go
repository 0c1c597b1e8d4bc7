package cachesvc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/lophoc/core"
)

func TestGoCache(t *testing.T) {
	c := NewGoCache(core.NewTestConfig())

	c.Set("a", 1, 0)
	c.Set("b", "two", 10*time.Millisecond)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	time.Sleep(20 * time.Millisecond)
	_, ok = c.Get("b")
	assert.False(t, ok, "b should have expired")

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)

	c.Set("c", 3, 0)
	c.Flush()
	_, ok = c.Get("c")
	assert.False(t, ok)
}
