package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageCache_GetSet(t *testing.T) {
	pc := NewPageCache(time.Minute)

	_, ok := pc.Get("missing")
	assert.False(t, ok)

	pc.Set("k", []byte("page"))
	page, ok := pc.Get("k")
	require.True(t, ok)
	assert.Equal(t, "page", string(page))

	hits, misses, ratio := pc.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
	assert.InDelta(t, 0.5, ratio, 1e-9)
}

func TestPageCache_GetOrRender(t *testing.T) {
	pc := NewPageCache(time.Minute)
	calls := 0
	render := func() ([]byte, error) {
		calls++
		return []byte("rendered"), nil
	}

	for i := 0; i < 3; i++ {
		page, err := pc.GetOrRender("k", render)
		require.NoError(t, err)
		assert.Equal(t, "rendered", string(page))
	}
	assert.Equal(t, 1, calls)
}

func TestPageCache_RenderErrorNotCached(t *testing.T) {
	pc := NewPageCache(time.Minute)

	_, err := pc.GetOrRender("k", func() ([]byte, error) { return nil, errors.New("boom") })
	require.Error(t, err)
	assert.Equal(t, 0, pc.ItemCount())
}

func TestPageCache_InvalidatePrefix(t *testing.T) {
	pc := NewPageCache(0)
	pc.Set(EventPageKey("ir_1_2_w0", "ics"), []byte("a"))
	pc.Set(EventPageKey("ir_1_2_w0", "links"), []byte("b"))
	pc.Set(EventPageKey("ir_1_2_w1", "ics"), []byte("c"))
	pc.Set(ListPagePrefix+"upcoming", []byte("d"))

	assert.Equal(t, 2, pc.InvalidatePrefix(EventPagePrefix("ir_1_2_w0")))
	assert.Equal(t, 2, pc.ItemCount())

	_, ok := pc.Get(EventPageKey("ir_1_2_w1", "ics"))
	assert.True(t, ok)

	pc.Flush()
	assert.Equal(t, 0, pc.ItemCount())
}
