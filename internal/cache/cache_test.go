package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_SetAndGet(t *testing.T) {
	c := New()

	c.Set("key1", "value1", 10*time.Second)
	val, exists := c.Get("key1")
	assert.True(t, exists)
	assert.Equal(t, "value1", val)

	val, exists = c.Get("nonexistent")
	assert.False(t, exists)
	assert.Nil(t, val)
}

func TestCache_Expiration(t *testing.T) {
	c := New()

	c.Set("expiring", "value", 50*time.Millisecond)

	val, exists := c.Get("expiring")
	assert.True(t, exists)
	assert.Equal(t, "value", val)

	time.Sleep(80 * time.Millisecond)

	val, exists = c.Get("expiring")
	assert.False(t, exists)
	assert.Nil(t, val)

	// Expired item is removed lazily on read
	c.mutex.RLock()
	_, stillThere := c.items["expiring"]
	c.mutex.RUnlock()
	assert.False(t, stillThere)
}

func TestCache_UpdateValue(t *testing.T) {
	c := New()

	c.Set("key", "value1", 10*time.Second)
	c.Set("key", "value2", 10*time.Second)

	val, exists := c.Get("key")
	assert.True(t, exists)
	assert.Equal(t, "value2", val)
}

func TestCache_DeleteAndClear(t *testing.T) {
	c := New()

	c.Set("key1", "value1", 10*time.Second)
	c.Set("key2", "value2", 10*time.Second)

	c.Delete("key1")
	_, exists := c.Get("key1")
	assert.False(t, exists)

	// Delete of a missing key is a no-op
	c.Delete("nonexistent")

	c.Clear()
	_, exists = c.Get("key2")
	assert.False(t, exists)
}

func TestCache_NegativeTTL(t *testing.T) {
	c := New()

	c.Set("negative", "value", -1*time.Second)
	_, exists := c.Get("negative")
	assert.False(t, exists)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New()
	iterations := 100
	var wg sync.WaitGroup

	wg.Add(iterations * 3)
	for i := 0; i < iterations; i++ {
		go func(n int) {
			defer wg.Done()
			c.Set("key", n, 10*time.Second)
		}(i)

		go func() {
			defer wg.Done()
			c.Get("key")
		}()

		go func(n int) {
			defer wg.Done()
			if n%10 == 0 {
				c.Delete("key")
			}
		}(i)
	}
	wg.Wait()

	c.Set("final", "value", 10*time.Second)
	val, exists := c.Get("final")
	assert.True(t, exists)
	assert.Equal(t, "value", val)
}
