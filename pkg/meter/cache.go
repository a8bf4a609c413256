package meter

import "sync"

// Cache holds the latest reading of every meter.
type Cache struct {
	data map[string]*Data
	sync.RWMutex
}

func NewCache() *Cache {
	return &Cache{
		data: make(map[string]*Data),
	}
}

func (c *Cache) Get(id string) *Data {
	c.RLock()
	defer c.RUnlock()
	return c.data[id]
}

func (c *Cache) Set(d *Data) {
	c.Lock()
	c.data[d.Id] = d
	c.Unlock()
}

func (c *Cache) All() []*Data {
	c.RLock()
	defer c.RUnlock()
	out := make([]*Data, 0, len(c.data))
	for _, d := range c.data {
		out = append(out, d)
	}
	return out
}
