package pages

import (
	"html/template"
	"sync"
)

// pageCache holds parsed page templates keyed by their layout stack. Parsing
// happens once per stack; concurrent first requests for the same page share
// one parse.
type pageCache struct {
	mu    sync.Mutex
	pages map[string]*cachedPage
}

type cachedPage struct {
	once sync.Once
	tpl  *template.Template
	err  error
}

func newPageCache() *pageCache {
	return &pageCache{pages: make(map[string]*cachedPage)}
}

// load returns the template for key, calling parse the first time. A failed
// parse is not kept, so a later request tries again.
func (c *pageCache) load(key string, parse func() (*template.Template, error)) (*template.Template, error) {
	c.mu.Lock()
	entry, ok := c.pages[key]
	if !ok {
		entry = &cachedPage{}
		c.pages[key] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		entry.tpl, entry.err = parse()
	})

	if entry.err != nil {
		c.mu.Lock()
		if c.pages[key] == entry {
			delete(c.pages, key)
		}
		c.mu.Unlock()
		return nil, entry.err
	}
	return entry.tpl, nil
}
