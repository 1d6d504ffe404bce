package styles

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultRenderCacheSize bounds how many rendered documents are kept.
const DefaultRenderCacheSize = 64

// GetMarkdownRenderer returns a glamour TermRenderer configured with the current theme
func GetMarkdownRenderer(width int) (*glamour.TermRenderer, error) {
	return glamour.NewTermRenderer(
		glamour.WithStylePath(CurrentTheme().MarkdownStyle()),
		glamour.WithWordWrap(width),
	)
}

type renderKey struct {
	id    string
	width int
	theme string
}

// MarkdownCache renders markdown once per (id, width, theme). Callers pick an
// id that changes whenever the source does, such as a session id plus the
// ticket of the displayed result.
type MarkdownCache struct {
	mu        sync.Mutex
	cache     *lru.Cache[renderKey, string]
	renderers map[int]*glamour.TermRenderer
	theme     string
}

// NewMarkdownCache creates a cache holding up to size documents.
func NewMarkdownCache(size int) (*MarkdownCache, error) {
	if size <= 0 {
		size = DefaultRenderCacheSize
	}
	cache, err := lru.New[renderKey, string](size)
	if err != nil {
		return nil, err
	}
	return &MarkdownCache{
		cache:     cache,
		renderers: make(map[int]*glamour.TermRenderer),
	}, nil
}

// Render returns the rendered document, rendering on a miss. Render failures
// fall back to the raw source.
func (c *MarkdownCache) Render(id string, width int, source string) string {
	if width < 10 {
		width = 10
	}
	theme := CurrentTheme().Name
	key := renderKey{id: id, width: width, theme: theme}

	c.mu.Lock()
	defer c.mu.Unlock()

	if out, ok := c.cache.Get(key); ok {
		return out
	}
	if theme != c.theme {
		c.renderers = make(map[int]*glamour.TermRenderer)
		c.theme = theme
	}

	r, ok := c.renderers[width]
	if !ok {
		var err error
		r, err = GetMarkdownRenderer(width)
		if err != nil {
			return source
		}
		c.renderers[width] = r
	}
	out, err := r.Render(source)
	if err != nil {
		return source
	}
	out = strings.Trim(out, "\n")
	c.cache.Add(key, out)
	return out
}

// Len reports how many documents are cached.
func (c *MarkdownCache) Len() int {
	return c.cache.Len()
}

// Purge drops every cached document.
func (c *MarkdownCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Purge()
}
