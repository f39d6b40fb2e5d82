package layout

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/image/font"
)

// Measurer reports the rendered pixel width of a string.
type Measurer interface {
	Width(s string) int
}

// FaceMeasurer measures strings with a font face.
type FaceMeasurer struct {
	Face font.Face
}

func (m FaceMeasurer) Width(s string) int {
	return font.MeasureString(m.Face, s).Ceil()
}

// CachedMeasurer memoizes widths from another Measurer.
type CachedMeasurer struct {
	inner Measurer
	cache *lru.Cache
}

// NewCachedMeasurer wraps inner with an LRU cache holding up to size entries.
func NewCachedMeasurer(inner Measurer, size int) (*CachedMeasurer, error) {
	if inner == nil {
		return nil, fmt.Errorf("layout: nil measurer")
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("layout: create width cache: %w", err)
	}
	return &CachedMeasurer{inner: inner, cache: cache}, nil
}

func (c *CachedMeasurer) Width(s string) int {
	if w, ok := c.cache.Get(s); ok {
		return w.(int)
	}
	w := c.inner.Width(s)
	c.cache.Add(s, w)
	return w
}
