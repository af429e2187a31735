// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package text

import (
	"cmp"
	"slices"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// glyphMetrics are the font.Face measurements of one rune.
type glyphMetrics struct {
	bounds  fixed.Rectangle26_6
	advance fixed.Int26_6
	ok      bool
}

// metricsCache memoizes glyph metrics of one face with a soft limit. When
// the limit is exceeded the least recently used quarter is evicted.
//
// metricsCache is not safe for concurrent use.
type metricsCache struct {
	face      font.Face
	entries   map[rune]*metricsEntry
	softLimit int
	tick      int64
	hits      uint64
	misses    uint64
}

type metricsEntry struct {
	metrics glyphMetrics
	atime   int64
}

// newMetricsCache creates a cache for face. A softLimit of 0 means unlimited.
func newMetricsCache(face font.Face, softLimit int) *metricsCache {
	return &metricsCache{
		face:      face,
		entries:   make(map[rune]*metricsEntry),
		softLimit: softLimit,
	}
}

// get returns the metrics of r, measuring the face on a miss.
func (c *metricsCache) get(r rune) glyphMetrics {
	c.tick++
	if e, ok := c.entries[r]; ok {
		e.atime = c.tick
		c.hits++
		return e.metrics
	}
	c.misses++

	var m glyphMetrics
	m.bounds, m.advance, m.ok = c.face.GlyphBounds(r)
	c.entries[r] = &metricsEntry{metrics: m, atime: c.tick}
	if c.softLimit > 0 && len(c.entries) > c.softLimit {
		c.evictOldest()
	}
	return m
}

// kern returns the kerning adjustment between two runes. Kerning pairs are
// not cached; most faces answer from a table lookup.
func (c *metricsCache) kern(r0, r1 rune) fixed.Int26_6 {
	return c.face.Kern(r0, r1)
}

func (c *metricsCache) len() int { return len(c.entries) }

func (c *metricsCache) evictOldest() {
	target := max(1, c.softLimit*3/4)
	toEvict := len(c.entries) - target
	if toEvict <= 0 {
		return
	}

	type aged struct {
		r     rune
		atime int64
	}
	all := make([]aged, 0, len(c.entries))
	for r, e := range c.entries {
		all = append(all, aged{r: r, atime: e.atime})
	}
	slices.SortFunc(all, func(a, b aged) int { return cmp.Compare(a.atime, b.atime) })
	for _, a := range all[:toEvict] {
		delete(c.entries, a.r)
	}
}
