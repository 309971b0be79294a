package engine

import (
	"context"
	"image"
	"log/slog"

	"github.com/gogpu/gg"

	"github.com/inkboard/inkboard/client-go/internal/board"
)

// BitmapProvider resolves an image source reference to a decoded bitmap.
type BitmapProvider interface {
	Load(ctx context.Context, src string) (image.Image, error)
}

type bitmapResult struct {
	id, src string
	buf     *gg.ImageBuf
	err     error
}

// BitmapCache holds decoded bitmaps keyed by element id. Loads run in the
// background; their results are applied by Drain on the engine's goroutine.
type BitmapCache struct {
	provider BitmapProvider
	ready    map[string]*gg.ImageBuf
	srcs     map[string]string
	pending  map[string]string
	failed   map[string]string
	results  chan bitmapResult
}

func NewBitmapCache(provider BitmapProvider) *BitmapCache {
	return &BitmapCache{
		provider: provider,
		ready:    make(map[string]*gg.ImageBuf),
		srcs:     make(map[string]string),
		pending:  make(map[string]string),
		failed:   make(map[string]string),
		results:  make(chan bitmapResult, 16),
	}
}

// Sync starts loads for image elements not yet cached and prunes bitmaps
// whose element is gone or whose source changed.
func (c *BitmapCache) Sync(ctx context.Context, elements []board.Element) {
	live := make(map[string]string)
	for _, e := range elements {
		if e.Type == board.ElementImage && e.Src != "" {
			live[e.ID] = e.Src
		}
	}

	for id, src := range c.srcs {
		if live[id] != src {
			delete(c.ready, id)
			delete(c.srcs, id)
		}
	}
	for id, src := range c.failed {
		if live[id] != src {
			delete(c.failed, id)
		}
	}
	for id, src := range c.pending {
		if live[id] != src {
			delete(c.pending, id)
		}
	}

	if c.provider == nil {
		return
	}
	for id, src := range live {
		if c.srcs[id] == src || c.pending[id] == src || c.failed[id] == src {
			continue
		}
		c.pending[id] = src
		go c.load(ctx, id, src)
	}
}

func (c *BitmapCache) load(ctx context.Context, id, src string) {
	img, err := c.provider.Load(ctx, src)
	res := bitmapResult{id: id, src: src, err: err}
	if err == nil {
		res.buf = gg.ImageBufFromImage(img)
	}
	select {
	case c.results <- res:
	case <-ctx.Done():
	}
}

// Drain applies finished loads and reports whether any bitmap became
// available.
func (c *BitmapCache) Drain() bool {
	loaded := false
	for {
		select {
		case res := <-c.results:
			if c.pending[res.id] != res.src {
				continue
			}
			delete(c.pending, res.id)
			if res.err != nil {
				slog.Warn("bitmap load failed", "element", res.id, "src", res.src, "error", res.err)
				c.failed[res.id] = res.src
				continue
			}
			c.ready[res.id] = res.buf
			c.srcs[res.id] = res.src
			loaded = true
		default:
			return loaded
		}
	}
}

// Bitmaps returns the loaded bitmaps keyed by element id.
func (c *BitmapCache) Bitmaps() map[string]*gg.ImageBuf {
	return c.ready
}

// Pending reports the number of loads in flight.
func (c *BitmapCache) Pending() int { return len(c.pending) }
