package render

import (
	"fmt"
	"math"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"
)

// Fonts caches faces of the UI font by pixel size.
type Fonts struct {
	mu     sync.Mutex
	source *text.FontSource
	faces  map[float64]text.Face
}

func NewFonts() (*Fonts, error) {
	source, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("load ui font: %w", err)
	}
	return &Fonts{source: source, faces: make(map[float64]text.Face)}, nil
}

// Face returns a face for size device pixels. Sizes are quantized to half
// pixels so zooming does not grow the cache without bound.
func (f *Fonts) Face(size float64) text.Face {
	size = max(1, math.Round(size*2)/2)

	f.mu.Lock()
	defer f.mu.Unlock()

	face, ok := f.faces[size]
	if !ok {
		face = f.source.Face(size)
		f.faces[size] = face
	}
	return face
}
