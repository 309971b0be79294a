package engine

import (
	"cmp"
	"slices"

	"github.com/inkboard/inkboard/client-go/internal/board"
	"github.com/inkboard/inkboard/client-go/internal/geom"
)

// RemoteBuffer holds in-progress strokes streamed by remote peers, keyed by
// user id. Entries are a drawing overlay only; they never reach the layer
// store through this buffer.
type RemoteBuffer struct {
	strokes map[string]*board.Stroke
}

func NewRemoteBuffer() *RemoteBuffer {
	return &RemoteBuffer{strokes: make(map[string]*board.Stroke)}
}

// Start replaces the user's entry with a new in-progress stroke.
func (b *RemoteBuffer) Start(userID string, s board.Stroke) {
	s = s.Clone()
	s.Origin.UserID = userID
	b.strokes[userID] = &s
}

// Append adds a point to the user's in-progress stroke. It reports false
// for users with no entry; no entry is created implicitly.
func (b *RemoteBuffer) Append(userID string, p geom.Point) bool {
	s, ok := b.strokes[userID]
	if !ok {
		return false
	}
	s.Points = append(s.Points, p)
	return true
}

// Evict drops the user's entry.
func (b *RemoteBuffer) Evict(userID string) bool {
	if _, ok := b.strokes[userID]; !ok {
		return false
	}
	delete(b.strokes, userID)
	return true
}

// End drops the user's entry if it buffers strokeID.
func (b *RemoteBuffer) End(userID, strokeID string) bool {
	s, ok := b.strokes[userID]
	if !ok || s.ID != strokeID {
		return false
	}
	delete(b.strokes, userID)
	return true
}

// Retire drops every entry whose stroke id has been committed to layers.
func (b *RemoteBuffer) Retire(layers board.Layers) int {
	if len(b.strokes) == 0 {
		return 0
	}
	committed := make(map[string]bool, len(layers.Strokes))
	for _, s := range layers.Strokes {
		committed[s.ID] = true
	}

	n := 0
	for user, s := range b.strokes {
		if committed[s.ID] {
			delete(b.strokes, user)
			n++
		}
	}
	return n
}

func (b *RemoteBuffer) Len() int { return len(b.strokes) }

// Strokes returns copies of the buffered strokes ordered by user id.
func (b *RemoteBuffer) Strokes() []board.Stroke {
	out := make([]board.Stroke, 0, len(b.strokes))
	for _, s := range b.strokes {
		out = append(out, s.Clone())
	}
	slices.SortFunc(out, func(a, b board.Stroke) int {
		return cmp.Compare(a.Origin.UserID, b.Origin.UserID)
	})
	return out
}
