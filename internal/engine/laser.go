package engine

import (
	"cmp"
	"slices"

	"github.com/inkboard/inkboard/client-go/internal/geom"
	"github.com/inkboard/inkboard/client-go/internal/render"
)

const laserTrailLen = 30

type laserTrail struct {
	username string
	points   []geom.Point
}

// LaserTrails tracks the recent laser pointer positions of remote peers.
type LaserTrails struct {
	trails map[string]*laserTrail
}

func NewLaserTrails() *LaserTrails {
	return &LaserTrails{trails: make(map[string]*laserTrail)}
}

// Move appends p to the user's trail, keeping the most recent points.
func (l *LaserTrails) Move(userID, username string, p geom.Point) {
	t, ok := l.trails[userID]
	if !ok {
		t = &laserTrail{}
		l.trails[userID] = t
	}
	t.username = username
	t.points = append(t.points, p)
	if n := len(t.points); n > laserTrailLen {
		t.points = slices.Delete(t.points, 0, n-laserTrailLen)
	}
}

// Stop removes the user's trail.
func (l *LaserTrails) Stop(userID string) bool {
	if _, ok := l.trails[userID]; !ok {
		return false
	}
	delete(l.trails, userID)
	return true
}

// Lasers returns the trails in render form, ordered by user id.
func (l *LaserTrails) Lasers() []render.Laser {
	ids := make([]string, 0, len(l.trails))
	for id := range l.trails {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, cmp.Compare[string])

	out := make([]render.Laser, 0, len(ids))
	for _, id := range ids {
		t := l.trails[id]
		out = append(out, render.Laser{Username: t.username, Points: slices.Clone(t.points)})
	}
	return out
}
