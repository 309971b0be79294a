package render

import "github.com/inkboard/inkboard/client-go/internal/board"

// PenProfile maps simulated pressure to width and opacity for one drawing
// instrument.
type PenProfile struct {
	PressureMin float64
	PressureMax float64
	WidthMult   float64
	Alpha       float64
}

var penProfiles = map[board.PenType]PenProfile{
	board.PenFine:        {PressureMin: 0.85, PressureMax: 1.0, WidthMult: 0.6, Alpha: 1.0},
	board.PenBallpoint:   {PressureMin: 0.6, PressureMax: 1.1, WidthMult: 1.0, Alpha: 1.0},
	board.PenFountain:    {PressureMin: 0.3, PressureMax: 1.4, WidthMult: 1.3, Alpha: 1.0},
	board.PenCalligraphy: {PressureMin: 0.2, PressureMax: 2.0, WidthMult: 1.6, Alpha: 1.0},
	board.PenMarker:      {PressureMin: 0.9, PressureMax: 1.1, WidthMult: 2.5, Alpha: 0.75},
}

// Profile returns the profile for pen, defaulting to ballpoint.
func Profile(pen board.PenType) PenProfile {
	if p, ok := penProfiles[pen]; ok {
		return p
	}
	return penProfiles[board.PenBallpoint]
}

// speedForMinPressure is the segment length at which simulated pressure
// reaches zero before clamping.
const speedForMinPressure = 200

// PressureFactor simulates pen pressure from the length of one segment:
// fast, long segments thin the line.
func (p PenProfile) PressureFactor(speed float64) float64 {
	return max(p.PressureMin, min(p.PressureMax, 1-speed/speedForMinPressure))
}
