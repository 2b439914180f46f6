package app

import "context"

const (
	// PullMaxDistance caps how far a pull is tracked.
	PullMaxDistance = 200
	// PullThreshold is the distance past which a release refreshes.
	PullThreshold = 80
	pullMaxOffset = 60
)

// PullGesture tracks a pull-to-refresh drag. It is not safe for concurrent use.
type PullGesture struct {
	startY   float64
	distance float64
	active   bool
}

// Start begins tracking when the list is scrolled to the top.
func (g *PullGesture) Start(y float64, scrollTop float64) {
	g.active = scrollTop <= 0
	g.startY = y
	g.distance = 0
}

func (g *PullGesture) Move(y float64) {
	if !g.active {
		return
	}
	if diff := y - g.startY; diff > 0 {
		g.distance = min(diff, PullMaxDistance)
	}
}

func (g *PullGesture) Distance() float64 { return g.distance }

// Offset is how far the refresh indicator is drawn below its rest position.
func (g *PullGesture) Offset() float64 {
	return min(g.distance/2, pullMaxOffset)
}

// Release ends the gesture and reports whether it should refresh.
func (g *PullGesture) Release() bool {
	trigger := g.active && g.distance > PullThreshold
	g.active = false
	g.distance = 0
	return trigger
}

// ReleasePull ends g and refreshes c when the pull went far enough.
func (c *Controller) ReleasePull(ctx context.Context, g *PullGesture) (bool, error) {
	if !g.Release() {
		return false, nil
	}
	return true, c.Refresh(ctx)
}
