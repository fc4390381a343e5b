package main

import "math"

// PointerEvent is a raw pointer event forwarded by the host, with
// coordinates in viewport space.
type PointerEvent struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// WheelEvent is a raw wheel event at a viewport position. DeltaY follows
// the browser convention: negative means scrolling up (zoom in).
type WheelEvent struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	DeltaY float64 `json:"deltaY"`
}

// TouchPoint is one active finger in a touch event.
type TouchPoint struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// dragSession tracks a single active drag. At most one exists at a time;
// pointer-downs while one is active are ignored so overlapping gestures
// cannot produce inconsistent offset deltas.
type dragSession struct {
	pointerID    int
	startX       float64
	startY       float64
	startOffsetX float64
	startOffsetY float64
}

// pinchSession tracks a two-finger zoom by the distance between fingers.
type pinchSession struct {
	lastDistance float64
}

// Each handler below returns whether the event was consumed, so the host
// can decide on default-action suppression (page scroll, browser pinch).
// Events arriving before an image and frame exist are not consumed.

// PointerDown starts a drag at the event position. Ignored while another
// drag is active.
func (e *Engine) PointerDown(ev PointerEvent) bool {
	if !e.Ready() || e.drag != nil {
		return false
	}
	e.drag = &dragSession{
		pointerID:    ev.ID,
		startX:       ev.X,
		startY:       ev.Y,
		startOffsetX: e.view.OffsetX,
		startOffsetY: e.view.OffsetY,
	}
	return true
}

// PointerMove pans the view by the delta from the drag start. The offset is
// recomputed from the session's start values rather than accumulated, so a
// drag is exact regardless of scale or event coalescing.
func (e *Engine) PointerMove(ev PointerEvent) bool {
	if e.drag == nil || e.drag.pointerID != ev.ID {
		return false
	}
	e.view.OffsetX = e.drag.startOffsetX + (ev.X - e.drag.startX)
	e.view.OffsetY = e.drag.startOffsetY + (ev.Y - e.drag.startY)
	return true
}

// PointerUp ends the active drag.
func (e *Engine) PointerUp(ev PointerEvent) bool {
	if e.drag == nil || e.drag.pointerID != ev.ID {
		return false
	}
	e.drag = nil
	return true
}

// Wheel zooms by one step anchored at the cursor position. The event is
// consumed whenever the engine is ready, even if the zoom clamp absorbs the
// whole change, so the page never scrolls under the editor.
func (e *Engine) Wheel(ev WheelEvent) bool {
	if !e.Ready() {
		return false
	}
	factor := 1 + e.cfg.ZoomStep
	if ev.DeltaY > 0 {
		factor = 1 - e.cfg.ZoomStep
	}
	e.view.zoomAt(factor, ev.X, ev.Y, e.cfg.MinZoom, e.cfg.MaxZoom)
	return true
}

// TouchStart begins a drag for a single finger, or a pinch for two. A
// second finger ends the drag; fingers beyond the second are ignored.
func (e *Engine) TouchStart(touches []TouchPoint) bool {
	if !e.Ready() || len(touches) == 0 {
		return false
	}
	if len(touches) >= 2 {
		e.drag = nil
		e.pinch = &pinchSession{lastDistance: touchDistance(touches[0], touches[1])}
		return true
	}
	if e.drag != nil {
		return false
	}
	t := touches[0]
	e.drag = &dragSession{
		pointerID:    t.ID,
		startX:       t.X,
		startY:       t.Y,
		startOffsetX: e.view.OffsetX,
		startOffsetY: e.view.OffsetY,
	}
	return true
}

// TouchMove continues the active pinch or drag.
func (e *Engine) TouchMove(touches []TouchPoint) bool {
	if e.pinch != nil && len(touches) >= 2 {
		distance := touchDistance(touches[0], touches[1])
		if e.pinch.lastDistance > 0 && distance > 0 {
			midX := (touches[0].X + touches[1].X) / 2
			midY := (touches[0].Y + touches[1].Y) / 2
			e.view.zoomAt(distance/e.pinch.lastDistance, midX, midY, e.cfg.MinZoom, e.cfg.MaxZoom)
		}
		e.pinch.lastDistance = distance
		return true
	}
	if e.drag != nil && len(touches) == 1 {
		return e.PointerMove(PointerEvent{ID: touches[0].ID, X: touches[0].X, Y: touches[0].Y})
	}
	return false
}

// TouchEnd receives the fingers still down. A pinch falling below two
// fingers ends; a single remaining finger starts a fresh drag from its
// current position.
func (e *Engine) TouchEnd(touches []TouchPoint) bool {
	consumed := false
	if e.pinch != nil && len(touches) < 2 {
		e.pinch = nil
		consumed = true
	}
	if e.drag != nil && len(touches) == 0 {
		e.drag = nil
		consumed = true
	}
	if e.drag == nil && e.pinch == nil && len(touches) == 1 && e.Ready() {
		t := touches[0]
		e.drag = &dragSession{
			pointerID:    t.ID,
			startX:       t.X,
			startY:       t.Y,
			startOffsetX: e.view.OffsetX,
			startOffsetY: e.view.OffsetY,
		}
		consumed = true
	}
	return consumed
}

func touchDistance(a, b TouchPoint) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}
