package main

// ViewState places the source image in viewport space:
//
//	screenPoint = offset + scale*imagePoint
//
// Scale is uniform on both axes; there is no rotation or skew.
type ViewState struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// defaultView is the identity-like state used before any image is fitted.
func defaultView() ViewState {
	return ViewState{Scale: 1}
}

// ImagePoint converts a viewport-space point to source-image pixel space.
func (v ViewState) ImagePoint(screenX, screenY float64) (float64, float64) {
	return (screenX - v.OffsetX) / v.Scale, (screenY - v.OffsetY) / v.Scale
}

// ScreenPoint converts a source-image pixel point to viewport space.
func (v ViewState) ScreenPoint(imageX, imageY float64) (float64, float64) {
	return v.OffsetX + v.Scale*imageX, v.OffsetY + v.Scale*imageY
}

// fitToFrame chooses the scale that makes the source image fill the frame
// while preserving its native aspect ratio, and centers the scaled image on
// the frame's center. The axis on which the image is relatively tighter
// matches the frame exactly; the other axis overflows past the frame edges,
// so a fresh fit never leaves blank margin inside the frame.
//
// The fit scale is deliberately NOT clamped to the configured zoom range:
// the initial placement must fill the frame even when that scale lies
// outside [minZoom, maxZoom]. The next explicit zoom clamps as usual.
//
// Non-positive source or frame dimensions degrade to the identity view.
func fitToFrame(sourceWidth, sourceHeight int, frame *Frame) ViewState {
	if sourceWidth <= 0 || sourceHeight <= 0 || frame == nil || frame.Width <= 0 || frame.Height <= 0 {
		return defaultView()
	}

	imageAspect := float64(sourceWidth) / float64(sourceHeight)

	var scale float64
	if imageAspect > frame.AspectRatio() {
		// Image is relatively wider than the frame: bind on height, let the
		// width spill past the frame sides.
		scale = frame.Height / float64(sourceHeight)
	} else {
		scale = frame.Width / float64(sourceWidth)
	}

	scaledWidth := scale * float64(sourceWidth)
	scaledHeight := scale * float64(sourceHeight)

	return ViewState{
		Scale:   scale,
		OffsetX: frame.CenterX() - scaledWidth/2,
		OffsetY: frame.CenterY() - scaledHeight/2,
	}
}

// zoomAt multiplies the scale by factor, clamped to [minZoom, maxZoom], and
// recomputes the offset so the source point under (screenX, screenY) stays
// under that same screen point. It reports whether the view changed; when the
// clamp absorbs the whole change the call is a no-op.
func (v *ViewState) zoomAt(factor, screenX, screenY, minZoom, maxZoom float64) bool {
	oldScale := v.Scale
	newScale := oldScale * factor
	if newScale < minZoom {
		newScale = minZoom
	}
	if newScale > maxZoom {
		newScale = maxZoom
	}
	if newScale == oldScale {
		return false
	}

	imageX := (screenX - v.OffsetX) / oldScale
	imageY := (screenY - v.OffsetY) / oldScale

	v.Scale = newScale
	v.OffsetX = screenX - imageX*newScale
	v.OffsetY = screenY - imageY*newScale
	return true
}

// pan shifts the offset by the given viewport-space delta. The image may be
// dragged entirely outside the frame; that is a valid transient state.
func (v *ViewState) pan(deltaX, deltaY float64) {
	v.OffsetX += deltaX
	v.OffsetY += deltaY
}
