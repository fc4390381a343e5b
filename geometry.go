package main

// frameMarginRatio is the fraction of each viewport axis the crop frame may
// occupy; the remaining 10% per axis stays clear around it.
const frameMarginRatio = 0.9

// Viewport is the size of the editing surface in device-independent pixels.
// It is owned by the host; the engine only reads it.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (v Viewport) valid() bool {
	return v.Width > 0 && v.Height > 0
}

// Frame is the fixed-aspect-ratio crop rectangle, centered in the viewport.
// All coordinates are in viewport space.
type Frame struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// CenterX returns the horizontal center of the frame in viewport space.
func (f *Frame) CenterX() float64 {
	return f.Left + f.Width/2
}

// CenterY returns the vertical center of the frame in viewport space.
func (f *Frame) CenterY() float64 {
	return f.Top + f.Height/2
}

// AspectRatio returns width/height of the frame.
func (f *Frame) AspectRatio() float64 {
	return f.Width / f.Height
}

// computeFrame returns the largest rectangle of exactly the given aspect
// ratio that fits inside the viewport with a 10% margin on each axis,
// centered. It returns nil when either viewport dimension is non-positive;
// the frame is then undefined and rendering/extraction must not proceed.
func computeFrame(vp Viewport, aspectRatio float64) *Frame {
	if !vp.valid() || aspectRatio <= 0 {
		return nil
	}

	availableWidth := vp.Width * frameMarginRatio
	availableHeight := vp.Height * frameMarginRatio

	var frameWidth, frameHeight float64
	if availableWidth/availableHeight > aspectRatio {
		// Available area is relatively wider than the target ratio:
		// height is the binding constraint.
		frameHeight = availableHeight
		frameWidth = frameHeight * aspectRatio
	} else {
		frameWidth = availableWidth
		frameHeight = frameWidth / aspectRatio
	}

	left := (vp.Width - frameWidth) / 2
	top := (vp.Height - frameHeight) / 2

	return &Frame{
		Left:   left,
		Top:    top,
		Width:  frameWidth,
		Height: frameHeight,
		Right:  left + frameWidth,
		Bottom: top + frameHeight,
	}
}
