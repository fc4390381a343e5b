package main

import (
	"fmt"
	"image"
)

// EngineConfig holds the immutable per-session parameters.
type EngineConfig struct {
	// AspectRatio is the target width/height ratio of the crop frame.
	AspectRatio float64 `json:"aspectRatio"`
	// MinZoom and MaxZoom bound every explicit zoom operation. A fresh
	// fit may land outside this range; see fitToFrame.
	MinZoom float64 `json:"minZoom"`
	MaxZoom float64 `json:"maxZoom"`
	// ZoomStep is the per-notch zoom increment: wheel and button zooms
	// multiply the scale by 1±ZoomStep.
	ZoomStep float64 `json:"zoomStep"`
}

func (c EngineConfig) validate() error {
	if c.AspectRatio <= 0 {
		return fmt.Errorf("%w: aspect ratio must be positive, got %g", ErrInvalidInput, c.AspectRatio)
	}
	if c.MinZoom <= 0 {
		return fmt.Errorf("%w: min zoom must be positive, got %g", ErrInvalidInput, c.MinZoom)
	}
	if c.MaxZoom < c.MinZoom {
		return fmt.Errorf("%w: max zoom %g below min zoom %g", ErrInvalidInput, c.MaxZoom, c.MinZoom)
	}
	if c.ZoomStep <= 0 {
		return fmt.Errorf("%w: zoom step must be positive, got %g", ErrInvalidInput, c.ZoomStep)
	}
	return nil
}

// sourceImage is the currently loaded bitmap. Immutable once installed;
// exactly zero or one is present per engine.
type sourceImage struct {
	handle string
	img    image.Image
	width  int
	height int
}

// Engine holds all state of one editing session: configuration, viewport,
// frame, source image, view and the active drag. It has no global state, so
// independent sessions are independent instances. All methods are plain
// state transitions; the caller serializes them (one event at a time).
type Engine struct {
	cfg      EngineConfig
	viewport Viewport
	frame    *Frame
	source   *sourceImage
	view     ViewState

	drag  *dragSession
	pinch *pinchSession

	// loadGen invalidates pending loads: only the most recently started
	// load may install its result (last-load-wins).
	loadGen uint64
}

// NewEngine creates an engine for one editing session.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, view: defaultView()}, nil
}

// Config returns the session configuration.
func (e *Engine) Config() EngineConfig {
	return e.cfg
}

// Configure replaces the session configuration and recomputes the frame.
func (e *Engine) Configure(cfg EngineConfig) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	e.cfg = cfg
	e.frame = computeFrame(e.viewport, cfg.AspectRatio)
	return nil
}

// SetViewport records a new editing-surface size and recomputes the frame.
// A degenerate size leaves the frame undefined; dependent operations then
// short-circuit to ErrNotReady instead of dividing by zero.
func (e *Engine) SetViewport(width, height float64) {
	e.viewport = Viewport{Width: width, Height: height}
	e.frame = computeFrame(e.viewport, e.cfg.AspectRatio)
}

// Ready reports whether an image is loaded and the frame is defined.
func (e *Engine) Ready() bool {
	return e.source != nil && e.frame != nil
}

// beginLoad starts a new load attempt and returns its generation. Starting
// a new load invalidates any pending one; the decode itself happens off the
// engine, and the result is applied with completeLoad/failLoad.
func (e *Engine) beginLoad() uint64 {
	e.loadGen++
	return e.loadGen
}

// completeLoad installs a decoded image if gen is still the current load
// generation. On success the drag is dropped and the view is re-fit to the
// frame. It reports whether the result was applied; a stale generation is
// discarded without touching state.
func (e *Engine) completeLoad(gen uint64, handle string, img image.Image) bool {
	if gen != e.loadGen {
		return false
	}
	bounds := img.Bounds()
	e.source = &sourceImage{
		handle: handle,
		img:    img,
		width:  bounds.Dx(),
		height: bounds.Dy(),
	}
	e.drag = nil
	e.pinch = nil
	e.view = fitToFrame(e.source.width, e.source.height, e.frame)
	return true
}

// failLoad rolls the engine back to "no image loaded" if gen is still the
// current load generation, so a decode failure never leaves the session
// half-initialized.
func (e *Engine) failLoad(gen uint64) {
	if gen != e.loadGen {
		return
	}
	e.source = nil
	e.drag = nil
	e.pinch = nil
	e.view = defaultView()
}

// Fit recenters the loaded image in the frame at the fit scale.
func (e *Engine) Fit() error {
	if !e.Ready() {
		return ErrNotReady
	}
	e.view = fitToFrame(e.source.width, e.source.height, e.frame)
	return nil
}

// ZoomAt multiplies the scale by factor anchored at the given viewport
// point, clamped to the configured range. It reports whether the view
// changed.
func (e *Engine) ZoomAt(factor, screenX, screenY float64) bool {
	if !e.Ready() {
		return false
	}
	return e.view.zoomAt(factor, screenX, screenY, e.cfg.MinZoom, e.cfg.MaxZoom)
}

// ZoomIn zooms by one step anchored at the frame center.
func (e *Engine) ZoomIn() bool {
	if !e.Ready() {
		return false
	}
	return e.ZoomAt(1+e.cfg.ZoomStep, e.frame.CenterX(), e.frame.CenterY())
}

// ZoomOut zooms out by one step anchored at the frame center.
func (e *Engine) ZoomOut() bool {
	if !e.Ready() {
		return false
	}
	return e.ZoomAt(1-e.cfg.ZoomStep, e.frame.CenterX(), e.frame.CenterY())
}

// Pan shifts the view by the given viewport-space delta.
func (e *Engine) Pan(deltaX, deltaY float64) bool {
	if !e.Ready() {
		return false
	}
	e.view.pan(deltaX, deltaY)
	return true
}

// Clear drops the loaded image and resets the view and any active gesture.
// Pending loads are invalidated.
func (e *Engine) Clear() {
	e.loadGen++
	e.source = nil
	e.drag = nil
	e.pinch = nil
	e.view = defaultView()
}

// Destroy ends the session. Equivalent to Clear; the instance must not be
// used afterwards.
func (e *Engine) Destroy() {
	e.Clear()
}

// View returns the current transform of the displayed image.
func (e *Engine) View() ViewState {
	return e.view
}

// Frame returns the current crop frame, or nil while undefined.
func (e *Engine) Frame() *Frame {
	return e.frame
}

// RenderState is the full rendering contract emitted to the host after every
// state change: the transform to apply to the displayed image, plus the
// frame rectangle and viewport size for the dimming overlay. The host paints
// the overlay as the viewport minus the frame interior (hole punch); it must
// use this exact frame so overlay, gestures and extraction never diverge.
type RenderState struct {
	Viewport Viewport   `json:"viewport"`
	Frame    *Frame     `json:"frame,omitempty"`
	View     ViewState  `json:"view"`
	Ready    bool       `json:"ready"`
	Image    *ImageInfo `json:"image,omitempty"`
	Handle   string     `json:"handle,omitempty"`
}

// RenderState returns the current rendering contract.
func (e *Engine) RenderState() RenderState {
	rs := RenderState{
		Viewport: e.viewport,
		Frame:    e.frame,
		View:     e.view,
		Ready:    e.Ready(),
	}
	if e.source != nil {
		rs.Image = &ImageInfo{Width: e.source.width, Height: e.source.height}
		rs.Handle = e.source.handle
	}
	return rs
}

// CroppedImage extracts the pixels currently inside the frame into an
// encoded output image of the given width; the output height follows from
// the configured aspect ratio. Fails with ErrNotReady before an image and a
// frame exist, and with EncodeError on unsupported formats or degenerate
// output sizes. No partial output is returned on failure.
func (e *Engine) CroppedImage(format string, quality, outputWidth int) ([]byte, error) {
	if !e.Ready() {
		return nil, ErrNotReady
	}
	out, err := extractView(e.source.img, e.frame, e.view, outputWidth, e.cfg.AspectRatio)
	if err != nil {
		return nil, err
	}
	return encodeImage(out, format, quality)
}
