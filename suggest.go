package main

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/muesli/smartcrop"
)

// suggestResizer adapts imaging to the smartcrop.Resizer interface.
type suggestResizer struct {
	resampler imaging.ResampleFilter
}

func (r suggestResizer) Resize(img image.Image, width, height uint) image.Image {
	return imaging.Resize(img, int(width), int(height), r.resampler)
}

// SuggestPlacement positions the view on the most interesting region of the
// source image, as scored by smartcrop against the frame's aspect ratio.
// The chosen region is scaled to cover the frame and centered under the
// frame center. Like a fresh fit, the resulting scale is not clamped to the
// configured zoom range.
func (e *Engine) SuggestPlacement() error {
	if !e.Ready() {
		return ErrNotReady
	}

	analyzer := smartcrop.NewAnalyzer(suggestResizer{resampler: imaging.Linear})
	region, err := analyzer.FindBestCrop(e.source.img, int(e.frame.Width), int(e.frame.Height))
	if err != nil {
		return fmt.Errorf("finding best placement: %w", err)
	}
	if region.Dx() <= 0 || region.Dy() <= 0 {
		return fmt.Errorf("finding best placement: empty region")
	}

	// Scale so the region covers the frame, then put the region center
	// under the frame center.
	scaleX := e.frame.Width / float64(region.Dx())
	scaleY := e.frame.Height / float64(region.Dy())
	scale := scaleX
	if scaleY > scale {
		scale = scaleY
	}

	bounds := e.source.img.Bounds()
	centerX := float64(region.Min.X-bounds.Min.X) + float64(region.Dx())/2
	centerY := float64(region.Min.Y-bounds.Min.Y) + float64(region.Dy())/2

	e.view = ViewState{
		Scale:   scale,
		OffsetX: e.frame.CenterX() - scale*centerX,
		OffsetY: e.frame.CenterY() - scale*centerY,
	}
	return nil
}
