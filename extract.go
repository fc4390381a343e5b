package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// extractView resamples the region of src currently inside the frame into a
// new image of outputWidth × round(outputWidth/outputAspectRatio) pixels.
//
// The frame rectangle is mapped back through the view into source pixel
// space: relative to the displayed image origin, then divided by the scale.
// Where the mapped rectangle reaches outside the source bounds (after
// aggressive panning) the output is padded with opaque black; only the
// intersection with the source is resampled. The padding rule is
// deterministic: the same view always yields the same bytes.
func extractView(src image.Image, frame *Frame, view ViewState, outputWidth int, outputAspectRatio float64) (*image.NRGBA, error) {
	if frame == nil || view.Scale <= 0 {
		return nil, ErrNotReady
	}
	if outputWidth <= 0 || outputAspectRatio <= 0 {
		return nil, &EncodeError{Err: fmt.Errorf("degenerate output size: width=%d aspect=%g", outputWidth, outputAspectRatio)}
	}
	outputHeight := int(math.Round(float64(outputWidth) / outputAspectRatio))
	if outputHeight <= 0 {
		return nil, &EncodeError{Err: fmt.Errorf("degenerate output size: %dx%d", outputWidth, outputHeight)}
	}

	// Frame top-left relative to the displayed image, then into source
	// pixel space.
	sourceX := (frame.Left - view.OffsetX) / view.Scale
	sourceY := (frame.Top - view.OffsetY) / view.Scale
	sourceW := frame.Width / view.Scale
	sourceH := frame.Height / view.Scale

	out := imaging.New(outputWidth, outputHeight, color.NRGBA{0, 0, 0, 255})

	bounds := src.Bounds()
	srcW := float64(bounds.Dx())
	srcH := float64(bounds.Dy())

	// Visible part of the mapped rectangle, in source pixel space with the
	// origin at the image's top-left corner.
	visX0 := math.Max(sourceX, 0)
	visY0 := math.Max(sourceY, 0)
	visX1 := math.Min(sourceX+sourceW, srcW)
	visY1 := math.Min(sourceY+sourceH, srcH)
	if visX1 <= visX0 || visY1 <= visY0 {
		// The image was panned fully out of the frame; the extraction is
		// valid and entirely padding.
		return out, nil
	}

	cropRect := image.Rect(
		bounds.Min.X+int(math.Floor(visX0)),
		bounds.Min.Y+int(math.Floor(visY0)),
		bounds.Min.X+int(math.Ceil(visX1)),
		bounds.Min.Y+int(math.Ceil(visY1)),
	)
	visible := imaging.Crop(src, cropRect)

	// Destination placement of the visible part, proportional to where it
	// sits inside the mapped rectangle.
	dstX0 := int(math.Round((visX0 - sourceX) / sourceW * float64(outputWidth)))
	dstY0 := int(math.Round((visY0 - sourceY) / sourceH * float64(outputHeight)))
	dstX1 := int(math.Round((visX1 - sourceX) / sourceW * float64(outputWidth)))
	dstY1 := int(math.Round((visY1 - sourceY) / sourceH * float64(outputHeight)))
	dstW := dstX1 - dstX0
	dstH := dstY1 - dstY0
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	resampled := imaging.Resize(visible, dstW, dstH, imaging.Lanczos)
	return imaging.Paste(out, resampled, image.Pt(dstX0, dstY0)), nil
}

// encodeImage encodes an extracted image in the requested format. Quality
// applies to JPEG only and is clamped to [1, 100]; zero selects the
// default. Unsupported formats fail with EncodeError.
func encodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch format {
	case "jpeg", "jpg", "image/jpeg":
		if quality <= 0 {
			quality = 90
		}
		if quality > 100 {
			quality = 100
		}
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case "png", "image/png":
		err = imaging.Encode(&buf, img, imaging.PNG)
	default:
		return nil, &EncodeError{Err: fmt.Errorf("unsupported format %q", format)}
	}
	if err != nil {
		return nil, &EncodeError{Err: err}
	}
	return buf.Bytes(), nil
}
