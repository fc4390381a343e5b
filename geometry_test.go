package main

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeFrameProperties(t *testing.T) {
	viewports := []Viewport{
		{Width: 1000, Height: 800},
		{Width: 800, Height: 1000},
		{Width: 1920, Height: 1080},
		{Width: 333, Height: 777},
		{Width: 50, Height: 50},
	}
	aspects := []float64{8.5 / 11, 1, 16.0 / 9, 0.25, 3}

	for _, vp := range viewports {
		for _, aspect := range aspects {
			t.Run(fmt.Sprintf("%gx%g_ar%.3f", vp.Width, vp.Height, aspect), func(t *testing.T) {
				frame := computeFrame(vp, aspect)
				require.NotNil(t, frame)

				assert.InDelta(t, aspect, frame.Width/frame.Height, 1e-9, "aspect ratio")
				assert.LessOrEqual(t, frame.Width, 0.9*vp.Width+1e-9, "width margin")
				assert.LessOrEqual(t, frame.Height, 0.9*vp.Height+1e-9, "height margin")

				// Centered: left and right margins mirror each other.
				assert.InDelta(t, frame.Left, vp.Width-frame.Right, 1e-9)
				assert.InDelta(t, frame.Top, vp.Height-frame.Bottom, 1e-9)

				// Largest such rectangle: one axis must bind exactly.
				widthBound := math.Abs(frame.Width-0.9*vp.Width) < 1e-9
				heightBound := math.Abs(frame.Height-0.9*vp.Height) < 1e-9
				assert.True(t, widthBound || heightBound, "one axis binds")
			})
		}
	}
}

func TestComputeFrameLetterScenario(t *testing.T) {
	// 1000x800 viewport with a US-letter portrait ratio: the available
	// 900x720 area is relatively wider than the ratio, so height binds.
	aspect := 8.5 / 11
	frame := computeFrame(Viewport{Width: 1000, Height: 800}, aspect)
	require.NotNil(t, frame)

	assert.InDelta(t, 720, frame.Height, 1e-9)
	assert.InDelta(t, 720*aspect, frame.Width, 1e-9)
	assert.InDelta(t, (1000-720*aspect)/2, frame.Left, 1e-9)
	assert.InDelta(t, 40, frame.Top, 1e-9)
	assert.InDelta(t, 556.36, frame.Width, 0.01)
	assert.InDelta(t, 221.82, frame.Left, 0.01)

	assert.InDelta(t, 500, frame.CenterX(), 1e-9)
	assert.InDelta(t, 400, frame.CenterY(), 1e-9)
}

func TestComputeFrameDegenerate(t *testing.T) {
	tests := []struct {
		name   string
		vp     Viewport
		aspect float64
	}{
		{"zero width", Viewport{Width: 0, Height: 800}, 1},
		{"zero height", Viewport{Width: 1000, Height: 0}, 1},
		{"negative width", Viewport{Width: -10, Height: 800}, 1},
		{"zero aspect", Viewport{Width: 1000, Height: 800}, 0},
		{"negative aspect", Viewport{Width: 1000, Height: 800}, -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, computeFrame(tt.vp, tt.aspect))
		})
	}
}
