package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T, dir, name string, width, height int) string {
	t.Helper()
	data, err := encodeImage(quadrantImage(width, height), "png", 0)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestOperationUnmarshal(t *testing.T) {
	t.Run("crop", func(t *testing.T) {
		var op Operation
		err := json.Unmarshal([]byte(`{
			"type": "crop",
			"filename": "a.png",
			"frame": {"left": 10, "top": 20, "width": 50, "height": 40},
			"view": {"scale": 0.5, "offsetX": 10, "offsetY": 20},
			"output": {"format": "png", "width": 100, "aspectRatio": 1.25}
		}`), &op)
		require.NoError(t, err)
		require.NotNil(t, op.Crop)
		assert.Equal(t, "a.png", op.Crop.Filename)
		assert.Equal(t, 0.5, op.Crop.View.Scale)
		assert.Equal(t, 100, op.Crop.Output.Width)
	})

	t.Run("pick", func(t *testing.T) {
		var op Operation
		err := json.Unmarshal([]byte(`{"type": "pick", "filename": "b.jpg"}`), &op)
		require.NoError(t, err)
		require.NotNil(t, op.Pick)
		assert.Equal(t, "b.jpg", op.Pick.Filename)
	})

	t.Run("unknown", func(t *testing.T) {
		var op Operation
		assert.Error(t, json.Unmarshal([]byte(`{"type": "rotate"}`), &op))
	})
}

func TestCropOperationID(t *testing.T) {
	op := CropOperation{
		View:   ViewState{Scale: 0.5, OffsetX: 1, OffsetY: 2},
		Output: OutputSpec{Width: 100, AspectRatio: 1},
	}
	id := op.ID()
	assert.Len(t, id, 32)
	assert.Equal(t, id, op.ID(), "stable across calls")

	other := op
	other.View.Scale = 0.6
	assert.NotEqual(t, id, other.ID())
}

func TestOperationExecutor(t *testing.T) {
	baseDir := t.TempDir()
	outputDir := filepath.Join(baseDir, "output")
	writeTestPNG(t, baseDir, "source.png", 100, 80)

	executor := OperationExecutor{BaseDir: baseDir, OutputDir: outputDir}
	ctx := context.Background()

	t.Run("crop writes extracted rendition", func(t *testing.T) {
		op := CropOperation{
			Filename: "source.png",
			Frame:    *makeFrame(10, 20, 50, 40),
			View:     ViewState{Scale: 0.5, OffsetX: 10, OffsetY: 20},
			Output:   OutputSpec{Format: "png", Width: 200, AspectRatio: 1.25},
		}
		require.NoError(t, executor.Exec(ctx, []Operation{{Crop: &op}}))

		outPath := filepath.Join(outputDir, "source.png-"+op.ID()+".png")
		data, err := os.ReadFile(outPath)
		require.NoError(t, err)

		img, err := decodeImage(data)
		require.NoError(t, err)
		assert.Equal(t, 200, img.Bounds().Dx())
		assert.Equal(t, 160, img.Bounds().Dy())
	})

	t.Run("pick copies the original", func(t *testing.T) {
		op := PickOperation{Filename: "source.png"}
		require.NoError(t, executor.Exec(ctx, []Operation{{Pick: &op}}))

		original, err := os.ReadFile(filepath.Join(baseDir, "source.png"))
		require.NoError(t, err)
		copied, err := os.ReadFile(filepath.Join(outputDir, "source.png"))
		require.NoError(t, err)
		assert.Equal(t, original, copied)
	})

	t.Run("missing source fails", func(t *testing.T) {
		op := CropOperation{
			Filename: "nope.png",
			Frame:    *makeFrame(0, 0, 10, 10),
			View:     ViewState{Scale: 1},
			Output:   OutputSpec{Format: "png", Width: 10, AspectRatio: 1},
		}
		assert.Error(t, executor.Exec(ctx, []Operation{{Crop: &op}}))
	})

	t.Run("no operations is a no-op", func(t *testing.T) {
		assert.NoError(t, executor.Exec(ctx, nil))
	})
}
