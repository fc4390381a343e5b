package main

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

type Operations = []Operation

type Operation struct {
	Crop *CropOperation
	Pick *PickOperation
}

// unmarshal
func (o *Operation) UnmarshalJSON(data []byte) error {
	var op struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &op); err != nil {
		return fmt.Errorf("failed to unmarshal operation: %w", err)
	}

	switch op.Type {
	case "crop":
		var crop CropOperation
		if err := json.Unmarshal(data, &crop); err != nil {
			return fmt.Errorf("failed to unmarshal crop operation: %w", err)
		}
		o.Crop = &crop
	case "pick":
		var pick PickOperation
		if err := json.Unmarshal(data, &pick); err != nil {
			return fmt.Errorf("failed to unmarshal pick operation: %w", err)
		}
		o.Pick = &pick
	default:
		return fmt.Errorf("unknown operation %q", op.Type)
	}
	return nil
}

// OutputSpec describes the requested output rendition.
type OutputSpec struct {
	// Format is the output encoding: "jpeg" or "png".
	Format string `json:"format"`
	// Quality applies to JPEG only; zero selects the default.
	Quality int `json:"quality"`
	// Width is the output pixel width; height follows from AspectRatio.
	Width int `json:"width"`
	// AspectRatio is the output width/height ratio, normally the frame's.
	AspectRatio float64 `json:"aspectRatio"`
}

// CropOperation is one saved extraction: the frame and view captured at save
// time, applied to the named source file.
type CropOperation struct {
	Filename string     `json:"filename"`
	Frame    Frame      `json:"frame"`
	View     ViewState  `json:"view"`
	Output   OutputSpec `json:"output"`
}

func (c CropOperation) String() string {
	return fmt.Sprintf("crop(scale=%.4f,ox=%.2f,oy=%.2f,w=%d,ar=%.4f)",
		c.View.Scale, c.View.OffsetX, c.View.OffsetY, c.Output.Width, c.Output.AspectRatio)
}

// ID is a stable name fragment derived from the captured transform, so the
// same saved crop always lands in the same output file.
func (c CropOperation) ID() string {
	m := md5.New()
	_, err := m.Write([]byte(c.String()))
	if err != nil {
		log.Error().Err(err).Msg("failed to hash crop string")
		return ""
	}
	return fmt.Sprintf("%x", m.Sum(nil))
}

type PickOperation struct {
	Filename string `json:"filename"`
}

type OperationExecutor struct {
	BaseDir   string
	OutputDir string
}

func (r OperationExecutor) Exec(ctx context.Context, ops []Operation) error {
	if len(ops) == 0 {
		log.Ctx(ctx).Warn().Msg("no operations to execute")
		return nil
	}

	pooler := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(runtime.NumCPU())

	if err := os.MkdirAll(r.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", r.OutputDir, err)
	}
	for _, op := range ops {
		pooler.Go(func(ctx context.Context) error {
			if err := r.executeOperation(ctx, op); err != nil {
				log.Ctx(ctx).Error().Err(err).
					Interface("op", op).
					Msg("failed to execute operation")
				return err
			}
			return nil
		})
	}

	if err := pooler.Wait(); err != nil {
		log.Ctx(ctx).Error().
			Err(err).
			Msg("finished with errors")
		return err
	}

	return nil
}

func (r OperationExecutor) executeOperation(ctx context.Context, op Operation) error {
	if op.Crop != nil {
		return r.executeCrop(ctx, *op.Crop)
	} else if op.Pick != nil {
		return r.executePick(ctx, *op.Pick)
	}
	return nil
}

func (r OperationExecutor) executeCrop(ctx context.Context, op CropOperation) error {
	log.Ctx(ctx).Info().Str("filename", op.Filename).Msg("cropping")
	sourcePath := filepath.Join(r.BaseDir, op.Filename)
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", sourcePath, err)
	}

	img, err := decodeImage(data)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", sourcePath, err)
	}

	out, err := extractView(img, &op.Frame, op.View, op.Output.Width, op.Output.AspectRatio)
	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", sourcePath, err)
	}
	encoded, err := encodeImage(out, op.Output.Format, op.Output.Quality)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", sourcePath, err)
	}

	newName := fmt.Sprintf("%s-%s.%s", filepath.Base(op.Filename), op.ID(), outputExtension(op.Output.Format))
	croppedPath := filepath.Join(r.OutputDir, newName)
	if err := os.WriteFile(croppedPath, encoded, 0644); err != nil {
		return fmt.Errorf("failed to write cropped file %s: %w", newName, err)
	}
	return nil
}

func outputExtension(format string) string {
	if strings.Contains(format, "png") {
		return "png"
	}
	return "jpg"
}

func (r OperationExecutor) executePick(ctx context.Context, op PickOperation) error {
	log.Ctx(ctx).Info().Str("filename", op.Filename).Msg("picking")
	sourcePath := filepath.Join(r.BaseDir, op.Filename)
	savePath := filepath.Join(r.OutputDir, op.Filename)
	if err := copyFile(sourcePath, savePath); err != nil {
		return fmt.Errorf("failed to pick file %s: %w", op.Filename, err)
	}
	return nil
}

func copyFile(sourcePath, destPath string) error {
	sourceFile, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", sourcePath, err)
	}
	defer sourceFile.Close()

	destFile, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", destPath, err)
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return fmt.Errorf("failed to copy file from %s to %s: %w", sourcePath, destPath, err)
	}

	return nil
}
