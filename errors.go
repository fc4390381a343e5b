package main

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks malformed configuration or load requests,
	// rejected synchronously before any state mutation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotReady marks operations that need a loaded image and a defined
	// frame before both exist. Callers recover by loading/resizing first.
	ErrNotReady = errors.New("engine not ready")
)

// LoadError reports a failed decode of image bytes. The engine state is
// rolled back to "no image loaded" when it occurs.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading image: %v", e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// EncodeError reports a failed encoding of an extracted image. The view
// state it was extracted from is untouched.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encoding output: %v", e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}
