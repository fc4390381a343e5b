package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRegistry(t *testing.T) {
	registry := NewSessionRegistry(testConfig())

	t.Run("create and lookup", func(t *testing.T) {
		session, err := registry.Create(EngineConfig{})
		require.NoError(t, err)
		assert.NotEmpty(t, session.ID)

		found, ok := registry.Get(session.ID)
		require.True(t, ok)
		assert.Same(t, session, found)
	})

	t.Run("override replaces only set fields", func(t *testing.T) {
		session, err := registry.Create(EngineConfig{AspectRatio: 16.0 / 9})
		require.NoError(t, err)

		var cfg EngineConfig
		require.NoError(t, session.Do(func(e *Engine) error {
			cfg = e.Config()
			return nil
		}))
		assert.InDelta(t, 16.0/9, cfg.AspectRatio, 1e-9)
		assert.Equal(t, testConfig().MinZoom, cfg.MinZoom)
		assert.Equal(t, testConfig().ZoomStep, cfg.ZoomStep)
	})

	t.Run("invalid override rejected", func(t *testing.T) {
		_, err := registry.Create(EngineConfig{AspectRatio: 0.5, MaxZoom: 0.01})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("remove destroys", func(t *testing.T) {
		session, err := registry.Create(EngineConfig{})
		require.NoError(t, err)
		registry.Remove(session.ID)
		_, ok := registry.Get(session.ID)
		assert.False(t, ok)
	})
}

func TestSessionLoad(t *testing.T) {
	registry := NewSessionRegistry(testConfig())

	t.Run("successful load fits the image", func(t *testing.T) {
		session, err := registry.Create(EngineConfig{})
		require.NoError(t, err)
		require.NoError(t, session.Do(func(e *Engine) error {
			e.SetViewport(1000, 800)
			return nil
		}))

		data, err := encodeImage(createTestImage(2000, 1000), "png", 0)
		require.NoError(t, err)

		render, err := session.Load(data)
		require.NoError(t, err)
		assert.True(t, render.Ready)
		assert.NotEmpty(t, render.Handle)
		assert.InDelta(t, 0.72, render.View.Scale, 1e-9)
	})

	t.Run("decode failure rolls back", func(t *testing.T) {
		session, err := registry.Create(EngineConfig{})
		require.NoError(t, err)
		require.NoError(t, session.Do(func(e *Engine) error {
			e.SetViewport(1000, 800)
			return nil
		}))

		render, loadErr := session.Load([]byte("not an image"))
		var le *LoadError
		assert.ErrorAs(t, loadErr, &le)
		assert.False(t, render.Ready)
		assert.Equal(t, ViewState{Scale: 1}, render.View)
	})
}
