package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/rs/zerolog/log"
)

//go:embed static
var staticFS embed.FS
var isDebug = os.Getenv("DEBUG") == "1"

type Config struct {
	RootDir          string
	Engine           EngineConfig
	OnBeforeShutdown func()
	OnReady          func(addr string)
	OnSave           func(ops Operations)
}

type WebApp struct {
	config       Config
	sessions     *SessionRegistry
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
}

func NewWebApp(config Config) *WebApp {
	return &WebApp{
		config:     config,
		sessions:   NewSessionRegistry(config.Engine),
		shutdownCh: make(chan struct{}),
	}
}

func (a *WebApp) Shutdown() {
	a.shutdownOnce.Do(func() {
		close(a.shutdownCh)
	})
}

// statusForError maps the engine failure classes onto HTTP statuses:
// invalid input is the caller's fault, not-ready is a conflict with the
// session's current state, decode failures are unprocessable payloads and
// encode failures are ours.
func statusForError(err error) int {
	var loadErr *LoadError
	var encodeErr *EncodeError
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotReady):
		return http.StatusConflict
	case errors.As(err, &loadErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &encodeErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func (a *WebApp) Run(ctx context.Context) error {
	webapp := fiber.New(fiber.Config{
		Immutable:             true,
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Ctx(c.Context()).Error().
				Err(err).
				Str("path", c.Path()).
				Str("method", c.Method()).
				Msg("Request failed")
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				if fiberErr.Code == http.StatusNotFound && c.Path() == "/favicon.ico" {
					return nil
				}
				return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
			}
			return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
		},
	})

	webapp.Hooks().OnListen(func(listen fiber.ListenData) error {
		if fn := a.config.OnReady; fn != nil {
			fn(fmt.Sprintf("http://%s:%s", listen.Host, listen.Port))
		}
		return nil
	})

	go func() {
		select {
		case <-ctx.Done():
		case <-a.shutdownCh:
		}
		if fn := a.config.OnBeforeShutdown; fn != nil {
			fn()
		}
		if err := webapp.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("Failed to shutdown web application")
		}
	}()

	filesRoot := http.Dir(a.config.RootDir)
	webapp.Get("/api/view", func(c *fiber.Ctx) error {
		filePath := c.Query("file")
		return filesystem.SendFile(c, filesRoot, filePath)
	})

	webapp.Get("/api/ls", func(c *fiber.Ctx) error {
		dir, err := walkImages(a.config.RootDir)
		if err != nil {
			return fmt.Errorf("failed to walk dir: %w", err)
		}

		for i := range dir.Files {
			dir.Files[i].URL = "/api/view?file=" + url.QueryEscape(dir.Files[i].Name)
		}

		var response struct {
			Name   string       `json:"name"`
			Files  []FileInfo   `json:"files"`
			Engine EngineConfig `json:"engine"`
		}
		response.Name = dir.Name
		response.Files = dir.Files
		response.Engine = a.config.Engine

		return c.JSON(response)
	})

	webapp.Post("/api/sessions", func(c *fiber.Ctx) error {
		var request struct {
			File     string       `json:"file"`
			Viewport Viewport     `json:"viewport"`
			Config   EngineConfig `json:"config"`
		}
		if err := c.BodyParser(&request); err != nil {
			return err
		}

		session, err := a.sessions.Create(request.Config)
		if err != nil {
			return err
		}

		if request.Viewport.valid() {
			_ = session.Do(func(e *Engine) error {
				e.SetViewport(request.Viewport.Width, request.Viewport.Height)
				return nil
			})
		}

		render := RenderState{}
		if request.File != "" {
			data, err := os.ReadFile(filepath.Join(a.config.RootDir, request.File))
			if err != nil {
				a.sessions.Remove(session.ID)
				return fiber.NewError(http.StatusNotFound, fmt.Sprintf("cannot read %s", request.File))
			}
			if render, err = session.Load(data); err != nil {
				a.sessions.Remove(session.ID)
				return err
			}
		} else {
			_ = session.Do(func(e *Engine) error {
				render = e.RenderState()
				return nil
			})
		}

		return c.JSON(fiber.Map{"id": session.ID, "render": render})
	})

	webapp.Delete("/api/sessions/:id", func(c *fiber.Ctx) error {
		a.sessions.Remove(c.Params("id"))
		return c.SendStatus(http.StatusNoContent)
	})

	webapp.Post("/api/sessions/:id/image", func(c *fiber.Ctx) error {
		session, err := a.session(c)
		if err != nil {
			return err
		}
		render, err := session.Load(c.Body())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"render": render})
	})

	webapp.Post("/api/sessions/:id/viewport", func(c *fiber.Ctx) error {
		session, err := a.session(c)
		if err != nil {
			return err
		}
		var request Viewport
		if err := c.BodyParser(&request); err != nil {
			return err
		}
		var render RenderState
		_ = session.Do(func(e *Engine) error {
			e.SetViewport(request.Width, request.Height)
			render = e.RenderState()
			return nil
		})
		return c.JSON(fiber.Map{"render": render})
	})

	webapp.Post("/api/sessions/:id/events", func(c *fiber.Ctx) error {
		session, err := a.session(c)
		if err != nil {
			return err
		}

		var request InputEvent
		if err := c.BodyParser(&request); err != nil {
			return err
		}

		var consumed bool
		var render RenderState
		if err := session.Do(func(e *Engine) error {
			var dispatchErr error
			consumed, dispatchErr = dispatchEvent(e, request)
			render = e.RenderState()
			return dispatchErr
		}); err != nil {
			return err
		}

		return c.JSON(fiber.Map{"consumed": consumed, "render": render})
	})

	webapp.Post("/api/sessions/:id/fit", a.mutateHandler(func(e *Engine) error { return e.Fit() }))
	webapp.Post("/api/sessions/:id/suggest", a.mutateHandler(func(e *Engine) error { return e.SuggestPlacement() }))
	webapp.Post("/api/sessions/:id/zoom-in", a.mutateHandler(func(e *Engine) error {
		if !e.Ready() {
			return ErrNotReady
		}
		e.ZoomIn()
		return nil
	}))
	webapp.Post("/api/sessions/:id/zoom-out", a.mutateHandler(func(e *Engine) error {
		if !e.Ready() {
			return ErrNotReady
		}
		e.ZoomOut()
		return nil
	}))

	webapp.Get("/api/sessions/:id/render", func(c *fiber.Ctx) error {
		session, err := a.session(c)
		if err != nil {
			return err
		}
		var render RenderState
		_ = session.Do(func(e *Engine) error {
			render = e.RenderState()
			return nil
		})
		return c.JSON(fiber.Map{"render": render})
	})

	webapp.Get("/api/sessions/:id/crop", func(c *fiber.Ctx) error {
		session, err := a.session(c)
		if err != nil {
			return err
		}

		format := c.Query("format", "jpeg")
		quality := c.QueryInt("quality", 90)
		width := c.QueryInt("width", 0)

		var data []byte
		if err := session.Do(func(e *Engine) error {
			var cropErr error
			data, cropErr = e.CroppedImage(format, quality, width)
			return cropErr
		}); err != nil {
			return err
		}

		contentType := "image/jpeg"
		ext := "jpg"
		if outputExtension(format) == "png" {
			contentType = "image/png"
			ext = "png"
		}
		c.Set(fiber.HeaderContentType, contentType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="crop.%s"`, ext))
		return c.Send(data)
	})

	webapp.Post("/api/save", func(c *fiber.Ctx) error {
		var request struct {
			Operations []Operation `json:"operations"`
		}

		if err := c.BodyParser(&request); err != nil {
			return err
		}

		a.config.OnSave(request.Operations)

		return c.SendStatus(http.StatusNoContent)
	})
	webapp.Post("/api/shutdown", func(c *fiber.Ctx) error {
		a.Shutdown()
		return nil
	})

	if isDebug {
		log.Debug().Msg("Debug mode enabled, serving static files from './static' directory")
		webapp.Static("/", "static")
	} else {
		log.Debug().Msg("Serving static files from embedded filesystem")
		webapp.Use("/", filesystem.New(filesystem.Config{
			Root:       http.FS(staticFS),
			PathPrefix: "/static",
		}))
	}

	// Let the OS assign a random available port
	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", 0))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	// Use the listener that was already created
	if err := webapp.Listener(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

func (a *WebApp) session(c *fiber.Ctx) (*Session, error) {
	session, ok := a.sessions.Get(c.Params("id"))
	if !ok {
		return nil, fiber.NewError(http.StatusNotFound, "unknown session")
	}
	return session, nil
}

func (a *WebApp) mutateHandler(mutate func(e *Engine) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := a.session(c)
		if err != nil {
			return err
		}
		var render RenderState
		if err := session.Do(func(e *Engine) error {
			if err := mutate(e); err != nil {
				return err
			}
			render = e.RenderState()
			return nil
		}); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"render": render})
	}
}

// InputEvent is the wire form of one forwarded host event.
type InputEvent struct {
	Type    string       `json:"type"`
	Pointer PointerEvent `json:"pointer"`
	Wheel   WheelEvent   `json:"wheel"`
	Touches []TouchPoint `json:"touches"`
}

// dispatchEvent routes a forwarded event to the engine's gesture handlers.
func dispatchEvent(e *Engine, ev InputEvent) (bool, error) {
	switch ev.Type {
	case "pointerdown":
		return e.PointerDown(ev.Pointer), nil
	case "pointermove":
		return e.PointerMove(ev.Pointer), nil
	case "pointerup":
		return e.PointerUp(ev.Pointer), nil
	case "wheel":
		return e.Wheel(ev.Wheel), nil
	case "touchstart":
		return e.TouchStart(ev.Touches), nil
	case "touchmove":
		return e.TouchMove(ev.Touches), nil
	case "touchend":
		return e.TouchEnd(ev.Touches), nil
	default:
		return false, fmt.Errorf("%w: unknown event type %q", ErrInvalidInput, ev.Type)
	}
}
