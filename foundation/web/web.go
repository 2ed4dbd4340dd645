// Package web is a thin layer over gin that lets handlers return errors and
// share one response envelope.
package web

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles a request inside the application.
type Handler func(c *Context) error

// Middleware wraps a Handler with additional behaviour.
type Middleware func(Handler) Handler

// App is the entrypoint into the application and embeds the gin engine so
// raw gin routes (file servers, health checks) can still be mounted.
type App struct {
	*gin.Engine
	log *zap.Logger
	mw  []Middleware
}

// NewApp creates an App with the given application wide middleware.
func NewApp(log *zap.Logger, mw ...Middleware) *App {
	engine := gin.New()
	engine.Use(gin.Recovery())

	return &App{
		Engine: engine,
		log:    log,
		mw:     mw,
	}
}

// Handle mounts handler on method and path. Route middleware runs inside the
// application wide middleware.
func (a *App) Handle(method, path string, handler Handler, mw ...Middleware) {
	handler = wrapMiddleware(mw, handler)
	handler = wrapMiddleware(a.mw, handler)

	a.Engine.Handle(method, path, func(gc *gin.Context) {
		c := &Context{
			Context: gc,
			Ctx:     gc.Request.Context(),
			log:     a.log,
		}
		if err := handler(c); err != nil {
			a.log.Error("unhandled handler error", zap.String("path", path), zap.Error(err))
		}
	})
}

func (a *App) Get(path string, handler Handler, mw ...Middleware) {
	a.Handle(http.MethodGet, path, handler, mw...)
}

func (a *App) Post(path string, handler Handler, mw ...Middleware) {
	a.Handle(http.MethodPost, path, handler, mw...)
}

func (a *App) Put(path string, handler Handler, mw ...Middleware) {
	a.Handle(http.MethodPut, path, handler, mw...)
}

func (a *App) Patch(path string, handler Handler, mw ...Middleware) {
	a.Handle(http.MethodPatch, path, handler, mw...)
}

func (a *App) Delete(path string, handler Handler, mw ...Middleware) {
	a.Handle(http.MethodDelete, path, handler, mw...)
}

// Server builds an http.Server around the engine so the caller controls
// startup and graceful shutdown.
func (a *App) Server(addr string, opts ...func(*http.Server)) *http.Server {
	srv := &http.Server{
		Addr:    addr,
		Handler: a.Engine,
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

// Shutdown is a helper for graceful shutdown of a server built with Server.
func Shutdown(ctx context.Context, srv *http.Server) error {
	return srv.Shutdown(ctx)
}

func wrapMiddleware(mw []Middleware, handler Handler) Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		if h := mw[i]; h != nil {
			handler = h(handler)
		}
	}
	return handler
}
