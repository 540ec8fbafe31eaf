// Package httpapi exposes the shared catalog over a JSON admin API.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/thomas/kram-terminal-go/internal/shop"
)

// APIKeyHeader carries the admin key on mutating requests.
const APIKeyHeader = "X-API-KEY"

// Server serves the admin API for one catalog.
type Server struct {
	catalog *shop.Catalog
	apiKey  string
	logger  *log.Logger

	upgrader  websocket.Upgrader
	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithAPIKey requires key in the X-API-KEY header of mutating requests.
func WithAPIKey(key string) Option {
	return func(s *Server) {
		s.apiKey = key
	}
}

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New creates a server over catalog.
func New(catalog *shop.Catalog, opts ...Option) *Server {
	s := &Server{
		catalog: catalog,
		logger:  log.Default(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the gin engine with every route.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", APIKeyHeader},
		ExposeHeaders:   []string{"Content-Length", "Content-Disposition"},
		MaxAge:          12 * time.Hour,
	}))
	r.MaxMultipartMemory = 16 << 20

	r.GET("/healthz", s.health)

	api := r.Group("/api")
	api.GET("/products", s.listProducts)
	api.GET("/products/:id", s.getProduct)
	api.GET("/favorites", s.listFavorites)
	api.GET("/export.xlsx", s.exportProducts)
	api.GET("/changes", s.changes)

	admin := api.Group("", s.requireAPIKey)
	admin.POST("/products", s.createProduct)
	admin.DELETE("/products/:id", s.deleteProduct)
	admin.POST("/products/:id/favorite", s.toggleFavorite)
	admin.POST("/import", s.importProducts)

	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down within
// five seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving HTTP: %w", err)
	case <-ctx.Done():
	}

	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP: %w", err)
	}
	return nil
}

// Close ends every open change feed.
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		s.logger.Info("http request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"took", time.Since(start),
			"client", c.ClientIP(),
		)
	}
}
