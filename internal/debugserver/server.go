// Package debugserver serves the last frame and metrics while developing
// without a panel attached.
package debugserver

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
)

// FrameSource exposes the last frame pushed to the panel.
type FrameSource interface {
	LastFrame() *image.Gray
}

type Server struct {
	frames  FrameSource
	metrics http.Handler
	log     logrus.FieldLogger
	srv     *http.Server
}

// New builds a server for addr. metrics may be nil.
func New(addr string, frames FrameSource, metrics http.Handler, logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{frames: frames, metrics: metrics, log: logger.WithField("component", "debugserver")}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	router := httprouter.New()
	router.GET("/healthz", s.healthz)
	router.GET("/frame.png", s.frame)
	if s.metrics != nil {
		router.Handler(http.MethodGet, "/metrics", s.metrics)
	}
	return router
}

// Handler exposes the routes for tests and embedding.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start listens in the background and returns the bound address.
func (s *Server) Start() (string, error) {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return "", fmt.Errorf("debugserver: listen %s: %w", s.srv.Addr, err)
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("Debug server stopped")
		}
	}()
	s.log.WithField("addr", ln.Addr().String()).Info("Debug server listening")
	return ln.Addr().String(), nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) frame(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	img := s.frames.LastFrame()
	if img == nil {
		http.Error(w, "no frame pushed yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, img); err != nil {
		s.log.WithError(err).Warn("Failed to encode frame")
	}
}
