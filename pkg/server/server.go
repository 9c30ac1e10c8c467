// Package server exposes an [app.App] over HTTP and pushes its
// asynchronous events (playback frames, finished drill-downs) to websocket
// clients.
//
// Every control endpoint returns the [app.Output] of the call as JSON.
// Errors are JSON objects {"error": {"code", "message"}} with a status
// derived from the error code.
//
//	srv := server.New(a, runner, logger)
//	defer srv.Close()
//	err := srv.ListenAndServe(ctx, ":8080")
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/energyatlas/pkg/app"
	apperrors "github.com/matzehuels/energyatlas/pkg/errors"
	"github.com/matzehuels/energyatlas/pkg/pipeline"
)

const shutdownTimeout = 5 * time.Second

// Server serves one shared App session.
type Server struct {
	app    *app.App
	runner *pipeline.Runner
	logger *log.Logger
	hub    *Hub
	router chi.Router

	unsubscribe func()
}

// New creates a Server for a. runner serves /api/render and may be nil.
func New(a *app.App, runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		app:    a,
		runner: runner,
		logger: logger,
		hub:    NewHub(logger),
	}
	s.unsubscribe = a.Subscribe(func(ev app.Event) {
		s.hub.Broadcast(ev)
	})
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Close stops event delivery and disconnects websocket clients.
func (s *Server) Close() {
	s.unsubscribe()
	s.hub.Close()
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	r.Get("/ws", s.handleWebsocket)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/frame", s.handleFrame)
		r.Get("/frame.svg", s.handleFrameSVG)
		r.Get("/hierarchy.dot", s.handleHierarchy)
		r.Get("/hierarchy.svg", s.handleHierarchySVG)
		r.Get("/render", s.handleRender)

		r.Post("/year", s.handleYear)
		r.Post("/metric", s.handleMetric)
		r.Post("/topn", s.handleTopN)
		r.Post("/view", s.handleView)
		r.Post("/play", s.handlePlay)
		r.Post("/hover", s.handleHover)
		r.Post("/leave", s.handleLeave)
		r.Post("/drag", s.handleDrag)
		r.Post("/zoom", s.handleZoom)
		r.Post("/resize", s.handleResize)

		r.Route("/detail", func(r chi.Router) {
			r.Get("/", s.handleDetail)
			r.Post("/", s.handleSelectCountry)
			r.Delete("/", s.handleDismissDetail)
			r.Get("/svg", s.handleDetailSVG)
			r.Post("/hover", s.handleHoverCity)
			r.Post("/leave", s.handleLeaveCity)
		})

		r.Route("/series", func(r chi.Router) {
			r.Get("/", s.handleSeries)
			r.Get("/svg", s.handleSeriesSVG)
			r.Post("/range", s.handleSeriesRange)
			r.Post("/features", s.handlePlotFeatures)
		})

		r.Route("/formulas", func(r chi.Router) {
			r.Get("/", s.handleFormulas)
			r.Post("/", s.handleAddFormula)
			r.Post("/{index}/select", s.handleSelectFormula)
			r.Post("/plot", s.handlePlotFormulas)
		})
	})
	return r
}

// accessLog logs one line per request.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

type errorBody struct {
	Error struct {
		Code    apperrors.Code `json:"code"`
		Message string         `json:"message"`
	} `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	var body errorBody
	body.Error.Code = apperrors.GetCode(err)
	if body.Error.Code == "" {
		body.Error.Code = apperrors.ErrCodeInternal
	}
	body.Error.Message = apperrors.UserMessage(err)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeBytes(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

// decode reads a JSON request body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}
