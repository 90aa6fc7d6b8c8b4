package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/math-mentor/internal/config"
	"github.com/sells-group/math-mentor/internal/model"
)

const (
	serviceName    = "Math Mentor AI Backend - JEE Math Solver"
	serviceVersion = "2.0.0"
	maxBodyBytes   = 1 << 20
)

var servePort int

// solver is the part of *pipeline.Pipeline the HTTP layer depends on.
type solver interface {
	Solve(ctx context.Context, q model.Question) (*model.SolutionResponse, error)
}

// serviceInfo feeds the health endpoint.
type serviceInfo struct {
	Model         string
	APIKeyPresent bool
	Now           func() time.Time
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP solve service",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		p, err := initPipeline(cfg)
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		info := serviceInfo{
			Model:         cfg.Completion.Model,
			APIKeyPresent: cfg.Completion.APIKey != "",
			Now:           time.Now,
		}
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildRouter(p, cfg.Server, info),
			ReadHeaderTimeout: 10 * time.Second,
		}

		return runServer(ctx, srv, shutdownTimeout(cfg.Server))
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func shutdownTimeout(c config.ServerConfig) time.Duration {
	if c.ShutdownTimeoutSecs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.ShutdownTimeoutSecs) * time.Second
}

// runServer serves until ctx is done, then drains in-flight requests for at
// most timeout.
func runServer(ctx context.Context, srv *http.Server, timeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zap.L().Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return eris.Wrap(srv.Shutdown(shutdownCtx), "server shutdown")
	})

	return g.Wait()
}

// buildRouter wires the HTTP routes around s.
func buildRouter(s solver, sc config.ServerConfig, info serviceInfo) http.Handler {
	if info.Now == nil {
		info.Now = time.Now
	}
	origins := sc.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	solve := solveHandler(s)
	r.Post("/api/solve", solve)
	r.Post("/solve", solve)
	r.Get("/api/health", healthHandler(info))
	r.Get("/", rootHandler)

	return r
}

type solveRequest struct {
	Text         *string  `json:"text"`
	InputMode    string   `json:"inputMode"`
	Confidence   *float64 `json:"confidence"`
	RequiresHITL bool     `json:"requiresHITL"`
}

// question applies the request defaults: text input, full confidence.
func (req solveRequest) question() model.Question {
	q := model.Question{
		Text:         *req.Text,
		InputMode:    req.InputMode,
		Confidence:   1.0,
		RequiresHITL: req.RequiresHITL,
	}
	if q.InputMode == "" {
		q.InputMode = "text"
	}
	if req.Confidence != nil {
		q.Confidence = *req.Confidence
	}
	return q
}

func solveHandler(s solver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := zap.L().With(zap.String("http_request_id", middleware.GetReqID(r.Context())))

		var req solveRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "invalid request body: " + err.Error()})
			return
		}
		if req.Text == nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "text is required"})
			return
		}

		resp, err := s.Solve(r.Context(), req.question())
		if err != nil {
			if r.Context().Err() != nil {
				log.Warn("solve abandoned by client", zap.Error(err))
				return
			}
			log.Error("solve failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Error processing question: " + err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

type healthResponse struct {
	Status        string `json:"status"`
	Model         string `json:"model"`
	APIKeyPresent bool   `json:"api_key_present"`
	Timestamp     string `json:"timestamp"`
}

func healthHandler(info serviceInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{
			Status:        "healthy",
			Model:         info.Model,
			APIKeyPresent: info.APIKeyPresent,
			Timestamp:     info.Now().Format(time.RFC3339Nano),
		})
	}
}

type rootResponse struct {
	Message      string            `json:"message"`
	Version      string            `json:"version"`
	Capabilities []string          `json:"capabilities"`
	Endpoints    map[string]string `json:"endpoints"`
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rootResponse{
		Message: serviceName,
		Version: serviceVersion,
		Capabilities: []string{
			"Solve complex mathematical problems",
			"Step-by-step solutions",
			"Conversational AI for greetings and queries",
		},
		Endpoints: map[string]string{
			"solve":  "/api/solve",
			"health": "/api/health",
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response failed", zap.Error(err))
	}
}
