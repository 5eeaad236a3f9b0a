package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/komps-labs/komps/internal/model"
	"github.com/komps-labs/komps/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for appraisals and the event log",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		router := newRouter(env)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func newRouter(env *pipelineEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/analyze", handleAnalyze(env))
	r.Get("/api/events", handleListEvents(env))
	r.Post("/api/events", handleRecordEvent(env))
	r.Get("/api/events/stats", handleEventStats(env))

	return r
}

func handleAnalyze(env *pipelineEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req model.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.AssetClass == "" {
			req.AssetClass = model.AssetClassResidential
		}
		if err := req.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		result, err := env.Pipeline.Run(r.Context(), req)
		if err != nil {
			zap.L().Error("analyze request failed",
				zap.String("address", req.Address),
				zap.Error(err),
			)
			writeError(w, http.StatusInternalServerError, "appraisal failed")
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func handleListEvents(env *pipelineEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := store.EventFilter{
			Type:    r.URL.Query().Get("type"),
			ActorID: r.URL.Query().Get("actor_id"),
			Limit:   queryInt(r, "limit", 100),
			Offset:  queryInt(r, "offset", 0),
		}

		events, err := env.Store.ListEvents(r.Context(), filter)
		if err != nil {
			zap.L().Error("list events failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "list events failed")
			return
		}
		if events == nil {
			events = []model.Event{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": events})
	}
}

func handleRecordEvent(env *pipelineEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var event model.Event
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if event.Type == "" || event.ActorID == "" {
			writeError(w, http.StatusBadRequest, "type and actor_id are required")
			return
		}

		id, err := env.Store.SaveEvent(r.Context(), event)
		if err != nil {
			zap.L().Error("save event failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "save event failed")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": id})
	}
}

func handleEventStats(env *pipelineEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := env.Store.EventStats(r.Context())
		if err != nil {
			zap.L().Error("event stats failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "event stats failed")
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
