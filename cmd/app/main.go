package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/runeforge/optimizer/internal/api"
)

func main() {
	if workDir := os.Getenv("WORKDIR"); workDir != "" {
		if err := os.Chdir(workDir); err != nil {
			slog.Warn("failed to change working directory", slog.String("dir", workDir), slog.String("error", err.Error()))
		}
	}

	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: true,
	}))
	slog.SetDefault(logger)

	envFiles := []string{".env", ".env.local", "../.env"}
	envLoaded := false
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			slog.Info("loaded environment file", slog.String("file", envFile))
			envLoaded = true
			break
		}
	}
	if !envLoaded {
		slog.Warn("no environment file found, continuing with system environment variables")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if port[0] != ':' {
		port = ":" + port
	}

	config := api.LoadAPIConfigFromEnv()
	if err := config.Validate(); err != nil {
		slog.Error("invalid api configuration", slog.String("error", err.Error()))
		log.Fatal(err)
	}

	r := mux.NewRouter()

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, req)

			slog.Info("request_completed",
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.Int("status_code", wrapped.statusCode),
				slog.Duration("duration", time.Since(start)))
		})
	})

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "Rune loadout optimizer")
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Available endpoints:")
		fmt.Fprintln(w, "POST /api/optimize   - search_builds over a rune inventory")
		fmt.Fprintln(w, "GET  /api/objectives - list registered objective names")
		fmt.Fprintln(w, "GET  /healthz        - liveness/readiness probe")
	}).Methods("GET")

	r.HandleFunc("/debug/routes", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintln(w, "Registered routes:")
		err := r.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
			pathTemplate, err := route.GetPathTemplate()
			if err == nil {
				methods, _ := route.GetMethods()
				fmt.Fprintf(w, "  %v %s\n", methods, pathTemplate)
			}
			return nil
		})
		if err != nil {
			fmt.Fprintf(w, "error walking routes: %v\n", err)
		}
	}).Methods("GET")

	handler := api.RegisterRoutes(r, config)

	server := &http.Server{
		Addr:    port,
		Handler: r,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("starting optimizer server", slog.String("port", port), slog.String("version", "1.0.0"))
		fmt.Printf("optimizer listening on http://localhost%s\n", port)
		fmt.Printf("try: curl -X POST http://localhost%s/api/optimize -d '{}'\n", port)
		fmt.Printf("debug routes: http://localhost%s/debug/routes\n", port)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", slog.String("error", err.Error()))
			log.Fatal("server failed to start:", err)
		}
	}()

	<-quit
	slog.Info("shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
		log.Fatal("server forced to shutdown:", err)
	}

	if err := handler.Close(); err != nil {
		slog.Warn("error closing handler resources", slog.String("error", err.Error()))
	}

	slog.Info("server stopped gracefully")
}

// statusRecorder wraps http.ResponseWriter to capture the response status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
