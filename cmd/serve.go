package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gearscope/spec-factory/internal/blob"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve published records and category artifacts over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "OPTIONS"},
			MaxAge:         300,
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})

		serveCategory := func(artifact string) http.HandlerFunc {
			return func(w http.ResponseWriter, req *http.Request) {
				category := chi.URLParam(req, "category")
				data, err := env.store.ReadCategory(req.Context(), category, artifact)
				writeArtifact(w, data, err)
			}
		}
		serveProduct := func(artifact string) http.HandlerFunc {
			return func(w http.ResponseWriter, req *http.Request) {
				category := chi.URLParam(req, "category")
				id := chi.URLParam(req, "id")
				data, err := env.store.ReadProduct(req.Context(), category, id, artifact)
				writeArtifact(w, data, err)
			}
		}

		r.Route("/categories/{category}", func(r chi.Router) {
			r.Get("/index", serveCategory(blob.CategoryIndexArtifact))
			r.Get("/changelog", serveCategory(blob.CategoryChangelogArtifact))
			r.Get("/recent", serveCategory(blob.CategoryRecentArtifact))
			r.Get("/accuracy", serveCategory(blob.CategoryAccuracyArtifact))
			r.Get("/drift", serveCategory(blob.CategoryDriftReport))
		})
		r.Route("/products/{category}/{id}", func(r chi.Router) {
			r.Get("/", serveProduct(blob.ArtifactCurrent))
			r.Get("/compact", serveProduct(blob.ArtifactCompact))
			r.Get("/provenance", serveProduct(blob.ArtifactProvenance))
			r.Get("/changelog", serveProduct(blob.ArtifactChangelog))
			r.Get("/drift", serveProduct(blob.ArtifactDriftState))
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// writeArtifact sends a stored JSON artifact as-is. Absence is a 404.
func writeArtifact(w http.ResponseWriter, data []byte, err error) {
	if err != nil {
		http.Error(w, `{"error":"read failed"}`, http.StatusInternalServerError)
		return
	}
	if data == nil {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
