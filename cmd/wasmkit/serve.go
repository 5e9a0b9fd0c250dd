package main

// Local HTTP gateway: exposes a contract's process and query entry points for
// development. One invocation per request; a successful process commits the
// region file.

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"wasmkit/core"
)

func serveCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "expose process/query over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}

			r := chi.NewRouter()
			r.Use(middleware.RequestID)
			r.Use(middleware.Recoverer)
			r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			r.Post("/process", handleEntry(e, core.EntryProcess, true))
			r.Post("/query", handleEntry(e, core.EntryQuery, false))

			srv := &http.Server{
				Addr:         listen,
				Handler:      r,
				ReadTimeout:  5 * time.Second,
				WriteTimeout: 15 * time.Second,
			}
			logger.Infof("gateway listening on %s", listen)
			return srv.ListenAndServe()
		},
	}
	cmd.Flags().StringVar(&listen, "listen", ":8790", "listen address")
	return cmd
}

func handleEntry(e *env, entry core.Entry, mutate bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msg, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rec, err := e.run(entry, msg, mutate)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(rec); err != nil {
			logger.Warnf("encode receipt: %v", err)
		}
	}
}
