package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rpggio/spacetracker/internal/domain/registry"
)

// Notifier requests an out-of-band detection pass.
type Notifier interface {
	Notify()
}

// SnapshotSource exposes registry state.
type SnapshotSource interface {
	Snapshot() registry.Snapshot
}

// NewControlServer serves the local agent endpoints. Page-side scripts POST
// /notify on DOM mutations; status tooling reads /snapshot and /stats.
func NewControlServer(notifier Notifier, source SnapshotSource) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Post("/notify", func(w http.ResponseWriter, _ *http.Request) {
		notifier.Notify()
		w.WriteHeader(http.StatusAccepted)
	})
	r.Get("/snapshot", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, source.Snapshot())
	})
	r.Get("/stats", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, source.Snapshot().Stats)
	})
	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

// FetchSnapshot reads a running agent's registry snapshot from its control
// server at baseURL.
func FetchSnapshot(ctx context.Context, httpClient *http.Client, baseURL string) (registry.Snapshot, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/snapshot", nil)
	if err != nil {
		return registry.Snapshot{}, fmt.Errorf("building snapshot request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return registry.Snapshot{}, fmt.Errorf("fetching snapshot: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return registry.Snapshot{}, &APIError{Status: resp.StatusCode}
	}
	var snap registry.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return registry.Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	return snap, nil
}
