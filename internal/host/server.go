package host

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"net"
	"net/http"
	"time"

	"github.com/breeze-rmm/monitorcapture/internal/health"
)

// Snapshotter provides copies of the latest rendered frame.
type Snapshotter interface {
	Snapshot() (*image.RGBA, bool)
	Release(img *image.RGBA)
}

// HandlerDeps are the endpoints served by NewHandler. Nil entries are not
// routed.
type HandlerDeps struct {
	Metrics   http.Handler
	Health    *health.Monitor
	Process   *health.ProcessSampler
	Snapshots Snapshotter
	Preview   http.Handler
}

// NewHandler routes /metrics, /healthz, /snapshot.png and /ws.
func NewHandler(d HandlerDeps) http.Handler {
	mux := http.NewServeMux()
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics)
	}
	if d.Health != nil {
		mux.HandleFunc("GET /healthz", healthHandler(d.Health, d.Process))
	}
	if d.Snapshots != nil {
		mux.HandleFunc("GET /snapshot.png", snapshotHandler(d.Snapshots))
	}
	if d.Preview != nil {
		mux.Handle("GET /ws", d.Preview)
	}
	return mux
}

func healthHandler(m *health.Monitor, proc *health.ProcessSampler) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		report := m.Report()
		if proc != nil {
			report.Process = proc.Last()
		}

		code := http.StatusOK
		if report.Status == health.Unhealthy {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(report); err != nil {
			log.Debug("writing health response", "error", err)
		}
	}
}

func snapshotHandler(s Snapshotter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		img, ok := s.Snapshot()
		if !ok {
			http.Error(w, "no frame rendered yet", http.StatusServiceUnavailable)
			return
		}
		defer s.Release(img)

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		if err := EncodePNG(w, img); err != nil {
			log.Debug("writing snapshot", "error", err)
		}
	}
}

// Serve listens on addr and serves h until ctx is done.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	log.Info("http server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
