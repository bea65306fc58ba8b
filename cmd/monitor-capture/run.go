package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/breeze-rmm/monitorcapture/internal/capture"
	"github.com/breeze-rmm/monitorcapture/internal/config"
	"github.com/breeze-rmm/monitorcapture/internal/cursor"
	"github.com/breeze-rmm/monitorcapture/internal/graphics"
	"github.com/breeze-rmm/monitorcapture/internal/health"
	"github.com/breeze-rmm/monitorcapture/internal/host"
	"github.com/breeze-rmm/monitorcapture/internal/logging"
	"github.com/breeze-rmm/monitorcapture/internal/metrics"
	"github.com/breeze-rmm/monitorcapture/internal/preview"
	"github.com/breeze-rmm/monitorcapture/internal/window"
)

var log = logging.L("main")

const processSampleInterval = 5 * time.Second

var runFlags struct {
	monitor      int
	cursor       bool
	followWindow bool
	fps          int
	hiddenAfter  time.Duration
}

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&runFlags.monitor, "monitor", 0, "monitor index to capture")
	f.BoolVar(&runFlags.cursor, "cursor", true, "draw the mouse cursor")
	f.BoolVar(&runFlags.followWindow, "follow-window", false, "capture only the foreground window's client area")
	f.IntVar(&runFlags.fps, "fps", 0, "frames per second (overrides config)")
	f.DurationVar(&runFlags.hiddenAfter, "hidden-after", 0, "hide the source after this long, releasing the duplication")
}

// applyRunFlags overrides settings with explicitly set flags and reports
// whether any were set.
func applyRunFlags(cmd *cobra.Command, s *capture.Settings) bool {
	f := cmd.Flags()
	changed := false
	if f.Changed("monitor") {
		s.Monitor = runFlags.monitor
		changed = true
	}
	if f.Changed("cursor") {
		s.CaptureCursor = runFlags.cursor
		changed = true
	}
	if f.Changed("follow-window") {
		s.CaptureForegroundWindow = runFlags.followWindow
		changed = true
	}
	return changed
}

// setupLogging configures the root logger. The returned func closes the log
// file, if any.
func setupLogging(cfg *config.Config) func() {
	if cfg.LogFile == "" {
		logging.Init(cfg.LogFormat, cfg.LogLevel, os.Stdout)
		return func() {}
	}

	rw, err := logging.NewRotatingWriter(cfg.LogFile, cfg.LogMaxSizeMB, cfg.LogMaxBackups)
	if err != nil {
		logging.Init(cfg.LogFormat, cfg.LogLevel, os.Stdout)
		log.Warn("log file unavailable, logging to stdout only", "path", cfg.LogFile, "error", err)
		return func() {}
	}
	logging.Init(cfg.LogFormat, cfg.LogLevel, logging.Tee(os.Stdout, rw))
	return func() { rw.Close() }
}

func runCapture(cmd *cobra.Command) {
	cfg, warnings := loadConfig()
	closeLog := setupLogging(cfg)
	defer closeLog()
	for _, w := range warnings {
		log.Warn("config adjusted", "warning", w.Error())
	}
	if runFlags.fps > 0 {
		cfg.FPS = runFlags.fps
	}

	factory := newFactory(cfg)

	settings := capture.Defaults()
	var store *host.SettingsStore
	if cfg.SettingsFile != "" {
		store = host.NewSettingsStore(cfg.SettingsFile)
		loaded, err := store.Load()
		if err != nil {
			log.Warn("using default source settings", "error", err)
		}
		settings = loaded
	}
	if applyRunFlags(cmd, &settings) && store != nil {
		if err := store.Save(settings); err != nil {
			log.Warn("saving source settings", "error", err)
		}
	}

	monitor := health.NewMonitor()
	tracker := health.NewCaptureTracker(monitor, cfg.UnhealthyAfterAttempts)
	m := metrics.New()

	visibility := host.NewVisibility(true)
	visibility.OnChange(func(showing bool) { tracker.SetHidden(!showing) })

	device := graphics.NewDevice()
	deps := capture.Deps{
		Graphics:    device,
		Duplicators: factory,
		Cursor:      cursor.New(),
		Visibility:  visibility,
		Observer:    host.Observers{m, tracker},
	}
	if windows, err := window.Open(); err != nil {
		log.Info("foreground window tracking unavailable", "error", err)
	} else {
		defer windows.Close()
		deps.Windows = windows
	}

	src, err := capture.New(settings, deps)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create source: %v\n", err)
		os.Exit(1)
	}

	hub := preview.NewHub(preview.Options{
		Quality:  cfg.PreviewQuality,
		MaxFPS:   cfg.PreviewMaxFPS,
		Recorder: m,
	})
	defer hub.Close()

	runner := host.NewRunner(src, host.Options{
		FPS:     cfg.FPS,
		Device:  device,
		Frames:  m,
		Preview: hub,
	})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if store != nil {
		if err := store.Watch(ctx, func(s capture.Settings) { runner.Update(s) }); err != nil {
			log.Warn("settings file will not be reloaded", "error", err)
		}
	}

	sampler, err := health.NewProcessSampler(monitor)
	if err != nil {
		log.Warn("process sampling unavailable", "error", err)
	} else {
		m.RegisterProcessStats(sampler)
		go sampler.Run(ctx, processSampleInterval)
	}

	watchVisibilitySignal(ctx, visibility)
	if runFlags.hiddenAfter > 0 {
		timer := time.AfterFunc(runFlags.hiddenAfter, visibility.Hide)
		defer timer.Stop()
	}

	if cfg.HTTPAddr != "" {
		handler := host.NewHandler(host.HandlerDeps{
			Metrics:   m.Handler(),
			Health:    monitor,
			Process:   sampler,
			Snapshots: runner,
			Preview:   hub,
		})
		go func() {
			if err := host.Serve(ctx, cfg.HTTPAddr, handler); err != nil {
				log.Error("http server failed", "addr", cfg.HTTPAddr, "error", err)
			}
		}()
	}

	log.Info("starting monitor capture",
		"version", version,
		"monitor", settings.Monitor,
		"cursor", settings.CaptureCursor,
		"followWindow", settings.CaptureForegroundWindow,
		"backend", cfg.Backend,
		"fps", cfg.FPS,
	)
	if err := runner.Run(ctx); err != nil {
		log.Error("render loop failed", "error", err)
		os.Exit(1)
	}
	log.Info("monitor capture stopped")
}
