//go:build !windows

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/breeze-rmm/monitorcapture/internal/host"
)

// watchVisibilitySignal toggles visibility on SIGUSR1.
func watchVisibilitySignal(ctx context.Context, v *host.Visibility) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1)
	go func() {
		defer signal.Stop(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ch:
				v.Toggle()
			}
		}
	}()
}
