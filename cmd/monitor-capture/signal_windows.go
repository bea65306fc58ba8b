//go:build windows

package main

import (
	"context"

	"github.com/breeze-rmm/monitorcapture/internal/host"
)

// watchVisibilitySignal is a no-op; Windows has no SIGUSR1. Use --hidden-after.
func watchVisibilitySignal(context.Context, *host.Visibility) {}
