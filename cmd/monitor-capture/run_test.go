package main

import (
	"testing"

	"github.com/spf13/cobra"

	"github.com/breeze-rmm/monitorcapture/internal/capture"
)

func TestApplyRunFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "run"}
	addRunFlags(cmd)

	s := capture.Defaults()
	if applyRunFlags(cmd, &s) {
		t.Fatal("no flags set, expected no change")
	}
	if s != capture.Defaults() {
		t.Fatalf("settings changed without flags: %+v", s)
	}

	if err := cmd.ParseFlags([]string{"--monitor=2", "--cursor=false"}); err != nil {
		t.Fatal(err)
	}
	if !applyRunFlags(cmd, &s) {
		t.Fatal("expected a change")
	}
	want := capture.Settings{Monitor: 2, CaptureCursor: false, CaptureForegroundWindow: false}
	if s != want {
		t.Fatalf("settings = %+v, want %+v", s, want)
	}
}
