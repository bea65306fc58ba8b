package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestRotatingWriterRotatesAndKeepsBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "capture.log")
	rw, err := NewRotatingWriter(path, 1, 2)
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	defer rw.Close()
	rw.maxSize = 10

	for _, chunk := range []string{"aaaaaaaa", "bbbbbbbb", "cccccccc", "dddddddd"} {
		if _, err := rw.Write([]byte(chunk)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	current, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read current: %v", err)
	}
	if string(current) != "dddddddd" {
		t.Fatalf("current log = %q, want newest chunk", current)
	}
	newest, _ := os.ReadFile(path + ".1")
	if string(newest) != "cccccccc" {
		t.Fatalf("backup .1 = %q, want cccccccc", newest)
	}
	oldest, _ := os.ReadFile(path + ".2")
	if string(oldest) != "bbbbbbbb" {
		t.Fatalf("backup .2 = %q, want bbbbbbbb", oldest)
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Fatalf("expected at most 2 backups, stat .3: %v", err)
	}
}

func TestTeeWritesBoth(t *testing.T) {
	var a, b bytes.Buffer
	if _, err := Tee(&a, &b).Write([]byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if a.String() != "x" || b.String() != "x" {
		t.Fatalf("tee outputs = %q, %q", a.String(), b.String())
	}
}
