package logWrapper

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/logger"
)

func TestVerboseGatesDebug(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(io.Discard)
	defer SetVerbose(false)

	SetVerbose(false)
	Debug("hidden debug")
	Tracef("hidden %s", "trace")
	Info("shown info")
	if out := buf.String(); strings.Contains(out, "hidden") || !strings.Contains(out, "shown info") {
		t.Fatalf("unexpected output %q", out)
	}

	SetVerbose(true)
	Debugf("visible %d", 1)
	if !strings.Contains(buf.String(), "visible 1") {
		t.Fatalf("debug output missing: %q", buf.String())
	}
}

func TestFileName(t *testing.T) {
	ts := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	if got, want := FileName("/var/log", ts), filepath.Join("/var/log", "log 2024-03-05.txt"); got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestSwapFileClosesPrevious(t *testing.T) {
	dir := t.TempDir()
	l := &LogFileType{logWrapper: logger.Init(loggerName, false, false, io.Discard), stop: make(chan struct{})}
	first, err := os.Create(filepath.Join(dir, "first.txt"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := os.Create(filepath.Join(dir, "second.txt"))
	if err != nil {
		t.Fatal(err)
	}

	l.swapFile(first)
	l.logWrapper.Info("into first")
	l.swapFile(second)
	if _, err := first.Write([]byte("x")); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("first file still open: %v", err)
	}
	data, err := os.ReadFile(first.Name())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "into first") {
		t.Fatalf("first file content %q", data)
	}

	l.swapFile(nil)
	if _, err := second.Write([]byte("x")); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("second file still open: %v", err)
	}
	if l.file != nil {
		t.Fatal("file reference kept")
	}
}

func TestChangeFileStops(t *testing.T) {
	dir := t.TempDir()
	l := &LogFileType{logWrapper: logger.Init(loggerName, false, false, io.Discard), stop: make(chan struct{})}
	done := make(chan struct{})
	go func() {
		l.ChangeFile(dir, time.Hour)
		close(done)
	}()
	name := FileName(dir, time.Now())
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(name); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("log file not created")
		}
		time.Sleep(5 * time.Millisecond)
	}
	l.StopRotation()
	l.StopRotation()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("rotation did not stop")
	}
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	if l.file != nil {
		t.Fatal("log file left open")
	}
}
