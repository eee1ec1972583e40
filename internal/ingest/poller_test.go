package ingest

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/clockz"

	"github.com/joseph-ayodele/payment-desk/internal/core"
)

// fakeDispatcher records dispatched names and removes the file like the real one.
type fakeDispatcher struct {
	mu    sync.Mutex
	seen  []string
	fail  map[string]bool
	onHit func(name string)
}

func (f *fakeDispatcher) Dispatch(_ context.Context, path string) (core.Outcome, error) {
	name := filepath.Base(path)
	f.mu.Lock()
	f.seen = append(f.seen, name)
	hook := f.onHit
	f.mu.Unlock()
	if hook != nil {
		hook(name)
	}

	if f.fail[name] {
		return core.Outcome{}, errors.New("boom")
	}
	env, err := core.ParseRequestName(name)
	if rmErr := os.Remove(path); rmErr != nil {
		return core.Outcome{}, rmErr
	}
	return core.Outcome{Envelope: env, Ignored: err != nil}, nil
}

func (f *fakeDispatcher) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.seen...)
}

type statusRecorder struct {
	mu     sync.Mutex
	states []bool
}

func (s *statusRecorder) SetServing(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, v)
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("CARD=1\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRunOnce(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir,
		"receipt_request_b.txt",
		"payment_request_a.txt",
		"payment_request_bad.txt",
		"notes.txt",
		".payment_request_tmp.txt",
	)
	if err := os.Mkdir(filepath.Join(dir, "payment_request_dir"), 0o755); err != nil {
		t.Fatal(err)
	}

	d := &fakeDispatcher{fail: map[string]bool{"payment_request_bad.txt": true}}
	status := &statusRecorder{}
	p := NewPoller(dir, time.Second, d, nil, WithStatusReporter(status))

	stats, err := p.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	want := ScanStats{Scanned: 6, Matched: 4, Succeeded: 2, Ignored: 1, Failed: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}

	wantOrder := "notes.txt,payment_request_a.txt,payment_request_bad.txt,receipt_request_b.txt"
	if got := strings.Join(d.names(), ","); got != wantOrder {
		t.Errorf("dispatch order = %s, want %s", got, wantOrder)
	}

	if _, err := os.Stat(filepath.Join(dir, "payment_request_bad.txt")); err != nil {
		t.Errorf("failed request should remain: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".payment_request_tmp.txt")); err != nil {
		t.Errorf("hidden file should be untouched: %v", err)
	}
	if len(status.states) != 1 || !status.states[0] {
		t.Errorf("status = %v, want [true]", status.states)
	}
}

func TestRunOnceMissingDirectory(t *testing.T) {
	status := &statusRecorder{}
	p := NewPoller(filepath.Join(t.TempDir(), "gone"), time.Second, &fakeDispatcher{}, nil, WithStatusReporter(status))

	if _, err := p.RunOnce(context.Background()); err == nil {
		t.Fatal("expected error for missing directory")
	}
	if len(status.states) != 1 || status.states[0] {
		t.Errorf("status = %v, want [false]", status.states)
	}
}

func TestRunOnceStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "payment_request_1.txt", "payment_request_2.txt", "payment_request_3.txt")

	ctx, cancel := context.WithCancel(context.Background())
	d := &fakeDispatcher{onHit: func(string) { cancel() }}
	p := NewPoller(dir, time.Second, d, nil)

	stats, err := p.RunOnce(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Matched != 1 || len(d.names()) != 1 {
		t.Errorf("dispatched %v after cancel, stats %+v", d.names(), stats)
	}
}

func TestRunPollsUntilCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "payment_request_1.txt")

	clock := clockz.NewFakeClock()
	d := &fakeDispatcher{}
	p := NewPoller(dir, 2*time.Second, d, nil, WithClock(clock))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	waitFor := func(n int) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for len(d.names()) < n {
			if time.Now().After(deadline) {
				t.Fatalf("dispatched %v, want %d files", d.names(), n)
			}
			clock.Advance(2 * time.Second)
			time.Sleep(5 * time.Millisecond)
		}
	}

	waitFor(1)
	writeFiles(t, dir, "receipt_request_1.txt")
	waitFor(2)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRunOnceReportsHiddenFilesOnce(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, ".payment_request_1.txt")

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := NewPoller(dir, time.Second, &fakeDispatcher{}, logger)

	for i := 0; i < 3; i++ {
		if _, err := p.RunOnce(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if n := strings.Count(buf.String(), "skipping hidden request file"); n != 1 {
		t.Errorf("hidden file reported %d times, want 1", n)
	}

	// reported again once it disappears and comes back
	if err := os.Remove(filepath.Join(dir, ".payment_request_1.txt")); err != nil {
		t.Fatal(err)
	}
	if _, err := p.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	writeFiles(t, dir, ".payment_request_1.txt")
	if _, err := p.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(buf.String(), "skipping hidden request file"); n != 2 {
		t.Errorf("hidden file reported %d times, want 2", n)
	}
}

func TestIsHidden(t *testing.T) {
	if !IsHidden("/in/.payment_request_1.txt") || IsHidden("/in/payment_request_1.txt") {
		t.Error("IsHidden mismatch")
	}
}
