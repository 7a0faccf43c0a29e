package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewValidation(t *testing.T) {
	noop := func(context.Context, string) {}

	if _, err := New(Config{}, noop); err == nil {
		t.Error("expected error for missing paths")
	}
	if _, err := New(Config{Paths: []string{"src"}}, nil); err == nil {
		t.Error("expected error for nil trigger")
	}

	w, err := New(Config{Paths: []string{"src"}, Ignore: []string{"out/output.txt"}}, noop)
	if err != nil {
		t.Fatal(err)
	}
	if w.cfg.Debounce != debounceDefault {
		t.Errorf("debounce: got %v, want %v", w.cfg.Debounce, debounceDefault)
	}
	if w.cfg.Root != "." {
		t.Errorf("root: got %q, want .", w.cfg.Root)
	}
	if _, ok := w.ignore["output.txt"]; !ok {
		t.Error("ignore list should hold base names")
	}
}

func TestRun_NoPathsExist(t *testing.T) {
	w, err := New(Config{Root: t.TempDir(), Paths: []string{"missing"}}, func(context.Context, string) {})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Run(context.Background()); err == nil {
		t.Fatal("expected error when no watch path exists")
	}
}

func TestRun_TriggersOnChange(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	if err := os.MkdirAll(filepath.Join(src, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}

	triggers := make(chan string, 10)
	w, err := New(Config{
		Root:     root,
		Paths:    []string{"src", "missing"},
		Ignore:   []string{"output.txt"},
		Debounce: 50 * time.Millisecond,
	}, func(_ context.Context, trigger string) {
		triggers <- trigger
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// let the watcher register its directories
	time.Sleep(200 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(src, "output.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "nested", "alloc.cpp"), []byte("int x;"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-triggers:
		if !strings.HasSuffix(got, filepath.Join("nested", "alloc.cpp")) {
			t.Errorf("trigger: got %q, want .../nested/alloc.cpp", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no trigger after file change")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRun_BuildOutputDoesNotRetrigger(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"build", "src"} {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	var calls atomic.Int32
	w, err := New(Config{
		Root:     root,
		Paths:    []string{"."},
		Ignore:   []string{"output.txt"},
		SkipDirs: []string{"build"},
		Debounce: 20 * time.Millisecond,
	}, func(_ context.Context, trigger string) {
		calls.Add(1)
		// what a build and a driver run leave behind
		_ = os.WriteFile(filepath.Join(root, "build", "driver_c"), []byte(trigger), 0o755)
		_ = os.MkdirAll(filepath.Join(root, "build", "obj"), 0o755)
		_ = os.WriteFile(filepath.Join(root, "build", "obj", "alloc.o"), []byte(trigger), 0o644)
		_ = os.WriteFile(filepath.Join(root, "output.txt"), []byte(trigger), 0o644)
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()
	time.Sleep(200 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(root, "src", "alloc.cpp"), []byte("int x;"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(1 * time.Second)
	if n := calls.Load(); n != 1 {
		t.Errorf("calls after one source edit: got %d, want 1", n)
	}
}

func TestSkipped(t *testing.T) {
	root := t.TempDir()
	w, err := New(Config{Root: root, Paths: []string{"."}, SkipDirs: []string{"build"}}, func(context.Context, string) {})
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		path string
		want bool
	}{
		{filepath.Join(root, "build"), true},
		{filepath.Join(root, "build", "driver_c"), true},
		{filepath.Join(root, "build", "obj", "a.o"), true},
		{filepath.Join(root, "buildscripts", "gen.sh"), false},
		{filepath.Join(root, "src", "alloc.cpp"), false},
	}
	for _, tc := range cases {
		if got := w.skipped(tc.path); got != tc.want {
			t.Errorf("skipped(%q): got %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestRun_IgnoredFileDoesNotTrigger(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "tests"), 0o755); err != nil {
		t.Fatal(err)
	}

	triggers := make(chan string, 10)
	w, err := New(Config{
		Root:     root,
		Paths:    []string{"tests"},
		Ignore:   []string{"output.txt", ".drivercheck.lock"},
		Debounce: 20 * time.Millisecond,
	}, func(_ context.Context, trigger string) {
		triggers <- trigger
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()
	time.Sleep(200 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(root, "tests", "output.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-triggers:
		t.Fatalf("unexpected trigger for ignored file: %q", got)
	case <-time.After(300 * time.Millisecond):
	}
}
