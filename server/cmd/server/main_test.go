package main

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_BadFlagsAndConfig(t *testing.T) {
	if code := run([]string{"-no-such-flag"}); code != 2 {
		t.Errorf("unknown flag: code = %d, want 2", code)
	}
	if code := run([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml")}); code != 1 {
		t.Errorf("missing config: code = %d, want 1", code)
	}
}

func TestRun_ListenFailureFlushesLogFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	// Hold the port so ListenAndServe fails.
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	logFile := filepath.Join(t.TempDir(), "server.log")
	cfg := writeConfig(t, fmt.Sprintf("server:\n  http_port: %d\nlog:\n  file: %s\n", port, logFile))

	if code := run([]string{"-config", cfg}); code != 1 {
		t.Fatalf("code = %d, want 1", code)
	}
	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	for _, want := range []string{"reliabilitypro-server starting", "server stopped with error", "shutting down"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("log file missing %q:\n%s", want, data)
		}
	}
}
