package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_RotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.log")
	logger, closer, err := New(Config{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("logging: test line", "asset", "P-101")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `"asset":"P-101"`) {
		t.Errorf("log file = %s", data)
	}
}

func TestValidate(t *testing.T) {
	bad := []Config{
		{Level: "verbose", Format: "json"},
		{Level: "info", Format: "xml"},
	}
	for _, c := range bad {
		if err := c.Validate(); err == nil {
			t.Errorf("expected error for %+v", c)
		}
	}
	c := Config{}
	c.Defaults()
	if err := c.Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}
