package logs

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesText(t *testing.T) {
	var buf bytes.Buffer
	log, closer, err := New(&buf, "info", "")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	defer closer.Close()

	log.Debug("hidden")
	log.Info("keyframe added", "frame", 110)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line should be filtered at info: %q", out)
	}
	if !strings.Contains(out, "keyframe added") || !strings.Contains(out, "frame=110") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestNewFansOutToFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "ledkey.log")
	log, closer, err := New(&buf, "debug", path)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	log.Debug("playback started", "period", "50ms")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var line map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(data), &line); err != nil {
		t.Fatalf("expected a JSON line, got %q: %v", data, err)
	}
	if line["msg"] != "playback started" {
		t.Fatalf("unexpected msg %v", line["msg"])
	}
	if !strings.Contains(buf.String(), "playback started") {
		t.Fatalf("expected text output too, got %q", buf.String())
	}
}

func TestNewBadLevel(t *testing.T) {
	if _, _, err := New(&bytes.Buffer{}, "loud", ""); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
