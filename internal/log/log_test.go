package log

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewJSONLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSONLogger(&buf, "warn")

	l.Info().Msg("hidden")
	l.Warn().Str("k", "v").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message should be filtered at warn level")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &m); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, out)
	}
	if m["message"] != "shown" || m["k"] != "v" {
		t.Errorf("unexpected entry: %v", m)
	}
}

func TestValidLevel(t *testing.T) {
	for _, l := range []string{"trace", "debug", "info", "warn", "error"} {
		if !ValidLevel(l) {
			t.Errorf("ValidLevel(%q) = false", l)
		}
	}
	if ValidLevel("loud") {
		t.Error("ValidLevel(loud) = true")
	}
}

func TestInit_File(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "ledgerd.log")
	if err := InitRotating("info", true, file, 1, 2); err != nil {
		t.Fatalf("InitRotating: %v", err)
	}
	cl := WithComponent("test")
	cl.Info().Msg("to file")
	if err := Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"component":"test"`) {
		t.Errorf("log file missing component entry: %s", data)
	}

	if err := Init("error", false, ""); err != nil {
		t.Fatalf("Init reset: %v", err)
	}
}
