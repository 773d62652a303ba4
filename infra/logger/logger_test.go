package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestZerologJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := newZerolog("schedule", &buf, false)

	l.Infof("committed version %s", "v1")
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if entry["component"] != "schedule" {
		t.Errorf("component = %v", entry["component"])
	}
	if entry["level"] != "info" || entry["message"] != "committed version v1" {
		t.Errorf("entry: %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("missing timestamp")
	}
}

func TestZerologDebugwFields(t *testing.T) {
	var buf bytes.Buffer
	l := newZerolog("api", &buf, false)

	l.Debugw("edit rejected", map[string]any{"reason": "overlap", "offenders": 2})
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["reason"] != "overlap" || entry["offenders"] != float64(2) {
		t.Errorf("structured fields missing: %v", entry)
	}
}

func TestZerologConsoleMode(t *testing.T) {
	var buf bytes.Buffer
	l := newZerolog("ingest", &buf, true)

	l.Warnf("skipping row %d", 3)
	out := buf.String()
	if json.Valid([]byte(out)) {
		t.Fatalf("console mode emitted JSON: %s", out)
	}
	if !strings.Contains(out, "skipping row 3") {
		t.Fatalf("message missing from console output: %s", out)
	}
}

func TestNewUsesEnvForFormat(t *testing.T) {
	t.Setenv("BA_ENV", "dev")
	if l := New("test"); l == nil {
		t.Fatal("nil logger")
	}
}
