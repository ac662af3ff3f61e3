package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelGate(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithLevel(WarnLevel), WithOutput(&buf))
	l.Info("hidden")
	l.Warn("shown", Str("k", "v"))
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info leaked through warn gate: %s", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "k=v") {
		t.Fatalf("warn line missing: %s", out)
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithOutput(&buf)).With(Str("dir", "/tmp/run"))
	l.Info("scanned", Int("files", 3))
	out := buf.String()
	if !strings.Contains(out, "dir=/tmp/run") || !strings.Contains(out, "files=3") {
		t.Fatalf("fields missing: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	if lvl, err := ParseLevel("DEBUG"); err != nil || lvl != DebugLevel {
		t.Fatalf("parse debug: %v %v", lvl, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("want error for unknown level")
	}
}
