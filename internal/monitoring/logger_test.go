package monitoring

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")
	if !called {
		t.Error("custom logger was not called")
	}

	called = false
	SetLogger(nil)
	Logf("test message")
	if called {
		t.Error("nil logger should mute Logf")
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Fatal("Logf should not be nil")
	}
	Logf("test message: %s", "value")
}

func TestSetLogWriters(t *testing.T) {
	defer SetLogWriters(LogWriters{})

	var ops, diag bytes.Buffer
	SetLogWriters(LogWriters{Ops: &ops, Diag: &diag})

	Opsf("eye %s locked", "left")
	Diagf("fit rejected radius=%.3f", 0.031)
	Tracef("dropped because trace stream is disabled")

	if !strings.Contains(ops.String(), "[gaze] ") {
		t.Errorf("ops output missing prefix: %q", ops.String())
	}
	if !strings.Contains(ops.String(), "eye left locked") {
		t.Errorf("ops output = %q", ops.String())
	}
	if !strings.Contains(diag.String(), "fit rejected radius=0.031") {
		t.Errorf("diag output = %q", diag.String())
	}
	if strings.Contains(ops.String(), "fit rejected") {
		t.Error("diag message leaked into ops stream")
	}
}

func TestStreamsDisabledByDefault(t *testing.T) {
	SetLogWriters(LogWriters{})
	Opsf("ops")
	Diagf("diag")
	Tracef("trace")
}
