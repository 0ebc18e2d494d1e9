package version

import "testing"

func TestString(t *testing.T) {
	want := "gaze-replay dev (unknown, built unknown)"
	if got := String("gaze-replay"); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
