package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewReporterInCI(t *testing.T) {
	t.Setenv("CI", "true")
	if _, ok := NewReporter("Embedding drinks").(*CIReporter); !ok {
		t.Error("expected CIReporter when CI is set")
	}
}

func TestNewReporterInTerminal(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("GITHUB_ACTIONS", "")
	if _, ok := NewReporter("Embedding drinks").(*TerminalReporter); !ok {
		t.Error("expected TerminalReporter outside CI")
	}
}

func TestCIReporterOutput(t *testing.T) {
	var buf bytes.Buffer
	r := &CIReporter{description: "Embedding drinks", out: &buf}
	r.Start(2)
	r.Update(1, "Whiskey Sour")
	r.Update(2, "Paloma")
	r.Finish()

	out := buf.String()
	for _, want := range []string{"Embedding drinks: 2 item(s)", "[1/2] Whiskey Sour", "[2/2] Paloma", "Embedding drinks: done"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
