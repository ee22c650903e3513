package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestVerboseOutputOnlyAppearsWhenEnabled(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		expectEmpty bool
	}{
		{"verbose disabled - no output", false, true},
		{"verbose enabled - has output", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			out := New(Config{
				Verbose:   tt.verbose,
				Writer:    &buf,
				ErrWriter: &buf,
				IsTTY:     false,
			})

			out.Verbose("test message")

			if tt.expectEmpty && buf.Len() > 0 {
				t.Errorf("expected no output when verbose disabled, got: %q", buf.String())
			}
			if !tt.expectEmpty && !strings.Contains(buf.String(), "test message") {
				t.Errorf("expected output to contain 'test message', got: %q", buf.String())
			}
		})
	}
}

func TestInfoOutputAlwaysShown(t *testing.T) {
	for _, verbose := range []bool{false, true} {
		var buf bytes.Buffer
		out := New(Config{
			Verbose:   verbose,
			Writer:    &buf,
			ErrWriter: &buf,
			IsTTY:     false,
		})

		out.Info("info message")

		if !strings.Contains(buf.String(), "info message") {
			t.Errorf("verbose=%v: expected Info output, got: %q", verbose, buf.String())
		}
	}
}

func TestErrorOutputGoesToErrWriter(t *testing.T) {
	var stdoutBuf, stderrBuf bytes.Buffer
	out := New(Config{
		Writer:    &stdoutBuf,
		ErrWriter: &stderrBuf,
		IsTTY:     false,
	})

	out.Error("error message")

	if stdoutBuf.Len() > 0 {
		t.Errorf("expected no stdout output for Error, got: %q", stdoutBuf.String())
	}
	if !strings.Contains(stderrBuf.String(), "error message") {
		t.Errorf("expected stderr to contain 'error message', got: %q", stderrBuf.String())
	}
}

func TestSuccessWithoutTTYIsPlain(t *testing.T) {
	var buf bytes.Buffer
	out := New(Config{Writer: &buf, IsTTY: false})

	out.Success("packaged mymod")

	if got := buf.String(); got != "packaged mymod\n" {
		t.Errorf("Success output = %q, want plain text with newline", got)
	}
}

func TestProgressFormat(t *testing.T) {
	var buf bytes.Buffer
	out := New(Config{
		Writer:    &buf,
		ErrWriter: &buf,
		IsTTY:     true,
	})

	out.StartProgress(10)
	out.UpdateProgress(5, "")

	if !strings.Contains(buf.String(), "Packaging mod 5/10...") {
		t.Errorf("expected progress format 'Packaging mod 5/10...', got: %q", buf.String())
	}
}

func TestProgressWithCustomMessage(t *testing.T) {
	var buf bytes.Buffer
	out := New(Config{
		Writer:    &buf,
		ErrWriter: &buf,
		IsTTY:     true,
	})

	out.StartProgress(20)
	out.UpdateProgress(7, "Scanning")

	if !strings.Contains(buf.String(), "Scanning 7/20...") {
		t.Errorf("expected progress format 'Scanning 7/20...', got: %q", buf.String())
	}
}

func TestProgressSuppressedWhenNotTTY(t *testing.T) {
	var buf bytes.Buffer
	out := New(Config{
		Writer:    &buf,
		ErrWriter: &buf,
		IsTTY:     false,
	})

	out.StartProgress(10)
	out.UpdateProgress(5, "")
	out.EndProgress()

	if buf.Len() > 0 {
		t.Errorf("expected no progress output when not TTY, got: %q", buf.String())
	}
}

func TestProgressSuppressedWhenVerbose(t *testing.T) {
	var buf bytes.Buffer
	out := New(Config{
		Verbose:   true,
		Writer:    &buf,
		ErrWriter: &buf,
		IsTTY:     true,
	})

	out.StartProgress(10)
	out.UpdateProgress(5, "")
	out.EndProgress()

	if strings.Contains(buf.String(), "Packaging mod") {
		t.Errorf("expected no progress output when verbose enabled, got: %q", buf.String())
	}
}

func TestEndProgressClearsLine(t *testing.T) {
	var buf bytes.Buffer
	out := New(Config{
		Writer:    &buf,
		ErrWriter: &buf,
		IsTTY:     true,
	})

	out.StartProgress(10)
	out.UpdateProgress(5, "")
	out.EndProgress()

	if !strings.HasSuffix(buf.String(), "\r") {
		t.Errorf("expected output to end with carriage return after EndProgress, got: %q", buf.String())
	}
}

func TestMessagesAddNewline(t *testing.T) {
	var buf bytes.Buffer
	out := New(Config{
		Verbose:   true,
		Writer:    &buf,
		ErrWriter: &buf,
	})

	out.Verbose("a")
	out.Info("b")
	out.Error("c")

	if got := buf.String(); got != "a\nb\nc\n" {
		t.Errorf("expected newline-terminated messages, got: %q", got)
	}
}

func TestNewWithNilWriters(t *testing.T) {
	out := New(Config{})
	if out == nil {
		t.Error("expected non-nil Output")
	}
	if out.IsVerbose() || out.IsTTY() {
		t.Error("zero config should report verbose=false, tty=false")
	}
}
