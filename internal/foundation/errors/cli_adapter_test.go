package errors

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation error", ValidationError("bad flag").Build(), 2},
		{"config error", ConfigError("bad config").Build(), 7},
		{"filesystem error", FileSystemError("cannot write").Build(), 11},
		{"template error", TemplateError("bad template").Build(), 11},
		{"canceled build", BuildError("build canceled").Build(), 11},
		{"internal error", InternalError("boom").Build(), 10},
		{"unclassified error", errors.New("unknown"), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	cause := errors.New("no such file or directory")
	err := WrapError(cause, CategoryFileSystem, "cannot read templates").Fatal().Build()

	quiet := NewCLIErrorAdapter(false, slog.Default())
	if got := quiet.FormatError(err); got != "Error: cannot read templates: no such file or directory" {
		t.Errorf("unexpected quiet format: %q", got)
	}

	verbose := NewCLIErrorAdapter(true, slog.Default())
	if got := verbose.FormatError(err); got != err.Error() {
		t.Errorf("unexpected verbose format: %q", got)
	}

	if got := quiet.FormatError(errors.New("plain")); got != "Error: plain" {
		t.Errorf("unexpected unclassified format: %q", got)
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var out, logs bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out
	code := -1
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(ConfigError("bad config").WithContext("path", "lava.yaml").Build())

	if code != 7 {
		t.Errorf("expected exit code 7, got %d", code)
	}
	if out.String() != "Error: bad config\n" {
		t.Errorf("unexpected output %q", out.String())
	}
	if !bytes.Contains(logs.Bytes(), []byte("category=config")) {
		t.Errorf("expected category in logs, got %q", logs.String())
	}

	logs.Reset()
	adapter.HandleError(errors.New("boom"))
	if code != 10 {
		t.Errorf("expected exit code 10 for unclassified error, got %d", code)
	}
	if !bytes.Contains(logs.Bytes(), []byte("level=ERROR")) {
		t.Errorf("expected unclassified error logged at error level, got %q", logs.String())
	}

	code = -1
	adapter.HandleError(nil)
	if code != -1 {
		t.Error("expected nil error to not exit")
	}
}
