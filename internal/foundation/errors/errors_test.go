package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("builder sets fields", func(t *testing.T) {
		err := ConfigError("source directory not found").
			WithContext("source_directory", "/nope").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if !err.IsFatal() {
			t.Error("expected config error to be fatal")
		}
		if err.CanRetry() {
			t.Error("expected config error to not be retryable")
		}
		dir, ok := err.Context().GetString("source_directory")
		if !ok || dir != "/nope" {
			t.Errorf("expected source_directory=/nope, got %q", dir)
		}
	})

	t.Run("wrapped cause", func(t *testing.T) {
		cause := stderrors.New("disk full")
		err := WrapError(cause, CategoryFileSystem, "copy asset").Fatal().Build()

		if !stderrors.Is(err, cause) {
			t.Error("expected cause to be reachable through Unwrap")
		}
		if !strings.Contains(err.Error(), "disk full") {
			t.Errorf("expected cause in message, got %q", err.Error())
		}
	})

	t.Run("detected through fmt wrapping", func(t *testing.T) {
		inner := FileSystemError("clean destination").Build()
		wrapped := fmt.Errorf("build: %w", inner)

		if !IsClassified(wrapped) {
			t.Fatal("expected wrapped error to be classified")
		}
		if GetCategory(wrapped) != CategoryFileSystem {
			t.Errorf("expected filesystem category, got %s", GetCategory(wrapped))
		}
		if GetCategory(stderrors.New("plain")) != CategoryInternal {
			t.Error("expected plain errors to map to internal")
		}
	})

	t.Run("WithContext does not mutate original", func(t *testing.T) {
		base := ValidationError("bad").Build()
		derived := base.WithContext("k", "v")

		if _, ok := base.Context().Get("k"); ok {
			t.Error("original context was mutated")
		}
		if v, _ := derived.Context().GetString("k"); v != "v" {
			t.Errorf("expected derived context k=v, got %q", v)
		}
	})
}

func TestCLIErrorAdapterExitCodes(t *testing.T) {
	a := NewCLIErrorAdapter(false, nil)
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{stderrors.New("plain"), 1},
		{ValidationError("x").Build(), 2},
		{ConfigError("x").Build(), 7},
		{InternalError("x").Build(), 10},
		{FileSystemError("x").Build(), 11},
		{fmt.Errorf("wrapped: %w", BuildError("x").Build()), 11},
	}
	for _, tt := range tests {
		if got := a.ExitCodeFor(tt.err); got != tt.want {
			t.Errorf("ExitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestCLIErrorAdapterFormat(t *testing.T) {
	err := ConfigError("source directory not found").WithContext("source_directory", "/data/img").Build()

	quiet := NewCLIErrorAdapter(false, nil).FormatError(err)
	if quiet != "Error: source directory not found (source_directory: /data/img)" {
		t.Errorf("unexpected quiet format: %q", quiet)
	}
	verbose := NewCLIErrorAdapter(true, nil).FormatError(err)
	if !strings.HasPrefix(verbose, "[config:fatal]") {
		t.Errorf("unexpected verbose format: %q", verbose)
	}
}

func TestHTTPErrorAdapter(t *testing.T) {
	a := NewHTTPErrorAdapter(nil)
	err := FileSystemError("copy asset").WithContext("source", "/a.png").WithCause(stderrors.New("denied")).Build()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	a.WriteErrorResponse(rec, req, err)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`"code":"filesystem"`, `"cause":"denied"`, `"source":"/a.png"`} {
		if !strings.Contains(body, want) {
			t.Errorf("body %s missing %s", body, want)
		}
	}
	if a.StatusCodeFor(ConfigError("x").Build()) != http.StatusBadRequest {
		t.Error("expected config errors to map to 400")
	}
}
