package logging

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := globalLogger
	setLogger(zap.New(core, zap.AddCaller()))
	t.Cleanup(func() {
		if prev != nil {
			setLogger(prev)
		}
	})
	return logs
}

func TestMiddlewareRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{"generated", ""},
		{"incoming", "abc-123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := observe(t)
			h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if _, ok := w.(http.Flusher); !ok {
					t.Error("wrapped writer should be a Flusher")
				}
				w.WriteHeader(http.StatusTeapot)
			}))

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			if tt.incoming != "" {
				req.Header.Set("X-Request-ID", tt.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			id := rec.Header().Get("X-Request-ID")
			if id == "" || (tt.incoming != "" && id != tt.incoming) {
				t.Fatalf("X-Request-ID = %q", id)
			}
			done := logs.FilterMessage("request completed").All()
			if len(done) != 1 {
				t.Fatalf("completion entries = %d", len(done))
			}
			fields := done[0].ContextMap()
			if fields["request_id"] != id || fields["status"] != int64(http.StatusTeapot) {
				t.Errorf("completion fields = %v", fields)
			}
		})
	}
}

func TestAnnotateTagsRequestLogs(t *testing.T) {
	logs := observe(t)
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Annotate(r.Context(), Session("s-1"))
		WithContext(r.Context()).Warn("handler entry")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	for _, msg := range []string{"handler entry", "request completed"} {
		entries := logs.FilterMessage(msg).All()
		if len(entries) != 1 {
			t.Fatalf("%s entries = %d", msg, len(entries))
		}
		if got := entries[0].ContextMap()["session"]; got != "s-1" {
			t.Errorf("%s session = %v", msg, got)
		}
	}

	// Outside a request Annotate is a no-op.
	Annotate(httptest.NewRequest(http.MethodGet, "/", nil).Context(), Session("s-2"))
}

func TestCallerAttribution(t *testing.T) {
	logs := observe(t)
	Info("from helper", Location("mem"))
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	tests := map[string]string{
		"from helper":       "logging_test.go",
		"request completed": "logging.go",
	}
	for msg, want := range tests {
		entries := logs.FilterMessage(msg).All()
		if len(entries) != 1 {
			t.Fatalf("%s entries = %d", msg, len(entries))
		}
		if got := filepath.Base(entries[0].Caller.File); got != want {
			t.Errorf("%s caller = %s, want %s", msg, got, want)
		}
	}
}

func TestInitLevels(t *testing.T) {
	prev := globalLogger
	t.Cleanup(func() {
		if prev != nil {
			setLogger(prev)
		}
	})

	if err := Init(Config{Level: "warn", Format: "console", OutputPath: "stderr"}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if L().Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	if !L().Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn should be enabled")
	}

	if err := Init(Config{Level: "bogus"}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !L().Core().Enabled(zapcore.InfoLevel) {
		t.Error("unknown level should fall back to info")
	}
}
