// Package logging provides structured logging with zap.
//
// Request logs carry a request ID and whatever fields handlers attach with
// Annotate, such as the explorer session the request operates on.
package logging

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey string

const requestKey contextKey = "request"

var (
	globalLogger *zap.Logger
	helperLogger *zap.Logger // globalLogger skipping the helper frame
	globalLevel  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Config holds logging configuration.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	OutputPath string // stdout, stderr, or file path
}

// Init initializes the global logger.
func Init(cfg Config) error {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var config zap.Config
	if cfg.Format == "console" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}

	globalLevel.SetLevel(level)
	config.Level = globalLevel
	if cfg.OutputPath != "" {
		config.OutputPaths = []string{cfg.OutputPath}
	}

	logger, err := config.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	setLogger(logger)
	return nil
}

func setLogger(logger *zap.Logger) {
	globalLogger = logger
	helperLogger = logger.WithOptions(zap.AddCallerSkip(1))
}

// Sync flushes any buffered log entries.
func Sync() error {
	if globalLogger != nil {
		return globalLogger.Sync()
	}
	return nil
}

// L returns the global logger.
func L() *zap.Logger {
	if globalLogger == nil {
		logger, _ := zap.NewProduction()
		setLogger(logger)
	}
	return globalLogger
}

// WithContext returns the request logger from ctx, or the global logger.
func WithContext(ctx context.Context) *zap.Logger {
	if req, ok := ctx.Value(requestKey).(*requestLog); ok {
		req.mu.Lock()
		defer req.mu.Unlock()
		return req.logger
	}
	return L()
}

// requestLog is the per-request logger plus the fields handlers attached.
type requestLog struct {
	mu     sync.Mutex
	logger *zap.Logger
	fields []zap.Field
}

// Annotate adds fields to the log entries of the request ctx belongs to,
// including its completion entry. Outside a request it does nothing.
func Annotate(ctx context.Context, fields ...zap.Field) {
	req, ok := ctx.Value(requestKey).(*requestLog)
	if !ok {
		return
	}
	req.mu.Lock()
	defer req.mu.Unlock()
	req.fields = append(req.fields, fields...)
	req.logger = req.logger.With(fields...)
}

// Debug logs a debug message.
func Debug(msg string, fields ...zap.Field) {
	L()
	helperLogger.Debug(msg, fields...)
}

// Info logs an info message.
func Info(msg string, fields ...zap.Field) {
	L()
	helperLogger.Info(msg, fields...)
}

// Warn logs a warning message.
func Warn(msg string, fields ...zap.Field) {
	L()
	helperLogger.Warn(msg, fields...)
}

// Error logs an error message.
func Error(msg string, fields ...zap.Field) {
	L()
	helperLogger.Error(msg, fields...)
}

// responseWriter captures status and size. It forwards Flush and Hijack so
// event streams and websocket upgrades work behind the middleware.
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += int64(n)
	return n, err
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return h.Hijack()
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware logs each request with a request ID, taken from X-Request-ID
// or generated, and the fields handlers attached with Annotate.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		logger := L().With(RequestID(requestID))
		req := &requestLog{logger: logger}
		ctx := context.WithValue(r.Context(), requestKey, req)

		logger.Debug("request started",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
		)

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r.WithContext(ctx))

		req.mu.Lock()
		fields := append([]zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rw.status),
			zap.Int64("size", rw.size),
			zap.Duration("duration", time.Since(start)),
		}, req.fields...)
		req.mu.Unlock()
		logger.Info("request completed", fields...)
	})
}

// Field helpers for common fields.
func String(key, val string) zap.Field {
	return zap.String(key, val)
}

func Int(key string, val int) zap.Field {
	return zap.Int(key, val)
}

func Err(err error) zap.Field {
	return zap.Error(err)
}

func Duration(key string, val time.Duration) zap.Field {
	return zap.Duration(key, val)
}

// RequestID tags an entry with the HTTP request it belongs to.
func RequestID(id string) zap.Field {
	return zap.String("request_id", id)
}

// Session tags an entry with an explorer session ID.
func Session(id string) zap.Field {
	return zap.String("session", id)
}

// Location tags an entry with a document location.
func Location(location string) zap.Field {
	return zap.String("location", location)
}
