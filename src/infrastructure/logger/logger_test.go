package logger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func observedLogger(level zapcore.Level) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return &Logger{Log: zap.New(core)}, logs
}

func TestNewLoggerWithLevel(t *testing.T) {
	l, err := NewLoggerWithLevel("warn")
	require.NoError(t, err)
	assert.False(t, l.Log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Log.Core().Enabled(zapcore.WarnLevel))

	_, err = NewLoggerWithLevel("loud")
	assert.Error(t, err)
}

func TestGinZapLogger_LogsRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l, logs := observedLogger(zapcore.InfoLevel)

	router := gin.New()
	router.Use(l.GinZapLogger())
	router.GET("/v1/health", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/v1/health?x=1", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "request", entry.Message)
	fields := entry.ContextMap()
	assert.EqualValues(t, http.StatusNoContent, fields["status"])
	assert.Equal(t, "/v1/health", fields["path"])
	assert.Equal(t, "x=1", fields["query"])
}

func TestZapWriter_SkipsBlankLines(t *testing.T) {
	l, logs := observedLogger(zapcore.DebugLevel)
	w := &zapWriter{logger: l.Log, level: zapcore.InfoLevel}

	n, err := w.Write([]byte("  \n"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 0, logs.Len())

	_, _ = w.Write([]byte("[GIN-debug] GET /v1/health\n"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "[GIN-debug] GET /v1/health", logs.All()[0].Message)
}

func TestGormLogger_Trace(t *testing.T) {
	l, logs := observedLogger(zapcore.DebugLevel)
	g := NewGormLogger(l.Log)

	fc := func() (string, int64) { return "SELECT 1", 1 }

	// record not found is ignored by default
	g.Trace(context.Background(), time.Now(), fc, gormlogger.ErrRecordNotFound)
	assert.Equal(t, 0, logs.Len())

	g.Trace(context.Background(), time.Now(), fc, errors.New("connection reset"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "gorm query failed", logs.All()[0].Message)

	silent := g.LogMode(gormlogger.Silent)
	silent.Trace(context.Background(), time.Now(), fc, errors.New("ignored"))
	assert.Equal(t, 1, logs.Len())
}
