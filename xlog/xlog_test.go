package xlog

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	antsv2 "github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type syncBuffer struct {
	lock sync.Mutex
	buf  bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Reset() {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.buf.Reset()
}

func testLogger(t *testing.T, lvl logLevel, enc logEncoderType) (XLogger, *syncBuffer) {
	t.Helper()
	w := &syncBuffer{}
	return NewXLogger(
		WithXLoggerLevel(lvl),
		WithXLoggerEncoder(enc),
		WithXLoggerWriter(w),
		WithXLoggerTimeEncoder(zapcore.ISO8601TimeEncoder),
		WithXLoggerLevelEncoder(zapcore.CapitalLevelEncoder),
	), w
}

func TestLogLevelString(t *testing.T) {
	require.Equal(t, "DEBUG", LogLevelDebug.String())
	require.Equal(t, "INFO", LogLevelInfo.String())
	require.Equal(t, "WARN", LogLevelWarn.String())
	require.Equal(t, "ERROR", LogLevelError.String())
	require.Equal(t, zapcore.DebugLevel, LogLevelDebug.zapLevel())
	require.Equal(t, zapcore.InfoLevel, LogLevelInfo.zapLevel())
	require.Equal(t, zapcore.WarnLevel, LogLevelWarn.zapLevel())
	require.Equal(t, zapcore.ErrorLevel, LogLevelError.zapLevel())

	lvl, err := ParseLogLevel(" warn ")
	require.NoError(t, err)
	require.Equal(t, LogLevelWarn, lvl)
	_, err = ParseLogLevel("trace")
	require.ErrorIs(t, err, ErrUnknownLogLevel)
	require.Equal(t, zapcore.DebugLevel, getLogLevelOrDefault(""))
	require.Equal(t, zapcore.ErrorLevel, getLogLevelOrDefault("error"))

	enc, err := ParseEncoder("console")
	require.NoError(t, err)
	require.Equal(t, PlainText, enc)
	_, err = ParseEncoder("xml")
	require.ErrorIs(t, err, ErrUnknownEncoder)
	require.Panics(t, func() {
		NewXLogger(WithXLoggerEncoder(_encMax))
	})
}

func TestXLogger_DynamicLevel(t *testing.T) {
	logger, w := testLogger(t, LogLevelDebug, JSON)
	require.Equal(t, "DEBUG", logger.Level())

	logger.Debug("first", zap.Int("n", 1))
	require.Contains(t, w.String(), `"msg":"first"`)
	require.Contains(t, w.String(), `"n":1`)
	require.Contains(t, w.String(), `"lvl":"DEBUG"`)

	logger.IncreaseLogLevel(zapcore.WarnLevel)
	require.Equal(t, "WARN", logger.Level())
	w.Reset()
	logger.Debug("dropped")
	logger.Info("dropped")
	require.Empty(t, w.String())
	logger.Warn("kept")
	require.Contains(t, w.String(), `"msg":"kept"`)

	// Children follow the parent level.
	child := logger.Named("tree")
	w.Reset()
	child.Info("dropped")
	require.Empty(t, w.String())
	logger.IncreaseLogLevel(zapcore.DebugLevel)
	child.Info("child entry")
	require.Contains(t, w.String(), `"component":"tree"`)
	require.NoError(t, logger.Sync())
}

func TestXLogger_Errors(t *testing.T) {
	logger, w := testLogger(t, LogLevelDebug, JSON)
	base := errors.New("boom")
	err := errors.Wrap(base, "while stepping")

	logger.Error(err, "failed", zap.String("op", "insert"))
	out := w.String()
	require.Contains(t, out, `"error":"while stepping: boom"`)
	require.Contains(t, out, `"op":"insert"`)
	require.NotContains(t, out, `"stack"`)

	w.Reset()
	logger.ErrorStack(err, "failed with stack")
	out = w.String()
	require.Contains(t, out, `"stack"`)
	require.Contains(t, out, "xlog_test.go")

	w.Reset()
	logger.Logf(zapcore.WarnLevel, "value %d", 7)
	require.Contains(t, w.String(), `"msg":"value 7"`)
}

func TestXLogger_PlainTextAndBanner(t *testing.T) {
	logger, w := testLogger(t, LogLevelInfo, PlainText)
	logger.Info("plain entry")
	out := w.String()
	require.True(t, strings.Contains(out, "INFO"))
	require.True(t, strings.Contains(out, "plain entry"))
	require.False(t, strings.HasPrefix(out, "{"))

	w.Reset()
	logger.Banner(testBanner{})
	require.Contains(t, w.String(), "bstviz")
}

type testBanner struct{}

func (testBanner) JSON() string      { return `{"app":"bstviz"}` }
func (testBanner) PlainText() string { return "bstviz" }

func TestNopXLogger(t *testing.T) {
	logger := NewNopXLogger()
	logger.Debug("nothing")
	logger.Error(errors.New("boom"), "nothing")
	logger.ErrorStack(errors.New("boom"), "nothing")
	logger.Banner(testBanner{})
	require.NoError(t, logger.Sync())
	require.NotNil(t, logger.Named("child"))
	NewFxXLogger(logger).LogEvent(&fxevent.Started{})
	NewAntsXLogger(logger).Printf("nothing %d", 1)
}

func TestFxXLogger(t *testing.T) {
	logger, w := testLogger(t, LogLevelDebug, JSON)
	fxLogger := NewFxXLogger(logger)

	fxLogger.LogEvent(&fxevent.Provided{
		ConstructorName: "NewSession",
		OutputTypeNames: []string{"*session.Session"},
	})
	out := w.String()
	require.Contains(t, out, `"component":"Fx"`)
	require.Contains(t, out, `"type":"*session.Session"`)
	require.NotContains(t, out, "callAt")

	w.Reset()
	fxLogger.LogEvent(&fxevent.Invoked{FunctionName: "run", Err: errors.New("bad input")})
	require.Contains(t, w.String(), `"error":"bad input"`)

	logger.IncreaseLogLevel(zapcore.InfoLevel)
	w.Reset()
	fxLogger.LogEvent(&fxevent.Started{})
	require.Empty(t, w.String())

	var nilLogger *FxXLogger
	nilLogger.LogEvent(&fxevent.Started{})
}

func TestAntsXLogger_AntsPool(t *testing.T) {
	logger, w := testLogger(t, LogLevelDebug, JSON)
	var nilLogger *AntsXLogger
	nilLogger.Printf("test %d", 123)

	p, err := antsv2.NewPool(1, antsv2.WithLogger(NewAntsXLogger(logger)))
	require.NoError(t, err)
	defer p.Release()
	require.NoError(t, p.Submit(func() {
		panic("xlogger panic in ants pool")
	}))
	require.Eventually(t, func() bool {
		return strings.Contains(w.String(), "xlogger panic in ants pool")
	}, time.Second, 10*time.Millisecond)
	require.Contains(t, w.String(), `"component":"Ants"`)
}
