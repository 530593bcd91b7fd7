package cli

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/wasm2map"
	"github.com/wippyai/wasm2map/debuginfo"
	"github.com/wippyai/wasm2map/internal/watch"
	"github.com/wippyai/wasm2map/loader"
	"github.com/wippyai/wasm2map/patch"
	"github.com/wippyai/wasm2map/position"
	"github.com/wippyai/wasm2map/sourcemap"
)

// newLogger writes human-readable logs at level to w.
func newLogger(w io.Writer, level zapcore.Level) *zap.Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	enc.CallerKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), level)
	return zap.New(core)
}

// installLogger hands l to every package that logs.
func installLogger(l *zap.Logger) {
	wasm2map.SetLogger(l.Named("session"))
	debuginfo.SetLogger(l.Named("debuginfo"))
	position.SetLogger(l.Named("position"))
	sourcemap.SetLogger(l.Named("sourcemap"))
	patch.SetLogger(l.Named("patch"))
	loader.SetLogger(l.Named("loader"))
	watch.SetLogger(l.Named("watch"))
}
