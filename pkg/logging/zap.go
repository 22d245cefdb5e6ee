package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/joeydtaylor/steeze-hub/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Keys read by NewZapFactory.
const (
	KeyDir     = "logging:dir"
	KeyFile    = "logging:file"
	KeyLevel   = "logging:level"
	KeyConsole = "logging:console"
)

// ZapFactory backs loggers with a zap core teeing to stdout and a rotated file.
type ZapFactory struct {
	base *zap.Logger
	file *lumberjack.Logger
}

// NewZapFactory builds the diagnostics factory from cfg. An unknown logging:level or a bad
// logging:console flag is reported here, i.e. when the factory is first resolved.
func NewZapFactory(cfg config.Provider) (*ZapFactory, error) {
	lvl, err := zapcore.ParseLevel(config.String(cfg, KeyLevel, "info"))
	if err != nil {
		return nil, &config.ConfigError{Key: KeyLevel, Value: config.String(cfg, KeyLevel, ""), Err: err}
	}
	console, err := config.Bool(cfg, KeyConsole, true)
	if err != nil {
		return nil, err
	}

	dir := config.String(cfg, KeyDir, "log")
	file := &lumberjack.Logger{
		Filename:   filepath.Join(dir, config.String(cfg, KeyFile, "hub.log")),
		MaxSize:    50, // MB
		MaxBackups: 3,
		MaxAge:     7, // days
	}
	return &ZapFactory{base: zap.New(newCore(file, console, lvl)), file: file}, nil
}

// NewLog returns a standalone JSON logger writing to dir/name and, optionally, stdout.
// The closer flushes the logger and closes the file.
func NewLog(dir, name string, console bool) (*zap.Logger, io.Closer) {
	_ = os.MkdirAll(dir, 0o755)
	file := &lumberjack.Logger{
		Filename:   filepath.Join(dir, name),
		MaxSize:    50,
		MaxBackups: 3,
		MaxAge:     7,
	}
	l := zap.New(newCore(file, console, zap.InfoLevel))
	return l, &logFile{l: l, file: file}
}

type logFile struct {
	l    *zap.Logger
	file *lumberjack.Logger
}

func (f *logFile) Close() error {
	_ = f.l.Sync()
	return f.file.Close()
}

func newCore(file *lumberjack.Logger, console bool, lvl zapcore.Level) zapcore.Core {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "dateTime"
	enc.EncodeTime = zapcore.RFC3339NanoTimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(file), lvl),
	}
	if console {
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.Lock(os.Stdout), lvl))
	}
	return zapcore.NewTee(cores...)
}

func (f *ZapFactory) Create(name string) Logger {
	return &zapLogger{l: f.base.Named(name)}
}

// Zap exposes the underlying logger for components that log through zap directly.
func (f *ZapFactory) Zap() *zap.Logger { return f.base }

// Close flushes buffered entries and closes the rotated file.
func (f *ZapFactory) Close() error {
	_ = f.base.Sync()
	return f.file.Close()
}

type zapLogger struct {
	l *zap.Logger
}

func (z *zapLogger) Write(level Level, eventID int, state any, err error, format Formatter) bool {
	zl := toZapLevel(level)
	if !z.l.Core().Enabled(zl) {
		return false
	}
	if format == nil {
		format = DefaultFormatter
	}
	fields := []zap.Field{zap.Int("eventId", eventID)}
	if level >= LevelCritical {
		fields = append(fields, zap.Bool("critical", true))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	if ce := z.l.Check(zl, format(state, err)); ce != nil {
		ce.Write(fields...)
	}
	return true
}

func toZapLevel(l Level) zapcore.Level {
	switch l {
	case LevelVerbose:
		return zapcore.DebugLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelWarning:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}
