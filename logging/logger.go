// Package logging provides an explicitly constructed, leveled logger.
//
// A Logger is created by the process entry point with New, handed to the
// components that need it, and closed on exit. There is no package level
// instance. Lines look like:
//
//	2024-05-01 12:00:00.000 [INFO] threadpool/pool.go:87 pool started {"threads": 4}
//
// The console sink optionally colours the level tag; the file sink appends
// plain text. Both are built on go.uber.org/zap cores.
package logging

import (
	"errors"
	"io"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ygrebnov/utoolkit/timeutil"
)

// ErrUnknownLevel is returned by ParseLevel for unrecognised names.
var ErrUnknownLevel = errors.New("logging: unknown level")

// Config configures a Logger.
type Config struct {
	// Level is the minimum level written: trace, debug, info, warn, error or fatal.
	Level string `mapstructure:"level" default:"info"`

	// Console enables the console sink.
	Console bool `mapstructure:"console" default:"true"`

	// ConsoleWriter overrides the console destination. Defaults to os.Stdout.
	ConsoleWriter io.Writer `mapstructure:"-"`

	// File, when set, appends every line to the named file.
	File string `mapstructure:"file"`

	// Color colours the console level tag.
	Color bool `mapstructure:"color"`

	// AddSource records the caller's file:line on every line.
	AddSource bool `mapstructure:"add_source" default:"true"`
}

// sinks is the state shared by a Logger and every child made by Named or With.
type sinks struct {
	level zap.AtomicLevel
	core  atomic.Pointer[zapcore.Core]

	mu            sync.Mutex
	console       bool
	consoleWriter io.Writer
	color         bool
	file          *os.File
	addSource     bool
}

// Logger writes leveled lines to the console and/or a file.
// All methods are safe for concurrent use. A nil *Logger discards everything.
type Logger struct {
	s      *sinks
	name   string
	fields []zap.Field
}

// New builds a Logger from cfg.
func New(cfg Config) (*Logger, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	w := cfg.ConsoleWriter
	if w == nil {
		w = os.Stdout
	}

	s := &sinks{
		level:         zap.NewAtomicLevelAt(lvl.zap()),
		console:       cfg.Console,
		consoleWriter: w,
		color:         cfg.Color,
		addSource:     cfg.AddSource,
	}

	if cfg.File != "" {
		if s.file, err = openAppend(cfg.File); err != nil {
			return nil, err
		}
	}
	s.rebuild()

	return &Logger{s: s}, nil
}

// NewNop returns a Logger that discards every line.
func NewNop() *Logger { return &Logger{} }

func openAppend(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// rebuild recomputes the tee of enabled sinks. Callers hold s.mu or own s exclusively.
func (s *sinks) rebuild() {
	var cores []zapcore.Core
	if s.console {
		enc := zapcore.NewConsoleEncoder(encoderConfig(s.color))
		cores = append(cores, zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(s.consoleWriter)), s.level))
	}
	if s.file != nil {
		enc := zapcore.NewConsoleEncoder(encoderConfig(false))
		cores = append(cores, zapcore.NewCore(enc, zapcore.Lock(s.file), s.level))
	}
	core := zapcore.NewTee(cores...)
	s.core.Store(&core)
}

func encoderConfig(colored bool) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "logger",
		CallerKey:        "caller",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout(timeutil.TimestampLayout),
		EncodeLevel:      levelEncoder(colored),
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		ConsoleSeparator: " ",
	}
}

var levelColors = map[Level]*color.Color{
	TraceLevel: color.New(color.FgHiBlack),
	DebugLevel: color.New(color.FgCyan),
	InfoLevel:  color.New(color.FgGreen),
	WarnLevel:  color.New(color.FgYellow),
	ErrorLevel: color.New(color.FgRed),
	FatalLevel: color.New(color.FgHiRed, color.Bold),
}

func init() {
	// colouring is decided per Logger by Config.Color, not by terminal detection
	for _, c := range levelColors {
		c.EnableColor()
	}
}

func levelEncoder(colored bool) zapcore.LevelEncoder {
	return func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		tag := "[" + Level(l).String() + "]"
		if c, ok := levelColors[Level(l)]; colored && ok {
			tag = c.Sprint(tag)
		}
		enc.AppendString(tag)
	}
}

// SetLevel changes the minimum level for this logger and all its children.
func (l *Logger) SetLevel(level Level) {
	if l == nil || l.s == nil {
		return
	}
	l.s.level.SetLevel(level.zap())
}

// Level returns the current minimum level.
func (l *Logger) Level() Level {
	if l == nil || l.s == nil {
		return FatalLevel + 1
	}
	return Level(l.s.level.Level())
}

// Enabled reports whether lines at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return l != nil && l.s != nil && l.s.level.Enabled(level.zap())
}

// SetFile redirects the file sink to path, closing the previous file.
// An empty path disables the file sink.
func (l *Logger) SetFile(path string) error {
	if l == nil || l.s == nil {
		return nil
	}
	s := l.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var f *os.File
	if path != "" {
		var err error
		if f, err = openAppend(path); err != nil {
			return err
		}
	}
	old := s.file
	s.file = f
	s.rebuild()
	if old != nil {
		return old.Close()
	}
	return nil
}

// EnableConsole turns the console sink on or off.
func (l *Logger) EnableConsole(enable bool) {
	if l == nil || l.s == nil {
		return
	}
	l.s.mu.Lock()
	l.s.console = enable
	l.s.rebuild()
	l.s.mu.Unlock()
}

// Named returns a child logger whose lines carry name. Names nest with dots.
func (l *Logger) Named(name string) *Logger {
	if l == nil || l.s == nil || name == "" {
		return l
	}
	child := *l
	if child.name == "" {
		child.name = name
	} else {
		child.name += "." + name
	}
	return &child
}

// With returns a child logger that adds fields to every line.
func (l *Logger) With(fields ...zap.Field) *Logger {
	if l == nil || l.s == nil || len(fields) == 0 {
		return l
	}
	child := *l
	child.fields = append(append(make([]zap.Field, 0, len(l.fields)+len(fields)), l.fields...), fields...)
	return &child
}

// Log writes msg at level.
func (l *Logger) Log(level Level, msg string, fields ...zap.Field) { l.log(level, msg, fields) }

func (l *Logger) Trace(msg string, fields ...zap.Field) { l.log(TraceLevel, msg, fields) }
func (l *Logger) Debug(msg string, fields ...zap.Field) { l.log(DebugLevel, msg, fields) }
func (l *Logger) Info(msg string, fields ...zap.Field)  { l.log(InfoLevel, msg, fields) }
func (l *Logger) Warn(msg string, fields ...zap.Field)  { l.log(WarnLevel, msg, fields) }
func (l *Logger) Error(msg string, fields ...zap.Field) { l.log(ErrorLevel, msg, fields) }

// Fatal writes msg at FatalLevel. Unlike zap's Fatal it does not exit.
func (l *Logger) Fatal(msg string, fields ...zap.Field) { l.log(FatalLevel, msg, fields) }

// log must be called directly by an exported method so the caller skip stays fixed.
func (l *Logger) log(level Level, msg string, fields []zap.Field) {
	if !l.Enabled(level) {
		return
	}
	core := *l.s.core.Load()

	ent := zapcore.Entry{
		LoggerName: l.name,
		Time:       time.Now(),
		Level:      level.zap(),
		Message:    msg,
	}
	if l.s.addSource {
		ent.Caller = zapcore.NewEntryCaller(runtime.Caller(2))
	}

	ce := core.Check(ent, nil)
	if ce == nil {
		return
	}
	if len(l.fields) > 0 {
		fields = append(append(make([]zap.Field, 0, len(l.fields)+len(fields)), l.fields...), fields...)
	}
	ce.Write(fields...)
}

// Sync flushes buffered output.
func (l *Logger) Sync() error {
	if l == nil || l.s == nil {
		return nil
	}
	return (*l.s.core.Load()).Sync()
}

// Close flushes and closes the file sink. The console sink keeps working.
func (l *Logger) Close() error {
	if l == nil || l.s == nil {
		return nil
	}
	l.s.mu.Lock()
	f := l.s.file
	l.s.mu.Unlock()
	var syncErr error
	if f != nil {
		syncErr = f.Sync()
	}
	return errors.Join(syncErr, l.SetFile(""))
}
