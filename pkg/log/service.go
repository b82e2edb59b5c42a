package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mwantia/poifilters/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LoggerService interface {
	Debug(msg string, args ...any)

	Info(msg string, args ...any)

	Warn(msg string, args ...any)

	Error(msg string, args ...any)

	Fatal(msg string, args ...any)

	// Named returns a child logger whose service name is appended to this one.
	Named(name string) LoggerService

	// With returns a child logger that attaches key=value to every entry.
	With(key string, value any) LoggerService
}

type LoggerServiceImpl struct {
	cfg    config.LogConfig
	name   string
	level  LogLevel
	fields []field
	writer io.Writer
	exit   func(int)
}

type field struct {
	key   string
	value any
}

type logEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Service   string         `json:"service,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

func NewLoggerService(name string, cfg config.LogConfig) LoggerService {
	return newLogger(name, cfg, openWriter(cfg))
}

// NewWriterLogger logs to w only.
func NewWriterLogger(name string, cfg config.LogConfig, w io.Writer) LoggerService {
	return newLogger(name, cfg, w)
}

// Discard returns a logger that drops every message.
func Discard() LoggerService {
	impl := newLogger("", config.LogConfig{}, io.Discard)
	impl.level = Fatal + 1
	impl.exit = func(int) {}
	return impl
}

func newLogger(name string, cfg config.LogConfig, w io.Writer) *LoggerServiceImpl {
	return &LoggerServiceImpl{
		cfg:    cfg,
		name:   name,
		level:  Parse(cfg.Level),
		writer: w,
		exit:   os.Exit,
	}
}

// openWriter combines the terminal and the rotated log file.
func openWriter(cfg config.LogConfig) io.Writer {
	var writers []io.Writer

	if !cfg.NoTerminal {
		writers = append(writers, os.Stdout)
	}

	if cfg.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.Rotation.MaxSize,
			MaxBackups: cfg.Rotation.MaxBackups,
			MaxAge:     cfg.Rotation.MaxAge,
			Compress:   cfg.Rotation.Compress,
		})
	}

	switch len(writers) {
	case 0:
		return os.Stdout
	case 1:
		return writers[0]
	}
	return io.MultiWriter(writers...)
}

func (impl *LoggerServiceImpl) log(level LogLevel, msg string, args ...any) {
	if level < impl.level {
		return
	}

	line := impl.format(level, time.Now(), fmt.Sprintf(msg, args...))
	// One write per entry keeps lines whole on shared writers.
	impl.writer.Write(line)

	if level == Fatal {
		impl.exit(1)
	}
}

func (impl *LoggerServiceImpl) format(level LogLevel, now time.Time, msg string) []byte {
	timestamp := now.Format(impl.cfg.TimeFormat)

	if impl.cfg.JSON {
		entry := logEntry{
			Timestamp: timestamp,
			Level:     level.String(),
			Service:   impl.name,
			Message:   msg,
		}
		if len(impl.fields) > 0 {
			entry.Fields = make(map[string]any, len(impl.fields))
			for _, f := range impl.fields {
				entry.Fields[f.key] = f.value
			}
		}

		data, err := json.Marshal(entry)
		if err != nil {
			entry.Fields = nil
			data, _ = json.Marshal(entry)
		}
		return append(data, '\n')
	}

	var b strings.Builder
	if impl.colored() {
		b.WriteString(Color(level))
	}
	fmt.Fprintf(&b, "[%s] %-5s", timestamp, level)
	if impl.name != "" {
		fmt.Fprintf(&b, " [%s]", impl.name)
	}
	b.WriteByte(' ')
	b.WriteString(msg)
	for _, f := range impl.fields {
		fmt.Fprintf(&b, " %s=%v", f.key, f.value)
	}
	if impl.colored() {
		b.WriteString("\033[0m")
	}
	b.WriteByte('\n')

	return []byte(b.String())
}

func (impl *LoggerServiceImpl) colored() bool {
	return !impl.cfg.NoTerminal && !impl.cfg.NoColor
}

func (impl *LoggerServiceImpl) Debug(msg string, args ...any) {
	impl.log(Debug, msg, args...)
}

func (impl *LoggerServiceImpl) Info(msg string, args ...any) {
	impl.log(Info, msg, args...)
}

func (impl *LoggerServiceImpl) Warn(msg string, args ...any) {
	impl.log(Warn, msg, args...)
}

func (impl *LoggerServiceImpl) Error(msg string, args ...any) {
	impl.log(Error, msg, args...)
}

func (impl *LoggerServiceImpl) Fatal(msg string, args ...any) {
	impl.log(Fatal, msg, args...)
}

func (impl *LoggerServiceImpl) Named(name string) LoggerService {
	child := impl.child()
	if impl.name != "" {
		child.name = impl.name + "/" + name
	} else {
		child.name = name
	}
	return child
}

func (impl *LoggerServiceImpl) With(key string, value any) LoggerService {
	if err, ok := value.(error); ok {
		value = err.Error()
	}

	child := impl.child()
	child.fields = append(child.fields, field{key: key, value: value})
	return child
}

// child copies the logger; the writer is shared.
func (impl *LoggerServiceImpl) child() *LoggerServiceImpl {
	clone := *impl
	clone.fields = append([]field(nil), impl.fields...)
	return &clone
}
