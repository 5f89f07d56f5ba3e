package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	// Logger carries debug and warning output.
	Logger *logrus.Logger
	// InfoLogger carries informational output.
	InfoLogger *logrus.Logger
	// ErrorLogger carries errors; it writes to stderr and the error log file.
	ErrorLogger *logrus.Logger
)

// LogConfig selects the log files and level.
type LogConfig struct {
	ErrorLogPath string
	InfoLogPath  string
	LogLevel     string
	// Quiet routes console output to io.Discard, leaving only the log files.
	Quiet bool
}

// CustomFormatter renders "[time] [LEVL] (caller) message k=v ...".
type CustomFormatter struct {
	TimestampFormat string
}

// Format implements logrus.Formatter.
func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	layout := f.TimestampFormat
	if layout == "" {
		layout = "15:04:05 MST 2006/01/02"
	}
	timestamp := entry.Time.Format(layout)

	level := strings.ToUpper(entry.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] (%s) %s", timestamp, level, getCaller(), entry.Message)

	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
		}
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

// getCaller walks past logrus and this package to the real call site.
func getCaller() string {
	for i := 2; i < 20; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		if strings.Contains(file, "sirupsen/logrus") ||
			strings.HasSuffix(file, "/logger/logger.go") {
			continue
		}
		funcName := runtime.FuncForPC(pc).Name()
		if idx := strings.LastIndex(funcName, "/"); idx >= 0 {
			funcName = funcName[idx+1:]
		}
		return fmt.Sprintf("%s:%s:%d", filepath.Base(file), funcName, line)
	}
	return "unknown:unknown:0"
}

// ParseLogLevel maps a level name to logrus, falling back to info.
func ParseLogLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}

// InitLogger builds the three loggers from config.
func InitLogger(config LogConfig) error {
	formatter := &CustomFormatter{TimestampFormat: "15:04:05 MST 2006/01/02"}
	level := ParseLogLevel(config.LogLevel)

	var stdout, stderr io.Writer = os.Stdout, os.Stderr
	if config.Quiet {
		stdout, stderr = io.Discard, io.Discard
	}

	InfoLogger = newLogger(formatter, level)
	ErrorLogger = newLogger(formatter, level)

	if config.InfoLogPath != "" {
		infoLogFile, err := openLogFile(config.InfoLogPath)
		if err != nil {
			InfoLogger.SetOutput(stdout)
			InfoLogger.Warnf("Failed to open info log file %s, fallback to stdout: %v", config.InfoLogPath, err)
		} else {
			InfoLogger.SetOutput(io.MultiWriter(stdout, infoLogFile))
		}
	} else {
		InfoLogger.SetOutput(stdout)
	}

	if config.ErrorLogPath != "" {
		errorLogFile, err := openLogFile(config.ErrorLogPath)
		if err != nil {
			ErrorLogger.SetOutput(stderr)
			ErrorLogger.Warnf("Failed to open error log file %s, fallback to stderr: %v", config.ErrorLogPath, err)
		} else {
			ErrorLogger.SetOutput(io.MultiWriter(stderr, errorLogFile))
		}
	} else {
		ErrorLogger.SetOutput(stderr)
	}

	Logger = newLogger(formatter, level)
	Logger.SetOutput(InfoLogger.Out)
	return nil
}

// UseWriter points every logger at w. Tests use it to capture output.
func UseWriter(w io.Writer, level string) {
	formatter := &CustomFormatter{}
	lvl := ParseLogLevel(level)
	Logger = newLogger(formatter, lvl)
	InfoLogger = newLogger(formatter, lvl)
	ErrorLogger = newLogger(formatter, lvl)
	Logger.SetOutput(w)
	InfoLogger.SetOutput(w)
	ErrorLogger.SetOutput(w)
}

func newLogger(formatter logrus.Formatter, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(formatter)
	l.SetLevel(level)
	return l
}

func openLogFile(logPath string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
}

// WithFields returns an entry on the debug logger, or nil before InitLogger.
func WithFields(fields logrus.Fields) *logrus.Entry {
	if Logger == nil {
		return nil
	}
	return Logger.WithFields(fields)
}

func Info(args ...interface{}) {
	if InfoLogger != nil {
		InfoLogger.Info(args...)
	}
}

func Infof(format string, args ...interface{}) {
	if InfoLogger != nil {
		InfoLogger.Infof(format, args...)
	}
}

func Debug(args ...interface{}) {
	if Logger != nil {
		Logger.Debug(args...)
	}
}

func Debugf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Debugf(format, args...)
	}
}

func Warn(args ...interface{}) {
	if Logger != nil {
		Logger.Warn(args...)
	}
}

func Warnf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Warnf(format, args...)
	}
}

func Error(args ...interface{}) {
	if ErrorLogger != nil {
		ErrorLogger.Error(args...)
	}
}

func Errorf(format string, args ...interface{}) {
	if ErrorLogger != nil {
		ErrorLogger.Errorf(format, args...)
	}
}

// Fatalf logs and exits the process.
func Fatalf(format string, args ...interface{}) {
	if ErrorLogger != nil {
		ErrorLogger.Fatalf(format, args...)
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
