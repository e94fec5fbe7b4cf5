package log

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// Logger is the file logger. It receives every level.
var Logger = zap.NewNop()

// consoleLogger only prints successes and errors.
var consoleLogger = newConsoleLogger()

var initMu sync.Mutex

// Options configures Init.
type Options struct {
	Dir     string // directory for app.log, "logs" when empty
	Level   string // debug, info, warn, error
	Console bool   // print successes and errors to stderr
}

// Init builds the file and console loggers. Until it is called the file
// logger is a no-op, so packages and tests can log without any setup.
func Init(opts Options) error {
	initMu.Lock()
	defer initMu.Unlock()

	logsDir := opts.Dir
	if logsDir == "" {
		logsDir = "logs"
	}
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	level, err := zapcore.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zapcore.DebugLevel
	}

	fileConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"),
		EncodeDuration: zapcore.SecondsDurationEncoder,
	}

	fileEncoder := &customFileEncoder{Encoder: zapcore.NewConsoleEncoder(fileConfig)}
	fileCore := zapcore.NewCore(
		fileEncoder,
		getLogFileWriter(filepath.Join(logsDir, "app.log")),
		level,
	)
	Logger = zap.New(fileCore)

	if opts.Console {
		consoleLogger = newConsoleLogger()
	} else {
		consoleLogger = zap.NewNop()
	}
	return nil
}

// Sync flushes both loggers.
func Sync() {
	_ = Logger.Sync()
	_ = consoleLogger.Sync()
}

func newConsoleLogger() *zap.Logger {
	consoleConfig := zap.NewDevelopmentConfig()
	consoleConfig.EncoderConfig.EncodeLevel = customLevelEncoder
	consoleConfig.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	consoleConfig.EncoderConfig.EncodeCaller = nil
	consoleConfig.Development = false
	consoleConfig.DisableStacktrace = true
	consoleConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	l, err := consoleConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build console logger: %v\n", err)
		return zap.NewNop()
	}
	return l
}

// GenerateRequestID returns a short random id used to correlate request/response lines.
func GenerateRequestID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// LogRequest writes an outgoing HTTP request to the file log.
func LogRequest(requestID, method, endpoint string, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("endpoint", endpoint),
	}, fields...)
	Logger.Info("HTTP request", allFields...)
}

// LogResponse writes an HTTP response; failures are echoed to the console.
func LogResponse(requestID string, statusCode int, durationMs int64, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.String("request_id", requestID),
		zap.Int("status_code", statusCode),
		zap.Int64("duration_ms", durationMs),
	}, fields...)

	if statusCode >= 200 && statusCode < 300 {
		Logger.Info("HTTP response", allFields...)
		return
	}

	Logger.Error("HTTP response", allFields...)
	if endpoint := fieldsToString(fields); endpoint != "" {
		consoleLogger.Error(fmt.Sprintf("✗ HTTP request failed [%d] %s", statusCode, endpoint))
	} else {
		consoleLogger.Error(fmt.Sprintf("✗ HTTP request failed [%d]", statusCode))
	}
}

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorWhite  = "\033[37m"
)

func customLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch level {
	case zapcore.DebugLevel:
		enc.AppendString(colorCyan + "DEBUG" + colorReset)
	case zapcore.InfoLevel:
		enc.AppendString(colorGreen + "SUCCESS" + colorReset) // console INFO is only used for successes
	case zapcore.WarnLevel:
		enc.AppendString(colorYellow + "WARN" + colorReset)
	case zapcore.ErrorLevel, zapcore.FatalLevel, zapcore.PanicLevel:
		enc.AppendString(colorRed + level.CapitalString() + colorReset)
	default:
		enc.AppendString(colorWhite + level.String() + colorReset)
	}
}

// LogInfo writes to the file log only.
func LogInfo(message string, fields ...zap.Field) {
	Logger.Info(message, fields...)
}

// LogSuccess writes to the file log and prints a check mark line to the console.
func LogSuccess(message string, fields ...zap.Field) {
	Logger.Info(message, fields...)

	if durationMs := extractDuration(fields); durationMs > 0 {
		consoleLogger.Info(fmt.Sprintf("✓ %s (%dms)", message, durationMs))
	} else {
		consoleLogger.Info("✓ " + message)
	}
}

// LogError writes to the file log and the console.
func LogError(message string, fields ...zap.Field) {
	Logger.Error(message, fields...)

	if durationMs := extractDuration(fields); durationMs > 0 {
		consoleLogger.Error(fmt.Sprintf("✗ %s (%dms)", message, durationMs))
	} else {
		consoleLogger.Error("✗ " + message)
	}
}

// LogWarn writes to the file log only.
func LogWarn(message string, fields ...zap.Field) {
	Logger.Warn(message, fields...)
}

// LogDebug writes to the file log only.
func LogDebug(message string, fields ...zap.Field) {
	Logger.Debug(message, fields...)
}

// LogJSON pretty prints a JSON payload into the file log.
func LogJSON(data []byte, label string) {
	var prettyJSON interface{}
	if err := json.Unmarshal(data, &prettyJSON); err != nil {
		Logger.Info(label, zap.String("payload", string(data)))
		return
	}
	formatted, err := json.MarshalIndent(prettyJSON, "", "  ")
	if err != nil {
		Logger.Info(label, zap.String("payload", string(data)))
		return
	}
	Logger.Info(label)
	Logger.Sugar().Infof("\n%s\n", string(formatted))
}

func extractDuration(fields []zap.Field) int64 {
	for _, field := range fields {
		if field.Key == "duration_ms" && field.Type == zapcore.Int64Type {
			return field.Integer
		}
	}
	return 0
}

func fieldsToString(fields []zap.Field) string {
	for _, field := range fields {
		if field.Key == "endpoint" {
			return field.String
		}
	}
	return ""
}

// MaxLogFileSize is the size after which app.log is truncated.
const MaxLogFileSize = 50 * 1024 * 1024

type rotatingLogWriter struct {
	file *os.File
	path string
	mu   sync.Mutex
}

func (w *rotatingLogWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	info, err := w.file.Stat()
	if err == nil && info.Size() > MaxLogFileSize {
		w.file.Close()

		w.file, err = os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return 0, fmt.Errorf("failed to truncate log file: %w", err)
		}
	}

	return w.file.Write(p)
}

func (w *rotatingLogWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Sync()
}

func getLogFileWriter(path string) zapcore.WriteSyncer {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file %s: %v, falling back to stderr\n", path, err)
		return zapcore.AddSync(os.Stderr)
	}

	info, err := file.Stat()
	if err == nil && info.Size() > MaxLogFileSize {
		file.Close()
		file, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to truncate log file %s: %v, falling back to stderr\n", path, err)
			return zapcore.AddSync(os.Stderr)
		}
	}

	return zapcore.AddSync(&rotatingLogWriter{file: file, path: path})
}

// customFileEncoder writes "time     LEVEL message\t{json fields}".
type customFileEncoder struct {
	zapcore.Encoder
}

func (e *customFileEncoder) Clone() zapcore.Encoder {
	return &customFileEncoder{Encoder: e.Encoder.Clone()}
}

func (e *customFileEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	buf := buffer.NewPool().Get()

	buf.AppendString(entry.Time.Format("2006-01-02 15:04:05"))
	buf.AppendString("     ")
	buf.AppendString(entry.Level.CapitalString())
	buf.AppendString(" ")
	buf.AppendString(entry.Message)

	if len(fields) > 0 {
		enc := zapcore.NewMapObjectEncoder()
		for _, field := range fields {
			field.AddTo(enc)
		}
		if jsonData, err := json.Marshal(enc.Fields); err == nil {
			buf.AppendString("\t")
			buf.AppendString(string(jsonData))
		}
	}

	buf.AppendString("\n")
	return buf, nil
}
