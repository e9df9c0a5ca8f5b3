package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ILogger is the structured logger every service receives. Each entry carries
// the module that emitted it plus free-form details.
type ILogger interface {
	Debug(module, message string, details map[string]interface{})
	Info(module, message string, details map[string]interface{})
	Warn(module, message string, details map[string]interface{})
	Error(module, message string, details map[string]interface{})
	Sync() error
}

type ZapLogger struct {
	logger *zap.Logger
}

func newRotator(logFilePath string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    10, // Megabytes
		MaxBackups: 5,
		MaxAge:     30, // Days
		Compress:   true,
	}
}

func fileEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "message"
	encoderConfig.LevelKey = "level"
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(encoderConfig)
}

// NewZapLogger writes JSON lines to a rotating file and mirrors everything to stdout.
func NewZapLogger(logFilePath string, isProd bool) *ZapLogger {
	jsonEncoder := fileEncoder()
	fileCore := zapcore.NewCore(jsonEncoder, zapcore.AddSync(newRotator(logFilePath)), zap.InfoLevel)

	var consoleEncoder zapcore.Encoder
	if isProd {
		consoleEncoder = jsonEncoder
	} else {
		consoleEncoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}
	consoleCore := zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), zap.DebugLevel)

	l := zap.New(zapcore.NewTee(fileCore, consoleCore), zap.AddCaller(), zap.AddCallerSkip(1))
	return &ZapLogger{logger: l}
}

// NewFileOnlyLogger skips the console core. The terminal UI owns stdout, so it
// logs through this one.
func NewFileOnlyLogger(logFilePath string) *ZapLogger {
	fileCore := zapcore.NewCore(fileEncoder(), zapcore.AddSync(newRotator(logFilePath)), zap.DebugLevel)
	return &ZapLogger{logger: zap.New(fileCore, zap.AddCaller(), zap.AddCallerSkip(1))}
}

// NewNop discards everything.
func NewNop() *ZapLogger {
	return &ZapLogger{logger: zap.NewNop()}
}

func (l *ZapLogger) Debug(module, message string, details map[string]interface{}) {
	if details == nil {
		details = make(map[string]interface{})
	}
	l.logger.Debug(message, zap.String("module", module), zap.Any("details", details))
}

func (l *ZapLogger) Info(module, message string, details map[string]interface{}) {
	if details == nil {
		details = make(map[string]interface{})
	}
	l.logger.Info(message, zap.String("module", module), zap.Any("details", details))
}

func (l *ZapLogger) Warn(module, message string, details map[string]interface{}) {
	if details == nil {
		details = make(map[string]interface{})
	}
	l.logger.Warn(message, zap.String("module", module), zap.Any("details", details))
}

func (l *ZapLogger) Error(module, message string, details map[string]interface{}) {
	if details == nil {
		details = make(map[string]interface{})
	}
	if err, ok := details["error"]; ok {
		l.logger.Error(message, zap.String("module", module), zap.Any("details", details), zap.Any("error_ref", err))
		return
	}
	l.logger.Error(message, zap.String("module", module), zap.Any("details", details))
}

func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}
