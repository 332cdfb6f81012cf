package observability

import (
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/voxpilot/voxpilot/internal/config"
)

var (
	globalLogger atomic.Pointer[zap.Logger]
	once         sync.Once
)

// Initialize builds the global zap logger from configuration. Console output
// goes to stderr so it never interleaves with command results on stdout; an
// optional JSON file sink is rotated by lumberjack. Safe to call more than
// once; only the first call wins.
func Initialize(cfg config.LoggerConfig) {
	once.Do(func() {
		level := zap.NewAtomicLevel()
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			level.SetLevel(zap.InfoLevel)
		}

		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000Z07:00")

		var consoleEnc zapcore.Encoder
		if cfg.Format == "json" {
			encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
			consoleEnc = zapcore.NewJSONEncoder(encCfg)
		} else {
			encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
			consoleEnc = zapcore.NewConsoleEncoder(encCfg)
		}

		cores := []zapcore.Core{
			zapcore.NewCore(consoleEnc, zapcore.Lock(os.Stderr), level),
		}

		if cfg.LogFile != "" {
			fileCfg := zap.NewProductionEncoderConfig()
			fileCfg.EncodeLevel = zapcore.CapitalLevelEncoder
			fileWriter := zapcore.AddSync(&lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    cfg.MaxSizeMB,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAgeDays,
			})
			cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), fileWriter, level))
		}

		logger := zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zap.ErrorLevel)).Named("voxpilot")
		globalLogger.Store(logger)
		zap.ReplaceGlobals(logger)
	})
}

// Logger returns the global logger, or a no-op logger if Initialize has not
// been called (the case in most unit tests).
func Logger() *zap.Logger {
	if l := globalLogger.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

// Sync flushes buffered log entries. Sync errors on stderr are expected on
// some platforms and ignored.
func Sync() {
	if l := globalLogger.Load(); l != nil {
		_ = l.Sync()
	}
}
