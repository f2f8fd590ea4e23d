package app

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/aquahimiya/catalogd/config"
)

// InitLogger installs the global zap logger, named after and tagged with the
// appid. Subsystems add their own "namespace" field. With
// logger.file_enable the console output is mirrored to a rotated JSON file
// under the work dir.
func InitLogger(cfg *config.AppConfig) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if cfg.System.Debug {
		level.SetLevel(zapcore.DebugLevel)
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	if cfg.Logger.Mode == "production" {
		consoleCfg = zap.NewProductionEncoderConfig()
		consoleCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stdout), level),
	}

	if filename := logFilename(cfg); filename != "" {
		rotated := &lumberjack.Logger{
			Filename:   filename,
			MaxSize:    32,
			MaxBackups: 10,
			MaxAge:     30,
		}
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(rotated), level))
	}

	logger := zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("appid", cfg.System.Appid)),
	).Named(cfg.System.Appid)
	zap.ReplaceGlobals(logger)
}

// logFilename resolves logger.filename, defaulting to <workdir>/logs. It
// returns "" when file output is off or the directory cannot be created.
func logFilename(cfg *config.AppConfig) string {
	if !cfg.Logger.FileEnable {
		return ""
	}
	filename := cfg.Logger.Filename
	if filename == "" {
		filename = filepath.Join(cfg.GetLogDir(), cfg.System.Appid+".log")
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return ""
	}
	return filename
}
