package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the process-wide logger. It is usable before Init with logrus defaults.
var Log = logrus.New()

// Config controls the level and optional rotating log file.
type Config struct {
	Level        string
	File         string
	FileSizeMB   int
	FileBackups  int
	FileCompress bool
}

// Init configures Log. Output always goes to stdout; when File is set it is
// also appended to a rotating file.
func Init(cfg Config) {
	Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	Log.SetLevel(parseLevel(cfg.Level))

	if cfg.File == "" {
		Log.SetOutput(os.Stdout)
		return
	}
	size := cfg.FileSizeMB
	if size <= 0 {
		size = 10
	}
	Log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    size, // megabytes
		MaxBackups: cfg.FileBackups,
		MaxAge:     28, //days
		Compress:   cfg.FileCompress,
	}))
}

func parseLevel(level string) logrus.Level {
	switch {
	case strings.EqualFold(level, "debug"):
		return logrus.DebugLevel
	case strings.EqualFold(level, "warning"), strings.EqualFold(level, "warn"):
		return logrus.WarnLevel
	case strings.EqualFold(level, "error"):
		return logrus.ErrorLevel
	}
	return logrus.InfoLevel
}
